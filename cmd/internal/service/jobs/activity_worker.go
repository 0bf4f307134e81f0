package jobs

import (
	"context"

	"casetrack/cmd/internal/domain/entity"

	"github.com/labstack/gommon/log"
)

type ActivitySource interface {
	Queue() <-chan *entity.ActivityLog
	Persist(entry *entity.ActivityLog)
}

// ActivityWorker is the single consumer of the activity queue.
type ActivityWorker struct {
	source ActivitySource
}

func NewActivityWorker(source ActivitySource) *ActivityWorker {
	return &ActivityWorker{source: source}
}

// Start persists entries until ctx is done, then drains whatever is still buffered.
func (w *ActivityWorker) Start(ctx context.Context) {
	log.Info("Activity worker started")
	queue := w.source.Queue()

	for {
		select {
		case <-ctx.Done():
			w.drain(queue)
			log.Info("Stopping activity worker...")
			return
		case entry := <-queue:
			w.source.Persist(entry)
		}
	}
}

func (w *ActivityWorker) drain(queue <-chan *entity.ActivityLog) {
	for {
		select {
		case entry := <-queue:
			w.source.Persist(entry)
		default:
			return
		}
	}
}
