package migration

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"casetrack/cmd/internal/domain/entity"
	"casetrack/cmd/internal/domain/workflow"
	"casetrack/cmd/internal/utils"
	"casetrack/cmd/internal/utils/uid"

	"github.com/labstack/gommon/log"
	"gorm.io/gorm"
)

const (
	ActionLegacyStatusArchived = "legacy_status_archived"

	archiveTimeout = 30 * time.Second
	migrationActor = 0
)

// ArchiveSink keeps a copy of archived data outside the database.
type ArchiveSink interface {
	UploadFile(ctx context.Context, data []byte, filename string) (string, error)
}

// Default returns the data migrations of the service in the order they must run.
// sink may be nil, archived data then only lands in the activity log.
func Default(sink ArchiveSink) []Migration {
	archive := &collectiveArchive{sink: sink}
	return []Migration{
		{
			ID:          "0001_seed_case_statuses",
			Description: "Seed the case status catalog when it is empty",
			Up:          seedCaseStatuses,
		},
		{
			ID:          "0002_backfill_case_status_ids",
			Description: "Map legacy case statuses onto the catalog",
			Up:          backfillCaseStatusIDs,
		},
		{
			ID:          "0003_archive_collective_process_status",
			Description: "Move the retired collective process status into the activity log",
			Up:          archive.up,
			AfterCommit: archive.upload,
		},
		{
			ID:          "0004_renumber_sequential_statuses",
			Description: "Renumber orderNumber after the sequential workflow was redefined",
			Up:          renumberSequentialStatuses,
		},
	}
}

func seedCaseStatuses(tx *gorm.DB) (int64, error) {
	var count int64
	if err := tx.Model(&entity.CaseStatus{}).Count(&count).Error; err != nil {
		return 0, err
	}

	if count > 0 {
		log.Infof("Catalog already holds %d statuses, skipping seed", count)
		return 0, nil
	}

	now := utils.NowUTC()
	statuses := make([]*entity.CaseStatus, len(workflow.DefaultCatalog))
	for i, seed := range workflow.DefaultCatalog {
		statuses[i] = &entity.CaseStatus{
			ID:             uid.Generate(),
			Code:           seed.Code,
			Name:           seed.Name,
			NameEn:         seed.NameEn,
			Category:       seed.Category,
			Color:          seed.Color,
			SortOrder:      seed.SortOrder,
			OrderNumber:    seed.OrderNumber,
			FillableFields: entity.JoinList(seed.FillableFields),
			AllowedNext:    entity.JoinList(seed.AllowedNext),
			IsActive:       true,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
	}

	if err := tx.Create(&statuses).Error; err != nil {
		return 0, err
	}
	return int64(len(statuses)), nil
}

func backfillCaseStatusIDs(tx *gorm.DB) (int64, error) {
	var catalog []*entity.CaseStatus
	if err := tx.Find(&catalog).Error; err != nil {
		return 0, err
	}

	resolver := newLegacyResolver(catalog)
	now := utils.NowUTC()
	var rows int64

	var processes []*entity.IndividualProcess
	err := tx.Where("case_status_id IS NULL AND status <> ''").Find(&processes).Error
	if err != nil {
		return 0, err
	}

	for _, p := range processes {
		var active []*entity.IndividualProcessStatus
		err := tx.Where("individual_process_id = ? AND is_active = ?", p.ID, true).
			Order("changed_at DESC, id DESC").
			Limit(1).
			Find(&active).Error
		if err != nil {
			return rows, err
		}

		// An existing active row wins over the denormalized string
		var status *entity.CaseStatus
		if len(active) > 0 {
			status = resolver.forRow(active[0])
		} else {
			status = resolver.resolve(p.LegacyStatus, fmt.Sprintf("case %d", p.ID))
		}
		if status == nil {
			continue
		}

		err = tx.Model(&entity.IndividualProcess{}).
			Where("id = ?", p.ID).
			Updates(map[string]any{
				"case_status_id": status.ID,
				"version":        p.Version + 1,
				"updated_at":     now,
			}).Error
		if err != nil {
			return rows, err
		}
		rows++

		if len(active) > 0 {
			current := active[0]
			if current.CaseStatusID == nil || *current.CaseStatusID != status.ID {
				err := tx.Model(&entity.IndividualProcessStatus{}).
					Where("id = ?", current.ID).
					Update("case_status_id", status.ID).Error
				if err != nil {
					return rows, err
				}
				rows++
			}
			if status.Code != resolver.code(p.LegacyStatus) {
				log.Infof("Case %d keeps active status %s over legacy status %q", p.ID, status.Code, p.LegacyStatus)
			}
			continue
		}

		statusID := status.ID
		row := &entity.IndividualProcessStatus{
			ID:                  uid.Generate(),
			IndividualProcessID: p.ID,
			CaseStatusID:        &statusID,
			StatusName:          status.Name,
			IsActive:            true,
			ChangedByID:         migrationActor,
			ChangedAt:           p.UpdatedAt,
			Notes:               "Imported from legacy status: " + p.LegacyStatus,
			CreatedAt:           now,
		}
		if err := tx.Create(row).Error; err != nil {
			return rows, err
		}
		rows++
	}

	var history []*entity.IndividualProcessStatus
	if err := tx.Where("case_status_id IS NULL").Find(&history).Error; err != nil {
		return rows, err
	}

	for _, h := range history {
		status := resolver.resolve(h.StatusName, fmt.Sprintf("history row %d", h.ID))
		if status == nil {
			continue
		}

		err := tx.Model(&entity.IndividualProcessStatus{}).
			Where("id = ?", h.ID).
			Update("case_status_id", status.ID).Error
		if err != nil {
			return rows, err
		}
		rows++
	}
	return rows, nil
}

// collectiveArchive moves collective process statuses into the activity log.
// The S3 snapshot is uploaded only after that transaction committed.
type collectiveArchive struct {
	sink     ArchiveSink
	snapshot []map[string]any
}

func (a *collectiveArchive) up(tx *gorm.DB) (int64, error) {
	var processes []*entity.CollectiveProcess
	if err := tx.Where("status <> ''").Find(&processes).Error; err != nil {
		return 0, err
	}

	if len(processes) == 0 {
		return 0, nil
	}

	now := utils.NowUTC()
	snapshot := make([]map[string]any, 0, len(processes))
	for _, p := range processes {
		details := map[string]any{
			"reference": p.Reference,
			"status":    p.LegacyStatus,
		}
		snapshot = append(snapshot, map[string]any{
			"id":        p.ID,
			"reference": p.Reference,
			"status":    p.LegacyStatus,
		})

		raw, err := json.Marshal(details)
		if err != nil {
			return 0, err
		}

		entry := &entity.ActivityLog{
			ID:         uid.Generate(),
			UserID:     migrationActor,
			Action:     ActionLegacyStatusArchived,
			EntityType: entity.EntityCollectiveProcess,
			EntityID:   p.ID,
			Details:    string(raw),
			CreatedAt:  now,
		}
		if err := tx.Create(entry).Error; err != nil {
			return 0, err
		}
	}

	result := tx.Model(&entity.CollectiveProcess{}).
		Where("status <> ''").
		Updates(map[string]any{"status": "", "updated_at": now})
	if result.Error != nil {
		return 0, result.Error
	}

	a.snapshot = snapshot
	return result.RowsAffected, nil
}

func (a *collectiveArchive) upload() error {
	if a.sink == nil || len(a.snapshot) == 0 {
		return nil
	}

	data, err := json.Marshal(a.snapshot)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	key, err := a.sink.UploadFile(ctx, data, fmt.Sprintf("collective-process-status-%s.json", uid.Token()))
	if err != nil {
		return fmt.Errorf("upload snapshot of %d collective processes: %w", len(a.snapshot), err)
	}

	log.Infof("Archived %d collective process statuses to %s", len(a.snapshot), key)
	a.snapshot = nil
	return nil
}

func renumberSequentialStatuses(tx *gorm.DB) (int64, error) {
	// Cleared first so no intermediate state holds a duplicate orderNumber
	cleared := tx.Model(&entity.CaseStatus{}).
		Where("order_number IS NOT NULL").
		Update("order_number", nil)
	if cleared.Error != nil {
		return 0, cleared.Error
	}

	now := utils.NowUTC()
	var rows int64
	for i, code := range workflow.SequentialCodes {
		result := tx.Model(&entity.CaseStatus{}).
			Where("code = ?", code).
			Updates(map[string]any{"order_number": i + 1, "updated_at": now})
		if result.Error != nil {
			return rows, result.Error
		}

		if result.RowsAffected == 0 {
			log.Warnf("Sequential status %s is missing from the catalog", code)
		}
		rows += result.RowsAffected
	}
	return rows, nil
}

type legacyResolver struct {
	byID   map[int64]*entity.CaseStatus
	byCode map[string]*entity.CaseStatus
	byName map[string]*entity.CaseStatus
}

func newLegacyResolver(catalog []*entity.CaseStatus) *legacyResolver {
	r := &legacyResolver{
		byID:   make(map[int64]*entity.CaseStatus, len(catalog)),
		byCode: make(map[string]*entity.CaseStatus, len(catalog)),
		byName: make(map[string]*entity.CaseStatus, len(catalog)*2),
	}
	for _, s := range catalog {
		r.byID[s.ID] = s
		r.byCode[s.Code] = s
		r.byName[utils.FoldName(s.Name)] = s
		if s.NameEn != "" {
			r.byName[utils.FoldName(s.NameEn)] = s
		}
	}
	return r
}

// resolve tries the lookup table, then the catalog codes and names, then the fallback.
func (r *legacyResolver) resolve(legacy, owner string) *entity.CaseStatus {
	if code, ok := MapLegacyStatus(legacy); ok {
		if s := r.byCode[code]; s != nil {
			return s
		}
	}

	if s := r.byCode[legacy]; s != nil {
		return s
	}

	if s := r.byName[utils.FoldName(legacy)]; s != nil {
		return s
	}

	log.Warnf("Unmapped legacy status %q on %s, falling back to %s", legacy, owner, FallbackCode)
	if s := r.byCode[FallbackCode]; s != nil {
		return s
	}

	log.Warnf("Fallback status %s is missing from the catalog, leaving %s untouched", FallbackCode, owner)
	return nil
}

// forRow resolves the status a history row points at, by id when it has one.
func (r *legacyResolver) forRow(row *entity.IndividualProcessStatus) *entity.CaseStatus {
	if row.CaseStatusID != nil {
		if s := r.byID[*row.CaseStatusID]; s != nil {
			return s
		}
	}
	return r.resolve(row.StatusName, fmt.Sprintf("history row %d", row.ID))
}

// code is the catalog code a legacy string maps to, without logging.
func (r *legacyResolver) code(legacy string) string {
	if code, ok := MapLegacyStatus(legacy); ok {
		return code
	}
	if s := r.byCode[legacy]; s != nil {
		return s.Code
	}
	if s := r.byName[utils.FoldName(legacy)]; s != nil {
		return s.Code
	}
	return FallbackCode
}
