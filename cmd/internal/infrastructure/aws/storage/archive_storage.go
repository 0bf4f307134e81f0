package storage

import (
	"bytes"
	"context"
	"errors"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const archivePrefix = "archive"

// ArchiveStore keeps JSON snapshots of retired data in S3, one object per
// snapshot under archive/<yyyy>/<mm>/<dd>/.
type ArchiveStore struct {
	bucket string
	client *s3.Client
	now    func() time.Time
}

func NewArchiveStore(ctx context.Context, region, bucket string) (*ArchiveStore, error) {
	if bucket == "" {
		return nil, errors.New("archive bucket is empty")
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}

	return &ArchiveStore{
		bucket: bucket,
		client: s3.NewFromConfig(cfg),
		now:    time.Now,
	}, nil
}

// UploadFile stores a JSON snapshot and returns its object key.
func (s *ArchiveStore) UploadFile(ctx context.Context, data []byte, filename string) (string, error) {
	if filename == "" || path.Ext(filename) != ".json" {
		return "", errors.New("archive snapshots must be .json files")
	}

	key := ObjectKey(s.now(), filename)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:               aws.String(s.bucket),
		Key:                  aws.String(key),
		Body:                 bytes.NewReader(data),
		ContentType:          aws.String("application/json"),
		ServerSideEncryption: types.ServerSideEncryptionAes256,
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// ObjectKey is where a snapshot taken at t is stored.
func ObjectKey(t time.Time, filename string) string {
	return path.Join(archivePrefix, t.UTC().Format("2006/01/02"), path.Base(filename))
}
