// Package storage fetches contact files from object storage and parses them
// into raw records.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/okian/customermatch/internal/domain/model"
	"github.com/okian/customermatch/pkg/logger"
	"github.com/okian/customermatch/pkg/metrics"
)

// Source downloads an object to a scratch file and parses it.
type Source struct {
	fetcher    ObjectFetcher
	scratchDir string
	log        logger.Logger
}

// NewSource creates a Source writing scratch files under scratchDir.
func NewSource(fetcher ObjectFetcher, scratchDir string, log logger.Logger) *Source {
	if log == nil {
		log = logger.Nop()
	}
	return &Source{fetcher: fetcher, scratchDir: scratchDir, log: log}
}

// Fetch returns the rows of bucket/object. Every failure is logged and
// reported as no records; callers never see an error from here.
func (s *Source) Fetch(ctx context.Context, bucket, object string) []model.RawRecord {
	records, err := s.Load(ctx, bucket, object)
	if err != nil {
		metrics.RecordStorageFetchFailure()
		s.log.Error(ctx, "failed to get file",
			logger.String("bucket", bucket), logger.String("object", object), logger.Error(err))
		return nil
	}
	metrics.RecordRawRecords(len(records))
	s.log.Info(ctx, "file parsed",
		logger.String("bucket", bucket), logger.String("object", object), logger.Int("rows", len(records)))
	return records
}

// Load is Fetch with the error returned.
func (s *Source) Load(ctx context.Context, bucket, object string) ([]model.RawRecord, error) {
	path := filepath.Join(s.scratchDir, "customermatch-"+uuid.NewString()+".csv")
	defer func() { _ = os.Remove(path) }()

	if err := s.download(ctx, bucket, object, path); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScratch, err)
	}
	defer func() { _ = f.Close() }()

	return ParseCSV(f)
}

func (s *Source) download(ctx context.Context, bucket, object, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrScratch, err)
	}
	if err := s.fetcher.Download(ctx, bucket, object, f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrScratch, err)
	}
	return nil
}
