package services

import (
	"context"
	"time"

	"github.com/bash586/paytrackbot/pkg/logger"
	"github.com/bash586/paytrackbot/pkg/prom"
)

type ActionArchiver interface {
	Archive(ctx context.Context, olderThan time.Time) (int64, error)
}

// ArchiveService moves stale action rows to the archive table so the live
// log stays small. Archived actions are no longer undoable, which is fine:
// the retention window is far past any reasonable undo horizon.
type ArchiveService struct {
	archiver  ActionArchiver
	retention time.Duration
}

func NewArchiveService(archiver ActionArchiver, retentionDays int) *ArchiveService {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	return &ArchiveService{
		archiver:  archiver,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
	}
}

func (s *ArchiveService) Run(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-s.retention)

	moved, err := s.archiver.Archive(ctx, cutoff)
	if err != nil {
		return 0, storageErr(err)
	}
	if moved > 0 {
		prom.AddCounterVec(prom.SystemLedger, prom.MetricArchivedActionsTotal, float64(moved))
		logger.Info("archived old actions", "count", moved, "cutoff", cutoff)
	}
	return moved, nil
}
