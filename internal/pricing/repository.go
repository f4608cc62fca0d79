package pricing

import "context"

// Repository persists sync run history for operator inspection.
type Repository interface {
	SaveRun(ctx context.Context, report *SyncReport) error
	LatestRun(ctx context.Context) (*SyncReport, error)
}
