// Package report produces the admin reporting bundle, either from the remote
// reporting service or from the local appointment store.
package report

import (
	"context"

	"github.com/jwalitptl/clinic-portal/internal/model"
)

// Reporter is the reporting collaborator. token is the bearer token of the
// admin session asking; implementations that do not call out ignore it.
type Reporter interface {
	Statistics(ctx context.Context, token string) (model.Statistics, error)
	MonthlyCounts(ctx context.Context, token string) (model.MonthlyCounts, error)
	ByDoctor(ctx context.Context, token string) ([]model.DoctorCount, error)
	ByStatus(ctx context.Context, token string) (model.StatusBreakdown, error)
	Fetch(ctx context.Context, token string) (*model.Report, error)
}
