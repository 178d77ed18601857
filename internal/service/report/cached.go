package report

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/clinic-portal/internal/model"
)

const (
	keyStatistics = "statistics"
	keyMonthly    = "monthly"
	keyByDoctor   = "by_doctor"
	keyByStatus   = "by_status"
	keyReport     = "report"
)

var _ Reporter = (*Cached)(nil)

// Cached serves results of next for ttl. Errors are never cached.
type Cached struct {
	next  Reporter
	cache *cache.Cache
}

func NewCached(next Reporter, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Cached{next: next, cache: cache.New(ttl, 2*ttl)}
}

func (c *Cached) Statistics(ctx context.Context, token string) (model.Statistics, error) {
	if v, ok := c.cache.Get(keyStatistics); ok {
		return v.(model.Statistics), nil
	}
	out, err := c.next.Statistics(ctx, token)
	if err == nil {
		c.cache.SetDefault(keyStatistics, out)
	}
	return out, err
}

func (c *Cached) MonthlyCounts(ctx context.Context, token string) (model.MonthlyCounts, error) {
	if v, ok := c.cache.Get(keyMonthly); ok {
		return v.(model.MonthlyCounts), nil
	}
	out, err := c.next.MonthlyCounts(ctx, token)
	if err == nil {
		c.cache.SetDefault(keyMonthly, out)
	}
	return out, err
}

func (c *Cached) ByDoctor(ctx context.Context, token string) ([]model.DoctorCount, error) {
	if v, ok := c.cache.Get(keyByDoctor); ok {
		return append([]model.DoctorCount(nil), v.([]model.DoctorCount)...), nil
	}
	out, err := c.next.ByDoctor(ctx, token)
	if err == nil {
		c.cache.SetDefault(keyByDoctor, append([]model.DoctorCount(nil), out...))
	}
	return out, err
}

func (c *Cached) ByStatus(ctx context.Context, token string) (model.StatusBreakdown, error) {
	if v, ok := c.cache.Get(keyByStatus); ok {
		return v.(model.StatusBreakdown), nil
	}
	out, err := c.next.ByStatus(ctx, token)
	if err == nil {
		c.cache.SetDefault(keyByStatus, out)
	}
	return out, err
}

func (c *Cached) Fetch(ctx context.Context, token string) (*model.Report, error) {
	if v, ok := c.cache.Get(keyReport); ok {
		r := v.(model.Report)
		r.PerDoctor = append([]model.DoctorCount(nil), r.PerDoctor...)
		return &r, nil
	}
	out, err := c.next.Fetch(ctx, token)
	if err != nil {
		return nil, err
	}
	stored := *out
	stored.PerDoctor = append([]model.DoctorCount(nil), out.PerDoctor...)
	c.cache.SetDefault(keyReport, stored)
	return out, nil
}

// Invalidate drops everything so the next call goes to next.
func (c *Cached) Invalidate() {
	c.cache.Flush()
}
