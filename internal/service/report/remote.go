package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/pkg/circuitbreaker"
	apperrors "github.com/jwalitptl/clinic-portal/pkg/errors"
	"github.com/jwalitptl/clinic-portal/pkg/metrics"
)

const (
	statisticsPath = "/api/reportes/estadisticas"
	monthlyPath    = "/api/reportes/citas-mes"
	byDoctorPath   = "/api/reportes/citas-medico"
	byStatusPath   = "/api/reportes/estado"
	maxBodyBytes   = 1 << 20
)

var _ Reporter = (*Remote)(nil)

type RemoteConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Remote reads the four report endpoints of the reporting service.
type Remote struct {
	baseURL string
	client  *http.Client
	cb      *circuitbreaker.CircuitBreaker
	metrics *metrics.Metrics
}

func NewRemote(cfg RemoteConfig, m *metrics.Metrics) *Remote {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Remote{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "reporting",
			MaxFailures: 5,
			Interval:    30 * time.Second,
			Timeout:     15 * time.Second,
		}),
		metrics: m,
	}
}

func (r *Remote) Statistics(ctx context.Context, token string) (model.Statistics, error) {
	var out model.Statistics
	err := r.get(ctx, statisticsPath, token, &out)
	return out, err
}

func (r *Remote) MonthlyCounts(ctx context.Context, token string) (model.MonthlyCounts, error) {
	var raw []int
	var out model.MonthlyCounts
	if err := r.get(ctx, monthlyPath, token, &raw); err != nil {
		return out, err
	}
	// shorter series leave the remaining months at zero
	copy(out[:], raw)
	return out, nil
}

func (r *Remote) ByDoctor(ctx context.Context, token string) ([]model.DoctorCount, error) {
	out := []model.DoctorCount{}
	if err := r.get(ctx, byDoctorPath, token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Remote) ByStatus(ctx context.Context, token string) (model.StatusBreakdown, error) {
	var out model.StatusBreakdown
	err := r.get(ctx, byStatusPath, token, &out)
	return out, err
}

// Fetch issues the four requests concurrently and fails if any of them does.
func (r *Remote) Fetch(ctx context.Context, token string) (*model.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		report model.Report
		wg     sync.WaitGroup
		once   sync.Once
		first  error
	)
	fail := func(err error) {
		if err == nil {
			return
		}
		once.Do(func() {
			first = err
			cancel()
		})
	}

	wg.Add(4)
	go func() {
		defer wg.Done()
		var err error
		report.Statistics, err = r.Statistics(ctx, token)
		fail(err)
	}()
	go func() {
		defer wg.Done()
		var err error
		report.PerMonth, err = r.MonthlyCounts(ctx, token)
		fail(err)
	}()
	go func() {
		defer wg.Done()
		var err error
		report.PerDoctor, err = r.ByDoctor(ctx, token)
		fail(err)
	}()
	go func() {
		defer wg.Done()
		var err error
		report.ByStatus, err = r.ByStatus(ctx, token)
		fail(err)
	}()
	wg.Wait()

	if first != nil {
		return nil, first
	}
	return &report, nil
}

func (r *Remote) get(ctx context.Context, path, token string, dst interface{}) error {
	defer r.metrics.ObserveCollaborator("reporting", strings.TrimPrefix(path, "/api/reportes/"), time.Now())

	var (
		status int
		body   []byte
	)
	err := r.cb.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+path, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		res, err := r.client.Do(req)
		if err != nil {
			return err
		}
		defer res.Body.Close()

		body, err = io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
		if err != nil {
			return err
		}
		status = res.StatusCode
		if status >= 500 {
			return fmt.Errorf("status %d", status)
		}
		return nil
	})

	switch {
	case err != nil && errors.Is(err, circuitbreaker.ErrOpen):
		return apperrors.Network("reporting service unavailable", err)
	case err != nil && status < 500:
		return apperrors.Network("reporting service unreachable", err)
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(fmt.Errorf("reporting service rejected the token"))
	case status == http.StatusForbidden:
		return apperrors.Forbidden("reports are restricted to administrators")
	case status != http.StatusOK:
		return apperrors.Network("reporting service failed", fmt.Errorf("GET %s: status %d", path, status))
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return apperrors.Network("reporting service sent an unreadable response", err)
	}
	return nil
}
