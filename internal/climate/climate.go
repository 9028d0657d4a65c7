// Package climate provides daily precipitation clients for the supported
// upstream sources (Open-Meteo archive, NOAA GHCND).
package climate

import (
	"context"
	"errors"
	"time"

	"github.com/droughtwatch/droughtwatch-backend/internal/models"
	"github.com/droughtwatch/droughtwatch-backend/internal/pkg/apperr"
	"github.com/droughtwatch/droughtwatch-backend/internal/pkg/retry"
)

// Source fetches daily precipitation in mm for a coordinate and date range.
// Implementations must honor ctx and report upstream failures as
// apperr.ErrUpstream; callers isolate failures per (zone, source).
type Source interface {
	Name() string
	FetchDaily(ctx context.Context, lat, lon float64, from, to time.Time) ([]models.DailyValue, error)
}

// transientUpstream retries rate limits and 5xx responses in addition to
// connection-level failures.
func transientUpstream(err error) bool {
	return errors.Is(err, apperr.ErrTransient) || retry.TransientNetwork(err)
}

// ForName returns the client for a source name, or nil for unknown names.
func ForName(name string, timeout time.Duration, noaaToken string) Source {
	switch name {
	case models.SourceOpenMeteo:
		return NewOpenMeteoClient(timeout)
	case models.SourceNOAA:
		return NewNOAAClient(noaaToken, timeout)
	}
	return nil
}
