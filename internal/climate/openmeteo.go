package climate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/droughtwatch/droughtwatch-backend/internal/models"
	"github.com/droughtwatch/droughtwatch-backend/internal/pkg/apperr"
	"github.com/droughtwatch/droughtwatch-backend/internal/pkg/retry"
)

const openMeteoArchiveURL = "https://archive-api.open-meteo.com/v1/archive"

// OpenMeteoClient reads the Open-Meteo historical archive. The archive caps
// response sizes, so multi-decade windows are fetched one calendar year at a
// time.
type OpenMeteoClient struct {
	baseURL string
	http    *http.Client
	policy  retry.Policy
	logger  *slog.Logger
}

func NewOpenMeteoClient(timeout time.Duration) *OpenMeteoClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	policy := retry.Default()
	policy.IsTransient = transientUpstream
	return &OpenMeteoClient{
		baseURL: openMeteoArchiveURL,
		http:    &http.Client{Timeout: timeout},
		policy:  policy,
		logger:  slog.Default(),
	}
}

func (c *OpenMeteoClient) Name() string { return models.SourceOpenMeteo }

type openMeteoResponse struct {
	Daily struct {
		Time             []string   `json:"time"`
		PrecipitationSum []*float64 `json:"precipitation_sum"`
	} `json:"daily"`
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

func (c *OpenMeteoClient) FetchDaily(ctx context.Context, lat, lon float64, from, to time.Time) ([]models.DailyValue, error) {
	var out []models.DailyValue
	for start := from; !start.After(to); {
		end := time.Date(start.Year(), 12, 31, 0, 0, 0, 0, time.UTC)
		if end.After(to) {
			end = to
		}
		chunk, err := c.fetchWindow(ctx, lat, lon, start, end)
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
		start = end.AddDate(0, 0, 1)
	}
	return out, nil
}

func (c *OpenMeteoClient) fetchWindow(ctx context.Context, lat, lon float64, from, to time.Time) ([]models.DailyValue, error) {
	params := url.Values{
		"latitude":   {fmt.Sprintf("%.4f", lat)},
		"longitude":  {fmt.Sprintf("%.4f", lon)},
		"start_date": {from.Format("2006-01-02")},
		"end_date":   {to.Format("2006-01-02")},
		"daily":      {"precipitation_sum"},
		"timezone":   {"UTC"},
	}
	endpoint := c.baseURL + "?" + params.Encode()

	return retry.DoValue(ctx, c.policy, func() ([]models.DailyValue, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, apperr.Wrap(apperr.ErrInternal, "climate.openmeteo", err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, apperr.Wrap(apperr.ErrUpstream, "climate.openmeteo", err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
		if err != nil {
			return nil, apperr.Wrap(apperr.ErrUpstream, "climate.openmeteo", err)
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, apperr.Ef(apperr.ErrTransient, "climate.openmeteo",
				"archive returned status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, apperr.Ef(apperr.ErrUpstream, "climate.openmeteo",
				"archive returned status %d", resp.StatusCode)
		}

		var parsed openMeteoResponse
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return nil, apperr.Wrap(apperr.ErrUpstream, "climate.openmeteo", err)
		}
		if parsed.Error {
			return nil, apperr.Ef(apperr.ErrUpstream, "climate.openmeteo", "archive error: %s", parsed.Reason)
		}

		out := make([]models.DailyValue, 0, len(parsed.Daily.Time))
		for i, day := range parsed.Daily.Time {
			date, err := time.Parse("2006-01-02", day)
			if err != nil {
				continue
			}
			var mm float64
			if i < len(parsed.Daily.PrecipitationSum) && parsed.Daily.PrecipitationSum[i] != nil {
				mm = *parsed.Daily.PrecipitationSum[i]
			}
			out = append(out, models.DailyValue{Date: date, ValueMM: mm})
		}
		return out, nil
	})
}
