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

const (
	noaaBaseURL = "https://www.ncei.noaa.gov/cdo-web/api/v2"

	// Half-width in degrees of the bounding box used for station lookup.
	noaaStationBoxDeg = 0.5

	// CDO caps one data request at a year of records.
	noaaPageLimit = 1000
)

// NOAAClient reads GHCND daily precipitation through the CDO API: nearest
// station lookup for the coordinate, then per-year PRCP pages. GHCND reports
// precipitation in tenths of a millimeter.
type NOAAClient struct {
	token   string
	baseURL string
	http    *http.Client
	policy  retry.Policy
	logger  *slog.Logger
}

func NewNOAAClient(token string, timeout time.Duration) *NOAAClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	policy := retry.Default()
	policy.IsTransient = transientUpstream
	return &NOAAClient{
		token:   token,
		baseURL: noaaBaseURL,
		http:    &http.Client{Timeout: timeout},
		policy:  policy,
		logger:  slog.Default(),
	}
}

func (c *NOAAClient) Name() string { return models.SourceNOAA }

type noaaStationList struct {
	Results []struct {
		ID      string  `json:"id"`
		MinDate string  `json:"mindate"`
		MaxDate string  `json:"maxdate"`
		Lat     float64 `json:"latitude"`
		Lon     float64 `json:"longitude"`
	} `json:"results"`
}

type noaaDataPage struct {
	Results []struct {
		Date    string  `json:"date"`
		Value   float64 `json:"value"`
		Station string  `json:"station"`
	} `json:"results"`
}

func (c *NOAAClient) FetchDaily(ctx context.Context, lat, lon float64, from, to time.Time) ([]models.DailyValue, error) {
	if c.token == "" {
		return nil, apperr.E(apperr.ErrUpstream, "climate.noaa", "no NOAA API token configured")
	}
	station, err := c.nearestStation(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	var out []models.DailyValue
	for start := from; !start.After(to); {
		end := start.AddDate(1, 0, -1)
		if end.After(to) {
			end = to
		}
		chunk, err := c.fetchWindow(ctx, station, start, end)
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
		start = end.AddDate(0, 0, 1)
	}
	return out, nil
}

// nearestStation picks the GHCND station closest to the coordinate inside a
// one-degree bounding box.
func (c *NOAAClient) nearestStation(ctx context.Context, lat, lon float64) (string, error) {
	params := url.Values{
		"datasetid":  {"GHCND"},
		"datatypeid": {"PRCP"},
		"extent": {fmt.Sprintf("%.4f,%.4f,%.4f,%.4f",
			lat-noaaStationBoxDeg, lon-noaaStationBoxDeg,
			lat+noaaStationBoxDeg, lon+noaaStationBoxDeg)},
		"limit": {"25"},
	}
	raw, err := c.get(ctx, "/stations", params)
	if err != nil {
		return "", err
	}
	var list noaaStationList
	if err := json.Unmarshal(raw, &list); err != nil {
		return "", apperr.Wrap(apperr.ErrUpstream, "climate.noaa", err)
	}
	if len(list.Results) == 0 {
		return "", apperr.Ef(apperr.ErrUpstream, "climate.noaa",
			"no GHCND station near (%.4f, %.4f)", lat, lon)
	}

	best := list.Results[0]
	bestDist := (best.Lat-lat)*(best.Lat-lat) + (best.Lon-lon)*(best.Lon-lon)
	for _, s := range list.Results[1:] {
		d := (s.Lat-lat)*(s.Lat-lat) + (s.Lon-lon)*(s.Lon-lon)
		if d < bestDist {
			best, bestDist = s, d
		}
	}
	return best.ID, nil
}

func (c *NOAAClient) fetchWindow(ctx context.Context, station string, from, to time.Time) ([]models.DailyValue, error) {
	var out []models.DailyValue
	for offset := 1; ; offset += noaaPageLimit {
		params := url.Values{
			"datasetid":  {"GHCND"},
			"datatypeid": {"PRCP"},
			"stationid":  {station},
			"startdate":  {from.Format("2006-01-02")},
			"enddate":    {to.Format("2006-01-02")},
			"limit":      {fmt.Sprint(noaaPageLimit)},
			"offset":     {fmt.Sprint(offset)},
		}
		raw, err := c.get(ctx, "/data", params)
		if err != nil {
			return nil, err
		}
		var page noaaDataPage
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, apperr.Wrap(apperr.ErrUpstream, "climate.noaa", err)
		}
		for _, row := range page.Results {
			date, err := time.Parse("2006-01-02T15:04:05", row.Date)
			if err != nil {
				continue
			}
			out = append(out, models.DailyValue{
				Date:    date.UTC().Truncate(24 * time.Hour),
				ValueMM: row.Value / 10, // tenths of mm
			})
		}
		if len(page.Results) < noaaPageLimit {
			return out, nil
		}
	}
}

func (c *NOAAClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint := c.baseURL + path + "?" + params.Encode()
	return retry.DoValue(ctx, c.policy, func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, apperr.Wrap(apperr.ErrInternal, "climate.noaa", err)
		}
		req.Header.Set("token", c.token)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, apperr.Wrap(apperr.ErrUpstream, "climate.noaa", err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
		if err != nil {
			return nil, apperr.Wrap(apperr.ErrUpstream, "climate.noaa", err)
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, apperr.Ef(apperr.ErrTransient, "climate.noaa", "status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, apperr.Ef(apperr.ErrUpstream, "climate.noaa", "status %d", resp.StatusCode)
		}
		return raw, nil
	})
}
