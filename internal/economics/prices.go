package economics

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
	"github.com/droughtwatch/droughtwatch-backend/internal/pkg/cache"
	"github.com/droughtwatch/droughtwatch-backend/internal/pkg/metrics"
	"github.com/droughtwatch/droughtwatch-backend/internal/pkg/retry"
)

// Price sources, in precedence order.
const (
	PriceSourceZone     = "zone"
	PriceSourceEIA      = "eia"
	PriceSourceFallback = "fallback"
)

const (
	eiaBaseURL    = "https://api.eia.gov/v2"
	priceCacheTTL = 6 * time.Hour
)

// PriceProvider supplies regional electricity and fuel prices.
type PriceProvider interface {
	Current(ctx context.Context, stateCode string) (models.PriceQuote, error)
	History(ctx context.Context, stateCode string, months int) ([]models.PriceQuote, error)
}

// EIAClient reads monthly retail electricity and natural gas prices from the
// EIA open data API. Electricity comes back in cents/kWh (x10 for USD/MWh),
// gas in USD/MMBtu.
type EIAClient struct {
	apiKey string
	http   *http.Client
	policy retry.Policy
	logger *slog.Logger
}

func NewEIAClient(apiKey string, timeout time.Duration, logger *slog.Logger) *EIAClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EIAClient{
		apiKey: apiKey,
		http:   &http.Client{Timeout: timeout},
		policy: retry.Default(),
		logger: logger,
	}
}

type eiaResponse struct {
	Response struct {
		Data []struct {
			Period string   `json:"period"`
			Price  *float64 `json:"price"`
			Value  *float64 `json:"value"`
		} `json:"data"`
	} `json:"response"`
}

func (c *EIAClient) Current(ctx context.Context, stateCode string) (models.PriceQuote, error) {
	quotes, err := c.History(ctx, stateCode, 1)
	if err != nil {
		return models.PriceQuote{}, err
	}
	if len(quotes) == 0 {
		return models.PriceQuote{}, apperr.Ef(apperr.ErrUpstream, "economics.Current",
			"no price rows for state %q", stateCode)
	}
	return quotes[0], nil
}

// History returns up to months of (electricity, fuel) pairs, newest first.
func (c *EIAClient) History(ctx context.Context, stateCode string, months int) ([]models.PriceQuote, error) {
	if c.apiKey == "" {
		return nil, apperr.E(apperr.ErrUpstream, "economics.History", "no EIA API key configured")
	}
	if months <= 0 {
		months = 12
	}

	elec, err := c.fetchSeries(ctx, "/electricity/retail-sales/data", url.Values{
		"frequency":           {"monthly"},
		"data[0]":             {"price"},
		"facets[stateid][]":   {stateCode},
		"facets[sectorid][]":  {"ALL"},
		"sort[0][column]":     {"period"},
		"sort[0][direction]":  {"desc"},
		"length":              {fmt.Sprint(months)},
	})
	if err != nil {
		return nil, err
	}
	gas, err := c.fetchSeries(ctx, "/natural-gas/pri/sum/data", url.Values{
		"frequency":          {"monthly"},
		"data[0]":            {"value"},
		"facets[duoarea][]":  {"S" + stateCode},
		"sort[0][column]":    {"period"},
		"sort[0][direction]": {"desc"},
		"length":             {fmt.Sprint(months)},
	})
	if err != nil {
		return nil, err
	}

	n := len(elec)
	if len(gas) < n {
		n = len(gas)
	}
	quotes := make([]models.PriceQuote, 0, n)
	for i := 0; i < n; i++ {
		quotes = append(quotes, models.PriceQuote{
			MarginalPriceUSDMWh: elec[i] * 10, // cents/kWh -> USD/MWh
			FuelPriceUSDMMBtu:   gas[i],
			Source:              PriceSourceEIA,
			Region:              stateCode,
			ValidUntil:          time.Now().UTC().Add(priceCacheTTL),
		})
	}
	return quotes, nil
}

func (c *EIAClient) fetchSeries(ctx context.Context, path string, params url.Values) ([]float64, error) {
	params.Set("api_key", c.apiKey)
	endpoint := eiaBaseURL + path + "?" + params.Encode()

	return retry.DoValue(ctx, c.policy, func() ([]float64, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, apperr.Wrap(apperr.ErrInternal, "economics.fetchSeries", err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, apperr.Wrap(apperr.ErrUpstream, "economics.fetchSeries", err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return nil, apperr.Wrap(apperr.ErrUpstream, "economics.fetchSeries", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, apperr.Ef(apperr.ErrUpstream, "economics.fetchSeries",
				"EIA returned status %d", resp.StatusCode)
		}

		var parsed eiaResponse
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return nil, apperr.Wrap(apperr.ErrUpstream, "economics.fetchSeries", err)
		}
		var out []float64
		for _, row := range parsed.Response.Data {
			switch {
			case row.Price != nil:
				out = append(out, *row.Price)
			case row.Value != nil:
				out = append(out, *row.Value)
			}
		}
		return out, nil
	})
}

// PriceStore persists regional quotes across restarts. The repository's
// price cache satisfies this; a nil store is skipped.
type PriceStore interface {
	GetPrice(ctx context.Context, region string) (*models.PriceQuote, error)
	PutPrice(ctx context.Context, quote models.PriceQuote) error
}

// PriceResolver applies the precedence zone-local fields, then the regional
// provider (cached in memory and in the store), then the configured fallback.
// It never fails; missing sources degrade to the fallback quote tagged
// accordingly.
type PriceResolver struct {
	provider         PriceProvider // nil when no EIA key is configured
	store            PriceStore    // nil in demo mode
	cache            *cache.TTLCache
	fallbackMarginal float64
	fallbackFuel     float64
	logger           *slog.Logger
}

func NewPriceResolver(provider PriceProvider, store PriceStore, fallbackMarginal, fallbackFuel float64, logger *slog.Logger) *PriceResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &PriceResolver{
		provider:         provider,
		store:            store,
		cache:            cache.New(priceCacheTTL, 128),
		fallbackMarginal: fallbackMarginal,
		fallbackFuel:     fallbackFuel,
		logger:           logger,
	}
}

func (r *PriceResolver) Resolve(ctx context.Context, zone *models.Zone) models.PriceQuote {
	if zone != nil && zone.ElectricityPriceUSDMWh != nil && zone.FuelPriceUSDMMBtu != nil {
		return models.PriceQuote{
			MarginalPriceUSDMWh: *zone.ElectricityPriceUSDMWh,
			FuelPriceUSDMMBtu:   *zone.FuelPriceUSDMMBtu,
			Source:              PriceSourceZone,
			Region:              zone.StateCode,
			ValidUntil:          time.Now().UTC().Add(priceCacheTTL),
		}
	}

	if zone != nil && zone.StateCode != "" {
		if v, ok := r.cache.Get(zone.StateCode); ok {
			if quote, ok := v.(models.PriceQuote); ok && time.Now().UTC().Before(quote.ValidUntil) {
				metrics.PriceCacheHitsTotal.Inc()
				return quote
			}
		}
		metrics.PriceCacheMissesTotal.Inc()

		if r.store != nil {
			if quote, err := r.store.GetPrice(ctx, zone.StateCode); err == nil && quote != nil {
				r.cache.Set(zone.StateCode, *quote, time.Until(quote.ValidUntil))
				return *quote
			}
		}

		if r.provider != nil {
			quote, err := r.provider.Current(ctx, zone.StateCode)
			if err == nil {
				r.cache.Set(zone.StateCode, quote, priceCacheTTL)
				if r.store != nil {
					if err := r.store.PutPrice(ctx, quote); err != nil {
						r.logger.Warn("failed to persist price quote", "state", zone.StateCode, "error", err)
					}
				}
				return quote
			}
			r.logger.Warn("regional price lookup failed, using fallback prices",
				"state", zone.StateCode, "error", err)
		}
	}

	return models.PriceQuote{
		MarginalPriceUSDMWh: r.fallbackMarginal,
		FuelPriceUSDMMBtu:   r.fallbackFuel,
		Source:              PriceSourceFallback,
		ValidUntil:          time.Now().UTC().Add(priceCacheTTL),
	}
}
