// Package ingest pulls daily precipitation from upstream sources into the
// store. Each (zone, source) pair is fetched, normalized and committed
// independently; one failing source never aborts the batch.
package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/droughtwatch/droughtwatch-backend/internal/climate"
	"github.com/droughtwatch/droughtwatch-backend/internal/models"
	"github.com/droughtwatch/droughtwatch-backend/internal/pkg/metrics"
	"github.com/droughtwatch/droughtwatch-backend/internal/repository"
)

const defaultHistoryYears = 30

// Orchestrator coordinates fetch, normalization and upsert per zone/source.
type Orchestrator struct {
	store        repository.PrecipitationRepository
	sources      map[string]climate.Source
	historyYears int
	logger       *slog.Logger

	// now is a hook for tests; production uses time.Now.
	now func() time.Time
}

func NewOrchestrator(store repository.PrecipitationRepository, sources []climate.Source, historyYears int, logger *slog.Logger) *Orchestrator {
	if historyYears <= 0 {
		historyYears = defaultHistoryYears
	}
	if logger == nil {
		logger = slog.Default()
	}
	byName := make(map[string]climate.Source, len(sources))
	for _, s := range sources {
		byName[s.Name()] = s
	}
	return &Orchestrator{
		store:        store,
		sources:      byName,
		historyYears: historyYears,
		logger:       logger,
		now:          time.Now,
	}
}

// Ingest runs one batch for a zone across the requested sources and returns
// one report per (zone, source) pair.
func (o *Orchestrator) Ingest(ctx context.Context, zone *models.Zone, sourceNames []string, forceFull bool) []models.IngestReport {
	reports := make([]models.IngestReport, 0, len(sourceNames))
	for _, name := range sourceNames {
		reports = append(reports, o.ingestOne(ctx, zone, name, forceFull))
	}
	return reports
}

func (o *Orchestrator) ingestOne(ctx context.Context, zone *models.Zone, sourceName string, forceFull bool) models.IngestReport {
	report := models.IngestReport{ZoneSlug: zone.Slug, Source: sourceName}

	source, ok := o.sources[sourceName]
	if !ok {
		report.Status = models.IngestStatusError
		report.Error = "unknown source"
		return report
	}

	yesterday := o.now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -1)
	from := yesterday.AddDate(-o.historyYears, 0, 0)
	if !forceFull {
		last, err := o.store.LastDate(ctx, zone.ID, sourceName)
		if err != nil {
			report.Status = models.IngestStatusError
			report.Error = err.Error()
			return report
		}
		if last != nil {
			if !last.Before(yesterday) {
				report.Status = models.IngestStatusUpToDate
				return report
			}
			from = last.AddDate(0, 0, 1)
		}
	}

	daily, err := source.FetchDaily(ctx, zone.Latitude, zone.Longitude, from, yesterday)
	if err != nil {
		o.logger.Warn("upstream fetch failed", "zone", zone.Slug, "source", sourceName, "error", err)
		metrics.IngestFailuresTotal.WithLabelValues(sourceName).Inc()
		report.Status = models.IngestStatusError
		report.Error = err.Error()
		return report
	}
	if len(daily) == 0 {
		report.Status = models.IngestStatusNoData
		return report
	}

	records := normalize(zone.ID, sourceName, daily, from, yesterday)
	added, err := o.store.UpsertBatch(ctx, records)
	if err != nil {
		report.Status = models.IngestStatusError
		report.Error = err.Error()
		return report
	}

	metrics.IngestRecordsTotal.WithLabelValues(sourceName).Add(float64(added))
	report.Status = models.IngestStatusSuccess
	report.RecordsAdded = added
	report.From, report.To = &from, &yesterday
	o.logger.Info("ingestion complete", "zone", zone.Slug, "source", sourceName,
		"records", added, "from", from.Format("2006-01-02"), "to", yesterday.Format("2006-01-02"))
	return report
}

// normalize coerces observations onto whole UTC days, clips negatives to
// zero, and fills days missing inside the fetched window with 0 mm so the
// monthly aggregation downstream sees a gap-free series.
func normalize(zoneID, source string, daily []models.DailyValue, from, to time.Time) []models.PrecipitationRecord {
	byDay := make(map[time.Time]float64, len(daily))
	for _, d := range daily {
		day := d.Date.UTC().Truncate(24 * time.Hour)
		if day.Before(from) || day.After(to) {
			continue
		}
		mm := d.ValueMM
		if mm < 0 {
			mm = 0
		}
		byDay[day] = mm
	}

	days := int(to.Sub(from).Hours()/24) + 1
	records := make([]models.PrecipitationRecord, 0, days)
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		records = append(records, models.PrecipitationRecord{
			ZoneID:   zoneID,
			Variable: models.VariablePrecipitation,
			Date:     day,
			ValueMM:  byDay[day],
			Source:   source,
		})
	}
	return records
}
