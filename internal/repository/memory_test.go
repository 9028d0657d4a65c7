package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droughtwatch/droughtwatch-backend/internal/models"
	"github.com/droughtwatch/droughtwatch-backend/internal/pkg/apperr"
)

func utcDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestZoneCRUD(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()

	zone := &models.Zone{Slug: "cdmx", Name: "Mexico City", Latitude: 19.43, Longitude: -99.13}
	require.NoError(t, repo.Zone.Create(ctx, zone))
	assert.NotEmpty(t, zone.ID)
	assert.False(t, zone.CreatedAt.IsZero())

	got, err := repo.Zone.GetBySlug(ctx, "cdmx")
	require.NoError(t, err)
	assert.Equal(t, zone.ID, got.ID)

	got.Name = "CDMX"
	require.NoError(t, repo.Zone.Update(ctx, got))
	again, err := repo.Zone.Get(ctx, zone.ID)
	require.NoError(t, err)
	assert.Equal(t, "CDMX", again.Name)

	require.NoError(t, repo.Zone.Delete(ctx, zone.ID))
	_, err = repo.Zone.Get(ctx, zone.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestZoneSlugUnique(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()

	require.NoError(t, repo.Zone.Create(ctx, &models.Zone{Slug: "monterrey", Latitude: 25.67, Longitude: -100.31}))
	err := repo.Zone.Create(ctx, &models.Zone{Slug: "monterrey", Latitude: 25.67, Longitude: -100.31})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestZoneGetBySlugNotFound(t *testing.T) {
	repo := NewMemory()
	_, err := repo.Zone.GetBySlug(context.Background(), "nowhere")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpsertBatchIdempotent(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()

	records := []models.PrecipitationRecord{
		{ZoneID: "z1", Variable: models.VariablePrecipitation, Date: utcDay(2024, 6, 1), ValueMM: 3.0, Source: "openmeteo"},
		{ZoneID: "z1", Variable: models.VariablePrecipitation, Date: utcDay(2024, 6, 2), ValueMM: 0.0, Source: "openmeteo"},
	}
	n, err := repo.Precipitation.UpsertBatch(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Re-upserting the same keys overwrites in place and counts no new rows.
	records[0].ValueMM = 5.0
	n, err = repo.Precipitation.UpsertBatch(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	count, err := repo.Precipitation.CountRecords(ctx, "z1", "openmeteo")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	series, err := repo.Precipitation.DailySeries(ctx, "z1")
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, 5.0, series[0].ValueMM)
}

func TestUpsertBatchRejectsNegatives(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()

	n, err := repo.Precipitation.UpsertBatch(ctx, []models.PrecipitationRecord{
		{ZoneID: "z1", Variable: models.VariablePrecipitation, Date: utcDay(2024, 6, 1), ValueMM: 3.0, Source: "openmeteo"},
		{ZoneID: "z1", Variable: models.VariablePrecipitation, Date: utcDay(2024, 6, 2), ValueMM: -5.0, Source: "openmeteo"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	assert.Zero(t, n)

	// The whole batch is rejected; nothing persists.
	count, err := repo.Precipitation.CountRecords(ctx, "z1", "openmeteo")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestQueryRangePerSource(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()

	_, err := repo.Precipitation.UpsertBatch(ctx, []models.PrecipitationRecord{
		{ZoneID: "z1", Variable: models.VariablePrecipitation, Date: utcDay(2024, 5, 31), ValueMM: 1.0, Source: "openmeteo"},
		{ZoneID: "z1", Variable: models.VariablePrecipitation, Date: utcDay(2024, 6, 2), ValueMM: 2.0, Source: "openmeteo"},
		{ZoneID: "z1", Variable: models.VariablePrecipitation, Date: utcDay(2024, 6, 5), ValueMM: 3.0, Source: "openmeteo"},
		{ZoneID: "z1", Variable: models.VariablePrecipitation, Date: utcDay(2024, 6, 9), ValueMM: 4.0, Source: "openmeteo"},
		{ZoneID: "z1", Variable: models.VariablePrecipitation, Date: utcDay(2024, 6, 3), ValueMM: 9.0, Source: "noaa"},
	})
	require.NoError(t, err)

	series, err := repo.Precipitation.Query(ctx, "z1", "openmeteo", utcDay(2024, 6, 1), utcDay(2024, 6, 8))
	require.NoError(t, err)
	require.Len(t, series, 2, "out-of-range dates and other sources are excluded")
	assert.Equal(t, utcDay(2024, 6, 2), series[0].Date)
	assert.Equal(t, 2.0, series[0].ValueMM)
	assert.Equal(t, utcDay(2024, 6, 5), series[1].Date)
	assert.Equal(t, 3.0, series[1].ValueMM)

	empty, err := repo.Precipitation.Query(ctx, "z1", "noaa", utcDay(2024, 7, 1), utcDay(2024, 7, 31))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDailySeriesAveragesAcrossSources(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()

	_, err := repo.Precipitation.UpsertBatch(ctx, []models.PrecipitationRecord{
		{ZoneID: "z1", Variable: models.VariablePrecipitation, Date: utcDay(2024, 6, 2), ValueMM: 4.0, Source: "openmeteo"},
		{ZoneID: "z1", Variable: models.VariablePrecipitation, Date: utcDay(2024, 6, 2), ValueMM: 6.0, Source: "noaa"},
		{ZoneID: "z1", Variable: models.VariablePrecipitation, Date: utcDay(2024, 6, 1), ValueMM: 1.0, Source: "openmeteo"},
	})
	require.NoError(t, err)

	series, err := repo.Precipitation.DailySeries(ctx, "z1")
	require.NoError(t, err)
	require.Len(t, series, 2)
	// Ascending order, overlapping day averaged across sources.
	assert.Equal(t, utcDay(2024, 6, 1), series[0].Date)
	assert.Equal(t, 1.0, series[0].ValueMM)
	assert.Equal(t, utcDay(2024, 6, 2), series[1].Date)
	assert.Equal(t, 5.0, series[1].ValueMM)
}

func TestLastDatePerSource(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()

	last, err := repo.Precipitation.LastDate(ctx, "z1", "openmeteo")
	require.NoError(t, err)
	assert.Nil(t, last)

	_, err = repo.Precipitation.UpsertBatch(ctx, []models.PrecipitationRecord{
		{ZoneID: "z1", Variable: models.VariablePrecipitation, Date: utcDay(2024, 6, 5), ValueMM: 1.0, Source: "openmeteo"},
		{ZoneID: "z1", Variable: models.VariablePrecipitation, Date: utcDay(2024, 6, 9), ValueMM: 1.0, Source: "openmeteo"},
		{ZoneID: "z1", Variable: models.VariablePrecipitation, Date: utcDay(2024, 6, 12), ValueMM: 1.0, Source: "noaa"},
	})
	require.NoError(t, err)

	last, err = repo.Precipitation.LastDate(ctx, "z1", "openmeteo")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, utcDay(2024, 6, 9), *last)
}

func TestSnapshotLatestAndHistory(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()

	_, err := repo.Snapshot.Latest(ctx, "z1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	for i, level := range []string{models.RiskLow, models.RiskMedium, models.RiskHigh} {
		snap := &models.RiskSnapshot{ZoneID: "z1", RiskLevel: level,
			CreatedAt: utcDay(2024, 6, 1+i)}
		require.NoError(t, repo.Snapshot.Insert(ctx, snap))
		assert.NotEmpty(t, snap.ID)
	}

	latest, err := repo.Snapshot.Latest(ctx, "z1")
	require.NoError(t, err)
	assert.Equal(t, models.RiskHigh, latest.RiskLevel)

	history, err := repo.Snapshot.ListSnapshots(ctx, "z1", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.RiskHigh, history[0].RiskLevel)
	assert.Equal(t, models.RiskMedium, history[1].RiskLevel)
}

func TestPlantsByZoneSortedByCapacity(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()

	for _, p := range []*models.PowerPlant{
		{ZoneID: "z1", Name: "Peaker", CapacityMW: 400},
		{ZoneID: "z1", Name: "Base", CapacityMW: 2400},
		{ZoneID: "z2", Name: "Elsewhere", CapacityMW: 900},
	} {
		require.NoError(t, repo.Plant.CreatePlant(ctx, p))
		assert.Equal(t, "active", p.Status)
	}

	plants, err := repo.Plant.ListPlantsByZone(ctx, "z1")
	require.NoError(t, err)
	require.Len(t, plants, 2)
	assert.Equal(t, "Base", plants[0].Name)
	assert.Equal(t, "Peaker", plants[1].Name)
}

func TestGetManyPlantsSkipsMissing(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()

	p := &models.PowerPlant{ZoneID: "z1", Name: "Solo", CapacityMW: 100}
	require.NoError(t, repo.Plant.CreatePlant(ctx, p))

	out, err := repo.Plant.GetManyPlants(ctx, []string{p.ID, "missing"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Solo", out[0].Name)
}

func TestActionInsertBatchAssignsIDs(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()

	instances := []*models.ActionInstance{
		{ZoneID: "z1", ArchetypeCode: "LAWN_BAN"},
		{ZoneID: "z1", ArchetypeCode: "PRESSURE_REDUCTION"},
	}
	require.NoError(t, repo.Action.InsertBatch(ctx, instances))
	assert.NotEmpty(t, instances[0].ID)
	assert.NotEmpty(t, instances[1].ID)
	assert.NotEqual(t, instances[0].ID, instances[1].ID)

	out, err := repo.Action.GetMany(ctx, []string{instances[0].ID, "missing", instances[1].ID})
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestSimulationInserts(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()

	sim := &models.Simulation{ZoneID: "z1", ScenarioType: models.ScenarioNoAction}
	require.NoError(t, repo.Simulation.InsertSimulation(ctx, sim))
	assert.NotEmpty(t, sim.ID)

	econ := []*models.EconomicSimulation{{PlantID: "p1"}, {PlantID: "p2"}}
	require.NoError(t, repo.Simulation.InsertEconomic(ctx, econ))
	assert.NotEmpty(t, econ[0].ID)
	assert.NotEmpty(t, econ[1].ID)
}

func TestPriceQuoteExpiry(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()

	fresh := models.PriceQuote{Region: "TEX", MarginalPriceUSDMWh: 65,
		ValidUntil: time.Now().UTC().Add(time.Hour)}
	require.NoError(t, repo.Price.PutPrice(ctx, fresh))

	got, err := repo.Price.GetPrice(ctx, "TEX")
	require.NoError(t, err)
	assert.Equal(t, 65.0, got.MarginalPriceUSDMWh)

	stale := models.PriceQuote{Region: "CAL", MarginalPriceUSDMWh: 80,
		ValidUntil: time.Now().UTC().Add(-time.Minute)}
	require.NoError(t, repo.Price.PutPrice(ctx, stale))
	_, err = repo.Price.GetPrice(ctx, "CAL")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
