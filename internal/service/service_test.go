package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droughtwatch/droughtwatch-backend/internal/climate"
	"github.com/droughtwatch/droughtwatch-backend/internal/economics"
	"github.com/droughtwatch/droughtwatch-backend/internal/ingest"
	"github.com/droughtwatch/droughtwatch-backend/internal/models"
	"github.com/droughtwatch/droughtwatch-backend/internal/param"
	"github.com/droughtwatch/droughtwatch-backend/internal/pkg/apperr"
	"github.com/droughtwatch/droughtwatch-backend/internal/repository"
)

// syntheticSource emits a deterministic seasonal precipitation signal for
// whatever window the orchestrator requests.
type syntheticSource struct{}

func (syntheticSource) Name() string { return models.SourceOpenMeteo }

func (syntheticSource) FetchDaily(_ context.Context, _, _ float64, from, to time.Time) ([]models.DailyValue, error) {
	var out []models.DailyValue
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		mm := 2.0 + 1.8*math.Sin(2*math.Pi*float64(d.Month())/12) + 0.6*float64(d.Day()%7)
		out = append(out, models.DailyValue{Date: d, ValueMM: mm})
	}
	return out, nil
}

func newTestService(t *testing.T) (*DroughtService, *repository.Repository) {
	t.Helper()
	repo := repository.NewMemory()
	orchestrator := ingest.NewOrchestrator(repo.Precipitation, []climate.Source{syntheticSource{}}, 12, nil)
	svc := NewDroughtService(Deps{
		Repo:     repo,
		Ingestor: orchestrator,
		Params:   param.New(nil, nil),
		Economy:  economics.NewEngine(7.0, nil),
		Prices:   economics.NewPriceResolver(nil, repo.Price, 100, 3, nil),
	})
	return svc, repo
}

func createTestZone(t *testing.T, svc *DroughtService) *models.Zone {
	t.Helper()
	zone, err := svc.CreateZone(context.Background(), &models.Zone{
		Slug: "cdmx", Name: "Mexico City", Latitude: 19.43, Longitude: -99.13,
	})
	require.NoError(t, err)
	return zone
}

func TestEndToEndPipeline(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	zone := createTestZone(t, svc)

	// Ingest defaults to openmeteo when no sources are named.
	reports, err := svc.IngestZone(ctx, "cdmx", nil, false)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	require.Equal(t, models.IngestStatusSuccess, reports[0].Status)

	snapshot, err := svc.AssessRisk(ctx, "cdmx")
	require.NoError(t, err)
	assert.Contains(t, []string{models.RiskLow, models.RiskMedium, models.RiskHigh, models.RiskCritical}, snapshot.RiskLevel)
	assert.Contains(t, []string{models.TrendImproving, models.TrendStable, models.TrendWorsening}, snapshot.Trend)

	latest, err := repo.Snapshot.Latest(ctx, zone.ID)
	require.NoError(t, err)
	assert.Equal(t, snapshot.ID, latest.ID)

	result, err := svc.RecommendActions(ctx, "cdmx", models.ProfileGovernment)
	require.NoError(t, err)
	require.NotNil(t, result.Context)
	assert.Equal(t, models.ProfileGovernment, result.Context.Profile)
	for _, a := range result.Actions {
		assert.Equal(t, zone.ID, a.ZoneID)
		assert.NotEmpty(t, a.ID)
		assert.Equal(t, models.MethodFallback, a.Method)
	}

	action := &models.ActionInstance{
		ZoneID:        zone.ID,
		ArchetypeCode: "PRESSURE_REDUCTION",
		Profile:       models.ProfileGovernment,
		Effect:        models.ExpectedEffect{DaysGained: 10, Confidence: "medium"},
	}
	require.NoError(t, repo.Action.InsertBatch(ctx, []*models.ActionInstance{action}))

	delta, err := svc.Simulate(ctx, "cdmx", []string{action.ID}, 60)
	require.NoError(t, err)
	require.Len(t, delta.NoAction, 61)
	require.Len(t, delta.WithAction, 61)
	for i := range delta.NoAction {
		assert.GreaterOrEqual(t, delta.WithAction[i].SPI, delta.NoAction[i].SPI)
	}
	assert.GreaterOrEqual(t, delta.DaysGained, 0.0)

	// Economic simulation needs at least one registered plant.
	_, err = svc.SimulateEconomic(ctx, "cdmx", nil, nil, 60)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrMissingData)

	_, err = svc.CreatePlant(ctx, "cdmx", &models.PowerPlant{
		Name: "Valle Thermo", Type: models.PlantThermoelectric, CapacityMW: 800,
		WaterDependency: models.WaterDependencyHigh, CoolingType: models.CoolingRecirculating,
	})
	require.NoError(t, err)

	econ, err := svc.SimulateEconomic(ctx, "cdmx", nil, []string{action.ID}, 60)
	require.NoError(t, err)
	require.Len(t, econ.Plants, 1)
	assert.Equal(t, economics.PriceSourceFallback, econ.PriceSource)
	assert.Equal(t, 60, econ.ProjectionDays)
	assert.NotEmpty(t, econ.Summary)
}

func TestAssessRiskWithoutData(t *testing.T) {
	svc, _ := newTestService(t)
	createTestZone(t, svc)
	_, err := svc.AssessRisk(context.Background(), "cdmx")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrMissingData)
}

func TestCreateZoneValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateZone(ctx, &models.Zone{Slug: "Bad Slug!", Name: "x", Latitude: 0, Longitude: 0})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = svc.CreateZone(ctx, &models.Zone{Slug: "ok-slug", Latitude: 0, Longitude: 0})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = svc.CreateZone(ctx, &models.Zone{Slug: "ok-slug", Name: "x", Latitude: 95, Longitude: 0})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestRecommendActionsInvalidProfile(t *testing.T) {
	svc, _ := newTestService(t)
	createTestZone(t, svc)
	_, err := svc.RecommendActions(context.Background(), "cdmx", "citizen")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestSimulateHorizonValidation(t *testing.T) {
	svc, _ := newTestService(t)
	createTestZone(t, svc)
	ctx := context.Background()

	_, err := svc.Simulate(ctx, "cdmx", nil, 4000)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestSimulateUnknownActionInstance(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	createTestZone(t, svc)
	_, err := svc.IngestZone(ctx, "cdmx", nil, false)
	require.NoError(t, err)

	_, err = svc.Simulate(ctx, "cdmx", []string{"does-not-exist"}, 30)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestZoneLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	createTestZone(t, svc)

	updated, err := svc.UpdateZone(ctx, "cdmx", &models.Zone{Name: "CDMX Metro"})
	require.NoError(t, err)
	assert.Equal(t, "CDMX Metro", updated.Name)

	zones, err := svc.ListZones(ctx)
	require.NoError(t, err)
	assert.Len(t, zones, 1)

	require.NoError(t, svc.DeleteZone(ctx, "cdmx"))
	_, err = svc.GetZone(ctx, "cdmx")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreatePlantValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	createTestZone(t, svc)

	_, err := svc.CreatePlant(ctx, "cdmx", &models.PowerPlant{
		Name: "Bad Enums", Type: "geothermal", CapacityMW: 100,
		WaterDependency: models.WaterDependencyLow, CoolingType: models.CoolingDry,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = svc.CreatePlant(ctx, "cdmx", &models.PowerPlant{
		Name: "Too Big", Type: models.PlantNuclear, CapacityMW: 200000,
		WaterDependency: models.WaterDependencyHigh, CoolingType: models.CoolingOnceThrough,
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}
