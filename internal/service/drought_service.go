// Package service orchestrates the analytical pipeline behind the public
// operations: ingestion, risk assessment, recommendations, scenario and
// economic simulation, plus zone and plant management.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/droughtwatch/droughtwatch-backend/internal/analytics"
	"github.com/droughtwatch/droughtwatch-backend/internal/catalog"
	"github.com/droughtwatch/droughtwatch-backend/internal/economics"
	"github.com/droughtwatch/droughtwatch-backend/internal/heuristics"
	"github.com/droughtwatch/droughtwatch-backend/internal/ingest"
	"github.com/droughtwatch/droughtwatch-backend/internal/models"
	"github.com/droughtwatch/droughtwatch-backend/internal/param"
	"github.com/droughtwatch/droughtwatch-backend/internal/pkg/apperr"
	"github.com/droughtwatch/droughtwatch-backend/internal/pkg/validate"
	"github.com/droughtwatch/droughtwatch-backend/internal/repository"
	"github.com/droughtwatch/droughtwatch-backend/internal/risk"
	"github.com/droughtwatch/droughtwatch-backend/internal/scenario"
	"github.com/droughtwatch/droughtwatch-backend/internal/spi"
)

const defaultProjectionDays = 90

// DroughtService implements the public callable surface.
type DroughtService struct {
	repo      *repository.Repository
	ingestor  *ingest.Orchestrator
	builder   *analytics.Builder
	spiEngine *spi.Engine
	scenarios *scenario.Engine
	registry  *heuristics.Registry
	params    *param.Parameterizer
	economy   *economics.Engine
	prices    *economics.PriceResolver

	projectionDefault int
	logger            *slog.Logger
}

// Deps carries the service's collaborators; zero fields get defaults.
type Deps struct {
	Repo              *repository.Repository
	Ingestor          *ingest.Orchestrator
	Params            *param.Parameterizer
	Economy           *economics.Engine
	Prices            *economics.PriceResolver
	ProjectionDefault int
	Logger            *slog.Logger
}

func NewDroughtService(d Deps) *DroughtService {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.ProjectionDefault <= 0 {
		d.ProjectionDefault = defaultProjectionDays
	}
	return &DroughtService{
		repo:              d.Repo,
		ingestor:          d.Ingestor,
		builder:           analytics.NewBuilder(d.Logger),
		spiEngine:         spi.NewEngine(d.Logger),
		scenarios:         scenario.NewEngine(),
		registry:          heuristics.NewRegistry(d.Logger),
		params:            d.Params,
		economy:           d.Economy,
		prices:            d.Prices,
		projectionDefault: d.ProjectionDefault,
		logger:            d.Logger,
	}
}

// IngestZone pulls precipitation for a zone from the named sources.
// An empty sources list defaults to openmeteo.
func (s *DroughtService) IngestZone(ctx context.Context, slug string, sources []string, forceFull bool) ([]models.IngestReport, error) {
	zone, err := s.zoneBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		sources = []string{models.SourceOpenMeteo}
	}
	return s.ingestor.Ingest(ctx, zone, sources, forceFull), nil
}

// AssessRisk computes the SPI-6 assessment for a zone and persists it as an
// append-only snapshot.
func (s *DroughtService) AssessRisk(ctx context.Context, slug string) (*models.RiskSnapshot, error) {
	zone, err := s.zoneBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	daily, err := s.dailySeries(ctx, zone)
	if err != nil {
		return nil, err
	}

	series, err := s.spiEngine.Compute(daily, 6)
	if err != nil {
		return nil, err
	}
	values := spiValues(series)
	current := values[len(values)-1]
	trend := analytics.BasicTrend(values)

	snapshot := &models.RiskSnapshot{
		ZoneID:         zone.ID,
		SPI6M:          current,
		RiskLevel:      risk.Classify(current),
		Trend:          trend,
		DaysToCritical: s.scenarios.DaysToCritical(current, trend, values),
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.repo.Snapshot.Insert(ctx, snapshot); err != nil {
		return nil, err
	}
	s.logger.Info("risk assessed", "zone", slug, "spi_6m", current,
		"risk", snapshot.RiskLevel, "trend", snapshot.Trend)
	return snapshot, nil
}

// RecommendResult is the outcome of RecommendActions.
type RecommendResult struct {
	Context        *models.DroughtContext   `json:"context"`
	ActivatedRules []heuristics.Result      `json:"activated_rules"`
	Actions        []*models.ActionInstance `json:"recommended_actions"`
}

// RecommendActions builds the drought context, evaluates the heuristics, and
// parameterizes and persists the resulting action instances.
func (s *DroughtService) RecommendActions(ctx context.Context, slug, profile string) (*RecommendResult, error) {
	if !validate.Profile(profile) {
		return nil, apperr.Ef(apperr.ErrInvalidInput, "service.RecommendActions",
			"profile must be government or industry, got %q", profile)
	}
	zone, err := s.zoneBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	daily, err := s.dailySeries(ctx, zone)
	if err != nil {
		return nil, err
	}

	dctx, err := s.builder.Build(daily, slug, profile, analytics.ExternalSignals{})
	if err != nil {
		return nil, err
	}

	activated := s.registry.Evaluate(dctx)
	recommendations := heuristics.Resolve(activated)

	instances := s.params.Batch(ctx, dctx, recommendations)
	persisted := make([]*models.ActionInstance, 0, len(instances))
	for i := range instances {
		instances[i].ZoneID = zone.ID
		persisted = append(persisted, &instances[i])
	}
	if err := s.repo.Action.InsertBatch(ctx, persisted); err != nil {
		return nil, err
	}

	s.logger.Info("actions recommended", "zone", slug, "profile", profile,
		"rules", len(activated), "actions", len(persisted))
	return &RecommendResult{Context: dctx, ActivatedRules: activated, Actions: persisted}, nil
}

// Simulate projects the no-action and with-action SPI trajectories for a zone
// and returns the delta. Both trajectories are persisted.
func (s *DroughtService) Simulate(ctx context.Context, slug string, actionIDs []string, projectionDays int) (*models.ScenarioDelta, error) {
	projectionDays, err := s.normalizeHorizon(projectionDays)
	if err != nil {
		return nil, err
	}
	zone, err := s.zoneBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	base, err := s.baseProjection(ctx, zone, projectionDays)
	if err != nil {
		return nil, err
	}
	overlays, ids, err := s.actionOverlays(ctx, actionIDs)
	if err != nil {
		return nil, err
	}

	withAction := s.scenarios.Overlay(base.trajectory, overlays)
	delta := s.scenarios.Compare(base.trajectory, withAction, projectionDays)

	snapshotID := s.latestSnapshotID(ctx, zone.ID)
	if err := s.persistSimulations(ctx, zone.ID, snapshotID, ids, base, withAction, overlays, projectionDays); err != nil {
		return nil, err
	}
	return &delta, nil
}

// SimulateEconomic runs the scenario pair and prices the capacity losses for
// the zone's plants (or an explicit plant list).
func (s *DroughtService) SimulateEconomic(ctx context.Context, slug string, plantIDs, actionIDs []string, projectionDays int) (*models.EconomicDelta, error) {
	projectionDays, err := s.normalizeHorizon(projectionDays)
	if err != nil {
		return nil, err
	}
	zone, err := s.zoneBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	var plants []models.PowerPlant
	if len(plantIDs) > 0 {
		plants, err = s.repo.Plant.GetManyPlants(ctx, plantIDs)
	} else {
		plants, err = s.repo.Plant.ListPlantsByZone(ctx, zone.ID)
	}
	if err != nil {
		return nil, err
	}
	if len(plants) == 0 {
		return nil, apperr.Ef(apperr.ErrMissingData, "service.SimulateEconomic",
			"no plants registered for zone %q; register plants first", slug)
	}

	base, err := s.baseProjection(ctx, zone, projectionDays)
	if err != nil {
		return nil, err
	}
	overlays, _, err := s.actionOverlays(ctx, actionIDs)
	if err != nil {
		return nil, err
	}
	withAction := s.scenarios.Overlay(base.trajectory, overlays)

	quote := s.prices.Resolve(ctx, zone)
	delta := s.economy.Compare(plants, base.trajectory, withAction, quote, projectionDays)

	econRows := make([]*models.EconomicSimulation, 0, len(delta.Plants))
	for _, p := range delta.Plants {
		econRows = append(econRows, &models.EconomicSimulation{
			PlantID:                p.Plant.ID,
			CapacityLossNoAction:   p.CapacityLossNoAction,
			CapacityLossWithAction: p.CapacityLossWithAction,
			CostNoActionUSD:        p.CostNoActionUSD,
			CostWithActionUSD:      p.CostWithActionUSD,
			SavingsUSD:             p.SavingsUSD,
			MarginalPriceUSDMWh:    quote.MarginalPriceUSDMWh,
			FuelPriceUSDMMBtu:      quote.FuelPriceUSDMMBtu,
			EmergencyFuelCostUSD:   p.EmergencyFuelCostUSD,
			ProjectionDays:         projectionDays,
		})
	}
	if err := s.repo.Simulation.InsertEconomic(ctx, econRows); err != nil {
		return nil, err
	}
	return &delta, nil
}

// baseProjection bundles the no-action trajectory with its inputs.
type baseProjection struct {
	trajectory []models.TrajectoryPoint
	current    float64
	trend      string
	history    []float64
}

func (s *DroughtService) baseProjection(ctx context.Context, zone *models.Zone, projectionDays int) (*baseProjection, error) {
	daily, err := s.dailySeries(ctx, zone)
	if err != nil {
		return nil, err
	}
	series, err := s.spiEngine.Compute(daily, 6)
	if err != nil {
		return nil, err
	}
	values := spiValues(series)
	current := values[len(values)-1]
	trend := analytics.BasicTrend(values)
	return &baseProjection{
		trajectory: s.scenarios.Project(current, trend, values, projectionDays),
		current:    current,
		trend:      trend,
		history:    values,
	}, nil
}

// actionOverlays loads the referenced instances and maps each to its overlay
// (expected days gained, activation at the archetype's urgency window).
func (s *DroughtService) actionOverlays(ctx context.Context, actionIDs []string) ([]scenario.ActionOverlay, []string, error) {
	if len(actionIDs) == 0 {
		return nil, nil, nil
	}
	instances, err := s.repo.Action.GetMany(ctx, actionIDs)
	if err != nil {
		return nil, nil, err
	}
	if len(instances) != len(actionIDs) {
		return nil, nil, apperr.Ef(apperr.ErrNotFound, "service.actionOverlays",
			"%d of %d action instances not found", len(actionIDs)-len(instances), len(actionIDs))
	}
	overlays := make([]scenario.ActionOverlay, 0, len(instances))
	ids := make([]string, 0, len(instances))
	for _, inst := range instances {
		activationDay := 0
		if arch, err := catalog.ByCode(inst.ArchetypeCode); err == nil {
			activationDay = arch.DefaultUrgencyDays
		}
		overlays = append(overlays, scenario.ActionOverlay{
			DaysGained:    inst.Effect.DaysGained,
			ActivationDay: activationDay,
		})
		ids = append(ids, inst.ID)
	}
	return overlays, ids, nil
}

func (s *DroughtService) persistSimulations(ctx context.Context, zoneID, snapshotID string, actionIDs []string, base *baseProjection, withAction []models.TrajectoryPoint, overlays []scenario.ActionOverlay, projectionDays int) error {
	baseDays := s.scenarios.DaysToCritical(base.current, base.trend, base.history)
	noSim := &models.Simulation{
		ZoneID:          zoneID,
		ScenarioType:    models.ScenarioNoAction,
		SnapshotID:      snapshotID,
		FutureSPI:       base.trajectory,
		FutureRiskLevel: lastRisk(base.trajectory),
		DaysToCritical:  baseDays,
		ProjectionDays:  projectionDays,
	}
	if err := s.repo.Simulation.InsertSimulation(ctx, noSim); err != nil {
		return err
	}
	withSim := &models.Simulation{
		ZoneID:          zoneID,
		ScenarioType:    models.ScenarioWithAction,
		SnapshotID:      snapshotID,
		ActionIDs:       actionIDs,
		FutureSPI:       withAction,
		FutureRiskLevel: lastRisk(withAction),
		DaysToCritical:  s.scenarios.WithActionDays(baseDays, overlays),
		ProjectionDays:  projectionDays,
	}
	return s.repo.Simulation.InsertSimulation(ctx, withSim)
}

func (s *DroughtService) latestSnapshotID(ctx context.Context, zoneID string) string {
	snapshot, err := s.repo.Snapshot.Latest(ctx, zoneID)
	if err != nil {
		return ""
	}
	return snapshot.ID
}

func (s *DroughtService) zoneBySlug(ctx context.Context, slug string) (*models.Zone, error) {
	if !validate.Slug(slug) {
		return nil, apperr.Ef(apperr.ErrInvalidInput, "service.zoneBySlug", "malformed zone slug %q", slug)
	}
	return s.repo.Zone.GetBySlug(ctx, slug)
}

func (s *DroughtService) dailySeries(ctx context.Context, zone *models.Zone) ([]models.DailyValue, error) {
	daily, err := s.repo.Precipitation.DailySeries(ctx, zone.ID)
	if err != nil {
		return nil, err
	}
	if len(daily) == 0 {
		return nil, apperr.Ef(apperr.ErrMissingData, "service.dailySeries",
			"no precipitation stored for zone %q; run ingestion first", zone.Slug)
	}
	return daily, nil
}

func (s *DroughtService) normalizeHorizon(projectionDays int) (int, error) {
	if projectionDays == 0 {
		return s.projectionDefault, nil
	}
	if !validate.ProjectionDays(projectionDays) {
		return 0, apperr.Ef(apperr.ErrInvalidInput, "service.normalizeHorizon",
			"projection_days must be in [0, 3650], got %d", projectionDays)
	}
	return projectionDays, nil
}

func lastRisk(trajectory []models.TrajectoryPoint) string {
	if len(trajectory) == 0 {
		return models.RiskLow
	}
	return trajectory[len(trajectory)-1].RiskLevel
}

func spiValues(series []models.MonthlySPI) []float64 {
	out := make([]float64, len(series))
	for i, s := range series {
		out[i] = s.SPI
	}
	return out
}
