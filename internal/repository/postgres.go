package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/droughtwatch/droughtwatch-backend/internal/models"
	"github.com/droughtwatch/droughtwatch-backend/internal/pkg/apperr"
	"github.com/droughtwatch/droughtwatch-backend/internal/pkg/retry"
)

// PostgresRepository implements all repositories using PostgreSQL
type PostgresRepository struct {
	db     *sqlx.DB
	policy retry.Policy
}

// NewPostgres connects and returns the aggregate repository backed by one pool.
func NewPostgres(connectionString string) (*Repository, error) {
	db, err := sqlx.Connect("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pg := &PostgresRepository{db: db, policy: retry.Default()}
	return &Repository{
		Zone:          pg,
		Precipitation: pg,
		Snapshot:      pg,
		Plant:         pg,
		Action:        pg,
		Simulation:    pg,
		Price:         pg,
		closer:        db.Close,
		migrator:      pg.RunMigrations,
	}, nil
}

// RunMigrations applies every embedded *.sql file in lexical order.
func (r *PostgresRepository) RunMigrations(migrationsFS fs.FS) error {
	entries, err := fs.Glob(migrationsFS, "*.sql")
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}
	sort.Strings(entries)
	for _, name := range entries {
		content, err := fs.ReadFile(migrationsFS, name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if _, err := r.db.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", name, err)
		}
	}
	return nil
}

// dbErr maps storage errors onto the app error kinds. Transient connection
// failures keep their kind so the retry wrapper can recognize them.
func dbErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return apperr.E(apperr.ErrNotFound, op, "no rows")
	case retry.TransientNetwork(err):
		return apperr.Wrap(apperr.ErrTransient, op, err)
	default:
		return apperr.Wrap(apperr.ErrInternal, op, err)
	}
}

func transientStorage(err error) bool {
	return errors.Is(err, apperr.ErrTransient)
}

func (r *PostgresRepository) exec(ctx context.Context, op, query string, args ...interface{}) error {
	p := r.policy
	p.IsTransient = transientStorage
	return retry.Do(ctx, p, func() error {
		_, err := r.db.ExecContext(ctx, query, args...)
		return dbErr(op, err)
	})
}

func (r *PostgresRepository) get(ctx context.Context, op string, dest interface{}, query string, args ...interface{}) error {
	p := r.policy
	p.IsTransient = transientStorage
	return retry.Do(ctx, p, func() error {
		return dbErr(op, r.db.GetContext(ctx, dest, query, args...))
	})
}

func (r *PostgresRepository) selectAll(ctx context.Context, op string, dest interface{}, query string, args ...interface{}) error {
	p := r.policy
	p.IsTransient = transientStorage
	return retry.Do(ctx, p, func() error {
		return dbErr(op, r.db.SelectContext(ctx, dest, query, args...))
	})
}

// ZoneRepository implementation

func (r *PostgresRepository) Create(ctx context.Context, zone *models.Zone) error {
	if zone.ID == "" {
		zone.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	zone.CreatedAt, zone.UpdatedAt = now, now

	query := `
		INSERT INTO zones (id, slug, name, latitude, longitude, country_code, state_code,
			electricity_price_usd_mwh, fuel_price_usd_mmbtu, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	return r.exec(ctx, "zone.Create", query,
		zone.ID, zone.Slug, zone.Name, zone.Latitude, zone.Longitude,
		zone.CountryCode, zone.StateCode,
		zone.ElectricityPriceUSDMWh, zone.FuelPriceUSDMMBtu,
		zone.CreatedAt, zone.UpdatedAt,
	)
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Zone, error) {
	var zone models.Zone
	err := r.get(ctx, "zone.Get", &zone, `SELECT * FROM zones WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return &zone, nil
}

func (r *PostgresRepository) GetBySlug(ctx context.Context, slug string) (*models.Zone, error) {
	var zone models.Zone
	err := r.get(ctx, "zone.GetBySlug", &zone, `SELECT * FROM zones WHERE slug = $1`, slug)
	if err != nil {
		return nil, err
	}
	return &zone, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Zone, error) {
	var zones []*models.Zone
	err := r.selectAll(ctx, "zone.List", &zones, `SELECT * FROM zones ORDER BY created_at DESC`)
	return zones, err
}

func (r *PostgresRepository) Update(ctx context.Context, zone *models.Zone) error {
	zone.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE zones
		SET name = $1, country_code = $2, state_code = $3,
		    electricity_price_usd_mwh = $4, fuel_price_usd_mmbtu = $5, updated_at = $6
		WHERE id = $7
	`
	return r.exec(ctx, "zone.Update", query,
		zone.Name, zone.CountryCode, zone.StateCode,
		zone.ElectricityPriceUSDMWh, zone.FuelPriceUSDMMBtu, zone.UpdatedAt, zone.ID,
	)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, "zone.Delete", `DELETE FROM zones WHERE id = $1`, id)
}

// PrecipitationRepository implementation

func (r *PostgresRepository) UpsertBatch(ctx context.Context, records []models.PrecipitationRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	for _, rec := range records {
		if rec.ValueMM < 0 {
			return 0, apperr.Ef(apperr.ErrInvalidInput, "precipitation.UpsertBatch",
				"negative value_mm %.2f on %s", rec.ValueMM, rec.Date.Format("2006-01-02"))
		}
	}
	p := r.policy
	p.IsTransient = transientStorage
	var added int
	err := retry.Do(ctx, p, func() error {
		added = 0
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			return dbErr("precipitation.UpsertBatch", err)
		}
		defer tx.Rollback()

		// xmax = 0 distinguishes a fresh insert from a conflict update.
		stmt, err := tx.PreparexContext(ctx, `
			INSERT INTO climate_records (zone_id, variable, date, value_mm, source)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (zone_id, variable, date, source)
			DO UPDATE SET value_mm = EXCLUDED.value_mm
			RETURNING (xmax = 0)
		`)
		if err != nil {
			return dbErr("precipitation.UpsertBatch", err)
		}
		defer stmt.Close()

		for _, rec := range records {
			var inserted bool
			if err := stmt.QueryRowContext(ctx, rec.ZoneID, rec.Variable, rec.Date, rec.ValueMM, rec.Source).Scan(&inserted); err != nil {
				return dbErr("precipitation.UpsertBatch", err)
			}
			if inserted {
				added++
			}
		}
		return dbErr("precipitation.UpsertBatch", tx.Commit())
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

func (r *PostgresRepository) LastDate(ctx context.Context, zoneID, source string) (*time.Time, error) {
	var last sql.NullTime
	err := r.get(ctx, "precipitation.LastDate", &last,
		`SELECT MAX(date) FROM climate_records WHERE zone_id = $1 AND source = $2`, zoneID, source)
	if err != nil {
		return nil, err
	}
	if !last.Valid {
		return nil, nil
	}
	t := last.Time.UTC()
	return &t, nil
}

func (r *PostgresRepository) DailySeries(ctx context.Context, zoneID string) ([]models.DailyValue, error) {
	var series []models.DailyValue
	// When two sources report the same date the observations are averaged.
	query := `
		SELECT date, AVG(value_mm) AS value_mm
		FROM climate_records
		WHERE zone_id = $1 AND variable = $2
		GROUP BY date
		ORDER BY date ASC
	`
	err := r.selectAll(ctx, "precipitation.DailySeries", &series, query, zoneID, models.VariablePrecipitation)
	return series, err
}

func (r *PostgresRepository) Query(ctx context.Context, zoneID, source string, from, to time.Time) ([]models.DailyValue, error) {
	var series []models.DailyValue
	query := `
		SELECT date, value_mm
		FROM climate_records
		WHERE zone_id = $1 AND source = $2 AND variable = $3 AND date BETWEEN $4 AND $5
		ORDER BY date ASC
	`
	err := r.selectAll(ctx, "precipitation.Query", &series, query,
		zoneID, source, models.VariablePrecipitation, from, to)
	return series, err
}

func (r *PostgresRepository) CountRecords(ctx context.Context, zoneID, source string) (int, error) {
	var count int
	err := r.get(ctx, "precipitation.CountRecords", &count,
		`SELECT COUNT(*) FROM climate_records WHERE zone_id = $1 AND source = $2`, zoneID, source)
	return count, err
}

// SnapshotRepository implementation

func (r *PostgresRepository) Insert(ctx context.Context, snapshot *models.RiskSnapshot) error {
	if snapshot.ID == "" {
		snapshot.ID = uuid.New().String()
	}
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO risk_snapshots (id, zone_id, spi_6m, risk_level, trend, days_to_critical, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	return r.exec(ctx, "snapshot.Insert", query,
		snapshot.ID, snapshot.ZoneID, snapshot.SPI6M, snapshot.RiskLevel,
		snapshot.Trend, snapshot.DaysToCritical, snapshot.CreatedAt,
	)
}

func (r *PostgresRepository) Latest(ctx context.Context, zoneID string) (*models.RiskSnapshot, error) {
	var snapshot models.RiskSnapshot
	query := `SELECT * FROM risk_snapshots WHERE zone_id = $1 ORDER BY created_at DESC LIMIT 1`
	if err := r.get(ctx, "snapshot.Latest", &snapshot, query, zoneID); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (r *PostgresRepository) ListSnapshots(ctx context.Context, zoneID string, limit int) ([]*models.RiskSnapshot, error) {
	var snapshots []*models.RiskSnapshot
	query := `SELECT * FROM risk_snapshots WHERE zone_id = $1 ORDER BY created_at DESC LIMIT $2`
	err := r.selectAll(ctx, "snapshot.List", &snapshots, query, zoneID, limit)
	return snapshots, err
}

// PlantRepository implementation

func (r *PostgresRepository) CreatePlant(ctx context.Context, plant *models.PowerPlant) error {
	if plant.ID == "" {
		plant.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	plant.CreatedAt, plant.UpdatedAt = now, now
	if plant.Status == "" {
		plant.Status = "active"
	}
	query := `
		INSERT INTO power_plants (id, zone_id, name, type, capacity_mw, water_dependency, cooling_type, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	return r.exec(ctx, "plant.Create", query,
		plant.ID, plant.ZoneID, plant.Name, plant.Type, plant.CapacityMW,
		plant.WaterDependency, plant.CoolingType, plant.Status,
		plant.CreatedAt, plant.UpdatedAt,
	)
}

func (r *PostgresRepository) GetPlant(ctx context.Context, id string) (*models.PowerPlant, error) {
	var plant models.PowerPlant
	if err := r.get(ctx, "plant.Get", &plant, `SELECT * FROM power_plants WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &plant, nil
}

func (r *PostgresRepository) GetManyPlants(ctx context.Context, ids []string) ([]models.PowerPlant, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM power_plants WHERE id IN (?)`, ids)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInternal, "plant.GetMany", err)
	}
	var plants []models.PowerPlant
	err = r.selectAll(ctx, "plant.GetMany", &plants, r.db.Rebind(query), args...)
	return plants, err
}

func (r *PostgresRepository) ListPlantsByZone(ctx context.Context, zoneID string) ([]models.PowerPlant, error) {
	var plants []models.PowerPlant
	query := `SELECT * FROM power_plants WHERE zone_id = $1 ORDER BY capacity_mw DESC`
	err := r.selectAll(ctx, "plant.ListByZone", &plants, query, zoneID)
	return plants, err
}

func (r *PostgresRepository) UpdatePlant(ctx context.Context, plant *models.PowerPlant) error {
	plant.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE power_plants
		SET name = $1, type = $2, capacity_mw = $3, water_dependency = $4,
		    cooling_type = $5, status = $6, updated_at = $7
		WHERE id = $8
	`
	return r.exec(ctx, "plant.Update", query,
		plant.Name, plant.Type, plant.CapacityMW, plant.WaterDependency,
		plant.CoolingType, plant.Status, plant.UpdatedAt, plant.ID,
	)
}

func (r *PostgresRepository) DeletePlant(ctx context.Context, id string) error {
	return r.exec(ctx, "plant.Delete", `DELETE FROM power_plants WHERE id = $1`, id)
}

// ActionRepository implementation

func (r *PostgresRepository) InsertBatch(ctx context.Context, instances []*models.ActionInstance) error {
	if len(instances) == 0 {
		return nil
	}
	p := r.policy
	p.IsTransient = transientStorage
	return retry.Do(ctx, p, func() error {
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			return dbErr("action.InsertBatch", err)
		}
		defer tx.Rollback()

		query := `
			INSERT INTO action_instances (id, archetype_code, zone_id, profile, parameters,
				justification, expected_days_gained, expected_confidence, priority_score, method, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`
		for _, inst := range instances {
			if inst.ID == "" {
				inst.ID = uuid.New().String()
			}
			if inst.CreatedAt.IsZero() {
				inst.CreatedAt = time.Now().UTC()
			}
			params, err := json.Marshal(inst.Parameters)
			if err != nil {
				return apperr.Wrap(apperr.ErrInternal, "action.InsertBatch", err)
			}
			if _, err := tx.ExecContext(ctx, query,
				inst.ID, inst.ArchetypeCode, inst.ZoneID, inst.Profile, params,
				inst.Justification, inst.Effect.DaysGained, inst.Effect.Confidence,
				inst.PriorityScore, inst.Method, inst.CreatedAt,
			); err != nil {
				return dbErr("action.InsertBatch", err)
			}
		}
		return dbErr("action.InsertBatch", tx.Commit())
	})
}

// actionRow mirrors the action_instances columns with JSON parameters.
type actionRow struct {
	ID                 string    `db:"id"`
	ArchetypeCode      string    `db:"archetype_code"`
	ZoneID             string    `db:"zone_id"`
	Profile            string    `db:"profile"`
	Parameters         []byte    `db:"parameters"`
	Justification      string    `db:"justification"`
	ExpectedDaysGained float64   `db:"expected_days_gained"`
	ExpectedConfidence string    `db:"expected_confidence"`
	PriorityScore      float64   `db:"priority_score"`
	Method             string    `db:"method"`
	CreatedAt          time.Time `db:"created_at"`
}

func (row actionRow) toModel() (*models.ActionInstance, error) {
	inst := &models.ActionInstance{
		ID:            row.ID,
		ArchetypeCode: row.ArchetypeCode,
		ZoneID:        row.ZoneID,
		Profile:       row.Profile,
		Justification: row.Justification,
		Effect: models.ExpectedEffect{
			DaysGained: row.ExpectedDaysGained,
			Confidence: row.ExpectedConfidence,
		},
		PriorityScore: row.PriorityScore,
		Method:        row.Method,
		CreatedAt:     row.CreatedAt,
	}
	if len(row.Parameters) > 0 {
		if err := json.Unmarshal(row.Parameters, &inst.Parameters); err != nil {
			return nil, apperr.Wrap(apperr.ErrInternal, "action.toModel", err)
		}
	}
	return inst, nil
}

func (r *PostgresRepository) GetMany(ctx context.Context, ids []string) ([]*models.ActionInstance, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM action_instances WHERE id IN (?)`, ids)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInternal, "action.GetMany", err)
	}
	var rows []actionRow
	if err := r.selectAll(ctx, "action.GetMany", &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	out := make([]*models.ActionInstance, 0, len(rows))
	for _, row := range rows {
		inst, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, nil
}

func (r *PostgresRepository) ListByZone(ctx context.Context, zoneID string, limit int) ([]*models.ActionInstance, error) {
	var rows []actionRow
	query := `SELECT * FROM action_instances WHERE zone_id = $1 ORDER BY created_at DESC LIMIT $2`
	if err := r.selectAll(ctx, "action.ListByZone", &rows, query, zoneID, limit); err != nil {
		return nil, err
	}
	out := make([]*models.ActionInstance, 0, len(rows))
	for _, row := range rows {
		inst, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, nil
}

// SimulationRepository implementation

func (r *PostgresRepository) InsertSimulation(ctx context.Context, sim *models.Simulation) error {
	if sim.ID == "" {
		sim.ID = uuid.New().String()
	}
	if sim.CreatedAt.IsZero() {
		sim.CreatedAt = time.Now().UTC()
	}
	actions, err := json.Marshal(sim.ActionIDs)
	if err != nil {
		return apperr.Wrap(apperr.ErrInternal, "simulation.Insert", err)
	}
	future, err := json.Marshal(sim.FutureSPI)
	if err != nil {
		return apperr.Wrap(apperr.ErrInternal, "simulation.Insert", err)
	}
	var snapshotID interface{}
	if sim.SnapshotID != "" {
		snapshotID = sim.SnapshotID
	}
	query := `
		INSERT INTO simulations (id, zone_id, scenario_type, input_snapshot_id, included_action_instances,
			future_spi, future_risk_level, days_to_critical, projection_days, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	return r.exec(ctx, "simulation.Insert", query,
		sim.ID, sim.ZoneID, sim.ScenarioType, snapshotID, actions,
		future, sim.FutureRiskLevel, sim.DaysToCritical, sim.ProjectionDays, sim.CreatedAt,
	)
}

func (r *PostgresRepository) InsertEconomic(ctx context.Context, sims []*models.EconomicSimulation) error {
	if len(sims) == 0 {
		return nil
	}
	p := r.policy
	p.IsTransient = transientStorage
	return retry.Do(ctx, p, func() error {
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			return dbErr("simulation.InsertEconomic", err)
		}
		defer tx.Rollback()

		query := `
			INSERT INTO economic_simulations (id, plant_id, capacity_loss_pct_no_action, capacity_loss_pct_with_action,
				cost_no_action_usd, cost_with_action_usd, savings_usd, marginal_price_usd_mwh,
				fuel_price_usd_mmbtu, emergency_fuel_cost_usd, projection_days, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`
		for _, sim := range sims {
			if sim.ID == "" {
				sim.ID = uuid.New().String()
			}
			if sim.CreatedAt.IsZero() {
				sim.CreatedAt = time.Now().UTC()
			}
			if _, err := tx.ExecContext(ctx, query,
				sim.ID, sim.PlantID, sim.CapacityLossNoAction, sim.CapacityLossWithAction,
				sim.CostNoActionUSD, sim.CostWithActionUSD, sim.SavingsUSD,
				sim.MarginalPriceUSDMWh, sim.FuelPriceUSDMMBtu, sim.EmergencyFuelCostUSD,
				sim.ProjectionDays, sim.CreatedAt,
			); err != nil {
				return dbErr("simulation.InsertEconomic", err)
			}
		}
		return dbErr("simulation.InsertEconomic", tx.Commit())
	})
}

// PriceRepository implementation

func (r *PostgresRepository) GetPrice(ctx context.Context, region string) (*models.PriceQuote, error) {
	var quote models.PriceQuote
	query := `SELECT * FROM price_cache WHERE region = $1 AND valid_until > now()`
	if err := r.get(ctx, "price.Get", &quote, query, region); err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *PostgresRepository) PutPrice(ctx context.Context, quote models.PriceQuote) error {
	query := `
		INSERT INTO price_cache (region, marginal_price_usd_mwh, fuel_price_usd_mmbtu, source, valid_until)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (region) DO UPDATE SET
			marginal_price_usd_mwh = EXCLUDED.marginal_price_usd_mwh,
			fuel_price_usd_mmbtu = EXCLUDED.fuel_price_usd_mmbtu,
			source = EXCLUDED.source,
			valid_until = EXCLUDED.valid_until
	`
	return r.exec(ctx, "price.Put", query,
		quote.Region, quote.MarginalPriceUSDMWh, quote.FuelPriceUSDMMBtu, quote.Source, quote.ValidUntil)
}
