package repository

import (
	"context"
	"io/fs"
	"time"

	"github.com/droughtwatch/droughtwatch-backend/internal/models"
)

// ZoneRepository defines zone data access methods
type ZoneRepository interface {
	Create(ctx context.Context, zone *models.Zone) error
	Get(ctx context.Context, id string) (*models.Zone, error)
	GetBySlug(ctx context.Context, slug string) (*models.Zone, error)
	List(ctx context.Context) ([]*models.Zone, error)
	Update(ctx context.Context, zone *models.Zone) error
	Delete(ctx context.Context, id string) error
}

// PrecipitationRepository defines the daily precipitation store.
// The primary key is (zone, variable, date, source); upserts are idempotent.
type PrecipitationRepository interface {
	// UpsertBatch rejects negative value_mm and returns the number of
	// genuinely new rows; conflicting keys are overwritten in place and
	// not counted.
	UpsertBatch(ctx context.Context, records []models.PrecipitationRecord) (int, error)
	// LastDate returns the most recent stored date for a (zone, source)
	// pair, or nil when the store is empty for it.
	LastDate(ctx context.Context, zoneID, source string) (*time.Time, error)
	// DailySeries returns the merged per-day series across sources,
	// ordered by date ascending.
	DailySeries(ctx context.Context, zoneID string) ([]models.DailyValue, error)
	// Query returns one source's series within [from, to], ordered by date
	// ascending with no duplicate dates.
	Query(ctx context.Context, zoneID, source string, from, to time.Time) ([]models.DailyValue, error)
	CountRecords(ctx context.Context, zoneID, source string) (int, error)
}

// SnapshotRepository defines append-only risk snapshot access
type SnapshotRepository interface {
	Insert(ctx context.Context, snapshot *models.RiskSnapshot) error
	Latest(ctx context.Context, zoneID string) (*models.RiskSnapshot, error)
	ListSnapshots(ctx context.Context, zoneID string, limit int) ([]*models.RiskSnapshot, error)
}

// PlantRepository defines power plant data access methods
type PlantRepository interface {
	CreatePlant(ctx context.Context, plant *models.PowerPlant) error
	GetPlant(ctx context.Context, id string) (*models.PowerPlant, error)
	GetManyPlants(ctx context.Context, ids []string) ([]models.PowerPlant, error)
	ListPlantsByZone(ctx context.Context, zoneID string) ([]models.PowerPlant, error)
	UpdatePlant(ctx context.Context, plant *models.PowerPlant) error
	DeletePlant(ctx context.Context, id string) error
}

// ActionRepository defines action instance persistence. InsertBatch runs in
// one transaction and fills the assigned IDs on the passed instances; callers
// need those IDs for later simulation linkage.
type ActionRepository interface {
	InsertBatch(ctx context.Context, instances []*models.ActionInstance) error
	GetMany(ctx context.Context, ids []string) ([]*models.ActionInstance, error)
	ListByZone(ctx context.Context, zoneID string, limit int) ([]*models.ActionInstance, error)
}

// SimulationRepository defines append-only simulation persistence
type SimulationRepository interface {
	InsertSimulation(ctx context.Context, sim *models.Simulation) error
	InsertEconomic(ctx context.Context, sims []*models.EconomicSimulation) error
}

// PriceRepository caches regional price quotes across restarts
type PriceRepository interface {
	GetPrice(ctx context.Context, region string) (*models.PriceQuote, error)
	PutPrice(ctx context.Context, quote models.PriceQuote) error
}

// Repository aggregates all repositories
type Repository struct {
	Zone          ZoneRepository
	Precipitation PrecipitationRepository
	Snapshot      SnapshotRepository
	Plant         PlantRepository
	Action        ActionRepository
	Simulation    SimulationRepository
	Price         PriceRepository

	closer   func() error
	migrator func(fs.FS) error
}

// Close releases the underlying store, if any.
func (r *Repository) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}

// RunMigrations applies the schema to the underlying store. The in-memory
// store has no schema and treats this as a no-op.
func (r *Repository) RunMigrations(migrationsFS fs.FS) error {
	if r.migrator == nil {
		return nil
	}
	return r.migrator(migrationsFS)
}
