package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/droughtwatch/droughtwatch-backend/internal/models"
	"github.com/droughtwatch/droughtwatch-backend/internal/pkg/apperr"
)

// MemoryRepository is the in-process store used in demo mode and tests. It
// implements the same interfaces as the Postgres repository with the same
// idempotence semantics for precipitation upserts.
type MemoryRepository struct {
	mu sync.RWMutex

	zones     map[string]*models.Zone
	precip    map[string]map[precipKey]float64 // zoneID -> key -> mm
	snapshots map[string][]*models.RiskSnapshot
	plants    map[string]*models.PowerPlant
	actions   map[string]*models.ActionInstance
	sims      []*models.Simulation
	econSims  []*models.EconomicSimulation
	prices    map[string]models.PriceQuote
}

type precipKey struct {
	variable string
	date     time.Time
	source   string
}

// NewMemory returns the aggregate repository backed by in-process maps.
func NewMemory() *Repository {
	m := &MemoryRepository{
		zones:     make(map[string]*models.Zone),
		precip:    make(map[string]map[precipKey]float64),
		snapshots: make(map[string][]*models.RiskSnapshot),
		plants:    make(map[string]*models.PowerPlant),
		actions:   make(map[string]*models.ActionInstance),
		prices:    make(map[string]models.PriceQuote),
	}
	return &Repository{
		Zone:          m,
		Precipitation: m,
		Snapshot:      m,
		Plant:         m,
		Action:        m,
		Simulation:    m,
		Price:         m,
	}
}

// ZoneRepository implementation

func (m *MemoryRepository) Create(_ context.Context, zone *models.Zone) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, z := range m.zones {
		if z.Slug == zone.Slug {
			return apperr.Ef(apperr.ErrInvalidInput, "zone.Create", "slug %q already exists", zone.Slug)
		}
	}
	if zone.ID == "" {
		zone.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	zone.CreatedAt, zone.UpdatedAt = now, now
	cp := *zone
	m.zones[zone.ID] = &cp
	return nil
}

func (m *MemoryRepository) Get(_ context.Context, id string) (*models.Zone, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	z, ok := m.zones[id]
	if !ok {
		return nil, apperr.Ef(apperr.ErrNotFound, "zone.Get", "zone %s not found", id)
	}
	cp := *z
	return &cp, nil
}

func (m *MemoryRepository) GetBySlug(_ context.Context, slug string) (*models.Zone, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, z := range m.zones {
		if z.Slug == slug {
			cp := *z
			return &cp, nil
		}
	}
	return nil, apperr.Ef(apperr.ErrNotFound, "zone.GetBySlug", "zone %q not found", slug)
}

func (m *MemoryRepository) List(_ context.Context) ([]*models.Zone, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Zone, 0, len(m.zones))
	for _, z := range m.zones {
		cp := *z
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryRepository) Update(_ context.Context, zone *models.Zone) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.zones[zone.ID]; !ok {
		return apperr.Ef(apperr.ErrNotFound, "zone.Update", "zone %s not found", zone.ID)
	}
	zone.UpdatedAt = time.Now().UTC()
	cp := *zone
	m.zones[zone.ID] = &cp
	return nil
}

func (m *MemoryRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.zones, id)
	delete(m.precip, id)
	delete(m.snapshots, id)
	return nil
}

// PrecipitationRepository implementation

func (m *MemoryRepository) UpsertBatch(_ context.Context, records []models.PrecipitationRecord) (int, error) {
	for _, rec := range records {
		if rec.ValueMM < 0 {
			return 0, apperr.Ef(apperr.ErrInvalidInput, "precipitation.UpsertBatch",
				"negative value_mm %.2f on %s", rec.ValueMM, rec.Date.Format("2006-01-02"))
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	added := 0
	for _, rec := range records {
		byKey, ok := m.precip[rec.ZoneID]
		if !ok {
			byKey = make(map[precipKey]float64)
			m.precip[rec.ZoneID] = byKey
		}
		key := precipKey{variable: rec.Variable, date: rec.Date.UTC().Truncate(24 * time.Hour), source: rec.Source}
		if _, exists := byKey[key]; !exists {
			added++
		}
		byKey[key] = rec.ValueMM
	}
	return added, nil
}

func (m *MemoryRepository) LastDate(_ context.Context, zoneID, source string) (*time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var last *time.Time
	for key := range m.precip[zoneID] {
		if key.source != source {
			continue
		}
		d := key.date
		if last == nil || d.After(*last) {
			last = &d
		}
	}
	return last, nil
}

func (m *MemoryRepository) DailySeries(_ context.Context, zoneID string) ([]models.DailyValue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sums := make(map[time.Time]float64)
	counts := make(map[time.Time]int)
	for key, mm := range m.precip[zoneID] {
		if key.variable != models.VariablePrecipitation {
			continue
		}
		sums[key.date] += mm
		counts[key.date]++
	}
	out := make([]models.DailyValue, 0, len(sums))
	for date, sum := range sums {
		out = append(out, models.DailyValue{Date: date, ValueMM: sum / float64(counts[date])})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *MemoryRepository) Query(_ context.Context, zoneID, source string, from, to time.Time) ([]models.DailyValue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	from = from.UTC().Truncate(24 * time.Hour)
	to = to.UTC().Truncate(24 * time.Hour)
	var out []models.DailyValue
	for key, mm := range m.precip[zoneID] {
		if key.source != source || key.variable != models.VariablePrecipitation {
			continue
		}
		if key.date.Before(from) || key.date.After(to) {
			continue
		}
		out = append(out, models.DailyValue{Date: key.date, ValueMM: mm})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *MemoryRepository) CountRecords(_ context.Context, zoneID, source string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for key := range m.precip[zoneID] {
		if key.source == source {
			n++
		}
	}
	return n, nil
}

// SnapshotRepository implementation

func (m *MemoryRepository) Insert(_ context.Context, snapshot *models.RiskSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if snapshot.ID == "" {
		snapshot.ID = uuid.New().String()
	}
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = time.Now().UTC()
	}
	cp := *snapshot
	m.snapshots[snapshot.ZoneID] = append(m.snapshots[snapshot.ZoneID], &cp)
	return nil
}

func (m *MemoryRepository) Latest(_ context.Context, zoneID string) (*models.RiskSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.snapshots[zoneID]
	if len(list) == 0 {
		return nil, apperr.Ef(apperr.ErrNotFound, "snapshot.Latest", "no snapshot for zone %s", zoneID)
	}
	cp := *list[len(list)-1]
	return &cp, nil
}

func (m *MemoryRepository) ListSnapshots(_ context.Context, zoneID string, limit int) ([]*models.RiskSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.snapshots[zoneID]
	out := make([]*models.RiskSnapshot, 0, limit)
	for i := len(list) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *list[i]
		out = append(out, &cp)
	}
	return out, nil
}

// PlantRepository implementation

func (m *MemoryRepository) CreatePlant(_ context.Context, plant *models.PowerPlant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if plant.ID == "" {
		plant.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	plant.CreatedAt, plant.UpdatedAt = now, now
	if plant.Status == "" {
		plant.Status = "active"
	}
	cp := *plant
	m.plants[plant.ID] = &cp
	return nil
}

func (m *MemoryRepository) GetPlant(_ context.Context, id string) (*models.PowerPlant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.plants[id]
	if !ok {
		return nil, apperr.Ef(apperr.ErrNotFound, "plant.Get", "plant %s not found", id)
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryRepository) GetManyPlants(_ context.Context, ids []string) ([]models.PowerPlant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.PowerPlant, 0, len(ids))
	for _, id := range ids {
		if p, ok := m.plants[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *MemoryRepository) ListPlantsByZone(_ context.Context, zoneID string) ([]models.PowerPlant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.PowerPlant
	for _, p := range m.plants {
		if p.ZoneID == zoneID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CapacityMW > out[j].CapacityMW })
	return out, nil
}

func (m *MemoryRepository) UpdatePlant(_ context.Context, plant *models.PowerPlant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plants[plant.ID]; !ok {
		return apperr.Ef(apperr.ErrNotFound, "plant.Update", "plant %s not found", plant.ID)
	}
	plant.UpdatedAt = time.Now().UTC()
	cp := *plant
	m.plants[plant.ID] = &cp
	return nil
}

func (m *MemoryRepository) DeletePlant(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.plants, id)
	return nil
}

// ActionRepository implementation

func (m *MemoryRepository) InsertBatch(_ context.Context, instances []*models.ActionInstance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inst := range instances {
		if inst.ID == "" {
			inst.ID = uuid.New().String()
		}
		if inst.CreatedAt.IsZero() {
			inst.CreatedAt = time.Now().UTC()
		}
		cp := *inst
		m.actions[inst.ID] = &cp
	}
	return nil
}

func (m *MemoryRepository) GetMany(_ context.Context, ids []string) ([]*models.ActionInstance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.ActionInstance, 0, len(ids))
	for _, id := range ids {
		if inst, ok := m.actions[id]; ok {
			cp := *inst
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MemoryRepository) ListByZone(_ context.Context, zoneID string, limit int) ([]*models.ActionInstance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []*models.ActionInstance
	for _, inst := range m.actions {
		if inst.ZoneID == zoneID {
			cp := *inst
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// SimulationRepository implementation

func (m *MemoryRepository) InsertSimulation(_ context.Context, sim *models.Simulation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sim.ID == "" {
		sim.ID = uuid.New().String()
	}
	if sim.CreatedAt.IsZero() {
		sim.CreatedAt = time.Now().UTC()
	}
	cp := *sim
	m.sims = append(m.sims, &cp)
	return nil
}

func (m *MemoryRepository) InsertEconomic(_ context.Context, sims []*models.EconomicSimulation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sim := range sims {
		if sim.ID == "" {
			sim.ID = uuid.New().String()
		}
		if sim.CreatedAt.IsZero() {
			sim.CreatedAt = time.Now().UTC()
		}
		cp := *sim
		m.econSims = append(m.econSims, &cp)
	}
	return nil
}

// PriceRepository implementation

func (m *MemoryRepository) GetPrice(_ context.Context, region string) (*models.PriceQuote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	quote, ok := m.prices[region]
	if !ok || time.Now().UTC().After(quote.ValidUntil) {
		return nil, apperr.Ef(apperr.ErrNotFound, "price.Get", "no valid quote for region %q", region)
	}
	return &quote, nil
}

func (m *MemoryRepository) PutPrice(_ context.Context, quote models.PriceQuote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[quote.Region] = quote
	return nil
}
