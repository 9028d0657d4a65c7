package service

import (
	"context"

	"github.com/droughtwatch/droughtwatch-backend/internal/models"
	"github.com/droughtwatch/droughtwatch-backend/internal/pkg/apperr"
	"github.com/droughtwatch/droughtwatch-backend/internal/pkg/validate"
)

// CreateZone registers a new monitored geography.
func (s *DroughtService) CreateZone(ctx context.Context, zone *models.Zone) (*models.Zone, error) {
	if !validate.Slug(zone.Slug) {
		return nil, apperr.Ef(apperr.ErrInvalidInput, "service.CreateZone", "malformed zone slug %q", zone.Slug)
	}
	if zone.Name == "" {
		return nil, apperr.E(apperr.ErrInvalidInput, "service.CreateZone", "zone name is required")
	}
	if !validate.Latitude(zone.Latitude) || !validate.Longitude(zone.Longitude) {
		return nil, apperr.Ef(apperr.ErrInvalidInput, "service.CreateZone",
			"coordinates (%f, %f) out of range", zone.Latitude, zone.Longitude)
	}
	if err := s.repo.Zone.Create(ctx, zone); err != nil {
		return nil, err
	}
	s.logger.Info("zone created", "zone", zone.Slug)
	return zone, nil
}

// GetZone returns a zone by slug.
func (s *DroughtService) GetZone(ctx context.Context, slug string) (*models.Zone, error) {
	return s.zoneBySlug(ctx, slug)
}

// ListZones returns all zones, newest first.
func (s *DroughtService) ListZones(ctx context.Context) ([]*models.Zone, error) {
	return s.repo.Zone.List(ctx)
}

// UpdateZone updates a zone's mutable fields (name, codes, local prices).
func (s *DroughtService) UpdateZone(ctx context.Context, slug string, update *models.Zone) (*models.Zone, error) {
	zone, err := s.zoneBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if update.Name != "" {
		zone.Name = update.Name
	}
	if update.CountryCode != "" {
		zone.CountryCode = update.CountryCode
	}
	if update.StateCode != "" {
		zone.StateCode = update.StateCode
	}
	if update.ElectricityPriceUSDMWh != nil {
		zone.ElectricityPriceUSDMWh = update.ElectricityPriceUSDMWh
	}
	if update.FuelPriceUSDMMBtu != nil {
		zone.FuelPriceUSDMMBtu = update.FuelPriceUSDMMBtu
	}
	if err := s.repo.Zone.Update(ctx, zone); err != nil {
		return nil, err
	}
	return zone, nil
}

// DeleteZone removes a zone and its dependent records.
func (s *DroughtService) DeleteZone(ctx context.Context, slug string) error {
	zone, err := s.zoneBySlug(ctx, slug)
	if err != nil {
		return err
	}
	return s.repo.Zone.Delete(ctx, zone.ID)
}

// CreatePlant registers a power plant inside a zone.
func (s *DroughtService) CreatePlant(ctx context.Context, slug string, plant *models.PowerPlant) (*models.PowerPlant, error) {
	zone, err := s.zoneBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if plant.Name == "" {
		return nil, apperr.E(apperr.ErrInvalidInput, "service.CreatePlant", "plant name is required")
	}
	if !validate.Capacity(plant.CapacityMW) {
		return nil, apperr.Ef(apperr.ErrInvalidInput, "service.CreatePlant",
			"capacity %f MW out of range", plant.CapacityMW)
	}
	if !validPlantEnums(plant) {
		return nil, apperr.E(apperr.ErrInvalidInput, "service.CreatePlant",
			"unknown plant type, water dependency, or cooling type")
	}
	plant.ZoneID = zone.ID
	if err := s.repo.Plant.CreatePlant(ctx, plant); err != nil {
		return nil, err
	}
	s.logger.Info("plant created", "zone", slug, "plant", plant.Name, "capacity_mw", plant.CapacityMW)
	return plant, nil
}

// ListPlants returns the plants of a zone, largest first.
func (s *DroughtService) ListPlants(ctx context.Context, slug string) ([]models.PowerPlant, error) {
	zone, err := s.zoneBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.repo.Plant.ListPlantsByZone(ctx, zone.ID)
}

// UpdatePlant updates a plant's mutable fields.
func (s *DroughtService) UpdatePlant(ctx context.Context, id string, update *models.PowerPlant) (*models.PowerPlant, error) {
	plant, err := s.repo.Plant.GetPlant(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.Name != "" {
		plant.Name = update.Name
	}
	if update.Type != "" {
		plant.Type = update.Type
	}
	if update.CapacityMW > 0 {
		if !validate.Capacity(update.CapacityMW) {
			return nil, apperr.Ef(apperr.ErrInvalidInput, "service.UpdatePlant",
				"capacity %f MW out of range", update.CapacityMW)
		}
		plant.CapacityMW = update.CapacityMW
	}
	if update.WaterDependency != "" {
		plant.WaterDependency = update.WaterDependency
	}
	if update.CoolingType != "" {
		plant.CoolingType = update.CoolingType
	}
	if update.Status != "" {
		plant.Status = update.Status
	}
	if !validPlantEnums(plant) {
		return nil, apperr.E(apperr.ErrInvalidInput, "service.UpdatePlant",
			"unknown plant type, water dependency, or cooling type")
	}
	if err := s.repo.Plant.UpdatePlant(ctx, plant); err != nil {
		return nil, err
	}
	return plant, nil
}

// DeletePlant removes a plant.
func (s *DroughtService) DeletePlant(ctx context.Context, id string) error {
	return s.repo.Plant.DeletePlant(ctx, id)
}

func validPlantEnums(p *models.PowerPlant) bool {
	switch p.Type {
	case models.PlantThermoelectric, models.PlantNuclear, models.PlantHydroelectric:
	default:
		return false
	}
	switch p.WaterDependency {
	case models.WaterDependencyHigh, models.WaterDependencyMedium, models.WaterDependencyLow:
	default:
		return false
	}
	switch p.CoolingType {
	case models.CoolingOnceThrough, models.CoolingRecirculating, models.CoolingDry:
	default:
		return false
	}
	return true
}
