package services

import (
	"context"
	"fmt"

	"oneridetho/internal/models"
	"oneridetho/internal/repositories/interfaces"
	"oneridetho/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DriverService is the read side of the driver directory.
type DriverService interface {
	ListDriverIDs(ctx context.Context) ([]string, error)
	ListDriverEmails(ctx context.Context) ([]string, error)
	GetDriver(ctx context.Context, driverID primitive.ObjectID) (*models.Driver, error)
	GetLocation(ctx context.Context, driverID primitive.ObjectID) (*DriverPosition, error)
}

type DriverPosition struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type driverService struct {
	driverRepo   interfaces.DriverRepository
	locationRepo interfaces.DriverLocationRepository
	logger       *logger.Logger
}

func NewDriverService(driverRepo interfaces.DriverRepository, locationRepo interfaces.DriverLocationRepository, logger *logger.Logger) DriverService {
	return &driverService{
		driverRepo:   driverRepo,
		locationRepo: locationRepo,
		logger:       logger,
	}
}

func (s *driverService) ListDriverIDs(ctx context.Context) ([]string, error) {
	drivers, err := s.driverRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list drivers: %w", err)
	}
	ids := make([]string, 0, len(drivers))
	for _, d := range drivers {
		ids = append(ids, d.ID.Hex())
	}
	return ids, nil
}

func (s *driverService) ListDriverEmails(ctx context.Context) ([]string, error) {
	drivers, err := s.driverRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list drivers: %w", err)
	}
	emails := make([]string, 0, len(drivers))
	for _, d := range drivers {
		if d.Email != "" {
			emails = append(emails, d.Email)
		}
	}
	return emails, nil
}

func (s *driverService) GetDriver(ctx context.Context, driverID primitive.ObjectID) (*models.Driver, error) {
	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, notFound(err, ErrDriverNotFound)
	}
	return driver, nil
}

func (s *driverService) GetLocation(ctx context.Context, driverID primitive.ObjectID) (*DriverPosition, error) {
	loc, err := s.locationRepo.GetByDriverID(ctx, driverID)
	if err != nil {
		return nil, notFound(err, ErrNotFound)
	}
	return &DriverPosition{Lat: loc.Lat, Lng: loc.Lng}, nil
}
