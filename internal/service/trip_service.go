package service

import (
	"github.com/mfelden/tripwatch-backend-go/internal/models"
	"github.com/mfelden/tripwatch-backend-go/internal/repository"
)

// TripService handles business logic for persisted trips
type TripService struct {
	repo *repository.TripRepository
}

// NewTripService creates a new trip service
func NewTripService(repo *repository.TripRepository) *TripService {
	return &TripService{repo: repo}
}

// GetTrips retrieves trips with filtering and pagination
func (s *TripService) GetTrips(filter models.TripFilter) (models.TripsResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 100
	}

	trips, total, err := s.repo.GetTrips(filter)
	if err != nil {
		return models.TripsResponse{}, err
	}

	totalPages := int(total) / filter.PageSize
	if int(total)%filter.PageSize > 0 {
		totalPages++
	}

	return models.TripsResponse{
		Data:       trips,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
	}, nil
}

// GetTripByID retrieves a single trip by ID
func (s *TripService) GetTripByID(id string) (*models.CompletedTrip, error) {
	return s.repo.GetTripByID(id)
}

// GetSummary aggregates the trip archive
func (s *TripService) GetSummary() (models.TripSummary, error) {
	return s.repo.GetSummary()
}
