package service

import (
	"context"
	"errors"

	"github.com/garyjia/workflow-reconciler/internal/application/port"
	"github.com/garyjia/workflow-reconciler/internal/domain/entity"
)

// ErrRequestNotFound is returned when no request matches the lookup
var ErrRequestNotFound = errors.New("request not found")

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// RequestService reads imported requests
type RequestService interface {
	GetRequest(ctx context.Context, id int64) (*entity.MaterialRequest, error)
	GetRequestByLegacyID(ctx context.Context, companyID int64, sourceSystem, legacyID string) (*entity.MaterialRequest, error)
	CountRequests(ctx context.Context, companyID int64) (int, error)
}

type requestServiceImpl struct {
	requestRepo port.RequestRepository
	logger      Logger
}

// NewRequestService creates a new RequestService
func NewRequestService(requestRepo port.RequestRepository, logger Logger) RequestService {
	return &requestServiceImpl{
		requestRepo: requestRepo,
		logger:      logger,
	}
}

// GetRequest retrieves a request with its steps and items
func (s *requestServiceImpl) GetRequest(ctx context.Context, id int64) (*entity.MaterialRequest, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get request", "error", err, "id", id)
		return nil, err
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}
	return req, nil
}

// GetRequestByLegacyID retrieves a request by its provenance key
func (s *requestServiceImpl) GetRequestByLegacyID(ctx context.Context, companyID int64, sourceSystem, legacyID string) (*entity.MaterialRequest, error) {
	if sourceSystem == "" {
		sourceSystem = entity.SourceSystemLegacyMRS
	}
	req, err := s.requestRepo.GetByLegacyID(ctx, companyID, sourceSystem, legacyID)
	if err != nil {
		s.logger.Error("Failed to get request by legacy id", "error", err, "company_id", companyID, "legacy_record_id", legacyID)
		return nil, err
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}
	return req, nil
}

// CountRequests returns the number of requests stored for a company
func (s *requestServiceImpl) CountRequests(ctx context.Context, companyID int64) (int, error) {
	n, err := s.requestRepo.CountByCompany(ctx, companyID)
	if err != nil {
		s.logger.Error("Failed to count requests", "error", err, "company_id", companyID)
		return 0, err
	}
	return n, nil
}
