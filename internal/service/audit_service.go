package service

import (
	"context"

	"pharmacare/internal/model"
	"pharmacare/internal/repository"
)

type AuditService interface {
	List(ctx context.Context, principal model.Principal, action string, offset, limit int) ([]model.AuditLog, int64, error)
}

type auditService struct {
	auditRepo repository.AuditRepository
}

func NewAuditService(auditRepo repository.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

func (s *auditService) List(ctx context.Context, principal model.Principal, action string, offset, limit int) ([]model.AuditLog, int64, error) {
	return s.auditRepo.ListByFacility(ctx, principal.FacilityID, action, offset, limit)
}
