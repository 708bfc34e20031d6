package service

import (
	"context"
	"encoding/json"
	"fmt"

	"pharmacare/internal/model"
	"pharmacare/internal/repository"
)

// writeAudit records a who/what/when row. Must be called with the
// transaction context so the row commits or rolls back with the change.
func writeAudit(ctx context.Context, repo repository.AuditRepository, principal model.Principal, action, entityType, entityID string, details map[string]interface{}) error {
	payload, _ := json.Marshal(details)
	entry := &model.AuditLog{
		FacilityID: principal.FacilityID,
		UserID:     &principal.UserID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    string(payload),
	}
	if err := repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
