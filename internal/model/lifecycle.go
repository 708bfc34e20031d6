package model

// Lifecycle status constants. Revocation keeps the row and is reversible;
// purging removes the row for good. There is no "purged" row state — a purge
// is a hard DELETE, the constant exists only for transition reporting.
const (
	StatusActive  = "active"
	StatusRevoked = "revoked"
	StatusPurged  = "purged"
)

// Lifecycle is embedded by every entity that supports revoke/restore/purge.
type Lifecycle struct {
	Status string `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
}

func (l *Lifecycle) IsActive() bool  { return l.Status == StatusActive }
func (l *Lifecycle) IsRevoked() bool { return l.Status == StatusRevoked }

// Revoke marks the entity revoked. Returns false if it already was.
func (l *Lifecycle) Revoke() bool {
	if l.Status == StatusRevoked {
		return false
	}
	l.Status = StatusRevoked
	return true
}

// Restore returns a revoked entity to active. Returns false if it was not revoked.
func (l *Lifecycle) Restore() bool {
	if l.Status != StatusRevoked {
		return false
	}
	l.Status = StatusActive
	return true
}
