package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IDs are generated client-side so the models behave the same on every
// backend, including the sqlite test databases.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (f *Facility) BeforeCreate(*gorm.DB) error      { ensureID(&f.ID); return nil }
func (r *Role) BeforeCreate(*gorm.DB) error          { ensureID(&r.ID); return nil }
func (p *Permission) BeforeCreate(*gorm.DB) error    { ensureID(&p.ID); return nil }
func (u *User) BeforeCreate(*gorm.DB) error          { ensureID(&u.ID); return nil }
func (p *Patient) BeforeCreate(*gorm.DB) error       { ensureID(&p.ID); return nil }
func (s *Station) BeforeCreate(*gorm.DB) error       { ensureID(&s.ID); return nil }
func (v *Visit) BeforeCreate(*gorm.DB) error         { ensureID(&v.ID); return nil }
func (s *Store) BeforeCreate(*gorm.DB) error         { ensureID(&s.ID); return nil }
func (p *Product) BeforeCreate(*gorm.DB) error       { ensureID(&p.ID); return nil }
func (sp *StoreProduct) BeforeCreate(*gorm.DB) error { ensureID(&sp.ID); return nil }
func (p *Purchase) BeforeCreate(*gorm.DB) error      { ensureID(&p.ID); return nil }
func (i *PurchaseItem) BeforeCreate(*gorm.DB) error  { ensureID(&i.ID); return nil }
func (s *Sale) BeforeCreate(*gorm.DB) error          { ensureID(&s.ID); return nil }
func (i *SaleItem) BeforeCreate(*gorm.DB) error      { ensureID(&i.ID); return nil }
func (m *StockMovement) BeforeCreate(*gorm.DB) error { ensureID(&m.ID); return nil }
func (a *AuditLog) BeforeCreate(*gorm.DB) error      { ensureID(&a.ID); return nil }
