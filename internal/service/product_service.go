package service

import (
	"context"
	"errors"
	"fmt"

	"pharmacare/internal/model"
	"pharmacare/internal/repository"
	"pharmacare/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateProductRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Brand       string `json:"brand" binding:"omitempty,max=255"`
	PackageType string `json:"package_type" binding:"omitempty,max=100"`
}

type UpdateProductRequest struct {
	Name        string `json:"name" binding:"omitempty,max=255"`
	Brand       string `json:"brand" binding:"omitempty,max=255"`
	PackageType string `json:"package_type" binding:"omitempty,max=100"`
}

type ProductService interface {
	Create(ctx context.Context, principal model.Principal, req CreateProductRequest) (*model.Product, error)
	Update(ctx context.Context, principal model.Principal, id string, req UpdateProductRequest) (*model.Product, error)
	Get(ctx context.Context, principal model.Principal, id string) (*model.Product, error)
	List(ctx context.Context, principal model.Principal, search string, offset, limit int) ([]model.Product, int64, error)
	Revoke(ctx context.Context, principal model.Principal, id string) error
	Restore(ctx context.Context, principal model.Principal, id string) error
	Purge(ctx context.Context, principal model.Principal, id string) error
}

type productService struct {
	productRepo repository.ProductRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewProductService(
	productRepo repository.ProductRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) ProductService {
	return &productService{productRepo: productRepo, auditRepo: auditRepo, txManager: txManager}
}

func (s *productService) Create(ctx context.Context, principal model.Principal, req CreateProductRequest) (*model.Product, error) {
	product := &model.Product{
		FacilityID:  principal.FacilityID,
		Name:        req.Name,
		Brand:       req.Brand,
		PackageType: req.PackageType,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.productRepo.Create(txCtx, product); createErr != nil {
			return fmt.Errorf("failed to create product: %w", createErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionCreate, "product", product.ID.String(), map[string]interface{}{
			"name": req.Name,
		})
	})
	if err != nil {
		return nil, err
	}

	return product, nil
}

func (s *productService) Update(ctx context.Context, principal model.Principal, id string, req UpdateProductRequest) (*model.Product, error) {
	product, err := s.findScoped(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		product.Name = req.Name
	}
	if req.Brand != "" {
		product.Brand = req.Brand
	}
	if req.PackageType != "" {
		product.PackageType = req.PackageType
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if saveErr := s.productRepo.Update(txCtx, product); saveErr != nil {
			return fmt.Errorf("failed to update product: %w", saveErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionUpdate, "product", product.ID.String(), nil)
	})
	if err != nil {
		return nil, err
	}

	return product, nil
}

func (s *productService) Get(ctx context.Context, principal model.Principal, id string) (*model.Product, error) {
	return s.findScoped(ctx, principal, id)
}

func (s *productService) List(ctx context.Context, principal model.Principal, search string, offset, limit int) ([]model.Product, int64, error) {
	return s.productRepo.ListByFacility(ctx, principal.FacilityID, search, offset, limit)
}

func (s *productService) Revoke(ctx context.Context, principal model.Principal, id string) error {
	product, err := s.findScoped(ctx, principal, id)
	if err != nil {
		return err
	}
	if !product.Lifecycle.Revoke() {
		return apperror.Conflict("product is already revoked")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if saveErr := s.productRepo.Update(txCtx, product); saveErr != nil {
			return fmt.Errorf("failed to revoke product: %w", saveErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionRevoke, "product", product.ID.String(), nil)
	})
}

func (s *productService) Restore(ctx context.Context, principal model.Principal, id string) error {
	product, err := s.findScoped(ctx, principal, id)
	if err != nil {
		return err
	}
	if !product.Lifecycle.Restore() {
		return apperror.Conflict("product is not revoked")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if saveErr := s.productRepo.Update(txCtx, product); saveErr != nil {
			return fmt.Errorf("failed to restore product: %w", saveErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionRestore, "product", product.ID.String(), nil)
	})
}

func (s *productService) Purge(ctx context.Context, principal model.Principal, id string) error {
	product, err := s.findScoped(ctx, principal, id)
	if err != nil {
		return err
	}
	if !product.IsRevoked() {
		return apperror.Conflict("product must be revoked before purging")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if delErr := s.productRepo.Purge(txCtx, product.ID); delErr != nil {
			return fmt.Errorf("failed to purge product: %w", delErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionPurge, "product", product.ID.String(), nil)
	})
}

func (s *productService) findScoped(ctx context.Context, principal model.Principal, id string) (*model.Product, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.NotFound("product")
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("product")
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product.FacilityID != principal.FacilityID {
		return nil, apperror.NotFound("product")
	}

	return product, nil
}
