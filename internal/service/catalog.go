package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/campuskart/campus_market/internal/models"
	"github.com/campuskart/campus_market/internal/repo"
)

var validCategories = map[string]bool{
	"Books":       true,
	"Electronics": true,
	"Clothing":    true,
	"Services":    true,
	"Other":       true,
}

type CatalogService struct {
	Repo *repo.GormRepo
}

type CreateProductInput struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
}

type ProductPatch struct {
	Name        *string  `json:"name"`
	Category    *string  `json:"category"`
	Price       *float64 `json:"price"`
	Description *string  `json:"description"`
	Image       *string  `json:"image"`
	Status      *string  `json:"status"`
}

// Create lists a new product. Sellers are faculty or admin; the role check
// here backs up the route-level gate so the invariant holds even for direct
// callers.
func (s *CatalogService) Create(ctx context.Context, sellerID uint, role string, in CreateProductInput) (*models.Product, error) {
	if role != models.RoleFaculty && role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: only faculty or admin can list products", ErrForbidden)
	}
	if len(strings.TrimSpace(in.Name)) < 3 {
		return nil, fmt.Errorf("%w: product name must be at least 3 characters", ErrValidation)
	}
	if !validCategories[in.Category] {
		return nil, fmt.Errorf("%w: invalid category", ErrValidation)
	}
	if in.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be a positive number", ErrValidation)
	}
	if len(strings.TrimSpace(in.Description)) < 10 {
		return nil, fmt.Errorf("%w: description must be at least 10 characters", ErrValidation)
	}

	prod := models.Product{
		SellerID:    sellerID,
		Name:        strings.TrimSpace(in.Name),
		Category:    in.Category,
		Price:       in.Price,
		Description: strings.TrimSpace(in.Description),
		Image:       in.Image,
		Status:      models.StatusAvailable,
	}
	if err := s.Repo.CreateProduct(ctx, &prod); err != nil {
		return nil, err
	}
	return &prod, nil
}

func (s *CatalogService) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	prod, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product not found", ErrNotFound)
		}
		return nil, err
	}
	return prod, nil
}

// List is side-effect-free and restartable: it is a plain query, re-running
// it with the same filter is always safe.
func (s *CatalogService) List(ctx context.Context, filter repo.ProductFilter, offset, limit int) (int64, []models.Product, error) {
	if filter.Category != "" && !validCategories[filter.Category] {
		return 0, nil, fmt.Errorf("%w: invalid category", ErrValidation)
	}
	return s.Repo.ListProducts(ctx, filter, offset, limit)
}

// Update applies a partial patch. Only the owning seller or an admin may
// mutate. Status writes through this path accept Available and Sold only;
// the purchase transition itself belongs to MarkSold.
func (s *CatalogService) Update(ctx context.Context, id, requesterID uint, role string, patch ProductPatch) (*models.Product, error) {
	prod, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if prod.SellerID != requesterID && role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: not the owner of this product", ErrForbidden)
	}

	if patch.Name != nil {
		if len(strings.TrimSpace(*patch.Name)) < 3 {
			return nil, fmt.Errorf("%w: product name must be at least 3 characters", ErrValidation)
		}
		prod.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Category != nil {
		if !validCategories[*patch.Category] {
			return nil, fmt.Errorf("%w: invalid category", ErrValidation)
		}
		prod.Category = *patch.Category
	}
	if patch.Price != nil {
		if *patch.Price <= 0 {
			return nil, fmt.Errorf("%w: price must be a positive number", ErrValidation)
		}
		prod.Price = *patch.Price
	}
	if patch.Description != nil {
		if len(strings.TrimSpace(*patch.Description)) < 10 {
			return nil, fmt.Errorf("%w: description must be at least 10 characters", ErrValidation)
		}
		prod.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Image != nil {
		prod.Image = *patch.Image
	}
	if patch.Status != nil {
		if *patch.Status != models.StatusAvailable && *patch.Status != models.StatusSold {
			return nil, fmt.Errorf("%w: status must be either Available or Sold", ErrValidation)
		}
		prod.Status = *patch.Status
	}

	if err := s.Repo.SaveProduct(ctx, prod); err != nil {
		return nil, err
	}
	return prod, nil
}

// MarkSold performs the atomic Available→Sold transition. Exactly one of any
// number of concurrent callers succeeds; the rest get ErrConflict.
func (s *CatalogService) MarkSold(ctx context.Context, id uint) (*models.Product, error) {
	prod, err := s.Repo.MarkSold(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product not found", ErrNotFound)
		}
		if errors.Is(err, repo.ErrNotAvailable) {
			return nil, fmt.Errorf("%w: product already sold or unavailable", ErrConflict)
		}
		return nil, err
	}
	return prod, nil
}

func (s *CatalogService) Delete(ctx context.Context, id, requesterID uint, role string) error {
	prod, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if prod.SellerID != requesterID && role != models.RoleAdmin {
		return fmt.Errorf("%w: not the owner of this product", ErrForbidden)
	}
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: product not found", ErrNotFound)
		}
		return err
	}
	return nil
}
