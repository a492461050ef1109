package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/campuskart/campus_market/internal/models"
	"github.com/campuskart/campus_market/internal/repo"
)

type CartService struct {
	Repo *repo.GormRepo
}

// CartLine is the read projection of one cart entry, joined with the
// product for display.
type CartLine struct {
	Product  models.Product `json:"product"`
	Quantity uint           `json:"quantity"`
}

// AddItem merges quantity into an existing line or appends a new one.
func (s *CartService) AddItem(ctx context.Context, userID, productID, quantity uint) ([]CartLine, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
	}

	if _, err := s.Repo.GetProduct(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product not found", ErrNotFound)
		}
		return nil, err
	}

	if err := s.Repo.UpsertCartItem(ctx, userID, productID, quantity); err != nil {
		return nil, err
	}
	return s.List(ctx, userID)
}

// SetQuantity sets the line's quantity to an absolute value.
func (s *CartService) SetQuantity(ctx context.Context, userID, productID, quantity uint) ([]CartLine, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
	}
	if err := s.Repo.SetCartQuantity(ctx, userID, productID, quantity); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product not in cart", ErrNotFound)
		}
		return nil, err
	}
	return s.List(ctx, userID)
}

// RemoveItem deletes the whole line regardless of quantity.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID uint) ([]CartLine, error) {
	if err := s.Repo.DeleteCartItem(ctx, userID, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product not in cart", ErrNotFound)
		}
		return nil, err
	}
	return s.List(ctx, userID)
}

// DecrementItem lowers the line by one and removes it at zero.
func (s *CartService) DecrementItem(ctx context.Context, userID, productID uint) ([]CartLine, error) {
	if err := s.Repo.DecrementCartItem(ctx, userID, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product not in cart", ErrNotFound)
		}
		return nil, err
	}
	return s.List(ctx, userID)
}

// Clear empties the cart. Clearing an empty cart is a no-op.
func (s *CartService) Clear(ctx context.Context, userID uint) error {
	return s.Repo.ClearCart(ctx, userID)
}

func (s *CartService) List(ctx context.Context, userID uint) ([]CartLine, error) {
	items, err := s.Repo.GetCartItems(ctx, userID)
	if err != nil {
		return nil, err
	}

	lines := make([]CartLine, 0, len(items))
	for _, item := range items {
		prod, err := s.Repo.GetProduct(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// product deleted since it was added; skip the orphan line
				continue
			}
			return nil, err
		}
		lines = append(lines, CartLine{Product: *prod, Quantity: item.Quantity})
	}
	return lines, nil
}
