package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/campuskart/campus_market/internal/models"
	"github.com/campuskart/campus_market/internal/repo"
)

type PurchaseCoordinator struct {
	Repo *repo.GormRepo
}

type FailedLine struct {
	ProductID uint   `json:"product_id"`
	Reason    string `json:"reason"`
}

type PurchaseResult struct {
	Purchased []models.Product `json:"purchased"`
	Failed    []FailedLine     `json:"failed"`
}

// BuyCart settles the cart best-effort per line. Each line's correctness
// only needs its own atomic Available→Sold transition, so there is no
// cross-product lock: lines that lose the race are reported as failed,
// successful lines are sold and leave the cart, and one line's failure
// never rolls another back.
func (p *PurchaseCoordinator) BuyCart(ctx context.Context, userID uint) (*PurchaseResult, error) {
	items, err := p.Repo.GetCartItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: nothing to purchase", ErrValidation)
	}

	result := &PurchaseResult{
		Purchased: make([]models.Product, 0, len(items)),
		Failed:    make([]FailedLine, 0),
	}
	purchasedIDs := make([]uint, 0, len(items))

	for _, item := range items {
		prod, err := p.Repo.MarkSold(ctx, item.ProductID)
		switch {
		case err == nil:
			result.Purchased = append(result.Purchased, *prod)
			purchasedIDs = append(purchasedIDs, item.ProductID)
		case errors.Is(err, repo.ErrNotAvailable):
			result.Failed = append(result.Failed, FailedLine{
				ProductID: item.ProductID,
				Reason:    "already sold or unavailable",
			})
		case isNotFound(err):
			result.Failed = append(result.Failed, FailedLine{
				ProductID: item.ProductID,
				Reason:    "product no longer exists",
			})
		default:
			return nil, err
		}
	}

	// Sold lines must not linger in the cart even when other lines failed.
	if err := p.Repo.DeleteCartLines(ctx, userID, purchasedIDs); err != nil {
		return nil, err
	}

	return result, nil
}
