package repo_test

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/campuskart/campus_market/internal/models"
	"github.com/campuskart/campus_market/internal/repo"
)

var dbCounter int64

func newTestRepo(t *testing.T) *repo.GormRepo {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_test_%d?mode=memory&cache=shared", atomic.AddInt64(&dbCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Product{}, &models.CartItem{}))
	return repo.New(db)
}

func seedProduct(t *testing.T, r *repo.GormRepo, status string) uint {
	t.Helper()
	prod := models.Product{
		SellerID:    1,
		Name:        "Dorm Fridge",
		Category:    "Electronics",
		Price:       60,
		Description: "compact fridge, runs quietly",
		Status:      status,
	}
	require.NoError(t, r.CreateProduct(t.Context(), &prod))
	return prod.ID
}

func TestCreateUserDuplicateEmailTranslated(t *testing.T) {
	r := newTestRepo(t)

	user := func() models.User {
		return models.User{
			Name:         "Dup",
			Email:        "dup@x.com",
			PasswordHash: "hash",
			Phone:        "1234567890",
			Role:         models.RoleStudent,
			Department:   "CSE",
		}
	}

	first := user()
	require.NoError(t, r.CreateUser(t.Context(), &first))

	// an insert racing past an existence pre-check must surface as the
	// translated duplicate-key error, not a raw driver error
	second := user()
	err := r.CreateUser(t.Context(), &second)
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestMarkSoldTransitions(t *testing.T) {
	r := newTestRepo(t)
	id := seedProduct(t, r, models.StatusAvailable)

	prod, err := r.MarkSold(t.Context(), id)
	require.NoError(t, err)
	require.Equal(t, models.StatusSold, prod.Status)

	_, err = r.MarkSold(t.Context(), id)
	require.ErrorIs(t, err, repo.ErrNotAvailable)

	_, err = r.MarkSold(t.Context(), 9999)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestMarkSoldConcurrentExactlyOneWins(t *testing.T) {
	r := newTestRepo(t)
	id := seedProduct(t, r, models.StatusAvailable)

	const callers = 8
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = r.MarkSold(t.Context(), id)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			require.ErrorIs(t, err, repo.ErrNotAvailable)
		}
	}
	require.Equal(t, 1, wins)
}

func TestUpsertCartItemMerges(t *testing.T) {
	r := newTestRepo(t)
	id := seedProduct(t, r, models.StatusAvailable)

	require.NoError(t, r.UpsertCartItem(t.Context(), 1, id, 2))
	require.NoError(t, r.UpsertCartItem(t.Context(), 1, id, 3))

	items, err := r.GetCartItems(t.Context(), 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, uint(5), items[0].Quantity)

	// a different user's line is independent
	require.NoError(t, r.UpsertCartItem(t.Context(), 2, id, 1))
	items, err = r.GetCartItems(t.Context(), 2)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, uint(1), items[0].Quantity)
}

func TestUpsertCartItemConcurrentAdds(t *testing.T) {
	r := newTestRepo(t)
	id := seedProduct(t, r, models.StatusAvailable)

	const adds = 10
	var wg sync.WaitGroup
	for i := 0; i < adds; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, r.UpsertCartItem(t.Context(), 1, id, 1))
		}()
	}
	wg.Wait()

	items, err := r.GetCartItems(t.Context(), 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, uint(adds), items[0].Quantity)
}

func TestDecrementCartItem(t *testing.T) {
	r := newTestRepo(t)
	id := seedProduct(t, r, models.StatusAvailable)

	require.NoError(t, r.UpsertCartItem(t.Context(), 1, id, 2))

	require.NoError(t, r.DecrementCartItem(t.Context(), 1, id))
	items, err := r.GetCartItems(t.Context(), 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, uint(1), items[0].Quantity)

	// hitting zero deletes the line instead of violating the quantity check
	require.NoError(t, r.DecrementCartItem(t.Context(), 1, id))
	items, err = r.GetCartItems(t.Context(), 1)
	require.NoError(t, err)
	require.Empty(t, items)

	require.ErrorIs(t, r.DecrementCartItem(t.Context(), 1, id), gorm.ErrRecordNotFound)
}

func TestDeleteCartLines(t *testing.T) {
	r := newTestRepo(t)
	id1 := seedProduct(t, r, models.StatusAvailable)
	id2 := seedProduct(t, r, models.StatusAvailable)

	require.NoError(t, r.UpsertCartItem(t.Context(), 1, id1, 1))
	require.NoError(t, r.UpsertCartItem(t.Context(), 1, id2, 1))

	require.NoError(t, r.DeleteCartLines(t.Context(), 1, []uint{id1}))
	items, err := r.GetCartItems(t.Context(), 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, id2, items[0].ProductID)

	// empty id list is a no-op
	require.NoError(t, r.DeleteCartLines(t.Context(), 1, nil))
}

func TestListProductsFilter(t *testing.T) {
	r := newTestRepo(t)
	availableID := seedProduct(t, r, models.StatusAvailable)
	seedProduct(t, r, models.StatusSold)

	total, items, err := r.ListProducts(t.Context(), repo.ProductFilter{}, 0, 10)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, items, 2)

	total, items, err = r.ListProducts(t.Context(), repo.ProductFilter{AvailableOnly: true}, 0, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	require.Equal(t, availableID, items[0].ID)
}
