package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/campuskart/campus_market/internal/events"
	"github.com/campuskart/campus_market/internal/handlers"
	"github.com/campuskart/campus_market/internal/hash"
	"github.com/campuskart/campus_market/internal/middleware/auth"
	"github.com/campuskart/campus_market/internal/models"
	"github.com/campuskart/campus_market/internal/repo"
	"github.com/campuskart/campus_market/internal/revocation"
	"github.com/campuskart/campus_market/internal/search"
	"github.com/campuskart/campus_market/internal/service"
	"github.com/campuskart/campus_market/internal/token"
	httpserver "github.com/campuskart/campus_market/internal/transport/http"
)

var dbCounter int64

type testEnv struct {
	T      *testing.T
	E      *echo.Echo
	DB     *gorm.DB
	Tokens *token.Service
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_test_%d?mode=memory&cache=shared", atomic.AddInt64(&dbCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps the shared in-memory db alive and serializes writes
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Product{}, &models.CartItem{}))
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvIndexed(t, nil)
}

// newTestEnvIndexed wires the stack with an optional search indexer, for
// tests that assert on index writes.
func newTestEnvIndexed(t *testing.T, indexer *search.Indexer) *testEnv {
	t.Helper()

	db := newTestDB(t)
	repository := repo.New(db)
	tokens := token.NewService([]byte("test_secret"), time.Hour, revocation.NewMemoryStore())

	authSvc := &service.AuthService{Repo: repository, Tokens: tokens}
	catalogSvc := &service.CatalogService{Repo: repository}
	cartSvc := &service.CartService{Repo: repository}
	purchase := &service.PurchaseCoordinator{Repo: repository}
	guard := &auth.Guard{Tokens: tokens}

	e := echo.New()
	httpserver.Register(e, &httpserver.Deps{
		Guard:          guard,
		AuthHandler:    &handlers.AuthHandler{Svc: authSvc, Producer: events.NopPublisher{}},
		ProfileHandler: &handlers.ProfileHandler{Svc: authSvc},
		ProductHandler: &handlers.ProductHandler{Svc: catalogSvc, Producer: events.NopPublisher{}, Indexer: indexer},
		CartHandler:    &handlers.CartHandler{Cart: cartSvc, Purchase: purchase, Producer: events.NopPublisher{}, Indexer: indexer},
		SearchHandler:  &handlers.SearchHandler{Indexer: indexer},
	})

	return &testEnv{T: t, E: e, DB: db, Tokens: tokens}
}

func (env *testEnv) doJSON(method, path string, body interface{}, bearer string) *httptest.ResponseRecorder {
	env.T.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func registerPayload(email, role string) map[string]string {
	p := map[string]string{
		"name":       "Test User",
		"email":      email,
		"password":   "password123",
		"phone":      "1234567890",
		"role":       role,
		"department": "CSE",
	}
	if role == models.RoleStudent {
		p["year"] = "1st Year"
	}
	return p
}

// register creates an account through the API and returns its token and id.
func (env *testEnv) register(email, role string) (string, uint) {
	env.T.Helper()

	rec := env.doJSON(http.MethodPost, "/auth/register", registerPayload(email, role), "")
	require.Equal(env.T, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	require.NoError(env.T, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(env.T, resp.Token)
	return resp.Token, resp.User.ID
}

// loginAdmin seeds an admin straight into the database (admin accounts are
// not self-service) and logs it in.
func (env *testEnv) loginAdmin(email string) (string, uint) {
	env.T.Helper()

	pwHash, err := hash.HashPassword("admin_password")
	require.NoError(env.T, err)
	admin := models.User{
		Name:         "Admin",
		Email:        email,
		PasswordHash: pwHash,
		Phone:        "0000000000",
		Role:         models.RoleAdmin,
		Department:   "Administration",
	}
	require.NoError(env.T, env.DB.Create(&admin).Error)

	rec := env.doJSON(http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": "admin_password",
	}, "")
	require.Equal(env.T, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(env.T, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Token, admin.ID
}

func (env *testEnv) createProduct(bearer string, name string) uint {
	env.T.Helper()

	rec := env.doJSON(http.MethodPost, "/products", map[string]interface{}{
		"name":        name,
		"category":    "Books",
		"price":       100.0,
		"description": "a perfectly usable test item",
	}, bearer)
	require.Equal(env.T, http.StatusCreated, rec.Code, rec.Body.String())

	var prod models.Product
	require.NoError(env.T, json.Unmarshal(rec.Body.Bytes(), &prod))
	return prod.ID
}
