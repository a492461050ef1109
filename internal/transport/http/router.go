package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/campuskart/campus_market/internal/handlers"
	"github.com/campuskart/campus_market/internal/middleware/auth"
	"github.com/campuskart/campus_market/internal/models"
)

type Deps struct {
	Guard          *auth.Guard
	AuthHandler    *handlers.AuthHandler
	ProfileHandler *handlers.ProfileHandler
	ProductHandler *handlers.ProductHandler
	CartHandler    *handlers.CartHandler
	SearchHandler  *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	authGroup := e.Group("/auth")
	authGroup.POST("/register", d.AuthHandler.Register)
	authGroup.POST("/login", d.AuthHandler.Login)
	// logout must stay revocation-idempotent, so it does its own extraction
	authGroup.POST("/logout", d.AuthHandler.Logout)

	profile := e.Group("/profile", d.Guard.RequireAuth)
	profile.GET("/me", d.ProfileHandler.Me)
	profile.PUT("/update", d.ProfileHandler.Update)
	profile.PUT("/update-password", d.ProfileHandler.UpdatePassword)
	profile.GET("/selling", d.ProfileHandler.Selling)

	products := e.Group("/products")
	products.GET("", d.ProductHandler.List)
	products.GET("/search", d.SearchHandler.Search)
	products.GET("/mine", d.ProductHandler.Mine, d.Guard.RequireAuth)
	products.GET("/:id", d.ProductHandler.GetByID)
	products.POST("", d.ProductHandler.Create,
		d.Guard.RequireAuth, d.Guard.RequireRoles(models.RoleFaculty, models.RoleAdmin))
	products.PUT("/:id", d.ProductHandler.Update, d.Guard.RequireAuth)
	products.DELETE("/:id", d.ProductHandler.Delete, d.Guard.RequireAuth)
	products.PUT("/:id/sell", d.ProductHandler.Sell, d.Guard.RequireAuth)

	cart := e.Group("/cart", d.Guard.RequireAuth)
	cart.GET("", d.CartHandler.Get)
	cart.POST("/add", d.CartHandler.Add)
	cart.PUT("/update/:productId", d.CartHandler.UpdateQuantity)
	cart.DELETE("/remove/:productId", d.CartHandler.Remove)
	cart.POST("/decrement/:productId", d.CartHandler.Decrement)
	cart.DELETE("/clear", d.CartHandler.Clear)
	cart.POST("/buy", d.CartHandler.Buy)
}
