package server

import (
	"net/http"

	"shopcart/internal/config"
	"shopcart/internal/handler"
	"shopcart/internal/middleware"

	"github.com/labstack/echo/v4"
)

// Handlers はルーティングに載せるハンドラ一式。
type Handlers struct {
	Health        *handler.HealthHandler
	Cart          *handler.CartHandler
	Checkout      *handler.CheckoutHandler
	Orders        *handler.OrderHandler
	DiscountRules *handler.DiscountRuleHandler
	Metrics       http.Handler
}

func RegisterRoutes(e *echo.Echo, cfg config.Config, h Handlers) {
	auth := middleware.AuthJWT(cfg)
	admin := middleware.AdminRoleGuard()

	h.Health.RegisterRoutes(e)
	if h.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(h.Metrics))
	}

	h.Cart.RegisterRoutes(e, auth)
	h.Checkout.RegisterRoutes(e, auth)
	h.Orders.RegisterRoutes(e, auth)
	h.DiscountRules.RegisterRoutes(e, auth, admin)
}
