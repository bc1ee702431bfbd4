package handler

import (
	"context"
	"net/http"

	"shopcart/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type CheckoutService interface {
	Checkout(ctx context.Context, userID int64) (usecase.OrderOutput, error)
}

type CheckoutHandler struct {
	uc  CheckoutService
	log *zap.Logger
}

func NewCheckoutHandler(uc CheckoutService, log *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{uc: uc, log: log}
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc) {
	e.POST("/checkout", h.checkout, auth)
}

func (h *CheckoutHandler) checkout(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return writeError(c, h.log, err)
	}

	out, err := h.uc.Checkout(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return ok(c, http.StatusCreated, "order placed", out)
}
