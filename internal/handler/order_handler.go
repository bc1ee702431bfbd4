package handler

import (
	"context"
	"net/http"
	"strconv"

	"shopcart/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type OrderService interface {
	ListOrders(ctx context.Context, userID int64, page, limit int) (usecase.OrderListOutput, error)
	GetOrder(ctx context.Context, userID int64, orderID int64) (usecase.OrderOutput, error)
}

type OrderHandler struct {
	uc  OrderService
	log *zap.Logger
}

func NewOrderHandler(uc OrderService, log *zap.Logger) *OrderHandler {
	return &OrderHandler{uc: uc, log: log}
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc) {
	g := e.Group("/orders", auth)

	g.GET("", h.list)
	g.GET("/:id", h.detail)
}

func (h *OrderHandler) list(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return writeError(c, h.log, err)
	}

	// page（default 1）
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return writeError(c, h.log, err)
	}
	// limit（default 20）
	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		return writeError(c, h.log, err)
	}

	out, err := h.uc.ListOrders(c.Request().Context(), userID, page, limit)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return ok(c, http.StatusOK, "orders retrieved", out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return writeError(c, h.log, err)
	}

	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}

	out, err := h.uc.GetOrder(c.Request().Context(), userID, id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return ok(c, http.StatusOK, "order retrieved", out)
}

func queryInt(c echo.Context, name string, def int) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, usecase.NewValidationError("invalid " + name)
	}
	return n, nil
}
