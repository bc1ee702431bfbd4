package handler

import (
	"context"
	"net/http"

	"shopcart/internal/pricing"
	"shopcart/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type CartService interface {
	GetCart(ctx context.Context, userID int64) (pricing.PricedCart, error)
	AddItem(ctx context.Context, userID int64, in usecase.AddCartItemInput) (pricing.PricedCart, error)
	UpdateItem(ctx context.Context, userID int64, in usecase.UpdateCartItemInput) (pricing.PricedCart, error)
	RemoveItem(ctx context.Context, userID int64, productID int64) (pricing.PricedCart, error)
	ClearCart(ctx context.Context, userID int64) (pricing.PricedCart, error)
}

// /cartのHTTP
type CartHandler struct {
	uc  CartService
	log *zap.Logger
}

// DI
func NewCartHandler(uc CartService, log *zap.Logger) *CartHandler {
	return &CartHandler{uc: uc, log: log}
}

type AddCartItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity int64 `json:"quantity"`
}

// /cart, /cart/items/:productId を登録
func (h *CartHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc) {
	g := e.Group("/cart", auth)

	g.GET("", h.getCart)
	g.DELETE("", h.clearCart)
	g.POST("/items", h.addItem)
	g.PUT("/items/:productId", h.updateItem)
	g.DELETE("/items/:productId", h.removeItem)
}

func (h *CartHandler) getCart(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return writeError(c, h.log, err)
	}

	out, err := h.uc.GetCart(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return ok(c, http.StatusOK, "cart retrieved", out)
}

func (h *CartHandler) addItem(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return writeError(c, h.log, err)
	}

	var req AddCartItemRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, h.log, err)
	}

	out, err := h.uc.AddItem(c.Request().Context(), userID, usecase.AddCartItemInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return ok(c, http.StatusOK, "item added to cart", out)
}

// quantity=0 は削除
func (h *CartHandler) updateItem(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return writeError(c, h.log, err)
	}

	productID, err := pathID(c, "productId")
	if err != nil {
		return writeError(c, h.log, err)
	}

	var req UpdateCartItemRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, h.log, err)
	}

	out, err := h.uc.UpdateItem(c.Request().Context(), userID, usecase.UpdateCartItemInput{
		ProductID: productID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return ok(c, http.StatusOK, "cart item updated", out)
}

func (h *CartHandler) removeItem(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return writeError(c, h.log, err)
	}

	productID, err := pathID(c, "productId")
	if err != nil {
		return writeError(c, h.log, err)
	}

	out, err := h.uc.RemoveItem(c.Request().Context(), userID, productID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return ok(c, http.StatusOK, "item removed from cart", out)
}

func (h *CartHandler) clearCart(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return writeError(c, h.log, err)
	}

	out, err := h.uc.ClearCart(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return ok(c, http.StatusOK, "cart cleared", out)
}
