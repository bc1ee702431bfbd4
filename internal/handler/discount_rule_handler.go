package handler

import (
	"context"
	"net/http"
	"strconv"

	"shopcart/internal/domain/discount"
	"shopcart/internal/domain/model"
	"shopcart/internal/pricing"
	"shopcart/internal/repository"
	"shopcart/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type DiscountRuleService interface {
	Create(ctx context.Context, adminUserID int64, in usecase.DiscountRuleInput) (model.DiscountRule, error)
	Get(ctx context.Context, id int64) (model.DiscountRule, error)
	List(ctx context.Context, filter repository.DiscountRuleFilter) ([]model.DiscountRule, error)
	Update(ctx context.Context, adminUserID int64, id int64, in usecase.DiscountRuleInput) (model.DiscountRule, error)
	Remove(ctx context.Context, adminUserID int64, id int64) error
	History(ctx context.Context, id int64, limit, offset int) ([]model.AuditLog, error)
	Suggestions() []discount.Suggestion
	ListApplicable(ctx context.Context, in usecase.ApplicableInput) ([]pricing.ApplicableRule, error)
	Calculate(ctx context.Context, in usecase.CalculateInput) (pricing.PricedCart, error)
}

// /discount-rules（管理者のみ）
type DiscountRuleHandler struct {
	uc  DiscountRuleService
	log *zap.Logger
}

func NewDiscountRuleHandler(uc DiscountRuleService, log *zap.Logger) *DiscountRuleHandler {
	return &DiscountRuleHandler{uc: uc, log: log}
}

func (h *DiscountRuleHandler) RegisterRoutes(e *echo.Echo, auth, admin echo.MiddlewareFunc) {
	g := e.Group("/discount-rules", auth, admin)

	g.POST("", h.create)
	g.GET("", h.list)

	//utils は :id より先に登録
	g.GET("/utils/suggestions", h.suggestions)
	g.POST("/utils/applicable", h.applicable)
	g.POST("/utils/calculate", h.calculate)

	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.remove)
	g.GET("/:id/history", h.history)
}

func (h *DiscountRuleHandler) create(c echo.Context) error {
	adminID, err := currentUserID(c)
	if err != nil {
		return writeError(c, h.log, err)
	}

	var req usecase.DiscountRuleInput
	if err := bind(c, &req); err != nil {
		return writeError(c, h.log, err)
	}

	out, err := h.uc.Create(c.Request().Context(), adminID, req)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return ok(c, http.StatusCreated, "discount rule created", out)
}

// ?type=&active=&product_id=&category_id=
func (h *DiscountRuleHandler) list(c echo.Context) error {
	filter, err := listFilter(c)
	if err != nil {
		return writeError(c, h.log, err)
	}

	out, err := h.uc.List(c.Request().Context(), filter)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return ok(c, http.StatusOK, "discount rules retrieved", out)
}

func (h *DiscountRuleHandler) get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}

	out, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return ok(c, http.StatusOK, "discount rule retrieved", out)
}

func (h *DiscountRuleHandler) update(c echo.Context) error {
	adminID, err := currentUserID(c)
	if err != nil {
		return writeError(c, h.log, err)
	}

	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}

	var req usecase.DiscountRuleInput
	if err := bind(c, &req); err != nil {
		return writeError(c, h.log, err)
	}

	out, err := h.uc.Update(c.Request().Context(), adminID, id, req)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return ok(c, http.StatusOK, "discount rule updated", out)
}

func (h *DiscountRuleHandler) remove(c echo.Context) error {
	adminID, err := currentUserID(c)
	if err != nil {
		return writeError(c, h.log, err)
	}

	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}

	if err := h.uc.Remove(c.Request().Context(), adminID, id); err != nil {
		return writeError(c, h.log, err)
	}
	return ok(c, http.StatusOK, "discount rule deleted", nil)
}

func (h *DiscountRuleHandler) history(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}

	limit, err := queryInt(c, "limit", 50)
	if err != nil {
		return writeError(c, h.log, err)
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return writeError(c, h.log, err)
	}

	out, err := h.uc.History(c.Request().Context(), id, limit, offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return ok(c, http.StatusOK, "discount rule history retrieved", out)
}

func (h *DiscountRuleHandler) suggestions(c echo.Context) error {
	return ok(c, http.StatusOK, "discount rule suggestions", h.uc.Suggestions())
}

func (h *DiscountRuleHandler) applicable(c echo.Context) error {
	var req usecase.ApplicableInput
	if err := bind(c, &req); err != nil {
		return writeError(c, h.log, err)
	}

	out, err := h.uc.ListApplicable(c.Request().Context(), req)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return ok(c, http.StatusOK, "applicable discount rules", out)
}

func (h *DiscountRuleHandler) calculate(c echo.Context) error {
	var req usecase.CalculateInput
	if err := bind(c, &req); err != nil {
		return writeError(c, h.log, err)
	}

	out, err := h.uc.Calculate(c.Request().Context(), req)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return ok(c, http.StatusOK, "discount calculated", out)
}

func listFilter(c echo.Context) (repository.DiscountRuleFilter, error) {
	var f repository.DiscountRuleFilter

	if v := c.QueryParam("type"); v != "" {
		t := model.DiscountType(v)
		f.Type = &t
	}
	if v := c.QueryParam("active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, usecase.NewValidationError("invalid active")
		}
		f.Active = &b
	}
	if v := c.QueryParam("product_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return f, usecase.NewValidationError("invalid product_id")
		}
		f.ProductID = &id
	}
	if v := c.QueryParam("category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return f, usecase.NewValidationError("invalid category_id")
		}
		f.CategoryID = &id
	}
	return f, nil
}
