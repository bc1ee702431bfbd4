package handler

import (
	"errors"
	"net/http"
	"strconv"

	"shopcart/internal/middleware"
	"shopcart/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Response は全APIで共通のレスポンス。
type Response struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
}

func ok(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, Response{Message: message, Data: data})
}

// writeError は usecase のエラーをステータスとレスポンスに変換する。
// Transaction/Storage の原因はログにだけ出す。
func writeError(c echo.Context, log *zap.Logger, err error) error {
	if err == nil {
		return nil
	}

	ae, isApp := usecase.AsAppError(err)
	if !isApp {
		ae = usecase.NewStorageError(err).(*usecase.AppError)
	}

	status := ae.Kind.Status()
	if ae.Kind.Internal() {
		log.Error("request failed",
			zap.String("kind", string(ae.Kind)),
			zap.String("path", c.Request().URL.Path),
			zap.Error(ae.Err),
		)
		return c.JSON(status, Response{Message: ae.Message, Error: http.StatusText(status)})
	}

	return c.JSON(status, Response{Message: ae.Message, Error: ae.Message, Errors: ae.Details})
}

// bind はリクエストボディを読む。壊れたJSONは400。
func bind(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code == http.StatusUnsupportedMediaType {
			return usecase.NewValidationError("unsupported content type")
		}
		return usecase.NewValidationError("invalid body")
	}
	return nil
}

// pathID は正の整数のパスパラメータ。
func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, usecase.NewValidationError("invalid " + name)
	}
	return id, nil
}

// middleware.AuthJWT が c.Set(user_id) した値を取り出す
func currentUserID(c echo.Context) (int64, error) {
	id, ok := c.Get(middleware.CtxUserIDKey).(int64)
	if !ok || id <= 0 {
		return 0, usecase.NewUnauthorizedError()
	}
	return id, nil
}
