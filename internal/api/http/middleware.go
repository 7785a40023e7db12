package http

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/securebank/bank-portal/internal/api/http/views"
	"github.com/securebank/bank-portal/internal/auth"
	"github.com/securebank/bank-portal/internal/gateway"
	"github.com/securebank/bank-portal/internal/observability"
	"github.com/securebank/bank-portal/internal/pages"
	apperrors "github.com/securebank/bank-portal/pkg/util"
)

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
// The request logger is outermost so it sees the status written by the
// error middleware.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration, renderer *views.Renderer) {
	app.Use(observability.RequestLogger(logger, metrics))
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics, renderer))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics, renderer *views.Renderer) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := toDomainError(err)
				if metrics != nil {
					metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
				}
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed", zap.Error(domainErr), zap.String("request_id", observability.RequestID(c)))
				}
				err = writeError(c, domainErr, renderer)
			}
		}()
		return c.Next()
	}
}

func toDomainError(err error) *apperrors.DomainError {
	var apiErr *gateway.APIError
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &apiErr):
		if apiErr.Status == fiber.StatusNotFound {
			return apperrors.ToDomainError(apperrors.NewNotFound("resource", nil))
		}
		return apperrors.ToDomainError(apperrors.NewUpstreamError(apiErr.Message, err))
	case errors.As(err, &fiberErr):
		return apperrors.NewDomainError("HTTP_ERROR", fiberErr.Message, fiberErr.Code, nil)
	}
	return apperrors.ToDomainError(err)
}

// writeError answers JSON clients with the error envelope and browsers
// with the error view.
func writeError(c *fiber.Ctx, domainErr *apperrors.DomainError, renderer *views.Renderer) error {
	if renderer == nil || c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) != fiber.MIMETextHTML {
		response := fiber.Map{"error": fiber.Map{
			"code":    domainErr.Code,
			"message": domainErr.Message,
		}}
		if len(domainErr.Details) > 0 {
			response["error"].(fiber.Map)["details"] = domainErr.Details
		}
		return c.Status(domainErr.HTTPStatus).JSON(response)
	}

	data := views.Data{
		Page: pages.Page{
			Name:   "error",
			Title:  "Something went wrong",
			Blocks: []pages.Block{{Links: []pages.Link{{Label: "Home", Href: "/"}}}},
		},
		Error: domainErr.Message,
	}
	if s, ok := auth.SessionFromContext(c); ok {
		data.Session = s.Snapshot()
	}
	return renderer.Render(c, domainErr.HTTPStatus, data)
}
