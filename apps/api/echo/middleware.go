package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/padhaidunia/padhaidunia/core"
)

// rolesMiddleware lets through viewers holding any of roles.
func rolesMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			viewer, err := getViewer(ctx)
			if err != nil {
				return err
			}
			if core.StringsContain(roles, viewer.Role) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// selfOrRolesMiddleware lets through viewers acting on their own `:id` or holding any of roles.
func selfOrRolesMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			viewer, err := getViewer(ctx)
			if err != nil {
				return err
			}
			if viewer.ID == ctx.Param("id") || core.StringsContain(roles, viewer.Role) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// rateLimitMiddleware rejects viewers exceeding limiter. A nil limiter lets everything through;
// limiter failures are logged and let through.
func rateLimitMiddleware(limiter RateLimiter, logger core.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if limiter == nil {
			return next
		}
		return func(ctx echo.Context) error {
			viewer, err := getViewer(ctx)
			if err != nil {
				return err
			}
			ok, err := limiter.Allow(ctx.Request().Context(), viewer.ID)
			if err != nil {
				logger.Warn("rate limiter unavailable", errors.Wrap(err, "checking rate limit"), viewer)
				return next(ctx)
			}
			if !ok {
				return errRateLimited
			}
			return next(ctx)
		}
	}
}
