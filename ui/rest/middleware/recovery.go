package middleware

import (
	"errors"
	"fmt"

	pkgError "github.com/AzielCF/az-apod/pkg/error"
	"github.com/AzielCF/az-apod/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Recovery turns panics raised by handlers into a JSON error envelope.
// GenericError panics keep their own status and code.
func Recovery() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}

			res := utils.ResponseData{
				Status:  fiber.StatusInternalServerError,
				Code:    "INTERNAL_SERVER_ERROR",
				Message: fmt.Sprintf("%v", recovered),
			}

			var generic pkgError.GenericError
			if err, ok := recovered.(error); ok && errors.As(err, &generic) {
				res.Status = generic.StatusCode()
				res.Code = generic.ErrCode()
				res.Message = err.Error()
				logrus.Warnf("[REST] %s %s: %s", ctx.Method(), ctx.OriginalURL(), res.Message)
			} else {
				logrus.Errorf("Panic recovered in middleware: %v", recovered)
			}

			_ = ctx.Status(res.Status).JSON(res)
		}()

		return ctx.Next()
	}
}
