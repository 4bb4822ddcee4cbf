package server

import (
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// errorBody is the wire shape every failure takes.
type errorBody struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// errorHandler maps rich errors onto the status codes baked into them
// and everything else onto a generic 500. Fiber's own errors (404 on
// unknown routes and the like) keep their status.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "internal server error"

	var rich *goerrors.Error
	var fiberErr *fiber.Error

	switch {
	case goerrors.As(err, &rich):
		if rich.Code > 0 {
			status = rich.Code
		} else {
			status = statusFromCategory(rich.Category)
		}
		message = rich.Message
	case goerrors.As(err, &fiberErr):
		status = fiberErr.Code
		message = fiberErr.Message
	}

	if status >= fiber.StatusInternalServerError {
		s.logger.Error("request %s %s failed: %v", c.Method(), c.Path(), err)
	}

	return c.Status(status).JSON(errorBody{
		Success:    false,
		StatusCode: status,
		Message:    message,
	})
}

func statusFromCategory(cat goerrors.Category) int {
	switch cat {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput, goerrors.CategoryConflict:
		return fiber.StatusBadRequest
	case goerrors.CategoryAuth:
		return fiber.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return fiber.StatusForbidden
	case goerrors.CategoryNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}
