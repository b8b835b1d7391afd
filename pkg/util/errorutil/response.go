package errorutil

import "github.com/gofiber/fiber/v2"

// Failure is the body of every failed response.
type Failure struct {
	Success bool           `json:"success"`
	Error   string         `json:"error"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Write renders err as a Failure with the mapped status.
func Write(c *fiber.Ctx, err error) error {
	domainErr := ToDomainError(err)
	return c.Status(domainErr.HTTPStatus).JSON(Failure{
		Success: false,
		Error:   domainErr.Message,
		Code:    domainErr.Code,
		Details: domainErr.Details,
	})
}

// Handler is a fiber.ErrorHandler that renders failures the same way as the
// error handling middleware.
func Handler(c *fiber.Ctx, err error) error {
	return Write(c, err)
}
