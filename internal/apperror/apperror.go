package apperror

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/gofiber/fiber/v2"
)

type Kind string

const (
	Internal            Kind = "Internal"
	Unauthenticated     Kind = "Unauthenticated"
	Unresolvable        Kind = "Unresolvable"
	Forbidden           Kind = "Forbidden"
	NotFound            Kind = "NotFound"
	InvalidInput        Kind = "InvalidInput"
	InvalidQuantity     Kind = "InvalidQuantity"
	ProductUnavailable  Kind = "ProductUnavailable"
	OutOfStock          Kind = "OutOfStock"
	InsufficientStock   Kind = "InsufficientStock"
	EmptyCart           Kind = "EmptyCart"
	InvalidTransition   Kind = "InvalidTransition"
	OrderCreationFailed Kind = "OrderCreationFailed"
)

// Error is the failure value returned by every service operation.
// Field carries the product id or request field the failure is about, if any.
type Error struct {
	Kind    Kind
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithField returns a copy of e pointing at field.
func (e *Error) WithField(field string) *Error {
	cp := *e
	cp.Field = field
	return &cp
}

// KindOf returns Internal for errors that are not *Error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Internal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

var statusByKind = map[Kind]int{
	Unauthenticated:     fiber.StatusUnauthorized,
	Unresolvable:        fiber.StatusUnauthorized,
	Forbidden:           fiber.StatusForbidden,
	NotFound:            fiber.StatusNotFound,
	InvalidInput:        fiber.StatusBadRequest,
	InvalidQuantity:     fiber.StatusBadRequest,
	ProductUnavailable:  fiber.StatusConflict,
	OutOfStock:          fiber.StatusConflict,
	InsufficientStock:   fiber.StatusConflict,
	EmptyCart:           fiber.StatusBadRequest,
	InvalidTransition:   fiber.StatusConflict,
	OrderCreationFailed: fiber.StatusInternalServerError,
	Internal:            fiber.StatusInternalServerError,
}

func StatusCode(kind Kind) int {
	if s, ok := statusByKind[kind]; ok {
		return s
	}
	return fiber.StatusInternalServerError
}

var sensitive = regexp.MustCompile(`(?i)password|secret|key|token|api[_-]?key|bearer|authorization`)

const genericMessage = "an error occurred while processing the request"

// SafeMessage returns a message that can be shown to a client.
// Internal failures and messages mentioning credentials collapse to a generic text.
func SafeMessage(err error) string {
	var ae *Error
	if !errors.As(err, &ae) || ae.Kind == Internal {
		return genericMessage
	}
	if sensitive.MatchString(ae.Message) {
		return genericMessage
	}
	return ae.Message
}

// Respond writes the failure envelope for err.
func Respond(c *fiber.Ctx, err error) error {
	kind := KindOf(err)
	body := fiber.Map{
		"success": false,
		"kind":    kind,
		"message": SafeMessage(err),
	}
	var ae *Error
	if errors.As(err, &ae) && ae.Field != "" {
		body["field"] = ae.Field
	}
	return c.Status(StatusCode(kind)).JSON(body)
}

// OK writes the success envelope.
func OK(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{"success": true, "data": data})
}
