package folio

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/folio/resend"
	"github.com/eringen/folio/storage"
)

const msgInternal = "internal server error"

// envelope is the body of every /api/ response.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func ok(c echo.Context, code int, data any) error {
	return c.JSON(code, envelope{Success: true, Data: data})
}

// fail answers with the error envelope for err. entity names the record in
// not-found messages.
func (a *App) fail(c echo.Context, err error, entity string) error {
	code, msg := classify(err, entity)
	if msg == msgInternal {
		a.Logger.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Error(err))
	}
	return c.JSON(code, envelope{Error: msg})
}

func classify(err error, entity string) (int, string) {
	var (
		he  *echo.HTTPError
		se  *storage.APIError
		re  *resend.APIError
		pge *pgconn.PgError
	)
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, entity + " not found"
	case errors.As(err, &he):
		if he.Code == http.StatusInternalServerError {
			return he.Code, msgInternal
		}
		return he.Code, fmt.Sprint(he.Message)
	case errors.As(err, &se):
		return upstreamStatus(se.StatusCode), se.Message
	case errors.As(err, &re):
		return upstreamStatus(re.StatusCode), re.Message
	case errors.As(err, &pge) && pge.Code == "23505",
		strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return http.StatusBadRequest, entity + " already exists"
	}
	return http.StatusInternalServerError, msgInternal
}

// upstreamStatus maps a collaborator's HTTP status onto ours: its client
// errors are the caller's fault, anything else is ours.
func upstreamStatus(code int) int {
	if code >= 400 && code < 500 {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (a *App) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !IsAdmin(c) {
			return c.JSON(http.StatusUnauthorized, envelope{Error: "unauthorized"})
		}
		return next(c)
	}
}

// bindValid binds the request body into req and runs its validate tags.
func bindValid(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	return c.Validate(req)
}

type requestValidator struct {
	validate *validator.Validate
}

func newRequestValidator() *requestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &requestValidator{validate: v}
}

// Validate implements echo.Validator. Failures become 400 errors naming the
// offending JSON fields.
func (r *requestValidator) Validate(i any) error {
	err := r.validate.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return echo.NewHTTPError(http.StatusBadRequest, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "url":
		return field + " must be a valid URL"
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at most %s items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	}
	return field + " is invalid"
}
