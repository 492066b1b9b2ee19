package folio

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/folio/resend"
)

var errNewsletterDisabled = echo.NewHTTPError(http.StatusServiceUnavailable, "newsletter is not configured")

type subscribeRequest struct {
	Email     string `json:"email" form:"email" validate:"required,email,max=254"`
	FirstName string `json:"first_name" form:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" form:"last_name" validate:"max=100"`
}

func (r subscribeRequest) contact() resend.Contact {
	return resend.Contact{
		Email:     strings.ToLower(strings.TrimSpace(r.Email)),
		FirstName: strings.TrimSpace(r.FirstName),
		LastName:  strings.TrimSpace(r.LastName),
	}
}

// subscribe validates req and adds it to the contact list. Each call counts
// against the caller's signup limit.
func (a *App) subscribe(c echo.Context, req *subscribeRequest) (resend.Contact, error) {
	if a.Contacts == nil {
		return resend.Contact{}, errNewsletterDisabled
	}
	if !a.newsletterLimiter.Allow(c.RealIP()) {
		return resend.Contact{}, echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
	}
	if err := bindValid(c, req); err != nil {
		return resend.Contact{}, err
	}
	return a.Contacts.AddContact(c.Request().Context(), req.contact())
}

func (a *App) apiSubscribe(c echo.Context) error {
	var req subscribeRequest
	contact, err := a.subscribe(c, &req)
	if err != nil {
		return a.fail(c, err, "contact")
	}
	return ok(c, http.StatusCreated, contact)
}

func (a *App) apiAddContact(c echo.Context) error {
	if a.Contacts == nil {
		return a.fail(c, errNewsletterDisabled, "contact")
	}
	var req subscribeRequest
	if err := bindValid(c, &req); err != nil {
		return a.fail(c, err, "contact")
	}
	contact, err := a.Contacts.AddContact(c.Request().Context(), req.contact())
	if err != nil {
		return a.fail(c, err, "contact")
	}
	return ok(c, http.StatusCreated, contact)
}

func (a *App) apiListContacts(c echo.Context) error {
	if a.Contacts == nil {
		return a.fail(c, errNewsletterDisabled, "contact")
	}
	contacts, err := a.Contacts.ListContacts(c.Request().Context())
	if err != nil {
		return a.fail(c, err, "contact")
	}
	return ok(c, http.StatusOK, contacts)
}

func (a *App) apiListSegments(c echo.Context) error {
	if a.Contacts == nil {
		return a.fail(c, errNewsletterDisabled, "segment")
	}
	segments, err := a.Contacts.ListSegments(c.Request().Context())
	if err != nil {
		return a.fail(c, err, "segment")
	}
	return ok(c, http.StatusOK, segments)
}

// --- page ---

func (a *App) newsletterMeta() PageMeta {
	return PageMeta{
		Title:       "Newsletter | " + a.Config.Name,
		Description: "Get new posts and projects by email.",
		URL:         BuildURL(a.Config.URL, "newsletter"),
		OGType:      "website",
	}
}

func (a *App) handleNewsletterPage(c echo.Context) error {
	return Render(c, a.Views.Newsletter(NewsletterState{CSRFToken: CsrfToken(c)}, a.newsletterMeta()))
}

func (a *App) handleNewsletterForm(c echo.Context) error {
	var req subscribeRequest
	_, err := a.subscribe(c, &req)
	state := NewsletterState{Email: req.Email, CSRFToken: CsrfToken(c)}
	if err != nil {
		code, msg := classify(err, "contact")
		if msg == msgInternal {
			a.Logger.Error("newsletter signup failed", zap.Error(err))
		}
		state.Error = newsletterMessage(code)
		return RenderStatus(c, code, a.Views.Newsletter(state, a.newsletterMeta()))
	}
	state.Subscribed = true
	return Render(c, a.Views.Newsletter(state, a.newsletterMeta()))
}

func newsletterMessage(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "Please check your email address and try again."
	case http.StatusTooManyRequests:
		return "Too many attempts. Please try again later."
	case http.StatusServiceUnavailable:
		return "The newsletter is not available right now."
	}
	return "Subscribing failed. Please try again later."
}
