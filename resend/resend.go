// Package resend adapts the Resend SDK to the contact operations the
// newsletter needs.
package resend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	sdk "github.com/resend/resend-go/v3"
)

// Contact is a newsletter subscriber.
type Contact struct {
	ID           string `json:"id,omitempty"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	Unsubscribed bool   `json:"unsubscribed"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// Segment groups contacts for broadcasts.
type Segment struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at,omitempty"`
}

// APIError is returned when Resend answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("resend: %s (status %d)", e.Message, e.StatusCode)
}

const contactsPage = 100

// Client wraps the Resend SDK. When AudienceID is set, contacts are scoped to
// that audience.
type Client struct {
	AudienceID string
	api        *sdk.Client
}

// New returns a Client authenticated with apiKey.
func New(apiKey, audienceID string) *Client {
	httpClient := &http.Client{
		Timeout:   15 * time.Second,
		Transport: statusTransport{base: http.DefaultTransport},
	}
	return &Client{
		AudienceID: audienceID,
		api:        sdk.NewCustomClient(httpClient, strings.TrimSpace(apiKey)),
	}
}

// SetBaseURL points the client at another API host.
func (c *Client) SetBaseURL(raw string) error {
	u, err := url.Parse(strings.TrimSuffix(raw, "/") + "/")
	if err != nil {
		return fmt.Errorf("resend: base url: %w", err)
	}
	c.api.BaseURL = u
	return nil
}

type statusKey struct{}

// statusTransport stores the response status in the *int carried by the
// request context. SDK errors keep only the message.
type statusTransport struct {
	base http.RoundTripper
}

func (t statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err == nil {
		if p, ok := req.Context().Value(statusKey{}).(*int); ok {
			*p = resp.StatusCode
		}
	}
	return resp, err
}

// call runs fn with a context that records the HTTP status and converts a
// failure into *APIError when Resend answered.
func (c *Client) call(ctx context.Context, fn func(context.Context) error) error {
	status := new(int)
	err := fn(context.WithValue(ctx, statusKey{}, status))
	if err == nil {
		return nil
	}
	var rl *sdk.RateLimitError
	if errors.As(err, &rl) {
		return &APIError{StatusCode: http.StatusTooManyRequests, Message: rl.Message}
	}
	if *status >= http.StatusMultipleChoices {
		return &APIError{StatusCode: *status, Message: strings.TrimPrefix(err.Error(), "[ERROR]: ")}
	}
	return fmt.Errorf("resend: %w", err)
}

// AddContact creates a contact and returns it with the id Resend assigned.
func (c *Client) AddContact(ctx context.Context, contact Contact) (Contact, error) {
	req := &sdk.CreateContactRequest{
		Email:        contact.Email,
		AudienceId:   c.AudienceID,
		FirstName:    contact.FirstName,
		LastName:     contact.LastName,
		Unsubscribed: contact.Unsubscribed,
	}
	var resp sdk.CreateContactResponse
	err := c.call(ctx, func(ctx context.Context) (err error) {
		resp, err = c.api.Contacts.CreateWithContext(ctx, req)
		return err
	})
	if err != nil {
		return Contact{}, err
	}
	contact.ID = resp.Id
	contact.CreatedAt = ""
	return contact, nil
}

// ListContacts returns every contact, following Resend's cursor pages.
func (c *Client) ListContacts(ctx context.Context) ([]Contact, error) {
	limit := contactsPage
	opts := &sdk.ListContactsOptions{AudienceId: c.AudienceID, Limit: &limit}
	out := []Contact{}
	for {
		var page sdk.ListContactsResponse
		err := c.call(ctx, func(ctx context.Context) (err error) {
			page, err = c.api.Contacts.ListWithContext(ctx, opts)
			return err
		})
		if err != nil {
			return nil, err
		}
		for _, ct := range page.Data {
			out = append(out, Contact{
				ID:           ct.Id,
				Email:        ct.Email,
				FirstName:    ct.FirstName,
				LastName:     ct.LastName,
				Unsubscribed: ct.Unsubscribed,
				CreatedAt:    ct.CreatedAt,
			})
		}
		if !page.HasMore || len(page.Data) == 0 {
			return out, nil
		}
		after := page.Data[len(page.Data)-1].Id
		opts.After = &after
	}
}

// ListSegments returns every segment.
func (c *Client) ListSegments(ctx context.Context) ([]Segment, error) {
	var resp sdk.ListSegmentsResponse
	err := c.call(ctx, func(ctx context.Context) (err error) {
		resp, err = c.api.Segments.ListWithContext(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]Segment, 0, len(resp.Data))
	for _, s := range resp.Data {
		out = append(out, Segment{ID: s.Id, Name: s.Name, CreatedAt: s.CreatedAt})
	}
	return out, nil
}
