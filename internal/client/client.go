// Package client is a typed REST client for the Record Store API.
//
// Every failure is returned as an *Error. A 200 response whose body lacks the
// fields the call expects is reported as KindMalformed, the same as any other
// failure, so callers never have to inspect partial bodies.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/norar1/fireportal/internal/analytics"
	"github.com/norar1/fireportal/internal/config"
	"github.com/norar1/fireportal/internal/logger"
	"github.com/norar1/fireportal/internal/models"
)

const (
	defaultTimeout = 15 * time.Second
	userAgent      = "fireportal-admin/1.0"

	// maxBodyBytes bounds how much of a response body is read.
	maxBodyBytes = 32 << 20
)

// Kind classifies a client failure.
type Kind int

const (
	// KindTransport means the request never produced a response.
	KindTransport Kind = iota + 1
	// KindStatus means the server answered with a non-2xx status.
	KindStatus
	// KindMalformed means a 2xx body could not be decoded or lacked required fields.
	KindMalformed
	// KindRejected means the server answered success=false.
	KindRejected
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindMalformed:
		return "malformed"
	case KindRejected:
		return "rejected"
	}
	return "unknown"
}

// Error is returned by every Client method.
type Error struct {
	Err        error
	Op         string
	Message    string
	Kind       Kind
	StatusCode int
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s failure", e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a client *Error of kind k.
func IsKind(err error, k Kind) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == k
}

// Client talks to the Record Store over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// New creates a client for the configured API with the configured timeout.
func New(cfg config.PortalConfig, log *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return NewWithHTTPClient(cfg.APIURL, &http.Client{Timeout: timeout}, log)
}

// NewWithHTTPClient creates a client that sends requests through hc.
func NewWithHTTPClient(baseURL string, hc *http.Client, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	for len(baseURL) > 0 && baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL[:len(baseURL)-1]
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: hc,
		log:        log,
	}
}

// envelope is the part of every response body the client checks first.
type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// StatusResult is the outcome of a status change.
type StatusResult struct {
	Permit    *models.Permit
	Message   string
	EmailSent bool
}

// ListPermits fetches every permit of type t.
func (c *Client) ListPermits(ctx context.Context, t models.PermitType) ([]models.Permit, error) {
	return c.permits(ctx, "list "+string(t)+" permits", "/api/"+string(t)+"/GetPermit")
}

// SearchPermits runs a server-side substring search.
func (c *Client) SearchPermits(ctx context.Context, t models.PermitType, query string) ([]models.Permit, error) {
	path := "/api/" + string(t) + "/search?" + url.Values{"query": {query}}.Encode()
	return c.permits(ctx, "search "+string(t)+" permits", path)
}

func (c *Client) permits(ctx context.Context, op, path string) ([]models.Permit, error) {
	var body struct {
		Permits *[]models.Permit `json:"permits"`
	}
	if err := c.do(ctx, op, http.MethodGet, path, nil, &body); err != nil {
		return nil, err
	}
	if body.Permits == nil {
		return nil, &Error{Op: op, Kind: KindMalformed, Message: "response has no permits"}
	}
	if *body.Permits == nil {
		return []models.Permit{}, nil
	}
	return *body.Permits, nil
}

// CreatePermit submits a new application and returns the stored permit.
func (c *Client) CreatePermit(ctx context.Context, p *models.Permit) (*models.Permit, error) {
	op := "create " + string(p.Type) + " permit"
	payload, err := permitPayload(p)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindMalformed, Err: err}
	}

	var body struct {
		Permit *models.Permit `json:"permit"`
	}
	if err := c.do(ctx, op, http.MethodPost, "/api/"+string(p.Type)+"/CreatePermit", payload, &body); err != nil {
		return nil, err
	}
	if body.Permit == nil {
		return nil, &Error{Op: op, Kind: KindMalformed, Message: "response has no permit"}
	}
	return body.Permit, nil
}

// UpdatePermit replaces the descriptive fields of p.
func (c *Client) UpdatePermit(ctx context.Context, p *models.Permit) error {
	op := "update " + string(p.Type) + " permit"
	payload, err := permitPayload(p)
	if err != nil {
		return &Error{Op: op, Kind: KindMalformed, Err: err}
	}
	return c.do(ctx, op, http.MethodPut, "/api/"+string(p.Type)+"/UpdatePermit/"+p.ID.String(), payload, nil)
}

// UpdateStatus records a review decision. The server emails the applicant
// for approved and rejected.
func (c *Client) UpdateStatus(ctx context.Context, t models.PermitType, id uuid.UUID, status models.Status) (*StatusResult, error) {
	op := "update " + string(t) + " permit status"
	var body struct {
		Permit    *models.Permit `json:"permit"`
		Message   string         `json:"message"`
		EmailSent bool           `json:"email_sent"`
	}
	payload := map[string]models.Status{"status": status}
	if err := c.do(ctx, op, http.MethodPut, "/api/"+string(t)+"/UpdateStatus/"+id.String(), payload, &body); err != nil {
		return nil, err
	}
	return &StatusResult{Permit: body.Permit, Message: body.Message, EmailSent: body.EmailSent}, nil
}

// UpdatePayment sets the payment state. paidOn is sent as null when nil.
func (c *Client) UpdatePayment(ctx context.Context, t models.PermitType, id uuid.UUID, status models.PaymentStatus, paidOn *models.Date) error {
	op := "update " + string(t) + " payment status"
	payload := struct {
		LastPaymentDate *models.Date         `json:"last_payment_date"`
		PaymentStatus   models.PaymentStatus `json:"payment_status"`
	}{paidOn, status}
	return c.do(ctx, op, http.MethodPut, "/api/"+string(t)+"/UpdatePaymentStatus/"+id.String(), payload, nil)
}

// DeletePermit removes a permit.
func (c *Client) DeletePermit(ctx context.Context, t models.PermitType, id uuid.UUID) error {
	return c.do(ctx, "delete "+string(t)+" permit", http.MethodDelete, "/api/"+string(t)+"/DeletePermit/"+id.String(), nil, nil)
}

// Stats fetches review-state counts for every permit type.
func (c *Client) Stats(ctx context.Context) (map[models.PermitType]models.StatusCounts, error) {
	const op = "load dashboard stats"
	var body struct {
		Stats map[models.PermitType]models.StatusCounts `json:"stats"`
	}
	if err := c.do(ctx, op, http.MethodGet, "/api/dashboard/stats", nil, &body); err != nil {
		return nil, err
	}
	if body.Stats == nil {
		return nil, &Error{Op: op, Kind: KindMalformed, Message: "response has no stats"}
	}
	return body.Stats, nil
}

// ListFires fetches every fire incident.
func (c *Client) ListFires(ctx context.Context) ([]models.FireIncident, error) {
	const op = "list fire incidents"
	var body struct {
		Fires *[]models.FireIncident `json:"fires"`
	}
	if err := c.do(ctx, op, http.MethodGet, "/api/firecases/getFire", nil, &body); err != nil {
		return nil, err
	}
	if body.Fires == nil {
		return nil, &Error{Op: op, Kind: KindMalformed, Message: "response has no fires"}
	}
	if *body.Fires == nil {
		return []models.FireIncident{}, nil
	}
	return *body.Fires, nil
}

// CreateFire reports a new incident.
func (c *Client) CreateFire(ctx context.Context, f *models.FireIncident) (*models.FireIncident, error) {
	const op = "report fire incident"
	var body struct {
		Fire *models.FireIncident `json:"fire"`
	}
	if err := c.do(ctx, op, http.MethodPost, "/api/firecases/createFire", firePayload(f), &body); err != nil {
		return nil, err
	}
	if body.Fire == nil {
		return nil, &Error{Op: op, Kind: KindMalformed, Message: "response has no fire"}
	}
	return body.Fire, nil
}

// UpdateFire replaces an incident.
func (c *Client) UpdateFire(ctx context.Context, f *models.FireIncident) error {
	return c.do(ctx, "update fire incident", http.MethodPut, "/api/firecases/updateFire/"+f.ID.String(), firePayload(f), nil)
}

// DeleteFire removes an incident.
func (c *Client) DeleteFire(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, "delete fire incident", http.MethodDelete, "/api/firecases/deleteFire/"+id.String(), nil, nil)
}

// FireAnalytics fetches the server-computed aggregate views.
func (c *Client) FireAnalytics(ctx context.Context) (*analytics.Report, error) {
	const op = "load fire analytics"
	var body struct {
		Analytics *analytics.Report `json:"analytics"`
	}
	if err := c.do(ctx, op, http.MethodGet, "/api/firecases/analytics", nil, &body); err != nil {
		return nil, err
	}
	if body.Analytics == nil {
		return nil, &Error{Op: op, Kind: KindMalformed, Message: "response has no analytics"}
	}
	return body.Analytics, nil
}

// do sends one request and decodes the body into out when out is not nil.
// There is no retry: a failure is reported once.
func (c *Client) do(ctx context.Context, op, method, path string, payload, out any) error {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return &Error{Op: op, Kind: KindMalformed, Err: fmt.Errorf("failed to encode request: %w", err)}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return &Error{Op: op, Kind: KindTransport, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("Request failed", map[string]interface{}{
			"op":     op,
			"method": method,
			"path":   path,
			"error":  err.Error(),
		})
		return &Error{Op: op, Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &Error{Op: op, Kind: KindTransport, StatusCode: resp.StatusCode, Err: err}
	}

	c.log.Debug("Request completed", map[string]interface{}{
		"op":          op,
		"method":      method,
		"path":        path,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	var env envelope
	envErr := json.Unmarshal(data, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Message
		if envErr != nil || msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &Error{Op: op, Kind: KindStatus, StatusCode: resp.StatusCode, Message: msg}
	}

	if envErr != nil {
		return &Error{Op: op, Kind: KindMalformed, StatusCode: resp.StatusCode, Err: envErr}
	}
	if env.Success == nil {
		return &Error{Op: op, Kind: KindMalformed, StatusCode: resp.StatusCode, Message: "response has no success flag"}
	}
	if !*env.Success {
		return &Error{Op: op, Kind: KindRejected, StatusCode: resp.StatusCode, Message: env.Message}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return &Error{Op: op, Kind: KindMalformed, StatusCode: resp.StatusCode, Err: err}
		}
	}
	return nil
}

// permitPayload flattens a permit into the request shape the server binds:
// the type-specific fields next to date_received and email.
func permitPayload(p *models.Permit) (map[string]json.RawMessage, error) {
	details, err := p.DetailsJSON()
	if err != nil {
		return nil, err
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(details, &payload); err != nil {
		return nil, fmt.Errorf("failed to flatten %s details: %w", p.Type, err)
	}
	if payload == nil {
		payload = map[string]json.RawMessage{}
	}

	if !p.DateReceived.IsZero() {
		payload["date_received"], _ = json.Marshal(p.DateReceived)
	}
	if p.Email != "" {
		payload["email"], _ = json.Marshal(p.Email)
	}
	return payload, nil
}

func firePayload(f *models.FireIncident) map[string]any {
	payload := map[string]any{
		"barangay":   f.Barangay,
		"purok":      f.Purok,
		"damageCost": f.DamageCost,
	}
	if !f.Date.IsZero() {
		payload["date"] = f.Date
	}
	if f.Year != "" {
		payload["year"] = f.Year
	}
	return payload
}
