// Package verifsvc wraps the third-party biometric verification service.
// One request attempt per Submit call; retries are caller policy.
package verifsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Biometric processing is slow server-side, so the transport bound is
// generous.
const defaultTimeout = 30 * time.Second

// Decision is the service's judgment on a submission.
type Decision int

const (
	DecisionAccept Decision = iota
	DecisionReject
	DecisionReview
)

// String names the decision for logs.
func (d Decision) String() string {
	switch d {
	case DecisionAccept:
		return "accept"
	case DecisionReject:
		return "reject"
	case DecisionReview:
		return "review"
	default:
		return "unknown"
	}
}

// Warning is a service-supplied annotation on a decision. Codes are passed
// through verbatim; interpretation belongs to the caller.
type Warning struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// Outcome is a well-formed service response.
type Outcome struct {
	Decision Decision
	Warnings []Warning
}

// ErrorKind classifies Submit failures.
type ErrorKind int

const (
	// KindServiceRejected means the service answered with an error status.
	KindServiceRejected ErrorKind = iota
	// KindTransport means the request was sent but no response arrived
	// (connectivity loss or timeout).
	KindTransport
	// KindMalformed means a response arrived but could not be interpreted.
	KindMalformed
)

// String names the kind for logs.
func (k ErrorKind) String() string {
	switch k {
	case KindServiceRejected:
		return "service rejected"
	case KindTransport:
		return "transport"
	case KindMalformed:
		return "malformed response"
	default:
		return "unknown"
	}
}

// Error is the classified failure of a Submit call.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("verifsvc: %s: %s", e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("verifsvc: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("verifsvc: %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Client submits encoded captures to the verification service.
type Client struct {
	baseURL string
	apiKey  string
	profile string
	http    *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, including its
// timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout adjusts the transport bound on a Submit call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// NewClient builds a verification client. profile is the fixed verification
// profile identifier assigned by the service.
func NewClient(baseURL, apiKey, profile string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		profile: profile,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type submitRequest struct {
	Document     string `json:"document"`
	DocumentBack string `json:"document_back"`
	Face         string `json:"face"`
	Profile      string `json:"profile"`
}

type submitResponse struct {
	Decision string    `json:"decision"`
	Warnings []Warning `json:"warning"`
}

// Submit sends the three encoded captures and returns the service's
// decision verbatim. Exactly one request attempt is made.
func (c *Client) Submit(ctx context.Context, front, back, selfie string) (Outcome, error) {
	payload, err := json.Marshal(submitRequest{
		Document:     front,
		DocumentBack: back,
		Face:         selfie,
		Profile:      c.profile,
	})
	if err != nil {
		return Outcome{}, &Error{Kind: KindMalformed, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/verifications", bytes.NewReader(payload))
	if err != nil {
		return Outcome{}, &Error{Kind: KindTransport, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return Outcome{}, &Error{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Outcome{}, &Error{
			Kind:    KindServiceRejected,
			Status:  resp.StatusCode,
			Message: readMessage(resp.Body),
		}
	}

	var body submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Outcome{}, &Error{Kind: KindMalformed, Err: err}
	}

	decision, err := parseDecision(body.Decision)
	if err != nil {
		return Outcome{}, &Error{Kind: KindMalformed, Err: err}
	}

	return Outcome{Decision: decision, Warnings: body.Warnings}, nil
}

func parseDecision(raw string) (Decision, error) {
	switch strings.ToLower(raw) {
	case "accept", "approved":
		return DecisionAccept, nil
	case "reject", "declined":
		return DecisionReject, nil
	case "review":
		return DecisionReview, nil
	default:
		return 0, fmt.Errorf("unknown decision %q", raw)
	}
}

func readMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &parsed); err == nil && parsed.Message != "" {
		return parsed.Message
	}
	return string(data)
}
