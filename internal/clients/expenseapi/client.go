// Package expenseapi is the HTTP client for the ExpenseTrack backend.
// The backend is a black box: this package only shapes requests,
// decodes responses and classifies failures.
package expenseapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

const (
	loginPath     = "/auth/login"
	signupPath    = "/auth/signup"
	expensesPath  = "/expenses"
	deleteAllPath = "/expenses/delete-all"
	budgetPath    = "/expenses/update-budget-limit"
	exportPath    = "/expenses/exportpdf"
	analyzePath   = "/expenses/analyze"

	dateLayout = "2006-01-02"
)

type baseURLGetter interface {
	BaseURL() string
}

type Client struct {
	baseURL string
	client  *http.Client
}

func New(getter baseURLGetter) *Client {
	return &Client{
		baseURL: getter.BaseURL(),
		client:  &http.Client{},
	}
}

// StatusError is a non-2xx answer. Message holds the server's own
// words when the payload carried them; it stays empty when the body
// was not the expected shape, so callers degrade to a generic text
// instead of echoing a raw fault.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api status %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("api status %d", e.Code)
}

// Unauthorized reports whether the backend rejected the credential.
func (e *StatusError) Unauthorized() bool {
	return e.Code == http.StatusUnauthorized
}

func statusError(res *http.Response, body []byte) *StatusError {
	se := &StatusError{Code: res.StatusCode}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		se.Message = payload.Message
	}
	return se
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// doJSON runs the request and decodes a 2xx body into out (out may be
// nil). Non-2xx answers come back as *StatusError.
func (c *Client) doJSON(req *http.Request, out interface{}) error {
	res, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "do request")
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrap(err, "read response")
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return statusError(res, body)
	}
	if out == nil {
		return nil
	}
	if err = json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "unmarshalling response")
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path, token string, in, out interface{}) error {
	return c.sendJSON(ctx, http.MethodPost, path, token, in, out)
}

func (c *Client) putJSON(ctx context.Context, path, token string, in, out interface{}) error {
	return c.sendJSON(ctx, http.MethodPut, path, token, in, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path, token string, in, out interface{}) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return errors.Wrap(err, "marshalling request")
	}
	req, err := c.newRequest(ctx, method, path, token, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doJSON(req, out)
}
