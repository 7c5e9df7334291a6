package liferay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/webitel/screens-rating/internal/domain/model"
	"github.com/webitel/screens-rating/internal/session"
)

// InvokePath is the batch endpoint of the portal JSON web services.
const InvokePath = "/api/jsonws/invoke"

const maxErrorBody = 64 << 10

// Client performs JSON web-service commands against the portal.
type Client struct {
	http *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{http: &http.Client{Timeout: timeout}}
}

// NewClientWith wraps a caller-provided http.Client, e.g. an httptest one.
func NewClientWith(hc *http.Client) *Client {
	return &Client{http: hc}
}

// Invoke runs a single command, e.g. "/ratingsentry/delete-entry", and returns the raw result.
// Every failure is a *model.RemoteError.
func (c *Client) Invoke(ctx context.Context, sess *session.Session, command string, params any) (json.RawMessage, error) {
	body, err := json.Marshal([]map[string]any{{command: params}})
	if err != nil {
		return nil, model.NewRemoteError(model.RemoteUnknown, fmt.Sprintf("encode %s: %v", command, err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sess.Endpoint(InvokePath), bytes.NewReader(body))
	if err != nil {
		return nil, model.NewRemoteError(model.RemoteUnknown, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	sess.Authenticate(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, model.NewRemoteError(model.RemoteNetwork, err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return nil, model.NewRemoteError(model.RemoteNetwork, fmt.Sprintf("read response: %v", err))
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, statusError(resp.StatusCode, raw)
	}
	if re := bodyError(raw); re != nil {
		re.Status = resp.StatusCode
		return nil, re
	}
	return unwrapBatch(raw), nil
}

// portalError covers both shapes the portal uses:
// {"exception":"...","message":"..."} and {"error":{"type":"...","message":"..."}}.
type portalError struct {
	Exception string `json:"exception"`
	Message   string `json:"message"`
	Error     *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p portalError) text() (exception, message string) {
	if p.Error != nil {
		return p.Error.Type, p.Error.Message
	}
	return p.Exception, p.Message
}

func bodyError(raw []byte) *model.RemoteError {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var pe portalError
	if err := json.Unmarshal(raw, &pe); err != nil {
		return nil
	}
	exception, message := pe.text()
	if exception == "" && message == "" {
		return nil
	}
	return model.NewRemoteError(classify(exception, message), describe(exception, message))
}

func statusError(status int, raw []byte) *model.RemoteError {
	var kind model.RemoteErrorKind
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = model.RemotePermissionDenied
	case status == http.StatusNotFound:
		kind = model.RemoteNotFound
	case status >= http.StatusInternalServerError:
		kind = model.RemoteServer
	default:
		kind = model.RemoteUnknown
	}

	msg := http.StatusText(status)
	if re := bodyError(raw); re != nil {
		msg = re.Message
		// The body is more specific than a generic 500.
		if re.Kind != model.RemoteUnknown {
			kind = re.Kind
		}
	}
	return &model.RemoteError{Kind: kind, Message: msg, Status: status}
}

func classify(exception, message string) model.RemoteErrorKind {
	text := exception + " " + message
	switch {
	case strings.Contains(text, "NoSuch"):
		return model.RemoteNotFound
	case strings.Contains(text, "PrincipalException"), strings.Contains(text, "Permission"):
		return model.RemotePermissionDenied
	default:
		return model.RemoteUnknown
	}
}

func describe(exception, message string) string {
	switch {
	case exception == "":
		return message
	case message == "":
		return exception
	default:
		return exception + ": " + message
	}
}

// unwrapBatch returns the first element of a batch response, or the body as is.
func unwrapBatch(raw []byte) json.RawMessage {
	var batch []json.RawMessage
	if err := json.Unmarshal(raw, &batch); err == nil && len(batch) > 0 {
		return batch[0]
	}
	return json.RawMessage(raw)
}

// IsBreakerFailure reports whether err says something about portal health.
// Missing entries and denied permissions are answers, not outages.
func IsBreakerFailure(err error) bool {
	if err == nil {
		return false
	}
	var re *model.RemoteError
	if !errors.As(err, &re) {
		return true
	}
	return re.Kind == model.RemoteNetwork || re.Kind == model.RemoteServer
}
