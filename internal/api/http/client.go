package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hostwatch/hostwatch/internal/dispatch"
	hwerrors "github.com/hostwatch/hostwatch/internal/errors"
)

// Client routes generic storage requests to a remote store server. It
// implements dispatch.RemoteChannel, so an extension process can hand it to
// dispatch.NewRemote and use the same typed API as the daemon.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) ClientOption {
	return func(c *Client) { c.httpc = httpc }
}

// NewClient creates a channel to the store server at baseURL, for example
// "http://127.0.0.1:9037".
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call sends one generic request and returns the decoded response. A
// non-zero envelope status becomes an error carrying the server's message;
// the error's category follows the HTTP status, so protocol mistakes stay
// distinguishable from backend failures.
func (c *Client) Call(ctx context.Context, req dispatch.Request) (dispatch.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, hwerrors.NewSerializeError(hwerrors.CodeEncodingFailed,
			"failed to encode database request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/database", bytes.NewReader(body))
	if err != nil {
		return nil, hwerrors.NewInternalError("failed to build database request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, hwerrors.NewBackendError(hwerrors.CodeBackendUnavailable,
			"store server unreachable", err)
	}
	defer httpResp.Body.Close()

	var result CallResult
	if err := json.NewDecoder(httpResp.Body).Decode(&result); err != nil {
		return nil, hwerrors.NewSerializeError(hwerrors.CodeParseFailed,
			fmt.Sprintf("failed to decode database response (http %d)", httpResp.StatusCode), err)
	}

	if result.Status != 0 {
		if httpResp.StatusCode == http.StatusBadRequest {
			code := result.Code
			if code == "" {
				code = hwerrors.CodeUnknownAction
			}
			return result.Response, hwerrors.NewProtocolError(code, result.Message)
		}
		code := result.Code
		if code == "" {
			code = hwerrors.CodeBackendIO
		}
		return result.Response, hwerrors.NewBackendError(code, result.Message, nil)
	}
	return result.Response, nil
}

var _ dispatch.RemoteChannel = (*Client)(nil)
