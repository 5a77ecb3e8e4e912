package untis

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultClientName = "mirror-webuntis"
	maxBodyBytes      = 8 << 20
)

// Client talks to WebUntis over its JSON-RPC and REST surfaces.
type Client struct {
	http       *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
	clientName string
	now        func() time.Time
	rpcID      atomic.Int64
}

// New builds a client whose requests share one rate limiter. A zero or
// negative perSecond disables limiting.
func New(timeout time.Duration, perSecond float64, burst int) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		http:       &http.Client{},
		limiter:    rate.NewLimiter(limit, burst),
		timeout:    timeout,
		clientName: defaultClientName,
		now:        time.Now,
	}
}

func (c *Client) Close() {
	if c == nil || c.http == nil {
		return
	}
	c.http.CloseIdleConnections()
}

func baseURL(server string) string {
	server = strings.TrimRight(strings.TrimSpace(server), "/")
	if strings.Contains(server, "://") {
		return server
	}
	return "https://" + server
}

func schoolCookie(school string) *http.Cookie {
	return &http.Cookie{Name: "schoolname", Value: "_" + base64.StdEncoding.EncodeToString([]byte(school))}
}

func (c *Client) do(ctx context.Context, req *http.Request, endpoint string) (*http.Response, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: read body: %w", endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, body, &HTTPError{StatusCode: resp.StatusCode, Endpoint: endpoint}
	}
	return resp, body, nil
}

type rpcRequest struct {
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	JSONRPC string `json:"jsonrpc"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// rpc posts a JSON-RPC call. It returns the response cookies so that login
// calls can capture the session.
func (c *Client) rpc(ctx context.Context, server, path string, query url.Values, cookies []*http.Cookie, method string, params, out any) ([]*http.Cookie, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(rpcRequest{
		ID:      strconv.FormatInt(c.rpcID.Add(1), 10),
		Method:  method,
		Params:  params,
		JSONRPC: "2.0",
	})
	if err != nil {
		return nil, err
	}
	endpoint := baseURL(server) + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	resp, body, err := c.do(ctx, req, method)
	if err != nil {
		return nil, err
	}
	var envelope rpcResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", method, err)
	}
	if envelope.Error != nil {
		return nil, &RPCError{Code: envelope.Error.Code, Message: envelope.Error.Message}
	}
	if out != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return nil, fmt.Errorf("%s: decode result: %w", method, err)
		}
	}
	return resp.Cookies(), nil
}

func (c *Client) sessionRPC(ctx context.Context, auth *AuthContext, method string, params, out any) error {
	query := url.Values{"school": {auth.School}}
	_, err := c.rpc(ctx, auth.Server, "/WebUntis/jsonrpc.do", query, auth.Cookies, method, params, out)
	return err
}

func (c *Client) getRaw(ctx context.Context, auth *AuthContext, path string, query url.Values) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := baseURL(auth.Server) + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if auth.Bearer != "" {
		req.Header.Set("Authorization", "Bearer "+auth.Bearer)
	}
	for _, cookie := range auth.Cookies {
		req.AddCookie(cookie)
	}
	_, body, err := c.do(ctx, req, path)
	return body, err
}

func (c *Client) getJSON(ctx context.Context, auth *AuthContext, path string, query url.Values, out any) error {
	body, err := c.getRaw(ctx, auth, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode: %w", path, err)
	}
	return nil
}
