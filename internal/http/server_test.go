package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mirror/webuntis/internal/config"
	"mirror/webuntis/internal/payload"
)

type recordingFetcher struct {
	requestID string
	module    config.Module
	calls     int
}

func (f *recordingFetcher) FetchData(_ context.Context, requestID string, module config.Module) []payload.Payload {
	f.calls++
	f.requestID = requestID
	f.module = module
	out := make([]payload.Payload, 0, len(module.Students))
	for _, s := range module.Students {
		out = append(out, payload.Payload{ID: requestID, Title: s.Title, Warnings: []string{}})
	}
	return out
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body["error"]
}

func TestHealth(t *testing.T) {
	server := NewServer(config.Config{}, &recordingFetcher{}, nil)
	rec := doRequest(t, server.Router(), http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestFetchReturnsPayloadsForRequester(t *testing.T) {
	fetcher := &recordingFetcher{}
	server := NewServer(config.Config{}, fetcher, nil)
	body := `{"id":"mirror-1","config":{"students":[{"title":"Anna","qrcode":"qr"},{"title":"Ben","qrcode":"qr"}],"header":"ignored"}}`

	rec := doRequest(t, server.Router(), http.MethodPost, "/api/fetch", body, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp fetchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != "mirror-1" || fetcher.requestID != "mirror-1" {
		t.Fatalf("expected requester id to be passed through, got %s / %s", resp.ID, fetcher.requestID)
	}
	if len(resp.Payloads) != 2 || resp.Payloads[1].Title != "Ben" {
		t.Fatalf("unexpected payloads %+v", resp.Payloads)
	}
	if fetcher.module.Students[0].QRCode != "qr" {
		t.Fatalf("expected credentials to reach the fetcher")
	}
}

func TestFetchGeneratesRequesterID(t *testing.T) {
	fetcher := &recordingFetcher{}
	server := NewServer(config.Config{}, fetcher, nil)
	rec := doRequest(t, server.Router(), http.MethodPost, "/api/fetch", `{"config":{"students":[]}}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(fetcher.requestID) != 36 {
		t.Fatalf("expected generated uuid, got %q", fetcher.requestID)
	}
}

func TestFetchRejectsBadInput(t *testing.T) {
	server := NewServer(config.Config{}, &recordingFetcher{}, nil)
	rec := doRequest(t, server.Router(), http.MethodPost, "/api/fetch", `{"id":`, nil)
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "invalid_request" {
		t.Fatalf("expected invalid_request, got %d %s", rec.Code, rec.Body.String())
	}
	rec = doRequest(t, server.Router(), http.MethodPost, "/api/fetch", `{"id":"x"}`, nil)
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "missing_config" {
		t.Fatalf("expected missing_config, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestFetchFallsBackToDefaultModule(t *testing.T) {
	fetcher := &recordingFetcher{}
	defaults := &config.Module{Students: []config.Student{{Title: "From file"}}}
	server := NewServer(config.Config{}, fetcher, defaults)
	rec := doRequest(t, server.Router(), http.MethodPost, "/api/fetch", `{"id":"x"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(fetcher.module.Students) != 1 || fetcher.module.Students[0].Title != "From file" {
		t.Fatalf("expected default module, got %+v", fetcher.module)
	}
}

func TestFetchRequiresTokenWhenConfigured(t *testing.T) {
	fetcher := &recordingFetcher{}
	server := NewServer(config.Config{APIToken: "s3cret"}, fetcher, nil)
	body := `{"config":{"students":[]}}`

	rec := doRequest(t, server.Router(), http.MethodPost, "/api/fetch", body, nil)
	if rec.Code != http.StatusUnauthorized || errorCode(t, rec) != "missing_token" {
		t.Fatalf("expected missing_token, got %d", rec.Code)
	}
	rec = doRequest(t, server.Router(), http.MethodPost, "/api/fetch", body, map[string]string{"Authorization": "Bearer nope"})
	if rec.Code != http.StatusUnauthorized || errorCode(t, rec) != "invalid_token" {
		t.Fatalf("expected invalid_token, got %d", rec.Code)
	}
	rec = doRequest(t, server.Router(), http.MethodPost, "/api/fetch", body, map[string]string{"Authorization": "Bearer s3cret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if fetcher.calls != 1 {
		t.Fatalf("expected one fetch, got %d", fetcher.calls)
	}
}

func TestBearerToken(t *testing.T) {
	if got := bearerToken("Bearer abc "); got != "abc" {
		t.Fatalf("expected abc, got %q", got)
	}
	if got := bearerToken("Basic abc"); got != "" {
		t.Fatalf("expected empty token, got %q", got)
	}
}
