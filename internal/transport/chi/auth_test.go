package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func serveWithAuth(keys []string, path, authorization string) *httptest.ResponseRecorder {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	req := httptest.NewRequest(http.MethodPost, path, http.NoBody)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rr := httptest.NewRecorder()
	BearerAuthMiddleware(keys)(next).ServeHTTP(rr, req)
	return rr
}

func TestBearerAuth(t *testing.T) {
	tests := []struct {
		name          string
		keys          []string
		path          string
		authorization string
		wantStatus    int
	}{
		{"no keys configured", nil, "/v1/retrieve", "", http.StatusNoContent},
		{"only blank keys", []string{"", "  "}, "/v1/retrieve", "", http.StatusNoContent},
		{"missing header", []string{"secret"}, "/v1/retrieve", "", http.StatusUnauthorized},
		{"basic scheme", []string{"secret"}, "/v1/generate", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"scheme without token", []string{"secret"}, "/v1/generate", "Bearer", http.StatusUnauthorized},
		{"wrong key", []string{"secret"}, "/v1/documents", "Bearer wrong", http.StatusUnauthorized},
		{"valid key", []string{"secret"}, "/v1/documents", "Bearer secret", http.StatusNoContent},
		{"lowercase scheme", []string{"secret"}, "/v1/documents", "bearer secret", http.StatusNoContent},
		{"second of two keys", []string{"k1", "k2"}, "/v1/retrieve", "Bearer k2", http.StatusNoContent},
		{"health is public", []string{"secret"}, "/health", "", http.StatusNoContent},
		{"metrics is public", []string{"secret"}, "/metrics", "", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serveWithAuth(tt.keys, tt.path, tt.authorization)
			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
		})
	}
}

func TestBearerAuth_ErrorBody(t *testing.T) {
	rr := serveWithAuth([]string{"secret"}, "/v1/retrieve", "Bearer nope")

	if got := rr.Header().Get("WWW-Authenticate"); got == "" {
		t.Error("expected WWW-Authenticate challenge")
	}
	var body ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != CodeUnauthorized || body.Message != "invalid api key" {
		t.Errorf("body = %+v", body)
	}
}
