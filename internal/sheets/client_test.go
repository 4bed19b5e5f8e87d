package sheets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/itantech/napista/internal/ingest"
)

func newTestClient(serverURL, apiKey string) *Client {
	c := NewClient("sheet-123", "Página2", apiKey, time.Second)
	c.baseURL = serverURL
	return c
}

func TestClient_FetchRows(t *testing.T) {
	var gotPath, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"range": "'Página2'!A1:G3",
			"majorDimension": "ROWS",
			"values": [
				["Título", "Data", "Hora", "Local", "Tipo", "Link", "Imagem"],
				["Concert A", "12/01/2025", "20:00", "Hall 1", "Música", "http://x", "http://img1"],
				["Expo B", "Domingo, 5 de Jan", 10, "Gallery", "Exposição"]
			]
		}`))
	}))
	defer server.Close()

	rows, err := newTestClient(server.URL, "secret").FetchRows(context.Background())
	if err != nil {
		t.Fatalf("FetchRows() error = %v", err)
	}

	if gotPath != "/sheet-123/values/Página2" {
		t.Errorf("request path = %q", gotPath)
	}
	if gotKey != "secret" {
		t.Errorf("request key = %q, want secret", gotKey)
	}
	if len(rows) != 3 {
		t.Fatalf("FetchRows() returned %d rows, want 3", len(rows))
	}
	if rows[1][0] != "Concert A" {
		t.Errorf("rows[1][0] = %q", rows[1][0])
	}
	if len(rows[2]) != 5 || rows[2][2] != "10" {
		t.Errorf("rows[2] = %q, want 5 cells with numeric cell rendered as text", rows[2])
	}
}

func TestClient_FetchRows_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		apiKey  string
		wantErr error
	}{
		{
			name:    "missing api key",
			apiKey:  "",
			wantErr: ingest.ErrMissingCredential,
		},
		{
			name:    "error shape",
			status:  http.StatusForbidden,
			body:    `{"error":{"code":403,"message":"The caller does not have permission","status":"PERMISSION_DENIED"}}`,
			apiKey:  "secret",
			wantErr: ingest.ErrMalformedPayload,
		},
		{
			name:    "no values key",
			status:  http.StatusOK,
			body:    `{"range":"A1:G1","majorDimension":"ROWS"}`,
			apiKey:  "secret",
			wantErr: ingest.ErrMalformedPayload,
		},
		{
			name:    "not json",
			status:  http.StatusBadGateway,
			body:    `<html>bad gateway</html>`,
			apiKey:  "secret",
			wantErr: ingest.ErrMalformedPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL, tt.apiKey).FetchRows(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("FetchRows() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestClient_FetchRows_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := server.URL
	server.Close()

	_, err := newTestClient(serverURL, "top-secret-key").FetchRows(context.Background())
	if !errors.Is(err, ingest.ErrSourceUnavailable) {
		t.Fatalf("FetchRows() error = %v, want ErrSourceUnavailable", err)
	}
	if strings.Contains(err.Error(), "top-secret-key") {
		t.Errorf("FetchRows() error leaks the api key: %v", err)
	}
}

func TestParseValues_EmptySheet(t *testing.T) {
	rows, err := parseValues(strings.NewReader(`{"values":[]}`), http.StatusOK)
	if err != nil {
		t.Fatalf("parseValues() error = %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("parseValues() = %v, want no rows", rows)
	}
}

func TestCellString(t *testing.T) {
	tests := []struct {
		in   interface{}
		want string
	}{
		{nil, ""},
		{"Hall 1", "Hall 1"},
		{float64(2025), "2025"},
		{1.5, "1.5"},
		{true, "true"},
	}

	for _, tt := range tests {
		if got := cellString(tt.in); got != tt.want {
			t.Errorf("cellString(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
