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

const publishedSheet = `<html><body>
<div id="sheets-viewport">
<table class="waffle" cellspacing="0" cellpadding="0">
<thead><tr><th class="row-header freezebar-origin-ltr"></th><th>A</th><th>B</th><th>C</th><th>D</th><th>E</th><th>F</th><th>G</th></tr></thead>
<tbody>
<tr><th class="row-headers-background">1</th><td>Título</td><td>Data</td><td>Hora</td><td>Local</td><td>Tipo</td><td>Link</td><td>Imagem</td></tr>
<tr><th>2</th><td>Concert A</td><td>12/01/2025</td><td>20:00</td><td>Hall 1</td><td>Música</td><td><a href="http://x">http://x</a></td><td>http://img1</td></tr>
<tr><th>3</th><td></td><td></td><td></td><td></td><td></td><td></td><td></td></tr>
<tr><th>4</th><td> Expo B </td><td>Domingo, 5 de Jan</td><td>10:00</td><td>Gallery</td><td>Exposição</td><td></td><td></td></tr>
</tbody>
</table>
</div>
</body></html>`

func TestParseTable(t *testing.T) {
	rows, err := parseTable(strings.NewReader(publishedSheet))
	if err != nil {
		t.Fatalf("parseTable() error = %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("parseTable() returned %d rows, want 3 (header + 2, blank row skipped)", len(rows))
	}
	if rows[0][0] != "Título" {
		t.Errorf("header = %q", rows[0])
	}
	if got := rows[1][5]; got != "http://x" {
		t.Errorf("link cell = %q, want http://x", got)
	}
	if got := rows[2][0]; got != "Expo B" {
		t.Errorf("title cell = %q, want trimmed Expo B", got)
	}
	if len(rows[2]) != 7 {
		t.Errorf("row length = %d, want 7", len(rows[2]))
	}
}

func TestParseTable_NoTable(t *testing.T) {
	_, err := parseTable(strings.NewReader(`<html><body><p>This document is not published.</p></body></html>`))
	if !errors.Is(err, ingest.ErrMalformedPayload) {
		t.Errorf("parseTable() error = %v, want ErrMalformedPayload", err)
	}
}

func TestHTMLSource_FetchRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != UserAgent {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(publishedSheet))
	}))
	defer server.Close()

	rows, err := NewHTMLSource(server.URL, time.Second).FetchRows(context.Background())
	if err != nil {
		t.Fatalf("FetchRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("FetchRows() returned %d rows, want 3", len(rows))
	}
}

func TestHTMLSource_FetchRows_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewHTMLSource(server.URL, time.Second).FetchRows(context.Background())
	if !errors.Is(err, ingest.ErrSourceUnavailable) {
		t.Errorf("FetchRows() error = %v, want ErrSourceUnavailable", err)
	}

	_, err = NewHTMLSource("", time.Second).FetchRows(context.Background())
	if !errors.Is(err, ingest.ErrMissingCredential) {
		t.Errorf("FetchRows() with empty url error = %v, want ErrMissingCredential", err)
	}
}
