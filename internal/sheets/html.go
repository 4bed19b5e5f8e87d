package sheets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/itantech/napista/internal/ingest"
)

// HTMLSource reads the rows of a sheet published to the web
// (File > Share > Publish to web, HTML format).
type HTMLSource struct {
	client *http.Client
	url    string
}

// NewHTMLSource creates a source for a published sheet page.
func NewHTMLSource(pageURL string, timeout time.Duration) *HTMLSource {
	if timeout <= 0 {
		timeout = Timeout
	}
	return &HTMLSource{
		client: &http.Client{
			Timeout: timeout,
		},
		url: pageURL,
	}
}

// FetchRows downloads the published page and returns its table rows, header included.
func (s *HTMLSource) FetchRows(ctx context.Context) ([][]string, error) {
	if s.url == "" {
		return nil, fmt.Errorf("published sheet url is empty: %w", ingest.ErrMissingCredential)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, fmt.Errorf("%w: %v", ingest.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code: %d", ingest.ErrSourceUnavailable, resp.StatusCode)
	}

	return parseTable(resp.Body)
}

// parseTable extracts the data cells of the first sheet table. Row numbers
// and column letters are rendered as <th> and are skipped.
func parseTable(r io.Reader) ([][]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing HTML: %v", ingest.ErrMalformedPayload, err)
	}

	table := doc.Find("table.waffle").First()
	if table.Length() == 0 {
		table = doc.Find("table").First()
	}
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: no table in published sheet", ingest.ErrMalformedPayload)
	}

	rows := make([][]string, 0)
	table.Find("tr").Each(func(i int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() == 0 {
			return
		}
		row := make([]string, 0, cells.Length())
		cells.Each(func(j int, td *goquery.Selection) {
			row = append(row, strings.TrimSpace(td.Text()))
		})
		if isBlank(row) {
			return
		}
		rows = append(rows, row)
	})

	return rows, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
