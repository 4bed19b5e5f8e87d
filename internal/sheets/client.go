package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/itantech/napista/internal/ingest"
)

const (
	BaseURL   = "https://sheets.googleapis.com/v4/spreadsheets"
	UserAgent = "napista/1.0 (github.com/itantech/napista)"
	Timeout   = 15 * time.Second
)

// Client fetches a sheet range from the Google Sheets values API.
type Client struct {
	client        *http.Client
	baseURL       string
	spreadsheetID string
	sheetRange    string
	apiKey        string
}

// NewClient creates a Client for the given spreadsheet and range
// (a sheet name such as "Página2" or an A1 range such as "A:G").
func NewClient(spreadsheetID, sheetRange, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = Timeout
	}
	return &Client{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL:       BaseURL,
		spreadsheetID: spreadsheetID,
		sheetRange:    sheetRange,
		apiKey:        apiKey,
	}
}

// valueRange is the success shape of the values endpoint; Error is set on the
// error shape instead of Values.
type valueRange struct {
	Range          string          `json:"range"`
	MajorDimension string          `json:"majorDimension"`
	Values         [][]interface{} `json:"values"`
	Error          *apiError       `json:"error"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// FetchRows requests the whole range and returns its rows, header included.
func (c *Client) FetchRows(ctx context.Context) ([][]string, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("sheets api key: %w", ingest.ErrMissingCredential)
	}
	if c.spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is empty: %w", ingest.ErrMissingCredential)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// url.Error embeds the request URL, which carries the key.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, fmt.Errorf("%w: %v", ingest.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	return parseValues(resp.Body, resp.StatusCode)
}

func (c *Client) endpoint() string {
	return fmt.Sprintf("%s/%s/values/%s?key=%s",
		c.baseURL,
		url.PathEscape(c.spreadsheetID),
		url.PathEscape(c.sheetRange),
		url.QueryEscape(c.apiKey),
	)
}

// parseValues decodes a values response. A body without "values" is a
// malformed payload whatever the HTTP status was.
func parseValues(r io.Reader, status int) ([][]string, error) {
	var vr valueRange
	if err := json.NewDecoder(r).Decode(&vr); err != nil {
		return nil, fmt.Errorf("%w: decoding response (status %d): %v", ingest.ErrMalformedPayload, status, err)
	}

	if vr.Values == nil {
		if vr.Error != nil {
			return nil, fmt.Errorf("%w: status %d: %s: %s", ingest.ErrMalformedPayload, status, vr.Error.Status, vr.Error.Message)
		}
		return nil, fmt.Errorf("%w: status %d: no values in response", ingest.ErrMalformedPayload, status)
	}

	rows := make([][]string, 0, len(vr.Values))
	for _, raw := range vr.Values {
		row := make([]string, len(raw))
		for i, v := range raw {
			row[i] = cellString(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// cellString renders a JSON cell as text. Formatted values are strings
// already; unformatted numbers and booleans are rendered without exponent.
func cellString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
