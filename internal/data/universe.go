package data

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"pairs-backtest/internal/model"
)

const (
	DefaultUniverseURL = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"
	browserUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// undatedAddition stands in for constituents whose "Date added" cell is blank.
var undatedAddition = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

// Constituent is one row of an index constituents table.
type Constituent struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name,omitempty"`
	// DateAdded is zero when the cell could not be parsed.
	DateAdded time.Time `json:"date_added"`
}

// Universe is the persisted constituent list.
type Universe struct {
	Source       string        `json:"source"`
	UpdatedAt    string        `json:"updated_at"` // ISO 8601 timestamp
	Constituents []Constituent `json:"constituents"`
}

// ParseUniverse extracts constituents from an HTML page holding a table with
// "Symbol" and "Date added" columns. The table with id "constituents" wins; otherwise
// the first wikitable that has a Symbol column.
func ParseUniverse(r io.Reader) ([]Constituent, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %v", model.ErrData, err)
	}

	table := doc.Find("table#constituents").First()
	if table.Length() == 0 {
		doc.Find("table.wikitable").EachWithBreak(func(_ int, t *goquery.Selection) bool {
			if _, ok := headerIndex(t)["symbol"]; ok {
				table = t
				return false
			}
			return true
		})
	}
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: no constituents table found", model.ErrData)
	}

	cols := headerIndex(table)
	symCol, ok := cols["symbol"]
	if !ok {
		return nil, fmt.Errorf("%w: constituents table has no Symbol column", model.ErrData)
	}
	dateCol, hasDate := cols["date added"]
	nameCol, hasName := cols["security"]

	var out []Constituent
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() <= symCol {
			return
		}
		sym := strings.TrimSpace(cells.Eq(symCol).Text())
		if sym == "" {
			return
		}
		c := Constituent{Symbol: sym, DateAdded: undatedAddition}
		if hasName && cells.Length() > nameCol {
			c.Name = strings.TrimSpace(cells.Eq(nameCol).Text())
		}
		if hasDate && cells.Length() > dateCol {
			c.DateAdded = parseAdded(cells.Eq(dateCol).Text())
		}
		out = append(out, c)
	})
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: constituents table is empty", model.ErrData)
	}
	return out, nil
}

func headerIndex(table *goquery.Selection) map[string]int {
	idx := map[string]int{}
	table.Find("tr").First().Find("th").Each(func(i int, th *goquery.Selection) {
		idx[strings.ToLower(strings.TrimSpace(th.Text()))] = i
	})
	return idx
}

func parseAdded(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return undatedAddition
	}
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// FilterAddedBefore keeps the symbols added on or before cutoff, in table order.
// Constituents with an unparseable date are dropped.
func FilterAddedBefore(list []Constituent, cutoff time.Time) []string {
	var out []string
	for _, c := range list {
		if c.DateAdded.IsZero() || c.DateAdded.After(cutoff) {
			continue
		}
		out = append(out, c.Symbol)
	}
	return out
}

// UniverseClient fetches a constituents page over HTTP.
type UniverseClient struct {
	URL       string
	UserAgent string
	Client    *http.Client
	Log       zerolog.Logger
}

// NewUniverseClient creates a client. If url is empty, defaults to the S&P 500 list.
func NewUniverseClient(url string, log zerolog.Logger) *UniverseClient {
	if url == "" {
		url = DefaultUniverseURL
	}
	return &UniverseClient{
		URL:       url,
		UserAgent: browserUserAgent,
		Client:    &http.Client{Timeout: 30 * time.Second},
		Log:       log,
	}
}

// FetchError is a non-200 response from the constituents source.
type FetchError struct {
	StatusCode int
	Message    string
}

func (e *FetchError) Error() string { return e.Message }

func (c *UniverseClient) Fetch(ctx context.Context) ([]Constituent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	// Wikipedia answers 403 to the default Go user agent.
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "text/html")

	start := time.Now()
	resp, err := c.Client.Do(req)
	if err != nil {
		c.Log.Error().Err(err).Str("url", c.URL).Dur("duration", time.Since(start)).Msg("universe request failed")
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	c.Log.Info().Str("url", c.URL).Int("status", resp.StatusCode).Dur("duration", time.Since(start)).Msg("universe response")
	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("universe source returned status %d: %s", resp.StatusCode, resp.Status),
		}
	}

	list, err := ParseUniverse(resp.Body)
	if err != nil {
		return nil, err
	}
	c.Log.Info().Int("constituents", len(list)).Msg("universe parsed")
	return list, nil
}

// LoadUniverse loads a universe from a JSON file.
func LoadUniverse(filePath string) (*Universe, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read universe file: %w", err)
	}
	var u Universe
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("failed to parse universe file: %w", err)
	}
	return &u, nil
}

// SaveUniverse saves a universe to a JSON file.
func SaveUniverse(u *Universe, filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	raw, err := json.MarshalIndent(u, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal universe: %w", err)
	}
	if err := os.WriteFile(filePath, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write universe file: %w", err)
	}
	return nil
}

// DefaultUniversePath returns UNIVERSE_FILE, else ./data/universe.json.
func DefaultUniversePath() string {
	if path := os.Getenv("UNIVERSE_FILE"); path != "" {
		return path
	}
	return "./data/universe.json"
}
