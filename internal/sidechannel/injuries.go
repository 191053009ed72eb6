package sidechannel

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"fantasy_nhl/ingestion/internal/models"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// injury report table markup
const (
	rowClass    = "TableBase-bodyTr"
	cellClass   = "TableBase-bodyTd"
	nameClass   = "CellPlayerName--long"
	statusIndex = 4
)

// InjuryCollector scrapes the league-wide injury report page
type InjuryCollector struct {
	url        string
	httpClient *http.Client
	timeout    time.Duration
}

// NewInjuryCollector creates an injury collector for the given report URL
func NewInjuryCollector(url string, timeout time.Duration) *InjuryCollector {
	return &InjuryCollector{
		url:        url,
		httpClient: &http.Client{},
		timeout:    timeout,
	}
}

// Collect returns injury notes keyed by NormalizeName(player name), or an empty map on failure
func (c *InjuryCollector) Collect(ctx context.Context) map[string]string {
	start := time.Now()
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	notes, err := c.fetch(ctx)
	if err != nil {
		degrade(ChannelInjuries, err, time.Since(start))
		return map[string]string{}
	}

	log.Debug().Int("count", len(notes)).Msg("Injury report collected")
	return notes
}

func (c *InjuryCollector) fetch(ctx context.Context) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("injury report request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("injury report returned status %d", resp.StatusCode)
	}

	return ParseInjuryReport(resp.Body)
}

// ParseInjuryReport extracts name -> status note pairs from the report's table rows.
// Rows without a player name or with fewer than five cells are skipped.
func ParseInjuryReport(r io.Reader) (map[string]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse injury report: %w", err)
	}

	notes := make(map[string]string)
	skipped := 0
	for _, row := range findAll(doc, func(n *html.Node) bool {
		return n.Data == "tr" && hasClass(n, rowClass)
	}) {
		name, status, ok := parseInjuryRow(row)
		if !ok {
			skipped++
			continue
		}
		notes[models.NormalizeName(name)] = status
	}

	if skipped > 0 {
		log.Debug().Int("skipped", skipped).Msg("Skipped malformed injury rows")
	}

	return notes, nil
}

func parseInjuryRow(row *html.Node) (string, string, bool) {
	cells := findAll(row, func(n *html.Node) bool {
		return n.Data == "td" && hasClass(n, cellClass)
	})
	if len(cells) <= statusIndex {
		return "", "", false
	}

	spans := findAll(row, func(n *html.Node) bool {
		return n.Data == "span" && hasClass(n, nameClass)
	})
	if len(spans) == 0 {
		return "", "", false
	}
	links := findAll(spans[0], func(n *html.Node) bool { return n.Data == "a" })
	if len(links) == 0 {
		return "", "", false
	}

	name := collapse(textOf(links[0]))
	if name == "" {
		return "", "", false
	}

	return name, collapse(textOf(cells[statusIndex])), true
}

func findAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return out
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key == "class" && slices.Contains(strings.Fields(attr.Val), class) {
			return true
		}
	}
	return false
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
