package dashboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"nodemonitor/pkg/config"
	"nodemonitor/pkg/jsonx"
	"nodemonitor/pkg/logger"

	"golang.org/x/net/html"
)

// ErrScrapeTimeout is returned when the dashboard does not answer in time.
var ErrScrapeTimeout = errors.New("dashboard scrape timed out")

// Page is the scraped host page: the jobs table rows and the visible text.
type Page struct {
	Address   string
	Rows      []Row
	Text      string
	ScrapedAt time.Time
}

// Scraper fetches host pages from the Nosana dashboard. When a render URL is
// configured the page is fetched through that endpoint, which returns the
// browser-rendered HTML for the posted URL.
type Scraper struct {
	baseURL    string
	renderURL  string
	userAgent  string
	httpClient *http.Client
}

// NewScraper creates a dashboard scraper
func NewScraper(cfg config.DashboardConfig) *Scraper {
	return &Scraper{
		baseURL:   cfg.BaseURL,
		renderURL: cfg.RenderURL,
		userAgent: cfg.UserAgent,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// HostURL returns the dashboard URL of a node.
func (s *Scraper) HostURL(address string) string {
	return strings.TrimRight(s.baseURL, "/") + "/" + address
}

// Scrape fetches and parses the host page of address.
func (s *Scraper) Scrape(ctx context.Context, address string) (*Page, error) {
	body, err := s.fetch(ctx, s.HostURL(address))
	if err != nil {
		return nil, err
	}

	page, err := ParsePage(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse dashboard page for %s: %w", address, err)
	}
	page.Address = address
	page.ScrapedAt = time.Now().UTC()

	logger.DebugCtx(ctx, "scraped dashboard for %s: %d rows", address, len(page.Rows))
	return page, nil
}

func (s *Scraper) fetch(ctx context.Context, target string) ([]byte, error) {
	var req *http.Request
	var err error
	if s.renderURL != "" {
		payload, mErr := jsonx.Marshal(map[string]string{"url": target})
		if mErr != nil {
			return nil, fmt.Errorf("failed to marshal render request: %w", mErr)
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, s.renderURL, bytes.NewReader(payload))
		if err == nil {
			req.Header.Set("Content-Type", "application/json")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrScrapeTimeout, err)
		}
		return nil, fmt.Errorf("failed to fetch dashboard page: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrScrapeTimeout, err)
		}
		return nil, fmt.Errorf("failed to read dashboard page: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dashboard returned status code %d", resp.StatusCode)
	}
	return body, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// ParsePage extracts table rows and visible text from an HTML document.
func ParsePage(r io.Reader) (*Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	page := &Page{}
	var text strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			case "tr":
				if row := parseRow(n); len(row) > 0 {
					page.Rows = append(page.Rows, row)
				}
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				text.WriteString(t)
				text.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	page.Text = strings.TrimSpace(text.String())
	return page, nil
}

// parseRow returns the td cells of a tr; header rows yield no cells.
func parseRow(tr *html.Node) Row {
	var row Row
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "td" {
			continue
		}
		cell := Cell{Text: collapseSpace(nodeText(c))}
		if a := findElement(c, "a"); a != nil {
			cell.Href = attr(a, "href")
		}
		if t := findElement(c, "time"); t != nil {
			cell.Datetime = attr(t, "datetime")
		}
		row = append(row, cell)
	}
	return row
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
		b.WriteByte(' ')
	}
	return b.String()
}

func findElement(n *html.Node, tag string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			return c
		}
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
