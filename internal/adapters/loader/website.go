package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

const (
	// maxFetchSize caps the response body read from a website (5MB).
	maxFetchSize = int64(5 * 1024 * 1024)

	defaultFetchTimeout = 30 * time.Second
)

// WebsiteLoader fetches a web page and renders it to markdown text.
// Script, style and navigation noise is stripped before conversion so
// the chunks carry readable prose.
type WebsiteLoader struct {
	client *http.Client
}

// NewWebsiteLoader creates a website loader with a default HTTP client.
func NewWebsiteLoader() *WebsiteLoader {
	return &WebsiteLoader{
		client: &http.Client{Timeout: defaultFetchTimeout},
	}
}

// Load fetches the URL and returns the page content as markdown.
func (l *WebsiteLoader) Load(ctx context.Context, url string) (string, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "", fmt.Errorf("url must start with http:// or https://")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "notelm-loader/1.0")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching url: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchSize))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	return htmlToText(string(body))
}

// htmlToText strips non-content elements and converts the body to
// markdown.
func htmlToText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parsing html: %w", err)
	}
	doc.Find("script, style, noscript, nav, iframe").Remove()

	body, err := doc.Find("body").Html()
	if err != nil || strings.TrimSpace(body) == "" {
		body = html
	}

	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(body)
	if err != nil {
		return "", fmt.Errorf("converting html: %w", err)
	}

	// Collapse runs of blank lines left by removed elements.
	lines := strings.Split(markdown, "\n")
	var kept []string
	blank := false
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if !blank {
				kept = append(kept, "")
			}
			blank = true
			continue
		}
		blank = false
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n")), nil
}
