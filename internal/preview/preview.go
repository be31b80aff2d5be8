// Package preview fetches a short summary of the first link in a post
// so the operator can sanity-check what they are about to publish.
package preview

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/wasilibs/go-re2"

	"github.com/aatumaykin/crosspost/internal/config"
	"github.com/aatumaykin/crosspost/internal/logger"
)

// urlPattern matches the first http(s) URL in a post body.
var urlPattern = re2.MustCompile(`https?://\S+`)

// maxExcerptLength caps the markdown excerpt included in a preview.
const maxExcerptLength = 280

// Preview is a summary of a linked page.
type Preview struct {
	URL         string
	Title       string
	Description string
	Excerpt     string
}

// Fetcher downloads pages and extracts preview metadata.
type Fetcher struct {
	cfg    config.PreviewConfig
	client *http.Client
	logger *logger.Logger
}

// NewFetcher creates a preview fetcher.
func NewFetcher(cfg config.PreviewConfig, log *logger.Logger) *Fetcher {
	return &Fetcher{
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		logger: log,
	}
}

// FirstLink returns the first http(s) URL found in content, or "".
func FirstLink(content string) string {
	return urlPattern.FindString(content)
}

// ForContent finds the first link in content and fetches its preview.
// Returns nil when previews are disabled, the content has no link, or
// the fetch fails. Preview failures never block posting.
func (f *Fetcher) ForContent(ctx context.Context, content string) *Preview {
	if !f.cfg.Enabled {
		return nil
	}

	link := FirstLink(content)
	if link == "" {
		return nil
	}

	p, err := f.Fetch(ctx, link)
	if err != nil {
		f.logger.Warn("link preview failed",
			logger.Field{Key: "url", Value: link},
			logger.Field{Key: "error", Value: err.Error()})
		return nil
	}
	return p
}

// Fetch downloads the page at url and extracts its title, description
// and a short markdown excerpt.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Preview, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("url must start with http:// or https://")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "text/html") {
		return nil, fmt.Errorf("unsupported content type: %s", contentType)
	}

	if resp.ContentLength > f.cfg.MaxResponseSize {
		return nil, fmt.Errorf("response too large: %d bytes exceeds %d bytes limit",
			resp.ContentLength, f.cfg.MaxResponseSize)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return parsePage(url, string(body))
}

func parsePage(url, html string) (*Preview, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	p := &Preview{URL: url}

	p.Title = strings.TrimSpace(doc.Find("meta[property='og:title']").AttrOr("content", ""))
	if p.Title == "" {
		p.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	p.Description = strings.TrimSpace(doc.Find("meta[property='og:description']").AttrOr("content", ""))
	if p.Description == "" {
		p.Description = strings.TrimSpace(doc.Find("meta[name='description']").AttrOr("content", ""))
	}

	if p.Description == "" {
		p.Excerpt = htmlToExcerpt(html)
	}

	return p, nil
}

func htmlToExcerpt(html string) string {
	opts := &md.Options{
		HeadingStyle:    "atx",
		CodeBlockStyle:  "fenced",
		EmDelimiter:     "*",
		StrongDelimiter: "**",
	}

	converter := md.NewConverter("", true, opts)
	converter.Remove("nav", "footer", "aside", "script", "style")

	markdown, err := converter.ConvertString(html)
	if err != nil {
		return ""
	}

	markdown = strings.TrimSpace(markdown)
	if len(markdown) > maxExcerptLength {
		markdown = markdown[:maxExcerptLength] + "…"
	}
	return markdown
}

// Format renders a preview as text for a chat message.
func (p *Preview) Format() string {
	var sb strings.Builder
	sb.WriteString("🔍 Link preview:\n")
	if p.Title != "" {
		sb.WriteString(p.Title + "\n")
	}
	switch {
	case p.Description != "":
		sb.WriteString(p.Description + "\n")
	case p.Excerpt != "":
		sb.WriteString(p.Excerpt + "\n")
	}
	return sb.String()
}
