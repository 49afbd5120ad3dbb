package article

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const (
	// PathDirect means the page carried structural article markup
	// (<article>/<main>) and the body came straight from it.
	PathDirect = "direct"
	// PathFallback means the extractor fell back to scanning every
	// paragraph on the page.
	PathFallback = "fallback"

	maxBodyBytes = 2 << 20
)

var ErrNoContent = errors.New("no readable article content")

type Extract struct {
	URL   string
	Title string
	Text  string
	Path  string
}

// Client fetches a page and reduces it to plain article text.
type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{httpClient: &http.Client{Timeout: timeout}}
}

func (c *Client) Fetch(ctx context.Context, rawURL string) (Extract, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return Extract{}, fmt.Errorf("invalid article url %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return Extract{}, err
	}
	req.Header.Set("User-Agent", "orbit/1.0 (+article analysis)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Extract{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Extract{}, fmt.Errorf("fetch %s: status %d", parsed.Host, resp.StatusCode)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Extract{}, fmt.Errorf("parse html: %w", err)
	}

	extract := Reduce(doc)
	extract.URL = parsed.String()
	if extract.Text == "" {
		return extract, ErrNoContent
	}
	return extract, nil
}

// Reduce walks a parsed document and pulls out title and body text. Exported
// separately so page content handed over by the browser extension can reuse
// the same reduction.
func Reduce(doc *html.Node) Extract {
	title := findTitle(doc)

	var container *html.Node
	walk(doc, func(n *html.Node) bool {
		if container != nil {
			return false
		}
		if n.Type == html.ElementNode && (n.Data == "article" || n.Data == "main") {
			container = n
			return false
		}
		return true
	})

	path := PathDirect
	root := container
	if root == nil {
		path = PathFallback
		root = doc
	}

	var paragraphs []string
	walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "nav", "aside", "footer", "header", "form", "noscript":
				return false
			case "p":
				if text := collapse(textOf(n)); len(text) > 40 {
					paragraphs = append(paragraphs, text)
				}
				return false
			}
		}
		return true
	})

	return Extract{
		Title: title,
		Text:  strings.Join(paragraphs, "\n\n"),
		Path:  path,
	}
}

func findTitle(doc *html.Node) string {
	var title string
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		if n.Data == "meta" {
			var property, content string
			for _, attr := range n.Attr {
				switch attr.Key {
				case "property", "name":
					property = attr.Val
				case "content":
					content = attr.Val
				}
			}
			if property == "og:title" && content != "" {
				title = collapse(content)
				return false
			}
		}
		if n.Data == "title" && title == "" {
			title = collapse(textOf(n))
		}
		return true
	})
	return title
}

// walk visits nodes depth-first; the callback returns false to prune the
// subtree (and, for container search, to stop descending further).
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		walk(child, fn)
	}
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(child *html.Node) bool {
		if child.Type == html.TextNode {
			sb.WriteString(child.Data)
			sb.WriteString(" ")
		}
		return true
	})
	return sb.String()
}

func collapse(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
