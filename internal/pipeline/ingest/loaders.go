package ingest

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cloudwego/eino/schema"
	"github.com/tmc/langchaingo/documentloaders"
	lcschema "github.com/tmc/langchaingo/schema"

	"github.com/chative-router/server/internal/pipeline/model"
)

// DefaultSelector selects the whole page body.
const DefaultSelector = "body"

// TextLoader loads a plain text file as one document.
func TextLoader(ctx context.Context, path string) ([]*schema.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	docs, err := documentloaders.NewText(f).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return fromLangchain(docs, path), nil
}

// WebLoader fetches url and keeps the text of the elements matching selector.
func WebLoader(ctx context.Context, client *http.Client, url, selector string) ([]*schema.Document, error) {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if selector == "" {
		selector = DefaultSelector
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	page, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	page.Find("script, style, noscript").Remove()

	var parts []string
	page.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if text := strings.Join(strings.Fields(s.Text()), " "); text != "" {
			parts = append(parts, text)
		}
	})
	if len(parts) == 0 {
		return nil, fmt.Errorf("fetch %s: no text matched %q", url, selector)
	}

	doc := &schema.Document{
		Content:  strings.Join(parts, "\n\n"),
		MetaData: map[string]any{model.MetaSource: url},
	}
	if title := strings.TrimSpace(page.Find("title").First().Text()); title != "" {
		doc.MetaData["title"] = title
	}
	return []*schema.Document{doc}, nil
}

func fromLangchain(docs []lcschema.Document, source string) []*schema.Document {
	out := make([]*schema.Document, 0, len(docs))
	for _, d := range docs {
		meta := make(map[string]any, len(d.Metadata)+1)
		for k, v := range d.Metadata {
			meta[k] = v
		}
		if _, ok := meta[model.MetaSource]; !ok && source != "" {
			meta[model.MetaSource] = source
		}
		out = append(out, &schema.Document{Content: d.PageContent, MetaData: meta})
	}
	return out
}

func toLangchain(docs []*schema.Document) []lcschema.Document {
	out := make([]lcschema.Document, 0, len(docs))
	for _, d := range docs {
		if d == nil {
			continue
		}
		meta := make(map[string]any, len(d.MetaData))
		for k, v := range d.MetaData {
			meta[k] = v
		}
		out = append(out, lcschema.Document{PageContent: d.Content, Metadata: meta})
	}
	return out
}
