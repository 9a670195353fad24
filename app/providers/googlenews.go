package providers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/rss"

	"github.com/marketbrief/marketbrief/app/news"
)

const (
	googleNewsDefaultBaseURL = "https://news.google.com/rss/search"
	googleNewsLabel          = "Google News"
)

// GoogleNews fetches articles from the Google News search RSS feed. Item
// links are Google redirect URLs and are stored as-is.
type GoogleNews struct {
	client    *http.Client
	parser    *gofeed.Parser
	userAgent string
	baseURL   string
}

func NewGoogleNews(client *http.Client, userAgent string) *GoogleNews {
	parser := gofeed.NewParser()
	parser.RSSTranslator = &sourceTagTranslator{defaultTranslator: &gofeed.DefaultRSSTranslator{}}

	return &GoogleNews{
		client:    client,
		parser:    parser,
		userAgent: userAgent,
		baseURL:   googleNewsDefaultBaseURL,
	}
}

// sourceTagTranslator wraps the default RSS translator to surface each
// item's <source> element, which the default translator drops. Google News
// items carry the publisher name there.
type sourceTagTranslator struct {
	defaultTranslator *gofeed.DefaultRSSTranslator
}

func (t *sourceTagTranslator) Translate(feed interface{}) (*gofeed.Feed, error) {
	rssFeed, ok := feed.(*rss.Feed)
	if !ok {
		return nil, fmt.Errorf("feed is not an RSS feed")
	}

	translated, err := t.defaultTranslator.Translate(rssFeed)
	if err != nil {
		return nil, err
	}

	for i, item := range rssFeed.Items {
		if i >= len(translated.Items) || item.Source == nil || item.Source.Title == "" {
			continue
		}
		if translated.Items[i].Custom == nil {
			translated.Items[i].Custom = make(map[string]string)
		}
		translated.Items[i].Custom["source"] = item.Source.Title
	}

	return translated, nil
}

func (p *GoogleNews) Tag() string {
	return news.FeedSourceGoogleNews
}

func (p *GoogleNews) Fetch(ctx context.Context, query string, opts news.FetchOptions) []news.Article {
	params := url.Values{}
	params.Set("q", query)
	params.Set("hl", "en-US")
	params.Set("gl", "US")
	params.Set("ceid", "US:en")

	data, err := p.fetchFeed(ctx, p.baseURL+"?"+params.Encode())
	if err != nil {
		slog.Error("Google News fetch failed", "query", query, "error", err)
		return nil
	}

	feed, err := p.parser.Parse(bytes.NewReader(data))
	if err != nil {
		slog.Error("Google News feed parse failed", "query", query, "error", err)
		return nil
	}

	articles := make([]news.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil || item.Title == "" {
			continue
		}
		articles = append(articles, p.normalizeItem(item))
	}

	return capArticles(articles, opts.MaxArticles)
}

// normalizeItem maps a feed item (RSS item or Atom entry) to the canonical
// article shape: description HTML is stripped for storage after recovering
// an embedded image URL, and the publisher name is resolved best-effort.
func (p *GoogleNews) normalizeItem(item *gofeed.Item) news.Article {
	article := news.Article{
		Title:      item.Title,
		URL:        item.Link,
		FeedSource: news.FeedSourceGoogleNews,
	}

	article.URLToImage = news.ExtractImageURL(item.Description)
	article.Description = news.StripHTML(item.Description)

	var creator string
	if item.DublinCoreExt != nil && len(item.DublinCoreExt.Creator) > 0 {
		creator = item.DublinCoreExt.Creator[0]
	}
	article.Source.Name = news.RecoverSourceName(item.Custom["source"], creator, item.Description, googleNewsLabel)

	if item.PublishedParsed != nil {
		article.PublishedAt = item.PublishedParsed.UTC()
	} else {
		article.PublishedAt = time.Now().UTC()
	}

	if len(item.Authors) > 0 && item.Authors[0] != nil {
		article.Author = item.Authors[0].Name
	}

	return article
}

func (p *GoogleNews) fetchFeed(ctx context.Context, requestURL string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
