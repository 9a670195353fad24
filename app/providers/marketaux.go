package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/marketbrief/marketbrief/app/news"
)

const marketauxDefaultBaseURL = "https://api.marketaux.com/v1"

type marketauxResponse struct {
	Data []marketauxArticle `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type marketauxArticle struct {
	UUID        string `json:"uuid"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Snippet     string `json:"snippet"`
	URL         string `json:"url"`
	ImageURL    string `json:"image_url"`
	PublishedAt string `json:"published_at"`
	Source      string `json:"source"`
}

// Marketaux fetches articles from the Marketaux news API.
type Marketaux struct {
	client    *http.Client
	apiToken  string
	userAgent string
	baseURL   string
}

func NewMarketaux(client *http.Client, apiToken, userAgent string) *Marketaux {
	return &Marketaux{
		client:    client,
		apiToken:  apiToken,
		userAgent: userAgent,
		baseURL:   marketauxDefaultBaseURL,
	}
}

func (p *Marketaux) Tag() string {
	return news.FeedSourceMarketaux
}

func (p *Marketaux) Fetch(ctx context.Context, query string, opts news.FetchOptions) []news.Article {
	if p.apiToken == "" {
		slog.Warn("Marketaux API token not configured, skipping fetch", "query", query)
		return nil
	}

	params := url.Values{}
	params.Set("search", query)
	params.Set("language", "en")
	params.Set("api_token", p.apiToken)
	if opts.Category != "" {
		params.Set("industries", opts.Category)
	}
	if opts.Page > 0 {
		params.Set("page", strconv.Itoa(opts.Page))
	}
	if !opts.From.IsZero() {
		params.Set("published_after", opts.From.UTC().Format("2006-01-02T15:04"))
	}
	if !opts.To.IsZero() {
		params.Set("published_before", opts.To.UTC().Format("2006-01-02T15:04"))
	}

	var response marketauxResponse
	err := p.getJSON(ctx, p.baseURL+"/news/all?"+params.Encode(), &response)
	if err != nil {
		slog.Error("Marketaux fetch failed", "query", query, "error", err)
		return nil
	}

	if response.Error != nil {
		slog.Error("Marketaux returned error", "query", query, "code", response.Error.Code, "message", response.Error.Message)
		return nil
	}

	articles := make([]news.Article, 0, len(response.Data))
	for _, raw := range response.Data {
		article := news.Article{
			Source:      news.Source{ID: raw.UUID, Name: raw.Source},
			Title:       raw.Title,
			Description: raw.Description,
			URL:         raw.URL,
			URLToImage:  raw.ImageURL,
			Content:     raw.Snippet,
			PublishedAt: parseTimestamp(raw.PublishedAt, time.RFC3339, "2006-01-02T15:04:05.000000Z"),
			FeedSource:  news.FeedSourceMarketaux,
		}
		if article.Source.Name == "" {
			article.Source.Name = "Unknown"
		}
		articles = append(articles, article)
	}

	return capArticles(articles, opts.MaxArticles)
}

func (p *Marketaux) getJSON(ctx context.Context, requestURL string, target interface{}) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", requestURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch articles: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
