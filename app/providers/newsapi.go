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

const newsAPIDefaultBaseURL = "https://newsapi.org/v2"

type newsAPIResponse struct {
	Status   string           `json:"status"`
	Code     string           `json:"code"`
	Message  string           `json:"message"`
	Articles []newsAPIArticle `json:"articles"`
}

type newsAPIArticle struct {
	Source struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"source"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
	Content     string `json:"content"`
}

// NewsAPI fetches articles from the NewsAPI.org "everything" endpoint.
type NewsAPI struct {
	client    *http.Client
	apiKey    string
	userAgent string
	baseURL   string
}

func NewNewsAPI(client *http.Client, apiKey, userAgent string) *NewsAPI {
	return &NewsAPI{
		client:    client,
		apiKey:    apiKey,
		userAgent: userAgent,
		baseURL:   newsAPIDefaultBaseURL,
	}
}

func (p *NewsAPI) Tag() string {
	return news.FeedSourceNewsAPI
}

func (p *NewsAPI) Fetch(ctx context.Context, query string, opts news.FetchOptions) []news.Article {
	if p.apiKey == "" {
		slog.Warn("NewsAPI key not configured, skipping fetch", "query", query)
		return nil
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("language", "en")
	if opts.SortBy != "" {
		params.Set("sortBy", opts.SortBy)
	} else {
		params.Set("sortBy", "publishedAt")
	}
	if opts.Page > 0 {
		params.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.MaxArticles > 0 {
		params.Set("pageSize", strconv.Itoa(opts.MaxArticles))
	}
	if !opts.From.IsZero() {
		params.Set("from", opts.From.UTC().Format("2006-01-02"))
	}
	if !opts.To.IsZero() {
		params.Set("to", opts.To.UTC().Format("2006-01-02"))
	}

	var response newsAPIResponse
	err := p.getJSON(ctx, p.baseURL+"/everything?"+params.Encode(), &response)
	if err != nil {
		slog.Error("NewsAPI fetch failed", "query", query, "error", err)
		return nil
	}

	if response.Status != "ok" {
		slog.Error("NewsAPI returned error status", "query", query, "code", response.Code, "message", response.Message)
		return nil
	}

	articles := make([]news.Article, 0, len(response.Articles))
	for _, raw := range response.Articles {
		article := news.Article{
			Source:      news.Source{ID: raw.Source.ID, Name: raw.Source.Name},
			Author:      raw.Author,
			Title:       raw.Title,
			Description: raw.Description,
			URL:         raw.URL,
			URLToImage:  raw.URLToImage,
			Content:     raw.Content,
			PublishedAt: parseTimestamp(raw.PublishedAt, time.RFC3339),
			FeedSource:  news.FeedSourceNewsAPI,
		}
		if article.Source.Name == "" {
			article.Source.Name = "Unknown"
		}
		articles = append(articles, article)
	}

	return capArticles(articles, opts.MaxArticles)
}

func (p *NewsAPI) getJSON(ctx context.Context, requestURL string, target interface{}) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", requestURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("X-Api-Key", p.apiKey)

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
