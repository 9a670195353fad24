package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/marketbrief/marketbrief/app/database"
)

const extractBatchSize = 10

// ExtractContentTask backfills full article text for stored articles whose
// content is empty. It only ever fills the empty content column, so it
// cannot clobber provider content or pipeline enrichment.
type ExtractContentTask struct {
	Task
	httpClient  *http.Client
	articleRepo database.ArticleRepository
	userAgent   string
}

func NewExtractContentTask(httpClient *http.Client, articleRepo database.ArticleRepository, userAgent string) *ExtractContentTask {
	return &ExtractContentTask{
		Task:        NewTask(TaskTypeExtractContent, "articles"),
		httpClient:  httpClient,
		articleRepo: articleRepo,
		userAgent:   userAgent,
	}
}

func (t *ExtractContentTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	items, err := t.articleRepo.GetArticlesMissingContent(extractBatchSize)
	if err != nil {
		return fmt.Errorf("failed to get articles for content extraction: %w", err)
	}

	if len(items) == 0 {
		slog.Debug("No articles need content extraction")
		return nil
	}

	successCount := 0
	errorCount := 0

	for _, item := range items {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := t.extractContentForArticle(ctx, item); err != nil {
			slog.Debug("Failed to extract content for article", "url", item.URL, "error", err)
			errorCount++
		} else {
			successCount++
		}
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"duration", t.GetDuration(),
		"success", successCount,
		"errors", errorCount)

	return nil
}

func (t *ExtractContentTask) extractContentForArticle(ctx context.Context, item database.ArticleForExtraction) error {
	if item.URL == "" {
		return fmt.Errorf("article has no URL")
	}

	data, err := t.fetchArticleContent(ctx, item.URL)
	if err != nil {
		return fmt.Errorf("failed to fetch article content: %w", err)
	}

	article, err := readability.FromReader(strings.NewReader(string(data)), nil)
	if err != nil {
		return fmt.Errorf("failed to extract content: %w", err)
	}

	if article.TextContent == "" {
		return fmt.Errorf("no content extracted")
	}

	if err := t.articleRepo.UpdateExtractedContent(item.URL, article.TextContent); err != nil {
		return fmt.Errorf("failed to store extracted content: %w", err)
	}

	slog.Debug("Content extracted successfully", "url", item.URL, "content_length", len(article.TextContent))
	return nil
}

func (t *ExtractContentTask) fetchArticleContent(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return nil, fmt.Errorf("content type is not HTML: %s", contentType)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
