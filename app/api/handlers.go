package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/marketbrief/marketbrief/app/cfg"
	"github.com/marketbrief/marketbrief/app/database"
	"github.com/marketbrief/marketbrief/app/fetch"
	"github.com/marketbrief/marketbrief/app/holdings"
	"github.com/marketbrief/marketbrief/app/news"
	"github.com/marketbrief/marketbrief/app/tasks"
)

const defaultMinScore = 40

func NewHandler(articleRepo database.ArticleRepository, holdingsCache *holdings.Cache,
	orchestrator *fetch.Orchestrator, scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		articleRepo:   articleRepo,
		holdingsCache: holdingsCache,
		orchestrator:  orchestrator,
		scheduler:     scheduler,
		maxArticles:   cfg.Get().MaxArticles,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if count, err := h.articleRepo.GetArticleCount(); err == nil {
		health["articles"] = count
	}

	health["holdings"] = h.holdingsCache.Count()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	count, err := h.articleRepo.GetArticleCount()
	if err != nil {
		slog.Error("Database error", "operation", "get_article_count", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": count,
		"holdings": h.holdingsCache.Count(),
	})
}

// SearchArticles handles GET /articles/search?q=...
func (h *Handler) SearchArticles(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing q parameter"})
		return
	}

	articles, err := h.articleRepo.Search(query, database.QueryOptions{
		From:    parseTimeParam(c.Query("from")),
		To:      parseTimeParam(c.Query("to")),
		Limit:   parseIntParam(c.Query("limit")),
		Sources: splitListParam(c.Query("sources")),
	})
	if err != nil {
		slog.Error("Database error", "operation", "search", "query", query, "error", err)
		articles = nil
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": toArticleResponses(articles),
		"total":    len(articles),
	})
}

// GetArticles handles GET /articles?urls=a,b
func (h *Handler) GetArticles(c *gin.Context) {
	urls := splitListParam(c.Query("urls"))
	if len(urls) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing urls parameter"})
		return
	}

	articles, err := h.articleRepo.GetByURLs(urls)
	if err != nil {
		slog.Error("Database error", "operation", "get_by_urls", "error", err)
		articles = nil
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": toArticleResponses(articles),
		"total":    len(articles),
	})
}

// GetFeed handles GET /feed: the ranked, holdings-gated view. Tickers come
// from the request when given, otherwise from the configured holdings.
func (h *Handler) GetFeed(c *gin.Context) {
	tracked := h.holdingsCache.GetHoldings()
	if tickers := splitListParam(c.Query("tickers")); len(tickers) > 0 {
		tracked = make([]news.Holding, 0, len(tickers))
		for _, ticker := range tickers {
			tracked = append(tracked, news.Holding{Ticker: ticker})
		}
	}

	minScore := float64(defaultMinScore)
	if raw := c.Query("min_score"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
			minScore = parsed
		}
	}

	articles, err := h.articleRepo.GetFeed(database.FeedOptions{
		Limit:    parseIntParam(c.Query("limit")),
		From:     parseTimeParam(c.Query("from")),
		To:       parseTimeParam(c.Query("to")),
		Sources:  splitListParam(c.Query("sources")),
		MinScore: minScore,
		Holdings: tracked,
	})
	if err != nil {
		slog.Error("Database error", "operation", "get_feed", "error", err)
		articles = nil
	}

	c.JSON(http.StatusOK, gin.H{
		"articles":  toArticleResponses(articles),
		"total":     len(articles),
		"min_score": minScore,
	})
}

// APIRefresh enqueues an immediate holdings refresh.
func (h *Handler) APIRefresh(c *gin.Context) {
	if h.holdingsCache.Count() == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No holdings configured"})
		return
	}

	task := tasks.NewRefreshHoldingsTask(h.holdingsCache, h.orchestrator, h.maxArticles)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing refresh task", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue refresh task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"task": gin.H{
			"id":   task.ID,
			"type": task.Type,
		},
	})
}

// APICleanup deletes articles older than the given number of days.
func (h *Handler) APICleanup(c *gin.Context) {
	days := parseIntParam(c.Query("days"))
	if days <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid days parameter"})
		return
	}

	deleted, err := h.articleRepo.DeleteOlderThan(days)
	if err != nil {
		slog.Error("Database error", "operation", "cleanup", "days", days, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"deleted": deleted,
	})
}

// APIClearArticles deletes every stored article.
func (h *Handler) APIClearArticles(c *gin.Context) {
	deleted, err := h.articleRepo.DeleteAll()
	if err != nil {
		slog.Error("Database error", "operation", "clear_articles", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to clear articles",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"deleted": deleted,
	})
}

// APIReloadHoldings re-reads the holdings file.
func (h *Handler) APIReloadHoldings(c *gin.Context) {
	if err := h.holdingsCache.Reload(); err != nil {
		slog.Error("Error reloading holdings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to reload holdings",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"holdings": h.holdingsCache.Count(),
	})
}

// parseTimeParam accepts RFC3339 timestamps or bare dates.
func parseTimeParam(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts.UTC()
	}
	if ts, err := time.Parse("2006-01-02", value); err == nil {
		return ts.UTC()
	}
	return time.Time{}
}

func parseIntParam(value string) int {
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return 0
	}
	return parsed
}

func splitListParam(value string) []string {
	if value == "" {
		return nil
	}
	var values []string
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			values = append(values, entry)
		}
	}
	return values
}
