package database

import (
	"cmp"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/marketbrief/marketbrief/app/news"
)

var _ ArticleRepository = (*SQLArticleRepository)(nil)

// SQLArticleRepository handles database operations for articles.
type SQLArticleRepository struct {
	db *DB
}

// NewArticleRepository creates a new article repository
func NewArticleRepository(db *DB) *SQLArticleRepository {
	return &SQLArticleRepository{db: db}
}

const defaultQueryLimit = 50

// Timestamps are stored as fixed-width RFC3339 UTC text so SQL range
// filters and ordering compare chronologically.
func timeToDB(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseStoredTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

const articleColumns = `url, source_id, source_name, feed_source, searched_by,
	author, title, description, url_to_image, content,
	published_at, last_scraped_at, scrape_count, created_at,
	summary_enriched, summary_short, summary_medium, summary_long,
	why_it_matters, personalized_teaser, relevance_scores,
	triage_reason, triage_score, should_enrich,
	status, impact_score, profile_adjusted_score, final_rank_score,
	event_type, sentiment, sentiment_label,
	risk_score, opportunity_score, volatility_score,
	matched_tickers, matched_sectors, matched_holdings,
	is_primary_in_cluster, cluster_id, personalized_title`

// UpsertArticles writes a batch atomically, applying the per-field merge
// policy on URL conflicts. Rows without a URL or title are skipped and
// counted; a per-row failure is skipped without aborting the batch.
func (r *SQLArticleRepository) UpsertArticles(articles []news.Article, searchedBy string) (UpsertResult, error) {
	var result UpsertResult
	if len(articles) == 0 {
		return result, nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return result, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	for _, article := range articles {
		if article.URL == "" || article.Title == "" {
			slog.Warn("Skipping invalid article", "url", article.URL, "has_title", article.Title != "")
			result.Skipped++
			continue
		}

		if article.PublishedAt.IsZero() {
			article.PublishedAt = now
		}
		if searchedBy != "" {
			article.SearchedBy = news.MergeSearchedBy(article.SearchedBy, searchedBy)
		}

		if err := r.upsertOne(tx, article, now); err != nil {
			slog.Error("Failed to upsert article", "url", article.URL, "error", err)
			result.Skipped++
			continue
		}
		result.Saved++
	}

	if err := tx.Commit(); err != nil {
		return UpsertResult{}, fmt.Errorf("failed to commit batch: %w", err)
	}

	return result, nil
}

func (r *SQLArticleRepository) upsertOne(tx *sql.Tx, article news.Article, now time.Time) error {
	var (
		storedPublished  string
		storedSearchedBy string
		storedFeedSource string
		storedDesc       string
		storedContent    string
	)

	err := tx.QueryRow(`
		SELECT published_at, searched_by, feed_source, description, content
		FROM articles WHERE url = ?
	`, article.URL).Scan(&storedPublished, &storedSearchedBy, &storedFeedSource, &storedDesc, &storedContent)

	if err == sql.ErrNoRows {
		_, err = tx.Exec(`
			INSERT INTO articles (
				url, source_id, source_name, feed_source, searched_by,
				author, title, description, url_to_image, content,
				published_at, last_scraped_at, scrape_count
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
		`, article.URL, article.Source.ID, article.Source.Name, article.FeedSource, article.SearchedBy,
			article.Author, article.Title, article.Description, article.URLToImage, article.Content,
			timeToDB(article.PublishedAt), timeToDB(now))
		if err != nil {
			return fmt.Errorf("failed to insert article: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check existing article: %w", err)
	}

	// Conflict: merge into the existing row. description/content keep the
	// stored value unless the incoming one is non-empty; published_at only
	// moves earlier; searched_by only grows; feed_source keeps the first
	// writer. Enrichment columns are never touched by this path.
	publishedAt := parseStoredTime(storedPublished)
	if !article.PublishedAt.IsZero() && article.PublishedAt.Before(publishedAt) {
		publishedAt = article.PublishedAt
	}

	searchedBy := storedSearchedBy
	for _, token := range strings.Split(article.SearchedBy, ",") {
		searchedBy = news.MergeSearchedBy(searchedBy, token)
	}

	_, err = tx.Exec(`
		UPDATE articles SET
			source_id = ?, source_name = ?, author = ?, title = ?, url_to_image = ?,
			description = ?, content = ?, published_at = ?, searched_by = ?,
			feed_source = ?, last_scraped_at = ?, scrape_count = scrape_count + 1
		WHERE url = ?
	`, article.Source.ID, article.Source.Name, article.Author, article.Title, article.URLToImage,
		cmp.Or(article.Description, storedDesc), cmp.Or(article.Content, storedContent),
		timeToDB(publishedAt), searchedBy,
		cmp.Or(storedFeedSource, article.FeedSource), timeToDB(now),
		article.URL)
	if err != nil {
		return fmt.Errorf("failed to update article: %w", err)
	}

	return nil
}

// ExistingURLs returns which of the given URLs are already stored. The
// check is advisory: a query failure degrades to an empty set.
func (r *SQLArticleRepository) ExistingURLs(urls []string) map[string]struct{} {
	existing := make(map[string]struct{})
	if len(urls) == 0 {
		return existing
	}

	placeholders := strings.Repeat("?,", len(urls)-1) + "?"
	args := make([]interface{}, len(urls))
	for i, u := range urls {
		args[i] = u
	}

	rows, err := r.db.Query("SELECT url FROM articles WHERE url IN ("+placeholders+")", args...)
	if err != nil {
		slog.Error("Database error", "operation", "existing_urls", "error", err)
		return existing
	}
	defer rows.Close()

	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			slog.Error("Database error", "operation", "existing_urls_scan", "error", err)
			return map[string]struct{}{}
		}
		existing[u] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		slog.Error("Database error", "operation", "existing_urls_rows", "error", err)
		return map[string]struct{}{}
	}

	return existing
}

// GetByURLs returns the stored articles for the given URLs, newest first.
func (r *SQLArticleRepository) GetByURLs(urls []string) ([]Article, error) {
	if len(urls) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(urls)-1) + "?"
	args := make([]interface{}, len(urls))
	for i, u := range urls {
		args[i] = u
	}

	query := "SELECT " + articleColumns + " FROM articles WHERE url IN (" + placeholders + ") ORDER BY published_at DESC"
	return r.queryArticles(query, args, shapeArticle)
}

// Search returns stored articles whose title, description or content match
// the free-text query, optionally narrowed by date range and sources.
func (r *SQLArticleRepository) Search(query string, opts QueryOptions) ([]Article, error) {
	where := []string{`(title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\' OR content LIKE ? ESCAPE '\')`}
	pattern := "%" + escapeLike(query) + "%"
	args := []interface{}{pattern, pattern, pattern}

	appendRangeFilter(&where, &args, opts.From, opts.To)
	appendSourceFilter(&where, &args, opts.Sources)

	sqlQuery := "SELECT " + articleColumns + " FROM articles WHERE " + strings.Join(where, " AND ") +
		" ORDER BY published_at DESC LIMIT ?"
	args = append(args, cmp.Or(opts.Limit, defaultQueryLimit))

	return r.queryArticles(sqlQuery, args, shapeArticle)
}

// escapeLike neutralizes LIKE metacharacters so the free-text query matches
// literally instead of acting as a pattern.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

// GetForHoldings returns stored articles whose searched_by contains any of
// the holdings' tickers as a whole comma-delimited token.
func (r *SQLArticleRepository) GetForHoldings(holdings []news.Holding, opts QueryOptions) ([]Article, error) {
	if len(holdings) == 0 {
		return nil, nil
	}

	var where []string
	var args []interface{}
	appendHoldingsFilter(&where, &args, holdings)
	if len(where) == 0 {
		// Holdings without usable tickers cannot match anything.
		return nil, nil
	}
	appendRangeFilter(&where, &args, opts.From, opts.To)
	appendSourceFilter(&where, &args, opts.Sources)

	sqlQuery := "SELECT " + articleColumns + " FROM articles WHERE " + strings.Join(where, " AND ") +
		" ORDER BY published_at DESC LIMIT ?"
	args = append(args, cmp.Or(opts.Limit, defaultQueryLimit))

	return r.queryArticles(sqlQuery, args, shapeArticle)
}

// GetFeed returns the ranked, holdings-gated feed view. Calling it without
// holdings is a degraded mode and logs a warning.
func (r *SQLArticleRepository) GetFeed(opts FeedOptions) ([]Article, error) {
	where := []string{
		"status IN ('personalized', 'ranked')",
		"(final_rank_score IS NOT NULL OR profile_adjusted_score IS NOT NULL)",
		"COALESCE(final_rank_score, profile_adjusted_score) >= ?",
	}
	args := []interface{}{opts.MinScore}

	if len(opts.Holdings) == 0 {
		slog.Warn("Feed requested without holdings, relevance gating disabled")
	} else {
		appendHoldingsFilter(&where, &args, opts.Holdings)
	}

	appendRangeFilter(&where, &args, opts.From, opts.To)
	appendSourceFilter(&where, &args, opts.Sources)

	sqlQuery := "SELECT " + articleColumns + " FROM articles WHERE " + strings.Join(where, " AND ") + `
		ORDER BY COALESCE(final_rank_score, profile_adjusted_score) DESC,
			profile_adjusted_score DESC,
			published_at DESC
		LIMIT ?`
	args = append(args, cmp.Or(opts.Limit, defaultQueryLimit))

	return r.queryArticles(sqlQuery, args, shapeFeedArticle)
}

// GetArticleCount returns the total number of stored articles
func (r *SQLArticleRepository) GetArticleCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM articles").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get article count: %w", err)
	}
	return count, nil
}

// DeleteOlderThan deletes articles published more than daysToKeep days ago.
func (r *SQLArticleRepository) DeleteOlderThan(daysToKeep int) (int, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -daysToKeep)

	result, err := r.db.Exec("DELETE FROM articles WHERE published_at < ?", timeToDB(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to delete old articles: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rowsAffected), nil
}

// DeleteAll removes every stored article. Unlike the other operations the
// error propagates: callers of a destructive operation need to know it did
// not complete.
func (r *SQLArticleRepository) DeleteAll() (int, error) {
	result, err := r.db.Exec("DELETE FROM articles")
	if err != nil {
		return 0, fmt.Errorf("failed to clear articles: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rowsAffected), nil
}

// GetArticlesMissingContent returns recently published articles whose full
// content has not been captured yet.
func (r *SQLArticleRepository) GetArticlesMissingContent(limit int) ([]ArticleForExtraction, error) {
	rows, err := r.db.Query(`
		SELECT url FROM articles
		WHERE content = ''
		ORDER BY published_at DESC
		LIMIT ?
	`, cmp.Or(limit, defaultQueryLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to get articles missing content: %w", err)
	}
	defer rows.Close()

	var items []ArticleForExtraction
	for rows.Next() {
		var item ArticleForExtraction
		if err := rows.Scan(&item.URL); err != nil {
			return nil, fmt.Errorf("failed to scan extraction row: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating extraction rows: %w", err)
	}

	return items, nil
}

// UpdateExtractedContent fills in extracted content, but only while the
// stored content is still empty so it never clobbers provider content.
func (r *SQLArticleRepository) UpdateExtractedContent(url string, content string) error {
	_, err := r.db.Exec(`
		UPDATE articles SET content = ? WHERE url = ? AND content = ''
	`, content, url)
	if err != nil {
		return fmt.Errorf("failed to update extracted content: %w", err)
	}
	return nil
}

func (r *SQLArticleRepository) queryArticles(query string, args []interface{}, shape func(*Article)) ([]Article, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		shape(&article)
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}

func scanArticle(rows *sql.Rows) (Article, error) {
	var a Article
	var publishedAt, lastScrapedAt, createdAt string
	var summaryEnriched, summaryShort, summaryMedium, summaryLong sql.NullString
	var whyItMatters, personalizedTeaser, relevanceScores sql.NullString
	var triageReason, status, eventType, sentimentLabel sql.NullString
	var matchedTickers, matchedSectors, matchedHoldings sql.NullString
	var clusterID, personalizedTitle sql.NullString
	var triageScore, impactScore, profileAdjustedScore, finalRankScore sql.NullFloat64
	var sentiment, riskScore, opportunityScore, volatilityScore sql.NullFloat64
	var shouldEnrich, isPrimaryInCluster sql.NullBool

	err := rows.Scan(
		&a.URL, &a.Source.ID, &a.Source.Name, &a.FeedSource, &a.SearchedBy,
		&a.Author, &a.Title, &a.Description, &a.URLToImage, &a.Content,
		&publishedAt, &lastScrapedAt, &a.ScrapeCount, &createdAt,
		&summaryEnriched, &summaryShort, &summaryMedium, &summaryLong,
		&whyItMatters, &personalizedTeaser, &relevanceScores,
		&triageReason, &triageScore, &shouldEnrich,
		&status, &impactScore, &profileAdjustedScore, &finalRankScore,
		&eventType, &sentiment, &sentimentLabel,
		&riskScore, &opportunityScore, &volatilityScore,
		&matchedTickers, &matchedSectors, &matchedHoldings,
		&isPrimaryInCluster, &clusterID, &personalizedTitle,
	)
	if err != nil {
		return Article{}, err
	}

	a.PublishedAt = parseStoredTime(publishedAt)
	a.LastScrapedAt = parseStoredTime(lastScrapedAt)
	a.CreatedAt = parseStoredTime(createdAt)

	a.SummaryEnriched = summaryEnriched.String
	a.SummaryShort = summaryShort.String
	a.SummaryMedium = summaryMedium.String
	a.SummaryLong = summaryLong.String
	a.WhyItMatters = whyItMatters.String
	a.PersonalizedTeaser = personalizedTeaser.String
	a.RelevanceScores = decodeScores(relevanceScores)

	a.TriageReason = triageReason.String
	a.TriageScore = nullFloat(triageScore)
	a.ShouldEnrich = nullBool(shouldEnrich)

	a.Status = status.String
	a.ImpactScore = nullFloat(impactScore)
	a.ProfileAdjustedScore = nullFloat(profileAdjustedScore)
	a.FinalRankScore = nullFloat(finalRankScore)
	a.EventType = eventType.String
	a.Sentiment = nullFloat(sentiment)
	a.SentimentLabel = sentimentLabel.String
	a.RiskScore = nullFloat(riskScore)
	a.OpportunityScore = nullFloat(opportunityScore)
	a.VolatilityScore = nullFloat(volatilityScore)
	a.MatchedTickers = decodeStringList(matchedTickers)
	a.MatchedSectors = decodeStringList(matchedSectors)
	a.MatchedHoldings = decodeStringList(matchedHoldings)
	a.IsPrimaryInCluster = nullBool(isPrimaryInCluster)
	a.ClusterID = clusterID.String
	a.PersonalizedTitle = personalizedTitle.String

	return a, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullBool(v sql.NullBool) *bool {
	if !v.Valid {
		return nil
	}
	b := v.Bool
	return &b
}

// appendHoldingsFilter matches a ticker as a whole comma-delimited token of
// searched_by, not as an arbitrary substring.
func appendHoldingsFilter(where *[]string, args *[]interface{}, holdings []news.Holding) {
	clauses := make([]string, 0, len(holdings))
	for _, holding := range holdings {
		ticker := strings.ToUpper(strings.TrimSpace(holding.Ticker))
		if ticker == "" {
			continue
		}
		clauses = append(clauses, "(',' || searched_by || ',') LIKE ?")
		*args = append(*args, "%,"+ticker+",%")
	}
	if len(clauses) > 0 {
		*where = append(*where, "("+strings.Join(clauses, " OR ")+")")
	}
}

func appendRangeFilter(where *[]string, args *[]interface{}, from, to time.Time) {
	if !from.IsZero() {
		*where = append(*where, "published_at >= ?")
		*args = append(*args, timeToDB(from))
	}
	if !to.IsZero() {
		*where = append(*where, "published_at <= ?")
		*args = append(*args, timeToDB(to))
	}
}

func appendSourceFilter(where *[]string, args *[]interface{}, sources []string) {
	if len(sources) == 0 {
		return
	}
	placeholders := strings.Repeat("?,", len(sources)-1) + "?"
	*where = append(*where, "feed_source IN ("+placeholders+")")
	for _, source := range sources {
		*args = append(*args, strings.ToLower(strings.TrimSpace(source)))
	}
}
