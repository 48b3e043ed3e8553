package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mmcdole/gofeed"

	"github.com/seenimoa/marketlyst/pkg/models"
)

// NewsSource returns a bounded list of articles matching a query. An
// empty query means general business/market news.
type NewsSource interface {
	Name() string
	GetNews(ctx context.Context, query string, limit int) ([]models.NewsArticle, error)
}

// ── NewsData.io ──

// NewsDataClient fetches business news from the NewsData.io API.
type NewsDataClient struct {
	client *resty.Client
	apiKey string
}

// NewNewsDataClient creates a NewsData.io client.
func NewNewsDataClient(apiKey string) *NewsDataClient {
	client := resty.New()
	client.SetBaseURL("https://newsdata.io/api/1")
	client.SetTimeout(10 * time.Second)

	return &NewsDataClient{client: client, apiKey: apiKey}
}

// Name returns the source identifier.
func (c *NewsDataClient) Name() string { return "NewsData.io" }

type newsDataResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		PubDate     string `json:"pubDate"`
	} `json:"results"`
}

// GetNews fetches English business articles. A non-empty query narrows
// results to that company or topic. The API caps size at 5 per request.
func (c *NewsDataClient) GetNews(ctx context.Context, query string, limit int) ([]models.NewsArticle, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if limit <= 0 || limit > 5 {
		limit = 5
	}

	params := map[string]string{
		"apikey":   c.apiKey,
		"category": "business",
		"language": "en",
		"size":     strconv.Itoa(limit),
	}
	if query != "" {
		params["q"] = query
	}

	var result newsDataResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&result).
		Get("/news")
	if err != nil {
		return nil, fmt.Errorf("newsdata request: %w", err)
	}
	if resp.StatusCode() == 429 {
		return nil, ErrRateLimited
	}
	if resp.StatusCode() >= 400 {
		return nil, &ErrHTTP{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}

	articles := make([]models.NewsArticle, 0, len(result.Results))
	for _, r := range result.Results {
		if r.Title == "" || r.Description == "" {
			continue
		}
		articles = append(articles, models.NewsArticle{
			Title:       r.Title,
			Description: r.Description,
			Source:      c.Name(),
			PublishedAt: parseNewsTime(r.PubDate),
		})
		if len(articles) >= limit {
			break
		}
	}
	return articles, nil
}

// ── Finage ──

// FinageClient fetches forex and market news from the Finage API.
type FinageClient struct {
	client *resty.Client
	apiKey string
}

// NewFinageClient creates a Finage news client.
func NewFinageClient(apiKey string) *FinageClient {
	client := resty.New()
	client.SetBaseURL("https://api.finage.co.uk")
	client.SetTimeout(10 * time.Second)

	return &FinageClient{client: client, apiKey: apiKey}
}

// Name returns the source identifier.
func (c *FinageClient) Name() string { return "Finage" }

type finageArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Summary     string `json:"summary"`
	Date        string `json:"date"`
}

type finageResponse struct {
	News []finageArticle `json:"news"`
}

// GetNews fetches market news. Finage has no free-text search on this
// endpoint, so the query is ignored; the aggregator uses it for general
// market coverage only.
func (c *FinageClient) GetNews(ctx context.Context, _ string, limit int) ([]models.NewsArticle, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if limit <= 0 || limit > 5 {
		limit = 3
	}

	// The endpoint returns either a bare array or a {news: [...]} object.
	var wrapped finageResponse
	var bare []finageArticle
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"apikey": c.apiKey,
			"limit":  strconv.Itoa(limit),
		}).
		SetResult(&bare).
		Get("/news/forex")
	if err != nil {
		return nil, fmt.Errorf("finage request: %w", err)
	}
	if resp.StatusCode() == 429 {
		return nil, ErrRateLimited
	}
	if resp.StatusCode() >= 400 {
		return nil, &ErrHTTP{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}

	raw := bare
	if len(raw) == 0 {
		if err := unmarshalBody(resp.Body(), &wrapped); err == nil {
			raw = wrapped.News
		}
	}

	articles := make([]models.NewsArticle, 0, len(raw))
	for _, a := range raw {
		if a.Title == "" {
			continue
		}
		desc := a.Description
		if desc == "" {
			desc = a.Summary
		}
		articles = append(articles, models.NewsArticle{
			Title:       a.Title,
			Description: desc,
			Source:      c.Name(),
			PublishedAt: parseNewsTime(a.Date),
		})
		if len(articles) >= limit {
			break
		}
	}
	return articles, nil
}

// ── RSS fallback ──

// defaultFeeds are public market-news feeds used when no API keys are
// configured.
var defaultFeeds = []string{
	"https://feeds.marketwatch.com/marketwatch/topstories/",
	"https://www.cnbc.com/id/10001147/device/rss/rss.html",
}

// RSSClient fetches market news from public RSS feeds. It needs no
// credentials and serves as the fallback news source.
type RSSClient struct {
	parser *gofeed.Parser
	feeds  []string
}

// NewRSSClient creates an RSS news client over the default feed set.
func NewRSSClient() *RSSClient {
	return &RSSClient{
		parser: gofeed.NewParser(),
		feeds:  defaultFeeds,
	}
}

// Name returns the source identifier.
func (c *RSSClient) Name() string { return "RSS" }

// GetNews parses the configured feeds in order until the limit is
// reached. The query is ignored; feeds are not searchable.
func (c *RSSClient) GetNews(ctx context.Context, _ string, limit int) ([]models.NewsArticle, error) {
	if limit <= 0 {
		limit = 5
	}

	var articles []models.NewsArticle
	for _, url := range c.feeds {
		feed, err := c.parser.ParseURLWithContext(url, ctx)
		if err != nil {
			continue
		}
		for _, item := range feed.Items {
			if item.Title == "" {
				continue
			}
			published := time.Time{}
			if item.PublishedParsed != nil {
				published = *item.PublishedParsed
			}
			articles = append(articles, models.NewsArticle{
				Title:       item.Title,
				Description: item.Description,
				Source:      feed.Title,
				PublishedAt: published,
			})
			if len(articles) >= limit {
				return articles, nil
			}
		}
	}
	return articles, nil
}

// ── Helpers ──

// unmarshalBody decodes a response body into v.
func unmarshalBody(body []byte, v any) error {
	return json.Unmarshal(body, v)
}

// parseNewsTime tries the timestamp formats the news APIs emit.
func parseNewsTime(s string) time.Time {
	for _, layout := range []string{
		"2006-01-02 15:04:05",
		time.RFC3339,
		"2006-01-02T15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
