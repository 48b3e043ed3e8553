package datasource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/seenimoa/marketlyst/pkg/models"
)

// ── Cache ──

func TestCacheSetGet(t *testing.T) {
	c := NewCache(time.Minute)
	c.Set("k", 42)

	v, ok := c.Get("k")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if v.(int) != 42 {
		t.Errorf("got %v, want 42", v)
	}
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(10 * time.Millisecond)
	c.Set("k", "v")

	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expired entry should miss")
	}
}

func TestCacheMissUnknownKey(t *testing.T) {
	c := NewCache(time.Minute)
	if _, ok := c.Get("nope"); ok {
		t.Error("unknown key should miss")
	}
}

func TestCacheFlush(t *testing.T) {
	c := NewCache(time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Flush()
	if _, ok := c.Get("a"); ok {
		t.Error("flushed entry should miss")
	}
}

// ── FormatPairSymbol ──

func TestFormatPairSymbol(t *testing.T) {
	tests := []struct {
		symbol string
		class  models.AssetClass
		want   string
	}{
		{"BTCUSD", models.AssetCrypto, "BTC/USD"},
		{"ethusd", models.AssetCrypto, "ETH/USD"},
		{"EURUSD", models.AssetForex, "EUR/USD"},
		{"AAPL", models.AssetStock, "AAPL"},
		{"aapl", models.AssetStock, "AAPL"},
		// crypto without USD suffix passes through
		{"BTC", models.AssetCrypto, "BTC"},
	}
	for _, tc := range tests {
		if got := FormatPairSymbol(tc.symbol, tc.class); got != tc.want {
			t.Errorf("FormatPairSymbol(%q, %q): got %q, want %q", tc.symbol, tc.class, got, tc.want)
		}
	}
}

// ── TwelveDataClient ──

func TestTwelveDataGetQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/price" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbol"); got != "BTC/USD" {
			t.Errorf("symbol param: got %q, want BTC/USD", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"price":"64230.50"}`)
	}))
	defer srv.Close()

	c := NewTwelveDataClient("test-key", 5*time.Second)
	c.client.SetBaseURL(srv.URL)

	quote, err := c.GetQuote(context.Background(), "BTCUSD", models.AssetCrypto)
	if err != nil {
		t.Fatalf("GetQuote error: %v", err)
	}
	if quote.Symbol != "BTCUSD" {
		t.Errorf("Symbol: got %q, want BTCUSD", quote.Symbol)
	}
	if quote.Price.String() != "64230.5" {
		t.Errorf("Price: got %s", quote.Price)
	}
	if quote.Currency != "USD" {
		t.Errorf("Currency: got %q", quote.Currency)
	}
}

func TestTwelveDataSymbolNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"code":400,"message":"symbol not found","status":"error"}`)
	}))
	defer srv.Close()

	c := NewTwelveDataClient("test-key", 5*time.Second)
	c.client.SetBaseURL(srv.URL)

	_, err := c.GetQuote(context.Background(), "ZZZZZ", models.AssetStock)
	if !errors.Is(err, ErrSymbolNotFound) {
		t.Errorf("got %v, want ErrSymbolNotFound", err)
	}
}

func TestTwelveDataNoAPIKey(t *testing.T) {
	c := NewTwelveDataClient("", 5*time.Second)
	_, err := c.GetQuote(context.Background(), "AAPL", models.AssetStock)
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("got %v, want ErrNoAPIKey", err)
	}
}

func TestTwelveDataRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewTwelveDataClient("test-key", 5*time.Second)
	c.client.SetBaseURL(srv.URL)

	_, err := c.GetQuote(context.Background(), "AAPL", models.AssetStock)
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("got %v, want ErrRateLimited", err)
	}
}

// ── NewsDataClient ──

func TestNewsDataGetNews(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "BTC" {
			t.Errorf("q param: got %q, want BTC", got)
		}
		if got := r.URL.Query().Get("category"); got != "business" {
			t.Errorf("category param: got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"success","results":[
			{"title":"Bitcoin rallies","description":"BTC up 5%","pubDate":"2026-08-29 10:00:00"},
			{"title":"No description item","description":"","pubDate":""},
			{"title":"ETF inflows grow","description":"Funds keep buying","pubDate":"2026-08-29 09:00:00"}
		]}`)
	}))
	defer srv.Close()

	c := NewNewsDataClient("test-key")
	c.client.SetBaseURL(srv.URL)

	articles, err := c.GetNews(context.Background(), "BTC", 5)
	if err != nil {
		t.Fatalf("GetNews error: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("got %d articles, want 2 (empty description dropped)", len(articles))
	}
	if articles[0].Title != "Bitcoin rallies" {
		t.Errorf("title: got %q", articles[0].Title)
	}
	if articles[0].Source != "NewsData.io" {
		t.Errorf("source: got %q", articles[0].Source)
	}
	if articles[0].PublishedAt.IsZero() {
		t.Error("pubDate should parse")
	}
}

func TestNewsDataNoAPIKey(t *testing.T) {
	c := NewNewsDataClient("")
	_, err := c.GetNews(context.Background(), "", 3)
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("got %v, want ErrNoAPIKey", err)
	}
}

// ── FinageClient ──

func TestFinageBareArrayResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"title":"Dollar slides","description":"","summary":"DXY down","date":"2026-08-29T08:00:00"}]`)
	}))
	defer srv.Close()

	c := NewFinageClient("test-key")
	c.client.SetBaseURL(srv.URL)

	articles, err := c.GetNews(context.Background(), "", 3)
	if err != nil {
		t.Fatalf("GetNews error: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("got %d articles, want 1", len(articles))
	}
	if articles[0].Description != "DXY down" {
		t.Errorf("empty description should fall back to summary, got %q", articles[0].Description)
	}
	if articles[0].Source != "Finage" {
		t.Errorf("source: got %q", articles[0].Source)
	}
}

// ── NewsAggregator ──

// stubSource is an in-memory NewsSource for aggregator tests.
type stubSource struct {
	name     string
	articles []models.NewsArticle
	err      error
	calls    int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) GetNews(_ context.Context, _ string, limit int) ([]models.NewsArticle, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if len(s.articles) > limit {
		return s.articles[:limit], nil
	}
	return s.articles, nil
}

func makeArticles(prefix string, n int) []models.NewsArticle {
	out := make([]models.NewsArticle, n)
	for i := range out {
		out[i] = models.NewsArticle{
			Title:       fmt.Sprintf("%s headline %d", prefix, i+1),
			Description: "description",
			Source:      prefix,
		}
	}
	return out
}

func TestAggregatorMergesAndCaps(t *testing.T) {
	a := NewNewsAggregator([]NewsSource{
		&stubSource{name: "one", articles: makeArticles("one", 3)},
		&stubSource{name: "two", articles: makeArticles("two", 5)},
	}, nil, nil, time.Minute)

	got := a.General(context.Background())
	if len(got) != maxGeneralNews {
		t.Errorf("got %d articles, want %d", len(got), maxGeneralNews)
	}
}

func TestAggregatorCachesGeneral(t *testing.T) {
	src := &stubSource{name: "one", articles: makeArticles("one", 2)}
	a := NewNewsAggregator([]NewsSource{src}, nil, nil, time.Minute)

	a.General(context.Background())
	a.General(context.Background())

	if src.calls != 1 {
		t.Errorf("source called %d times, want 1 (second hit cached)", src.calls)
	}
}

func TestAggregatorSourceFailureIsolated(t *testing.T) {
	a := NewNewsAggregator([]NewsSource{
		&stubSource{name: "down", err: fmt.Errorf("boom")},
		&stubSource{name: "up", articles: makeArticles("up", 2)},
	}, nil, nil, time.Minute)

	got := a.General(context.Background())
	if len(got) != 2 {
		t.Errorf("got %d articles, want 2 from healthy source", len(got))
	}
}

func TestAggregatorFallsBackToRSS(t *testing.T) {
	fallback := &stubSource{name: "rss", articles: makeArticles("rss", 4)}
	a := NewNewsAggregator([]NewsSource{
		&stubSource{name: "down", err: ErrNoAPIKey},
	}, nil, fallback, time.Minute)

	got := a.General(context.Background())
	if len(got) != 4 {
		t.Errorf("got %d articles, want 4 from fallback", len(got))
	}
	if fallback.calls != 1 {
		t.Errorf("fallback called %d times, want 1", fallback.calls)
	}
}

func TestAggregatorTargeted(t *testing.T) {
	targeted := &stubSource{name: "search", articles: makeArticles("search", 3)}
	a := NewNewsAggregator(nil, targeted, nil, time.Minute)

	got := a.Targeted(context.Background(), "BTC")
	if len(got) != 3 {
		t.Errorf("got %d articles, want 3", len(got))
	}
}

func TestAggregatorTargetedFailureYieldsEmpty(t *testing.T) {
	targeted := &stubSource{name: "search", err: fmt.Errorf("boom")}
	a := NewNewsAggregator(nil, targeted, nil, time.Minute)

	got := a.Targeted(context.Background(), "BTC")
	if len(got) != 0 {
		t.Errorf("got %d articles, want 0", len(got))
	}
}
