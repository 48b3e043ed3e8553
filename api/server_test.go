package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/marketlyst/internal/agent"
	"github.com/seenimoa/marketlyst/internal/config"
	"github.com/seenimoa/marketlyst/internal/datasource"
	"github.com/seenimoa/marketlyst/internal/nlu"
	"github.com/seenimoa/marketlyst/pkg/models"
)

// ── Test fixtures ──

type fixedResolver struct {
	info nlu.EntityInfo
}

func (f *fixedResolver) Resolve(_ context.Context, _ string) nlu.EntityInfo { return f.info }

type fixedPrices struct{}

func (fixedPrices) GetQuote(_ context.Context, symbol string, _ models.AssetClass) (*models.Quote, error) {
	return &models.Quote{Symbol: symbol, Price: decimal.NewFromFloat(213.40), Currency: "USD"}, nil
}

type fixedNews struct{}

func (fixedNews) General(_ context.Context) []models.NewsArticle {
	return []models.NewsArticle{{Title: "Markets steady", Description: "calm day", Source: "test"}}
}

func (fixedNews) Targeted(_ context.Context, _ string) []models.NewsArticle { return nil }

type fixedSentiment struct{}

func (fixedSentiment) AnalyzeBatch(_ context.Context, articles []models.NewsArticle) []models.SentimentResult {
	return make([]models.SentimentResult, len(articles))
}

func (fixedSentiment) GenerateAdvice(_ context.Context, _ string) (string, error) {
	return "поради", nil
}

type staticSource struct {
	articles []models.NewsArticle
}

func (s *staticSource) Name() string { return "static" }

func (s *staticSource) GetNews(_ context.Context, _ string, _ int) ([]models.NewsArticle, error) {
	return s.articles, nil
}

func newTestServer(info nlu.EntityInfo) *Server {
	ag := agent.New(
		&fixedResolver{info: info},
		nil,
		agent.NewExecutor(fixedPrices{}, fixedNews{}, fixedSentiment{}),
		time.Minute,
	)
	news := datasource.NewNewsAggregator([]datasource.NewsSource{
		&staticSource{articles: []models.NewsArticle{{Title: "Markets steady", Description: "d", Source: "static"}}},
	}, nil, nil, time.Minute)
	return NewServer(&config.Config{}, ag, news)
}

// ── POST /run ──

func TestRunEnvelope(t *testing.T) {
	srv := newTestServer(nlu.EntityInfo{
		IsFinancial: true,
		Entity:      &nlu.Entity{Symbol: "AAPL", Class: models.AssetStock},
		Confidence:  0.9,
	})

	body := `{"messages":[{"role":"user","content":"Ціна Apple"}]}`
	req := httptest.NewRequest(http.MethodPost, "/run", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	var resp models.ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Message.Role != "assistant" {
		t.Errorf("role: got %q, want assistant", resp.Message.Role)
	}
	if !strings.Contains(resp.Message.Content, "Apple (AAPL): $213.40") {
		t.Errorf("content: %q", resp.Message.Content)
	}
}

func TestRunLastMessageWins(t *testing.T) {
	srv := newTestServer(nlu.EntityInfo{IsFinancial: false})

	body := `{"messages":[
		{"role":"user","content":"Ціна Apple"},
		{"role":"assistant","content":"..."},
		{"role":"user","content":"Rays trade deadline"}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/run", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	var resp models.ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.Contains(resp.Message.Content, "не стосується фінансів") {
		t.Errorf("content: %q", resp.Message.Content)
	}
}

func TestRunEmptyMessages(t *testing.T) {
	srv := newTestServer(nlu.EntityInfo{})

	req := httptest.NewRequest(http.MethodPost, "/run", strings.NewReader(`{"messages":[]}`))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	var resp models.ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.Contains(resp.Message.Content, "напишіть ваш запит") {
		t.Errorf("content: %q", resp.Message.Content)
	}
}

func TestRunBadBody(t *testing.T) {
	srv := newTestServer(nlu.EntityInfo{})

	req := httptest.NewRequest(http.MethodPost, "/run", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
}

// ── GET /news ──

func TestNewsEndpoint(t *testing.T) {
	srv := newTestServer(nlu.EntityInfo{})

	req := httptest.NewRequest(http.MethodGet, "/news", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	var articles []models.NewsArticle
	if err := json.Unmarshal(rec.Body.Bytes(), &articles); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(articles) != 1 || articles[0].Title != "Markets steady" {
		t.Errorf("articles: %+v", articles)
	}
}

// ── GET /health ──

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(nlu.EntityInfo{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Error("health should report success")
	}
}

// ── TruncateReply ──

func TestTruncateReplyShortUnchanged(t *testing.T) {
	in := "коротка відповідь"
	if got := TruncateReply(in, 3500); got != in {
		t.Errorf("short reply should pass through, got %q", got)
	}
}

func TestTruncateReplyCyrillicLineBoundary(t *testing.T) {
	// Cyrillic runes are multi-byte; the line-boundary heuristic must
	// work on rune positions, not byte offsets. The only newline here
	// sits at rune 200 of a 450-rune cap: below the 70% mark, so the
	// cut must keep the full window instead of dropping the final third.
	in := strings.Repeat("а", 200) + "\n" + strings.Repeat("б", 400)
	got := TruncateReply(in, 450)

	body := strings.TrimSuffix(got, "\n\n💬 [Відповідь обрізана]")
	if body == got {
		t.Fatal("truncation marker missing")
	}
	if n := len([]rune(body)); n != 450 {
		t.Errorf("kept %d runes, want the full 450-rune window", n)
	}
}

func TestTruncateReplyCutsAtNewline(t *testing.T) {
	lines := strings.Repeat("рядок тексту\n", 400)
	got := TruncateReply(lines, 3500)

	if len([]rune(got)) > 3500+50 {
		t.Errorf("truncated reply too long: %d runes", len([]rune(got)))
	}
	if !strings.Contains(got, "[Відповідь обрізана]") {
		t.Error("truncation marker missing")
	}
}
