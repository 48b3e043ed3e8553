package sentiment

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/seenimoa/marketlyst/internal/llm"
	"github.com/seenimoa/marketlyst/pkg/models"
)

// mockProvider implements llm.Provider for testing.
type mockProvider struct {
	completeFunc func(ctx context.Context, system, user string, opts *llm.Options) (string, error)
	calls        int32
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Complete(ctx context.Context, system, user string, opts *llm.Options) (string, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.completeFunc != nil {
		return m.completeFunc(ctx, system, user, opts)
	}
	return `{"sentiment":"neutral","explanation":"ok","confidence":0.5}`, nil
}

func makeArticles(n int) []models.NewsArticle {
	out := make([]models.NewsArticle, n)
	for i := range out {
		out[i] = models.NewsArticle{
			Title:       fmt.Sprintf("headline %d", i+1),
			Description: "description",
		}
	}
	return out
}

// ── AnalyzeOne ──

func TestAnalyzeOneParsesJSON(t *testing.T) {
	mock := &mockProvider{completeFunc: func(_ context.Context, _, _ string, _ *llm.Options) (string, error) {
		return "Ось результат:\n{\"sentiment\":\"Bullish\",\"explanation\":\"зростання\",\"confidence\":0.9}", nil
	}}
	a := NewAnalyzer(mock)

	result, err := a.AnalyzeOne(context.Background(), "Markets rally on earnings")
	if err != nil {
		t.Fatalf("AnalyzeOne error: %v", err)
	}
	if result.Sentiment != models.SentimentBullish {
		t.Errorf("sentiment should be lower-cased bullish, got %q", result.Sentiment)
	}
	if result.Confidence != 0.9 {
		t.Errorf("confidence: got %f", result.Confidence)
	}
}

func TestAnalyzeOneMalformedJSON(t *testing.T) {
	mock := &mockProvider{completeFunc: func(_ context.Context, _, _ string, _ *llm.Options) (string, error) {
		return "немає жодного джейсона тут", nil
	}}
	a := NewAnalyzer(mock)

	if _, err := a.AnalyzeOne(context.Background(), "text"); err == nil {
		t.Error("malformed output should return an error")
	}
}

func TestAnalyzeOneTruncatesLongText(t *testing.T) {
	var gotLen int
	mock := &mockProvider{completeFunc: func(_ context.Context, _, user string, _ *llm.Options) (string, error) {
		gotLen = len(user)
		return `{"sentiment":"neutral","explanation":"ok","confidence":0.5}`, nil
	}}
	a := NewAnalyzer(mock)

	long := strings.Repeat("a", 5000)
	if _, err := a.AnalyzeOne(context.Background(), long); err != nil {
		t.Fatalf("AnalyzeOne error: %v", err)
	}
	if gotLen > maxNewsChars+len("Новина: ") {
		t.Errorf("prompt not truncated: %d chars", gotLen)
	}
}

// ── AnalyzeBatch ──

func TestAnalyzeBatchBoundsItems(t *testing.T) {
	mock := &mockProvider{}
	a := NewAnalyzer(mock)

	results := a.AnalyzeBatch(context.Background(), makeArticles(10))
	if len(results) != maxBatchItems {
		t.Errorf("got %d results, want %d", len(results), maxBatchItems)
	}
	if atomic.LoadInt32(&mock.calls) != maxBatchItems {
		t.Errorf("provider called %d times, want %d", mock.calls, maxBatchItems)
	}
}

func TestAnalyzeBatchEmptyInput(t *testing.T) {
	a := NewAnalyzer(&mockProvider{})
	if results := a.AnalyzeBatch(context.Background(), nil); results != nil {
		t.Errorf("empty input should yield nil, got %v", results)
	}
}

func TestAnalyzeBatchItemFailureIsolated(t *testing.T) {
	var n int32
	mock := &mockProvider{completeFunc: func(_ context.Context, _, _ string, _ *llm.Options) (string, error) {
		if atomic.AddInt32(&n, 1) == 2 {
			return "", fmt.Errorf("rate limited")
		}
		return `{"sentiment":"bullish","explanation":"ok","confidence":0.8}`, nil
	}}
	a := NewAnalyzer(mock, WithConcurrency(1))

	results := a.AnalyzeBatch(context.Background(), makeArticles(3))
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	var neutral, bullish int
	for _, r := range results {
		switch r.Sentiment {
		case models.SentimentNeutral:
			neutral++
			if r.Confidence != 0.0 {
				t.Errorf("failed item confidence: got %f, want 0.0", r.Confidence)
			}
			if r.Explanation == "" {
				t.Error("failed item should carry an explanation")
			}
		case models.SentimentBullish:
			bullish++
		}
	}
	if neutral != 1 || bullish != 2 {
		t.Errorf("got %d neutral / %d bullish, want 1/2", neutral, bullish)
	}
}

func TestAnalyzeBatchConcurrencyBounded(t *testing.T) {
	var inFlight, peak int32
	var mu sync.Mutex
	block := make(chan struct{})

	mock := &mockProvider{completeFunc: func(_ context.Context, _, _ string, _ *llm.Options) (string, error) {
		cur := atomic.AddInt32(&inFlight, 1)
		mu.Lock()
		if cur > peak {
			peak = cur
		}
		mu.Unlock()
		<-block
		atomic.AddInt32(&inFlight, -1)
		return `{"sentiment":"neutral","explanation":"ok","confidence":0.5}`, nil
	}}
	a := NewAnalyzer(mock, WithMaxItems(8), WithConcurrency(2))

	done := make(chan struct{})
	go func() {
		a.AnalyzeBatch(context.Background(), makeArticles(8))
		close(done)
	}()
	close(block)
	<-done

	mu.Lock()
	defer mu.Unlock()
	if peak > 2 {
		t.Errorf("peak concurrency %d exceeds limit 2", peak)
	}
}

// ── GenerateAdvice ──

func TestGenerateAdviceAppendsDisclaimer(t *testing.T) {
	mock := &mockProvider{completeFunc: func(_ context.Context, system, _ string, _ *llm.Options) (string, error) {
		if !strings.Contains(system, "Позитивних новин: 2") {
			t.Errorf("market context missing from system prompt")
		}
		return "📊 Купуйте обережно.", nil
	}}
	a := NewAnalyzer(mock)

	advice, err := a.GenerateAdvice(context.Background(), "Контекст ринку:\n- Позитивних новин: 2")
	if err != nil {
		t.Fatalf("GenerateAdvice error: %v", err)
	}
	if !strings.Contains(advice, "Це не фінансова консультація") {
		t.Error("advice must carry the disclaimer")
	}
}

func TestGenerateAdviceError(t *testing.T) {
	mock := &mockProvider{completeFunc: func(_ context.Context, _, _ string, _ *llm.Options) (string, error) {
		return "", fmt.Errorf("provider down")
	}}
	a := NewAnalyzer(mock)

	if _, err := a.GenerateAdvice(context.Background(), "контекст"); err == nil {
		t.Error("provider failure should surface as an error")
	}
}
