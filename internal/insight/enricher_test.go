package insight

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/redink/recommender/internal/database"
)

// mockProvider implements llm.Provider for testing.
type mockProvider struct {
	response string
	err      error
	calls    int
}

func (m *mockProvider) Generate(_ context.Context, _ string, _ float64, _ int) (string, error) {
	m.calls++
	return m.response, m.err
}

func (m *mockProvider) IsConfigured() bool { return true }

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestEnricher(db *database.DB, provider *mockProvider) *Enricher {
	if provider == nil {
		return NewEnricher(db, nil, zap.NewNop(), 0.3, 1024, 30*time.Second, 7*24*time.Hour)
	}
	return NewEnricher(db, provider, zap.NewNop(), 0.3, 1024, 30*time.Second, 7*24*time.Hour)
}

func testRecord(id string) *database.Record {
	return &database.Record{
		RecordID: id,
		Title:    "冬季穿搭分享",
		Content:  "这篇笔记讲了冬季叠穿的思路",
		Industry: "时尚穿搭",
		Metrics:  database.Metrics{TotalEngagement: 5200, SaveRatio: 0.12},
		Analyzed: true,
	}
}

const validResponse = `{
  "recommend_reasons": ["结构清晰易模仿", "互动数据突出"],
  "learnable_elements": {
    "hook": "数字悬念",
    "structure": "分步教程",
    "tone": "姐妹聊天式",
    "cta": "评论区见"
  }
}`

func TestEnsureParsesAndPersists(t *testing.T) {
	db := openTestDB(t)
	rec := testRecord("n1")
	if err := db.UpsertRecord(rec); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	provider := &mockProvider{response: validResponse}
	e := newTestEnricher(db, provider)

	out := e.Ensure(context.Background(), rec, "冬季穿搭", "")
	if provider.calls != 1 {
		t.Fatalf("expected 1 AI call, got %d", provider.calls)
	}
	if len(out.RecommendReasons) != 2 || out.RecommendReasons[0] != "结构清晰易模仿" {
		t.Fatalf("unexpected reasons: %v", out.RecommendReasons)
	}
	if out.LearnableElements == nil || out.LearnableElements.Hook != "数字悬念" {
		t.Fatalf("unexpected elements: %+v", out.LearnableElements)
	}

	// Cache entry written under the topic key.
	cached, err := db.GetInsight("冬季穿搭", "", "n1", 7*24*time.Hour)
	if err != nil || cached == nil {
		t.Fatalf("expected cached insight, got %v (err %v)", cached, err)
	}

	// Record columns populated once.
	stored, err := db.GetRecord("n1")
	if err != nil || stored == nil {
		t.Fatalf("get record: %v", err)
	}
	if stored.RecommendReasons == nil || stored.LearnableElements == nil {
		t.Fatal("record columns should be populated after enrichment")
	}
}

func TestEnsureIdempotent(t *testing.T) {
	db := openTestDB(t)
	rec := testRecord("n1")
	if err := db.UpsertRecord(rec); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	provider := &mockProvider{response: validResponse}
	e := newTestEnricher(db, provider)

	first := e.Ensure(context.Background(), rec, "冬季穿搭", "")
	second := e.Ensure(context.Background(), rec, "冬季穿搭", "")
	if provider.calls != 1 {
		t.Fatalf("second Ensure should hit the cache, got %d AI calls", provider.calls)
	}
	if !reflect.DeepEqual(first.RecommendReasons, second.RecommendReasons) {
		t.Fatalf("reasons differ across calls: %v vs %v", first.RecommendReasons, second.RecommendReasons)
	}
	if !reflect.DeepEqual(first.LearnableElements, second.LearnableElements) {
		t.Fatalf("elements differ across calls: %+v vs %+v", first.LearnableElements, second.LearnableElements)
	}
}

func TestEnsureSkipsAIWhenRecordPopulated(t *testing.T) {
	db := openTestDB(t)
	rec := testRecord("n1")
	rec.RecommendReasons = []string{"已有理由"}
	rec.LearnableElements = &database.LearnableElements{Hook: "已有钩子"}
	provider := &mockProvider{response: validResponse}
	e := newTestEnricher(db, provider)

	out := e.Ensure(context.Background(), rec, "新主题", "")
	if provider.calls != 0 {
		t.Fatalf("populated record should not trigger AI, got %d calls", provider.calls)
	}
	if out.RecommendReasons[0] != "已有理由" {
		t.Fatalf("unexpected reasons: %v", out.RecommendReasons)
	}
}

func TestEnsureTruncatesReasonsToThree(t *testing.T) {
	db := openTestDB(t)
	rec := testRecord("n1")
	provider := &mockProvider{response: `{
		"recommend_reasons": ["一", "二", "三", "四", "五"],
		"learnable_elements": {"hook": "h", "structure": "s", "tone": "t", "cta": "c"}
	}`}
	e := newTestEnricher(db, provider)

	out := e.Ensure(context.Background(), rec, "主题", "")
	if len(out.RecommendReasons) != 3 {
		t.Fatalf("expected 3 reasons, got %d", len(out.RecommendReasons))
	}
}

func TestEnsureFallbackOnMalformedResponse(t *testing.T) {
	db := openTestDB(t)
	rec := testRecord("n1")
	provider := &mockProvider{response: "推荐理由：数据表现很突出\n钩子：痛点共鸣开场"}
	e := newTestEnricher(db, provider)

	out := e.Ensure(context.Background(), rec, "主题", "")
	if len(out.RecommendReasons) == 0 || out.RecommendReasons[0] != "数据表现很突出" {
		t.Fatalf("expected rule-extracted reason, got %v", out.RecommendReasons)
	}
	if out.LearnableElements.Hook != "痛点共鸣开场" {
		t.Fatalf("expected rule-extracted hook, got %+v", out.LearnableElements)
	}

	// Fallback extraction still counts as a response: it is cached.
	cached, err := db.GetInsight("主题", "", "n1", 7*24*time.Hour)
	if err != nil || cached == nil {
		t.Fatalf("expected cached fallback insight, got %v (err %v)", cached, err)
	}
}

func TestEnsureGenericReasonsOnUnlabeledResponse(t *testing.T) {
	db := openTestDB(t)
	rec := testRecord("n1")
	provider := &mockProvider{response: "完全无关的自由文本"}
	e := newTestEnricher(db, provider)

	out := e.Ensure(context.Background(), rec, "主题", "")
	if len(out.RecommendReasons) != 2 {
		t.Fatalf("expected generic reasons, got %v", out.RecommendReasons)
	}
}

func TestEnsureDegradesWhenCallFails(t *testing.T) {
	db := openTestDB(t)
	rec := testRecord("n1")
	provider := &mockProvider{err: errors.New("provider down")}
	e := newTestEnricher(db, provider)

	out := e.Ensure(context.Background(), rec, "主题", "")
	if out.RecommendReasons == nil || out.LearnableElements == nil {
		t.Fatal("degraded result must still carry insights")
	}

	// Nothing was received, so nothing is cached and a later request retries.
	cached, err := db.GetInsight("主题", "", "n1", 7*24*time.Hour)
	if err != nil {
		t.Fatalf("cache read: %v", err)
	}
	if cached != nil {
		t.Fatal("failed call must not populate the cache")
	}
}

func TestEnsureNilProvider(t *testing.T) {
	db := openTestDB(t)
	rec := testRecord("n1")
	e := newTestEnricher(db, nil)

	out := e.Ensure(context.Background(), rec, "主题", "")
	if len(out.RecommendReasons) == 0 || out.LearnableElements == nil {
		t.Fatal("nil provider must still yield generic insights")
	}
	if rec.RecommendReasons != nil {
		t.Fatal("original record must not be mutated")
	}
}
