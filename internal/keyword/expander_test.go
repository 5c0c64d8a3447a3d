package keyword

import (
	"context"
	"errors"
	"path/filepath"
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

func newTestExpander(t *testing.T, db *database.DB, provider *mockProvider) *Expander {
	t.Helper()
	if provider == nil {
		return NewExpander(db, nil, zap.NewNop(), 0.3, 512, 30*time.Second)
	}
	return NewExpander(db, provider, zap.NewNop(), 0.3, 512, 30*time.Second)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func TestExpandUsesSynonymTable(t *testing.T) {
	db := openTestDB(t)
	db.SaveSynonymTable(map[string][]string{
		"冬季": {"冬天", "秋冬"},
	})

	e := newTestExpander(t, db, nil)
	got := e.Expand(context.Background(), []string{"冬季"}, "冬季穿搭")

	if !contains(got, "冬季") || !contains(got, "冬天") || !contains(got, "秋冬") {
		t.Errorf("expected table synonyms in expansion, got %v", got)
	}
}

func TestExpandSeasonalRule(t *testing.T) {
	db := openTestDB(t)
	db.SaveSynonymTable(map[string][]string{
		"冬": {"冬天", "寒冬"},
	})

	e := newTestExpander(t, db, nil)
	// The windowed extractor never produces the single character "冬";
	// the seasonal rule must add it from the topic string anyway.
	got := e.Expand(context.Background(), []string{"冬季", "穿搭"}, "冬季穿搭")

	if !contains(got, "冬") {
		t.Errorf("expected seasonal token '冬' in expansion, got %v", got)
	}
	if !contains(got, "寒冬") {
		t.Errorf("expected seasonal synonyms in expansion, got %v", got)
	}
}

func TestExpandCallsAIForUnknownAndPersists(t *testing.T) {
	db := openTestDB(t)
	provider := &mockProvider{
		response: "```json\n{\"露营\": [\"野营\", \"户外露营\", \"camping\"]}\n```",
	}

	e := newTestExpander(t, db, provider)
	got := e.Expand(context.Background(), []string{"露营"}, "露营攻略")

	if provider.calls != 1 {
		t.Errorf("expected one batch AI call, got %d", provider.calls)
	}
	if !contains(got, "野营") {
		t.Errorf("expected AI synonyms in expansion, got %v", got)
	}

	// The table document is persisted in full.
	table, version, err := db.GetSynonymTable()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if version == 0 {
		t.Error("expected synonym table to be persisted")
	}
	if len(table["露营"]) != 3 {
		t.Errorf("expected 3 persisted synonyms, got %v", table["露营"])
	}
}

func TestExpandSkipsAIForKnownKeywords(t *testing.T) {
	db := openTestDB(t)
	db.SaveSynonymTable(map[string][]string{"冬季": {"冬天"}})
	provider := &mockProvider{response: "{}"}

	e := newTestExpander(t, db, provider)
	e.Expand(context.Background(), []string{"冬季"}, "冬季")

	if provider.calls != 0 {
		t.Errorf("expected no AI call for known keywords, got %d", provider.calls)
	}
}

func TestExpandDropsOversizedSynonyms(t *testing.T) {
	db := openTestDB(t)
	provider := &mockProvider{
		response: `{"露营": ["野营", "这个同义词实在是太长了不能要的吧", ""]}`,
	}

	e := newTestExpander(t, db, provider)
	got := e.Expand(context.Background(), []string{"露营"}, "露营")

	if !contains(got, "野营") {
		t.Errorf("expected valid synonym accepted, got %v", got)
	}
	if contains(got, "这个同义词实在是太长了不能要的吧") {
		t.Error("expected oversized synonym to be dropped")
	}
}

func TestExpandDegradesOnAIFailure(t *testing.T) {
	db := openTestDB(t)
	db.SaveSynonymTable(map[string][]string{"冬季": {"冬天"}})
	provider := &mockProvider{err: errors.New("timeout")}

	e := newTestExpander(t, db, provider)
	got := e.Expand(context.Background(), []string{"冬季", "露营"}, "冬季露营")

	// Table-based matches survive; the unknown keyword stays unexpanded.
	if !contains(got, "冬天") {
		t.Errorf("expected table expansion despite AI failure, got %v", got)
	}
	if !contains(got, "露营") {
		t.Errorf("expected original keywords retained, got %v", got)
	}
}

func TestExpandDeduplicates(t *testing.T) {
	db := openTestDB(t)
	db.SaveSynonymTable(map[string][]string{
		"冬季": {"冬天"},
		"冬天": {"冬季"},
	})

	e := newTestExpander(t, db, nil)
	got := e.Expand(context.Background(), []string{"冬季", "冬天"}, "冬季")

	seen := map[string]int{}
	for _, kw := range got {
		seen[kw]++
		if seen[kw] > 1 {
			t.Errorf("duplicate keyword %q in expansion %v", kw, got)
		}
	}
}
