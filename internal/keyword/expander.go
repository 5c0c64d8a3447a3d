package keyword

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/redink/recommender/internal/database"
	"github.com/redink/recommender/internal/llm"
)

// seasonChars are single-character seasonal tokens. The windowed extractor
// never isolates single characters, so a season mentioned anywhere in the
// topic is force-added together with its table synonyms.
var seasonChars = []string{"春", "夏", "秋", "冬"}

const synonymPrompt = `你是一位中文内容关键词专家。请为下列每个关键词生成3-8个同义词或高度相关的近义词，用于内容检索匹配。

关键词列表：
%s

要求：
1. 同义词必须简短（不超过10个字），常用于社交平台内容表达
2. 只输出 JSON，不要添加任何其他文字

输出格式：
` + "```json" + `
{
  "关键词1": ["同义词1", "同义词2", "同义词3"],
  "关键词2": ["同义词1", "同义词2"]
}
` + "```"

const maxSynonymRunes = 10

// Expander augments keyword lists using a persisted synonym table, with a
// batch AI call for unknown keywords. AI failure degrades to table-only
// expansion; Expand never returns an error.
type Expander struct {
	db          *database.DB
	provider    llm.Provider
	logger      *zap.Logger
	temperature float64
	maxTokens   int
	timeout     time.Duration

	// mu serializes the whole-document read-modify-write of the synonym
	// table across concurrent expansions.
	mu    sync.Mutex
	table map[string][]string
}

// NewExpander creates a synonym expander. provider may be nil.
func NewExpander(db *database.DB, provider llm.Provider, logger *zap.Logger, temperature float64, maxTokens int, timeout time.Duration) *Expander {
	return &Expander{
		db:          db,
		provider:    provider,
		logger:      logger,
		temperature: temperature,
		maxTokens:   maxTokens,
		timeout:     timeout,
	}
}

// Expand returns a deduplicated superset of keywords: the inputs, their
// table synonyms, seasonal tokens present in the topic, and AI-generated
// synonyms for keywords the table does not know yet. Newly expanded
// keywords are merged into the table and persisted.
func (e *Expander) Expand(ctx context.Context, keywords []string, topic string) []string {
	table := e.loadTable()

	set := newOrderedSet()
	for _, kw := range keywords {
		set.add(kw)
		for _, syn := range table[kw] {
			set.add(syn)
		}
	}

	for _, season := range seasonChars {
		if strings.Contains(topic, season) {
			set.add(season)
			for _, syn := range table[season] {
				set.add(syn)
			}
		}
	}

	var unknown []string
	for _, kw := range keywords {
		if _, ok := table[kw]; !ok {
			unknown = append(unknown, kw)
		}
	}

	if len(unknown) > 0 && e.provider != nil {
		expanded, err := e.expandWithAI(ctx, unknown)
		if err != nil {
			e.logger.Warn("AI synonym expansion failed, using table-only expansion",
				zap.Error(err), zap.Strings("keywords", unknown))
		} else {
			for _, syns := range expanded {
				for _, syn := range syns {
					set.add(syn)
				}
			}
			e.persist(expanded)
		}
	}

	return set.values
}

// loadTable lazily loads the synonym table from the store. A read failure
// logs and acts as an empty table.
func (e *Expander) loadTable() map[string][]string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.table == nil {
		table, _, err := e.db.GetSynonymTable()
		if err != nil {
			e.logger.Warn("loading synonym table failed", zap.Error(err))
			table = map[string][]string{}
		}
		e.table = table
	}

	out := make(map[string][]string, len(e.table))
	for k, v := range e.table {
		out[k] = v
	}
	return out
}

// expandWithAI issues one batch call for all unknown keywords and returns
// the accepted expansions.
func (e *Expander) expandWithAI(ctx context.Context, unknown []string) (map[string][]string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var lines []string
	for _, kw := range unknown {
		lines = append(lines, "- "+kw)
	}
	prompt := fmt.Sprintf(synonymPrompt, strings.Join(lines, "\n"))

	response, err := e.provider.Generate(ctx, prompt, e.temperature, e.maxTokens)
	if err != nil {
		return nil, err
	}

	var parsed map[string][]string
	if err := json.Unmarshal([]byte(llm.ExtractJSON(response)), &parsed); err != nil {
		return nil, fmt.Errorf("parsing synonym response: %w", err)
	}

	accepted := map[string][]string{}
	for _, kw := range unknown {
		var syns []string
		for _, s := range parsed[kw] {
			s = strings.TrimSpace(s)
			if s == "" || utf8.RuneCountInString(s) > maxSynonymRunes {
				continue
			}
			syns = append(syns, s)
		}
		if len(syns) > 0 {
			accepted[kw] = syns
		}
	}
	return accepted, nil
}

// persist merges the expansions into the in-memory table and rewrites the
// persisted document. A write failure logs and leaves the in-memory table
// usable for this process.
func (e *Expander) persist(expanded map[string][]string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for kw, syns := range expanded {
		e.table[kw] = syns
	}
	if err := e.db.SaveSynonymTable(e.table); err != nil {
		e.logger.Warn("persisting synonym table failed", zap.Error(err))
	}
}

// orderedSet is a string set that preserves insertion order.
type orderedSet struct {
	seen   map[string]struct{}
	values []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: map[string]struct{}{}}
}

func (s *orderedSet) add(v string) {
	if v == "" {
		return
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.values = append(s.values, v)
}
