package llm

import (
	"encoding/json"
	"testing"
)

func TestExtractJSONPlain(t *testing.T) {
	got := ExtractJSON(`{"key": "value", "num": 42}`)

	var result map[string]any
	if err := json.Unmarshal([]byte(got), &result); err != nil {
		t.Fatalf("extracted text is not valid JSON: %v", err)
	}
	if result["key"] != "value" {
		t.Errorf("expected key='value', got %v", result["key"])
	}
}

func TestExtractJSONCodeFence(t *testing.T) {
	text := "Here are the scores:\n```json\n{\"key\": \"value\"}\n```\nDone."
	got := ExtractJSON(text)
	if got != `{"key": "value"}` {
		t.Errorf("expected fenced content, got %q", got)
	}
}

func TestExtractJSONPlainFence(t *testing.T) {
	text := "```\n{\"key\": \"value\"}\n```"
	got := ExtractJSON(text)
	if got != `{"key": "value"}` {
		t.Errorf("expected fenced content, got %q", got)
	}
}

func TestExtractJSONBraceSpan(t *testing.T) {
	text := `好的，以下是评分结果：{"scores": [{"record_id": "a"}]} 希望对你有帮助。`
	got := ExtractJSON(text)
	if got != `{"scores": [{"record_id": "a"}]}` {
		t.Errorf("expected brace span, got %q", got)
	}
}

func TestExtractJSONNoJSON(t *testing.T) {
	got := ExtractJSON("not json at all")
	var result map[string]any
	if err := json.Unmarshal([]byte(got), &result); err == nil {
		t.Error("expected unmarshal of non-JSON to fail")
	}
}

func TestExtractJSONEmpty(t *testing.T) {
	if got := ExtractJSON("   \n  "); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}
