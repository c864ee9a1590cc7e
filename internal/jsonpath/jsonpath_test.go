package jsonpath

import "testing"

func TestLookup(t *testing.T) {
	root := map[string]any{
		"text": "hello",
		"data": map[string]any{
			"items": []any{
				map[string]any{"value": "a"},
				map[string]any{"value": "b"},
			},
		},
		"results": []any{
			map[string]any{
				"alternatives": []any{
					map[string]any{"transcript": "ok", "confidence": 0.5},
				},
			},
		},
	}

	if v, ok := Lookup(root, "data.items[1].value"); !ok || v != "b" {
		t.Fatalf("expected b, got %v (ok=%v)", v, ok)
	}
	if v, ok := Lookup(root, "results[0].alternatives[0].transcript"); !ok || v != "ok" {
		t.Fatalf("expected ok, got %v (ok=%v)", v, ok)
	}
	if v, ok := Lookup(root, "results[0].alternatives[0].confidence"); !ok || v != "0.5" {
		t.Fatalf("expected 0.5, got %v (ok=%v)", v, ok)
	}
	if _, ok := Lookup(root, "data.items[99].value"); ok {
		t.Fatalf("expected not found")
	}
	if _, ok := Lookup(root, "data"); ok {
		t.Fatalf("objects are not scalars")
	}
}

func TestParseSegment(t *testing.T) {
	key, idxs, err := ParseSegment("foo[0][1]")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if key != "foo" || len(idxs) != 2 || idxs[0] != 0 || idxs[1] != 1 {
		t.Fatalf("unexpected parse result: key=%s idxs=%v", key, idxs)
	}
	for _, bad := range []string{"", "foo[", "foo[x]", "foo[0]x"} {
		if _, _, err := ParseSegment(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestExtractFallbacks(t *testing.T) {
	text, err := Extract([]byte(`{"text":"hi","other":"x"}`), "missing.path")
	if err != nil || text != "hi" {
		t.Fatalf("expected text fallback, got %q err=%v", text, err)
	}
	text, err = Extract([]byte(`{"b":"second","a":"first"}`), "")
	if err != nil || text != "first" {
		t.Fatalf("expected first string in key order, got %q err=%v", text, err)
	}
	if _, err := Extract([]byte("not json"), "text"); err == nil {
		t.Fatalf("expected decode error")
	}
}
