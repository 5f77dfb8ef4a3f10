package mall

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFen_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		raw  string
		want Fen
	}{
		{`12.5`, 1250},
		{`"0.1"`, 10},
		{`0.29`, 29},
		{`100`, 10000},
		{`null`, 0},
		{`""`, 0},
	}
	for _, tt := range tests {
		var f Fen
		if err := json.Unmarshal([]byte(tt.raw), &f); err != nil {
			t.Fatalf("Unmarshal(%s) returned error: %v", tt.raw, err)
		}
		if f != tt.want {
			t.Fatalf("Unmarshal(%s) = %d, want %d", tt.raw, f, tt.want)
		}
	}

	for _, raw := range []string{`"abc"`, `"NaN"`, `"Inf"`, `"-Inf"`, `"1e30"`, `-1e30`} {
		f := Fen(7)
		if err := json.Unmarshal([]byte(raw), &f); err == nil {
			t.Fatalf("Unmarshal(%s) returned nil error, got %d", raw, f)
		}
	}

	var f Fen
	if err := json.Unmarshal([]byte(`92233720368547.75`), &f); err != nil {
		t.Fatalf("Unmarshal(max) returned error: %v", err)
	}
	if f <= 0 {
		t.Fatalf("Unmarshal(max) = %d, want a positive amount", f)
	}
}

func TestFen_MarshalJSON(t *testing.T) {
	raw, err := json.Marshal(Fen(1205))
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	if string(raw) != "12.05" {
		t.Fatalf("Marshal = %s, want 12.05", raw)
	}
}

func TestKeys(t *testing.T) {
	if got := CategoryKey(42); got != "category_42" {
		t.Fatalf("CategoryKey = %q, want category_42", got)
	}
	if got := (OrderQuery{}).StatusKey(); got != "all" {
		t.Fatalf("StatusKey = %q, want all", got)
	}
	if got := (OrderQuery{Status: "1"}).StatusKey(); got != "1" {
		t.Fatalf("StatusKey = %q, want 1", got)
	}
}

func TestProduct_PaysWithScore(t *testing.T) {
	if !(Product{MinScore: 100}).PaysWithScore() {
		t.Fatalf("score-only product should pay with score")
	}
	if (Product{MinPrice: 100, MinScore: 100}).PaysWithScore() {
		t.Fatalf("priced product should not pay with score")
	}
	if (Product{}).PaysWithScore() {
		t.Fatalf("free product should not pay with score")
	}
}

func TestParseTimeLayouts(t *testing.T) {
	rfc := "2025-12-13T10:11:12Z"
	if parseTime(rfc).IsZero() {
		t.Fatalf("parseTime should parse RFC3339")
	}
	got := Order{DateAdd: "2025-12-13 10:11:12"}.ParsedDateAdd()
	if got.IsZero() {
		t.Fatalf("parseTime should parse mall timestamp")
	}
	if got.Year() != 2025 || got.Month() != time.December || got.Day() != 13 {
		t.Fatalf("parseTime = %v, want 2025-12-13", got)
	}
	if !parseTime("yesterday").IsZero() {
		t.Fatalf("parseTime should return zero for unknown layouts")
	}
}
