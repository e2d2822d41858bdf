package facet

import (
	"strings"
	"testing"
)

func mustSelection(t *testing.T, categories map[string][]string) Selection {
	t.Helper()
	s, err := NewSelection(categories)
	if err != nil {
		t.Fatalf("NewSelection: %v", err)
	}
	return s
}

func TestNewSelection_Empty(t *testing.T) {
	for name, categories := range map[string]map[string][]string{
		"nil":          nil,
		"no entries":   {},
		"empty values": {"units": {}},
		"blank values": {"units": {"", ""}},
	} {
		t.Run(name, func(t *testing.T) {
			s := mustSelection(t, categories)
			if !s.IsEmpty() {
				t.Errorf("IsEmpty() = false, want true")
			}
			if !s.Matches(nil) {
				t.Errorf("empty selection must match everything")
			}
		})
	}
}

func TestNewSelection_RejectsEmptyCategory(t *testing.T) {
	_, err := NewSelection(map[string][]string{"": {"1"}})
	if err == nil {
		t.Fatal("expected error for empty category name")
	}
}

func TestNewSelection_RejectsTooManyValues(t *testing.T) {
	values := make([]string, MaxValuesPerCategory+1)
	for i := range values {
		values[i] = strings.Repeat("v", i+1)
	}
	_, err := NewSelection(map[string][]string{"units": values})
	if err == nil {
		t.Fatal("expected error for too many values")
	}
}

func TestNewSelection_DedupesValues(t *testing.T) {
	s := mustSelection(t, map[string][]string{"units": {"3", "3", "4"}})
	if got := len(s.Values("units")); got != 2 {
		t.Errorf("len(Values) = %d, want 2", got)
	}
}

func TestMatches_ANDAcrossCategories(t *testing.T) {
	s := mustSelection(t, map[string][]string{
		"units": {"4"},
		"level": {"upper"},
	})

	tests := []struct {
		name   string
		facets map[string][]string
		want   bool
	}{
		{"both satisfied", map[string][]string{"units": {"4"}, "level": {"upper"}}, true},
		{"only units", map[string][]string{"units": {"4"}, "level": {"lower"}}, false},
		{"only level", map[string][]string{"units": {"3"}, "level": {"upper"}}, false},
		{"category missing", map[string][]string{"units": {"4"}}, false},
		{"no facets at all", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Matches(tt.facets); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatches_ORWithinCategory(t *testing.T) {
	s := mustSelection(t, map[string][]string{"units": {"3", "4"}})

	if !s.Matches(map[string][]string{"units": {"4"}}) {
		t.Error("value 4 should match the 3-or-4 selection")
	}
	if !s.Matches(map[string][]string{"units": {"1", "3"}}) {
		t.Error("multi-valued record sharing one value should match")
	}
	if s.Matches(map[string][]string{"units": {"5+"}}) {
		t.Error("value 5+ should not match the 3-or-4 selection")
	}
}

func TestKey_Canonical(t *testing.T) {
	a := mustSelection(t, map[string][]string{
		"units": {"4", "3"},
		"level": {"upper"},
	})
	b := mustSelection(t, map[string][]string{
		"level": {"upper"},
		"units": {"3", "4"},
	})

	if a.Key() != b.Key() {
		t.Errorf("keys differ for equivalent selections: %q vs %q", a.Key(), b.Key())
	}
	if want := "level=upper;units=3,4"; a.Key() != want {
		t.Errorf("Key() = %q, want %q", a.Key(), want)
	}
}

func TestKey_EmptySelection(t *testing.T) {
	s := mustSelection(t, nil)
	if s.Key() != "" {
		t.Errorf("Key() = %q, want empty", s.Key())
	}
}
