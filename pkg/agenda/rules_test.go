package agenda

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRulesWithoutPath(t *testing.T) {
	rules, err := LoadRules("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defaults := DefaultRules()
	if rules.TimeColumnWindow != defaults.TimeColumnWindow {
		t.Errorf("expected default time window %d, got %d", defaults.TimeColumnWindow, rules.TimeColumnWindow)
	}
	if len(rules.RecordLabels) != len(defaults.RecordLabels) {
		t.Errorf("expected %d record labels, got %d", len(defaults.RecordLabels), len(rules.RecordLabels))
	}
}

func TestLoadRulesPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := []byte("record_labels:\n  - \"REGISTRO\"\nrecord_lookahead: 4\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("failed to write rules file: %v", err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rules.RecordLabels) != 1 || rules.RecordLabels[0] != "REGISTRO" {
		t.Errorf("expected overridden record labels, got %v", rules.RecordLabels)
	}
	if rules.RecordLookahead != 4 {
		t.Errorf("expected lookahead 4, got %d", rules.RecordLookahead)
	}

	// Everything not named in the file keeps its default.
	defaults := DefaultRules()
	if rules.TimeColumnWindow != defaults.TimeColumnWindow {
		t.Errorf("expected default time window %d, got %d", defaults.TimeColumnWindow, rules.TimeColumnWindow)
	}
	if len(rules.DoctorLabels) != len(defaults.DoctorLabels) {
		t.Errorf("expected default doctor labels, got %v", rules.DoctorLabels)
	}
	if len(rules.NameExclusions) != len(defaults.NameExclusions) {
		t.Errorf("expected default name exclusions, got %v", rules.NameExclusions)
	}
}

func TestLoadRulesMissingFile(t *testing.T) {
	rules, err := LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	// Defaults still come back so the caller can log and continue.
	if len(rules.RecordLabels) == 0 {
		t.Error("expected default rules alongside the error")
	}
}

func TestCompileRequiresRecordLabels(t *testing.T) {
	if _, err := (Rules{}).compile(); err == nil {
		t.Fatal("expected error for empty record labels")
	}
}

func TestCustomRecordLabelMatches(t *testing.T) {
	rules := DefaultRules()
	rules.RecordLabels = []string{"REGISTRO"}
	extractor, err := NewExtractor(rules)
	if err != nil {
		t.Fatalf("failed to create extractor: %v", err)
	}

	result, err := extractor.Extract(Grid{
		{"07:00", "Maria Silva", "REGISTRO: 4004"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Entries[0].RecordNumber != "4004" {
		t.Errorf("expected record 4004, got %q", result.Entries[0].RecordNumber)
	}
}
