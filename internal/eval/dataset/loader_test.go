package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lehigh-university-libraries/bookswap/internal/credit"
	"github.com/parquet-go/parquet-go"
)

func ptr(f float64) *float64 { return &f }

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestNewLoader(t *testing.T) {
	path := "./test.parquet"
	loader := NewLoader(path)

	if loader.datasetPath != path {
		t.Errorf("Expected path %s, got %s", path, loader.datasetPath)
	}
}

func TestLoadJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intakes.jsonl")
	writeFile(t, path, `{"id":"a","visual_assessment":{"cover_condition":9,"spine_condition":9,"pages_condition":8,"annotation_severity":"none","is_complete":true},"factors":{"book_title":"Dune"},"expected_credits":3.1}

{"visual_assessment":{"cover_condition":5,"annotation_severity":"heavy","is_complete":false}}
`)

	records, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.ID != "a" || first.Visual.CoverCondition != 9 || first.Factors.BookTitle != "Dune" {
		t.Errorf("Unexpected first record: %+v", first)
	}
	if !first.HasExpectation() || *first.ExpectedCredits != 3.1 {
		t.Errorf("Expected expected_credits 3.1, got %v", first.ExpectedCredits)
	}

	second := records[1]
	if second.ID != "line-3" {
		t.Errorf("Expected generated ID line-3, got %s", second.ID)
	}
	if second.HasExpectation() {
		t.Error("Expected no expectation on second record")
	}
	if second.Visual.AnnotationSeverity != credit.AnnotationHeavy {
		t.Errorf("Expected heavy annotations, got %s", second.Visual.AnnotationSeverity)
	}
}

func TestLoadJSONLInvalidLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jsonl")
	writeFile(t, path, "{not json}\n")

	if _, err := NewLoader(path).Load(); err == nil {
		t.Error("Expected parse error")
	}
}

func TestLoadSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intakes.jsonl")
	writeFile(t, path, "{\"id\":\"1\"}\n{\"id\":\"2\"}\n{\"id\":\"3\"}\n")

	records, err := NewLoader(path).LoadSample(2)
	if err != nil {
		t.Fatalf("LoadSample failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("Expected 2 records, got %d", len(records))
	}
}

func TestLoadParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intakes.parquet")
	rows := []IntakeRecord{
		{
			ID:              "p1",
			Visual:          credit.VisualAssessment{CoverCondition: 8, SpineCondition: 7, PagesCondition: 9, AnnotationSeverity: credit.AnnotationMinor, IsComplete: true},
			Factors:         credit.ContextualFactors{BookTitle: "Atomic Habits", IsNewBook: true},
			ExpectedCredits: ptr(4.9),
		},
		{
			ID:     "p2",
			Visual: credit.VisualAssessment{AnnotationSeverity: credit.AnnotationNone, ShouldReject: true},
		},
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		t.Fatalf("failed to write parquet fixture: %v", err)
	}

	records, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].Factors.BookTitle != "Atomic Habits" || !records[0].Factors.IsNewBook {
		t.Errorf("Unexpected factors: %+v", records[0].Factors)
	}
	if records[0].ExpectedCredits == nil || *records[0].ExpectedCredits != 4.9 {
		t.Errorf("Expected expected_credits 4.9, got %v", records[0].ExpectedCredits)
	}
	if records[1].ExpectedCredits != nil {
		t.Errorf("Expected nil expected_credits, got %v", *records[1].ExpectedCredits)
	}
	if !records[1].Visual.ShouldReject {
		t.Error("Expected second record to be flagged for rejection")
	}

	sample, err := NewLoader(path).LoadSample(1)
	if err != nil {
		t.Fatalf("LoadSample failed: %v", err)
	}
	if len(sample) != 1 || sample[0].ID != "p1" {
		t.Errorf("Unexpected sample: %+v", sample)
	}
}

func TestLoadGlob(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "2026", "b.json"), `{"id":"b"}`)
	writeFile(t, filepath.Join(dir, "2026", "05", "c.json"), `{"factors":{"book_title":"Dune"}}`)
	writeFile(t, filepath.Join(dir, "a.json"), `{"id":"a"}`)
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	records, err := NewLoader(filepath.Join(dir, "**", "*.json")).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}

	ids := map[string]bool{}
	for _, r := range records {
		ids[r.ID] = true
	}
	for _, want := range []string{"a", "b", "c"} {
		if !ids[want] {
			t.Errorf("Expected record %s in %v", want, ids)
		}
	}
}

func TestLoadGlobNoMatches(t *testing.T) {
	if _, err := NewLoader(filepath.Join(t.TempDir(), "*.json")).Load(); err == nil {
		t.Error("Expected error for empty glob")
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	if _, err := NewLoader("dataset.csv").Load(); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

func TestGetTitle(t *testing.T) {
	tests := []struct {
		name     string
		record   IntakeRecord
		expected string
	}{
		{
			name:     "uses book title",
			record:   IntakeRecord{ID: "x", Factors: credit.ContextualFactors{BookTitle: "Dune"}},
			expected: "Dune",
		},
		{
			name:     "falls back to id",
			record:   IntakeRecord{ID: "x"},
			expected: "x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.record.GetTitle(); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}
