package source

import (
	"os"
	"path/filepath"
	"testing"
)

func writeQueriesFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write queries file: %v", err)
	}
	return path
}

func TestLoadQueriesYAML(t *testing.T) {
	path := writeQueriesFile(t, "queries.yaml", `
queries:
  - keyword: 팝업스토어
    region: 성수동
    max_results: 50
    sort: sim
  - keyword: 서울숲 팝업
`)

	got, err := LoadQueries(path)
	if err != nil {
		t.Fatalf("LoadQueries: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 queries, got %d", len(got))
	}

	if got[0].Sort != SortByRelevance || got[0].MaxResults != 50 {
		t.Fatalf("unexpected first query %+v", got[0])
	}
	if got[0].Term() != "성수동 팝업스토어" {
		t.Fatalf("Term() = %q", got[0].Term())
	}

	// defaults applied to the sparse entry
	if got[1].Sort != SortByDate || got[1].MaxResults != defaultMaxResults {
		t.Fatalf("unexpected defaults %+v", got[1])
	}
}

func TestLoadQueriesJSON(t *testing.T) {
	path := writeQueriesFile(t, "queries.json", `{"queries":[{"keyword":"성수 팝업"}]}`)

	got, err := LoadQueries(path)
	if err != nil {
		t.Fatalf("LoadQueries: %v", err)
	}
	if len(got) != 1 || got[0].Keyword != "성수 팝업" {
		t.Fatalf("unexpected queries %+v", got)
	}
}

func TestLoadQueriesRejectsDuplicates(t *testing.T) {
	path := writeQueriesFile(t, "queries.yaml", `
queries:
  - keyword: 성수 팝업
  - keyword: "  성수 팝업  "
`)

	if _, err := LoadQueries(path); err == nil {
		t.Fatalf("expected duplicate keyword error")
	}
}

func TestLoadQueriesRejectsEmptyFile(t *testing.T) {
	path := writeQueriesFile(t, "queries.yaml", "queries: []\n")
	if _, err := LoadQueries(path); err == nil {
		t.Fatalf("expected error for empty query set")
	}
}

func TestLoadQueriesRejectsBadSort(t *testing.T) {
	path := writeQueriesFile(t, "queries.yaml", `
queries:
  - keyword: 성수 팝업
    sort: rank
`)
	if _, err := LoadQueries(path); err == nil {
		t.Fatalf("expected error for unknown sort value")
	}
}
