package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/seongsu-hq/popup-harvester/internal/domain"
)

func TestRunLogAppendsOneLinePerRun(t *testing.T) {
	dir := t.TempDir()
	log, err := NewRunLog(dir)
	if err != nil {
		t.Fatalf("NewRunLog: %v", err)
	}

	first := domain.RunSummary{StartedAt: time.Now().UTC(), Fetched: 3, Published: 1}
	second := domain.RunSummary{StartedAt: time.Now().UTC(), Fetched: 2, SkippedDuplicates: 1}

	if err := log.Append(first); err != nil {
		t.Fatalf("append first: %v", err)
	}
	if err := log.Append(second); err != nil {
		t.Fatalf("append second: %v", err)
	}

	f, err := os.Open(log.Path())
	if err != nil {
		t.Fatalf("open run log: %v", err)
	}
	defer f.Close()

	var lines []domain.RunSummary
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var s domain.RunSummary
		if err := json.Unmarshal(scanner.Bytes(), &s); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		lines = append(lines, s)
	}

	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Fetched != 3 || lines[1].SkippedDuplicates != 1 {
		t.Fatalf("unexpected summaries %+v", lines)
	}
}
