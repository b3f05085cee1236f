package notify

import (
	"os"
	"path/filepath"
	"testing"
)

func writeNotifiersFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write notifiers file: %v", err)
	}
	return path
}

func TestLoadRegistryYAML(t *testing.T) {
	path := writeNotifiersFile(t, "notifiers.yaml", `
notifiers:
  - id: ops-queue
    type: sqs
    sqs:
      uri: https://sqs.ap-northeast-2.amazonaws.com/1/popups
      region: ap-northeast-2
  - id: webhook
    type: http
    enabled: false
    http:
      url: https://hooks.example.com/popups
      method: post
`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}

	if len(reg.All()) != 2 {
		t.Fatalf("expected 2 notifiers, got %d", len(reg.All()))
	}

	enabled := reg.Enabled()
	if len(enabled) != 1 || enabled[0].ID != "ops-queue" {
		t.Fatalf("expected only ops-queue enabled, got %+v", enabled)
	}

	hook, ok := reg.ByID("webhook")
	if !ok {
		t.Fatalf("ByID(webhook) not found")
	}
	if hook.HTTP.Method != "POST" {
		t.Fatalf("method must be upper-cased, got %q", hook.HTTP.Method)
	}
	if hook.HTTP.TimeoutSeconds != httpDefaultTimeoutSeconds {
		t.Fatalf("default timeout not applied: %d", hook.HTTP.TimeoutSeconds)
	}
}

func TestLoadRegistryRejectsIncompleteEntries(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing id", "notifiers:\n  - type: http\n    http:\n      url: https://x\n"},
		{"missing sqs block", "notifiers:\n  - id: q\n    type: sqs\n"},
		{"missing sqs region", "notifiers:\n  - id: q\n    type: sqs\n    sqs:\n      uri: https://x\n"},
		{"missing sns topic", "notifiers:\n  - id: s\n    type: sns\n    sns:\n      region: ap-northeast-2\n"},
		{"missing pubsub topic", "notifiers:\n  - id: p\n    type: gcppubsub\n    gcppubsub:\n      project_id: proj\n"},
		{"missing http url", "notifiers:\n  - id: h\n    type: http\n    http:\n      method: post\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeNotifiersFile(t, "notifiers.yaml", tc.content)
			if _, err := LoadRegistry(path); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadRegistryRejectsDuplicateIDs(t *testing.T) {
	path := writeNotifiersFile(t, "notifiers.yaml", `
notifiers:
  - id: hook
    type: http
    http:
      url: https://a
  - id: hook
    type: http
    http:
      url: https://b
`)
	if _, err := LoadRegistry(path); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}
