package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// FixtureTimestamp is the timestamp written into fixture metadata
const FixtureTimestamp = "2025-01-15T10:30:00.000000"

// FixtureMessage is one role/content pair for a fixture session
type FixtureMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SessionDocument builds a session file body in the on-disk layout. An empty
// project is written as null.
func SessionDocument(model, project string, messages []FixtureMessage) map[string]interface{} {
	if messages == nil {
		messages = []FixtureMessage{}
	}
	var proj interface{}
	if project != "" && project != "default" {
		proj = project
	}
	return map[string]interface{}{
		"metadata": map[string]interface{}{
			"model":         model,
			"project":       proj,
			"created":       FixtureTimestamp,
			"last_modified": FixtureTimestamp,
			"message_count": len(messages),
			"context_data":  []interface{}{},
		},
		"messages": messages,
	}
}

// WriteSessionFile writes <root>/<project>/<id>.json and returns its path
func WriteSessionFile(t *testing.T, root, project, id, model string, messages ...FixtureMessage) string {
	t.Helper()
	return WriteRawSession(t, root, project, id, JSONMarshal(t, SessionDocument(model, project, messages)))
}

// JSONMarshal marshals a value to JSON for testing
func JSONMarshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Failed to marshal JSON: %v", err)
	}
	return data
}

// WriteRawSession writes arbitrary bytes as a session file, for corrupt or
// hand-crafted fixtures
func WriteRawSession(t *testing.T, root, project, id string, data []byte) string {
	t.Helper()
	if project == "" {
		project = "default"
	}
	path := filepath.Join(root, project, id+".json")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write fixture %s: %v", path, err)
	}
	return path
}

// ReadSessionFile decodes a session file into a generic document so tests
// can check the exact on-disk layout
func ReadSessionFile(t *testing.T, root, project, id string) map[string]interface{} {
	t.Helper()
	if project == "" {
		project = "default"
	}
	data, err := os.ReadFile(filepath.Join(root, project, id+".json"))
	if err != nil {
		t.Fatalf("Failed to read session file: %v", err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Session file is not valid JSON: %v", err)
	}
	return doc
}
