package fsio

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteJSONRoundTrip(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "nested", "report.json")

	in := map[string]int{"total": 5, "succeeded": 4, "failed": 1}
	if err := WriteJSON(path, in); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	var out map[string]int
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("parse artifact: %v", err)
	}
	if out["total"] != 5 || out["succeeded"] != 4 || out["failed"] != 1 {
		t.Errorf("round trip mismatch: %v", out)
	}
}

func TestWriteBytesLeavesNoTempFiles(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "artifact.txt")
	if err := WriteBytes(path, []byte("data")); err != nil {
		t.Fatalf("WriteBytes: %v", err)
	}

	entries, err := os.ReadDir(tmp)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".mmcli-tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}
