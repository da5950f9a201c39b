package todo

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestExportImport(t *testing.T) {
	tasks := []Task{
		{ID: 7, Description: "Buy milk", Deadline: "2024-01-01"},
		{ID: 8, Description: "Finish report", Deadline: "2024-02-15", Done: true},
	}

	var buf bytes.Buffer
	if err := Export(&buf, tasks); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	out := buf.String()
	if !strings.HasSuffix(out, "\n") {
		t.Error("export should end with a newline")
	}
	if !strings.Contains(out, `"schema_version": 1`) {
		t.Errorf("export missing schema_version: %s", out)
	}
	if strings.Contains(out, `"ID"`) || strings.Contains(out, `"id"`) {
		t.Errorf("export should not include in-memory IDs: %s", out)
	}

	imported, err := Import(&buf)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if len(imported) != 2 {
		t.Fatalf("imported: got %d, want 2", len(imported))
	}
	for i := range tasks {
		if imported[i].Description != tasks[i].Description || imported[i].Done != tasks[i].Done {
			t.Errorf("task %d: got %+v, want %+v", i, imported[i], tasks[i])
		}
		if !imported[i].ID.IsZero() {
			t.Errorf("imported task %d should have no ID yet", i)
		}
	}
}

func TestExportEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(&buf, nil); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"tasks": []`) {
		t.Errorf("empty export should have an empty tasks array: %s", buf.String())
	}
	if _, err := Import(&buf); err != nil {
		t.Errorf("empty export should import cleanly: %v", err)
	}
}

func TestImportValidation(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantPath string
	}{
		{
			name:     "wrong schema version",
			input:    `{"schema_version": 2, "tasks": []}`,
			wantPath: "schema_version",
		},
		{
			name:     "missing tasks",
			input:    `{"schema_version": 1}`,
			wantPath: "",
		},
		{
			name:     "done not boolean",
			input:    `{"schema_version": 1, "tasks": [{"description": "a", "deadline": "b", "done": "yes"}]}`,
			wantPath: "tasks[0].done",
		},
		{
			name:     "missing description",
			input:    `{"schema_version": 1, "tasks": [{"deadline": "b", "done": false}]}`,
			wantPath: "tasks[0]",
		},
		{
			name:     "unknown field",
			input:    `{"schema_version": 1, "tasks": [{"description": "a", "deadline": "b", "done": false, "priority": 1}]}`,
			wantPath: "tasks[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Import(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected validation error")
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %T: %v", err, err)
			}
			if ve.Path != tt.wantPath {
				t.Errorf("path: got %q, want %q (%v)", ve.Path, tt.wantPath, err)
			}
		})
	}
}

func TestImportInvalidJSON(t *testing.T) {
	if _, err := Import(strings.NewReader("{not json")); err == nil {
		t.Error("expected parse error")
	}
}

func TestJSONPointerToPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"/", ""},
		{"#/tasks/0/done", "tasks[0].done"},
		{"/tasks/12", "tasks[12]"},
		{"/a~1b/c~0d", "a/b.c~d"},
	}
	for _, tt := range tests {
		if got := jsonPointerToPath(tt.in); got != tt.want {
			t.Errorf("jsonPointerToPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
