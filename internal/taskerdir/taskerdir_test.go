package taskerdir

import (
	"path/filepath"
	"testing"
)

func TestUserConfigPath(t *testing.T) {
	home := filepath.Join("home", "alice")
	want := filepath.Join("home", "alice", ".tasker", "tasker.toml")
	if got := UserConfigPath(home); got != want {
		t.Errorf("UserConfigPath: got %q, want %q", got, want)
	}
	if got := DirPath(""); got != Dir {
		t.Errorf("DirPath(\"\"): got %q, want %q", got, Dir)
	}
}

func TestResolve(t *testing.T) {
	abs, err := filepath.Abs("tasks.csv")
	if err != nil {
		t.Fatalf("Abs: %v", err)
	}
	tests := []struct {
		name, dir, file, want string
	}{
		{"relative", "data", "tasks.csv", filepath.Join("data", "tasks.csv")},
		{"absolute kept", "data", abs, abs},
		{"empty dir", "", "tasks.csv", "tasks.csv"},
		{"empty name", "data", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.dir, tt.file); got != tt.want {
				t.Errorf("Resolve(%q, %q) = %q, want %q", tt.dir, tt.file, got, tt.want)
			}
		})
	}
}
