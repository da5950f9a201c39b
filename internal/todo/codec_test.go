package todo

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseDone(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"true", true},
		{"TRUE", true},
		{"True", true},
		{"tRuE", true},
		{"false", false},
		{"", false},
		{"yes", false},
		{"1", false},
		{" true", false},
		{"truee", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseDone(tt.in); got != tt.want {
				t.Errorf("ParseDone(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		task Task
		want string
	}{
		{"plain", Task{Description: "Buy milk", Deadline: "2024-01-01"}, "Buy milk,2024-01-01,false\n"},
		{"done", Task{Description: "Finish report", Deadline: "2024-02-15", Done: true}, "Finish report,2024-02-15,true\n"},
		{"comma", Task{Description: "Eggs, bread", Deadline: "2024-01-01"}, "\"Eggs, bread\",2024-01-01,false\n"},
		{"quote", Task{Description: `Say "hi"`, Deadline: "soon"}, "\"Say \"\"hi\"\"\",soon,false\n"},
		{"empty fields", Task{}, ",,false\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, []Task{tt.task}); err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if got := buf.String(); got != tt.want {
				t.Errorf("Encode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeLegacyUnquoted(t *testing.T) {
	input := "He said \"go\" now,2024-05-01,false\nplain,2024-05-02,true\n"
	tasks, skipped, err := Decode(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(skipped) != 0 {
		t.Errorf("unexpected skipped records: %v", skipped)
	}
	if len(tasks) != 2 {
		t.Fatalf("tasks: got %d, want 2", len(tasks))
	}
	if tasks[0].Description != `He said "go" now` {
		t.Errorf("description: got %q", tasks[0].Description)
	}
}

func TestDecodeEmptyLinesIgnored(t *testing.T) {
	tasks, skipped, err := Decode(strings.NewReader("\na,b,true\n\n"))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(tasks) != 1 || len(skipped) != 0 {
		t.Errorf("got %d tasks, %d skipped; want 1, 0", len(tasks), len(skipped))
	}
}

func TestDecodeCRLF(t *testing.T) {
	tasks, _, err := Decode(strings.NewReader("a,2024-01-01,true\r\nb,2024-01-02,false\r\n"))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(tasks) != 2 || !tasks[0].Done || tasks[1].Done {
		t.Errorf("got %+v", tasks)
	}
}

func TestEncodeFlattensLineBreaks(t *testing.T) {
	in := []Task{{Description: "line one\nline two\r\nthree", Deadline: "2024-01-01\r", Done: true}}
	var buf bytes.Buffer
	if err := Encode(&buf, in); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if got, want := buf.String(), "line one line two three,2024-01-01 ,true\n"; got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}

func TestDecodeLegacyQuotes(t *testing.T) {
	const valid = "Buy milk,2024-01-02,false\nFinish report,2024-02-15,true\n"

	tests := []struct {
		name        string
		first       string
		wantDesc    string
		wantLoaded  int
		wantSkipped int
	}{
		{"leading quote", `"Urgent" call mom,2024-01-01,false`, `"Urgent" call mom`, 3, 0},
		{"trailing quote", `call mom "now",2024-01-01,false`, `call mom "now"`, 3, 0},
		{"lone quote field", `",2024-01-01,false`, `"`, 3, 0},
		{"unterminated quote", `"call mom,2024-01-01,false`, `"call mom`, 3, 0},
		{"quote and too few fields", `"Urgent" call mom,2024-01-01`, "Buy milk", 2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, skipped, err := Decode(strings.NewReader(tt.first + "\n" + valid))
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if len(tasks) != tt.wantLoaded || len(skipped) != tt.wantSkipped {
				t.Fatalf("got %d tasks, %d skipped (%v); want %d, %d", len(tasks), len(skipped), skipped, tt.wantLoaded, tt.wantSkipped)
			}
			if tasks[0].Description != tt.wantDesc {
				t.Errorf("first description: got %q, want %q", tasks[0].Description, tt.wantDesc)
			}
			last := tasks[len(tasks)-1]
			if last.Description != "Finish report" || !last.Done {
				t.Errorf("last task: got %+v", last)
			}
			if tt.wantSkipped > 0 && skipped[0].Line != 1 {
				t.Errorf("skipped line: got %d, want 1", skipped[0].Line)
			}
		})
	}
}

func TestDecodeQuotedRecordStaysOnItsLine(t *testing.T) {
	input := "\"Eggs, bread\",2024-01-01,false\n\"open quote,x\nnext,2024-01-02,true\n"
	tasks, skipped, err := Decode(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(tasks) != 2 || len(skipped) != 1 {
		t.Fatalf("got %d tasks, %d skipped (%v); want 2, 1", len(tasks), len(skipped), skipped)
	}
	if tasks[0].Description != "Eggs, bread" || tasks[1].Description != "next" {
		t.Errorf("got %+v", tasks)
	}
	if skipped[0].Line != 2 {
		t.Errorf("skipped line: got %d, want 2", skipped[0].Line)
	}
}

func TestDecodeTrailingEmptyField(t *testing.T) {
	tasks, skipped, err := Decode(strings.NewReader("x,y,\n"))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(tasks) != 1 || len(skipped) != 0 || tasks[0].Done {
		t.Errorf("got %+v (skipped %v), want one task not done", tasks, skipped)
	}
}

func TestDecodeNoTrailingNewline(t *testing.T) {
	tasks, _, err := Decode(strings.NewReader("a,b,false\nc,d,true"))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(tasks) != 2 || tasks[1].Description != "c" || !tasks[1].Done {
		t.Errorf("got %+v", tasks)
	}
}
