package todo

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// minFields is the number of fields a task line needs: description, deadline, done.
const minFields = 3

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// singleLine replaces line breaks in s with spaces so a field never spans lines.
func singleLine(s string) string {
	return lineBreaks.Replace(s)
}

// Encode writes tasks as one CSV record per line.
func Encode(w io.Writer, tasks []Task) error {
	cw := csv.NewWriter(w)
	for _, t := range tasks {
		record := []string{singleLine(t.Description), singleLine(t.Deadline), strconv.FormatBool(t.Done)}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("encode task %q: %w", t.Description, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush tasks: %w", err)
	}
	return nil
}

// Decode reads task records from r, one per physical line. Records that cannot
// be used are returned as skipped instead of failing the whole read. Only read
// errors from r are returned as an error.
func Decode(r io.Reader) ([]Task, []SkippedRecord, error) {
	br := bufio.NewReader(r)

	var tasks []Task
	var skipped []SkippedRecord
	for lineNo := 1; ; lineNo++ {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return tasks, skipped, err
		}
		line = strings.TrimRight(line, "\r\n")

		if line != "" {
			fields := splitRecord(line)
			if len(fields) < minFields {
				skipped = append(skipped, SkippedRecord{
					Line:   lineNo,
					Reason: fmt.Sprintf("expected at least %d fields, got %d", minFields, len(fields)),
				})
			} else {
				tasks = append(tasks, Task{
					Description: fields[0],
					Deadline:    fields[1],
					Done:        ParseDone(fields[2]),
				})
			}
		}

		if err != nil {
			break
		}
	}
	return tasks, skipped, nil
}

// splitRecord parses one line as a CSV record. Lines that are not valid CSV,
// such as unescaped quotes from older files, are split on every comma.
func splitRecord(line string) []string {
	cr := csv.NewReader(strings.NewReader(line))
	cr.FieldsPerRecord = -1
	record, err := cr.Read()
	if err != nil {
		return strings.Split(line, ",")
	}
	return record
}
