// Package todo holds the task collection and its on-disk representation.
//
// The task file (tasks.csv) stores one task per line:
//
//	Buy milk,2024-01-01,false
//	"Call mom, then dad",2024-02-15,true
//
// Fields are description, deadline and the done flag. A field that contains a
// comma or a double quote is quoted CSV style, with embedded quotes doubled.
// Line breaks inside a field are stored as spaces, so every task is exactly one
// line. Files written by older versions (no quoting at all) still load: a line
// that is not valid CSV is split on every comma instead.
//
// # Loading
//
//   - A line needs at least three fields; shorter lines are skipped and reported
//     in the LoadReport, and loading continues with the next line.
//   - A trailing empty field counts, so "x,y," is a task that is not done.
//   - The done field is true only for "true" in any letter case.
//   - A missing file is an empty collection, not an error.
//
// # Saving
//
// Save replaces the whole file through a temp file and rename, so readers never
// observe a partially written task file.
//
// # Export format
//
// Export and Import use a JSON document validated against schema/tasks.schema.json:
//
//	{
//	  "schema_version": 1,
//	  "tasks": [
//	    {"description": "Buy milk", "deadline": "2024-01-01", "done": false}
//	  ]
//	}
package todo
