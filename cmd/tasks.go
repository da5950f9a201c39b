package cmd

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/natefinch/atomic"

	"github.com/nibzard/tasker/internal/todo"
)

// lsCommand lists tasks with their 1-based positions.
func (c *cli) lsCommand(args []string) error {
	fs := flag.NewFlagSet("tasker ls", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	statusFilter := fs.String("status", "", "Filter by status (todo|done)")
	verbose := fs.Bool("v", false, "Show the task file and a summary")
	if err := fs.Parse(args); err != nil {
		return err
	}

	remaining := fs.Args()
	if len(remaining) == 1 && *statusFilter == "" {
		*statusFilter = remaining[0]
		remaining = remaining[1:]
	}
	if len(remaining) > 0 {
		return fmt.Errorf("unexpected arguments: %v", remaining)
	}

	var filter todo.Status
	if *statusFilter != "" {
		s, err := todo.ParseStatus(*statusFilter)
		if err != nil {
			return err
		}
		filter = s
	}

	sess, err := c.login()
	if err != nil {
		return err
	}
	snap := sess.Refresh()

	if *verbose {
		pending, done := snap.Counts()
		fmt.Fprintf(c.stdout, "Task file: %s\n", c.cfg.TaskFile)
		fmt.Fprintf(c.stdout, "Tasks: %d (todo %d, done %d)\n", len(snap.Tasks), pending, done)
		if report := sess.LoadReport(); report != nil {
			for _, sk := range report.Skipped {
				fmt.Fprintf(c.stdout, "Skipped %s\n", sk)
			}
		}
		fmt.Fprintln(c.stdout)
	}

	printed := 0
	for i, t := range snap.Tasks {
		if filter != "" && t.Status() != filter {
			continue
		}
		printTask(c, i+1, t)
		printed++
	}
	if printed == 0 {
		fmt.Fprintln(c.stdout, "No tasks found.")
	}
	return nil
}

func printTask(c *cli, position int, t todo.Task) {
	mark := " "
	if t.Done {
		mark = "x"
	}
	fmt.Fprintf(c.stdout, "%3d. [%s] %s", position, mark, t.Description)
	if t.Deadline != "" {
		fmt.Fprintf(c.stdout, " (due %s)", t.Deadline)
	}
	fmt.Fprintln(c.stdout)
}

// addCommand adds one task.
func (c *cli) addCommand(args []string) error {
	fs := flag.NewFlagSet("tasker add", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: tasker add <description> <deadline>")
	}

	sess, err := c.login()
	if err != nil {
		return err
	}
	task, err := sess.AddTask(fs.Arg(0), fs.Arg(1))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Added %d: %s\n", len(sess.Refresh().Tasks), task.Description)
	return nil
}

// doneCommand marks the task at a 1-based position as done.
func (c *cli) doneCommand(args []string) error {
	fs := flag.NewFlagSet("tasker done", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: tasker done <position>")
	}
	position, err := strconv.Atoi(fs.Arg(0))
	if err != nil || position < 1 {
		return fmt.Errorf("invalid position %q: want a number from ls", fs.Arg(0))
	}

	sess, err := c.login()
	if err != nil {
		return err
	}
	tasks := sess.Refresh().Tasks
	if position > len(tasks) {
		return fmt.Errorf("no task at position %d (%d tasks)", position, len(tasks))
	}
	task := tasks[position-1]
	if err := sess.CompleteTask(task.ID); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Done %d: %s\n", position, task.Description)
	return nil
}

// exportCommand writes all tasks as a JSON document.
func (c *cli) exportCommand(args []string) error {
	fs := flag.NewFlagSet("tasker export", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	output := fs.String("o", "", "Output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	sess, err := c.login()
	if err != nil {
		return err
	}
	tasks := sess.Refresh().Tasks

	if *output == "" {
		return todo.Export(c.stdout, tasks)
	}
	var buf bytes.Buffer
	if err := todo.Export(&buf, tasks); err != nil {
		return err
	}
	if err := atomic.WriteFile(*output, &buf); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Fprintf(c.stderr, "Exported %d task(s) to %s\n", len(tasks), *output)
	return nil
}

// importCommand validates a JSON export and appends its tasks.
func (c *cli) importCommand(args []string) error {
	fs := flag.NewFlagSet("tasker import", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: tasker import <file>")
	}

	// Validate before prompting so a bad file fails fast.
	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("open import file: %w", err)
	}
	tasks, err := todo.Import(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("import %s: %w", fs.Arg(0), err)
	}

	sess, err := c.login()
	if err != nil {
		return err
	}
	if err := sess.Import(tasks); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Imported %d task(s)\n", len(tasks))
	return nil
}
