package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"runtime"

	"github.com/nibzard/tasker/internal/auth"
	"github.com/nibzard/tasker/internal/config"
	"github.com/nibzard/tasker/internal/logging"
	"github.com/nibzard/tasker/internal/todo"
)

// doctorCommand checks config, the task file and the credential file. It
// never authenticates and never prints task contents or credentials.
func (c *cli) doctorCommand(args []string) error {
	flags := flag.NewFlagSet("tasker doctor", flag.ContinueOnError)
	flags.SetOutput(c.stderr)
	verbose := flags.Bool("v", false, "Verbose output")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", flags.Args())
	}

	out := c.stdout
	fmt.Fprintln(out, "Tasker Doctor")
	fmt.Fprintln(out, "=============")
	fmt.Fprintln(out)

	allOK := true

	// Config
	fmt.Fprintln(out, "Config:")
	if len(c.sources.Files) == 0 {
		fmt.Fprintln(out, "  ✅ No config file (using defaults)")
	}
	for _, f := range c.sources.Files {
		fmt.Fprintf(out, "  ✅ Loaded %s\n", f)
	}
	for _, w := range c.sources.Warnings {
		fmt.Fprintf(out, "  ⚠️  %s\n", w)
	}
	if *verbose {
		for _, field := range config.Fields() {
			fmt.Fprintf(out, "     %s = %s (%s)\n", field, c.cfg.Value(field), c.sources.Sources[field])
		}
	}
	fmt.Fprintln(out)

	// Data directory
	fmt.Fprintf(out, "Data directory: %s\n", c.cfg.DataDir)
	if info, err := os.Stat(c.cfg.DataDir); err != nil {
		fmt.Fprintf(out, "  ❌ Error: %v\n", err)
		allOK = false
	} else if !info.IsDir() {
		fmt.Fprintln(out, "  ❌ Error: path is not a directory")
		allOK = false
	} else {
		fmt.Fprintln(out, "  ✅ OK")
	}
	fmt.Fprintln(out)

	if !c.checkTaskFile(*verbose) {
		allOK = false
	}
	if !c.checkCredentialFile() {
		allOK = false
	}

	// Log directory
	logDir, err := logging.FindLogDir(c.cfg.LogDir, c.cfg.DataDir)
	if err != nil {
		logDir = c.cfg.LogDir
	}
	fmt.Fprintf(out, "Log directory: %s\n", logDir)
	if _, err := os.Stat(logDir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintln(out, "  ⚠️  Not found (will be created by tui)")
		} else {
			fmt.Fprintf(out, "  ❌ Error: %v\n", err)
			allOK = false
		}
	} else {
		fmt.Fprintln(out, "  ✅ OK")
	}
	fmt.Fprintln(out)

	if allOK {
		fmt.Fprintln(out, "✅ All checks passed!")
		return nil
	}
	fmt.Fprintln(out, "⚠️  Some checks failed. Tasker may not function correctly.")
	return fmt.Errorf("doctor checks failed")
}

func (c *cli) checkTaskFile(verbose bool) bool {
	out := c.stdout
	defer fmt.Fprintln(out)

	fmt.Fprintf(out, "Task file: %s\n", c.cfg.TaskFile)
	store := todo.NewStore(c.cfg.TaskFile)
	report, err := store.Load()
	if err != nil {
		fmt.Fprintf(out, "  ❌ %v\n", err)
		return false
	}
	if report.Missing {
		fmt.Fprintln(out, "  ⚠️  Not found (created on first save)")
		return true
	}

	snap := store.Snapshot()
	pending, done := snap.Counts()
	fmt.Fprintf(out, "  ✅ %d task(s): %d todo, %d done\n", report.Loaded, pending, done)
	if n := len(report.Skipped); n > 0 {
		fmt.Fprintf(out, "  ⚠️  %d unreadable line(s) will be dropped on the next save\n", n)
		if verbose {
			for _, sk := range report.Skipped {
				fmt.Fprintf(out, "     - %s\n", sk)
			}
		}
	}
	return true
}

func (c *cli) checkCredentialFile() bool {
	out := c.stdout
	defer fmt.Fprintln(out)

	fmt.Fprintf(out, "Credential file: %s\n", c.cfg.CredentialFile)
	gate := auth.NewGate(c.cfg.CredentialFile)
	info, err := gate.Inspect()
	if err != nil {
		fmt.Fprintf(out, "  ❌ %v\n", err)
		return false
	}
	if !info.Exists {
		fmt.Fprintln(out, "  ⚠️  Not found (first login registers the account)")
		return true
	}
	if info.Hashed {
		fmt.Fprintln(out, "  ✅ Password stored as bcrypt hash")
	} else {
		fmt.Fprintln(out, "  ⚠️  Password stored in plain text (upgraded on next login)")
	}
	if runtime.GOOS != "windows" && info.Mode&0077 != 0 {
		fmt.Fprintf(out, "  ⚠️  Permissions %v allow group/other access\n", info.Mode)
	}
	return true
}
