// Package cmd implements the CLI command structure for tasker.
package cmd

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/nibzard/tasker/internal/auth"
	"github.com/nibzard/tasker/internal/config"
	"github.com/nibzard/tasker/internal/logging"
	"github.com/nibzard/tasker/internal/session"
	"github.com/nibzard/tasker/internal/todo"
	"github.com/nibzard/tasker/internal/ui"
)

// Version is set via ldflags at build time.
var Version = "dev"

// cli carries the resolved configuration and the process streams.
type cli struct {
	cfg     *config.Config
	sources *config.ConfigWithSources
	logger  *log.Logger

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	lines *bufio.Reader
}

// Run executes the tasker CLI.
func Run(ctx context.Context, args []string) error {
	return run(ctx, args, os.Stdin, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("tasker", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		printUsage(fs, stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("loading config: %w", err)
	}
	if *help {
		printUsage(fs, stdout)
		return nil
	}

	c := &cli{
		cfg:     cws.Config,
		sources: cws,
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
		lines:   bufio.NewReader(stdin),
	}
	c.logger = logging.NewFromConfig(stderr, c.cfg.LogLevel, c.cfg.LogFormat, c.cfg.LogTimestamps, c.cfg.LogCaller)

	if *showVersion {
		return c.versionCommand()
	}

	subcommand := "tui"
	remaining := fs.Args()
	if len(remaining) > 0 && !strings.HasPrefix(remaining[0], "-") {
		subcommand = remaining[0]
		remaining = remaining[1:]
	}

	// The TUI logs to a file, so it reports config warnings there.
	if subcommand != "tui" {
		c.logWarnings(c.logger)
	}

	switch subcommand {
	case "tui":
		return c.tuiCommand(ctx, remaining)
	case "ls", "list":
		return c.lsCommand(remaining)
	case "add":
		return c.addCommand(remaining)
	case "done":
		return c.doneCommand(remaining)
	case "export":
		return c.exportCommand(remaining)
	case "import":
		return c.importCommand(remaining)
	case "doctor":
		return c.doctorCommand(remaining)
	case "config":
		return c.configCommand(remaining)
	case "tail":
		return c.tailCommand(ctx, remaining)
	case "version":
		return c.versionCommand()
	case "help":
		printUsage(fs, stdout)
		return nil
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

func (c *cli) logWarnings(logger *log.Logger) {
	for _, w := range c.sources.Warnings {
		logger.Warn("config", "warning", w)
	}
}

// tuiCommand launches the interactive front end.
func (c *cli) tuiCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tasker tui", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if !ui.IsTTY(c.stdout) {
		return fmt.Errorf("tui requires a TTY; use ls, add or done for scripted access")
	}

	runLog, err := logging.NewRunLogger(c.cfg.LogDir, c.cfg.DataDir)
	if err != nil {
		return fmt.Errorf("creating run log: %w", err)
	}
	defer runLog.Close()

	logger := logging.NewFromConfig(runLog.Writer(), c.cfg.LogLevel, c.cfg.LogFormat, true, c.cfg.LogCaller)
	c.logWarnings(logger)
	logger.Info("starting tui", "tasks", c.cfg.TaskFile, "credentials", c.cfg.CredentialFile)

	sess := c.newSession(logger)
	return ui.RunTUI(ctx, sess, ui.WithLogger(logger))
}

// tailCommand prints the latest run log.
func (c *cli) tailCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tasker tail", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	follow := fs.Bool("f", false, "Follow the log (like tail -f)")
	fs.BoolVar(follow, "follow", false, "Follow the log (like tail -f)")
	n := fs.Int("n", 0, "Number of lines to show (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logDir, err := logging.FindLogDir(c.cfg.LogDir, c.cfg.DataDir)
	if err != nil {
		return fmt.Errorf("finding log directory: %w", err)
	}
	logPath, err := logging.FindLatestLog(logDir)
	if err != nil {
		return fmt.Errorf("finding latest log: %w", err)
	}
	if logPath == "" {
		fmt.Fprintln(c.stdout, "No log files found.")
		return nil
	}

	fmt.Fprintf(c.stdout, "Tailing: %s\n", logPath)
	if *follow {
		fmt.Fprintln(c.stdout, "(Ctrl+C to stop)")
	}
	fmt.Fprintln(c.stdout)

	return logging.TailLog(ctx, c.stdout, logPath, *n, *follow)
}

// configCommand prints the effective configuration or an example file.
func (c *cli) configCommand(args []string) error {
	fs := flag.NewFlagSet("tasker config", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	example := fs.Bool("example", false, "Print an example config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *example {
		fmt.Fprint(c.stdout, config.ExampleConfig())
		return nil
	}

	for _, field := range config.Fields() {
		fmt.Fprintf(c.stdout, "%-16s = %-40q # %s\n", field, c.cfg.Value(field), c.sources.Sources[field])
	}
	if len(c.sources.Files) > 0 {
		fmt.Fprintln(c.stdout)
		fmt.Fprintln(c.stdout, "Config files:")
		for _, f := range c.sources.Files {
			fmt.Fprintf(c.stdout, "  %s\n", f)
		}
	}
	return nil
}

// versionCommand prints version information.
func (c *cli) versionCommand() error {
	fmt.Fprintf(c.stdout, "tasker version %s\n", Version)
	return nil
}

func (c *cli) newSession(logger *log.Logger) *session.Session {
	gate := auth.NewGate(c.cfg.CredentialFile, auth.WithCost(c.cfg.BcryptCost), auth.WithLogger(logger))
	store := todo.NewStore(c.cfg.TaskFile, todo.WithLogger(logger))
	return session.New(gate, store, session.WithLogger(logger))
}

// login prompts for credentials and starts a session. Load errors are fatal
// here so a later save cannot overwrite an unreadable task file.
func (c *cli) login() (*session.Session, error) {
	sess := c.newSession(c.logger)

	registered, err := sess.Registered()
	if err != nil {
		return nil, err
	}
	if !registered {
		fmt.Fprintln(c.stderr, "No account yet: these credentials will be registered.")
	}

	username, err := c.promptLine("Username: ")
	if err != nil {
		return nil, fmt.Errorf("reading username: %w", err)
	}
	password, err := c.promptPassword("Password: ")
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}

	outcome, err := sess.Login(username, password)
	if !outcome.OK() {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	if err != nil {
		return nil, err
	}
	if outcome == auth.OutcomeRegistered {
		fmt.Fprintln(c.stderr, "Account created.")
	}
	return sess, nil
}

func (c *cli) promptLine(label string) (string, error) {
	fmt.Fprint(c.stderr, label)
	line, err := c.lines.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *cli) promptPassword(label string) (string, error) {
	if f, ok := c.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(c.stderr, label)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(c.stderr)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return c.promptLine(label)
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "Tasker - a single-user task tracker")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  tasker [options] [command] [command options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  tui                        Launch the terminal UI (default command)")
	fmt.Fprintln(w, "  ls [status]                List tasks with their positions")
	fmt.Fprintln(w, "  add <description> <deadline>  Add a task")
	fmt.Fprintln(w, "  done <position>            Mark a task as done")
	fmt.Fprintln(w, "  export [-o file]           Export tasks as JSON")
	fmt.Fprintln(w, "  import <file>              Import tasks from a JSON export")
	fmt.Fprintln(w, "  doctor                     Check config, task file and credential file")
	fmt.Fprintln(w, "  config [-example]          Show effective config or an example file")
	fmt.Fprintln(w, "  tail                       Tail the latest TUI log file")
	fmt.Fprintln(w, "  version                    Show version information")
	fmt.Fprintln(w, "  help                       Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands that read or change tasks prompt for the username and password")
	fmt.Fprintln(w, "on stdin. The first login registers the account.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Ls Options:")
	fmt.Fprintln(w, "  -status string")
	fmt.Fprintln(w, "        Filter by status (todo|done)")
	fmt.Fprintln(w, "  -v    Show the task file and a summary")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Tail Options:")
	fmt.Fprintln(w, "  -f, --follow")
	fmt.Fprintln(w, "        Follow the log (like tail -f)")
	fmt.Fprintln(w, "  -n int")
	fmt.Fprintln(w, "        Number of lines to show (0 = all)")
}
