package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"finance-tracker/internal/account"
	"finance-tracker/internal/auth"
	"finance-tracker/internal/config"
	"finance-tracker/internal/logging"
	"finance-tracker/internal/storage"

	"golang.org/x/term"
)

type command func(args []string, stdin io.Reader, stdout, stderr io.Writer) error

var commands = map[string]command{
	"signup":      runSignup,
	"login":       runLogin,
	"add-expense": runAddExpense,
	"add-income":  runAddIncome,
	"list":        runList,
	"add-goal":    runAddGoal,
	"goals":       runGoals,
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		printUsage(stdout)
		return fmt.Errorf("missing command")
	}

	cmd, ok := commands[args[0]]
	if !ok {
		printUsage(stdout)
		return fmt.Errorf("unknown command %q", args[0])
	}
	return cmd(args[1:], stdin, stdout, stderr)
}

func printUsage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "Usage: finance <command> [flags]")
	fmt.Fprintf(w, "Commands: %s\n", strings.Join(names, ", "))
}

// commonFlags are accepted by every command.
type commonFlags struct {
	dbPath   *string
	envFile  *string
	username *string
	password *string
}

func newFlagSet(name string, stderr io.Writer) (*flag.FlagSet, *commonFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)

	return fs, &commonFlags{
		dbPath:   fs.String("db", config.DefaultDBPath, "Path to database file"),
		envFile:  fs.String("env", ".env", "Optional .env file"),
		username: fs.String("user", "", "Username"),
		password: fs.String("password", "", "Password (optional, will prompt if omitted)"),
	}
}

// app bundles what a command needs once flags are parsed.
type app struct {
	db      *storage.DB
	svc     *account.Service
	closers []io.Closer
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	return errors.Join(errs...)
}

func openApp(cf *commonFlags, stderr io.Writer) (*app, error) {
	cfg, err := config.Load(*cf.envFile)
	if err != nil {
		return nil, err
	}

	// Allow overriding db path via env var if not explicitly set via flag (flag default is used)
	dbPath := *cf.dbPath
	if dbPath == config.DefaultDBPath {
		dbPath = cfg.DBPath
	}

	logger, logCloser, err := logging.Open(cfg.LogLevel, cfg.LogFile, stderr)
	if err != nil {
		return nil, err
	}

	db, err := storage.NewDB(dbPath)
	if err != nil {
		logCloser.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &app{
		db:      db,
		svc:     account.NewService(db, auth.NewHasher(cfg.BcryptCost), logger),
		closers: []io.Closer{logCloser, db},
	}, nil
}

func requireUser(fs *flag.FlagSet, cf *commonFlags, stdout io.Writer, usage string) error {
	if strings.TrimSpace(*cf.username) == "" {
		fmt.Fprintln(stdout, "Usage: "+usage)
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: user")
	}
	return nil
}

func resolvePassword(cf *commonFlags, stdin io.Reader, stdout io.Writer) (string, error) {
	password := *cf.password
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout) // Print newline after password input
	}

	if strings.TrimSpace(password) == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	return password, nil
}

func readPassword(stdin io.Reader) (string, error) {
	// Check if stdin is a terminal
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Fallback for non-terminal (e.g. tests, pipes)
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// describe turns a service failure into a message for the terminal.
func describe(err error) error {
	switch {
	case errors.Is(err, account.ErrAlreadyExists),
		errors.Is(err, account.ErrInvalidCredentials),
		errors.Is(err, account.ErrInvalidInput):
		return err
	default:
		return fmt.Errorf("operation failed, see log for details: %w", err)
	}
}
