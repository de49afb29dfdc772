// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// mxchat is a terminal Matrix client.
//
// By default it runs an interactive TUI: a message pane for the
// current room and an input line. With --tail it prints every message
// as it arrives and never sends anything.
//
// Configuration comes from the file named by --config or by the
// MXCHAT_CONFIG environment variable.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/mxchat/lib/chatui"
	"github.com/bureau-foundation/mxchat/lib/config"
	"github.com/bureau-foundation/mxchat/lib/secret"
	"github.com/bureau-foundation/mxchat/lib/syncengine"
	"github.com/bureau-foundation/mxchat/lib/version"
)

// usageError is a command-line mistake. It exits with status 2.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }
func (e usageError) ExitCode() int { return 2 }

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		os.Exit(1)
	}
}

type options struct {
	configPath     string
	tail           bool
	logOutput      string
	passwordPrompt bool
	showVersion    bool
}

func parseFlags(args []string, output io.Writer) (options, error) {
	var opts options
	flagSet := pflag.NewFlagSet("mxchat", pflag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.StringVarP(&opts.configPath, "config", "c", "", "config file (default: $"+config.EnvironmentVariable+")")
	flagSet.BoolVar(&opts.tail, "tail", false, "print messages as they arrive instead of running the TUI")
	flagSet.StringVar(&opts.logOutput, "log-output", "", "also write JSON log records to this file")
	flagSet.BoolVar(&opts.passwordPrompt, "password-prompt", false, "read the account password from the terminal")
	flagSet.BoolVar(&opts.showVersion, "version", false, "print version information and exit")
	flagSet.Usage = func() {
		fmt.Fprintf(output, "Usage: mxchat [flags]\n\nFlags:\n")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		return options{}, err
	}
	if flagSet.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}
	return opts, nil
}

func run(args []string) error {
	opts, err := parseFlags(args, os.Stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return usageError{err}
	}
	if opts.showVersion {
		version.Print(os.Stdout, "mxchat")
		return nil
	}

	var cfg *config.Config
	if opts.configPath != "" {
		cfg, err = config.LoadFile(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	level, err := cfg.Log.SlogLevel()
	if err != nil {
		return err
	}

	credentials, err := cfg.Account.LoadCredentials()
	if err != nil {
		return err
	}
	defer credentials.Close()

	if opts.passwordPrompt {
		password, err := promptPassword(cfg.Account.Username)
		if err != nil {
			return err
		}
		if credentials.Password != nil {
			credentials.Password.Close()
		}
		credentials.Password = password
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fileHandler, closeFile, err := openFileLogHandler(opts.logOutput)
	if err != nil {
		return fmt.Errorf("opening log file %s: %w", opts.logOutput, err)
	}
	defer closeFile()

	engineConfig := syncengine.Config{
		Account: syncengine.Account{
			URL:        cfg.Account.URL,
			Username:   cfg.Account.Username,
			Token:      credentials.Token,
			Password:   credentials.Password,
			DeviceName: cfg.Account.DeviceName,
		},
		SyncInterval: cfg.Sync.Interval,
		SyncTimeout:  cfg.Sync.Timeout,
	}

	if opts.tail {
		engineConfig.Logger = slog.New(withFile(newCommandHandler(level), fileHandler))
		return runTail(ctx, engineConfig, os.Stdout)
	}

	tuiHandler := chatui.NewLogHandler(max(level, slog.LevelWarn))
	engineConfig.Logger = slog.New(withFile(tuiHandler, fileHandler))
	return runInteractive(ctx, engineConfig, tuiHandler)
}

// promptPassword reads a password from the controlling terminal
// without echo.
func promptPassword(username string) (*secret.Buffer, error) {
	descriptor := int(os.Stdin.Fd())
	if !term.IsTerminal(descriptor) {
		return nil, usageError{errors.New("--password-prompt needs a terminal on stdin")}
	}
	fmt.Fprintf(os.Stderr, "Password for %s: ", username)
	password, err := term.ReadPassword(descriptor)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	buffer, err := secret.NewFromBytes(password)
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	return buffer, nil
}

// runInteractive runs the engine behind the TUI. Quitting the TUI
// stops the engine; an engine failure stays on screen until the user
// quits.
func runInteractive(ctx context.Context, engineConfig syncengine.Config, logHandler *chatui.LogHandler) error {
	engine, err := syncengine.New(engineConfig)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(chatui.NewModel(ctx, engine), tea.WithAltScreen(), tea.WithContext(ctx))
	logHandler.SetProgram(program)
	chatui.Subscribe(engine, program.Send)

	engineDone := make(chan error, 1)
	go func() { engineDone <- engine.Run(ctx) }()

	_, programErr := program.Run()
	cancel()
	engineErr := <-engineDone

	if programErr != nil && !errors.Is(programErr, tea.ErrProgramKilled) {
		return programErr
	}
	if engineErr != nil && !errors.Is(engineErr, context.Canceled) {
		return engineErr
	}
	return nil
}
