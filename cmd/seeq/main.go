// Command seeq compiles competency questions and resolves analytics
// applications against building graphs.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dimavrok/SeeQ-Programming-Model/internal/cli"
)

func main() {
	// Commands install their own logger; this one covers flag parsing.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	if err := run(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			// The command has already reported the failure.
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCommandError)
	}
}

// run executes the CLI with args, writing command output to outW and logs
// and usage errors to errW.
func run(outW, errW io.Writer, args []string) error {
	cmd := cli.NewRootCommand()
	cmd.SetOut(outW)
	cmd.SetErr(errW)
	cmd.SetArgs(args)
	cmd.SilenceErrors = true
	return cmd.Execute()
}
