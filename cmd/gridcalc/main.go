// Package main provides a command line driver that applies a script of cell
// edits to a sheet and prints the resulting grid.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vogtb/go-spreadsheet/packages/gridcore"
	"go.alis.build/alog"
	"google.golang.org/grpc/codes"
)

const (
	commandPrefix = "!"
	clearCommand  = commandPrefix + "clear"
)

var (
	scriptPath string
	printTexts bool
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gridcalc",
		Short: "Apply cell edits to a sheet and print the grid",
		Long: `gridcalc reads a script of edits, one per line, from a file or stdin:

  A1 <text>     set the cell to text (formulas start with '=')
  !clear A1     clear the cell

blank lines and lines starting with '#' are skipped. the first failing edit
stops the run.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         run,
	}

	rootCmd.Flags().StringVarP(&scriptPath, "file", "f", "", "Script file (default: stdin)")
	rootCmd.Flags().BoolVar(&printTexts, "texts", false, "Print cell texts instead of values")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every edit")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if verbose {
		alog.SetLevel(alog.LevelDebug)
	} else {
		alog.SetLevel(alog.LevelWarning)
	}

	var input io.Reader = cmd.InOrStdin()
	if scriptPath != "" {
		f, err := os.Open(scriptPath)
		if err != nil {
			return fmt.Errorf("failed to open script: %w", err)
		}
		defer f.Close()
		input = f
	}

	runner := gridcore.NewRunner(func(line string) {
		fmt.Fprintln(cmd.ErrOrStderr(), line)
	})
	if err := applyScript(cmd.Context(), runner, input); err != nil {
		return err
	}

	sheet := runner.Sheet()
	if printTexts {
		return sheet.PrintTexts(cmd.OutOrStdout())
	}
	return sheet.PrintValues(cmd.OutOrStdout())
}

// applyScript feeds every edit of the script to the runner and stops at the
// first failure, reporting the offending line
func applyScript(ctx context.Context, runner *gridcore.Runner, input io.Reader) error {
	if ctx == nil {
		ctx = context.Background()
	}

	scanner := bufio.NewScanner(input)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		address, text, _ := strings.Cut(line, " ")
		switch {
		case address == clearCommand:
			runner.Clear(text)
		case strings.HasPrefix(address, commandPrefix):
			err := gridcore.NewApplicationError(codes.InvalidArgument, fmt.Sprintf("unknown command %s", address))
			alog.Errorf(ctx, "line %d: %v", lineNo, err)
			return fmt.Errorf("line %d: %w", lineNo, err)
		default:
			runner.Set(address, text)
		}

		if err := runner.Error(); err != nil {
			alog.Errorf(ctx, "line %d: %v", lineNo, err)
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}
	return nil
}
