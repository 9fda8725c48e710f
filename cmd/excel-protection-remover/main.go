// Package main provides the CLI entry point for ExcelProtectionRemover.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/daniel-leinweber/ExcelProtectionRemover/pkg/unprotect"
	"github.com/daniel-leinweber/ExcelProtectionRemover/pkg/unprotect/models"
	"github.com/daniel-leinweber/ExcelProtectionRemover/pkg/unprotect/output"
	"github.com/spf13/cobra"
)

const usageLine = "Usage: ExcelProtectionRemover <inputFile.xlsx> <outputFile.xlsx>"

// usageError is returned when the positional arguments are wrong.
type usageError struct {
	got int
}

func (e *usageError) Error() string {
	return fmt.Sprintf("expected 2 arguments, got %d", e.got)
}

type cliOptions struct {
	verbose    bool
	reportPath string
	verify     bool

	// helpShown is set when --help was handled; the run then exits 1 like
	// any other invocation without two file arguments.
	helpShown bool
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the CLI with args and returns the process exit code.
// Diagnostics go to out; debug logs go to logW.
func execute(args []string, out, logW io.Writer) int {
	if args == nil {
		// cobra falls back to os.Args on a nil slice.
		args = []string{}
	}

	rootCmd, o := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	rootCmd.SetErr(logW)

	if err := rootCmd.Execute(); err != nil {
		var uerr *usageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(out, usageLine)
		} else {
			fmt.Fprintf(out, "Error: %s\n", describe(err))
		}
		return 1
	}
	if o.helpShown {
		return 1
	}
	return 0
}

func newRootCmd() (*cobra.Command, *cliOptions) {
	o := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:   "ExcelProtectionRemover <inputFile.xlsx> <outputFile.xlsx>",
		Short: "Remove worksheet protection from Excel files",
		Long: `ExcelProtectionRemover copies an .xlsx workbook, removing every
sheetProtection element from its worksheets so the sheets can be edited
without the protection password.

Exactly two file arguments are required. Put "--" before them when a file
name starts with a dash:

  ExcelProtectionRemover -- -input.xlsx output.xlsx`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return &usageError{got: len(args)}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, *o)
		},
	}

	rootCmd.Flags().BoolVarP(&o.verbose, "verbose", "v", false, "Write debug logs to stderr")
	rootCmd.Flags().StringVar(&o.reportPath, "report", "", "Write a JSON report of the run to this path")
	rootCmd.Flags().BoolVar(&o.verify, "verify", false, "Reopen the output workbook and fail if it cannot be read")

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, _ []string) {
		o.helpShown = true
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, usageLine)
		fmt.Fprintln(out)
		fmt.Fprintln(out, cmd.Long)
		fmt.Fprintln(out)
		fmt.Fprint(out, cmd.Flags().FlagUsages())
	})

	return rootCmd, o
}

func run(cmd *cobra.Command, args []string, o cliOptions) error {
	inputPath, outputPath := args[0], args[1]
	out := cmd.OutOrStdout()

	opts := unprotect.DefaultOptions()
	opts.Verify = o.verify
	if o.verbose {
		opts.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	opts.OnPart = func(p models.PartResult) {
		printPart(out, p)
	}

	report, err := unprotect.Run(inputPath, outputPath, opts)
	if report != nil && o.reportPath != "" {
		if werr := writeReport(report, o.reportPath); werr != nil && err == nil {
			err = fmt.Errorf("failed to write report: %w", werr)
		}
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Processed workbook saved as: %s\n", outputPath)
	return nil
}

func printPart(w io.Writer, p models.PartResult) {
	switch {
	case p.Failed():
		fmt.Fprintf(w, "Error processing '%s': %s\n", p.Path, p.Error)
	case p.Modified():
		fmt.Fprintf(w, "Modified protection settings in: %s\n", p.Path)
	default:
		fmt.Fprintf(w, "No protection tag found in: %s\n", p.Path)
	}
}

func writeReport(report *models.Report, path string) error {
	jsonData, err := output.ReportToJSON(report, true)
	if err != nil {
		return err
	}
	return os.WriteFile(path, jsonData, 0644)
}

// describe turns pipeline errors into the messages shown to the user.
func describe(err error) string {
	switch {
	case errors.Is(err, unprotect.ErrInputNotFound):
		return err.Error()
	case errors.Is(err, unprotect.ErrInvalidExtension):
		return "Input file must have an .xlsx extension."
	case errors.Is(err, unprotect.ErrMissingWorksheets):
		return "Could not find 'xl/worksheets' directory. Is this a valid .xlsx file?"
	case errors.Is(err, unprotect.ErrEncryptedWorkbook):
		return "The workbook is encrypted with a file-open password and cannot be unpacked."
	}
	return err.Error()
}
