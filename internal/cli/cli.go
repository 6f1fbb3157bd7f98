// Package cli parses command line arguments into an app configuration and
// carries process exit codes.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/edp1096/symspice/internal/app"
)

// ExitError is an error with a process exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command line arguments. It returns the configuration,
// whether the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.AppConfig, bool, error) {
	flagSet := flag.NewFlagSet("symspice", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, `
symspice - symbolic MNA analysis of linear circuits with an HTML report.

Usage:
  symspice [options] [SCHEMATIC]

Arguments:
  SCHEMATIC
    LTspice .asc file, analysed with the built-in workflow when no
    project file is given.

Options:
`)
		flagSet.PrintDefaults()
	}

	projectFlag := flagSet.String("project", "", "Path to an HCL project file.")
	schematicFlag := flagSet.String("schematic", "", "Path to the LTspice schematic (overrides the project).")
	outFlag := flagSet.String("out", "", "Output directory (overrides the project).")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	schematic := *schematicFlag
	if schematic == "" && flagSet.NArg() > 0 {
		schematic = flagSet.Arg(0)
	}
	if *projectFlag == "" && schematic == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	return &app.AppConfig{
		ProjectFile: *projectFlag,
		Schematic:   schematic,
		OutputDir:   *outFlag,
		LogFormat:   logFormat,
		LogLevel:    logLevel,
	}, false, nil
}
