package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/edp1096/symspice/internal/app"
	"github.com/edp1096/symspice/internal/cli"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(outW, logW io.Writer, args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	symspice, err := app.NewApp(outW, logW, appConfig)
	if err != nil {
		return err
	}
	_, err = symspice.Run(context.Background())
	return err
}
