package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/martinemde/diagrams/batch"
	"github.com/martinemde/diagrams/encode"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file ...]",
	Short: "Parse diagram files and print the syntax tree",
	Long: "Parse each file (stdin when none is given, or for \"-\") and write its program in the selected format. " +
		"Files are parsed concurrently; output keeps argument order.",
	RunE: runParse,
}

func init() {
	parseCmd.Flags().StringP("output", "o", "", "Write output to this file instead of stdout")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	verbose := viper.GetBool("verbose")
	format, err := encode.ParseFormat(viper.GetString("format"))
	if err != nil {
		return err
	}
	opts, err := parserOptions()
	if err != nil {
		return err
	}
	sources, err := readSources(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	if format == encode.TOML && len(sources) > 1 {
		return encode.ErrSingleDocument
	}

	emitter := batch.NewEventEmitter()
	if verbose {
		emitter.On(progressListener(cmd.ErrOrStderr()))
	}
	runner := &batch.Runner{
		Jobs:    viper.GetInt("jobs"),
		Timeout: viper.GetDuration("timeout"),
		Options: opts,
		Events:  emitter,
		Logger:  newLogger(cmd.ErrOrStderr()),
	}
	report, err := runner.Run(cmd.Context(), sources)
	if err != nil {
		return fmt.Errorf("parse run %s: %w", report.RunID, err)
	}

	out := cmd.OutOrStdout()
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer f.Close()
		out = f
	}

	enc, err := encode.NewEncoder(out, format)
	if err != nil {
		return err
	}
	for i, res := range report.Results {
		if res.Err != nil {
			renderDiagnostic(cmd.ErrOrStderr(), res.Name, sources[i].Text, res.Err)
			continue
		}
		if err := enc.Encode(res.Program); err != nil {
			return fmt.Errorf("writing %s: %w", res.Name, err)
		}
	}
	if err := enc.Close(); err != nil {
		return err
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d of %d inputs failed to parse", report.Failed, len(sources))
	}
	return nil
}

// progressListener prints one line per finished file.
func progressListener(w io.Writer) func(batch.Event) {
	var mu sync.Mutex
	ok := color.New(color.FgGreen).SprintFunc()
	bad := color.New(color.FgRed).SprintFunc()

	return func(e batch.Event) {
		mu.Lock()
		defer mu.Unlock()

		name, _ := e.Data["name"].(string)
		switch e.Type {
		case batch.EventFileParsed:
			diagrams, _ := e.Data["diagrams"].(int)
			ms, _ := e.Data["duration_ms"].(int64)
			fmt.Fprintf(w, "[parse] %s %s (%d diagrams, %dms)\n", name, ok("ok"), diagrams, ms)
		case batch.EventFileFailed:
			fmt.Fprintf(w, "[parse] %s %s\n", name, bad("failed"))
		case batch.EventRunCompleted:
			parsed, _ := e.Data["parsed"].(int)
			failed, _ := e.Data["failed"].(int)
			fmt.Fprintf(w, "[parse] %d parsed, %d failed\n", parsed, failed)
		}
	}
}
