package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/martinemde/diagrams/ast"
	"github.com/martinemde/diagrams/parser"
	"github.com/martinemde/diagrams/syntax"
)

var rootCmd = &cobra.Command{
	Use:           "diagrams",
	Short:         "Diagram text parser",
	Long:          "diagrams parses flowchart, sequence, class, ER, state and Gantt diagram text into a syntax tree.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return applyColor(viper.GetString("color"))
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("format", "f", "json", "Output format: json, yaml, toml or msgpack")
	rootCmd.PersistentFlags().StringP("kind", "k", "auto", "Diagram kind, or auto to detect from each header")
	rootCmd.PersistentFlags().Int("max-steps", syntax.DefaultMaxSteps, "Iteration budget per parse call")
	rootCmd.PersistentFlags().Duration("timeout", 10*time.Second, "Timeout per input file")
	rootCmd.PersistentFlags().IntP("jobs", "j", runtime.GOMAXPROCS(0), "Files parsed concurrently")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().Bool("debug", false, "Debug output")
	rootCmd.PersistentFlags().String("color", "auto", "Colored output: auto, always or never")

	_ = viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))
	_ = viper.BindPFlag("kind", rootCmd.PersistentFlags().Lookup("kind"))
	_ = viper.BindPFlag("max_steps", rootCmd.PersistentFlags().Lookup("max-steps"))
	_ = viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	_ = viper.BindPFlag("jobs", rootCmd.PersistentFlags().Lookup("jobs"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("color", rootCmd.PersistentFlags().Lookup("color"))
}

func initConfig() {
	viper.SetEnvPrefix("DIAGRAMS")
	viper.AutomaticEnv()

	// .diagrams.toml or .diagrams.yaml, here or in $HOME
	viper.SetConfigName(".diagrams")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Warn("ignoring config file", slog.Any("error", err))
		}
	}
}

func applyColor(mode string) error {
	switch mode {
	case "", "auto":
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	default:
		return fmt.Errorf("invalid --color %q (want auto, always or never)", mode)
	}
	return nil
}

// newLogger logs to w at Warn, or Info with --verbose and Debug with --debug.
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case viper.GetBool("debug"):
		level = slog.LevelDebug
	case viper.GetBool("verbose"):
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// parserOptions turns the kind and max_steps settings into parse options.
func parserOptions() ([]parser.Option, error) {
	opts := []parser.Option{parser.WithMaxSteps(viper.GetInt("max_steps"))}
	switch kind := ast.Kind(viper.GetString("kind")); {
	case kind == "" || kind == "auto":
	case kind.Valid():
		opts = append(opts, parser.WithKind(kind))
	default:
		return nil, fmt.Errorf("invalid --kind %q (want auto or one of %v)", kind, ast.Kinds)
	}
	return opts, nil
}
