package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/adrg/xdg"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yomitori/yomitori/cmd"
	"github.com/yomitori/yomitori/internal/engine"
	"github.com/yomitori/yomitori/internal/logger"
	"github.com/yomitori/yomitori/internal/replay"
	"github.com/yomitori/yomitori/internal/view"
	"github.com/yomitori/yomitori/pkg/blockdetection"
	"github.com/yomitori/yomitori/pkg/blockdetection/tracking"
)

const appName = "yomitori"

var (
	Version     = "0.1.0"
	CommitSha   = "unknown"
	FullVersion = Version + "-" + CommitSha
)

var appDir = filepath.Join(xdg.StateHome, appName)

func init() {
	// Initialize logging
	if err := os.MkdirAll(appDir, 0755); err != nil {
		panic(fmt.Sprintf("Error creating log directory: %v", err))
	}

	logFilePath := filepath.Join(appDir, appName+".log")
	logger.InitFileLogger(logFilePath, "info")

	// Initialize crash reporting
	crashFilePath := filepath.Join(appDir, "crash")
	if f, err := os.Create(crashFilePath); err == nil {
		_ = debug.SetCrashOutput(f, debug.CrashOptions{})
	}
}

// replayOptions holds the flags shared by the replay and view commands
type replayOptions struct {
	inputFile  string
	configFile string
	targetLang string
	echo       bool
	verbose    bool
}

// noopTranslator leaves every block untranslated, showing the raw
// detection pipeline output.
type noopTranslator struct{}

func (noopTranslator) Translate(_ context.Context, _ engine.TranslationRequest) (engine.TranslationResponse, error) {
	return engine.TranslationResponse{}, nil
}

// echoTranslator answers every block with its own source text. It
// stands in for a translation backend when exercising tracking and
// context handling offline.
type echoTranslator struct{}

func (echoTranslator) Translate(_ context.Context, req engine.TranslationRequest) (engine.TranslationResponse, error) {
	resp := engine.TranslationResponse{
		Results: make([]engine.TranslationResult, 0, len(req.Blocks)),
	}
	for _, b := range req.Blocks {
		resp.Results = append(resp.Results, engine.TranslationResult{ID: b.ID, Text: b.Text})
	}
	return resp, nil
}

func pickTranslator(echo bool) engine.TranslationProvider {
	if echo {
		return echoTranslator{}
	}
	return noopTranslator{}
}

// loadConfig reads the TOML config, falling back to the XDG default
// path and then to built-in defaults.
func loadConfig(opts *replayOptions) (*Config, error) {
	path := opts.configFile
	if path == "" {
		path = DefaultConfigPath()
	}

	config, err := LoadConfigFromFile(path)
	if err != nil {
		return nil, err
	}
	if opts.targetLang != "" {
		config.Engine.TargetLanguage = opts.targetLang
	}
	return config, nil
}

// loadFrames reads JSONL frames from the input file or stdin
func loadFrames(inputFile string) ([]replay.Frame, error) {
	var reader io.Reader = os.Stdin
	if inputFile != "" {
		file, err := os.Open(inputFile)
		if err != nil {
			return nil, fmt.Errorf("opening input file: %w", err)
		}
		defer file.Close() // nolint: errcheck
		reader = file
	}
	return replay.ReadFrames(reader)
}

func newEngine(config *Config, echo bool) (*engine.Engine, error) {
	return engine.New(config.Engine, nil, pickTranslator(echo))
}

var (
	frameStyle      = color.New(color.Bold, color.FgHiWhite)
	settledStyle    = color.New(color.FgHiGreen)
	formingStyle    = color.New(color.FgHiYellow)
	staleStyle      = color.New(color.FgHiBlack)
	translatedStyle = color.New(color.FgHiCyan)
)

func stateStyle(s tracking.State) *color.Color {
	switch s {
	case tracking.Settled:
		return settledStyle
	case tracking.Stale:
		return staleStyle
	default:
		return formingStyle
	}
}

// runReplay feeds recorded frames through the engine and prints each
// frame's tracked blocks.
func runReplay(opts *replayOptions) error {
	if opts.verbose {
		logger.InitConsoleLogger(os.Stderr, "debug")
	}

	config, err := loadConfig(opts)
	if err != nil {
		return err
	}
	frames, err := loadFrames(opts.inputFile)
	if err != nil {
		return err
	}
	eng, err := newEngine(config, opts.echo)
	if err != nil {
		return err
	}

	for _, frame := range frames {
		blocks, stats := eng.ProcessFrame(context.Background(), frame.Detections)

		frameStyle.Printf("frame %d", frame.Index)
		fmt.Printf("  detections=%d blocks=%d malformed=%d overlap=%d size=%d\n",
			stats.Input, len(blocks), stats.Malformed, stats.OverlapDiscarded, stats.SizeDropped)

		for _, tb := range blocks {
			style := stateStyle(tb.State)
			style.Printf("  [%s gen=%d settle=%d] ", tb.State, tb.Generation, tb.SettleCount)
			fmt.Printf("%s %s %q", tb.Block.Orientation, tb.Block.Rect, tb.Block.Text)
			if tb.TranslatedText != "" {
				fmt.Print(" -> ")
				translatedStyle.Printf("%q", tb.TranslatedText)
			}
			fmt.Println()
		}
	}

	totals := eng.Stats()
	fmt.Printf("totals: applied=%d stale=%d superseded=%d malformed=%d overlap=%d size=%d errors=%d\n",
		totals.TranslationsApplied, totals.StaleResponses, totals.SupersededCycles,
		totals.MalformedDetections, totals.OverlapDiscarded, totals.SizeDropped,
		totals.ProviderErrors)
	return nil
}

// runView feeds recorded frames through the engine and opens the
// interactive terminal viewer on the resulting snapshots.
func runView(opts *replayOptions) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("view requires a terminal")
	}

	config, err := loadConfig(opts)
	if err != nil {
		return err
	}
	frames, err := loadFrames(opts.inputFile)
	if err != nil {
		return err
	}
	eng, err := newEngine(config, opts.echo)
	if err != nil {
		return err
	}

	snapshots := make([]view.FrameSnapshot, 0, len(frames))
	for _, frame := range frames {
		blocks, stats := eng.ProcessFrame(context.Background(), frame.Detections)
		snapshots = append(snapshots, view.FrameSnapshot{Blocks: blocks, Stats: stats})
	}

	return view.New(snapshots, regionBounds(config.Region, frames)).Present()
}

// regionBounds returns the configured capture region, or the union of
// all recorded detections when no region is configured.
func regionBounds(region RegionConfig, frames []replay.Frame) blockdetection.Rect {
	if region.Width > 0 && region.Height > 0 {
		return blockdetection.NewRect(region.X, region.Y, region.Width, region.Height)
	}

	var bounds blockdetection.Rect
	first := true
	for _, frame := range frames {
		for _, det := range frame.Detections {
			if first {
				bounds = det.Rect
				first = false
			} else {
				bounds = bounds.Union(det.Rect)
			}
		}
	}
	return bounds
}

func main() {
	opts := &replayOptions{}
	showVersion := false

	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "Screen text block detection and translation engine",
		Long: color.New(color.FgHiMagenta).Sprintf(
			"Groups OCR text detections into stable blocks and keeps their translations fresh. %s",
			color.New(color.FgBlue).Sprintf("(%s)", FullVersion),
		),
		RunE: func(c *cobra.Command, args []string) error {
			if showVersion {
				fmt.Printf("%s version: %s\n", appName, FullVersion)
				return nil
			}
			return c.Help()
		},
	}

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Run recorded OCR frames through the engine and print each frame",
		RunE: func(c *cobra.Command, args []string) error {
			return runReplay(opts)
		},
	}

	viewCmd := &cobra.Command{
		Use:   "view",
		Short: "Step through recorded frames in an interactive terminal viewer",
		RunE: func(c *cobra.Command, args []string) error {
			return runView(opts)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "Path to the TOML configuration file")
	rootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "Print version and exit")

	for _, sub := range []*cobra.Command{replayCmd, viewCmd} {
		sub.Flags().StringVarP(&opts.inputFile, "input-file", "i", "", "Read JSONL frames from file instead of stdin")
		sub.Flags().StringVarP(&opts.targetLang, "target-lang", "t", "", "Override the configured target language")
		sub.Flags().BoolVar(&opts.echo, "echo", false, "Translate blocks with their own source text")
	}
	replayCmd.Flags().BoolVar(&opts.verbose, "verbose", false, "Log engine internals to stderr")

	rootCmd.AddCommand(replayCmd, viewCmd)

	rootCmd.SetHelpTemplate(cmd.HelpTemplate)
	rootCmd.SetUsageFunc(func(c *cobra.Command) error {
		return cmd.ColorUsageFunc(c.OutOrStderr(), c)
	})

	if err := rootCmd.Execute(); err != nil {
		slog.Error("Error executing command", "error", err)
		os.Exit(1)
	}
}
