package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/book-expert/logger"
	"github.com/spf13/pflag"
	"golang.org/x/term"
	"pkt.systems/version"

	"github.com/book-expert/script-annotator/internal/config"
	"github.com/book-expert/script-annotator/internal/core"
	"github.com/book-expert/script-annotator/internal/generation"
	"github.com/book-expert/script-annotator/internal/render"
	"github.com/book-expert/script-annotator/internal/transcript"
)

// Flag names.
const (
	flagInput       = "input"
	flagGenerate    = "generate"
	flagPassword    = "password"
	flagDisease     = "disease"
	flagSymptom     = "symptom"
	flagInstruction = "instruction"
	flagBaseURL     = "base-url"
	flagTimeout     = "timeout"
	flagMarkers     = "markers"
	flagWidth       = "width"
	flagPlain       = "plain"
	flagJSON        = "json"
	flagHealth      = "health"
	flagVersion     = "version"
	flagLogDir      = "log-dir"
)

// Error and log messages.
const (
	errCannotSpecifyBoth   = "cannot specify both --input and --generate"
	errPasswordRequired    = "--password is required with --generate"
	errReadInput           = "failed to read input: %w"
	errWriteOutput         = "failed to write output: %w"
	logConfigFallback      = "Configuration unavailable, using defaults: %v"
	logDefaultsInvalid     = "Default configuration failed validation: %v"
	logGeneratingScript    = "Requesting script from the generation service"
	logAudioUnavailable    = "Audio locator unavailable: %v"
	logGenerationFailed    = "Generation failed: %v"
	logAnnotated           = "Annotated %d lines and %d chapters"
	msgServiceHealthy      = "Generation service is healthy"
	msgAudioReady          = "Audio: %s\n\n"
	logFileName            = "annotate.log"
	defaultWidth           = 80
	healthCheckTimeout     = 10 * time.Second
	defaultTimeoutDuration = 0
)

var (
	// ErrCannotSpecifyBoth is returned when a file input and generation are both requested.
	ErrCannotSpecifyBoth = errors.New(errCannotSpecifyBoth)
	// ErrPasswordRequired is returned when --generate is used without a password.
	ErrPasswordRequired = errors.New(errPasswordRequired)
)

// appFlags holds the parsed command-line flag values.
type appFlags struct {
	input       string
	generate    bool
	password    string
	disease     string
	symptom     string
	instruction string
	baseURL     string
	timeout     time.Duration
	markers     string
	width       int
	plain       bool
	json        bool
	health      bool
	version     bool
	logDir      string
}

func init() {
	version.SetDefaultModule("github.com/book-expert/script-annotator")
}

func main() {
	err := run(os.Args[1:], os.Stdin, os.Stdout)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// run is the application entry point, returning an error on failure.
func run(args []string, stdin io.Reader, stdout io.Writer) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}

	if flags.version {
		fmt.Fprintln(stdout, version.Module(), version.Current())

		return nil
	}

	err = validateFlags(flags)
	if err != nil {
		return err
	}

	appLog, err := logger.New(flags.logDir, logFileName)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLog.Close()

	cfg := loadConfig(appLog)
	applyFlagOverrides(cfg, flags)

	client := generation.NewClient(cfg.Generation.BaseURL, time.Duration(cfg.Generation.TimeoutSeconds)*time.Second)

	if flags.health {
		return handleHealthCheck(client, appLog, stdout)
	}

	return execute(context.Background(), cfg, flags, client, appLog, stdin, stdout)
}

// parseFlags defines and parses command-line flags, returning them in a struct.
func parseFlags(args []string) (appFlags, error) {
	var flags appFlags

	set := pflag.NewFlagSet("annotate", pflag.ContinueOnError)
	set.StringVarP(&flags.input, flagInput, "i", "", "Annotated script file (defaults to stdin)")
	set.BoolVarP(&flags.generate, flagGenerate, "g", false, "Request a new script from the generation service")
	set.StringVar(&flags.password, flagPassword, "", "Access password for the generation service")
	set.StringVar(&flags.disease, flagDisease, "", "Condition to address")
	set.StringVar(&flags.symptom, flagSymptom, "", "Specific symptom")
	set.StringVar(&flags.instruction, flagInstruction, "", "Additional instructions or preferences")
	set.StringVar(&flags.baseURL, flagBaseURL, "", "Generation service base URL (overrides configuration)")
	set.DurationVar(&flags.timeout, flagTimeout, defaultTimeoutDuration, "Generation request timeout (overrides configuration)")
	set.StringVarP(&flags.markers, flagMarkers, "m", "", "Structural markers to strip: chapter-tags|break-lines|none")
	set.IntVarP(&flags.width, flagWidth, "w", 0, "Output width (0 uses terminal width if available)")
	set.BoolVarP(&flags.plain, flagPlain, "b", false, "Disable ANSI styling")
	set.BoolVar(&flags.json, flagJSON, false, "Write the annotated document as JSON")
	set.BoolVar(&flags.health, flagHealth, false, "Check generation service health and exit")
	set.BoolVar(&flags.version, flagVersion, false, "Print version and exit")
	set.StringVar(&flags.logDir, flagLogDir, os.TempDir(), "Directory for the log file")

	err := set.Parse(args)
	if err != nil {
		return flags, fmt.Errorf("failed to parse flags: %w", err)
	}

	if flags.input == "" && set.NArg() > 0 {
		flags.input = set.Arg(0)
	}

	return flags, nil
}

// validateFlags checks required and conflicting arguments.
func validateFlags(flags appFlags) error {
	if flags.generate && flags.input != "" {
		return ErrCannotSpecifyBoth
	}

	if flags.generate && flags.password == "" {
		return ErrPasswordRequired
	}

	if flags.markers != "" {
		_, err := transcript.ParseMarkerStyle(flags.markers)
		if err != nil {
			return fmt.Errorf("invalid --%s: %w", flagMarkers, err)
		}
	}

	return nil
}

// loadConfig reads the shared configuration, falling back to defaults when
// no configuration can be found. The CLI works without a project file.
func loadConfig(appLog *logger.Logger) *config.Config {
	cfg, err := config.Load(appLog)
	if err == nil {
		return cfg
	}

	appLog.Warn(logConfigFallback, err)

	return fallbackConfig(appLog)
}

// fallbackConfig returns the built-in defaults.
func fallbackConfig(appLog *logger.Logger) *config.Config {
	cfg := &config.Config{}

	err := cfg.Validate()
	if err != nil {
		appLog.Warn(logDefaultsInvalid, err)
	}

	return cfg
}

func applyFlagOverrides(cfg *config.Config, flags appFlags) {
	if flags.baseURL != "" {
		cfg.Generation.BaseURL = flags.baseURL
	}

	if flags.timeout > 0 {
		cfg.Generation.TimeoutSeconds = int(flags.timeout / time.Second)
	}

	if flags.markers != "" {
		cfg.Transcript.MarkerStyle = flags.markers
	}

	if flags.width > 0 {
		cfg.Render.Width = flags.width
	}

	if flags.plain {
		cfg.Render.Plain = true
	}
}

// handleHealthCheck performs a service health check and prints the result.
func handleHealthCheck(client core.Generator, appLog *logger.Logger, stdout io.Writer) error {
	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()

	err := client.HealthCheck(ctx)
	if err != nil {
		appLog.Error("Health check failed: %v", err)

		return err
	}

	fmt.Fprintln(stdout, msgServiceHealthy)

	return nil
}

// execute obtains a script, annotates it and writes the result.
func execute(
	ctx context.Context,
	cfg *config.Config,
	flags appFlags,
	generator core.Generator,
	appLog *logger.Logger,
	stdin io.Reader,
	stdout io.Writer,
) error {
	style, err := transcript.ParseMarkerStyle(cfg.Transcript.MarkerStyle)
	if err != nil {
		return err
	}

	fullText, chapters, audioURL, err := obtainScript(ctx, flags, generator, appLog, stdin)
	if err != nil {
		return err
	}

	document := transcript.Build(fullText, chapters, transcript.FiltersFor(style)...)
	appLog.Info(logAnnotated, document.LineCount(), len(document.Chapters))

	if flags.json {
		return writeJSON(stdout, document)
	}

	if audioURL != "" {
		fmt.Fprintf(stdout, msgAudioReady, audioURL)
	}

	renderer := render.New(render.Options{
		Width: resolveWidth(cfg.Render.Width),
		Plain: cfg.Render.Plain || !isTerminal(stdout),
	})

	err = renderer.RenderDocument(stdout, document)
	if err != nil {
		return fmt.Errorf(errWriteOutput, err)
	}

	return nil
}

// obtainScript returns the full script, its chapter bodies and, for a
// generated script, the audio locator.
func obtainScript(
	ctx context.Context,
	flags appFlags,
	generator core.Generator,
	appLog *logger.Logger,
	stdin io.Reader,
) (fullText string, chapters []string, audioURL string, err error) {
	if flags.generate {
		return generateScript(ctx, flags, generator, appLog)
	}

	data, err := readInput(flags.input, stdin)
	if err != nil {
		return "", nil, "", fmt.Errorf(errReadInput, err)
	}

	fullText = string(data)
	for _, chapter := range transcript.ParseChapters(fullText) {
		chapters = append(chapters, chapter.Text)
	}

	return fullText, chapters, "", nil
}

func generateScript(
	ctx context.Context,
	flags appFlags,
	generator core.Generator,
	appLog *logger.Logger,
) (fullText string, chapters []string, audioURL string, err error) {
	appLog.Info(logGeneratingScript)

	resp, err := generator.Generate(ctx, generation.Request{
		Password:              flags.password,
		Disease:               flags.disease,
		Symptom:               flags.symptom,
		AdditionalInstruction: flags.instruction,
	})
	if err != nil {
		appLog.Error(logGenerationFailed, err)

		return "", nil, "", errors.New(generation.UserMessage(err))
	}

	if resp.AudioURL != "" {
		audioURL, err = generator.AudioURL(resp)
		if err != nil {
			appLog.Warn(logAudioUnavailable, err)

			audioURL = ""
		}
	}

	return resp.MeditationText, resp.Chapters, audioURL, nil
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}

	return os.ReadFile(path)
}

func writeJSON(stdout io.Writer, document transcript.Document) error {
	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(document)
	if err != nil {
		return fmt.Errorf(errWriteOutput, err)
	}

	return nil
}

func resolveWidth(width int) int {
	if width > 0 {
		return width
	}

	return terminalWidth(defaultWidth)
}

func terminalWidth(fallback int) int {
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			return w
		}
	}

	if value := os.Getenv("COLUMNS"); value != "" {
		if w, err := strconv.Atoi(value); err == nil && w > 0 {
			return w
		}
	}

	return fallback
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && term.IsTerminal(int(f.Fd()))
}
