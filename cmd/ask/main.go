// Package main provides the ask CLI entry point: a command-line client for
// the Gemini generative-language API with per-directory context and history.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"askgemini/internal/apperr"
	"askgemini/internal/config"
	"askgemini/internal/gemini"
	"askgemini/internal/prompt"
	"askgemini/internal/session"
)

var (
	// Global flags
	verbose   bool
	modelFlag string

	// Mode flags
	chatMode        bool
	generateImage   bool
	listModels      bool
	pdfAudioSummary string

	// Input shaping flags
	filePath  string
	imagePath string

	// Maintenance flags
	clearLocalHistory   bool
	clearLocalContext   bool
	clearGeneralContext bool

	// Image generation output
	imageOutput string

	// PDF audio summary flags
	audioOutput     string
	audioLang       string
	minSummaryRatio float64
	maxSummaryRatio float64

	// Logger
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ask [prompt...]",
	Short: "Ask the Gemini API from the command line",
	Long: `ask sends a prompt to the Google Gemini API and prints the response.

Prompts are layered with persistent context files and the recent exchange
history of the working directory:

  ~/.ask_context.general   instructions applied to every session
  ./.ask_context.local     instructions for this directory only
  ./.ask_history.json      the last exchanges, replayed for continuity

Use --chat for an interactive multi-turn session, --generate for image
generation, and --pdf-audio-summary to turn a PDF into spoken audio.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: run,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&modelFlag, "model", "", "model to use (default from config, e.g. gemini-1.5-flash)")
	flags.BoolVar(&chatMode, "chat", false, "interactive multi-turn chat session")
	flags.StringVar(&filePath, "file", "", "prepend the content of this file to the prompt")
	flags.StringVar(&imagePath, "image-path", "", "attach this image for vision input")
	flags.BoolVar(&generateImage, "generate", false, "generate an image from the prompt")
	flags.StringVar(&imageOutput, "output", "", "output path for --generate (default generated.<ext>)")
	flags.BoolVar(&listModels, "list-models", false, "list available models and exit")
	flags.BoolVar(&clearLocalHistory, "clear-local-history", false, "delete this directory's history file")
	flags.BoolVar(&clearLocalContext, "clear-local-context", false, "delete this directory's context file")
	flags.BoolVar(&clearGeneralContext, "clear-general-context", false, "delete the general context file")
	flags.StringVar(&pdfAudioSummary, "pdf-audio-summary", "", "generate a spoken audio summary of this PDF")
	flags.StringVar(&audioOutput, "audio-output", "", "output path for the audio summary (default <pdf>_summary.mp3)")
	flags.StringVar(&audioLang, "lang", "", "language code for the audio summary (default from config)")
	flags.Float64Var(&minSummaryRatio, "min-summary-ratio", 0.1, "minimum summary length as a ratio of the original")
	flags.Float64Var(&maxSummaryRatio, "max-summary-ratio", 0.3, "maximum summary length as a ratio of the original")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		return err
	}
	if modelFlag != "" {
		cfg.Model = modelFlag
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("cannot resolve home directory: %w", err)
	}
	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("cannot resolve working directory: %w", err)
	}

	sess := session.New(cfg, homeDir, workDir, logger)

	// Maintenance flags run without touching the API and never need a key.
	if clearLocalHistory || clearLocalContext || clearGeneralContext {
		return runClear(sess)
	}

	if err := validateModes(); err != nil {
		return err
	}

	// Every remaining mode talks to the API.
	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}

	ctx := cmd.Context()

	switch {
	case listModels:
		return runListModels(ctx, sess)
	case pdfAudioSummary != "":
		return sess.RunPDFAudioSummary(ctx, pdfAudioSummary, audioOutput, audioLang, minSummaryRatio, maxSummaryRatio)
	case chatMode:
		return sess.RunChat(ctx, os.Stdin)
	}

	input, extra, err := buildInput(args)
	if err != nil {
		return err
	}

	if generateImage {
		return runGenerateImage(ctx, sess, cfg, input)
	}
	return sess.RunOnce(ctx, input, extra...)
}

// validateModes rejects flag combinations with no sensible meaning.
func validateModes() error {
	if chatMode && generateImage {
		return apperr.Newf(apperr.KindUsage, "--chat and --generate cannot be combined")
	}
	if chatMode && pdfAudioSummary != "" {
		return apperr.Newf(apperr.KindUsage, "--chat and --pdf-audio-summary cannot be combined")
	}
	if generateImage && imagePath != "" {
		return apperr.Newf(apperr.KindUsage, "--generate and --image-path cannot be combined")
	}
	return nil
}

// buildInput assembles the prompt text from positional args and the --file
// and --image-path flags.
func buildInput(args []string) (string, []gemini.Part, error) {
	input := strings.TrimSpace(strings.Join(args, " "))
	if input == "" {
		return "", nil, apperr.Newf(apperr.KindUsage, "no prompt given; see --help")
	}

	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				return "", nil, apperr.Newf(apperr.KindUsage, "file not found: %s", filePath)
			}
			return "", nil, apperr.New(apperr.KindUsage, "failed to read file", err)
		}
		input = prompt.PrependFile(filePath, string(data), input)
	}

	var extra []gemini.Part
	if imagePath != "" {
		part, err := gemini.ImagePart(imagePath)
		if err != nil {
			return "", nil, err
		}
		extra = append(extra, part)
	}
	return input, extra, nil
}

func runClear(sess *session.Session) error {
	if clearLocalHistory {
		if err := sess.Store().Clear(); err != nil {
			return err
		}
		fmt.Println("Local history cleared.")
	}
	if clearLocalContext {
		if err := sess.Context().ClearLocal(); err != nil {
			return err
		}
		fmt.Println("Local context cleared.")
	}
	if clearGeneralContext {
		if err := sess.Context().ClearGeneral(); err != nil {
			return err
		}
		fmt.Println("General context cleared.")
	}
	return nil
}
