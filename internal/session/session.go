// Package session orchestrates the request/response flow: assemble a prompt
// from layered context and history, call the API once, print the result, and
// persist the exchange. Single-threaded and synchronous; one in-flight call
// at a time.
package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"askgemini/internal/apperr"
	"askgemini/internal/audio"
	"askgemini/internal/config"
	"askgemini/internal/contextfile"
	"askgemini/internal/gemini"
	"askgemini/internal/history"
	"askgemini/internal/pdfx"
	"askgemini/internal/prompt"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Session wires the components behind one invocation of the tool. State
// shared across process restarts lives entirely in the history store.
type Session struct {
	cfg     *config.Config
	context *contextfile.Loader
	store   *history.Store
	client  *gemini.Client
	tts     *audio.Synthesizer
	logger  *zap.Logger

	id     string
	out    io.Writer
	errOut io.Writer

	renderMarkdown bool
	renderer       *glamour.TermRenderer
}

// New builds a session rooted at workDir. The logger may be nil.
func New(cfg *config.Config, homeDir, workDir string, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	logger = logger.With(zap.String("session", id))

	s := &Session{
		cfg:     cfg,
		context: contextfile.New(homeDir, workDir),
		store:   history.NewStore(workDir, logger),
		client:  gemini.NewClient(cfg, logger),
		tts:     audio.NewSynthesizer(logger),
		logger:  logger,
		id:      id,
		out:     os.Stdout,
		errOut:  os.Stderr,
	}

	if isatty.IsTerminal(os.Stdout.Fd()) {
		s.renderMarkdown = true
		s.renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
	}
	return s
}

// SetOutput redirects stdout/stderr writing, used by tests and by callers
// that capture output. Markdown rendering is disabled since the target is
// no longer the terminal.
func (s *Session) SetOutput(out, errOut io.Writer) {
	s.out = out
	s.errOut = errOut
	s.renderMarkdown = false
}

// Store exposes the history store for the clear operations.
func (s *Session) Store() *history.Store {
	return s.store
}

// Context exposes the context loader for the clear operations.
func (s *Session) Context() *contextfile.Loader {
	return s.context
}

// Client exposes the API client for model listing and image generation.
func (s *Session) Client() *gemini.Client {
	return s.client
}

// RunOnce performs a single exchange: assemble, call, print, persist.
// Extra parts (e.g. an inline image) are attached to the user turn.
func (s *Session) RunOnce(ctx context.Context, input string, extra ...gemini.Part) error {
	contextBlock := s.context.BuildContextString()
	window, err := s.store.LoadRecent(s.cfg.HistoryWindow)
	if err != nil {
		return err
	}

	turns := prompt.SingleShot(contextBlock, window, input, extra...)
	text, diag, err := s.client.Generate(ctx, s.cfg.Model, turns)
	if err != nil {
		return err
	}

	s.reportDiagnostic(diag)
	if text == "" {
		return nil
	}

	s.printResponse(text)
	if err := s.store.Append(history.NewRecord(s.cfg.Model, input, text)); err != nil {
		return err
	}
	return nil
}

// RunChat reads lines from in until "exit", "quit", or end-of-input. Blank
// lines re-prompt without calling the API. A failed exchange is reported and
// the loop continues; only corrupted history aborts the session.
func (s *Session) RunChat(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(s.out, "Chat mode. Type 'exit' or 'quit' to leave.")
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(s.out, promptStyle.Render("> "))
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		if err := s.chatTurn(ctx, line); err != nil {
			if apperr.IsCorrupt(err) || ctx.Err() != nil {
				return err
			}
			// One failed exchange does not end the conversation.
			fmt.Fprintln(s.errOut, errStyle.Render("Error: "+err.Error()))
			s.logger.Warn("chat turn failed", zap.Error(err))
		}
	}
}

// chatTurn runs one exchange in multi-turn shape. The window is re-read
// each turn so continuity survives process restarts in the same directory.
func (s *Session) chatTurn(ctx context.Context, input string) error {
	contextBlock := s.context.BuildContextString()
	window, err := s.store.LoadRecent(s.cfg.HistoryWindow)
	if err != nil {
		return err
	}

	turns := prompt.Chat(contextBlock, window, input)
	text, diag, err := s.client.Generate(ctx, s.cfg.Model, turns)
	if err != nil {
		return err
	}

	s.reportDiagnostic(diag)
	if text == "" {
		return nil
	}

	s.printResponse(text)
	return s.store.Append(history.NewRecord(s.cfg.Model, input, text))
}

// RunPDFAudioSummary extracts text from a PDF, summarizes it through the
// generation API, and synthesizes the summary as spoken audio. When
// summarization fails the full extracted text is narrated instead, so a
// flaky model never blocks the pipeline.
func (s *Session) RunPDFAudioSummary(ctx context.Context, pdfPath, outPath, lang string, minRatio, maxRatio float64) error {
	if minRatio < 0 || minRatio > 1 || maxRatio < 0 || maxRatio > 1 {
		return apperr.Newf(apperr.KindUsage, "summary ratios must be between 0.0 and 1.0")
	}
	if minRatio > maxRatio {
		return apperr.Newf(apperr.KindUsage, "min summary ratio cannot exceed max summary ratio")
	}
	if lang == "" {
		lang = s.cfg.TTSLanguage
	}
	if outPath == "" {
		base := strings.TrimSuffix(pdfPath, ".pdf")
		outPath = base + "_summary.mp3"
	}

	fmt.Fprintf(s.out, "Extracting text from %s...\n", pdfPath)
	text, err := pdfx.ExtractText(pdfPath)
	if err != nil {
		return err
	}
	if text == "" {
		fmt.Fprintln(s.out, "No text could be extracted from the PDF; it may be image-based or empty.")
		return nil
	}

	fmt.Fprintln(s.out, "Summarizing...")
	summary := s.summarize(ctx, text, lang, minRatio, maxRatio)

	fmt.Fprintf(s.out, "Generating audio (%s) -> %s\n", lang, outPath)
	if err := s.tts.Synthesize(ctx, summary, lang, outPath); err != nil {
		return err
	}

	fmt.Fprintf(s.out, "Audio summary saved to %s\n", outPath)
	return nil
}

// summarize asks the model for a condensed version of text; the ratios are
// passed as guidance. Failures fall back to the original text.
func (s *Session) summarize(ctx context.Context, text, lang string, minRatio, maxRatio float64) string {
	instruction := fmt.Sprintf(
		"Summarize the following text in the language with code %q. "+
			"Aim for between %.0f%% and %.0f%% of the original length. "+
			"Return only the summary text.\n\n%s",
		lang, minRatio*100, maxRatio*100, text)

	summary, diag, err := s.client.Generate(ctx, s.cfg.Model, []gemini.Content{gemini.UserTurn(instruction)})
	if err != nil || summary == "" {
		s.reportDiagnostic(diag)
		fmt.Fprintln(s.errOut, warnStyle.Render("Summarization failed; narrating the full extracted text."))
		s.logger.Warn("summarization fallback", zap.Error(err))
		return text
	}
	return summary
}

// reportDiagnostic prints a partial-response warning. The exchange stays
// eligible for persistence if any text was returned; the session continues
// either way.
func (s *Session) reportDiagnostic(diag *gemini.Diagnostic) {
	if diag == nil {
		return
	}
	msg := "Warning: generation finished without text"
	if diag.FinishReason != "" {
		msg = fmt.Sprintf("Warning: generation stopped with reason %s", diag.FinishReason)
	}
	if diag.BlockReason != "" {
		msg += fmt.Sprintf(" (prompt blocked: %s)", diag.BlockReason)
	}
	for _, rating := range diag.SafetyRatings {
		msg += fmt.Sprintf("\n  %s: %s", rating.Category, rating.Probability)
	}
	fmt.Fprintln(s.errOut, warnStyle.Render(msg))
	s.logger.Warn("partial response",
		zap.String("finish_reason", diag.FinishReason),
		zap.String("block_reason", diag.BlockReason))
}

// printResponse renders markdown when stdout is a terminal, plain text
// otherwise (so piped output stays clean).
func (s *Session) printResponse(text string) {
	if s.renderMarkdown && s.renderer != nil {
		if rendered, err := s.renderer.Render(text); err == nil {
			fmt.Fprint(s.out, rendered)
			return
		}
	}
	fmt.Fprintln(s.out, text)
}
