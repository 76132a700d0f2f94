// Package audio turns text into an MP3 file using the translate TTS
// endpoint. The endpoint caps input length per request, so long text is
// split into chunks on sentence boundaries and the MP3 segments are
// concatenated in order.
package audio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"askgemini/internal/apperr"
)

const (
	defaultEndpoint = "https://translate.google.com/translate_tts"

	// maxChunkRunes is the per-request input cap the endpoint tolerates.
	maxChunkRunes = 200
)

// Synthesizer fetches speech audio for text in a given language.
type Synthesizer struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewSynthesizer builds a synthesizer. The logger may be nil.
func NewSynthesizer(logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{
		endpoint:   defaultEndpoint,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}
}

// Synthesize writes spoken audio for text to outPath, creating the parent
// directory if needed. Empty text is a usage error; any HTTP failure aborts
// the whole file rather than leaving a truncated MP3 behind.
func (s *Synthesizer) Synthesize(ctx context.Context, text, lang, outPath string) error {
	if strings.TrimSpace(text) == "" {
		return apperr.Newf(apperr.KindUsage, "input text is empty; cannot generate audio")
	}
	if lang == "" {
		lang = "es"
	}

	chunks := splitChunks(text, maxChunkRunes)
	s.logger.Debug("synthesizing audio",
		zap.String("lang", lang),
		zap.Int("chunks", len(chunks)),
		zap.String("output", outPath))

	var buf []byte
	for i, chunk := range chunks {
		segment, err := s.fetchChunk(ctx, chunk, lang)
		if err != nil {
			return fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		buf = append(buf, segment...)
	}

	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("could not create output directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(outPath, buf, 0644); err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}
	return nil
}

// fetchChunk issues one TTS request and returns the MP3 bytes.
func (s *Synthesizer) fetchChunk(ctx context.Context, text, lang string) ([]byte, error) {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("client", "tw-ob")
	params.Set("q", text)
	params.Set("tl", lang)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, apperr.New(apperr.KindTransport, "failed to create TTS request", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, apperr.New(apperr.KindTransport, "TTS request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Newf(apperr.KindAPI,
			"TTS request failed with status %d; the language code %q may be invalid", resp.StatusCode, lang)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.New(apperr.KindTransport, "failed to read TTS response", err)
	}
	return data, nil
}

// splitChunks breaks text into pieces of at most limit runes, preferring
// sentence ends, then word boundaries, and only then hard cuts.
func splitChunks(text string, limit int) []string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(runes) > 0 {
		if len(runes) <= limit {
			chunks = append(chunks, strings.TrimSpace(string(runes)))
			break
		}

		cut := -1
		for i := limit; i > 0; i-- {
			switch runes[i-1] {
			case '.', '!', '?', '\n':
				cut = i
			}
			if cut > 0 {
				break
			}
		}
		if cut <= 0 {
			for i := limit; i > 0; i-- {
				if runes[i-1] == ' ' {
					cut = i
					break
				}
			}
		}
		if cut <= 0 {
			cut = limit
		}

		piece := strings.TrimSpace(string(runes[:cut]))
		if piece != "" {
			chunks = append(chunks, piece)
		}
		runes = runes[cut:]
	}
	return chunks
}
