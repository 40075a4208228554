package translator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/valpere/codextran/internal/chunker"
)

// EngineConfig tunes the shared engine. Zero values use the defaults below.
type EngineConfig struct {
	SourceLang    string
	TargetLang    string
	MaxChunkChars int
	MaxAttempts   int
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

const (
	defaultMaxChunkChars = 2000
	defaultMaxAttempts   = 3
	defaultRetryDelay    = 500 * time.Millisecond
	defaultMaxRetryDelay = 30 * time.Second
)

// Engine wraps a Service as the single shared translation resource of a
// run. The underlying backend is initialized lazily on first use, calls
// against it are serialized, and Close releases it. Long texts are split
// into chunks at paragraph and sentence boundaries before translation;
// transient failures are retried with bounded exponential backoff per
// chunk.
type Engine struct {
	svc Service
	cfg EngineConfig

	mu       sync.Mutex
	initOnce sync.Once
	initErr  error
	closed   bool
}

// NewEngine builds an Engine around svc for one fixed language pair.
func NewEngine(svc Service, cfg EngineConfig) *Engine {
	if cfg.MaxChunkChars <= 0 {
		cfg.MaxChunkChars = defaultMaxChunkChars
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.MaxRetryDelay <= 0 {
		cfg.MaxRetryDelay = defaultMaxRetryDelay
	}
	return &Engine{svc: svc, cfg: cfg}
}

// Name returns the backing service name.
func (e *Engine) Name() string { return e.svc.Name() }

// init performs the one-time availability check for the backend.
func (e *Engine) init(ctx context.Context) error {
	e.initOnce.Do(func() {
		e.initErr = e.svc.IsAvailable(ctx)
	})
	return e.initErr
}

// Translate translates a single short text (a keyword phrase or one chunk).
// Calls are serialized against the shared backend.
func (e *Engine) Translate(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}
	if err := e.init(ctx); err != nil {
		return "", transientf(e.svc.Name(), "engine unavailable: %w", err)
	}
	return e.translateChunk(ctx, text)
}

// TranslateText translates a full cleaned unit body, paragraph by
// paragraph, chunking paragraphs that exceed the configured limit.
// Paragraph structure (double newlines) is preserved in the output.
func (e *Engine) TranslateText(ctx context.Context, text string) (string, error) {
	if err := e.init(ctx); err != nil {
		return "", transientf(e.svc.Name(), "engine unavailable: %w", err)
	}

	paragraphs := strings.Split(text, "\n\n")
	translated := make([]string, 0, len(paragraphs))

	for _, paragraph := range paragraphs {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		var parts []string
		for _, chunk := range chunker.Chunk(paragraph, e.cfg.MaxChunkChars) {
			out, err := e.translateChunk(ctx, chunk)
			if err != nil {
				return "", err
			}
			parts = append(parts, strings.TrimSpace(out))
		}
		translated = append(translated, strings.Join(parts, " "))
	}

	return strings.Join(translated, "\n\n"), nil
}

// translateChunk performs one serialized backend call with retry on
// transient failures.
func (e *Engine) translateChunk(ctx context.Context, text string) (string, error) {
	req := Request{
		Text:       text,
		SourceLang: e.cfg.SourceLang,
		TargetLang: e.cfg.TargetLang,
	}

	var lastErr error
	delay := e.cfg.RetryDelay

	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		e.mu.Lock()
		if e.closed {
			e.mu.Unlock()
			return "", permanentf(e.svc.Name(), "engine closed")
		}
		res, err := e.svc.Translate(ctx, req)
		e.mu.Unlock()

		if err == nil {
			return res.TranslatedText, nil
		}
		lastErr = err
		if !IsTransient(err) {
			return "", err
		}
		if attempt == e.cfg.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > e.cfg.MaxRetryDelay {
			delay = e.cfg.MaxRetryDelay
		}
	}

	return "", lastErr
}

// Close releases the shared backend. Subsequent calls fail.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	if c, ok := e.svc.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
