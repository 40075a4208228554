package translator

import (
	"context"
	"strings"
	"sync"
	"time"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"
)

// GoogleService translates through the Google Cloud Translation API. The
// API client is created on first use and reused for the whole run.
type GoogleService struct {
	credentials string

	mu     sync.Mutex
	client *translate.Client
}

func NewGoogleService(credentials string) *GoogleService {
	return &GoogleService{credentials: credentials}
}

func (s *GoogleService) Name() string {
	return "google"
}

func (s *GoogleService) getClient(ctx context.Context) (*translate.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}

	opts := []option.ClientOption{}
	if s.credentials != "" {
		opts = append(opts, option.WithCredentialsFile(s.credentials))
	}
	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	s.client = client
	return client, nil
}

func (s *GoogleService) Translate(ctx context.Context, req Request) (*Result, error) {
	result := &Result{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	targetTag, err := language.Parse(req.TargetLang)
	if err != nil {
		return nil, permanentf(s.Name(), "invalid target language %q: %w", req.TargetLang, err)
	}

	client, err := s.getClient(ctx)
	if err != nil {
		return nil, transientf(s.Name(), "create client: %w", err)
	}

	var opts *translate.Options
	if req.SourceLang != "" && req.SourceLang != "auto" {
		sourceTag, err := language.Parse(req.SourceLang)
		if err != nil {
			return nil, permanentf(s.Name(), "invalid source language %q: %w", req.SourceLang, err)
		}
		opts = &translate.Options{Source: sourceTag}
	}

	translations, err := client.Translate(ctx, []string{req.Text}, targetTag, opts)
	if err != nil {
		if ctx.Err() != nil || isTemporaryAPIError(err) {
			return nil, transientf(s.Name(), "translation failed: %w", err)
		}
		return nil, permanentf(s.Name(), "translation failed: %w", err)
	}
	if len(translations) == 0 {
		return nil, permanentf(s.Name(), "no translation returned")
	}

	result.TranslatedText = translations[0].Text
	result.Confidence = 1.0
	return result, nil
}

func (s *GoogleService) IsAvailable(ctx context.Context) error {
	_, err := s.getClient(ctx)
	return err
}

// Close releases the underlying API client.
func (s *GoogleService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}

// isTemporaryAPIError inspects the error text for rate-limit and backend
// conditions the API reports without a typed error.
func isTemporaryAPIError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"rate limit", "quota", "unavailable", "deadline", "backend error", "503", "429"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
