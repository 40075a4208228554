package translator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type mockService struct {
	nameVal       string
	translateFunc func(ctx context.Context, req Request) (*Result, error)
	availableFunc func(ctx context.Context) error

	mu       sync.Mutex
	inFlight int
	maxSeen  int
	calls    atomic.Int32
}

func (m *mockService) Name() string {
	if m.nameVal == "" {
		return "mock"
	}
	return m.nameVal
}

func (m *mockService) Translate(ctx context.Context, req Request) (*Result, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.inFlight++
	if m.inFlight > m.maxSeen {
		m.maxSeen = m.inFlight
	}
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	if m.translateFunc != nil {
		return m.translateFunc(ctx, req)
	}
	return &Result{ServiceName: m.Name(), TranslatedText: "tr:" + req.Text}, nil
}

func (m *mockService) IsAvailable(ctx context.Context) error {
	if m.availableFunc != nil {
		return m.availableFunc(ctx)
	}
	return nil
}

func TestEngine_Translate(t *testing.T) {
	e := NewEngine(&mockService{}, EngineConfig{SourceLang: "en", TargetLang: "pt"})
	defer e.Close()

	got, err := e.Translate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "tr:hello" {
		t.Errorf("Translate() = %q", got)
	}
}

func TestEngine_TranslateText_PreservesParagraphs(t *testing.T) {
	e := NewEngine(&mockService{}, EngineConfig{SourceLang: "en", TargetLang: "pt"})
	defer e.Close()

	got, err := e.TranslateText(context.Background(), "first paragraph\n\nsecond paragraph")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "tr:first paragraph\n\ntr:second paragraph"
	if got != want {
		t.Errorf("TranslateText() = %q, want %q", got, want)
	}
}

func TestEngine_TranslateText_ChunksLongParagraphs(t *testing.T) {
	svc := &mockService{}
	e := NewEngine(svc, EngineConfig{SourceLang: "en", TargetLang: "pt", MaxChunkChars: 30})
	defer e.Close()

	text := "First sentence here. Second sentence follows. Third sentence ends it."
	got, err := e.TranslateText(context.Background(), text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.calls.Load() < 2 {
		t.Errorf("expected paragraph to be chunked into multiple calls, got %d", svc.calls.Load())
	}
	if !strings.Contains(got, "tr:") {
		t.Errorf("unexpected output: %q", got)
	}
}

func TestEngine_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	svc := &mockService{
		translateFunc: func(ctx context.Context, req Request) (*Result, error) {
			if calls.Add(1) < 3 {
				return nil, transientf("mock", "temporarily unavailable")
			}
			return &Result{ServiceName: "mock", TranslatedText: "ok"}, nil
		},
	}
	e := NewEngine(svc, EngineConfig{
		SourceLang: "en", TargetLang: "pt",
		MaxAttempts: 3, RetryDelay: time.Millisecond,
	})
	defer e.Close()

	got, err := e.Translate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if got != "ok" || calls.Load() != 3 {
		t.Errorf("got %q after %d calls", got, calls.Load())
	}
}

func TestEngine_DoesNotRetryPermanentFailures(t *testing.T) {
	var calls atomic.Int32
	svc := &mockService{
		translateFunc: func(ctx context.Context, req Request) (*Result, error) {
			calls.Add(1)
			return nil, permanentf("mock", "bad request")
		},
	}
	e := NewEngine(svc, EngineConfig{
		SourceLang: "en", TargetLang: "pt",
		MaxAttempts: 5, RetryDelay: time.Millisecond,
	})
	defer e.Close()

	_, err := e.Translate(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error")
	}
	if IsTransient(err) {
		t.Error("permanent error misclassified as transient")
	}
	if calls.Load() != 1 {
		t.Errorf("expected exactly 1 call, got %d", calls.Load())
	}
}

func TestEngine_ExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	svc := &mockService{
		translateFunc: func(ctx context.Context, req Request) (*Result, error) {
			calls.Add(1)
			return nil, transientf("mock", "still down")
		},
	}
	e := NewEngine(svc, EngineConfig{
		SourceLang: "en", TargetLang: "pt",
		MaxAttempts: 3, RetryDelay: time.Millisecond,
	})
	defer e.Close()

	_, err := e.Translate(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	var te *TranslationError
	if !errors.As(err, &te) || !te.Transient {
		t.Errorf("expected transient TranslationError, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestEngine_SerializesConcurrentCalls(t *testing.T) {
	svc := &mockService{
		translateFunc: func(ctx context.Context, req Request) (*Result, error) {
			time.Sleep(5 * time.Millisecond)
			return &Result{ServiceName: "mock", TranslatedText: "ok"}, nil
		},
	}
	e := NewEngine(svc, EngineConfig{SourceLang: "en", TargetLang: "pt"})
	defer e.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = e.Translate(context.Background(), "hello")
		}()
	}
	wg.Wait()

	if svc.maxSeen > 1 {
		t.Errorf("backend saw %d concurrent calls, expected serialized access", svc.maxSeen)
	}
}

func TestEngine_LazyInitFailure(t *testing.T) {
	var checks atomic.Int32
	svc := &mockService{
		availableFunc: func(ctx context.Context) error {
			checks.Add(1)
			return errors.New("engine missing")
		},
	}
	e := NewEngine(svc, EngineConfig{SourceLang: "en", TargetLang: "pt"})
	defer e.Close()

	if _, err := e.Translate(context.Background(), "a"); err == nil {
		t.Fatal("expected error when backend is unavailable")
	}
	if _, err := e.Translate(context.Background(), "b"); err == nil {
		t.Fatal("expected error on second call too")
	}
	if checks.Load() != 1 {
		t.Errorf("availability should be checked once, got %d", checks.Load())
	}
}

func TestEngine_ClosedEngineFails(t *testing.T) {
	e := NewEngine(&mockService{}, EngineConfig{SourceLang: "en", TargetLang: "pt"})
	if err := e.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if _, err := e.Translate(context.Background(), "hello"); err == nil {
		t.Fatal("expected error from closed engine")
	}
}

func TestEngine_EmptyTextShortCircuits(t *testing.T) {
	svc := &mockService{}
	e := NewEngine(svc, EngineConfig{SourceLang: "en", TargetLang: "pt"})
	defer e.Close()

	got, err := e.Translate(context.Background(), "   ")
	if err != nil || got != "" {
		t.Fatalf("expected empty result, got %q err %v", got, err)
	}
	if svc.calls.Load() != 0 {
		t.Errorf("backend should not be called for empty text")
	}
}
