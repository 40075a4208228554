package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// MyMemoryService translates through the free MyMemory API. Useful for
// small documents and smoke runs; the daily quota is generous with an
// email address attached.
type MyMemoryService struct {
	email  string
	client *http.Client
}

func NewMyMemoryService(email string) *MyMemoryService {
	return &MyMemoryService{
		email:  email,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *MyMemoryService) Name() string {
	return "mymemory"
}

func (s *MyMemoryService) Translate(ctx context.Context, req Request) (*Result, error) {
	result := &Result{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	sourceLang := req.SourceLang
	if sourceLang == "" || sourceLang == "auto" {
		sourceLang = "en"
	}

	apiURL := fmt.Sprintf("https://api.mymemory.translated.net/get?q=%s&langpair=%s",
		url.QueryEscape(req.Text),
		url.QueryEscape(sourceLang+"|"+req.TargetLang))
	if s.email != "" {
		apiURL += "&de=" + url.QueryEscape(s.email)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, permanentf(s.Name(), "create request: %w", err)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, transientf(s.Name(), "request failed: %w", err)
	}
	defer resp.Body.Close()

	var mymemResp struct {
		ResponseData struct {
			TranslatedText string  `json:"translatedText"`
			Match          float64 `json:"match"`
		} `json:"responseData"`
		ResponseStatus  int    `json:"responseStatus"`
		ResponseDetails string `json:"responseDetails"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&mymemResp); err != nil {
		return nil, transientf(s.Name(), "decode response: %w", err)
	}

	switch {
	case mymemResp.ResponseStatus == 200:
	case mymemResp.ResponseStatus == 429 || mymemResp.ResponseStatus >= 500:
		return nil, transientf(s.Name(), "API error: %s (%d)", mymemResp.ResponseDetails, mymemResp.ResponseStatus)
	default:
		return nil, permanentf(s.Name(), "API error: %s (%d)", mymemResp.ResponseDetails, mymemResp.ResponseStatus)
	}

	result.TranslatedText = mymemResp.ResponseData.TranslatedText
	result.Confidence = mymemResp.ResponseData.Match
	if result.Confidence < 0 {
		result.Confidence = 0
	}
	if result.Confidence > 1 {
		result.Confidence = 1
	}
	return result, nil
}

func (s *MyMemoryService) IsAvailable(ctx context.Context) error {
	return nil
}
