package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Gateway is the single boundary to the generative text/vision service.
// It is fallible, latent and non-deterministic; every caller defines its
// own deterministic fallback and never lets a Gateway error escape to the
// HTTP layer (except user-requested generations like meal plans).
type Gateway interface {
	Generate(ctx context.Context, prompt string, image []byte) (string, error)
	Enabled() bool
}

type GeminiService struct {
	client  *http.Client
	apiKey  string
	model   string
	baseURL string
	backoff time.Duration
}

func NewGeminiService() *GeminiService {
	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &GeminiService{
		// hard timeout so a hung upstream can never hang the request
		client:  &http.Client{Timeout: 20 * time.Second},
		apiKey:  os.Getenv("GEMINI_API_KEY"),
		model:   model,
		baseURL: "https://generativelanguage.googleapis.com",
		backoff: 2 * time.Second,
	}
}

func (g *GeminiService) Enabled() bool { return g.apiKey != "" }

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate calls the generateContent endpoint. If image is non-nil it is
// attached as inline JPEG data (receipt/photo scanning). Transport errors
// and 5xx responses get one retry with a short backoff; after that the
// error is returned for the caller's fallback path.
func (g *GeminiService) Generate(ctx context.Context, prompt string, image []byte) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY not set")
	}

	parts := []geminiPart{{Text: prompt}}
	if len(image) > 0 {
		parts = append(parts, geminiPart{
			InlineData: &geminiInlineData{
				MimeType: "image/jpeg",
				Data:     base64.StdEncoding.EncodeToString(image),
			},
		})
	}
	req := geminiRequest{Contents: []geminiContent{{Parts: parts}}}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal gemini payload: %w", err)
	}

	u := fmt.Sprintf(
		"%s/v1beta/models/%s:generateContent?key=%s",
		g.baseURL, g.model, g.apiKey,
	)

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(g.backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		text, retryable, err := g.doCall(ctx, u, body)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		logrus.WithError(err).Warn("gemini call failed, retrying once")
	}
	return "", lastErr
}

func (g *GeminiService) doCall(ctx context.Context, u string, body []byte) (text string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("failed to create gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("gemini request error: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("read gemini response error: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", resp.StatusCode >= 500,
			fmt.Errorf("gemini api error (%d): %s", resp.StatusCode, string(respBytes))
	}

	var out geminiResponse
	if err := json.Unmarshal(respBytes, &out); err != nil {
		bodyPreview := string(respBytes)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		return "", false, fmt.Errorf("decode gemini response error: %v | body: %s", err, bodyPreview)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", false, fmt.Errorf("empty gemini response")
	}
	return out.Candidates[0].Content.Parts[0].Text, false, nil
}

// StripCodeFence removes a markdown ```json ... ``` wrapper the model
// often puts around JSON output.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
