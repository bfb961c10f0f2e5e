// Package dispatch performs the outbound HTTP calls of PhiGate: invoking a
// backend on behalf of an auto-routed request, and relaying explicit-model
// requests byte-for-byte. Failures are returned as structured values, never
// as panics or errors that escape into handlers.
package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/taavik/phigate/internal/routing"
	"go.uber.org/zap"
)

const (
	// Dispatch calls block until the backend answers or this expires.
	// No retries, no failover: a single upstream failure surfaces immediately.
	dispatchTimeout = 600 * time.Second
	maxTokens       = 256
)

// Forwarder owns the HTTP client used for all backend traffic.
type Forwarder struct {
	client   *http.Client
	registry *routing.Registry
	log      *zap.Logger
}

// NewForwarder creates a Forwarder with the fixed dispatch timeout.
func NewForwarder(reg *routing.Registry, log *zap.Logger) *Forwarder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Forwarder{
		client:   &http.Client{Timeout: dispatchTimeout},
		registry: reg,
		log:      log,
	}
}

// InvokeResult is the structured outcome of an auto-route invocation.
type InvokeResult struct {
	OK bool `json:"ok"`
	// Text is choices[0].message.content, extracted defensively; malformed
	// upstream bodies degrade to "" rather than an error.
	Text string `json:"-"`
	// Raw is the decoded upstream response body.
	Raw map[string]any `json:"-"`
	Err string `json:"error,omitempty"`
}

// chat payload shapes for the backend /v1/chat/completions call
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatPayload struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

// Invoke posts a chat-completion request to the resolved backend.
//
// Payload shape depends on the target and the image reference:
//   - multimodal + image URL: multi-part content (text part + image_url part)
//   - multimodal + image path only: text-only, path appended as a hint
//     (the gateway never uploads binary image data)
//   - otherwise: plain text content
func (f *Forwarder) Invoke(target routing.ModelIdentity, text, imageURL, imagePath string) InvokeResult {
	var content any = text
	if f.registry.IsMultimodal(target) {
		switch {
		case imageURL != "":
			content = []map[string]any{
				{"type": "text", "text": text},
				{"type": "image_url", "image_url": map[string]string{"url": imageURL}},
			}
		case imagePath != "":
			content = fmt.Sprintf("%s\n\nimage_path hint: %s", text, imagePath)
		}
	}

	payload := chatPayload{
		Model:     target.ID,
		Messages:  []chatMessage{{Role: "user", Content: content}},
		MaxTokens: maxTokens,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return InvokeResult{Err: err.Error()}
	}

	url := target.Backend + "/v1/chat/completions"
	resp, err := f.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		f.log.Warn("backend invoke failed", zap.String("model", target.ID), zap.Error(err))
		return InvokeResult{Err: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return InvokeResult{Err: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return InvokeResult{Err: fmt.Sprintf("backend status %d", resp.StatusCode)}
	}

	var decoded map[string]any
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return InvokeResult{Err: fmt.Sprintf("invalid backend response: %v", err)}
	}

	return InvokeResult{OK: true, Text: extractContent(decoded), Raw: decoded}
}

// extractContent digs choices[0].message.content out of a chat-completion
// body. Every step tolerates a missing or differently-typed field.
func extractContent(decoded map[string]any) string {
	choices, _ := decoded["choices"].([]any)
	if len(choices) == 0 {
		return ""
	}
	choice, _ := choices[0].(map[string]any)
	message, _ := choice["message"].(map[string]any)
	text, _ := message["content"].(string)
	return text
}

// RelayResult carries an upstream response verbatim: status, content type
// and raw body bytes, for both success and upstream-HTTP-error responses.
type RelayResult struct {
	Status      int
	ContentType string
	Body        []byte
}

// Relay forwards an untouched request body to {backend}{path} with the same
// method, preserving the inbound Authorization header if present. Upstream
// HTTP errors are relayed as results; only transport failures return an
// error, which callers map to a 502.
func (f *Forwarder) Relay(backend, path, method string, body []byte, authorization string) (*RelayResult, error) {
	req, err := http.NewRequest(method, backend+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.log.Warn("passthrough relay failed", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	return &RelayResult{
		Status:      resp.StatusCode,
		ContentType: contentType,
		Body:        respBody,
	}, nil
}
