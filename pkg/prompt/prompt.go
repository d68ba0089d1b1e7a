// Package prompt turns a natural-language description of doors and windows
// into an openings list using an OpenAI-compatible chat completion API.
//
// The model is asked for a bare JSON array in the opening schema. Replies are
// cleaned of markdown code fences, the first [...] span is extracted and
// decoded with [opening.ReadJSON], so model output goes through the same
// validation as a hand-written file.
package prompt

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sashabaranov/go-openai"

	"github.com/matzehuels/brickshell/pkg/errors"
	"github.com/matzehuels/brickshell/pkg/httputil"
	"github.com/matzehuels/brickshell/pkg/opening"
)

// DefaultModel is used when Options.Model is empty.
const DefaultModel = "gpt-4o-mini"

// SystemPrompt instructs the model to answer with the opening schema only.
const SystemPrompt = `You are an architectural layout parser. Your sole job is to convert a natural-language prompt into a valid JSON array of opening objects.

The JSON schema for each object MUST be:
{
  "type": "door" | "window",
  "wall": "front" | "back" | "left" | "right",
  "x_mm": int,
  "z_mm": int,
  "width_mm": int,
  "height_mm": int
}

RULES:
1. JSON ONLY: your entire response must be only the raw JSON array, with no markdown fences, notes or other text.
2. SCHEMA: adhere strictly to the schema.
3. DEFAULTS:
   - If the type is unclear, use "window".
   - If z_mm (sill height) is not given for a door, use 0.
   - If z_mm is not given for a window, use 900.
   - If x_mm (position from the left corner of the wall) is not given, use 2000.
   - If width_mm or height_mm are not given, use a standard door of 900 x 2100 or a standard window of 1200 x 1000.
4. The prompt may describe several openings. Include all of them in the array.`

// Options configures a Client.
type Options struct {
	APIKey  string
	BaseURL string           // empty for api.openai.com
	Model   string           // defaults to DefaultModel
	Timeout time.Duration    // per request; 0 means no timeout
	Backoff httputil.Backoff // zero value means httputil.DefaultBackoff
	Logger  *log.Logger
}

// Client requests openings from a chat completion endpoint.
type Client struct {
	api     *openai.Client
	model   string
	backoff httputil.Backoff
	logger  *log.Logger
}

// NewClient builds a client. An API key is required.
func NewClient(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "prompt: no API key (set OPENAI_API_KEY)")
	}
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}

	c := &Client{
		api:     openai.NewClientWithConfig(cfg),
		model:   opts.Model,
		backoff: opts.Backoff,
		logger:  opts.Logger,
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.backoff.Attempts <= 0 {
		c.backoff = httputil.DefaultBackoff
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	return c, nil
}

// Result is a parsed model reply.
type Result struct {
	Specs   []opening.Spec
	Skipped []opening.Skipped
}

// Openings sends text to the model and parses its reply. Rate-limit and
// server errors are retried with the client's backoff.
func (c *Client) Openings(ctx context.Context, text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "prompt is empty")
	}
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	}

	var reply string
	attempt := 0
	err := c.backoff.Retry(ctx, func() error {
		attempt++
		c.logger.Debug("requesting openings", "model", c.model, "attempt", attempt)
		resp, err := c.api.CreateChatCompletion(ctx, req)
		if err != nil {
			if retryable(err) {
				c.logger.Warn("completion failed, retrying", "attempt", attempt, "error", err)
				return httputil.Retryable(err)
			}
			return err
		}
		if len(resp.Choices) == 0 {
			return errors.New(errors.ErrCodeInvalidFormat, "model returned no choices")
		}
		reply = resp.Choices[0].Message.Content
		c.logger.Debug("received reply", "finish_reason", resp.Choices[0].FinishReason, "bytes", len(reply))
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return Parse(reply)
}

// Parse extracts and decodes the openings array from a model reply.
func Parse(reply string) (*Result, error) {
	raw, err := Extract(reply)
	if err != nil {
		return nil, err
	}
	specs, skipped, err := opening.ReadJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return &Result{Specs: specs, Skipped: skipped}, nil
}

var arrayPattern = regexp.MustCompile(`(?s)\[.*\]`)

// Extract strips code fences from reply and returns the outermost JSON
// array in it.
func Extract(reply string) (json.RawMessage, error) {
	text := strings.TrimSpace(reply)
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	m := arrayPattern.FindString(text)
	if m == "" {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "model reply contains no JSON array: %.200q", reply)
	}
	if !json.Valid([]byte(m)) {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "model reply is not valid JSON: %.200q", m)
	}
	return json.RawMessage(m), nil
}

func statusCode(err error) int {
	var apiErr *openai.APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if stderrors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func retryable(err error) bool {
	code := statusCode(err)
	return code == http.StatusTooManyRequests || code >= 500
}

func classify(err error) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.GetCode(err) != "" {
		return err
	}
	switch code := statusCode(err); {
	case code == http.StatusTooManyRequests:
		return errors.Wrap(errors.ErrCodeRateLimited, err, "prompt: rate limited")
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "prompt: request rejected")
	case code >= 500:
		return errors.Wrap(errors.ErrCodeNetwork, err, "prompt: server error")
	}
	return errors.Wrap(errors.ErrCodeNetwork, err, "prompt: completion failed")
}
