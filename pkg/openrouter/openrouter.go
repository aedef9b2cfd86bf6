package openrouter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type Config struct {
	BaseURL            string        `split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `split_words:"true" required:"true"`
	Model              string        `split_words:"true" required:"true"`
	MaxCompletionToken int           `split_words:"true" default:"2000"`
	Temperature        float64       `split_words:"true" default:"0.3"`
	Timeout            time.Duration `split_words:"true" default:"30s"`
	SiteURL            string        `split_words:"true"`
	SiteName           string        `split_words:"true"`
}

// Client is the text-generation backend over the OpenRouter-compatible
// chat completions API. Model and sampling settings are fixed per client;
// callers bound each call with their own context deadline on top of the
// client timeout.
type Client struct {
	api         openaisdk.Client
	model       string
	maxTokens   int64
	temperature float64
	timeout     time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("openrouter api key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, errors.New("openrouter model is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	// OpenRouter attribution headers
	if cfg.SiteURL != "" {
		opts = append(opts, option.WithHeader("HTTP-Referer", cfg.SiteURL))
	}
	if cfg.SiteName != "" {
		opts = append(opts, option.WithHeader("X-Title", cfg.SiteName))
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		api:         openaisdk.NewClient(opts...),
		model:       model,
		maxTokens:   int64(cfg.MaxCompletionToken),
		temperature: cfg.Temperature,
		timeout:     timeout,
	}, nil
}

func MustNew(cfg Config) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(c.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.UserMessage(prompt),
		},
		MaxCompletionTokens: openaisdk.Int(c.maxTokens),
		Temperature:         openaisdk.Float(c.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("openrouter: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openrouter: completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	page, err := c.api.Models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("openrouter: list models: %w", err)
	}
	names := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		names = append(names, m.ID)
	}
	return names, nil
}

func (c *Client) Ping(ctx context.Context) bool {
	_, err := c.ListModels(ctx)
	return err == nil
}
