// Package openai summarizes articles with the OpenAI chat completions API.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/dailydigest/digestd/internal/digest"
)

const systemPrompt = "You are a helpful assistant that creates clear, informative summaries of articles and reports."

// Config controls the summarizer.
type Config struct {
	APIKey      string
	Model       string
	MaxChars    int
	MaxTokens   int64
	Temperature float64
	BaseURL     string
}

// Summarizer implements digest.Summarizer via OpenAI.
type Summarizer struct {
	cfg    Config
	client openai.Client
}

// New builds a Summarizer. Model defaults to gpt-4o-mini; input is
// truncated to MaxChars (default 48000, roughly 12k tokens).
func New(cfg Config) (*Summarizer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("summarizer API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxChars == 0 {
		cfg.MaxChars = 48000
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 800
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Summarizer{cfg: cfg, client: openai.NewClient(opts...)}, nil
}

// Summarize asks the model for a digest-style summary. Failures wrap
// digest.ErrSummarizationFailed so callers can degrade to the fallback
// body instead of aborting.
func (s *Summarizer) Summarize(ctx context.Context, title, text string) (string, error) {
	if len(text) > s.cfg.MaxChars {
		text = text[:s.cfg.MaxChars] + "..."
	}

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: s.cfg.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(systemPrompt),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(buildPrompt(title, text)),
					},
				},
			},
		},
		Temperature: openai.Float(s.cfg.Temperature),
		MaxTokens:   openai.Int(s.cfg.MaxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", digest.ErrSummarizationFailed, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response from model %s", digest.ErrSummarizationFailed, s.cfg.Model)
	}
	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	if summary == "" {
		return "", fmt.Errorf("%w: blank completion from model %s", digest.ErrSummarizationFailed, s.cfg.Model)
	}
	return summary, nil
}

func buildPrompt(title, text string) string {
	var sb strings.Builder
	sb.WriteString("Please provide a comprehensive summary of the following article.\n\n")
	fmt.Fprintf(&sb, "Title: %s\n\n", title)
	fmt.Fprintf(&sb, "Article Content:\n%s\n\n", text)
	sb.WriteString("Please provide:\n")
	sb.WriteString("1. A brief 2-3 sentence overview\n")
	sb.WriteString("2. Key points and main arguments (3-5 bullet points)\n")
	sb.WriteString("3. Any important conclusions or takeaways\n\n")
	sb.WriteString("Keep the summary informative but concise, suitable for a daily reading digest email.")
	return sb.String()
}
