package openaisvc

import (
	"context"
	"fmt"

	"tsunagu/models"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Client wraps the generative and embedding provider.
type Client struct {
	api openai.Client
}

// NewClient creates a provider client with the given API key.
func NewClient(apiKey string) *Client {
	return &Client{api: openai.NewClient(option.WithAPIKey(apiKey))}
}

// Embed returns the embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModelTextEmbedding3Small,
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response carried no data")
	}
	return resp.Data[0].Embedding, nil
}

// GenerateAnswer rewrites a matched knowledge-base answer for the user's
// exact phrasing, keeping the stored answer as the factual source.
func (c *Client) GenerateAnswer(ctx context.Context, question, matchedQuestion, matchedAnswer string) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModelGPT4oMini,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(buildFaqPrompt(question, matchedQuestion, matchedAnswer)),
		},
		MaxTokens:   openai.Int(200),
		Temperature: openai.Float(0.7),
	})
	if err != nil {
		return "", fmt.Errorf("answer generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("answer generation returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// ChatWithHistory produces a free-form reply grounded in the user's bounded
// conversation history, oldest turn first.
func (c *Client) ChatWithHistory(ctx context.Context, history []models.ConversationTurn, message string) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	messages = append(messages, openai.SystemMessage(SystemMessage()))
	for _, turn := range history {
		switch turn.Role {
		case models.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Content))
		default:
			messages = append(messages, openai.UserMessage(turn.Content))
		}
	}
	messages = append(messages, openai.UserMessage(message))

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:            openai.ChatModelGPT4oMini,
		Messages:         messages,
		MaxTokens:        openai.Int(200),
		Temperature:      openai.Float(0.3),
		FrequencyPenalty: openai.Float(0.2),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
