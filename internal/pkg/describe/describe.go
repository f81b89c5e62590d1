package describe

import (
	"context"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
)

// 发送给视觉模型的固定提问。
const visionPrompt = "What's in this image?"

// Client 调用 OpenAI 兼容接口，为图片生成文字描述。
type Client struct {
	api          *openai.Client
	defaultModel string
	logger       *slog.Logger
}

// NewClient 创建描述客户端。
//
// baseURL 为空时使用官方 API 地址；defaultModel 在请求未指定模型时生效。
func NewClient(apiKey, baseURL, defaultModel string, logger *slog.Logger) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{
		api:          openai.NewClientWithConfig(cfg),
		defaultModel: defaultModel,
		logger:       logger,
	}
}

// Describe 请求视觉模型描述 imageURL 指向的图片。
func (c *Client) Describe(ctx context.Context, model string, imageURL string) (string, error) {
	if model == "" {
		model = c.defaultModel
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: visionPrompt,
					},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: imageURL},
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from model %s", model)
	}

	if c.logger != nil {
		c.logger.Info("image description generated", slog.String("model", model))
	}
	return resp.Choices[0].Message.Content, nil
}
