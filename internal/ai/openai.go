package ai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	// Zhipu's paas v4 API speaks the OpenAI embeddings wire format.
	defaultZhipuBaseURL = "https://open.bigmodel.cn/api/paas/v4"
)

type openAIConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
}

type openAIProvider struct {
	name   string
	client *openai.Client
	ready  bool
}

func newOpenAICompatible(name, defaultBaseURL string, args interface{}) (IEmbedProvider, error) {
	cfg := &openAIConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	clientCfg := openai.DefaultConfig(apiKey)
	clientCfg.BaseURL = baseURL
	return &openAIProvider{
		name:   name,
		client: openai.NewClientWithConfig(clientCfg),
		ready:  apiKey != "",
	}, nil
}

func (p *openAIProvider) Name() string {
	return p.name
}

func (p *openAIProvider) Embed(ctx context.Context, model string, texts []string) ([][]float32, error) {
	if !p.ready {
		return nil, ErrUnavailable
	}
	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(model),
		Input: texts,
	})
	if err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(out) {
			return nil, fmt.Errorf("%s returned embedding index %d for batch of %d", p.name, item.Index, len(texts))
		}
		vec := make([]float32, len(item.Embedding))
		copy(vec, item.Embedding)
		out[item.Index] = vec
	}
	for i, vec := range out {
		if vec == nil {
			return nil, fmt.Errorf("%s returned no embedding for input %d", p.name, i)
		}
	}
	return out, nil
}

func init() {
	Register("openai", func(args interface{}) (IEmbedProvider, error) {
		return newOpenAICompatible("openai", defaultOpenAIBaseURL, args)
	})
	Register("zhipu", func(args interface{}) (IEmbedProvider, error) {
		return newOpenAICompatible("zhipu", defaultZhipuBaseURL, args)
	})
}
