package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"strings"

	"google.golang.org/genai"
)

type geminiConfig struct {
	APIKey string `json:"api_key"`
}

type geminiProvider struct {
	client *genai.Client
}

func (p *geminiProvider) Name() string {
	return "gemini"
}

func (p *geminiProvider) Generate(ctx context.Context, model string, prompt string) (string, error) {
	if p.client == nil {
		return "", ErrUnavailable
	}
	resp, err := p.client.Models.GenerateContent(
		ctx,
		model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		nil,
	)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text()), nil
}

func (p *geminiProvider) GenerateStream(ctx context.Context, model string, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if p.client == nil {
			yield("", ErrUnavailable)
			return
		}
		stream := p.client.Models.GenerateContentStream(
			ctx,
			model,
			[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
			nil,
		)
		for resp, err := range stream {
			if err != nil {
				yield("", err)
				return
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}

func (p *geminiProvider) Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error) {
	if p.client == nil {
		return nil, ErrUnavailable
	}
	var config *genai.EmbedContentConfig
	if taskType != "" {
		config = &genai.EmbedContentConfig{
			TaskType: taskType,
		}
	}
	resp, err := p.client.Models.EmbedContent(
		ctx,
		model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: text}}}},
		config,
	)
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embedding values returned")
	}
	return resp.Embeddings[0].Values, nil
}

func (p *geminiProvider) UploadFile(ctx context.Context, path string) (*FileRef, error) {
	if p.client == nil {
		return nil, ErrUnavailable
	}
	file, err := p.client.Files.UploadFromPath(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	return &FileRef{
		Name:     file.Name,
		URI:      file.URI,
		MIMEType: file.MIMEType,
	}, nil
}

func (p *geminiProvider) GenerateWithFile(ctx context.Context, model string, file *FileRef, prompt string) (string, error) {
	if p.client == nil {
		return "", ErrUnavailable
	}
	if file == nil {
		return "", fmt.Errorf("file ref is required")
	}
	resp, err := p.client.Models.GenerateContent(
		ctx,
		model,
		[]*genai.Content{{Parts: []*genai.Part{
			genai.NewPartFromURI(file.URI, file.MIMEType),
			{Text: prompt},
		}}},
		nil,
	)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text()), nil
}

func (p *geminiProvider) DeleteFile(ctx context.Context, file *FileRef) error {
	if p.client == nil {
		return ErrUnavailable
	}
	if file == nil || file.Name == "" {
		return nil
	}
	_, err := p.client.Files.Delete(ctx, file.Name, nil)
	return err
}

func createGeminiFactory(args interface{}) (IProvider, error) {
	cfg := &geminiConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return &geminiProvider{}, nil
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &geminiProvider{client: client}, nil
}

func init() {
	Register("gemini", createGeminiFactory)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("ai provider config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode ai provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode ai provider config: %w", err)
	}
	return nil
}
