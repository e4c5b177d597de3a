package ai

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
)

var ErrUnavailable = errors.New("ai provider unavailable")

// FileRef points at a file uploaded to the provider's transient file store.
// The uploader owns it and must delete it before returning.
type FileRef struct {
	Name     string
	URI      string
	MIMEType string
}

type IProvider interface {
	Name() string
	Generate(ctx context.Context, model string, prompt string) (string, error)
	GenerateStream(ctx context.Context, model string, prompt string) iter.Seq2[string, error]
	Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error)
	UploadFile(ctx context.Context, path string) (*FileRef, error)
	GenerateWithFile(ctx context.Context, model string, file *FileRef, prompt string) (string, error)
	DeleteFile(ctx context.Context, file *FileRef) error
}

type IEmbedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
	ModelName() string
}

type embedder struct {
	provider IProvider
	model    string
}

func NewEmbedder(p IProvider, model string) IEmbedder {
	return &embedder{provider: p, model: model}
}

func (e *embedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return e.provider.Embed(ctx, e.model, text, taskType)
}

func (e *embedder) ModelName() string {
	return e.model
}

type ProviderFactory func(args interface{}) (IProvider, error)

var registry = map[string]ProviderFactory{}

func Register(name string, factory ProviderFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func NewProvider(name string, args interface{}) (IProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai provider: %s", name)
	}
	return factory(args)
}
