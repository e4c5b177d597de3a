package ai

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/kontrakwise/backend/internal/pkg/errors"
)

type ClientConfig struct {
	GenerateModel string
	Timeout       int // seconds, generation calls only
	Retry         RetryPolicy
}

// Client wraps a provider's generative capability with the retry policy.
// Blocking calls retry; streaming never does, a half-delivered stream cannot
// be replayed.
type Client struct {
	provider IProvider
	cfg      ClientConfig
}

func NewClient(provider IProvider, cfg ClientConfig) *Client {
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryPolicy()
	}
	return &Client{provider: provider, cfg: cfg}
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	var result string
	err := c.cfg.Retry.Do(ctx, func() error {
		resp, err := c.provider.Generate(ctx, c.cfg.GenerateModel, prompt)
		if err != nil {
			logutil.GetLogger(ctx).Warn("generate attempt failed", zap.Error(err))
			return err
		}
		result = resp
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", appErr.ErrGenerationFailed, err)
	}
	return result, nil
}

// GenerateStream is single pass. A mid-stream provider failure is delivered
// as the final (text, err) pair; the caller must treat it as end-of-stream.
func (c *Client) GenerateStream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return c.provider.GenerateStream(ctx, c.cfg.GenerateModel, prompt)
}

// GenerateFromFile uploads the file once, retries generation against the
// uploaded ref, and deletes the ref on every exit path.
func (c *Client) GenerateFromFile(ctx context.Context, path string, prompt string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	file, err := c.provider.UploadFile(ctx, path)
	if err != nil {
		return "", fmt.Errorf("%w: upload: %v", appErr.ErrGenerationFailed, err)
	}
	defer func() {
		// The transient upload belongs to this call alone; cleanup failure is
		// logged, never fatal.
		if err := c.provider.DeleteFile(context.WithoutCancel(ctx), file); err != nil {
			logutil.GetLogger(ctx).Warn("delete uploaded file failed",
				zap.String("file", file.Name), zap.Error(err))
		}
	}()
	var result string
	err = c.cfg.Retry.Do(ctx, func() error {
		resp, err := c.provider.GenerateWithFile(ctx, c.cfg.GenerateModel, file, prompt)
		if err != nil {
			logutil.GetLogger(ctx).Warn("file-grounded generate attempt failed", zap.Error(err))
			return err
		}
		result = resp
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", appErr.ErrGenerationFailed, err)
	}
	return result, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, time.Duration(c.cfg.Timeout)*time.Second)
	}
	return context.WithCancel(ctx)
}
