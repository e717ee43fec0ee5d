package llm

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sandevgo/medichat/internal/core"
)

// DynamicProvider lets the model be switched at runtime without
// interrupting in-flight generations.
type DynamicProvider struct {
	config  core.ProviderConfig
	current atomic.Value
	mu      sync.Mutex
}

func NewDynamicProvider(
	ctx context.Context,
	config core.ProviderConfig,
) (*DynamicProvider, error) {
	d := &DynamicProvider{
		config: config,
	}

	provider, err := NewProvider(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create initial provider: %w", err)
	}

	d.current.Store(holder{provider})
	return d, nil
}

// atomic.Value requires a consistent concrete type across stores.
type holder struct {
	core.Generator
}

func (d *DynamicProvider) Generate(ctx context.Context, prompt string) (string, error) {
	return d.current.Load().(holder).Generate(ctx, prompt)
}

func (d *DynamicProvider) GetModel() string {
	return d.config.GetModel()
}

func (d *DynamicProvider) SetModel(ctx context.Context, model string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	previous := d.config.GetModel()
	if err := d.config.SetModel(model); err != nil {
		return err
	}

	provider, err := NewProvider(ctx, d.config)
	if err != nil {
		_ = d.config.SetModel(previous)
		return fmt.Errorf("failed to create provider: %w", err)
	}

	d.current.Store(holder{provider})
	return nil
}
