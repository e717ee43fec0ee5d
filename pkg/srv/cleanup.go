package srv

import (
	"context"
	"sync"
)

// cleanupService runs fn once on shutdown and has nothing to start.
type cleanupService struct {
	once    sync.Once
	cleanup func() error
	err     error
}

func (c *cleanupService) Start(ctx context.Context) error {
	return nil
}

func (c *cleanupService) Shutdown(ctx context.Context) error {
	c.once.Do(func() {
		if c.cleanup != nil {
			c.err = c.cleanup()
		}
	})
	return c.err
}

func NewCleanup(fn func() error) Service {
	return &cleanupService{cleanup: fn}
}
