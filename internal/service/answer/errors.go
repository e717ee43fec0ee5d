package answer

import (
	"fmt"

	"github.com/sandevgo/medichat/internal/core"
)

// GenerationError annotates a generator failure with the path that called it.
type GenerationError struct {
	Path core.AnswerPath
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Path, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
