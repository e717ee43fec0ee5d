// Package answer decides, per user turn, whether to reply with a canned
// message, a grounded answer over retrieved chunks or an ungrounded answer
// from the model's general knowledge.
package answer

import (
	"context"
	"fmt"
	"time"

	"github.com/sandevgo/medichat/internal/core"
	"github.com/sandevgo/medichat/internal/service/classifier"
	"github.com/sandevgo/medichat/pkg/log"
)

const DefaultTopK = 5

type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]core.RetrievalResult, error)
	Built() bool
}

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Orchestrator struct {
	retriever Retriever
	generator Generator
	classify  func(string) core.Intent
	picker    Picker
	topK      int
	timeout   time.Duration
}

type Option func(*Orchestrator)

func WithTopK(k int) Option {
	return func(o *Orchestrator) {
		if k > 0 {
			o.topK = k
		}
	}
}

func WithPicker(p Picker) Option {
	return func(o *Orchestrator) {
		if p != nil {
			o.picker = p
		}
	}
}

// WithTimeout bounds each generation call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.timeout = d
	}
}

func NewOrchestrator(retriever Retriever, generator Generator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		retriever: retriever,
		generator: generator,
		classify:  classifier.Classify,
		picker:    NewRandomPicker(0),
		topK:      DefaultTopK,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) TopK() int {
	return o.topK
}

// Answer handles one query without conversation context.
func (o *Orchestrator) Answer(ctx context.Context, query string) (core.Outcome, error) {
	return o.AnswerWithHistory(ctx, query, nil)
}

// AnswerWithHistory is Answer with recent messages added to generation prompts.
// On error the returned Outcome has kind Failed and carries the same error.
func (o *Orchestrator) AnswerWithHistory(ctx context.Context, query string, history []core.Message) (core.Outcome, error) {
	intent := o.classify(query)
	logger := log.FromCtx(ctx).With().Str("intent", intent.String()).Logger()

	switch intent {
	case core.IntentGreeting:
		return o.ungrounded(ctx, intent, query, history)
	case core.IntentFarewell:
		return canned(intent, o.picker(FarewellMessages)), nil
	case core.IntentUnclear:
		return canned(intent, o.picker(ClarificationMessages)), nil
	}

	if !o.retriever.Built() {
		logger.Debug().Msg("no documents indexed, answering from general knowledge")
		return o.ungrounded(ctx, intent, query, history)
	}

	results, err := o.retriever.Search(ctx, query, o.topK)
	if err != nil {
		err = fmt.Errorf("failed to retrieve context: %w", err)
		return failed(intent, core.PathRetrieval, err), err
	}
	logger.Debug().Int("hits", len(results)).Msg("retrieved context")

	if intent == core.IntentDocumentTargeted {
		if len(results) == 0 {
			return core.Outcome{
				Kind:   core.OutcomeRefused,
				Intent: intent,
				Path:   core.PathNone,
				Text:   RefusalMessage,
			}, nil
		}
		return o.grounded(ctx, intent, query, results, history)
	}

	// General questions draw on broad knowledge, hits are deliberately dropped.
	return o.ungrounded(ctx, intent, query, history)
}

func (o *Orchestrator) grounded(ctx context.Context, intent core.Intent, query string, results []core.RetrievalResult, history []core.Message) (core.Outcome, error) {
	text, err := o.generate(ctx, core.PathGrounded, BuildGroundedPrompt(query, results, history))
	if err != nil {
		return failed(intent, core.PathGrounded, err), err
	}
	return core.Outcome{
		Kind:      core.OutcomeAnswered,
		Intent:    intent,
		Path:      core.PathGrounded,
		Text:      text,
		Citations: results,
	}, nil
}

func (o *Orchestrator) ungrounded(ctx context.Context, intent core.Intent, query string, history []core.Message) (core.Outcome, error) {
	text, err := o.generate(ctx, core.PathUngrounded, BuildUngroundedPrompt(query, history))
	if err != nil {
		return failed(intent, core.PathUngrounded, err), err
	}
	return core.Outcome{
		Kind:   core.OutcomeAnswered,
		Intent: intent,
		Path:   core.PathUngrounded,
		Text:   text,
	}, nil
}

func (o *Orchestrator) generate(ctx context.Context, path core.AnswerPath, prompt string) (string, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := o.generator.Generate(ctx, prompt)
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("path", string(path)).Msg("generation failed")
		return "", &GenerationError{Path: path, Err: err}
	}

	log.FromCtx(ctx).Debug().
		Str("path", string(path)).
		Dur("took", time.Since(start)).
		Int("prompt_len", len(prompt)).
		Msg("answer generated")
	return text, nil
}

func canned(intent core.Intent, text string) core.Outcome {
	return core.Outcome{
		Kind:   core.OutcomeAnswered,
		Intent: intent,
		Path:   core.PathCanned,
		Text:   text,
	}
}

func failed(intent core.Intent, path core.AnswerPath, err error) core.Outcome {
	return core.Outcome{
		Kind:   core.OutcomeFailed,
		Intent: intent,
		Path:   path,
		Err:    err,
	}
}
