package ocr

import (
	"context"
	"fmt"
	"sync"
)

var (
	defaultMu     sync.RWMutex
	defaultEngine Engine = noopEngine{}
)

// Default returns the registered engine. Without a registration it is an
// engine that fails with ErrUnavailable.
func Default() Engine {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultEngine
}

// SetDefaultEngine registers engine as the default. A nil engine restores
// the unavailable one.
func SetDefaultEngine(engine Engine) {
	if engine == nil {
		engine = noopEngine{}
	}
	defaultMu.Lock()
	defaultEngine = engine
	defaultMu.Unlock()
}

// Available reports whether engine can do any work.
func Available(engine Engine) bool {
	_, noop := engine.(noopEngine)
	return engine != nil && !noop
}

// RecognizeAll runs inputs through engine, in one batch when it supports
// it and one by one otherwise. Results are in input order.
func RecognizeAll(ctx context.Context, engine Engine, inputs []Input) ([]Result, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	if b, ok := engine.(BatchEngine); ok {
		return b.RecognizeBatch(ctx, inputs)
	}
	results := make([]Result, 0, len(inputs))
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := engine.Recognize(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("recognize %s: %w", in.ID, err)
		}
		results = append(results, res)
	}
	return results, nil
}

type noopEngine struct{}

func (noopEngine) Name() string { return "none" }

func (noopEngine) Recognize(context.Context, Input) (Result, error) {
	return Result{}, ErrUnavailable
}
