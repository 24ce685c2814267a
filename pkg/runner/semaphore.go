package runner

import "context"

// LLMSemaphore bounds concurrent LLM calls within a stage, independent of
// the stage's item-level concurrency pool (§4.9: "Within a stage, a
// semaphore bounds concurrent LLM calls (default 3)", §5 "an LLM-call
// semaphore (default 3)"). No stage constructs one: the components that
// call C10 do not take it, and the config's runner.llm_semaphore value is
// validated but not read anywhere else, so concurrent LLM calls are not
// bounded by it.
type LLMSemaphore struct {
	slots chan struct{}
}

// NewLLMSemaphore builds a semaphore with n slots. n <= 0 defaults to 3
// per §4.9/§5.
func NewLLMSemaphore(n int) *LLMSemaphore {
	if n <= 0 {
		n = 3
	}
	return &LLMSemaphore{slots: make(chan struct{}, n)}
}

// Acquire blocks until a slot is free or ctx is done.
func (s *LLMSemaphore) Acquire(ctx context.Context) error {
	select {
	case s.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a previously-acquired slot.
func (s *LLMSemaphore) Release() { <-s.slots }

// Do runs fn while holding a slot, a convenience wrapper for the common
// acquire/defer-release pattern (§5 "item processing naturally queues"
// when the semaphore saturates — this is the backpressure point).
func (s *LLMSemaphore) Do(ctx context.Context, fn func() error) error {
	if err := s.Acquire(ctx); err != nil {
		return err
	}
	defer s.Release()
	return fn()
}
