package engine

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Estimator counts prompt tokens for providers that report no usage.
// The tiktoken encoding loads lazily on first use; when it cannot load
// (offline environments), counting degrades to a bytes/4 heuristic.
type Estimator struct {
	once    sync.Once
	enc     *tiktoken.Tiktoken
	initErr error
}

func (e *Estimator) init() error {
	e.once.Do(func() {
		e.enc, e.initErr = tiktoken.GetEncoding("cl100k_base")
	})
	return e.initErr
}

// Count estimates the token count of text.
func (e *Estimator) Count(text string) int {
	if err := e.init(); err != nil {
		return len(text) / 4
	}
	return len(e.enc.Encode(text, nil, nil))
}
