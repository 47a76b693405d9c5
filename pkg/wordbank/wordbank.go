package wordbank

import (
	"sync"
)

// WordBank is a set of accepted words. Lookups are exact; callers that want
// case-insensitive matching fold case before adding and looking up.
type WordBank struct {
	words map[string]struct{}
	mu    sync.RWMutex
}

func New() *WordBank {
	return &WordBank{
		words: make(map[string]struct{}),
	}
}

func (wb *WordBank) Add(word string) {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	wb.words[word] = struct{}{}
}

func (wb *WordBank) Contains(word string) bool {
	wb.mu.RLock()
	defer wb.mu.RUnlock()
	_, exists := wb.words[word]
	return exists
}

func (wb *WordBank) Len() int {
	wb.mu.RLock()
	defer wb.mu.RUnlock()
	return len(wb.words)
}
