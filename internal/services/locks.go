package services

import (
	"fmt"
	"sync"
)

// keyedMutex serializes operations per entity: no two concurrent
// recalculations of the same budget, no two concurrent generations from the
// same template. Locks are process-wide; a single active scheduler instance
// is assumed.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key and returns its unlock function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func budgetLockKey(budgetID uint) string {
	return fmt.Sprintf("budget:%d", budgetID)
}

func templateLockKey(templateID uint) string {
	return fmt.Sprintf("recurring:%d", templateID)
}
