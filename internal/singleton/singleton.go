// Package singleton provides lazily constructed, process-wide instances.
package singleton

import "sync"

// New returns a function that constructs its value on first call and returns that same value
// on every later call.
func New[R any](constructor func() R) func() R {
	var (
		once     sync.Once
		instance R
	)
	return func() R {
		once.Do(func() {
			instance = constructor()
		})
		return instance
	}
}

// NewKeyed is New with one instance per key.
func NewKeyed[K comparable, R any](constructor func(K) R) func(K) R {
	var (
		mu        sync.Mutex
		instances = map[K]R{}
	)
	return func(key K) R {
		mu.Lock()
		defer mu.Unlock()

		if instance, ok := instances[key]; ok {
			return instance
		}
		instance := constructor(key)
		instances[key] = instance
		return instance
	}
}
