package util

import "sync"

// Outcome carries the result of one call made by FanOut.
type Outcome[R any] struct {
	Value R
	Err   error
}

// FanOut runs fn over every input concurrently, with at most capacity calls
// in flight, and returns once all calls have finished. The returned
// outcomes arrive in completion order, not input order.
func FanOut[T any, R any](inputs []T, capacity int, fn func(T) (R, error)) []Outcome[R] {
	if capacity <= 0 || capacity > len(inputs) {
		capacity = len(inputs)
	}
	sem := make(chan struct{}, capacity)
	results := make(chan Outcome[R], len(inputs))
	var wg sync.WaitGroup
	for _, in := range inputs {
		in := in
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			value, err := fn(in)
			results <- Outcome[R]{Value: value, Err: err}
			<-sem
		}()
	}
	wg.Wait()
	close(results)
	out := make([]Outcome[R], 0, len(inputs))
	for res := range results {
		out = append(out, res)
	}
	return out
}
