package matchmaking

import "github.com/charmbracelet/log"

// RetryOnce runs fn and, if it lost an optimistic-lock race, runs it one more
// time. The operation must be safe to re-run from scratch.
func RetryOnce[T any](operation string, fn func() (T, error)) (T, error) {
	result, err := fn()
	if !IsRetryable(err) {
		return result, err
	}
	log.Info("Retrying after concurrent modification", "operation", operation)
	return fn()
}
