// Package retry - ограниченные повторы с линейной задержкой поверх go-retry.
package retry

import (
	"context"
	"time"

	goretry "github.com/sethvargo/go-retry"
)

// Linear возвращает backoff base, 2*base, 3*base... не более attempts попыток всего.
func Linear(base time.Duration, attempts uint64) goretry.Backoff {
	var n int64
	b := goretry.BackoffFunc(func() (time.Duration, bool) {
		n++
		return time.Duration(n) * base, false
	})
	if attempts == 0 {
		attempts = 1
	}
	return goretry.WithMaxRetries(attempts-1, b)
}

// Do выполняет fn, повторяя её, пока isTransient считает ошибку временной.
func Do(ctx context.Context, base time.Duration, attempts uint64, isTransient func(error) bool, fn func(ctx context.Context) error) error {
	return goretry.Do(ctx, Linear(base, attempts), func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil && isTransient != nil && isTransient(err) {
			return goretry.RetryableError(err)
		}
		return err
	})
}
