package inventory

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-ledger/internal/domain"
)

// RetryPolicy reintentos ante conflictos de concurrencia optimista.
// Solo se reintenta domain.ErrConcurrentModification; el resto de errores es terminal.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration // intervalo inicial; crece exponencialmente
}

// DefaultRetryPolicy tres intentos con backoff exponencial desde 25ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Backoff: 25 * time.Millisecond}
}

// Do ejecuta fn hasta MaxAttempts veces mientras falle con un error reintentable.
func (p RetryPolicy) Do(ctx context.Context, log zerolog.Logger, op string, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Backoff
	b.MaxInterval = p.Backoff * 8
	b.MaxElapsedTime = 0

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if !domain.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		log.Warn().Err(err).
			Str("op", op).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Msg("conflicto de concurrencia en el ledger")
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx))
}
