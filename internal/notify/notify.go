// Package notify fans an alert out to notification channels and reports
// the outcome of each channel independently.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	apperrors "github.com/rajasatyajit/EmergencyTriage/internal/errors"
	"github.com/rajasatyajit/EmergencyTriage/internal/logger"
	"github.com/rajasatyajit/EmergencyTriage/internal/metrics"
	"github.com/rajasatyajit/EmergencyTriage/internal/models"
)

// Channel delivers an alert over one transport
type Channel interface {
	Name() string
	Send(ctx context.Context, payload models.AlertPayload) error
}

// Dispatcher sends a payload to every channel concurrently with a bound on
// parallelism and a per-channel timeout. Sends are never retried.
type Dispatcher struct {
	sem     *semaphore.Weighted
	timeout time.Duration
}

// NewDispatcher creates a dispatcher. maxConcurrency < 1 is treated as 1 and
// a non-positive timeout disables the per-channel deadline.
func NewDispatcher(maxConcurrency int, timeout time.Duration) *Dispatcher {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &Dispatcher{
		sem:     semaphore.NewWeighted(int64(maxConcurrency)),
		timeout: timeout,
	}
}

// Dispatch attempts every channel and returns one result per channel name.
// A failing, hanging or panicking channel never affects the others.
func (d *Dispatcher) Dispatch(ctx context.Context, payload models.AlertPayload, channels []Channel) map[string]models.NotificationResult {
	results := make(map[string]models.NotificationResult, len(channels))
	if len(channels) == 0 {
		return results
	}

	log := logger.WithContext(ctx)

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, ch := range channels {
		ch := ch
		wg.Add(1)

		go func() {
			defer wg.Done()

			err := d.attempt(ctx, ch, payload)
			res := models.NotificationResult{Channel: ch.Name(), Success: err == nil}
			if err != nil {
				res.Detail = err.Error()
				metrics.RecordNotification(ch.Name(), "failed")
				log.Warn("Notification failed", "channel", ch.Name(), "error", err)
			} else {
				metrics.RecordNotification(ch.Name(), "ok")
				log.Info("Notification sent", "channel", ch.Name())
			}

			mu.Lock()
			results[ch.Name()] = res
			mu.Unlock()
		}()
	}
	wg.Wait()

	return results
}

func (d *Dispatcher) attempt(ctx context.Context, ch Channel, payload models.AlertPayload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire dispatch slot: %w", err)
	}
	defer d.sem.Release(1)

	sendCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	// Buffered so a send that outlives its deadline does not block forever
	done := make(chan error, 1)
	go func() {
		done <- safeSend(sendCtx, ch, payload)
	}()

	select {
	case err := <-done:
		return err
	case <-sendCtx.Done():
		if sendCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("send after %s: %w", d.timeout, apperrors.ErrTimeout)
		}
		return sendCtx.Err()
	}
}

func safeSend(ctx context.Context, ch Channel, payload models.AlertPayload) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("channel panicked: %v", r)
		}
	}()
	return ch.Send(ctx, payload)
}
