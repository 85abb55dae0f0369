package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hookpipe/hookpipe/internal/dlq"
	"github.com/hookpipe/hookpipe/internal/logging"
	"github.com/hookpipe/hookpipe/internal/metrics"
	"github.com/hookpipe/hookpipe/internal/models"
	"github.com/hookpipe/hookpipe/internal/repository"
)

// Dispatcher fans an inbound event out to an account's destinations,
// creating one delivery-log record per destination.
//
// Policy: best-effort. A failed insert does not stop the remaining
// destinations; individual errors are joined and returned together with
// the number of records that were created. Already-created records are
// never rolled back.
type Dispatcher struct {
	repo repository.Repository
	dlq  dlq.Writer
}

// NewDispatcher creates a Dispatcher. dlqWriter may be nil; failed inserts
// are then only surfaced in the returned error.
func NewDispatcher(repo repository.Repository, dlqWriter dlq.Writer) *Dispatcher {
	return &Dispatcher{
		repo: repo,
		dlq:  dlqWriter,
	}
}

// Dispatch creates one delivery record per destination and returns how many
// were created.
func (d *Dispatcher) Dispatch(ctx context.Context, event *models.Event, account *models.Account, destinations []*models.Destination) (int, error) {
	start := time.Now()
	defer func() {
		metrics.FanoutDuration.Observe(time.Since(start).Seconds())
	}()

	var created int
	var errs []error

	for _, dest := range destinations {
		record := &models.DeliveryLog{
			ID:            newRecordID(),
			EventID:       event.ID,
			AccountID:     account.ID,
			DestinationID: dest.ID,
			ReceivedData:  event.Payload,
			Status:        models.StatusSuccess,
			ReceivedAt:    time.Now().UTC(),
		}

		if err := d.repo.CreateDeliveryLog(ctx, record); err != nil {
			metrics.DeliveryLogErrors.Inc()
			errs = append(errs, fmt.Errorf("destination %s: %w", dest.ID, err))
			d.park(ctx, event, account, dest, err)
			continue
		}

		metrics.DeliveryLogsCreated.Inc()
		created++
	}

	return created, errors.Join(errs...)
}

// DLQStats reports metrics from the configured DLQ backend.
func (d *Dispatcher) DLQStats(ctx context.Context) map[string]interface{} {
	if d.dlq == nil {
		return map[string]interface{}{"enabled": false}
	}
	if reporter, ok := d.dlq.(dlq.StatsReporter); ok {
		return reporter.Stats(ctx)
	}
	return map[string]interface{}{"enabled": true}
}

// park hands a failed delivery to the DLQ, if one is configured.
func (d *Dispatcher) park(ctx context.Context, event *models.Event, account *models.Account, dest *models.Destination, cause error) {
	if d.dlq == nil {
		return
	}

	failed := &dlq.FailedDelivery{
		Timestamp:   time.Now().UTC(),
		EventID:     event.ID,
		AccountID:   account.ID,
		Destination: dest,
		Payload:     event.Payload,
		Error:       cause.Error(),
		Reason:      dlq.ReasonStorageError,
	}

	if err := d.dlq.Write(ctx, failed); err != nil {
		slog.Error("failed to write delivery to DLQ",
			logging.EventID(event.ID),
			logging.DestinationID(dest.ID),
			logging.Error(err),
		)
	}
}

func newRecordID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
