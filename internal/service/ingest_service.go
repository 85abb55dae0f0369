package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/hookpipe/hookpipe/internal/dispatch"
	"github.com/hookpipe/hookpipe/internal/logging"
	"github.com/hookpipe/hookpipe/internal/models"
	"github.com/hookpipe/hookpipe/internal/repository"
)

// ErrInvalidToken is returned when no account matches the presented
// secret token.
var ErrInvalidToken = errors.New("invalid token")

// Result summarizes one ingested event.
type Result struct {
	Account        *models.Account
	Destinations   int
	RecordsCreated int
}

// IngestService runs the ingestion pipeline: resolve the account from its
// secret token, look up the account's destinations, and fan the event out.
// Stages execute strictly in that order; a failed stage never reaches the
// next one.
type IngestService struct {
	repo       repository.Repository
	dispatcher *dispatch.Dispatcher
	logger     *logging.Logger
}

func NewIngestService(repo repository.Repository, dispatcher *dispatch.Dispatcher, logger *logging.Logger) *IngestService {
	if logger == nil {
		logger = logging.Default()
	}
	return &IngestService{
		repo:       repo,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Ingest processes one inbound event. The caller has already validated that
// token and event.ID are present.
func (s *IngestService) Ingest(ctx context.Context, event *models.Event, token string) (*Result, error) {
	account, err := s.repo.GetAccountByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("resolve account: %w", err)
	}

	destinations, err := s.repo.ListDestinationsByAccount(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("list destinations: %w", err)
	}

	result := &Result{
		Account:      account,
		Destinations: len(destinations),
	}

	if len(destinations) == 0 {
		s.logger.InfoContext(ctx, "event had no destinations",
			logging.EventID(event.ID),
			logging.AccountID(account.ID),
		)
		return result, nil
	}

	created, err := s.dispatcher.Dispatch(ctx, event, account, destinations)
	result.RecordsCreated = created
	if err != nil {
		return result, fmt.Errorf("dispatch: %w", err)
	}

	s.logger.InfoContext(ctx, "event dispatched",
		logging.EventID(event.ID),
		logging.AccountID(account.ID),
	)

	return result, nil
}

// ListDeliveryLogs returns the delivery records for an account.
func (s *IngestService) ListDeliveryLogs(ctx context.Context, accountID string, limit, offset int) ([]*models.DeliveryLog, error) {
	return s.repo.ListDeliveryLogsByAccount(ctx, accountID, limit, offset)
}

// Ready reports whether the backing datastore is reachable.
func (s *IngestService) Ready(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// DLQStats reports metrics from the dead-letter queue backend.
func (s *IngestService) DLQStats(ctx context.Context) map[string]interface{} {
	return s.dispatcher.DLQStats(ctx)
}
