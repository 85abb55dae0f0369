package repository

import (
	"context"
	"sync"

	"github.com/hookpipe/hookpipe/internal/models"
)

// InMemoryRepository is a thread-safe in-memory Repository for tests and
// local development.
type InMemoryRepository struct {
	accounts        map[string]*models.Account
	accountsByToken map[string]*models.Account
	destinations    map[string]*models.Destination
	deliveryLogs    []*models.DeliveryLog
	mu              sync.RWMutex
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		accounts:        make(map[string]*models.Account),
		accountsByToken: make(map[string]*models.Account),
		destinations:    make(map[string]*models.Destination),
	}
}

func (r *InMemoryRepository) CreateAccount(ctx context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.accountsByToken[account.SecretToken]; exists {
		return ErrAccountExists
	}

	r.accounts[account.ID] = account
	r.accountsByToken[account.SecretToken] = account
	return nil
}

func (r *InMemoryRepository) GetAccountByToken(ctx context.Context, token string) (*models.Account, error) {
	if token == "" {
		return nil, ErrAccountNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	account, exists := r.accountsByToken[token]
	if !exists {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

func (r *InMemoryRepository) CreateDestination(ctx context.Context, dest *models.Destination) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.accounts[dest.AccountID]; !exists {
		return ErrAccountNotFound
	}

	r.destinations[dest.ID] = dest
	return nil
}

func (r *InMemoryRepository) ListDestinationsByAccount(ctx context.Context, accountID string) ([]*models.Destination, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var dests []*models.Destination
	for _, d := range r.destinations {
		if d.AccountID == accountID {
			dests = append(dests, d)
		}
	}
	return dests, nil
}

func (r *InMemoryRepository) CreateDeliveryLog(ctx context.Context, log *models.DeliveryLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.deliveryLogs = append(r.deliveryLogs, log)
	return nil
}

func (r *InMemoryRepository) ListDeliveryLogsByAccount(ctx context.Context, accountID string, limit, offset int) ([]*models.DeliveryLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var logs []*models.DeliveryLog
	for _, l := range r.deliveryLogs {
		if l.AccountID == accountID {
			logs = append(logs, l)
		}
	}

	if offset >= len(logs) {
		return nil, nil
	}
	logs = logs[offset:]
	if limit > 0 && limit < len(logs) {
		logs = logs[:limit]
	}
	return logs, nil
}

func (r *InMemoryRepository) Ping(ctx context.Context) error {
	return nil
}

func (r *InMemoryRepository) Close() error {
	return nil
}
