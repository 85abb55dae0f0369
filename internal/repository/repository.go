package repository

import (
	"context"
	"errors"

	"github.com/hookpipe/hookpipe/internal/models"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountExists       = errors.New("account already exists")
	ErrDestinationNotFound = errors.New("destination not found")
)

// Repository is the datastore consumed by the ingestion pipeline. Accounts
// and destinations are read-only from the pipeline's perspective; delivery
// logs are insert-only. The Create* methods for accounts and destinations
// exist for out-of-band provisioning (seeding, tests), not for the pipeline.
type Repository interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccountByToken(ctx context.Context, token string) (*models.Account, error)

	CreateDestination(ctx context.Context, dest *models.Destination) error
	ListDestinationsByAccount(ctx context.Context, accountID string) ([]*models.Destination, error)

	CreateDeliveryLog(ctx context.Context, log *models.DeliveryLog) error
	ListDeliveryLogsByAccount(ctx context.Context, accountID string, limit, offset int) ([]*models.DeliveryLog, error)

	Ping(ctx context.Context) error
	Close() error
}
