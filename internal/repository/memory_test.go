package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hookpipe/hookpipe/internal/models"
)

func newTestAccount(name, token string) *models.Account {
	return &models.Account{
		ID:          uuid.New().String(),
		Name:        name,
		SecretToken: token,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}

func TestInMemoryRepository_Accounts(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	account := newTestAccount("acme", "tok-acme")
	if err := repo.CreateAccount(ctx, account); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	got, err := repo.GetAccountByToken(ctx, "tok-acme")
	if err != nil {
		t.Fatalf("GetAccountByToken() error = %v", err)
	}
	if got.ID != account.ID {
		t.Errorf("GetAccountByToken() ID = %q, want %q", got.ID, account.ID)
	}

	// Duplicate secret token is rejected
	dup := newTestAccount("other", "tok-acme")
	if err := repo.CreateAccount(ctx, dup); !errors.Is(err, ErrAccountExists) {
		t.Errorf("CreateAccount() with duplicate token error = %v, want ErrAccountExists", err)
	}
}

func TestInMemoryRepository_GetAccountByToken_NotFound(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	if _, err := repo.GetAccountByToken(ctx, "no-such-token"); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("GetAccountByToken() error = %v, want ErrAccountNotFound", err)
	}

	// Empty token short-circuits without a lookup
	if _, err := repo.GetAccountByToken(ctx, ""); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("GetAccountByToken(\"\") error = %v, want ErrAccountNotFound", err)
	}
}

func TestInMemoryRepository_Destinations(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	account := newTestAccount("acme", "tok-acme")
	if err := repo.CreateAccount(ctx, account); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	// Destination for a missing account is rejected
	orphan := &models.Destination{
		ID:        uuid.New().String(),
		AccountID: uuid.New().String(),
		URL:       "https://example.com/hook",
	}
	if err := repo.CreateDestination(ctx, orphan); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("CreateDestination() orphan error = %v, want ErrAccountNotFound", err)
	}

	for i := 0; i < 3; i++ {
		dest := &models.Destination{
			ID:         uuid.New().String(),
			AccountID:  account.ID,
			URL:        "https://example.com/hook",
			HTTPMethod: "POST",
			Headers:    map[string]string{"Authorization": "Bearer x"},
			CreatedAt:  time.Now(),
		}
		if err := repo.CreateDestination(ctx, dest); err != nil {
			t.Fatalf("CreateDestination() error = %v", err)
		}
	}

	dests, err := repo.ListDestinationsByAccount(ctx, account.ID)
	if err != nil {
		t.Fatalf("ListDestinationsByAccount() error = %v", err)
	}
	if len(dests) != 3 {
		t.Errorf("ListDestinationsByAccount() returned %d destinations, want 3", len(dests))
	}

	// Unknown account yields an empty set, not an error
	none, err := repo.ListDestinationsByAccount(ctx, uuid.New().String())
	if err != nil {
		t.Fatalf("ListDestinationsByAccount() error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("ListDestinationsByAccount() returned %d destinations, want 0", len(none))
	}
}

func TestInMemoryRepository_DeliveryLogs(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	account := newTestAccount("acme", "tok-acme")
	if err := repo.CreateAccount(ctx, account); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	for i := 0; i < 5; i++ {
		l := &models.DeliveryLog{
			ID:            uuid.New().String(),
			EventID:       "evt-1",
			AccountID:     account.ID,
			DestinationID: uuid.New().String(),
			ReceivedData:  json.RawMessage(`{"a":1}`),
			Status:        models.StatusSuccess,
			ReceivedAt:    time.Now(),
		}
		if err := repo.CreateDeliveryLog(ctx, l); err != nil {
			t.Fatalf("CreateDeliveryLog() error = %v", err)
		}
	}

	logs, err := repo.ListDeliveryLogsByAccount(ctx, account.ID, 0, 0)
	if err != nil {
		t.Fatalf("ListDeliveryLogsByAccount() error = %v", err)
	}
	if len(logs) != 5 {
		t.Errorf("ListDeliveryLogsByAccount() returned %d logs, want 5", len(logs))
	}

	// Pagination
	page, err := repo.ListDeliveryLogsByAccount(ctx, account.ID, 2, 4)
	if err != nil {
		t.Fatalf("ListDeliveryLogsByAccount() error = %v", err)
	}
	if len(page) != 1 {
		t.Errorf("ListDeliveryLogsByAccount(limit=2, offset=4) returned %d logs, want 1", len(page))
	}

	beyond, err := repo.ListDeliveryLogsByAccount(ctx, account.ID, 10, 100)
	if err != nil {
		t.Fatalf("ListDeliveryLogsByAccount() error = %v", err)
	}
	if len(beyond) != 0 {
		t.Errorf("ListDeliveryLogsByAccount(offset beyond end) returned %d logs, want 0", len(beyond))
	}
}
