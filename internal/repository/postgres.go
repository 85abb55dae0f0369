package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hookpipe/hookpipe/internal/models"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(ctx context.Context, connString string) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return r.pool.Ping(ctx)
}

func (r *PostgresRepository) CreateAccount(ctx context.Context, account *models.Account) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		INSERT INTO accounts (id, name, website, secret_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		account.ID, account.Name, account.Website, account.SecretToken,
		account.CreatedAt, account.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAccountExists
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetAccountByToken(ctx context.Context, token string) (*models.Account, error) {
	if token == "" {
		return nil, ErrAccountNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		SELECT id, name, COALESCE(website, ''), secret_token, created_at, updated_at
		FROM accounts
		WHERE secret_token = $1
	`

	var account models.Account
	err := r.pool.QueryRow(ctx, query, token).Scan(
		&account.ID, &account.Name, &account.Website, &account.SecretToken,
		&account.CreatedAt, &account.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &account, nil
}

func (r *PostgresRepository) CreateDestination(ctx context.Context, dest *models.Destination) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	headersJSON, err := json.Marshal(dest.Headers)
	if err != nil {
		return fmt.Errorf("failed to marshal headers: %w", err)
	}

	query := `
		INSERT INTO destinations (id, account_id, url, http_method, headers, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = r.pool.Exec(ctx, query,
		dest.ID, dest.AccountID, dest.URL, dest.HTTPMethod, headersJSON, dest.CreatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to create destination: %w", err)
	}

	return nil
}

func (r *PostgresRepository) ListDestinationsByAccount(ctx context.Context, accountID string) ([]*models.Destination, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		SELECT id, account_id, url, http_method, headers, created_at
		FROM destinations
		WHERE account_id = $1
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list destinations: %w", err)
	}
	defer rows.Close()

	var dests []*models.Destination
	for rows.Next() {
		var dest models.Destination
		var headersJSON []byte

		err := rows.Scan(
			&dest.ID, &dest.AccountID, &dest.URL, &dest.HTTPMethod,
			&headersJSON, &dest.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan destination: %w", err)
		}

		if len(headersJSON) > 0 {
			if err := json.Unmarshal(headersJSON, &dest.Headers); err != nil {
				return nil, fmt.Errorf("failed to unmarshal headers: %w", err)
			}
		}

		dests = append(dests, &dest)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating destinations: %w", err)
	}

	return dests, nil
}

func (r *PostgresRepository) CreateDeliveryLog(ctx context.Context, log *models.DeliveryLog) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		INSERT INTO delivery_logs (id, event_id, account_id, destination_id, received_data, status, received_at, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		log.ID, log.EventID, log.AccountID, log.DestinationID,
		[]byte(log.ReceivedData), log.Status, log.ReceivedAt, log.ProcessedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrDestinationNotFound
		}
		return fmt.Errorf("failed to create delivery log: %w", err)
	}

	return nil
}

func (r *PostgresRepository) ListDeliveryLogsByAccount(ctx context.Context, accountID string, limit, offset int) ([]*models.DeliveryLog, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, event_id, account_id, destination_id, received_data, status, received_at, processed_at
		FROM delivery_logs
		WHERE account_id = $1
		ORDER BY received_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list delivery logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.DeliveryLog
	for rows.Next() {
		var l models.DeliveryLog
		var data []byte

		err := rows.Scan(
			&l.ID, &l.EventID, &l.AccountID, &l.DestinationID,
			&data, &l.Status, &l.ReceivedAt, &l.ProcessedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan delivery log: %w", err)
		}

		l.ReceivedData = json.RawMessage(data)
		logs = append(logs, &l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating delivery logs: %w", err)
	}

	return logs, nil
}
