package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/archie-s/card-vault/internal/domain"
)

// ErrDuplicateCard signals the storage-layer uniqueness constraint fired for
// an identical active card of the same owner.
var ErrDuplicateCard = errors.New("active card already exists for owner")

// CardRepository is the narrow store adapter the card service persists
// through. Every operation is keyed by owner to enforce tenant isolation at
// the storage boundary as well as in the service.
type CardRepository interface {
	FindActive(ctx context.Context, owner domain.OwnerRef, lastFour, expiryMonth, expiryYear string) (*domain.CardRecord, error)
	FindActiveByToken(ctx context.Context, owner domain.OwnerRef, token string) (*domain.CardRecord, error)
	Insert(ctx context.Context, card *domain.CardRecord) error
	Deactivate(ctx context.Context, owner domain.OwnerRef, token string) (int64, error)
	ListActive(ctx context.Context, owner domain.OwnerRef) ([]domain.CardRecord, error)
}

type cardRepository struct {
	pool *pgxpool.Pool
}

// NewCardRepository returns a Postgres-backed implementation.
func NewCardRepository(pool *pgxpool.Pool) CardRepository {
	return &cardRepository{pool: pool}
}

const cardColumns = `
        card_id, owner_kind, owner_id, token, ciphertext, nonce, auth_tag,
        cardholder_name, last_four, masked_number, brand,
        expiry_month, expiry_year, is_active, created_at, updated_at`

func scanCard(row pgx.Row) (*domain.CardRecord, error) {
	var card domain.CardRecord
	if err := row.Scan(
		&card.ID,
		&card.Owner.Kind,
		&card.Owner.ID,
		&card.Token,
		&card.Ciphertext,
		&card.Nonce,
		&card.AuthTag,
		&card.HolderName,
		&card.LastFour,
		&card.MaskedNumber,
		&card.Brand,
		&card.ExpiryMonth,
		&card.ExpiryYear,
		&card.IsActive,
		&card.CreatedAt,
		&card.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *cardRepository) FindActive(ctx context.Context, owner domain.OwnerRef, lastFour, expiryMonth, expiryYear string) (*domain.CardRecord, error) {
	const query = `
        SELECT ` + cardColumns + `
        FROM cards
        WHERE owner_kind=$1 AND owner_id=$2 AND last_four=$3
          AND expiry_month=$4 AND expiry_year=$5 AND is_active`

	return scanCard(r.pool.QueryRow(ctx, query, owner.Kind, owner.ID, lastFour, expiryMonth, expiryYear))
}

func (r *cardRepository) FindActiveByToken(ctx context.Context, owner domain.OwnerRef, token string) (*domain.CardRecord, error) {
	const query = `
        SELECT ` + cardColumns + `
        FROM cards
        WHERE owner_kind=$1 AND owner_id=$2 AND token=$3 AND is_active`

	return scanCard(r.pool.QueryRow(ctx, query, owner.Kind, owner.ID, token))
}

func (r *cardRepository) Insert(ctx context.Context, card *domain.CardRecord) error {
	const query = `
        INSERT INTO cards
            (card_id, owner_kind, owner_id, token, ciphertext, nonce, auth_tag,
             cardholder_name, last_four, masked_number, brand,
             expiry_month, expiry_year, is_active)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		card.ID,
		card.Owner.Kind,
		card.Owner.ID,
		card.Token,
		card.Ciphertext,
		card.Nonce,
		card.AuthTag,
		card.HolderName,
		card.LastFour,
		card.MaskedNumber,
		card.Brand,
		card.ExpiryMonth,
		card.ExpiryYear,
		card.IsActive,
	).Scan(&card.CreatedAt, &card.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateCard
		}
		return err
	}
	return nil
}

func (r *cardRepository) Deactivate(ctx context.Context, owner domain.OwnerRef, token string) (int64, error) {
	const query = `
        UPDATE cards SET is_active=false, updated_at=NOW()
        WHERE owner_kind=$1 AND owner_id=$2 AND token=$3 AND is_active`

	cmd, err := r.pool.Exec(ctx, query, owner.Kind, owner.ID, token)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *cardRepository) ListActive(ctx context.Context, owner domain.OwnerRef) ([]domain.CardRecord, error) {
	const query = `
        SELECT ` + cardColumns + `
        FROM cards
        WHERE owner_kind=$1 AND owner_id=$2 AND is_active
        ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, owner.Kind, owner.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []domain.CardRecord
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, *card)
	}
	return cards, rows.Err()
}
