package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sharemycard/sharemycard-backend/internal/types"
)

type BusinessCard struct {
	ID          string
	UserID      string
	FirstName   string
	LastName    string
	CompanyName *string
	JobTitle    *string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type CustomQRCode struct {
	ID        string
	UserID    string
	Type      string
	Title     *string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SourceOwner is what capture needs to know about a card or QR code:
// who owns it and how to address them in the confirmation email.
type SourceOwner struct {
	Kind        string
	SourceID    string
	UserID      string
	OwnerEmail  string
	OwnerName   string
	DisplayName string
}

type SourceRepository interface {
	CreateCard(ctx context.Context, card *BusinessCard) error
	SetCardActive(ctx context.Context, id string, active bool) error
	FindCardsByUser(ctx context.Context, userID string) ([]*BusinessCard, error)
	CreateQRCode(ctx context.Context, qr *CustomQRCode) error
	FindQRCodesByUser(ctx context.Context, userID string) ([]*CustomQRCode, error)
	FindActiveCard(ctx context.Context, id string) (*SourceOwner, error)
	FindActiveQRCode(ctx context.Context, id string) (*SourceOwner, error)
}

type pgSourceRepository struct {
	pool *pgxpool.Pool
}

func NewSourceRepository(pool *pgxpool.Pool) SourceRepository {
	return &pgSourceRepository{pool: pool}
}

func (r *pgSourceRepository) CreateCard(ctx context.Context, card *BusinessCard) error {
	query := `
		INSERT INTO business_cards (user_id, first_name, last_name, company_name, job_title, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	return r.pool.QueryRow(ctx, query,
		card.UserID, card.FirstName, card.LastName, card.CompanyName, card.JobTitle, card.IsActive,
	).Scan(&card.ID, &card.CreatedAt, &card.UpdatedAt)
}

func (r *pgSourceRepository) SetCardActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE business_cards SET is_active = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, active)
	return err
}

func (r *pgSourceRepository) FindCardsByUser(ctx context.Context, userID string) ([]*BusinessCard, error) {
	query := `
		SELECT id, user_id, first_name, last_name, company_name, job_title, is_active, created_at, updated_at
		FROM business_cards WHERE user_id = $1 ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []*BusinessCard
	for rows.Next() {
		card := &BusinessCard{}
		if err := rows.Scan(
			&card.ID, &card.UserID, &card.FirstName, &card.LastName, &card.CompanyName,
			&card.JobTitle, &card.IsActive, &card.CreatedAt, &card.UpdatedAt,
		); err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

func (r *pgSourceRepository) CreateQRCode(ctx context.Context, qr *CustomQRCode) error {
	if qr.Status == "" {
		qr.Status = types.QRStatusActive
	}
	if qr.Type == "" {
		qr.Type = types.QRTypeDefault
	}
	query := `
		INSERT INTO custom_qr_codes (user_id, type, title, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	return r.pool.QueryRow(ctx, query, qr.UserID, qr.Type, qr.Title, qr.Status).
		Scan(&qr.ID, &qr.CreatedAt, &qr.UpdatedAt)
}

func (r *pgSourceRepository) FindQRCodesByUser(ctx context.Context, userID string) ([]*CustomQRCode, error) {
	query := `
		SELECT id, user_id, type, title, status, created_at, updated_at
		FROM custom_qr_codes WHERE user_id = $1 ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []*CustomQRCode
	for rows.Next() {
		qr := &CustomQRCode{}
		if err := rows.Scan(&qr.ID, &qr.UserID, &qr.Type, &qr.Title, &qr.Status, &qr.CreatedAt, &qr.UpdatedAt); err != nil {
			return nil, err
		}
		codes = append(codes, qr)
	}
	return codes, rows.Err()
}

// parseUUID normalizes an id taken from a request. A malformed id matches
// nothing, so callers treat it as not found.
func parseUUID(id string) (string, bool) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

// FindActiveCard returns nil when the card is missing, deactivated or the id
// is not a UUID.
func (r *pgSourceRepository) FindActiveCard(ctx context.Context, id string) (*SourceOwner, error) {
	cardID, ok := parseUUID(id)
	if !ok {
		return nil, nil
	}
	query := `
		SELECT bc.id, bc.user_id, bc.first_name, bc.last_name, u.email, u.name
		FROM business_cards bc
		JOIN users u ON u.id = bc.user_id
		WHERE bc.id = $1 AND bc.is_active = TRUE
	`
	owner := &SourceOwner{Kind: types.SourceBusinessCard}
	var firstName, lastName string
	err := r.pool.QueryRow(ctx, query, cardID).Scan(
		&owner.SourceID, &owner.UserID, &firstName, &lastName, &owner.OwnerEmail, &owner.OwnerName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	owner.DisplayName = strings.TrimSpace(firstName + " " + lastName)
	return owner, nil
}

func (r *pgSourceRepository) FindActiveQRCode(ctx context.Context, id string) (*SourceOwner, error) {
	qrID, ok := parseUUID(id)
	if !ok {
		return nil, nil
	}
	query := `
		SELECT q.id, q.user_id, u.email, u.name
		FROM custom_qr_codes q
		JOIN users u ON u.id = q.user_id
		WHERE q.id = $1 AND q.status = $2
	`
	owner := &SourceOwner{Kind: types.SourceCustomQRCode}
	err := r.pool.QueryRow(ctx, query, qrID, types.QRStatusActive).Scan(
		&owner.SourceID, &owner.UserID, &owner.OwnerEmail, &owner.OwnerName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	owner.DisplayName = owner.OwnerName
	return owner, nil
}
