package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sharemycard/sharemycard-backend/internal/types"
)

var (
	ErrLeadNotFound     = errors.New("lead not found")
	ErrAlreadyConverted = errors.New("lead already converted")
	ErrLeadHasContact   = errors.New("lead has a live contact")
	ErrUnknownColumn    = errors.New("column is not updatable")
)

// ============================================
// Models / Entities
// ============================================

// ContactFields is the block of person data shared by leads and contacts.
// Conversion copies it verbatim.
type ContactFields struct {
	FirstName        string  `db:"first_name"`
	LastName         string  `db:"last_name"`
	FullName         string  `db:"full_name"`
	WorkPhone        *string `db:"work_phone"`
	MobilePhone      *string `db:"mobile_phone"`
	EmailPrimary     string  `db:"email_primary"`
	StreetAddress    *string `db:"street_address"`
	City             *string `db:"city"`
	State            *string `db:"state"`
	ZipCode          *string `db:"zip_code"`
	Country          *string `db:"country"`
	OrganizationName *string `db:"organization_name"`
	JobTitle         *string `db:"job_title"`
	Birthdate        *string `db:"birthdate"`
	WebsiteURL       *string `db:"website_url"`
	PhotoURL         *string `db:"photo_url"`
	CommentsFromLead *string `db:"comments_from_lead"`
	Notes            *string `db:"notes"`
}

// Provenance records where a capture request came from.
type Provenance struct {
	IPAddress *string `db:"ip_address"`
	UserAgent *string `db:"user_agent"`
	Referrer  *string `db:"referrer"`
}

type Lead struct {
	ID             int64   `db:"id"`
	UserID         string  `db:"user_id"`
	BusinessCardID *string `db:"id_business_card"`
	CustomQRCodeID *string `db:"id_custom_qr_code"`
	ContactFields
	Provenance
	Status      string     `db:"status"`
	ConvertedAt *time.Time `db:"converted_at"`
	IsDeleted   bool       `db:"is_deleted"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

// LeadWithSource is a lead joined with display fields of its source.
type LeadWithSource struct {
	Lead
	CardFirstName *string `db:"card_first_name"`
	CardLastName  *string `db:"card_last_name"`
	CardCompany   *string `db:"card_company"`
	CardJobTitle  *string `db:"card_job_title"`
	QRTitle       *string `db:"qr_title"`
	QRType        *string `db:"qr_type"`
}

// UpdatableContactColumns lists the person columns an owner may change on a
// lead. Contacts accept the same set.
var UpdatableContactColumns = map[string]bool{
	"first_name":         true,
	"last_name":          true,
	"full_name":          true,
	"work_phone":         true,
	"mobile_phone":       true,
	"email_primary":      true,
	"street_address":     true,
	"city":               true,
	"state":              true,
	"zip_code":           true,
	"country":            true,
	"organization_name":  true,
	"job_title":          true,
	"birthdate":          true,
	"website_url":        true,
	"photo_url":          true,
	"comments_from_lead": true,
	"notes":              true,
}

type LeadRepository interface {
	Create(ctx context.Context, lead *Lead) error
	FindByID(ctx context.Context, id int64, userID string) (*LeadWithSource, error)
	FindByOwner(ctx context.Context, userID string) ([]*LeadWithSource, error)
	Update(ctx context.Context, id int64, userID string, fields map[string]interface{}) error
	SoftDelete(ctx context.Context, id int64, userID string) error
	Convert(ctx context.Context, id int64, userID string) (int64, error)
	BackfillQRLinkage(ctx context.Context) (int64, error)
	PurgeDeleted(ctx context.Context, olderThan time.Time) (int64, error)
}

// ============================================
// PostgreSQL implementation (sqlx)
// ============================================

const leadColumns = `
	l.id, l.user_id, l.id_business_card, l.id_custom_qr_code,
	l.first_name, l.last_name, l.full_name, l.work_phone, l.mobile_phone, l.email_primary,
	l.street_address, l.city, l.state, l.zip_code, l.country,
	l.organization_name, l.job_title, l.birthdate, l.website_url, l.photo_url,
	l.comments_from_lead, l.notes, l.ip_address, l.user_agent, l.referrer,
	l.status, l.converted_at, l.is_deleted, l.created_at, l.updated_at`

const leadSourceJoin = `
	bc.first_name AS card_first_name, bc.last_name AS card_last_name,
	bc.company_name AS card_company, bc.job_title AS card_job_title,
	q.title AS qr_title, q.type AS qr_type
	FROM leads l
	LEFT JOIN business_cards bc ON bc.id = l.id_business_card
	LEFT JOIN custom_qr_codes q ON q.id = l.id_custom_qr_code`

const revertLeadsQuery = `
	UPDATE leads
	SET status = 'new', converted_at = NULL,
		notes = NULLIF(REPLACE(COALESCE(notes, ''), $2, ''), ''),
		updated_at = NOW()
	WHERE id = ANY($1)`

type sqlLeadRepository struct {
	db *sqlx.DB
}

func NewLeadRepository(db *sqlx.DB) LeadRepository {
	return &sqlLeadRepository{db: db}
}

// Create inserts the lead and, for QR-sourced leads, its qr_leads row in one transaction.
func (r *sqlLeadRepository) Create(ctx context.Context, lead *Lead) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin lead insert: %w", err)
	}
	defer tx.Rollback()

	if lead.Status == "" {
		lead.Status = types.LeadNew
	}

	query := `
		INSERT INTO leads (
			user_id, id_business_card, id_custom_qr_code,
			first_name, last_name, full_name, work_phone, mobile_phone, email_primary,
			street_address, city, state, zip_code, country,
			organization_name, job_title, birthdate, website_url, photo_url,
			comments_from_lead, notes, ip_address, user_agent, referrer, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25
		)
		RETURNING id, created_at, updated_at
	`
	err = tx.QueryRowxContext(ctx, query,
		lead.UserID, lead.BusinessCardID, lead.CustomQRCodeID,
		lead.FirstName, lead.LastName, lead.FullName, lead.WorkPhone, lead.MobilePhone, lead.EmailPrimary,
		lead.StreetAddress, lead.City, lead.State, lead.ZipCode, lead.Country,
		lead.OrganizationName, lead.JobTitle, lead.Birthdate, lead.WebsiteURL, lead.PhotoURL,
		lead.CommentsFromLead, lead.Notes, lead.IPAddress, lead.UserAgent, lead.Referrer, lead.Status,
	).Scan(&lead.ID, &lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}

	if lead.CustomQRCodeID != nil {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO qr_leads (qr_id, lead_id) VALUES ($1, $2)`,
			*lead.CustomQRCodeID, lead.ID,
		); err != nil {
			return fmt.Errorf("insert qr_leads: %w", err)
		}
	}

	return tx.Commit()
}

func (r *sqlLeadRepository) FindByID(ctx context.Context, id int64, userID string) (*LeadWithSource, error) {
	query := `SELECT ` + leadColumns + `,` + leadSourceJoin + `
		WHERE l.id = $1 AND l.user_id = $2 AND l.is_deleted = FALSE`

	lead := &LeadWithSource{}
	err := r.db.GetContext(ctx, lead, query, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return lead, nil
}

func (r *sqlLeadRepository) FindByOwner(ctx context.Context, userID string) ([]*LeadWithSource, error) {
	query := `SELECT ` + leadColumns + `,` + leadSourceJoin + `
		WHERE l.user_id = $1 AND l.is_deleted = FALSE
		ORDER BY l.created_at DESC, l.id DESC`

	var leads []*LeadWithSource
	if err := r.db.SelectContext(ctx, &leads, query, userID); err != nil {
		return nil, err
	}
	return leads, nil
}

func (r *sqlLeadRepository) Update(ctx context.Context, id int64, userID string, fields map[string]interface{}) error {
	setClause, args, err := buildSetClause(fields)
	if err != nil {
		return err
	}
	args = append(args, id, userID)
	query := fmt.Sprintf(
		`UPDATE leads SET %s, updated_at = NOW() WHERE id = $%d AND user_id = $%d AND is_deleted = FALSE`,
		setClause, len(args)-1, len(args),
	)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update lead: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// SoftDelete marks the lead deleted unless a live contact references it.
// The row lock serializes against a concurrent Convert.
func (r *sqlLeadRepository) SoftDelete(ctx context.Context, id int64, userID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin lead delete: %w", err)
	}
	defer tx.Rollback()

	var lockedID int64
	err = tx.QueryRowxContext(ctx,
		`SELECT id FROM leads WHERE id = $1 AND user_id = $2 AND is_deleted = FALSE FOR UPDATE`,
		id, userID,
	).Scan(&lockedID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrLeadNotFound
	}
	if err != nil {
		return fmt.Errorf("lock lead: %w", err)
	}

	hasContact, err := hasLiveContact(ctx, tx, id)
	if err != nil {
		return err
	}
	if hasContact {
		return ErrLeadHasContact
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE leads SET is_deleted = TRUE, updated_at = NOW() WHERE id = $1`, id,
	); err != nil {
		return fmt.Errorf("soft delete lead: %w", err)
	}
	return tx.Commit()
}

// Convert promotes a lead into a contact owned by userID and returns the
// new contact id. Missing, deleted and foreign leads all yield ErrLeadNotFound.
func (r *sqlLeadRepository) Convert(ctx context.Context, id int64, userID string) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin conversion: %w", err)
	}
	defer tx.Rollback()

	var ownerID string
	err = tx.QueryRowxContext(ctx,
		`SELECT user_id FROM leads WHERE id = $1 AND is_deleted = FALSE FOR UPDATE`, id,
	).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrLeadNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("lock lead: %w", err)
	}
	if ownerID != userID {
		return 0, ErrLeadNotFound
	}

	converted, err := hasLiveContact(ctx, tx, id)
	if err != nil {
		return 0, err
	}
	if converted {
		return 0, ErrAlreadyConverted
	}

	insert := `
		INSERT INTO contacts (
			id_user, id_lead,
			first_name, last_name, full_name, work_phone, mobile_phone, email_primary,
			street_address, city, state, zip_code, country,
			organization_name, job_title, birthdate, website_url, photo_url,
			comments_from_lead, notes, ip_address, user_agent, referrer, source
		)
		SELECT $2, l.id,
			l.first_name, l.last_name, l.full_name, l.work_phone, l.mobile_phone, l.email_primary,
			l.street_address, l.city, l.state, l.zip_code, l.country,
			l.organization_name, l.job_title, l.birthdate, l.website_url, l.photo_url,
			l.comments_from_lead, l.notes, l.ip_address, l.user_agent, l.referrer, $3
		FROM leads l
		WHERE l.id = $1
		RETURNING id
	`
	var contactID int64
	if err := tx.QueryRowxContext(ctx, insert, id, userID, types.ContactSourceConverted).Scan(&contactID); err != nil {
		if isUniqueViolation(err) {
			return 0, ErrAlreadyConverted
		}
		return 0, fmt.Errorf("insert contact from lead: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE leads
		SET status = $2, converted_at = NOW(),
			notes = CONCAT(COALESCE(notes, ''), $3::text),
			updated_at = NOW()
		WHERE id = $1`,
		id, types.LeadConverted, types.ConvertedMarker,
	); err != nil {
		return 0, fmt.Errorf("mark lead converted: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return 0, ErrAlreadyConverted
		}
		return 0, fmt.Errorf("commit conversion: %w", err)
	}
	return contactID, nil
}

// BackfillQRLinkage inserts the missing qr_leads rows for QR-sourced leads.
func (r *sqlLeadRepository) BackfillQRLinkage(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO qr_leads (qr_id, lead_id)
		SELECT l.id_custom_qr_code, l.id
		FROM leads l
		WHERE l.id_custom_qr_code IS NOT NULL
		AND NOT EXISTS (SELECT 1 FROM qr_leads ql WHERE ql.lead_id = l.id)`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// PurgeDeleted hard-deletes soft-deleted leads that were never referenced by a contact.
func (r *sqlLeadRepository) PurgeDeleted(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM leads l
		WHERE l.is_deleted = TRUE
		AND l.status = $1
		AND l.updated_at < $2
		AND NOT EXISTS (SELECT 1 FROM contacts c WHERE c.id_lead = l.id)`,
		types.LeadNew, olderThan,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ============================================
// Helpers
// ============================================

func hasLiveContact(ctx context.Context, tx *sqlx.Tx, leadID int64) (bool, error) {
	var exists bool
	err := tx.QueryRowxContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM contacts WHERE id_lead = $1 AND is_deleted = FALSE)`, leadID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check live contact: %w", err)
	}
	return exists, nil
}

func revertLeads(ctx context.Context, tx *sqlx.Tx, leadIDs []int64) error {
	if len(leadIDs) == 0 {
		return nil
	}
	if _, err := tx.ExecContext(ctx, revertLeadsQuery, pq.Array(leadIDs), types.ConvertedMarker); err != nil {
		return fmt.Errorf("revert leads: %w", err)
	}
	return nil
}

// buildSetClause renders "col = $n" pairs in column order so generated SQL is stable.
func buildSetClause(fields map[string]interface{}) (string, []interface{}, error) {
	if len(fields) == 0 {
		return "", nil, ErrUnknownColumn
	}
	columns := make([]string, 0, len(fields))
	for column := range fields {
		if !UpdatableContactColumns[column] {
			return "", nil, fmt.Errorf("%w: %s", ErrUnknownColumn, column)
		}
		columns = append(columns, column)
	}
	sort.Strings(columns)

	parts := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, column := range columns {
		parts[i] = fmt.Sprintf("%s = $%d", column, i+1)
		args[i] = fields[column]
	}
	return strings.Join(parts, ", "), args, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
