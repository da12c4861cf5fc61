package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sharemycard/sharemycard-backend/internal/types"
)

var ErrContactNotFound = errors.New("contact not found")

type Contact struct {
	ID     int64  `db:"id"`
	UserID string `db:"id_user"`
	LeadID *int64 `db:"id_lead"`
	ContactFields
	Provenance
	Source         string    `db:"source"`
	SourceMetadata []byte    `db:"source_metadata"`
	IsDeleted      bool      `db:"is_deleted"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// ScanMetadata is stored as source_metadata on contacts created from a QR scan.
type ScanMetadata struct {
	ScanTimestamp string  `json:"scan_timestamp"`
	DeviceType    string  `json:"device_type"`
	CameraUsed    string  `json:"camera_used"`
	IPAddress     *string `json:"ip_address"`
	UserAgent     *string `json:"user_agent"`
	Referrer      *string `json:"referrer"`
}

// SourceType reports whether the contact came from a lead or manual entry.
func (c *Contact) SourceType() string {
	if c.LeadID != nil {
		return types.ContactSourceConverted
	}
	return types.ContactSourceManual
}

// BulkDeleteResult summarizes SoftDeleteMany.
type BulkDeleteResult struct {
	DeletedIDs    []int64
	RevertedLeads []int64
}

type ContactRepository interface {
	Create(ctx context.Context, contact *Contact) error
	FindByID(ctx context.Context, id int64, userID string) (*Contact, error)
	FindByOwner(ctx context.Context, userID string) ([]*Contact, error)
	Update(ctx context.Context, id int64, userID string, fields map[string]interface{}) error
	SoftDelete(ctx context.Context, id int64, userID string) (revertedLeadID *int64, err error)
	SoftDeleteMany(ctx context.Context, userID string, ids []int64) (*BulkDeleteResult, error)
}

const contactColumns = `
	id, id_user, id_lead,
	first_name, last_name, full_name, work_phone, mobile_phone, email_primary,
	street_address, city, state, zip_code, country,
	organization_name, job_title, birthdate, website_url, photo_url,
	comments_from_lead, notes, ip_address, user_agent, referrer,
	source, source_metadata, is_deleted, created_at, updated_at`

type sqlContactRepository struct {
	db *sqlx.DB
}

func NewContactRepository(db *sqlx.DB) ContactRepository {
	return &sqlContactRepository{db: db}
}

func (r *sqlContactRepository) Create(ctx context.Context, contact *Contact) error {
	if contact.Source == "" {
		contact.Source = types.ContactSourceManual
	}
	query := `
		INSERT INTO contacts (
			id_user, id_lead,
			first_name, last_name, full_name, work_phone, mobile_phone, email_primary,
			street_address, city, state, zip_code, country,
			organization_name, job_title, birthdate, website_url, photo_url,
			comments_from_lead, notes, ip_address, user_agent, referrer,
			source, source_metadata
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25
		)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		contact.UserID, contact.LeadID,
		contact.FirstName, contact.LastName, contact.FullName, contact.WorkPhone, contact.MobilePhone, contact.EmailPrimary,
		contact.StreetAddress, contact.City, contact.State, contact.ZipCode, contact.Country,
		contact.OrganizationName, contact.JobTitle, contact.Birthdate, contact.WebsiteURL, contact.PhotoURL,
		contact.CommentsFromLead, contact.Notes, contact.IPAddress, contact.UserAgent, contact.Referrer,
		contact.Source, contact.SourceMetadata,
	).Scan(&contact.ID, &contact.CreatedAt, &contact.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	return nil
}

func (r *sqlContactRepository) FindByID(ctx context.Context, id int64, userID string) (*Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1 AND id_user = $2 AND is_deleted = FALSE`

	contact := &Contact{}
	err := r.db.GetContext(ctx, contact, query, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return contact, nil
}

func (r *sqlContactRepository) FindByOwner(ctx context.Context, userID string) ([]*Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts
		WHERE id_user = $1 AND is_deleted = FALSE
		ORDER BY created_at DESC, id DESC`

	var contacts []*Contact
	if err := r.db.SelectContext(ctx, &contacts, query, userID); err != nil {
		return nil, err
	}
	return contacts, nil
}

func (r *sqlContactRepository) Update(ctx context.Context, id int64, userID string, fields map[string]interface{}) error {
	setClause, args, err := buildSetClause(fields)
	if err != nil {
		return err
	}
	args = append(args, id, userID)
	query := fmt.Sprintf(
		`UPDATE contacts SET %s, updated_at = NOW() WHERE id = $%d AND id_user = $%d AND is_deleted = FALSE`,
		setClause, len(args)-1, len(args),
	)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrContactNotFound
	}
	return nil
}

// SoftDelete removes the contact and, when it came from a lead, returns that
// lead to the "new" state so it shows up for conversion again.
func (r *sqlContactRepository) SoftDelete(ctx context.Context, id int64, userID string) (*int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin contact delete: %w", err)
	}
	defer tx.Rollback()

	var leadID sql.NullInt64
	err = tx.QueryRowxContext(ctx, `
		UPDATE contacts SET is_deleted = TRUE, updated_at = NOW()
		WHERE id = $1 AND id_user = $2 AND is_deleted = FALSE
		RETURNING id_lead`,
		id, userID,
	).Scan(&leadID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrContactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("soft delete contact: %w", err)
	}

	var reverted *int64
	if leadID.Valid {
		if err := revertLeads(ctx, tx, []int64{leadID.Int64}); err != nil {
			return nil, err
		}
		reverted = &leadID.Int64
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit contact delete: %w", err)
	}
	return reverted, nil
}

func (r *sqlContactRepository) SoftDeleteMany(ctx context.Context, userID string, ids []int64) (*BulkDeleteResult, error) {
	result := &BulkDeleteResult{DeletedIDs: []int64{}, RevertedLeads: []int64{}}
	if len(ids) == 0 {
		return result, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin bulk delete: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryxContext(ctx, `
		UPDATE contacts SET is_deleted = TRUE, updated_at = NOW()
		WHERE id = ANY($1) AND id_user = $2 AND is_deleted = FALSE
		RETURNING id, id_lead`,
		pq.Array(ids), userID,
	)
	if err != nil {
		return nil, fmt.Errorf("bulk soft delete contacts: %w", err)
	}
	for rows.Next() {
		var id int64
		var leadID sql.NullInt64
		if err := rows.Scan(&id, &leadID); err != nil {
			rows.Close()
			return nil, err
		}
		result.DeletedIDs = append(result.DeletedIDs, id)
		if leadID.Valid {
			result.RevertedLeads = append(result.RevertedLeads, leadID.Int64)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if err := revertLeads(ctx, tx, result.RevertedLeads); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit bulk delete: %w", err)
	}
	return result, nil
}
