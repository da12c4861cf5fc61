package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
)

type Repositories struct {
	// Account and source repositories (pgxpool)
	UserRepo         UserRepository
	SourceRepo       SourceRepository
	NotificationRepo NotificationRepository

	// Lead/contact repositories (database/sql via sqlx)
	LeadRepo    LeadRepository
	ContactRepo ContactRepository
}

func NewRepositories(pool *pgxpool.Pool, db *sqlx.DB) *Repositories {
	return &Repositories{
		// pgxpool repos
		UserRepo:         NewUserRepository(pool),
		SourceRepo:       NewSourceRepository(pool),
		NotificationRepo: NewNotificationRepository(pool),

		// sqlx repos
		LeadRepo:    NewLeadRepository(db),
		ContactRepo: NewContactRepository(db),
	}
}
