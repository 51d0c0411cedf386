package repository

import (
	"context"
	"database/sql"
	"time"

	"smartbox_dashboard/internal/models"
)

type Authorization interface {
	Create(email, hash string) (int, error)
	GetByEmail(email string) (*models.User, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.DashboardEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.DashboardEvent, error)
}

type Repository struct {
	Auth      Authorization
	EventRepo EventRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Auth:      NewUserRepository(db),
		EventRepo: NewEventSQLite(db),
	}
}
