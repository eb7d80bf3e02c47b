package storage

import (
	"context"

	"github.com/lbsconnect/examcenter/libs/db"
	"github.com/lbsconnect/examcenter/services/site-service/internal/model"
)

type ContactRepository struct {
	pool *db.Pool
}

func NewContactRepository(pool *db.Pool) *ContactRepository {
	return &ContactRepository{pool: pool}
}

func (r *ContactRepository) Create(ctx context.Context, c model.ContactSubmission) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO contact_submissions (id, name, email, phone, service, message, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7)
	`, c.ID, c.Name, c.Email, c.Phone, c.Service, c.Message, c.CreatedAt)
	return mapErr(err)
}

// List returns the newest submissions first.
func (r *ContactRepository) List(ctx context.Context, limit int) ([]model.ContactSubmission, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, name, email, COALESCE(phone, ''), COALESCE(service, ''), message, created_at
		FROM contact_submissions
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ContactSubmission
	for rows.Next() {
		var c model.ContactSubmission
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Service, &c.Message, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
