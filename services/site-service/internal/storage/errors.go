package storage

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lbsconnect/examcenter/services/site-service/internal/model"
)

const (
	codeUniqueViolation    = "23505"
	codeInvalidTextForType = "22P02"

	// Partial unique index on live appointment slots, see schema.sql.
	liveSlotConstraint = "appointments_live_slot_uniq"
)

// mapErr translates driver errors into model sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			if pgErr.ConstraintName == liveSlotConstraint {
				return model.ErrSlotTaken
			}
		case codeInvalidTextForType:
			return model.ErrNotFound
		}
	}
	return err
}
