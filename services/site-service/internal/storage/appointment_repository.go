package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lbsconnect/examcenter/libs/db"
	"github.com/lbsconnect/examcenter/services/site-service/internal/model"
	"github.com/lbsconnect/examcenter/services/site-service/internal/outbox"
)

// EventFunc builds the outbox event for an appointment after a state change.
type EventFunc = func(model.Appointment) (outbox.Event, error)

type AppointmentRepository struct {
	pool *db.Pool
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

const appointmentColumns = `
	id::text, customer_name, customer_email, COALESCE(customer_phone, ''),
	service_name, COALESCE(service_id, ''), COALESCE(price_id, ''), price_amount,
	appointment_date, status, payment_status, COALESCE(stripe_session_id, ''),
	COALESCE(notes, ''), reminder_sent_at, created_at, updated_at`

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var a model.Appointment
	err := row.Scan(
		&a.ID,
		&a.CustomerName,
		&a.CustomerEmail,
		&a.CustomerPhone,
		&a.ServiceName,
		&a.ServiceID,
		&a.PriceID,
		&a.PriceAmount,
		&a.AppointmentDate,
		&a.Status,
		&a.PaymentStatus,
		&a.CheckoutSessionID,
		&a.Notes,
		&a.ReminderSentAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	return a, err
}

// Create inserts the appointment and its events in one transaction.
// A live appointment already holding the slot yields model.ErrSlotTaken.
func (r *AppointmentRepository) Create(ctx context.Context, appt model.Appointment, events ...outbox.Event) error {
	err := r.pool.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO appointments
				(id, customer_name, customer_email, customer_phone, service_name, service_id, price_id,
				 price_amount, appointment_date, status, payment_status, notes, created_at, updated_at)
			VALUES ($1, $2, $3, NULLIF($4, ''), $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9, $10, $11, NULLIF($12, ''), $13, $14)
		`, appt.ID, appt.CustomerName, appt.CustomerEmail, appt.CustomerPhone, appt.ServiceName, appt.ServiceID,
			appt.PriceID, appt.PriceAmount, appt.AppointmentDate, appt.Status, appt.PaymentStatus, appt.Notes,
			appt.CreatedAt, appt.UpdatedAt)
		if err != nil {
			return err
		}
		return outbox.Insert(ctx, tx, events...)
	})
	return mapErr(err)
}

func (r *AppointmentRepository) Get(ctx context.Context, id string) (model.Appointment, error) {
	appt, err := scanAppointment(r.pool.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id))
	return appt, mapErr(err)
}

// ListBetween returns appointments of any status with start..end inclusive.
func (r *AppointmentRepository) ListBetween(ctx context.Context, start, end time.Time) ([]model.Appointment, error) {
	return r.list(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE appointment_date >= $1 AND appointment_date <= $2
		ORDER BY appointment_date ASC, created_at ASC
	`, start, end)
}

// DueReminders lists live appointments in the window that have not had a reminder.
func (r *AppointmentRepository) DueReminders(ctx context.Context, start, end time.Time) ([]model.Appointment, error) {
	return r.list(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE appointment_date >= $1 AND appointment_date <= $2
			AND status <> 'cancelled'
			AND reminder_sent_at IS NULL
		ORDER BY appointment_date ASC
	`, start, end)
}

func (r *AppointmentRepository) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET reminder_sent_at = $2
		WHERE id = $1 AND reminder_sent_at IS NULL
	`, id, at)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// AttachCheckoutSession records the session and moves payment to pending unless already paid.
func (r *AppointmentRepository) AttachCheckoutSession(ctx context.Context, id, sessionID string) (model.Appointment, error) {
	appt, err := scanAppointment(r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET stripe_session_id = $2,
			payment_status = CASE WHEN payment_status = 'paid' THEN 'paid' ELSE 'pending' END,
			updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns, id, sessionID))
	return appt, mapErr(err)
}

// MarkPaid sets payment_status to paid. It reports changed=false, and writes no
// event, when the appointment was already paid.
func (r *AppointmentRepository) MarkPaid(ctx context.Context, id string, event EventFunc) (model.Appointment, bool, error) {
	var (
		appt    model.Appointment
		changed bool
	)
	err := r.pool.WithTx(ctx, func(tx pgx.Tx) error {
		current, err := r.getForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.PaymentStatus == model.PaymentPaid {
			appt = current
			return nil
		}
		appt, err = scanAppointment(tx.QueryRow(ctx, `
			UPDATE appointments
			SET payment_status = 'paid', updated_at = now()
			WHERE id = $1
			RETURNING `+appointmentColumns, id))
		if err != nil {
			return err
		}
		changed = true
		return insertEvent(ctx, tx, appt, event)
	})
	return appt, changed, mapErr(err)
}

// UpdateStatus changes the lifecycle status. Reviving a cancelled appointment
// whose slot has since been taken yields model.ErrSlotTaken.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id, status string, event EventFunc) (model.Appointment, error) {
	var appt model.Appointment
	err := r.pool.WithTx(ctx, func(tx pgx.Tx) error {
		current, err := r.getForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.Status == status {
			appt = current
			return nil
		}
		appt, err = scanAppointment(tx.QueryRow(ctx, `
			UPDATE appointments
			SET status = $2, updated_at = now()
			WHERE id = $1
			RETURNING `+appointmentColumns, id, status))
		if err != nil {
			return err
		}
		return insertEvent(ctx, tx, appt, event)
	})
	return appt, mapErr(err)
}

func (r *AppointmentRepository) getForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Appointment, error) {
	return scanAppointment(tx.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1 FOR UPDATE`, id))
}

func (r *AppointmentRepository) list(ctx context.Context, query string, args ...any) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

func insertEvent(ctx context.Context, tx pgx.Tx, appt model.Appointment, event EventFunc) error {
	if event == nil {
		return nil
	}
	evt, err := event(appt)
	if err != nil {
		return err
	}
	return outbox.Insert(ctx, tx, evt)
}
