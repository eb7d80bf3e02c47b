package model

import (
	"errors"
	"time"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

const (
	PaymentUnpaid  = "unpaid"
	PaymentPending = "pending"
	PaymentPaid    = "paid"
)

// SlotDuration is the length of every bookable slot.
const SlotDuration = time.Hour

var (
	ErrNotFound  = errors.New("not found")
	ErrSlotTaken = errors.New("time slot already booked")
)

type Appointment struct {
	ID                string     `json:"id"`
	CustomerName      string     `json:"customerName"`
	CustomerEmail     string     `json:"customerEmail"`
	CustomerPhone     string     `json:"customerPhone,omitempty"`
	ServiceName       string     `json:"serviceName"`
	ServiceID         string     `json:"serviceId,omitempty"`
	PriceID           string     `json:"priceId,omitempty"`
	PriceAmount       *int64     `json:"priceAmount,omitempty"`
	AppointmentDate   time.Time  `json:"appointmentDate"`
	Status            string     `json:"status"`
	PaymentStatus     string     `json:"paymentStatus"`
	CheckoutSessionID string     `json:"stripeSessionId,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	ReminderSentAt    *time.Time `json:"-"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// EndsAt is the end of the one hour slot the appointment holds.
func (a Appointment) EndsAt() time.Time {
	return a.AppointmentDate.Add(SlotDuration)
}

// Live reports whether the appointment still holds its slot.
func (a Appointment) Live() bool {
	return a.Status != StatusCancelled
}

func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}
