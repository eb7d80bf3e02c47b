package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lbsconnect/examcenter/services/site-service/internal/email"
	"github.com/lbsconnect/examcenter/services/site-service/internal/model"
)

const (
	DefaultInternalEmail = "info@lbsconnect.net"
	DefaultBusinessName  = "LBS Test & Exam Center"
	DefaultAddress       = "616 FM 1960 Road West, Suite 575, Houston, TX 77090"
)

const (
	KindConfirmation = "appointment_confirmation"
	KindInvite       = "appointment_invite"
	KindContact      = "contact"
	KindPayment      = "payment"
	KindReminder     = "reminder"
)

type Config struct {
	InternalEmail string
	BusinessName  string
	Address       string
	Location      *time.Location
}

// Payment is a completed checkout reported by Stripe.
type Payment struct {
	SessionID     string
	AppointmentID string
	CustomerEmail string
	CustomerName  string
	ProductName   string
	Amount        int64
	Currency      string
}

type Notifier struct {
	sender     email.Sender
	dispatcher *Dispatcher
	cfg        Config
	logger     *slog.Logger
	now        func() time.Time
}

func New(sender email.Sender, dispatcher *Dispatcher, cfg Config, logger *slog.Logger) *Notifier {
	if cfg.InternalEmail == "" {
		cfg.InternalEmail = DefaultInternalEmail
	}
	if cfg.BusinessName == "" {
		cfg.BusinessName = DefaultBusinessName
	}
	if cfg.Address == "" {
		cfg.Address = DefaultAddress
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Notifier{
		sender:     sender,
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// AppointmentBooked queues the customer confirmation and the internal calendar invite.
func (n *Notifier) AppointmentBooked(appt model.Appointment) {
	n.enqueue(KindConfirmation, func() (email.Message, error) { return n.confirmationMessage(appt) })
	n.enqueue(KindInvite, func() (email.Message, error) { return n.inviteMessage(appt) })
}

func (n *Notifier) ContactReceived(c model.ContactSubmission) {
	n.enqueue(KindContact, func() (email.Message, error) { return n.contactMessage(c) })
}

func (n *Notifier) PaymentReceived(p Payment) {
	n.enqueue(KindPayment, func() (email.Message, error) { return n.paymentMessage(p) })
}

// SendReminder sends synchronously so the caller can record delivery.
func (n *Notifier) SendReminder(ctx context.Context, appt model.Appointment) error {
	msg, err := n.reminderMessage(appt)
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, msg)
}

func (n *Notifier) enqueue(kind string, build func() (email.Message, error)) {
	n.dispatcher.Enqueue(Job{
		Kind: kind,
		Run: func(ctx context.Context) error {
			msg, err := build()
			if err != nil {
				return fmt.Errorf("build %s email: %w", kind, err)
			}
			return n.sender.Send(ctx, msg)
		},
	})
}

func (n *Notifier) footer() string {
	return n.cfg.BusinessName + " | " + n.cfg.Address
}

func (n *Notifier) when(t time.Time) string {
	return t.In(n.cfg.Location).Format("Monday, January 2, 2006 at 3:04 PM MST")
}

func (n *Notifier) confirmationMessage(appt model.Appointment) (email.Message, error) {
	html, err := render("confirmation", page{
		Title:  "Appointment Confirmation",
		Footer: n.footer(),
		Data: map[string]string{
			"CustomerName":  appt.CustomerName,
			"ServiceName":   appt.ServiceName,
			"When":          n.when(appt.AppointmentDate),
			"Status":        appt.Status,
			"PaymentStatus": appt.PaymentStatus,
		},
	})
	if err != nil {
		return email.Message{}, err
	}
	return email.Message{
		To:      []string{appt.CustomerEmail},
		ReplyTo: n.cfg.InternalEmail,
		Subject: "Your appointment for " + appt.ServiceName + " - " + n.cfg.BusinessName,
		HTML:    html,
	}, nil
}

func (n *Notifier) inviteMessage(appt model.Appointment) (email.Message, error) {
	price := ""
	if appt.PriceAmount != nil {
		price = FormatAmount(*appt.PriceAmount, "usd")
	}
	html, err := render("internal", page{
		Title:  "LBS - New Appointment",
		Footer: n.footer(),
		Data: map[string]string{
			"ServiceName":   appt.ServiceName,
			"When":          n.when(appt.AppointmentDate),
			"CustomerName":  appt.CustomerName,
			"CustomerEmail": appt.CustomerEmail,
			"CustomerPhone": appt.CustomerPhone,
			"Price":         price,
			"PaymentStatus": appt.PaymentStatus,
			"Notes":         appt.Notes,
		},
	})
	if err != nil {
		return email.Message{}, err
	}
	ics := BuildInvite(appt, Invite{
		OrganizerName:  n.cfg.BusinessName,
		OrganizerEmail: n.cfg.InternalEmail,
		Location:       n.cfg.Address,
		Stamp:          n.now(),
	})
	return email.Message{
		To:      []string{n.cfg.InternalEmail},
		ReplyTo: appt.CustomerEmail,
		Subject: "New Appointment: " + appt.ServiceName + " - " + appt.CustomerName,
		HTML:    html,
		Attachments: []email.Attachment{{
			Filename:    "appointment.ics",
			ContentType: "text/calendar; charset=utf-8; method=REQUEST",
			Content:     []byte(ics),
		}},
	}, nil
}

func (n *Notifier) contactMessage(c model.ContactSubmission) (email.Message, error) {
	html, err := render("contact", page{
		Title:  "LBS - New Contact Submission",
		Footer: n.footer(),
		Data:   c,
	})
	if err != nil {
		return email.Message{}, err
	}
	return email.Message{
		To:      []string{n.cfg.InternalEmail},
		ReplyTo: c.Email,
		Subject: "New Contact Form Submission from " + c.Name,
		HTML:    html,
	}, nil
}

func (n *Notifier) paymentMessage(p Payment) (email.Message, error) {
	amount := FormatAmount(p.Amount, p.Currency)
	currency := strings.ToUpper(p.Currency)
	html, err := render("payment", page{
		Title:  "LBS - Payment Received",
		Footer: n.footer(),
		Data: map[string]string{
			"Amount":        amount,
			"Currency":      currency,
			"ProductName":   p.ProductName,
			"CustomerName":  p.CustomerName,
			"CustomerEmail": p.CustomerEmail,
			"AppointmentID": p.AppointmentID,
			"SessionID":     p.SessionID,
		},
	})
	if err != nil {
		return email.Message{}, err
	}
	subject := "New Payment Received - " + amount
	if p.ProductName != "" {
		subject += " for " + p.ProductName
	}
	return email.Message{
		To:      []string{n.cfg.InternalEmail},
		Subject: subject,
		HTML:    html,
	}, nil
}

func (n *Notifier) reminderMessage(appt model.Appointment) (email.Message, error) {
	html, err := render("reminder", page{
		Title:  "Appointment Reminder",
		Footer: n.footer(),
		Data: map[string]string{
			"CustomerName": appt.CustomerName,
			"ServiceName":  appt.ServiceName,
			"When":         n.when(appt.AppointmentDate),
		},
	})
	if err != nil {
		return email.Message{}, err
	}
	return email.Message{
		To:      []string{appt.CustomerEmail},
		ReplyTo: n.cfg.InternalEmail,
		Subject: "Reminder: " + appt.ServiceName + " tomorrow at " + appt.AppointmentDate.In(n.cfg.Location).Format("3:04 PM"),
		HTML:    html,
	}, nil
}
