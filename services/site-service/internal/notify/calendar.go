package notify

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/lbsconnect/examcenter/services/site-service/internal/model"
)

const calendarProductID = "-//LBS Test & Exam Center//Appointments//EN"

// Invite describes the business side of a calendar invitation.
type Invite struct {
	OrganizerName  string
	OrganizerEmail string
	Location       string
	Stamp          time.Time
}

// BuildInvite renders a METHOD:REQUEST calendar with one confirmed event
// covering the appointment slot.
func BuildInvite(appt model.Appointment, inv Invite) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodRequest)
	cal.SetProductId(calendarProductID)

	evt := cal.AddEvent(appt.ID + "@lbs4.com")
	evt.SetDtStampTime(inv.Stamp.UTC())
	evt.SetStartAt(appt.AppointmentDate.UTC())
	evt.SetEndAt(appt.EndsAt().UTC())
	evt.SetSummary(fmt.Sprintf("%s - %s", appt.ServiceName, appt.CustomerName))
	evt.SetDescription(inviteDescription(appt))
	if inv.Location != "" {
		evt.SetLocation(inv.Location)
	}
	if inv.OrganizerEmail != "" {
		evt.SetOrganizer("mailto:"+inv.OrganizerEmail, ics.WithCN(inv.OrganizerName))
	}
	evt.AddAttendee("mailto:"+appt.CustomerEmail,
		ics.CalendarUserTypeIndividual,
		ics.ParticipationStatusNeedsAction,
		ics.ParticipationRoleReqParticipant,
		ics.WithCN(appt.CustomerName),
		ics.WithRSVP(true),
	)
	evt.SetStatus(ics.ObjectStatusConfirmed)
	return cal.Serialize()
}

func inviteDescription(appt model.Appointment) string {
	lines := []string{
		"Service: " + appt.ServiceName,
		"Customer: " + appt.CustomerName,
		"Email: " + appt.CustomerEmail,
	}
	if appt.CustomerPhone != "" {
		lines = append(lines, "Phone: "+appt.CustomerPhone)
	}
	if appt.Notes != "" {
		lines = append(lines, "Notes: "+appt.Notes)
	}
	lines = append(lines, "Payment: "+appt.PaymentStatus)
	return strings.Join(lines, "\n")
}
