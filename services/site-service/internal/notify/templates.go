package notify

import (
	"bytes"
	"html/template"
)

const layoutHead = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background-color: #1e3a6e; color: white; padding: 20px; text-align: center;">
    <h1 style="margin: 0; font-size: 22px;">{{.Title}}</h1>
  </div>
  <div style="padding: 24px; background-color: #f9fafb; border: 1px solid #e5e7eb;">`

const layoutFoot = `  </div>
  <div style="padding: 12px; text-align: center; color: #6b7280; font-size: 12px;">{{.Footer}}</div>
</div>`

const rowTmpl = `{{define "row"}}<tr><td style="padding: 8px 12px; font-weight: bold; color: #1e3a6e; width: 140px;">{{.Label}}:</td><td style="padding: 8px 12px;">{{.Value}}</td></tr>{{end}}`

var templates = template.Must(template.New("emails").Funcs(template.FuncMap{
	"row": func(label, value string) rowData { return rowData{Label: label, Value: value} },
}).Parse(rowTmpl + `
{{define "contact"}}` + layoutHead + `
    <table style="width: 100%; border-collapse: collapse;">
      {{template "row" (row "Name" .Data.Name)}}
      <tr><td style="padding: 8px 12px; font-weight: bold; color: #1e3a6e;">Email:</td><td style="padding: 8px 12px;"><a href="mailto:{{.Data.Email}}">{{.Data.Email}}</a></td></tr>
      {{if .Data.Phone}}{{template "row" (row "Phone" .Data.Phone)}}{{end}}
      {{if .Data.Service}}{{template "row" (row "Service" .Data.Service)}}{{end}}
    </table>
    <div style="margin-top: 16px; padding: 16px; background-color: white; border: 1px solid #e5e7eb; border-radius: 6px;">
      <p style="font-weight: bold; color: #1e3a6e; margin: 0 0 8px 0;">Message:</p>
      <p style="margin: 0; white-space: pre-wrap;">{{.Data.Message}}</p>
    </div>
` + layoutFoot + `{{end}}
{{define "payment"}}` + layoutHead + `
    <div style="background-color: #ecfdf5; border: 1px solid #a7f3d0; border-radius: 6px; padding: 16px; text-align: center; margin-bottom: 20px;">
      <p style="margin: 0; color: #065f46; font-size: 18px; font-weight: bold;">{{.Data.Amount}} {{.Data.Currency}}</p>
      <p style="margin: 4px 0 0 0; color: #047857;">Payment Successful</p>
    </div>
    <table style="width: 100%; border-collapse: collapse;">
      {{if .Data.ProductName}}{{template "row" (row "Service" .Data.ProductName)}}{{end}}
      {{if .Data.CustomerName}}{{template "row" (row "Customer Name" .Data.CustomerName)}}{{end}}
      {{if .Data.CustomerEmail}}{{template "row" (row "Customer Email" .Data.CustomerEmail)}}{{end}}
      {{if .Data.AppointmentID}}{{template "row" (row "Appointment" .Data.AppointmentID)}}{{end}}
      {{template "row" (row "Session ID" .Data.SessionID)}}
    </table>
` + layoutFoot + `{{end}}
{{define "confirmation"}}` + layoutHead + `
    <p>Hi {{.Data.CustomerName}},</p>
    <p>Thank you for booking with us. Your appointment request has been received.</p>
    <table style="width: 100%; border-collapse: collapse;">
      {{template "row" (row "Service" .Data.ServiceName)}}
      {{template "row" (row "Date" .Data.When)}}
      {{template "row" (row "Status" .Data.Status)}}
      {{template "row" (row "Payment" .Data.PaymentStatus)}}
    </table>
    <p>If you need to reschedule, reply to this email or call us.</p>
` + layoutFoot + `{{end}}
{{define "internal"}}` + layoutHead + `
    <table style="width: 100%; border-collapse: collapse;">
      {{template "row" (row "Service" .Data.ServiceName)}}
      {{template "row" (row "Date" .Data.When)}}
      {{template "row" (row "Customer" .Data.CustomerName)}}
      {{template "row" (row "Email" .Data.CustomerEmail)}}
      {{if .Data.CustomerPhone}}{{template "row" (row "Phone" .Data.CustomerPhone)}}{{end}}
      {{if .Data.Price}}{{template "row" (row "Price" .Data.Price)}}{{end}}
      {{template "row" (row "Payment" .Data.PaymentStatus)}}
      {{if .Data.Notes}}{{template "row" (row "Notes" .Data.Notes)}}{{end}}
    </table>
    <p>A calendar invite is attached.</p>
` + layoutFoot + `{{end}}
{{define "reminder"}}` + layoutHead + `
    <p>Hi {{.Data.CustomerName}},</p>
    <p>This is a reminder of your appointment tomorrow.</p>
    <table style="width: 100%; border-collapse: collapse;">
      {{template "row" (row "Service" .Data.ServiceName)}}
      {{template "row" (row "Date" .Data.When)}}
    </table>
` + layoutFoot + `{{end}}`))

type rowData struct {
	Label string
	Value string
}

type page struct {
	Title  string
	Footer string
	Data   any
}

func render(name string, p page) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, p); err != nil {
		return "", err
	}
	return buf.String(), nil
}
