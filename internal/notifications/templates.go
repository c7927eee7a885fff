package notifications

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

// mailData is the view model passed to every template
type mailData struct {
	RecipientName string
	EventName     string
	EventDate     string
	Persons       int
	ReservationID string
	Remaining     int
	QRCode        htmltemplate.URL
}

const htmlLayout = `{{define "layout"}}<!DOCTYPE html>
<html><body style="font-family: Georgia, serif; color: #222;">
{{template "body" .}}
<p>Kind regards,<br>The Showbook team</p>
</body></html>{{end}}`

var htmlBodies = map[Kind]string{
	KindReservationSubmitted: `{{define "body"}}<h2>Reservation received</h2>
<p>Dear {{.RecipientName}},</p>
<p>We received your request for <strong>{{.Persons}}</strong> guests at <strong>{{.EventName}}</strong> on {{.EventDate}}. You will hear from us once it is confirmed.</p>{{end}}`,

	KindReservationConfirmed: `{{define "body"}}<h2>Your table is confirmed</h2>
<p>Dear {{.RecipientName}},</p>
<p>Your reservation for <strong>{{.Persons}}</strong> guests at <strong>{{.EventName}}</strong> on {{.EventDate}} is confirmed.</p>
<p>Reference: <code>{{.ReservationID}}</code></p>
{{if .QRCode}}<p><img src="{{.QRCode}}" alt="reservation code" width="200" height="200"></p>{{end}}{{end}}`,

	KindReservationCancelled: `{{define "body"}}<h2>Reservation cancelled</h2>
<p>Dear {{.RecipientName}},</p>
<p>Your reservation for {{.EventName}} on {{.EventDate}} has been cancelled.</p>{{end}}`,

	KindReservationRejected: `{{define "body"}}<h2>We are sorry</h2>
<p>Dear {{.RecipientName}},</p>
<p>Unfortunately we could not accept your reservation for {{.EventName}} on {{.EventDate}}.</p>{{end}}`,

	KindReservationWaitlisted: `{{define "body"}}<h2>You are on the waitlist</h2>
<p>Dear {{.RecipientName}},</p>
<p>{{.EventName}} on {{.EventDate}} is fully booked. Your request for {{.Persons}} guests is on the waitlist and we will contact you when seats open up.</p>{{end}}`,

	KindWaitlistDeactivated: `{{define "body"}}<h2>Waitlist closed</h2>
<p>{{.EventName}} on {{.EventDate}} has {{.Remaining}} seats available again. The waitlist has been switched off; waitlisted guests can now be confirmed.</p>{{end}}`,
}

var textBodies = map[Kind]string{
	KindReservationSubmitted:  "Dear {{.RecipientName}},\n\nWe received your request for {{.Persons}} guests at {{.EventName}} on {{.EventDate}}.\n",
	KindReservationConfirmed:  "Dear {{.RecipientName}},\n\nYour reservation for {{.Persons}} guests at {{.EventName}} on {{.EventDate}} is confirmed.\nReference: {{.ReservationID}}\n",
	KindReservationCancelled:  "Dear {{.RecipientName}},\n\nYour reservation for {{.EventName}} on {{.EventDate}} has been cancelled.\n",
	KindReservationRejected:   "Dear {{.RecipientName}},\n\nUnfortunately we could not accept your reservation for {{.EventName}} on {{.EventDate}}.\n",
	KindReservationWaitlisted: "Dear {{.RecipientName}},\n\n{{.EventName}} on {{.EventDate}} is fully booked. You are on the waitlist.\n",
	KindWaitlistDeactivated:   "{{.EventName}} on {{.EventDate}} has {{.Remaining}} seats available again. The waitlist is off.\n",
}

// templates holds one parsed html and text template per kind
type templates struct {
	html map[Kind]*htmltemplate.Template
	text map[Kind]*texttemplate.Template
}

func loadTemplates() (*templates, error) {
	t := &templates{
		html: make(map[Kind]*htmltemplate.Template, len(htmlBodies)),
		text: make(map[Kind]*texttemplate.Template, len(textBodies)),
	}

	for kind, body := range htmlBodies {
		tmpl, err := htmltemplate.New(string(kind)).Parse(htmlLayout)
		if err == nil {
			tmpl, err = tmpl.Parse(body)
		}
		if err != nil {
			return nil, fmt.Errorf("parse html template %s: %w", kind, err)
		}
		t.html[kind] = tmpl
	}

	for kind, body := range textBodies {
		tmpl, err := texttemplate.New(string(kind)).Parse(body)
		if err != nil {
			return nil, fmt.Errorf("parse text template %s: %w", kind, err)
		}
		t.text[kind] = tmpl
	}
	return t, nil
}

func (t *templates) render(kind Kind, data mailData) (string, string, error) {
	htmlTmpl, ok := t.html[kind]
	if !ok {
		return "", "", fmt.Errorf("no template for %s", kind)
	}

	var htmlBuf, textBuf bytes.Buffer
	if err := htmlTmpl.ExecuteTemplate(&htmlBuf, "layout", data); err != nil {
		return "", "", fmt.Errorf("failed to execute HTML template: %w", err)
	}
	if textTmpl, ok := t.text[kind]; ok {
		if err := textTmpl.Execute(&textBuf, data); err != nil {
			return "", "", fmt.Errorf("failed to execute text template: %w", err)
		}
	} else {
		textBuf.WriteString("Please view this email in HTML format.")
	}
	return htmlBuf.String(), textBuf.String(), nil
}
