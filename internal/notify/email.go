package notify

import (
	"bytes"
	"fmt"
	"html/template"
)

var emailTemplate = template.Must(template.New("slot_opened").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #28a745;">Last-minute opening available!</h1>
  <p><strong>{{.CoachName}}</strong> just opened a new time slot:</p>
  <div style="background: #f5f5f5; padding: 20px; border-radius: 10px; margin: 20px 0;">
    <p style="margin: 5px 0;"><strong>Date:</strong> {{.Summary.Date}}</p>
    <p style="margin: 5px 0;"><strong>Time:</strong> {{.Summary.Time}}</p>
  </div>
  <p><strong>Book now before someone else does!</strong></p>
  <a href="{{.Summary.BookingURL}}"
     style="display: inline-block; background: #28a745; color: white; padding: 15px 30px; text-decoration: none; border-radius: 5px; font-weight: bold;">
    Book this slot
  </a>
  <p style="color: #666; font-size: 14px; margin-top: 30px;">This is an automated notification. Only approved clients receive it.</p>
</div>`))

// Email is a rendered notification ready for delivery.
type Email struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// RenderEmail renders the slot-opened email for one recipient.
func RenderEmail(msg Message, to string) (Email, error) {
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, msg); err != nil {
		return Email{}, fmt.Errorf("render email: %w", err)
	}

	return Email{
		To:      to,
		Subject: fmt.Sprintf("New last-minute opening from %s!", msg.CoachName),
		HTML:    buf.String(),
	}, nil
}
