package mailer

import (
	"fmt"

	mailtpl "github.com/oksasatya/resident-registration/pkg/mailer/templates"
)

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Html is optional; Text is recommended as fallback.
// You can also use a template by specifying Template and Data.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // "registration_otp" or "welcome"
	Data     map[string]any `json:"data,omitempty"`
}

// EnsureRecipient fills Email and RecipientEmail in Data from To when missing.
func (j *EmailJob) EnsureRecipient() {
	if j.Data == nil {
		j.Data = map[string]any{}
	}
	if v, ok := j.Data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
		j.Data["Email"] = j.To
	}
	if v, ok := j.Data["RecipientEmail"]; !ok || fmt.Sprintf("%v", v) == "" {
		j.Data["RecipientEmail"] = j.To
	}
}

// Render resolves the final subject and bodies. Template jobs are rendered
// from the embedded templates; plain jobs are returned as given.
func (j *EmailJob) Render() (subject, text, html string, err error) {
	if j.Template == "" {
		return j.Subject, j.Text, j.HTML, nil
	}
	j.EnsureRecipient()
	return mailtpl.Render(j.Template, j.Data)
}
