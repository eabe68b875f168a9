package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	htmpl "html/template"
	"strings"
	"sync"
	texttpl "text/template"
	"time"
)

//go:embed *.tmpl
var FS embed.FS

const (
	RegistrationOTP = "registration_otp"
	Welcome         = "welcome"
)

var ErrUnknownTemplate = errors.New("unknown email template")

// EmailData is the field set every template can rely on. It travels as a
// JSON map on the email queue, so times arrive as strings and numbers as
// float64 once a worker decodes it.
type EmailData struct {
	Name           string `json:"Name"`
	Email          string `json:"Email"`
	RecipientEmail string `json:"RecipientEmail"`
	Type           string `json:"Type"`

	CompanyName    string `json:"CompanyName"`
	CompanyAddress string `json:"CompanyAddress"`
	AppName        string `json:"AppName"`

	LogoURL    string `json:"LogoURL"`
	SupportURL string `json:"SupportURL"`
	PrivacyURL string `json:"PrivacyURL"`
	PortalURL  string `json:"PortalURL"`

	ExpiresAt        time.Time `json:"ExpiresAt"`
	ExpiresAtText    string    `json:"ExpiresAtText"`
	ExpiresInMinutes int       `json:"ExpiresInMinutes"`
	Time             string    `json:"Time"`
	TimeAt           time.Time `json:"TimeAt"`
	Code             string    `json:"Code"`
	ResidentID       string    `json:"ResidentID"`
}

// Map flattens d into the shape a queued job carries.
func (d EmailData) Map() map[string]any {
	b, _ := json.Marshal(d)
	m := make(map[string]any)
	_ = json.Unmarshal(b, &m)
	return m
}

// defaultFn is used as {{ .Value | default "fallback" }}.
func defaultFn(fallback, value any) any {
	switch x := value.(type) {
	case nil:
		return fallback
	case string:
		if strings.TrimSpace(x) == "" {
			return fallback
		}
	case int:
		if x == 0 {
			return fallback
		}
	case float64:
		if x == 0 {
			return fallback
		}
	case time.Time:
		if x.IsZero() {
			return fallback
		}
	}
	return value
}

func funcs() map[string]any {
	return map[string]any{
		"now":     func() time.Time { return time.Now().UTC() },
		"upper":   strings.ToUpper,
		"default": defaultFn,
	}
}

type set struct {
	text *texttpl.Template
	html *htmpl.Template
}

var (
	loadOnce sync.Once
	loaded   set
	loadErr  error
)

// load parses every embedded template once. Subjects and plain text bodies
// share one text/template set; HTML bodies get their own html/template set.
func load() (set, error) {
	loadOnce.Do(func() {
		text, err := texttpl.New("mail").Funcs(texttpl.FuncMap(funcs())).ParseFS(FS, "*.subject.tmpl", "*.text.tmpl")
		if err != nil {
			loadErr = fmt.Errorf("parse text templates: %w", err)
			return
		}
		html, err := htmpl.New("mail").Funcs(htmpl.FuncMap(funcs())).ParseFS(FS, "*.html.tmpl")
		if err != nil {
			loadErr = fmt.Errorf("parse html templates: %w", err)
			return
		}
		loaded = set{text: text, html: html}
	})
	return loaded, loadErr
}


func execText(t *texttpl.Template, name string, data any) (string, error) {
	tpl := t.Lookup(name)
	if tpl == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("exec %q: %w", name, err)
	}
	return buf.String(), nil
}

func execHTML(t *htmpl.Template, name string, data any) (string, error) {
	tpl := t.Lookup(name)
	if tpl == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("exec %q: %w", name, err)
	}
	return buf.String(), nil
}

// Render produces the subject, plain text and HTML parts of the named email
// from <name>.subject.tmpl, <name>.text.tmpl and <name>.html.tmpl.
func Render(name string, data any) (subject, text, html string, err error) {
	s, err := load()
	if err != nil {
		return "", "", "", err
	}
	if subject, err = execText(s.text, name+".subject.tmpl", data); err != nil {
		return "", "", "", err
	}
	if text, err = execText(s.text, name+".text.tmpl", data); err != nil {
		return "", "", "", err
	}
	if html, err = execHTML(s.html, name+".html.tmpl", data); err != nil {
		return "", "", "", err
	}
	return strings.TrimSpace(subject), text, html, nil
}
