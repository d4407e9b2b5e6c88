package notify

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strconv"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/sakif/solarcycle/internal/alert"
)

//go:embed templates/*
var templateFS embed.FS

const (
	colorExpired = "#dc3545"
	colorWarning = "#ffc107"
)

// Message is a rendered email ready to hand to a transport.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Renderer turns alert payloads into email messages.
type Renderer struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

// NewRenderer parses the embedded templates. Links in the messages point at
// baseURL.
func NewRenderer(baseURL string) (*Renderer, error) {
	baseURL = strings.TrimRight(baseURL, "/")

	shared := map[string]any{
		"baseURL": func() string { return baseURL },
		"date":    func(t time.Time) string { return t.Format("2006-01-02") },
		"kw":      formatNumber,
		"kg":      formatNumber,
		"plural": func(n int) string {
			if n == 1 {
				return ""
			}
			return "s"
		},
	}

	htmlFuncs := htmltemplate.FuncMap{
		"statusColor": func(expired bool) htmltemplate.CSS {
			if expired {
				return colorExpired
			}
			return colorWarning
		},
	}
	textFuncs := texttemplate.FuncMap{}
	for k, v := range shared {
		htmlFuncs[k] = v
		textFuncs[k] = v
	}

	h, err := htmltemplate.New("mail").Funcs(htmlFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("notify: parsing html templates: %w", err)
	}
	t, err := texttemplate.New("mail").Funcs(textFuncs).ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("notify: parsing text templates: %w", err)
	}
	return &Renderer{html: h, text: t}, nil
}

func (r *Renderer) ExpiryAlert(a alert.Single) (Message, error) {
	subject := "Solar Panel Expiry Alert"
	if a.Expired() {
		subject = "Solar Panel EXPIRED"
	}
	return r.render(a.Recipient, subject, "expiry_alert", a)
}

func (r *Renderer) BatchExpiryAlert(b alert.Batch) (Message, error) {
	subject := fmt.Sprintf("%d Solar Panel Needs Attention", b.PanelCount())
	if b.PanelCount() != 1 {
		subject = fmt.Sprintf("%d Solar Panels Need Attention", b.PanelCount())
	}
	return r.render(b.Recipient, subject, "batch_alert", b)
}

func (r *Renderer) Welcome(w Welcome) (Message, error) {
	return r.render(w.Recipient, "Welcome to SolarCycle", "welcome", w)
}

func (r *Renderer) render(to, subject, name string, data any) (Message, error) {
	var html, text bytes.Buffer
	if err := r.html.ExecuteTemplate(&html, name+".html", data); err != nil {
		return Message{}, fmt.Errorf("notify: rendering %s.html: %w", name, err)
	}
	if err := r.text.ExecuteTemplate(&text, name+".txt", data); err != nil {
		return Message{}, fmt.Errorf("notify: rendering %s.txt: %w", name, err)
	}
	return Message{To: to, Subject: subject, HTML: html.String(), Text: text.String()}, nil
}

// formatNumber prints 5.5 as "5.5" and 412.5 as "412.5" but 75 as "75".
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
