package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/alexarts74/payetavie/internal/mail"
	"github.com/alexarts74/payetavie/internal/model"
)

const (
	DefaultAppURL = "https://payetavie.fr"
	DefaultFrom   = "PayeTaVie <onboarding@resend.dev>"
)

var frenchWeekdays = [...]string{"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi"}

var frenchMonths = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

// Urgency returns the headline and accent color for a reminder due in daysUntil days.
func Urgency(daysUntil int) (text, color string) {
	switch daysUntil {
	case 0:
		return "C'est aujourd'hui !", "#dc2626"
	case 1:
		return "C'est demain !", "#ea580c"
	default:
		return fmt.Sprintf("Il vous reste %d jours.", daysUntil), "#3b82f6"
	}
}

// FormatFrenchDate renders d as "lundi 1 septembre 2025".
func FormatFrenchDate(d model.Date) string {
	weekday := d.Time().Weekday()
	return fmt.Sprintf("%s %d %s %d", frenchWeekdays[weekday], d.Day, frenchMonths[d.Month-time.January], d.Year)
}

var emailTemplate = template.Must(template.New("reminder").Parse(`<!DOCTYPE html>
<html lang="fr">
<head><meta charset="utf-8"><title>{{.Subject}}</title></head>
<body style="margin:0;padding:24px;background:#f8fafc;font-family:Arial,Helvetica,sans-serif;color:#0f172a;">
  <div style="max-width:560px;margin:0 auto;background:#ffffff;border-radius:12px;padding:32px;">
    <p style="margin:0 0 8px;font-size:14px;color:#64748b;">PayeTaVie</p>
    <h1 style="margin:0 0 16px;font-size:22px;">{{.Title}}</h1>
    <p style="margin:0 0 16px;font-size:18px;font-weight:bold;color:{{.Color}};">{{.Urgency}}</p>
    <p style="margin:0 0 24px;font-size:15px;">Échéance : <strong>{{.DueDate}}</strong></p>
    <a href="{{.TopicsURL}}" style="display:inline-block;padding:12px 20px;background:#0f172a;color:#ffffff;border-radius:8px;text-decoration:none;">Voir mes rappels</a>
    <p style="margin:32px 0 0;font-size:12px;color:#94a3b8;">Vous recevez cet email car vous avez activé un rappel sur PayeTaVie.</p>
  </div>
</body>
</html>
`))

type emailData struct {
	Subject   string
	Title     string
	Urgency   string
	Color     template.CSS
	DueDate   string
	TopicsURL string
}

// Renderer builds reminder emails.
type Renderer struct {
	appURL string
	from   string
}

func NewRenderer(appURL, from string) *Renderer {
	if appURL == "" {
		appURL = DefaultAppURL
	}
	if from == "" {
		from = DefaultFrom
	}
	return &Renderer{appURL: strings.TrimSuffix(appURL, "/"), from: from}
}

func (r *Renderer) Subject(title string) string {
	return "🔔 Rappel : " + title
}

func (r *Renderer) Render(item model.DueReminder) (mail.Message, error) {
	text, color := Urgency(item.DaysUntil)
	data := emailData{
		Subject:   r.Subject(item.Title),
		Title:     item.Title,
		Urgency:   text,
		Color:     template.CSS(color),
		DueDate:   FormatFrenchDate(item.DueDate),
		TopicsURL: r.appURL + "/topics",
	}

	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, data); err != nil {
		return mail.Message{}, fmt.Errorf("failed to render reminder email: %w", err)
	}

	return mail.Message{
		From:    r.from,
		To:      item.UserEmail,
		Subject: data.Subject,
		HTML:    buf.String(),
	}, nil
}
