package email

import (
	"bytes"
	"fmt"
	"html/template"
)

// TemplateData feeds the built-in templates.
type TemplateData struct {
	RecipientName string
	CoachName     string
	AppName       string
	ActionURL     string
	// TempPassword is set only on invitation mail for accounts created with a
	// generated password.
	TempPassword string
	WeekStart    string
}

const invitationTemplate = `<html><body>
<h2>{{.CoachName}} invited you to {{.AppName}}</h2>
<p>Hi {{.RecipientName}},</p>
<p>{{.CoachName}} set up a training account for you. Use the link below to sign in.</p>
{{if .TempPassword}}<p>Your temporary password is <strong>{{.TempPassword}}</strong>. You will be asked to change it on first login.</p>{{end}}
<p><a href="{{.ActionURL}}">Open {{.AppName}}</a></p>
</body></html>`

const welcomeTemplate = `<html><body>
<h2>Welcome to {{.AppName}}</h2>
<p>Hi {{.RecipientName}},</p>
<p>Your account is ready. Your dashboard is waiting for you.</p>
<p><a href="{{.ActionURL}}">Go to your dashboard</a></p>
</body></html>`

const feedbackReminderTemplate = `<html><body>
<h2>Weekly check-in</h2>
<p>Hi {{.RecipientName}},</p>
<p>{{.CoachName}} sent you a check-in for the week of {{.WeekStart}}. It only takes a few minutes.</p>
<p><a href="{{.ActionURL}}">Fill it in</a></p>
</body></html>`

var templates = map[string]*template.Template{
	"invitation":        template.Must(template.New("invitation").Parse(invitationTemplate)),
	"welcome":           template.Must(template.New("welcome").Parse(welcomeTemplate)),
	"feedback_reminder": template.Must(template.New("feedback_reminder").Parse(feedbackReminderTemplate)),
}

// Render fills the named built-in template.
func Render(name string, data TemplateData) (string, error) {
	tmpl, ok := templates[name]
	if !ok {
		return "", fmt.Errorf("email: unknown template %q", name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("email: render %q: %w", name, err)
	}
	return buf.String(), nil
}

// TemplateNames lists the built-in templates.
func TemplateNames() []string {
	return []string{"invitation", "welcome", "feedback_reminder"}
}
