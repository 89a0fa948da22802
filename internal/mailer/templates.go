package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// ConfirmationSubject is the subject of the verification email.
const ConfirmationSubject = "Confirm your email"

// ConfirmationData fills the verification email template.
type ConfirmationData struct {
	Host     string
	Username string
	Token    string
}

// Link is the confirmation URL: host followed by the confirm route.
func (d ConfirmationData) Link() string {
	host := d.Host
	if !strings.HasSuffix(host, "/") {
		host += "/"
	}
	return host + "api/auth/confirmed_email/" + d.Token
}

// RenderConfirmation renders the verification email body.
func RenderConfirmation(d ConfirmationData) (string, error) {
	var b bytes.Buffer
	if err := templates.ExecuteTemplate(&b, "confirm_email.html", d); err != nil {
		return "", fmt.Errorf("render confirmation email: %w", err)
	}
	return b.String(), nil
}
