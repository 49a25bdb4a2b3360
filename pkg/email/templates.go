package email

import (
	"bytes"
	"fmt"
	"html/template"
)

const layout = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
</head>
<body>
<div style="font-family: Helvetica, Arial, sans-serif; min-width: 1000px; overflow: auto; line-height: 2">
  <div style="margin: 50px auto; width: 70%; padding: 20px 0">
    <div style="border-bottom: 1px solid #eee">
      <a href="" style="font-size: 1.4em; color: #00466a; text-decoration: none; font-weight: 600">{{.Brand}}</a>
    </div>
    <p style="font-size: 1.1em">Hi,</p>
    <p>{{.Body}}</p>
    {{- if .Code}}
    <h2 style="background: #00466a; margin: 0 auto; width: max-content; padding: 0 10px; color: #fff; border-radius: 4px;">{{.Code}}</h2>
    {{- end}}
    <p style="font-size: 0.9em;">Regards,<br />{{.Brand}} Team</p>
    <hr style="border: none; border-top: 1px solid #eee" />
  </div>
</div>
</body>
</html>`

var layoutTemplate = template.Must(template.New("layout").Parse(layout))

type templateData struct {
	Title string
	Brand string
	Body  string
	Code  string
}

// RideAlert wraps a driver alert message in the branded HTML layout.
func RideAlert(brand, body string) (string, error) {
	return render(templateData{Title: "New Ride Alert", Brand: brand, Body: body})
}

func PasswordRecovery(brand, code string, validMinutes int) (string, error) {
	body := fmt.Sprintf("Thank you for choosing %s. Use the following OTP to complete your password recovery. The OTP is valid for %d minutes.", brand, validMinutes)
	return render(templateData{Title: "Password Recovery", Brand: brand, Body: body, Code: code})
}

func render(data templateData) (string, error) {
	var buf bytes.Buffer
	if err := layoutTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render email: %w", err)
	}
	return buf.String(), nil
}
