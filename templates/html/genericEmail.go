package templates

import (
	"fmt"
	"html"
	"strings"
)

// RenderGenericEmail returns the branded HTML for a transactional email. The
// subject is shown in the header banner; body is plain text that is escaped
// and has its newlines turned into <br> tags.
func RenderGenericEmail(subject, body string) string {
	safeSubject := html.EscapeString(subject)
	htmlBody := strings.ReplaceAll(html.EscapeString(body), "\n", "<br>")

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>%s</title>
  <style type="text/css">
    body { font-family: Helvetica, Arial, sans-serif; margin: 0; padding: 0; background-color: #f3f6f9; }
    .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; }
    .header { background-color: #0f766e; padding: 32px 24px; text-align: center; }
    .header h1 { color: #ffffff; margin: 0; font-size: 22px; }
    .content { padding: 32px 24px; color: #1f2937; line-height: 1.6; font-size: 15px; }
    .footer { padding: 24px; text-align: center; color: #6b7280; font-size: 12px; border-top: 1px solid #e5e7eb; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header"><h1>%s</h1></div>
    <div class="content">%s</div>
    <div class="footer"><p>MedTrack medication reminders</p></div>
  </div>
</body>
</html>`, safeSubject, safeSubject, htmlBody)
}

// PharmacyVerification returns the subject and plain text body sent when an
// admin changes a pharmacy's verification
func PharmacyVerification(pharmacyName string, verified bool) (string, string) {
	if pharmacyName == "" {
		pharmacyName = "your pharmacy"
	}
	if verified {
		return "Your pharmacy has been verified",
			fmt.Sprintf("Good news! %s is now verified on MedTrack.\nPatients can find you and start conversations right away.", pharmacyName)
	}
	return "Your pharmacy verification was withdrawn",
		fmt.Sprintf("The verification of %s on MedTrack has been withdrawn.\nPatients can no longer start conversations with you. Contact support if you think this is a mistake.", pharmacyName)
}
