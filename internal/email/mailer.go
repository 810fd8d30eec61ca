// Package email sends transactional mail through SendGrid. Sends run on a
// goroutine and failures are logged, never returned: an undelivered email
// must not block or roll back the enrollment or certificate that triggered
// it.
package email

import (
	"log"
	"net/http"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	host     = "https://api.sendgrid.com"
	endpoint = "/v3/mail/send"
)

type Mailer interface {
	Send(toName, toEmail, subject, htmlContent string)
}

type SendgridMailer struct {
	key  string
	from *sgmail.Email
}

func NewSendgridMailer(key, fromName, fromEmail string) *SendgridMailer {
	return &SendgridMailer{
		key:  key,
		from: sgmail.NewEmail(fromName, fromEmail),
	}
}

// Send dispatches asynchronously. Without a valid SendGrid key the message
// is only logged, which keeps demo environments working offline.
func (m *SendgridMailer) Send(toName, toEmail, subject, htmlContent string) {
	if toEmail == "" {
		return
	}

	if !strings.HasPrefix(m.key, "SG.") {
		log.Printf("Demo email (not sent) - to: %s, subject: %s", toEmail, subject)
		return
	}

	go func() {
		to := sgmail.NewEmail(toName, toEmail)
		plain := sgmail.NewContent("text/plain", stripTags(htmlContent))
		html := sgmail.NewContent("text/html", htmlContent)
		message := sgmail.NewV3MailInit(m.from, subject, to, plain, html)

		req := sendgrid.GetRequest(m.key, endpoint, host)
		req.Method = http.MethodPost
		req.Body = sgmail.GetRequestBody(message)

		res, err := sendgrid.API(req)
		if err != nil {
			log.Printf("Error sending email to %s: %v", toEmail, err)
		} else if res.StatusCode >= http.StatusBadRequest {
			log.Printf("Error sending email to %s - status: %d - body: %s", toEmail, res.StatusCode, res.Body)
		}
	}()
}

func stripTags(html string) string {
	var b strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
