package services

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"time"

	"github.com/google/uuid"

	"course-marketplace-service/internal/models"
)

// CertificateRenderer turns an issued certificate into a downloadable
// artifact and returns its URL.
type CertificateRenderer interface {
	Render(certificate *models.Certificate) (string, error)
}

const certificateTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Certificate of Completion</title></head>
<body style="font-family: Georgia, serif; text-align: center; padding: 60px;">
  <h1>Certificate of Completion</h1>
  <p>This certifies that</p>
  <h2>{{.StudentName}}</h2>
  <p>has successfully completed the course</p>
  <h2>{{.CourseTitle}}</h2>
  <p>with a score of <strong>{{.Score}}%</strong></p>
  <p>Issued on {{.IssuedAt.Format "January 2, 2006"}}</p>
  <p style="margin-top: 40px; color: #888;">Serial: {{.Serial}}</p>
</body>
</html>`

// HTMLRenderer renders the certificate as a self-contained data URL. A file
// store or PDF engine can replace it behind the same interface.
type HTMLRenderer struct {
	tmpl *template.Template
}

func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{
		tmpl: template.Must(template.New("certificate").Parse(certificateTemplate)),
	}
}

func (r *HTMLRenderer) Render(certificate *models.Certificate) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, certificate); err != nil {
		return "", fmt.Errorf("failed to render certificate: %w", err)
	}
	return "data:text/html;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// NewSerial builds a certificate serial unique enough for the serial index.
func NewSerial(issuedAt time.Time) string {
	return fmt.Sprintf("CERT-%s-%s", issuedAt.Format("20060102"), uuid.NewString()[:8])
}
