package gmail

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"gopkg.in/gomail.v2"
)

// BuildRaw composes a plain-text RFC 2822 message and returns it
// base64url-encoded, as the Gmail send endpoint expects.
func BuildRaw(from string, to []string, subject, body string) (string, error) {
	m := gomail.NewMessage()
	if from != "" {
		m.SetHeader("From", from)
	}
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return "", fmt.Errorf("compose message: %w", err)
	}
	return base64.URLEncoding.EncodeToString(buf.Bytes()), nil
}
