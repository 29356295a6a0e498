package gmail

import (
	"context"
	"encoding/base64"
	"mime"
	"net/mail"
	"strings"

	gmail "google.golang.org/api/gmail/v1"

	apperrors "github.com/teemow/tagdeck/internal/errors"
	"github.com/teemow/tagdeck/internal/instrumentation"
)

// Validate checks that msg has at least one recipient and that every address parses.
func (msg *EmailMessage) Validate() error {
	if len(msg.To)+len(msg.Cc)+len(msg.Bcc) == 0 {
		return apperrors.Validation("at least one recipient is required")
	}
	var invalid []string
	for _, list := range [][]string{msg.To, msg.Cc, msg.Bcc} {
		for _, addr := range list {
			if _, err := mail.ParseAddress(addr); err != nil {
				invalid = append(invalid, addr)
			}
		}
	}
	if len(invalid) > 0 {
		return apperrors.ValidationWithDetails("invalid recipient address", map[string]any{"invalid": invalid})
	}
	return nil
}

// SendEmail sends an email through Gmail API and returns the new message id.
func (c *Client) SendEmail(ctx context.Context, msg *EmailMessage) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", err
	}

	gmailMsg := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString([]byte(buildRFC2822(msg))),
	}

	var sent *gmail.Message
	err := c.call(ctx, instrumentation.OperationSend, func(ctx context.Context) error {
		var err error
		sent, err = c.svc.Messages.Send(me, gmailMsg).Context(ctx).Do()
		return err
	})
	if err != nil {
		return "", err
	}
	return sent.Id, nil
}

// buildRFC2822 renders msg as an RFC 2822 message.
func buildRFC2822(msg *EmailMessage) string {
	var b strings.Builder

	writeAddressHeader(&b, "To", msg.To)
	writeAddressHeader(&b, "Cc", msg.Cc)
	writeAddressHeader(&b, "Bcc", msg.Bcc)

	// Subject is encoded for non-ASCII characters like umlauts
	b.WriteString("Subject: ")
	b.WriteString(encodeRFC2047(msg.Subject))
	b.WriteString("\r\n")

	if msg.IsHTML {
		b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	} else {
		b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	}
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)

	return b.String()
}

func writeAddressHeader(b *strings.Builder, name string, addrs []string) {
	if len(addrs) == 0 {
		return
	}
	b.WriteString(name)
	b.WriteString(": ")
	b.WriteString(strings.Join(addrs, ", "))
	b.WriteString("\r\n")
}

// encodeRFC2047 encodes a string for use in email headers according to RFC 2047
func encodeRFC2047(s string) string {
	for _, r := range s {
		if r > 127 {
			return mime.BEncoding.Encode("UTF-8", s)
		}
	}
	return s
}
