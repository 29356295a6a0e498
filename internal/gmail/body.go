package gmail

import (
	"encoding/base64"
	"strings"

	gmail "google.golang.org/api/gmail/v1"
)

// extractBody returns the text/plain body of a message, falling back to text/html.
func extractBody(p *gmail.MessagePart) string {
	if body := findPart(p, "text/plain"); body != "" {
		return body
	}
	return findPart(p, "text/html")
}

func findPart(p *gmail.MessagePart, mimeType string) string {
	if p == nil {
		return ""
	}
	if strings.HasPrefix(p.MimeType, mimeType) && p.Body != nil && p.Body.Data != "" {
		return decodeBody(p.Body.Data)
	}
	for _, part := range p.Parts {
		if body := findPart(part, mimeType); body != "" {
			return body
		}
	}
	return ""
}

// decodeBody decodes base64url part data with or without padding.
func decodeBody(data string) string {
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return ""
	}
	return string(b)
}
