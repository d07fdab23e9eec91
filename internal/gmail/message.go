package gmail

import (
	"encoding/base64"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	gmail "google.golang.org/api/gmail/v1"
)

// HeaderValue returns the value of the first header named name
// (case-insensitive), or "" if absent.
func HeaderValue(m *gmail.Message, name string) string {
	if m == nil || m.Payload == nil {
		return ""
	}
	for _, h := range m.Payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// PlainTextBody extracts the message body. A body attached directly to the
// top-level payload wins; otherwise the part tree is searched depth-first
// for the first text/plain leaf carrying data. It returns "" when nothing
// matches or the data cannot be decoded.
func PlainTextBody(m *gmail.Message) string {
	if m == nil || m.Payload == nil {
		return ""
	}
	p := m.Payload
	if p.Body != nil && p.Body.Data != "" {
		return decodeBody(p.Body.Data)
	}
	if leaf := firstPlainTextLeaf(p); leaf != nil {
		return decodeBody(leaf.Body.Data)
	}
	return ""
}

func firstPlainTextLeaf(part *gmail.MessagePart) *gmail.MessagePart {
	if part == nil {
		return nil
	}
	if len(part.Parts) > 0 {
		for _, sub := range part.Parts {
			if found := firstPlainTextLeaf(sub); found != nil {
				return found
			}
		}
		return nil
	}
	if strings.EqualFold(part.MimeType, "text/plain") && part.Body != nil && part.Body.Data != "" {
		return part
	}
	return nil
}

// decodeBody decodes Gmail's base64url body data. Some producers emit padded
// or standard-alphabet data, so those encodings are tried as fallbacks.
func decodeBody(data string) string {
	for _, enc := range []*base64.Encoding{base64.URLEncoding, base64.RawURLEncoding, base64.StdEncoding} {
		if b, err := enc.DecodeString(data); err == nil {
			return string(b)
		}
	}
	return ""
}

// DeliveryDate converts the message's internalDate (milliseconds since the
// epoch) into the UTC calendar day.
func DeliveryDate(m *gmail.Message) civil.Date {
	return civil.DateOf(time.UnixMilli(m.InternalDate).UTC())
}
