// Package chatlink builds chat-app deep links that continue a conversation
// with the agency after a lead has been stored.
package chatlink

import (
	"fmt"
	"strings"
	"unicode"
)

const defaultBaseURL = "https://wa.me"

// Builder formats links for one agency chat number.
type Builder struct {
	baseURL string
	phone   string
}

// NewBuilder returns a builder for the given chat number. Non-digits are
// stripped since the link format expects the bare international number.
func NewBuilder(phone string) *Builder {
	return &Builder{baseURL: defaultBaseURL, phone: digitsOnly(phone)}
}

// WithBaseURL overrides the chat domain.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	if trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/"); trimmed != "" {
		b.baseURL = trimmed
	}
	return b
}

// Phone returns the normalized agency number.
func (b *Builder) Phone() string {
	return b.phone
}

// ContactURL is the bare link with no prefilled text.
func (b *Builder) ContactURL() string {
	return b.baseURL + "/" + b.phone
}

// LeadText is the prefilled message: "Hi! I'm {name}. {message}. My phone: {phone}".
func LeadText(name, message, phone string) string {
	return fmt.Sprintf("Hi! I'm %s. %s. My phone: %s", name, message, phone)
}

// LeadURL returns the deep link carrying the lead's details as prefilled text.
func (b *Builder) LeadURL(name, message, phone string) string {
	return b.ContactURL() + "?text=" + EncodeComponent(LeadText(name, message, phone))
}

// EncodeComponent percent-encodes s the way browsers' encodeURIComponent does:
// everything except ASCII letters, digits and -_.!~*'() is escaped as UTF-8 bytes.
func EncodeComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var sb strings.Builder
	sb.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(hex[c>>4])
		sb.WriteByte(hex[c&0x0F])
	}
	return sb.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}

func digitsOnly(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
