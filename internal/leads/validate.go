package leads

import (
	"strings"
	"unicode/utf8"
)

const (
	nameMaxLen    = 100
	phoneMinLen   = 10
	phoneMaxLen   = 15
	messageMaxLen = 1000
)

// Validate checks a raw submission and returns the normalized lead.
// Rules run in order name, phone, message; only the first violation is reported.
// Lengths are counted in characters after trimming surrounding whitespace.
func Validate(req SubmitRequest) (NewLead, error) {
	name := strings.TrimSpace(req.Name)
	switch n := utf8.RuneCountInString(name); {
	case n == 0:
		return NewLead{}, &ValidationError{Field: "name", Message: "Name is required"}
	case n > nameMaxLen:
		return NewLead{}, &ValidationError{Field: "name", Message: "Name must be less than 100 characters"}
	}

	phone := strings.TrimSpace(req.Phone)
	switch n := utf8.RuneCountInString(phone); {
	case n < phoneMinLen:
		return NewLead{}, &ValidationError{Field: "phone", Message: "Phone number must be at least 10 digits"}
	case n > phoneMaxLen:
		return NewLead{}, &ValidationError{Field: "phone", Message: "Phone number must be less than 15 characters"}
	}

	var message *string
	if req.Message != nil {
		trimmed := strings.TrimSpace(*req.Message)
		if utf8.RuneCountInString(trimmed) > messageMaxLen {
			return NewLead{}, &ValidationError{Field: "message", Message: "Message must be less than 1000 characters"}
		}
		if trimmed != "" {
			message = &trimmed
		}
	}

	source := DefaultSource
	if req.Source != nil && *req.Source != "" {
		source = *req.Source
	}

	return NewLead{
		Name:    name,
		Phone:   phone,
		Message: message,
		Source:  source,
	}, nil
}
