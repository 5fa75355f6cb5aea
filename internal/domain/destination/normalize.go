// Package destination validates raw recipient addresses and converts them to
// the canonical form a channel expects.
package destination

import (
	"fmt"
	"notifier/internal/domain/constant"
	"notifier/internal/domain/entity"
	appErrors "notifier/internal/pkg/errors"
	"regexp"
	"strings"
)

var (
	phonePunctuation = regexp.MustCompile(`[\s\-().]`)
	digitsOnly       = regexp.MustCompile(`^\d+$`)
	countryCode      = regexp.MustCompile(`^\+\d{1,3}$`)
	emailPattern     = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	lineUserID       = regexp.MustCompile(`^U[0-9a-f]{32}$`)
)

// Normalizer canonicalizes destinations using a default country code for
// national phone numbers.
type Normalizer struct {
	countryCode string // e.g. "+1"
}

// NewNormalizer validates the default country code.
func NewNormalizer(defaultCountryCode string) (*Normalizer, error) {
	cc := strings.TrimSpace(defaultCountryCode)
	if !strings.HasPrefix(cc, "+") {
		cc = "+" + cc
	}
	if !countryCode.MatchString(cc) {
		return nil, fmt.Errorf("invalid default country code %q", defaultCountryCode)
	}
	return &Normalizer{countryCode: cc}, nil
}

// NormalizePhone returns the E.164 form of raw.
//
// Accepted shapes after stripping punctuation and whitespace:
//   - "+" followed by 10 to 15 digits, returned as is
//   - 10 digits, prefixed with the default country code
//   - the default country code digits followed by 10 digits ("1" + 10 digits for +1)
func (n *Normalizer) NormalizePhone(raw string) (string, error) {
	cleaned := phonePunctuation.ReplaceAllString(strings.TrimSpace(raw), "")
	if cleaned == "" {
		return "", fmt.Errorf("%w: empty phone number", appErrors.ErrInvalidDestination)
	}

	if strings.HasPrefix(cleaned, "+") {
		body := cleaned[1:]
		if digitsOnly.MatchString(body) && len(body) >= 10 && len(body) <= 15 {
			return cleaned, nil
		}
		return "", fmt.Errorf("%w: international number %q must have 10-15 digits", appErrors.ErrInvalidDestination, raw)
	}

	if !digitsOnly.MatchString(cleaned) {
		return "", fmt.Errorf("%w: phone number %q contains invalid characters", appErrors.ErrInvalidDestination, raw)
	}

	ccDigits := n.countryCode[1:]
	switch {
	case len(cleaned) == 10:
		return n.countryCode + cleaned, nil
	case len(cleaned) == 10+len(ccDigits) && strings.HasPrefix(cleaned, ccDigits):
		return "+" + cleaned, nil
	}
	return "", fmt.Errorf("%w: phone number %q needs a + country code prefix", appErrors.ErrInvalidDestination, raw)
}

// NormalizeEmail validates a local@domain address and lower-cases the domain.
func NormalizeEmail(raw string) (string, error) {
	addr := strings.TrimSpace(raw)
	if !emailPattern.MatchString(addr) {
		return "", fmt.Errorf("%w: email address %q", appErrors.ErrInvalidDestination, raw)
	}
	at := strings.LastIndex(addr, "@")
	return addr[:at] + "@" + strings.ToLower(addr[at+1:]), nil
}

// NormalizeLineUserID validates a LINE user ID ("U" followed by 32 hex characters).
func NormalizeLineUserID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if !lineUserID.MatchString(id) {
		return "", fmt.Errorf("%w: LINE user ID %q", appErrors.ErrInvalidDestination, raw)
	}
	return id, nil
}

// ForShape picks the destination field a channel shape uses and normalizes it.
func (n *Normalizer) ForShape(shape constant.Shape, dest entity.Destination) (string, error) {
	switch shape {
	case constant.ShapeEmail:
		return NormalizeEmail(dest.Email)
	case constant.ShapeLine:
		return NormalizeLineUserID(dest.LineUserID)
	default:
		return n.NormalizePhone(dest.Phone)
	}
}
