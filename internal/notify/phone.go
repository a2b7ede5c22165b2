package notify

import (
	"strings"

	"github.com/BruksfildServices01/hospital-scheduler/internal/httperr"
)

var ErrInvalidPhone = httperr.ErrBusiness("invalid_phone")

// PhoneNormalizer rewrites raw phone numbers into international format.
type PhoneNormalizer struct {
	// DefaultCountryCode is prefixed to bare 10 digit numbers, e.g. "+91".
	DefaultCountryCode string
	// KnownCountryCodes are digit prefixes ("91", "1") accepted on numbers
	// longer than 10 digits written without a leading "+".
	KnownCountryCodes []string
}

func NewPhoneNormalizer(defaultCountryCode string, known []string) PhoneNormalizer {
	cc := "+" + digitsOnly(defaultCountryCode)

	codes := make([]string, 0, len(known)+1)
	codes = append(codes, strings.TrimPrefix(cc, "+"))
	for _, k := range known {
		if d := digitsOnly(k); d != "" && d != codes[0] {
			codes = append(codes, d)
		}
	}

	return PhoneNormalizer{DefaultCountryCode: cc, KnownCountryCodes: codes}
}

// Normalize applies, in order: numbers written with "+" keep their digits
// as is; 10 digit numbers get the default country code; longer numbers that
// start with a known country code get a "+". Anything else is rejected.
func (n PhoneNormalizer) Normalize(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	digits := digitsOnly(trimmed)
	if digits == "" {
		return "", ErrInvalidPhone
	}

	if strings.HasPrefix(trimmed, "+") {
		return "+" + digits, nil
	}

	if len(digits) == 10 {
		return n.DefaultCountryCode + digits, nil
	}

	if len(digits) > 10 {
		for _, code := range n.KnownCountryCodes {
			if strings.HasPrefix(digits, code) {
				return "+" + digits, nil
			}
		}
	}

	return "", ErrInvalidPhone
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
