package validators

import (
	"net/mail"
	"strings"
)

// IsEmailSyntaxValid accepts a bare address, no display name.
func IsEmailSyntaxValid(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email[strings.LastIndex(email, "@"):], ".")
}
