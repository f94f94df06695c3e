package services

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	minNameLength     = 3
	maxNameLength     = 50
	minPasswordLength = 6
	maxPasswordLength = 20
	// bcrypt rejects longer input; multi-byte passwords can reach it under
	// the character limit.
	maxPasswordBytes = 72
)

// RegisterInput is the payload of a registration attempt.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginInput is the payload of a login attempt.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateInput is a partial user update. Nil fields are left unchanged.
type UpdateInput struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// Validate normalizes the input and reports every invalid field.
func (in RegisterInput) Validate() (RegisterInput, error) {
	fields := map[string]string{}

	in.Name = strings.TrimSpace(in.Name)
	if msg := checkName(in.Name); msg != "" {
		fields["name"] = msg
	}
	in.Email = NormalizeEmail(in.Email)
	if msg := checkEmail(in.Email); msg != "" {
		fields["email"] = msg
	}
	if msg := checkPassword(in.Password); msg != "" {
		fields["password"] = msg
	}

	if len(fields) > 0 {
		return in, invalidInput(fields)
	}
	return in, nil
}

// Validate normalizes the input. Password rules are not applied at login so
// that policy changes never lock out existing accounts.
func (in LoginInput) Validate() (LoginInput, error) {
	fields := map[string]string{}

	in.Email = NormalizeEmail(in.Email)
	if msg := checkEmail(in.Email); msg != "" {
		fields["email"] = msg
	}
	if in.Password == "" {
		fields["password"] = "password is required"
	}

	if len(fields) > 0 {
		return in, invalidInput(fields)
	}
	return in, nil
}

func (in UpdateInput) Validate() (UpdateInput, error) {
	fields := map[string]string{}

	if in.Name == nil && in.Email == nil && in.Password == nil {
		fields["body"] = "at least one of name, email or password is required"
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
		if msg := checkName(name); msg != "" {
			fields["name"] = msg
		}
	}
	if in.Email != nil {
		email := NormalizeEmail(*in.Email)
		in.Email = &email
		if msg := checkEmail(email); msg != "" {
			fields["email"] = msg
		}
	}
	if in.Password != nil {
		if msg := checkPassword(*in.Password); msg != "" {
			fields["password"] = msg
		}
	}

	if len(fields) > 0 {
		return in, invalidInput(fields)
	}
	return in, nil
}

// NormalizeEmail trims and lower-cases an address; emails compare
// case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkName(name string) string {
	n := utf8.RuneCountInString(name)
	switch {
	case n == 0:
		return "name is required"
	case n < minNameLength:
		return "name must be at least 3 characters"
	case n > maxNameLength:
		return "name must be at most 50 characters"
	}
	return ""
}

func checkEmail(email string) string {
	if email == "" {
		return "email is required"
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "email must be a valid address"
	}
	at := strings.LastIndexByte(email, '@')
	domain := email[at+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return "email must be a valid address"
	}
	return ""
}

func checkPassword(password string) string {
	n := utf8.RuneCountInString(password)
	switch {
	case n == 0:
		return "password is required"
	case n < minPasswordLength:
		return "password must be at least 6 characters"
	case n > maxPasswordLength:
		return "password must be at most 20 characters"
	case len(password) > maxPasswordBytes:
		return "password must be at most 72 bytes"
	}
	return ""
}
