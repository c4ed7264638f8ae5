package validation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/culturekart/marketplace-backend/internal/pkg/apperror"
)

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func ValidateEmail(email string) error {
	if len(email) > 254 || !emailRe.MatchString(email) {
		return apperror.New(apperror.ErrCodeValidation, "invalid email address")
	}
	return nil
}

func ValidateUsername(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n < 2 || n > 64 {
		return apperror.New(apperror.ErrCodeValidation, "name must be between 2 and 64 characters")
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 8 || len(password) > 72 {
		return apperror.New(apperror.ErrCodeValidation, "password must be between 8 and 72 characters")
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return apperror.New(apperror.ErrCodeValidation, "password must contain at least one letter and one digit")
	}
	return nil
}

func ValidateAmount(amount float64) error {
	if amount <= 0 {
		return apperror.New(apperror.ErrCodeValidation, "amount must be positive")
	}
	if amount > 1_000_000 {
		return apperror.New(apperror.ErrCodeValidation, "amount exceeds the allowed maximum")
	}
	return nil
}

// ValidateBankAccount accepts local account numbers and IBANs: digits and
// uppercase letters, 8 to 34 characters.
func ValidateBankAccount(number string) error {
	if len(number) < 8 || len(number) > 34 {
		return apperror.New(apperror.ErrCodeValidation, "bank account number must be 8 to 34 characters")
	}
	for _, r := range number {
		if !unicode.IsDigit(r) && !unicode.IsUpper(r) {
			return apperror.New(apperror.ErrCodeValidation, "bank account number may contain digits and uppercase letters only")
		}
	}
	return nil
}

func ValidateMessageBody(body string) error {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return apperror.New(apperror.ErrCodeValidation, "message body must not be empty")
	}
	if utf8.RuneCountInString(trimmed) > 4000 {
		return apperror.New(apperror.ErrCodeValidation, "message body exceeds 4000 characters")
	}
	return nil
}

func ValidateProductTitle(title string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	if n < 3 || n > 160 {
		return apperror.New(apperror.ErrCodeValidation, "title must be between 3 and 160 characters")
	}
	return nil
}

func ValidateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return apperror.New(apperror.ErrCodeValidation, "rating must be between 1 and 5")
	}
	return nil
}
