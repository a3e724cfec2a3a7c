package shared

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// passwordPattern allows only ASCII letters and digits. The character-class requirements
// are checked separately since RE2 has no lookahead.
var (
	passwordPattern = regexp.MustCompile(`^[A-Za-z\d]{6,11}$`)
	hasLower        = regexp.MustCompile(`[a-z]`)
	hasUpper        = regexp.MustCompile(`[A-Z]`)
	hasDigit        = regexp.MustCompile(`\d`)
)

// Registration form messages.
const (
	MsgCredentialsRequired = "Username and password are required."
	MsgUsernameRequired    = "Username is required."
	MsgPasswordRequired    = "Password is required."
	MsgUsernameLength      = "Username must be between 6 and 11 characters."
	MsgPasswordRules       = "Password must be 6-11 characters and include uppercase, lowercase, and a number."
	MsgPasswordMismatch    = "Password does not match. Please try again."
)

// ValidateRegistration runs the client-side registration checks in form order and
// returns the first failure wrapped in [ErrInvalidInput].
func ValidateRegistration(username, password, confirm string) error {
	if err := ValidateCredentials(username, password); err != nil {
		return err
	}

	if n := utf8.RuneCountInString(strings.TrimSpace(username)); n < 6 || n > 11 {
		return invalid(MsgUsernameLength)
	}

	if !ValidPassword(password) {
		return invalid(MsgPasswordRules)
	}

	if password != confirm {
		return invalid(MsgPasswordMismatch)
	}

	return nil
}

// ValidateCredentials checks that both login fields are present.
func ValidateCredentials(username, password string) error {
	user := strings.TrimSpace(username)
	switch {
	case user == "" && password == "":
		return invalid(MsgCredentialsRequired)
	case user == "":
		return invalid(MsgUsernameRequired)
	case password == "":
		return invalid(MsgPasswordRequired)
	}
	return nil
}

// ValidPassword reports whether password is 6-11 letters or digits with at least one
// lowercase letter, one uppercase letter and one digit.
func ValidPassword(password string) bool {
	return passwordPattern.MatchString(password) &&
		hasLower.MatchString(password) &&
		hasUpper.MatchString(password) &&
		hasDigit.MatchString(password)
}

// ValidationMessage extracts the user-facing message from a validation error.
func ValidationMessage(err error) string {
	return strings.TrimPrefix(err.Error(), ErrInvalidInput.Error()+": ")
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}
