package service

import (
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	minAge            = 13
	maxPostRunes      = 5000
	maxCommentRunes   = 1000
	maxBioRunes       = 500
	maxLocationRunes  = 100
	dateOfBirthLayout = "2006-01-02"
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)
	phonePattern    = regexp.MustCompile(`^[0-9+\-\s()]{10,20}$`)
)

// ValidUsername reports whether name is 3-20 letters, digits or underscores.
func ValidUsername(name string) bool { return usernamePattern.MatchString(name) }

// ValidPhone reports whether phone is 10-20 digits, spaces, +, -, or parentheses.
func ValidPhone(phone string) bool { return phonePattern.MatchString(phone) }

// ValidEmail accepts a bare address (no display name).
func ValidEmail(email string) bool {
	if email == "" || strings.ContainsAny(email, " <>") {
		return false
	}
	a, err := mail.ParseAddress(email)
	if err != nil || a.Address != email {
		return false
	}
	at := strings.LastIndexByte(email, '@')
	return at > 0 && strings.Contains(email[at+1:], ".")
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ParseDateOfBirth parses a YYYY-MM-DD calendar date in UTC.
func ParseDateOfBirth(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dateOfBirthLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, invalid("date_of_birth", "Invalid date of birth")
	}
	return t, nil
}

// AgeAt returns the age in whole years at now: the year difference, minus
// one if the birthday has not happened yet this year.
func AgeAt(dob, now time.Time) int {
	now = now.UTC()
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

func checkAge(dob, now time.Time) error {
	if dob.After(now) {
		return invalid("date_of_birth", "Date of birth cannot be in the future")
	}
	if AgeAt(dob, now) < minAge {
		return invalid("date_of_birth", "You must be at least %d years old", minAge)
	}
	return nil
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
