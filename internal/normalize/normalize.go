// Package normalize contains the pure validation and canonicalization
// functions applied to raw conversation input before the dialogue engine
// accepts it. All functions are deterministic and perform no I/O.
package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrInvalidIDNumber = errors.New("invalid ID number")
)

var emailRe = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

// NormalizeEmail trims, lowercases and syntactically validates an email
// address. No network verification is attempted.
func NormalizeEmail(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if !emailRe.MatchString(s) {
		return "", ErrInvalidEmail
	}
	return s, nil
}

// Sex as decoded from the ID sequence number.
type Sex string

const (
	SexFemale Sex = "female"
	SexMale   Sex = "male"
)

// IDDetails holds the fields decoded from a valid South African ID number.
type IDDetails struct {
	IDNumber  string
	BirthDate time.Time
	Age       int
	Sex       Sex
	SACitizen bool
}

// ValidateIDNumber validates a South African 13-digit national ID number:
// YYMMDD date of birth, SSSS sequence (>= 5000 is male), C citizenship digit,
// A, and a Luhn mod-10 check digit computed over all 13 digits.
func ValidateIDNumber(raw string) (IDDetails, error) {
	s := strings.Join(strings.Fields(raw), "")
	if len(s) != 13 {
		return IDDetails{}, fmt.Errorf("%w: expected 13 digits, got %d", ErrInvalidIDNumber, len(s))
	}
	digits := make([]int, 13)
	for i, r := range s {
		if r < '0' || r > '9' {
			return IDDetails{}, fmt.Errorf("%w: non-digit character", ErrInvalidIDNumber)
		}
		digits[i] = int(r - '0')
	}

	if !luhnValid(digits) {
		return IDDetails{}, fmt.Errorf("%w: checksum mismatch", ErrInvalidIDNumber)
	}

	yy := digits[0]*10 + digits[1]
	month := digits[2]*10 + digits[3]
	day := digits[4]*10 + digits[5]
	if month < 1 || month > 12 {
		return IDDetails{}, fmt.Errorf("%w: month out of range", ErrInvalidIDNumber)
	}
	year := 1900 + yy
	now := time.Now().UTC()
	if year+100 <= now.Year() {
		year += 100
	}
	if day < 1 || day > daysInMonth(year, month) {
		return IDDetails{}, fmt.Errorf("%w: day out of range", ErrInvalidIDNumber)
	}
	birth := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if birth.After(now) {
		// two-digit years that resolve to the future belong to the
		// previous century
		birth = birth.AddDate(-100, 0, 0)
	}

	age := now.Year() - birth.Year()
	if now.YearDay() < birth.YearDay() {
		age--
	}

	seq := digits[6]*1000 + digits[7]*100 + digits[8]*10 + digits[9]
	sex := SexFemale
	if seq >= 5000 {
		sex = SexMale
	}

	return IDDetails{
		IDNumber:  s,
		BirthDate: birth,
		Age:       age,
		Sex:       sex,
		SACitizen: digits[10] == 0,
	}, nil
}

// luhnValid runs the double-and-reduce checksum over all 13 digits; the
// total must be divisible by 10.
func luhnValid(digits []int) bool {
	sum := 0
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		// double every second digit counting from the right
		if (len(digits)-1-i)%2 == 1 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	return sum%10 == 0
}

func daysInMonth(year, month int) int {
	// day 0 of the next month is the last day of this one
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

const countryCode = "27"

var nonDigitRe = regexp.MustCompile(`\D`)

// CanonicalizePhone strips formatting and rewrites the number into the
// canonical 27XXXXXXXXX form. The leading trunk zero is replaced by the
// country calling code; numbers without the code get it prepended.
// Idempotent: canonical input passes through unchanged.
func CanonicalizePhone(raw string) string {
	s := nonDigitRe.ReplaceAllString(raw, "")
	switch {
	case strings.HasPrefix(s, "0"):
		return countryCode + s[1:]
	case strings.HasPrefix(s, countryCode):
		return s
	default:
		return countryCode + s
	}
}

var phoneRe = regexp.MustCompile(`^27\d{9}$`)

// ValidPhone reports whether s is a canonical national number.
func ValidPhone(s string) bool {
	return phoneRe.MatchString(s)
}

// SanitizeFreeText trims whitespace and strips characters with markup
// significance so user text can be embedded in generated HTML and messages.
func SanitizeFreeText(raw string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r == '<' || r == '>':
			// drop
		case r < 0x20 && r != '\n' && r != '\t':
			// drop control chars
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
