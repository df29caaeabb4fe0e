package attendance

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// PhoneLength is the exact number of digits a phone number must have.
const PhoneLength = 10

// Titles and Categories are the accepted enum values, in display order.
var (
	Titles     = []string{"Dr.", "Mr.", "Ms.", "Mrs."}
	Categories = []string{"Student", "Faculty", "Industry"}
)

// MaxTextLength bounds name and college name; both columns are VARCHAR(100).
const MaxTextLength = 100

// PlaceholderName is stored when the daily policy receives no name.
const PlaceholderName = "Attendee"

var strict = bluemonday.StrictPolicy()

// ValidatePhone accepts exactly ten ASCII digits.
func ValidatePhone(phone string) error {
	if phone == "" {
		return &ValidationError{Field: "phone_number", Message: "Phone number is required"}
	}
	for i := 0; i < len(phone); i++ {
		if phone[i] < '0' || phone[i] > '9' {
			return &ValidationError{Field: "phone_number", Message: "Phone number must contain only digits"}
		}
	}
	if len(phone) != PhoneLength {
		return &ValidationError{Field: "phone_number", Message: "Phone number must be exactly 10 digits"}
	}
	return nil
}

// normalize trims every field and strips markup from free text.
func normalize(in CheckInInput) CheckInInput {
	return CheckInInput{
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
		Name:        cleanText(in.Name),
		CollegeName: cleanText(in.CollegeName),
		Title:       strings.TrimSpace(in.Title),
		Category:    strings.TrimSpace(in.Category),
	}
}

func cleanText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// validate checks presence first, in field order, then formats and enums.
// All profile fields are required under the register policy.
func validate(in CheckInInput, policy Policy) (CheckInInput, error) {
	if in.PhoneNumber == "" {
		return in, &ValidationError{Field: "phone_number", Message: "Phone number is required"}
	}
	if policy == PolicyRegister {
		required := []struct {
			field, value, msg string
		}{
			{"name", in.Name, "Name is required"},
			{"college_name", in.CollegeName, "College name is required"},
			{"title", in.Title, "Title is required"},
			{"category", in.Category, "Category is required"},
		}
		for _, r := range required {
			if r.value == "" {
				return in, &ValidationError{Field: r.field, Message: r.msg}
			}
		}
	}
	if err := ValidatePhone(in.PhoneNumber); err != nil {
		return in, err
	}
	if in.Title != "" {
		t, ok := canonical(in.Title, Titles)
		if !ok {
			return in, &ValidationError{Field: "title", Message: "Title must be one of " + strings.Join(Titles, ", ")}
		}
		in.Title = t
	}
	if in.Category != "" {
		c, ok := canonical(in.Category, Categories)
		if !ok {
			return in, &ValidationError{Field: "category", Message: "Category must be one of " + strings.Join(Categories, ", ")}
		}
		in.Category = c
	}
	if utf8.RuneCountInString(in.Name) > MaxTextLength {
		return in, &ValidationError{Field: "name", Message: fmt.Sprintf("Name must be at most %d characters", MaxTextLength)}
	}
	if utf8.RuneCountInString(in.CollegeName) > MaxTextLength {
		return in, &ValidationError{Field: "college_name", Message: fmt.Sprintf("College name must be at most %d characters", MaxTextLength)}
	}
	return in, nil
}

// canonical matches case-insensitively, ignoring a missing trailing dot.
func canonical(v string, allowed []string) (string, bool) {
	key := strings.TrimSuffix(strings.ToLower(v), ".")
	for _, a := range allowed {
		if strings.TrimSuffix(strings.ToLower(a), ".") == key {
			return a, true
		}
	}
	return "", false
}
