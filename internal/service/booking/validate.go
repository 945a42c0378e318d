package booking

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/Domenick1991/alphatravel/internal/domain"
)

const maxPassengers = 9

// ValidateTravellers checks the passenger list and contact details against today's date.
func ValidateTravellers(passengers []domain.Passenger, contact domain.Contact, now time.Time) error {
	if len(passengers) == 0 {
		return domain.Invalid("passengers", "at least one passenger is required")
	}
	if len(passengers) > maxPassengers {
		return domain.Invalid("passengers", fmt.Sprintf("at most %d passengers", maxPassengers))
	}

	today := now.UTC().Truncate(24 * time.Hour)
	for i, p := range passengers {
		field := func(name string) string {
			return fmt.Sprintf("passengers[%d].%s", i, name)
		}
		if strings.TrimSpace(p.FirstName) == "" {
			return domain.Invalid(field("firstName"), "is required")
		}
		if strings.TrimSpace(p.LastName) == "" {
			return domain.Invalid(field("lastName"), "is required")
		}
		dob, err := time.Parse(time.DateOnly, p.DateOfBirth)
		if err != nil {
			return domain.Invalid(field("dateOfBirth"), "must be YYYY-MM-DD")
		}
		if !dob.Before(today) {
			return domain.Invalid(field("dateOfBirth"), "must be in the past")
		}
		if p.Gender != domain.GenderMale && p.Gender != domain.GenderFemale {
			return domain.Invalid(field("gender"), "must be MALE or FEMALE")
		}
		if p.PassportNumber != "" {
			expiry, err := time.Parse(time.DateOnly, p.PassportExpiry)
			if err != nil {
				return domain.Invalid(field("passportExpiry"), "must be YYYY-MM-DD")
			}
			if !expiry.After(today) {
				return domain.Invalid(field("passportExpiry"), "passport has expired")
			}
		}
	}

	if strings.TrimSpace(contact.Email) == "" {
		return domain.Invalid("contact.email", "is required")
	}
	if _, err := mail.ParseAddress(contact.Email); err != nil {
		return domain.Invalid("contact.email", "is not a valid address")
	}
	if strings.TrimSpace(contact.Phone) == "" {
		return domain.Invalid("contact.phone", "is required")
	}
	return nil
}
