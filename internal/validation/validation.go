package validation

import (
	"regexp"
	"strings"

	"github.com/medconnect/portal-gateway/pkg/model"
)

// Fields carries the raw auth-form values. Absent fields are empty strings.
type Fields struct {
	FullName        string
	Email           string
	Phone           string
	Password        string
	ConfirmPassword string
	Specialization  string
	LicenseNumber   string
}

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^\+?[\d\s\-()]{10,}$`)
)

// Validation messages, shared with the handlers so error text stays uniform.
const (
	MsgEmailRequired          = "Email is required"
	MsgEmailInvalid           = "Please enter a valid email address"
	MsgPhoneRequired          = "Phone number is required"
	MsgPhoneInvalid           = "Please enter a valid phone number"
	MsgPasswordRequired       = "Password is required"
	MsgPasswordMinLength      = "Password must be at least 6 characters"
	MsgPasswordsNotMatch      = "Passwords do not match"
	MsgFullNameRequired       = "Full name is required"
	MsgSpecializationRequired = "Specialization is required"
	MsgLicenseRequired        = "License number is required"
)

// ValidEmail reports whether s has a local@domain.tld shape.
func ValidEmail(s string) bool {
	return emailRe.MatchString(s)
}

// ValidPhone reports whether s contains at least 10 digit/separator characters.
func ValidPhone(s string) bool {
	return phoneRe.MatchString(s)
}

// Validate checks the auth form and returns a field-name to error-message
// mapping. An empty map means the form is valid. Pure: no network or state
// side effects, identical inputs always give identical output.
//
// Login mode requires email and password, plus phone for doctors and
// patients. Registration additionally requires full name, a password of at
// least 6 characters, a matching confirmation, and for doctors a
// specialization and license number.
func Validate(f Fields, role model.Role, isLogin bool) map[string]string {
	errs := make(map[string]string)

	if f.Email == "" {
		errs["email"] = MsgEmailRequired
	} else if !ValidEmail(f.Email) {
		errs["email"] = MsgEmailInvalid
	}

	if !isLogin || role == model.RoleDoctor || role == model.RolePatient {
		if f.Phone == "" {
			errs["phone"] = MsgPhoneRequired
		} else if !ValidPhone(f.Phone) {
			errs["phone"] = MsgPhoneInvalid
		}
	}

	if f.Password == "" {
		errs["password"] = MsgPasswordRequired
	} else if !isLogin && len(f.Password) < 6 {
		errs["password"] = MsgPasswordMinLength
	}

	if !isLogin {
		if strings.TrimSpace(f.FullName) == "" {
			errs["fullName"] = MsgFullNameRequired
		}

		if f.Password != f.ConfirmPassword {
			errs["confirmPassword"] = MsgPasswordsNotMatch
		}

		if role == model.RoleDoctor {
			if strings.TrimSpace(f.Specialization) == "" {
				errs["specialization"] = MsgSpecializationRequired
			}
			if strings.TrimSpace(f.LicenseNumber) == "" {
				errs["licenseNumber"] = MsgLicenseRequired
			}
		}
	}

	return errs
}
