package account

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/nyaruka/phonenumbers"
	"github.com/tendant/account-idm/pkg/errors"
)

const (
	msgRegisterRequired = "Name, email and password are required"
	msgLoginRequired    = "Email and password are required"
	msgInvalidEmail     = "Invalid email format"
	msgWeakPassword     = "Password must be at least 8 characters and include a special character"
	msgInvalidPhone     = "Invalid phone number"
	msgNameRequired     = "Name is required"
)

var (
	emailPattern          = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	passwordSymbolPattern = regexp.MustCompile(`[!@%$#^&*\-_]`)
)

// NewAccountInput is the caller-supplied data for a registration or an
// administrator-created account.
type NewAccountInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// Validator checks and normalizes account input. Phone numbers without a
// country prefix are read in the configured default region.
type Validator struct {
	region string
}

func NewValidator(defaultRegion string) *Validator {
	if defaultRegion == "" {
		defaultRegion = "US"
	}
	return &Validator{region: strings.ToUpper(defaultRegion)}
}

// ValidateNewAccount returns the normalized input or a validation error
// naming the first rule violated. Required fields are checked first, then
// email format, then password strength, then phone.
func (v *Validator) ValidateNewAccount(in NewAccountInput) (NewAccountInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = NormalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)

	if in.Name == "" || in.Email == "" || in.Password == "" {
		return in, errors.New(errors.ErrCodeMissingRequired, msgRegisterRequired)
	}
	if err := v.ValidateEmail(in.Email); err != nil {
		return in, err
	}
	if err := ValidatePassword(in.Password); err != nil {
		return in, err
	}
	phone, err := v.NormalizePhone(in.Phone)
	if err != nil {
		return in, err
	}
	in.Phone = phone
	return in, nil
}

// ValidateCredentials checks login input and returns the normalized email.
func (v *Validator) ValidateCredentials(email, password string) (string, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return email, errors.New(errors.ErrCodeMissingRequired, msgLoginRequired)
	}
	if err := v.ValidateEmail(email); err != nil {
		return email, err
	}
	return email, nil
}

func (v *Validator) ValidateEmail(email string) error {
	err := validation.Validate(email,
		validation.Required.Error(msgInvalidEmail),
		validation.Match(emailPattern).Error(msgInvalidEmail),
	)
	if err != nil {
		return errors.New(errors.ErrCodeInvalidFormat, err.Error())
	}
	return nil
}

// ValidateName rejects blank names on update.
func (v *Validator) ValidateName(name string) error {
	err := validation.Validate(strings.TrimSpace(name), validation.Required.Error(msgNameRequired))
	if err != nil {
		return errors.New(errors.ErrCodeMissingRequired, err.Error())
	}
	return nil
}

// ValidatePassword enforces at least 8 characters including one of !@%$#^&*-_.
func ValidatePassword(password string) error {
	err := validation.Validate(password,
		validation.Required.Error(msgWeakPassword),
		validation.RuneLength(8, 0).Error(msgWeakPassword),
		validation.Match(passwordSymbolPattern).Error(msgWeakPassword),
	)
	if err != nil {
		return errors.New(errors.ErrCodeValidationFailed, err.Error())
	}
	return nil
}

func isMobile(num *phonenumbers.PhoneNumber) bool {
	switch phonenumbers.GetNumberType(num) {
	case phonenumbers.MOBILE, phonenumbers.FIXED_LINE_OR_MOBILE:
		return true
	}
	return false
}

// NormalizePhone returns the E.164 form of a mobile number. An empty phone is
// allowed and stays empty.
func (v *Validator) NormalizePhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", nil
	}
	var normalized string
	err := validation.Validate(phone, validation.By(func(value interface{}) error {
		num, err := phonenumbers.Parse(value.(string), v.region)
		if err != nil || !phonenumbers.IsValidNumber(num) || !isMobile(num) {
			return errors.New(errors.ErrCodeInvalidFormat, msgInvalidPhone)
		}
		normalized = phonenumbers.Format(num, phonenumbers.E164)
		return nil
	}))
	if err != nil {
		return "", errors.New(errors.ErrCodeInvalidFormat, msgInvalidPhone)
	}
	return normalized, nil
}
