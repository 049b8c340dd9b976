package core

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
)

// Roles a user can pick at signup. The first label of an identity is its effective role.
const (
	RoleStudent     = "student"
	RolePreceptor   = "preceptor"
	RoleFacilitator = "facilitator"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator

	AllRoles = []string{RoleStudent, RolePreceptor, RoleFacilitator}

	// custom validation tags & texts
	emailTag   = "emailfmt"
	emailText  = "Please enter a valid email address"
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	alphaNumUnderTag   = "alphanum_"
	alphaNumUnderText  = "{0} can only contain letters, numbers, and underscores"
	alphaNumUnderRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

	roleTag  = "role"
	roleText = "Please select a valid role"

	requiredTag  = "required"
	requiredText = "{0} is required"

	minTag  = "min"
	minText = "{0} must be at least {1} characters"

	eqFieldTag  = "eqfield"
	eqFieldText = "Passwords do not match"
)

// Instantiate the validator for use.
func init() {
	Validate = validator.New()

	// Register the english error messages for validation errors.
	_en := en.New()
	uni := ut.New(_en, _en)
	Translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(Validate, Translator)

	// Use the human label (or the JSON name) for errors instead of Go struct names.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if label := fld.Tag.Get("label"); label != "" {
			return label
		}
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = Validate.RegisterValidation(emailTag, emailValidation)
	RegisterCustomTranslation(emailTag, emailText)
	_ = Validate.RegisterValidation(alphaNumUnderTag, alphaNumUnderValidation)
	RegisterCustomTranslation(alphaNumUnderTag, alphaNumUnderText)
	_ = Validate.RegisterValidation(roleTag, roleValidation)
	RegisterCustomTranslation(roleTag, roleText)

	RegisterCustomTranslation(requiredTag, requiredText, true)
	RegisterCustomTranslation(minTag, minText, true)
	RegisterCustomTranslation(eqFieldTag, eqFieldText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
// {0} is replaced by the field label and {1} by the tag parameter.
func RegisterCustomTranslation(tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = Validate.RegisterTranslation(
		tag, Translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field(), fe.Param())
			return s
		},
	)
}

// ValidateStruct validates s and converts failures into a *ValidationError
// carrying one translated message per field, in struct order.
func ValidateStruct(s interface{}) error {
	err := Validate.Struct(s)
	if err == nil {
		return nil
	}
	vErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(err, "validating input")
	}
	flds := make([]FieldError, 0, len(vErrs))
	for _, fe := range vErrs {
		flds = append(flds, FieldError{Field: fe.StructField(), Error: fe.Translate(Translator)})
	}
	return NewValidationError(errors.New(flds[0].Error), flds...)
}

// IsValidEmail applies the client-side email format check.
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// Custom Global Validators

func emailValidation(fl validator.FieldLevel) bool {
	return emailRegex.MatchString(fl.Field().String())
}

// alphaNumUnderValidation only allows alphanumeric characters and underscores.
func alphaNumUnderValidation(fl validator.FieldLevel) bool {
	return alphaNumUnderRegex.MatchString(fl.Field().String())
}

func roleValidation(fl validator.FieldLevel) bool {
	role := fl.Field().String()
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}
