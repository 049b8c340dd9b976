package views

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/preceptor/core"
	"github.com/trezcool/preceptor/core/session"
)

// Signup form fields, named like their session.SignupForm struct fields.
const (
	FieldUsername        = "Username"
	FieldEmail           = "Email"
	FieldPassword        = "Password"
	FieldConfirmPassword = "ConfirmPassword"
	FieldRole            = "Role"
)

var ErrUnknownField = errors.New("unknown field")

type SignupView struct {
	viewState
	sessions *session.Service
	router   *Router
	logger   core.Logger

	form       session.SignupForm
	errors     map[string]string
	strength   int
	submitting bool
}

func NewSignupView(d Deps) *SignupView {
	return &SignupView{
		sessions: d.Sessions,
		router:   d.Router,
		logger:   d.Logger,
		errors:   make(map[string]string),
	}
}

// Set changes one field. Its inline error is cleared and the password fields are re-checked
// against each other while the user types.
func (v *SignupView) Set(field, value string) error {
	var unknown bool
	v.update(func() {
		switch field {
		case FieldUsername:
			v.form.Username = value
		case FieldEmail:
			v.form.Email = value
		case FieldPassword:
			v.form.Password = value
		case FieldConfirmPassword:
			v.form.ConfirmPassword = value
		case FieldRole:
			v.form.Role = value
		default:
			unknown = true
			return
		}
		delete(v.errors, field)

		switch field {
		case FieldPassword:
			v.strength = session.PasswordStrength(value)
			if v.form.ConfirmPassword != "" {
				v.setError(FieldConfirmPassword, session.ConfirmPasswordError(value, v.form.ConfirmPassword))
			}
		case FieldConfirmPassword:
			v.setError(FieldConfirmPassword, session.ConfirmPasswordError(v.form.Password, value))
		}
	})
	if unknown {
		return errors.Wrap(ErrUnknownField, field)
	}
	return nil
}

func (v *SignupView) setError(field, msg string) {
	if msg == "" {
		delete(v.errors, field)
		return
	}
	v.errors[field] = msg
}

// Error returns the inline error of field.
func (v *SignupView) Error(field string) (msg string) {
	v.read(func() { msg = v.errors[field] })
	return
}

// Errors returns a copy of every inline error.
func (v *SignupView) Errors() map[string]string {
	res := make(map[string]string)
	v.read(func() {
		for k, e := range v.errors {
			res[k] = e
		}
	})
	return res
}

// Strength returns the password score and its label.
func (v *SignupView) Strength() (score int, text string) {
	v.read(func() { score = v.strength })
	return score, session.PasswordStrengthText(score)
}

func (v *SignupView) Form() (form session.SignupForm) {
	v.read(func() { form = v.form })
	return
}

// Submit validates every field, then registers the account and opens the profile.
// Validation errors are shown inline; remote failures raise an alert.
func (v *SignupView) Submit(ctx context.Context) error {
	var (
		form session.SignupForm
		busy bool
		vErr error
	)
	open := v.update(func() {
		if v.submitting {
			busy = true
			return
		}
		form = v.form
		form.Username = core.CleanString(form.Username)
		form.Email = core.CleanString(form.Email)

		if vErr = v.validate(form); vErr == nil {
			v.submitting = true
		}
	})
	switch {
	case !open:
		return ErrClosed
	case busy:
		return ErrBusy
	case vErr != nil:
		return vErr
	}

	usr, err := v.sessions.Register(ctx, form)
	if err != nil {
		v.logger.Info("registration failed", err)
	}
	v.update(func() {
		v.submitting = false
		if err != nil {
			v.router.Alert("Error", core.FriendlyMessage(err, session.MsgRegisterFailed))
			return
		}
		v.logger.Info("registered", usr)
		v.router.Alert("Success", "Registration successful!")
		v.form = session.SignupForm{}
		v.errors = make(map[string]string)
		v.strength = 0
		v.router.Replace(RouteProfile)
	})
	return err
}

// validate replaces the inline errors with those of form.
func (v *SignupView) validate(form session.SignupForm) error {
	v.errors = make(map[string]string)
	err := form.Validate()
	var vErr *core.ValidationError
	if !errors.As(err, &vErr) {
		return err
	}
	for _, f := range vErr.Fields {
		v.errors[f.Field] = f.Error
	}
	if _, ok := v.errors[FieldConfirmPassword]; ok {
		v.setError(FieldConfirmPassword, session.ConfirmPasswordError(form.Password, form.ConfirmPassword))
	}
	return err
}

func (v *SignupView) Close() { v.close() }
