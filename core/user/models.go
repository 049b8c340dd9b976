package user

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/preceptor/core"
	"github.com/trezcool/preceptor/core/session"
)

// User is an identity held by the development backend.
type User struct {
	ID           string
	Name         string
	Email        string
	Labels       []string
	Prefs        session.Prefs
	PasswordHash []byte
	CreatedAt    time.Time // UTC
	UpdatedAt    time.Time // UTC
	LastLogin    time.Time // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) HasLabel(label string) bool {
	for _, l := range u.Labels {
		if l == label {
			return true
		}
	}
	return false
}

func (u *User) IsPreceptor() bool { return u.HasLabel(core.RolePreceptor) }

// Account is the public view of u returned to clients.
func (u User) Account() session.User {
	return session.User{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Labels:    append([]string{}, u.Labels...),
		Prefs:     u.Prefs,
		CreatedAt: u.CreatedAt,
	}
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	UserID   string `json:"userId" validate:"omitempty,max=36"`
	Name     string `json:"name" validate:"omitempty,max=128"`
	Email    string `json:"email" label:"Email" validate:"required,emailfmt"`
	Password string `json:"password" label:"Password" validate:"required,min=8,max=256"`
	Labels   []string      `json:"-"`
	Prefs    session.Prefs `json:"-"`
}

func (nu *NewUser) Clean() {
	nu.UserID = core.CleanString(nu.UserID)
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
}

func (nu NewUser) Validate() error { return core.ValidateStruct(nu) }

// QueryFilter applies AND on its non-empty fields.
type QueryFilter struct {
	Label string
	Day   string
	IDs   []string
}

func (qf QueryFilter) Match(u User) bool {
	if qf.Label != "" && !u.HasLabel(qf.Label) {
		return false
	}
	if qf.Day != "" && !strings.EqualFold(u.Prefs.Day, qf.Day) {
		return false
	}
	if len(qf.IDs) > 0 {
		for _, id := range qf.IDs {
			if id == u.ID {
				return true
			}
		}
		return false
	}
	return true
}

// Session is a login session of a User.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	Expire    time.Time
}

func (s Session) Expired(now time.Time) bool { return !now.Before(s.Expire) }

func (s Session) Public() session.Session {
	return session.Session{ID: s.ID, UserID: s.UserID, Expire: s.Expire, Current: true}
}
