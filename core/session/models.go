package session

import (
	"strings"
	"time"

	"github.com/trezcool/preceptor/core"
)

// CurrentSession addresses the session of the calling client.
const CurrentSession = "current"

var roleTitles = map[string]string{
	core.RoleStudent:     "Student Nurse",
	core.RolePreceptor:   "Preceptor",
	core.RoleFacilitator: "Clinical Facilitator",
}

// Prefs holds the free-form preferences the backend keeps on an identity.
type Prefs struct {
	Specialty string `json:"specialty,omitempty"`
	Day       string `json:"day,omitempty"`
}

type User struct {
	ID        string    `json:"$id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Labels    []string  `json:"labels"`
	Prefs     Prefs     `json:"prefs"`
	CreatedAt time.Time `json:"$createdAt"` // UTC
}

// Role returns the effective role: the first label, if any.
func (u User) Role() string {
	if len(u.Labels) == 0 {
		return ""
	}
	return u.Labels[0]
}

func (u User) IsStudent() bool     { return u.Role() == core.RoleStudent }
func (u User) IsPreceptor() bool   { return u.Role() == core.RolePreceptor }
func (u User) IsFacilitator() bool { return u.Role() == core.RoleFacilitator }

type Session struct {
	ID      string    `json:"$id"`
	UserID  string    `json:"userId"`
	Expire  time.Time `json:"expire"`
	Current bool      `json:"current"`
}

func (s Session) IsZero() bool { return s.ID == "" }

// Profile is the dashboard projection of the current User.
type Profile struct {
	ID         string
	Name       string
	Email      string
	Title      string
	Phone      string
	Location   string
	Department string
	JoinDate   string
}

func NewProfile(usr User) Profile {
	return Profile{
		ID:         usr.ID,
		Name:       DisplayName(usr.Email),
		Email:      usr.Email,
		Title:      RoleTitle(usr.Labels),
		Phone:      "Not set",
		Location:   "Not set",
		Department: "UWA",
		JoinDate:   usr.CreatedAt.Format("January 2006"),
	}
}

// DisplayName derives a name from the email local part: "jane.doe@x.io" -> "Jane Doe".
func DisplayName(email string) string {
	words := strings.Split(core.EmailLocalName(email), " ")
	for i, w := range words {
		words[i] = core.Capitalize(w)
	}
	return strings.Join(words, " ")
}

// RoleTitle maps the first label to its display title.
func RoleTitle(labels []string) string {
	if len(labels) == 0 || labels[0] == "" {
		return "User"
	}
	if title, ok := roleTitles[labels[0]]; ok {
		return title
	}
	return core.Capitalize(labels[0])
}
