package directory

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/preceptor/core"
	"github.com/trezcool/preceptor/core/function"
)

const (
	DefaultSpecialty = "Not specified"
	DefaultDay       = "Not assigned"

	MsgSearchFailed = "An error occurred while searching. Please try again."
	MsgFetchFailed  = "Failed to fetch preceptors"
)

type (
	// PreceptorInfo is rebuilt from every query response and never cached beyond the current view.
	PreceptorInfo struct {
		ID        string
		Name      string
		Email     string
		Specialty string
		Day       string
	}

	remotePrefs struct {
		Specialty string `json:"specialty"`
		Day       string `json:"day"`
	}

	remoteUser struct {
		ID    string       `json:"$id"`
		Name  string       `json:"name"`
		Email string       `json:"email"`
		Prefs *remotePrefs `json:"prefs"`
	}

	usersPayload struct {
		Users json.RawMessage `json:"users"`
	}

	Service struct {
		fn        function.Caller
		minLength int
		logger    core.Logger
	}
)

func NewService(fn function.Caller, conf *core.Config, logger core.Logger) *Service {
	minLength := conf.Search.MinLength
	if minLength <= 0 {
		minLength = 2
	}
	return &Service{fn: fn, minLength: minLength, logger: logger}
}

// MinLength is the shortest trimmed term that reaches the server.
func (svc *Service) MinLength() int { return svc.minLength }

// TooShort reports whether a non-empty term is below the minimum length.
func (svc *Service) TooShort(term string) bool {
	n := len([]rune(strings.TrimSpace(term)))
	return n > 0 && n < svc.minLength
}

// Search looks preceptors up by name or email. Terms shorter than MinLength return no results
// without calling the server.
func (svc *Service) Search(ctx context.Context, term string) ([]PreceptorInfo, error) {
	term = strings.TrimSpace(term)
	if len([]rune(term)) < svc.minLength {
		return nil, nil
	}

	resp, err := svc.fn.Call(ctx, function.ActionSearchPreceptors, map[string]string{"search": term})
	if err != nil {
		return nil, errors.Wrap(err, "searching preceptors")
	}
	users, err := decodeUsers(resp)
	if err != nil {
		return nil, err
	}

	preceptors := make([]PreceptorInfo, 0, len(users))
	for _, usr := range users {
		preceptors = append(preceptors, usr.toPreceptor(DefaultDay))
	}
	return preceptors, nil
}

// Current returns the preceptor assigned for day, or nil when there is none.
func (svc *Service) Current(ctx context.Context, day string) (*PreceptorInfo, error) {
	resp, err := svc.fn.Call(ctx, function.ActionGetCurrentPreceptor, map[string]string{
		"role": core.RolePreceptor,
		"day":  day,
	})
	if err != nil {
		return nil, errors.Wrap(err, "fetching current preceptor")
	}
	users, err := decodeUsers(resp)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	p := users[0].toPreceptor(day)
	return &p, nil
}

// decodeUsers reads data.users. A missing or non-array list means no results.
func decodeUsers(resp function.Response) ([]remoteUser, error) {
	var payload usersPayload
	if err := resp.Bind(&payload); err != nil {
		return nil, err
	}
	if len(payload.Users) == 0 || payload.Users[0] != '[' {
		return nil, nil
	}
	var users []remoteUser
	if err := json.Unmarshal(payload.Users, &users); err != nil {
		return nil, core.NewParseError(errors.Wrap(err, "decoding users"))
	}
	return users, nil
}

func (usr remoteUser) toPreceptor(defaultDay string) PreceptorInfo {
	p := PreceptorInfo{
		ID:        usr.ID,
		Name:      usr.Name,
		Email:     usr.Email,
		Specialty: DefaultSpecialty,
		Day:       defaultDay,
	}
	if p.Name == "" {
		p.Name = core.EmailLocalName(usr.Email)
	}
	if usr.Prefs != nil {
		if usr.Prefs.Specialty != "" {
			p.Specialty = usr.Prefs.Specialty
		}
		if usr.Prefs.Day != "" {
			p.Day = usr.Prefs.Day
		}
	}
	return p
}

// Today is the weekday name used as the "day" of a shift.
func Today(now time.Time) string {
	return now.Weekday().String()
}
