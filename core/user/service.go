package user

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/preceptor/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrUserExists         = errors.New("A user with the same id, email, or phone already exists in this project.")
	ErrInvalidCredentials = errors.New("Invalid credentials. Please check the email and password.")
	ErrSessionNotFound    = errors.New("session not found")

	NowFunc = time.Now // mockable
)

type (
	Repository interface {
		CheckUniqueness(id, email string) error
		CreateUser(user User) (User, error)
		QueryAllUsers() ([]User, error)
		GetUserByID(id string) (User, error)
		GetUserByEmail(email string) (User, error)
		// FilterUsers applies QueryFilter.Match on every user.
		FilterUsers(filter QueryFilter) ([]User, error)
		UpdateUser(user User) (User, error)

		CreateSession(sess Session) (Session, error)
		GetSession(id string) (Session, error)
		DeleteSession(id string) error
	}

	Service struct {
		repo       Repository
		sessionTTL time.Duration
	}
)

func NewService(repo Repository, conf *core.Config) *Service {
	return &Service{repo: repo, sessionTTL: conf.Server.SessionExpirationDelta}
}

func (svc *Service) Create(nu NewUser) (User, error) {
	nu.Clean()
	if err := nu.Validate(); err != nil {
		return User{}, err
	}
	if nu.UserID == "" || nu.UserID == "unique()" {
		nu.UserID = uuid.New().String()
	}
	if err := svc.repo.CheckUniqueness(nu.UserID, nu.Email); err != nil {
		return User{}, err
	}

	now := NowFunc().UTC()
	usr := User{
		ID:        nu.UserID,
		Name:      nu.Name,
		Email:     nu.Email,
		Labels:    nu.Labels,
		Prefs:     nu.Prefs,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(usr)
}

// Login checks the credentials and opens a new session.
func (svc *Service) Login(email, pwd string) (User, Session, error) {
	usr, err := svc.repo.GetUserByEmail(core.CleanString(email, true /* lower */))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, Session{}, ErrInvalidCredentials
		}
		return User{}, Session{}, err
	}
	if err := usr.CheckPassword(pwd); err != nil {
		return User{}, Session{}, ErrInvalidCredentials
	}

	now := NowFunc().UTC()
	usr.LastLogin = now
	if usr, err = svc.repo.UpdateUser(usr); err != nil {
		return User{}, Session{}, err
	}
	sess, err := svc.repo.CreateSession(Session{
		ID:        uuid.New().String(),
		UserID:    usr.ID,
		CreatedAt: now,
		Expire:    now.Add(svc.sessionTTL),
	})
	return usr, sess, err
}

// Session returns a live session. Expired sessions are deleted and reported as not found.
func (svc *Service) Session(id string) (Session, error) {
	sess, err := svc.repo.GetSession(id)
	if err != nil {
		return Session{}, err
	}
	if sess.Expired(NowFunc()) {
		_ = svc.repo.DeleteSession(id)
		return Session{}, ErrSessionNotFound
	}
	return sess, nil
}

func (svc *Service) Logout(sessionID string) error {
	return svc.repo.DeleteSession(sessionID)
}

func (svc *Service) GetByID(id string) (User, error) {
	return svc.repo.GetUserByID(id)
}

func (svc *Service) QueryAll() ([]User, error) {
	return svc.repo.QueryAllUsers()
}

// SetLabel makes label the user's effective role, keeping the other labels after it.
func (svc *Service) SetLabel(form LabelForm) (User, error) {
	if err := form.Validate(); err != nil {
		return User{}, err
	}
	usr, err := svc.repo.GetUserByID(form.UserID)
	if err != nil {
		return User{}, err
	}
	labels := []string{form.Label}
	for _, l := range usr.Labels {
		if l != form.Label {
			labels = append(labels, l)
		}
	}
	usr.Labels = labels
	usr.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateUser(usr)
}

// SearchPreceptors finds preceptors by name or email, best matches first.
func (svc *Service) SearchPreceptors(term string) ([]User, error) {
	preceptors, err := svc.repo.FilterUsers(QueryFilter{Label: core.RolePreceptor})
	if err != nil {
		return nil, err
	}
	found := make([]User, 0, len(preceptors))
	for _, u := range preceptors {
		if Matches(u, term) {
			found = append(found, u)
		}
	}
	sort.SliceStable(found, func(i, j int) bool {
		return Similarity(found[i].Name, term) > Similarity(found[j].Name, term)
	})
	return found, nil
}

func (svc *Service) Filter(filter QueryFilter) ([]User, error) {
	return svc.repo.FilterUsers(filter)
}
