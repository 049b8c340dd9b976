package inmemdb

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/preceptor/core/user"
)

type userRepository struct {
	db      *userTable
	session *sessionTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user, session: db.session}
}

// query returns every user, oldest first.
func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.table))
	for _, u := range repo.db.table {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users
}

func (repo *userRepository) CheckUniqueness(id, email string) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if _, ok := repo.db.table[id]; ok {
		return user.ErrUserExists
	}
	for _, usr := range repo.db.table {
		if usr.Email == email {
			return user.ErrUserExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[usr.ID]; ok {
		return user.User{}, user.ErrUserExists
	}
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) QueryAllUsers() ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(), nil
}

func (repo *userRepository) GetUserByID(id string) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if usr, ok := repo.db.table[id]; ok {
		return *usr, nil
	}
	return user.User{}, errors.WithStack(user.ErrNotFound)
}

func (repo *userRepository) GetUserByEmail(email string) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.db.table {
		if usr.Email == email {
			return *usr, nil
		}
	}
	return user.User{}, errors.WithStack(user.ErrNotFound)
}

func (repo *userRepository) FilterUsers(filter user.QueryFilter) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	users := make([]user.User, 0)
	for _, u := range repo.query() {
		if filter.Match(u) {
			users = append(users, u)
		}
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[usr.ID]; !ok {
		return user.User{}, errors.WithStack(user.ErrNotFound)
	}
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) CreateSession(sess user.Session) (user.Session, error) {
	repo.session.mutex.Lock()
	defer repo.session.mutex.Unlock()

	repo.session.table[sess.ID] = &sess
	return sess, nil
}

func (repo *userRepository) GetSession(id string) (user.Session, error) {
	repo.session.mutex.RLock()
	defer repo.session.mutex.RUnlock()

	if sess, ok := repo.session.table[id]; ok {
		return *sess, nil
	}
	return user.Session{}, errors.WithStack(user.ErrSessionNotFound)
}

func (repo *userRepository) DeleteSession(id string) error {
	repo.session.mutex.Lock()
	defer repo.session.mutex.Unlock()

	if _, ok := repo.session.table[id]; !ok {
		return errors.WithStack(user.ErrSessionNotFound)
	}
	delete(repo.session.table, id)
	return nil
}
