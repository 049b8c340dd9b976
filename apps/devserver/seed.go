package main

import (
	"github.com/pkg/errors"

	"github.com/trezcool/preceptor/core"
	"github.com/trezcool/preceptor/core/session"
	"github.com/trezcool/preceptor/core/user"
)

// seedUsers creates the configured users, skipping those that already exist.
// It returns the number of users created.
func seedUsers(seeds []core.SeedUser, svc *user.Service, logger core.Logger) int {
	created := 0
	for _, s := range seeds {
		nu := user.NewUser{
			Name:     s.Name,
			Email:    s.Email,
			Password: s.Password,
			Prefs:    session.Prefs{Specialty: s.Specialty, Day: s.Day},
		}
		if s.Label != "" {
			nu.Labels = []string{s.Label}
		}
		if _, err := svc.Create(nu); err != nil {
			if !errors.Is(err, user.ErrUserExists) {
				logger.Error("seeding user", errors.Wrap(err, s.Email))
			}
			continue
		}
		created++
	}
	return created
}
