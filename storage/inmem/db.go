package inmemdb

import (
	"sync"

	"github.com/trezcool/preceptor/core/placement"
	"github.com/trezcool/preceptor/core/user"
)

type (
	DB struct {
		user    *userTable
		session *sessionTable
		request *requestTable
	}

	userTable struct {
		mutex sync.RWMutex
		table map[string]*user.User
	}

	sessionTable struct {
		mutex sync.RWMutex
		table map[string]*user.Session
	}

	requestTable struct {
		mutex sync.RWMutex
		table map[string]*placement.Request
	}
)

func Open() *DB {
	return &DB{
		user:    &userTable{table: make(map[string]*user.User)},
		session: &sessionTable{table: make(map[string]*user.Session)},
		request: &requestTable{table: make(map[string]*placement.Request)},
	}
}
