package views

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouter(t *testing.T) {
	r := NewRouter(RouteLogin)

	r.Push(RouteSignup)
	assert.Equal(t, RouteSignup, r.Current())
	assert.True(t, r.Back())
	assert.Equal(t, RouteLogin, r.Current())
	assert.False(t, r.Back(), "nothing left to go back to")

	r.Push(RouteSignup)
	r.Replace(RouteProfile)
	assert.Equal(t, RouteProfile, r.Current())
	assert.False(t, r.Back(), "replace forgets the history")

	r.Push(RouteNotifications)
	r.Push(RouteNotifications)
	assert.True(t, r.Back())
	assert.Equal(t, RouteProfile, r.Current(), "pushing the current route is a no-op")

	r.Alert("Error", "first")
	r.Alert("Success", "second")
	assert.Equal(t, []Alert{{"Error", "first"}, {"Success", "second"}}, r.Alerts())
	assert.Empty(t, r.Alerts())
}

func TestViewState(t *testing.T) {
	var s viewState

	assert.True(t, s.update(func() {}))
	assert.True(t, s.close())
	assert.False(t, s.close())
	assert.True(t, s.Closed())

	called := false
	assert.False(t, s.update(func() { called = true }))
	assert.False(t, called, "a closed view ignores updates")
}
