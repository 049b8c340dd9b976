package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ids(ns []Notification) []string {
	res := make([]string, 0, len(ns))
	for _, n := range ns {
		res = append(res, n.ID)
	}
	return res
}

func TestList_Prepend(t *testing.T) {
	l := NewList(Notification{ID: "1"}, Notification{ID: "2"})
	assert.Equal(t, []string{"1", "2"}, ids(l.All()))

	assert.True(t, l.Prepend(Notification{ID: "3"}))
	assert.False(t, l.Prepend(Notification{ID: "1", Message: "dup"}))
	assert.Equal(t, []string{"3", "1", "2"}, ids(l.All()))

	n, _ := l.Get("1")
	assert.Equal(t, "", n.Message)
}

func TestList_readState(t *testing.T) {
	l := NewList(Seed(time.Now())...)
	assert.Equal(t, 8, l.Len())
	assert.Equal(t, 4, l.UnreadCount())

	assert.True(t, l.MarkAsRead("1"))
	assert.False(t, l.MarkAsRead("unknown"))
	assert.Equal(t, 3, l.UnreadCount())

	l.MarkAllAsRead()
	assert.Equal(t, 0, l.UnreadCount())
	assert.Equal(t, 8, l.Len())

	l.ClearAll()
	assert.Equal(t, 0, l.Len())
	assert.Empty(t, l.All())
}

func TestList_Filter(t *testing.T) {
	l := NewList(Seed(time.Now())...)

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{name: "all", filter: Filter{}, want: []string{"1", "2", "3", "4", "5", "6", "7", "8"}},
		{name: "unread", filter: Filter{UnreadOnly: true}, want: []string{"1", "2", "4", "6"}},
		{name: "info", filter: Filter{Type: TypeInfo}, want: []string{"4", "5", "8"}},
		{name: "unread warnings", filter: Filter{Type: TypeWarning, UnreadOnly: true}, want: []string{"6"}},
		{name: "requests", filter: Filter{Type: TypeRequest}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(l.Filter(tt.filter)))
		})
	}
}

func TestClearAllThenRequest(t *testing.T) {
	l := NewList(Seed(time.Now())...)
	l.ClearAll()

	doc := RequestDocument{ID: "req1", StudentID: "s1", StudentName: "Jane Doe", StudentEmail: "jane@uwa.edu.au", PreceptorID: "p1", Day: "Monday"}
	assert.True(t, l.Prepend(FromRequest(doc, time.Now())))

	all := l.All()
	if assert.Len(t, all, 1) {
		assert.Equal(t, "Jane Doe has requested you as a preceptor today. Please confirm.", all[0].Message)
		assert.Equal(t, TypeRequest, all[0].Type)
		assert.False(t, all[0].Read)
		assert.True(t, all[0].IsPendingRequest())
		assert.Equal(t, "s1", all[0].StudentID)
		assert.Equal(t, "Monday", all[0].Day)
	}
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "No notifications", Summary(0, 8))
	assert.Equal(t, "Showing 3 of 8 notifications", Summary(3, 8))
}

func TestAge(t *testing.T) {
	now := time.Now()
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{ago: 10 * time.Second, want: "just now"},
		{ago: time.Minute, want: "1 minute ago"},
		{ago: 30 * time.Minute, want: "30 minutes ago"},
		{ago: 2 * time.Hour, want: "2 hours ago"},
		{ago: 72 * time.Hour, want: "3 days ago"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Age(now.Add(-tt.ago), now))
		})
	}
}
