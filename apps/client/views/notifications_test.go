package views_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/preceptor/apps/client/views"
	"github.com/trezcool/preceptor/core"
	"github.com/trezcool/preceptor/core/notification"
	"github.com/trezcool/preceptor/core/realtime"
	"github.com/trezcool/preceptor/tests"
)

func TestNotificationsView_filters(t *testing.T) {
	conf := core.NewTestConfig()
	conf.SeedData = true
	c := newClient(t, conf)
	v := views.NewNotificationsView(c.deps)
	defer v.Close()

	tests := []struct {
		name        string
		typ         notification.Type
		tab         views.ReadTab
		wantIDs     []string
		wantSummary string
	}{
		{name: "all", tab: views.TabAll, wantIDs: []string{"1", "2", "3", "4", "5", "6", "7", "8"}, wantSummary: "Showing 8 of 8 notifications"},
		{name: "unread", tab: views.TabUnread, wantIDs: []string{"1", "2", "4", "6"}, wantSummary: "Showing 4 of 8 notifications"},
		{name: "warnings", typ: notification.TypeWarning, tab: views.TabAll, wantIDs: []string{"3", "6"}, wantSummary: "Showing 2 of 8 notifications"},
		{name: "unread warnings", typ: notification.TypeWarning, tab: views.TabUnread, wantIDs: []string{"6"}, wantSummary: "Showing 1 of 8 notifications"},
		{name: "requests", typ: notification.TypeRequest, tab: views.TabAll, wantSummary: "No notifications"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v.SetTypeFilter(tt.typ)
			v.SetReadTab(tt.tab)

			var ids []string
			for _, n := range v.Shown() {
				ids = append(ids, n.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantSummary, v.Summary())
		})
	}
}

func TestNotificationsView_actions(t *testing.T) {
	conf := core.NewTestConfig()
	conf.SeedData = true
	c := newClient(t, conf)
	v := views.NewNotificationsView(c.deps)
	defer v.Close()
	ctx := context.Background()

	assert.Equal(t, 4, v.UnreadCount())
	assert.NoError(t, v.MarkAsRead("1"))
	assert.Equal(t, 3, v.UnreadCount())
	assert.Equal(t, views.ErrNoSuchNotification, v.MarkAsRead("42"))

	assert.Equal(t, views.ErrNotARequest, v.Confirm(ctx, "2"))
	assert.Equal(t, views.ErrNoSuchNotification, v.Reject(ctx, "42"))

	v.MarkAllAsRead()
	assert.Equal(t, 0, v.UnreadCount())

	v.ClearAll()
	assert.Empty(t, v.All())
	assert.Equal(t, "No notifications", v.Summary())
}

func TestNotificationsView_realtime(t *testing.T) {
	b := testutil.NewBackend(t)
	preceptor := testutil.CreateUser(t, b.UserSvc, "Jane Doe", "jane@uwa.edu.au", "preceptor123", core.RolePreceptor)
	ctx := context.Background()

	sub := &fakeSubscriber{}
	c := newClient(t, b.Conf)
	c.deps.Subscriber = sub

	v := views.NewNotificationsView(c.deps)
	defer v.Close()
	assert.True(t, core.IsSession(v.Load(ctx)), "no session yet")

	c.login(t, "jane@uwa.edu.au", "preceptor123")
	if err := v.Load(ctx); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	sub.push(t, realtime.EventDocumentCreate, requestDoc("r1", preceptor.ID))
	sub.push(t, realtime.EventDocumentCreate, requestDoc("r1", preceptor.ID))
	sub.push(t, realtime.EventDocumentCreate, requestDoc("r2", "someone-else"))
	sub.push(t, realtime.EventDocumentUpdate, requestDoc("r3", preceptor.ID))

	all := v.All()
	if assert.Len(t, all, 1, "one request, listed once") {
		assert.Equal(t, "r1", all[0].ID)
		assert.Equal(t, notification.TypeRequest, all[0].Type)
		assert.Equal(t, wednesday, all[0].Timestamp)
	}

	// the request does not exist on the server: the failure becomes a new entry
	assert.NoError(t, v.Reject(ctx, "r1"))
	all = v.All()
	if assert.Len(t, all, 2) {
		assert.Equal(t, notification.TypeError, all[0].Type)
		assert.Equal(t, "Failed to reject request. Please try again.", all[0].Message)
		assert.False(t, all[0].Read)
		assert.Equal(t, "r1", all[1].ID)
		assert.True(t, all[1].IsPendingRequest(), "the request can be answered again")
	}

	v.Close()
	sub.push(t, realtime.EventDocumentCreate, requestDoc("r4", preceptor.ID))
	assert.Len(t, v.All(), 2, "events after close are dropped")
	assert.Equal(t, 1, sub.closeCount())
}
