package views

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/preceptor/core"
	"github.com/trezcool/preceptor/core/notification"
	"github.com/trezcool/preceptor/core/pairing"
	"github.com/trezcool/preceptor/core/realtime"
	"github.com/trezcool/preceptor/core/session"
)

type ReadTab string

const (
	TabAll    ReadTab = "all"
	TabUnread ReadTab = "unread"
)

var (
	ErrNoSuchNotification = errors.New("no such notification")
	ErrNotARequest        = errors.New("notification is not a pending request")
)

type NotificationsView struct {
	viewState
	sessions *session.Service
	pairing  *pairing.Service
	bridge   *realtime.Bridge
	router   *Router
	logger   core.Logger
	now      func() time.Time

	list    *notification.List
	user    *session.User
	typ     notification.Type
	readTab ReadTab
}

func NewNotificationsView(d Deps) *NotificationsView {
	list := notification.NewList()
	if d.Conf.SeedData {
		list = notification.NewList(notification.Seed(d.now())...)
	}
	return &NotificationsView{
		sessions: d.Sessions,
		pairing:  d.Pairing,
		bridge:   realtime.NewBridge(d.Subscriber, d.Logger),
		router:   d.Router,
		logger:   d.Logger,
		now:      d.now,
		list:     list,
		readTab:  TabAll,
	}
}

// Load fetches the current user, then listens for the requests addressed to them. A failure
// is logged; the list stays usable.
func (v *NotificationsView) Load(ctx context.Context) error {
	if v.Closed() {
		return ErrClosed
	}
	usr, err := v.sessions.CurrentUser(ctx)
	if err != nil {
		v.logger.Error("failed to fetch user", err)
		return err
	}
	if !v.update(func() { v.user = &usr }) {
		return ErrClosed
	}

	stop, err := v.bridge.Watch(ctx, usr.ID, realtime.RequestsFor(usr.ID), v.onRequest)
	if err != nil {
		v.logger.Warn("realtime unavailable", err, usr)
		return nil
	}
	if v.Closed() {
		stop()
	}
	return nil
}

func (v *NotificationsView) onRequest(evt realtime.Event) {
	var doc notification.RequestDocument
	if err := evt.Bind(&doc); err != nil {
		v.logger.Warn("ignoring request event", err)
		return
	}
	v.update(func() {
		if !v.list.Prepend(notification.FromRequest(doc, v.now())) {
			v.logger.Debug("request already listed", map[string]interface{}{"id": doc.ID})
		}
	})
}

// SetTypeFilter shows only notifications of typ; "" shows every type.
func (v *NotificationsView) SetTypeFilter(typ notification.Type) {
	v.update(func() { v.typ = typ })
}

func (v *NotificationsView) SetReadTab(tab ReadTab) {
	if tab != TabAll && tab != TabUnread {
		return
	}
	v.update(func() { v.readTab = tab })
}

func (v *NotificationsView) filter() (f notification.Filter) {
	v.read(func() {
		f = notification.Filter{Type: v.typ, UnreadOnly: v.readTab == TabUnread}
	})
	return
}

// Shown returns the notifications matching the current filters, newest first.
func (v *NotificationsView) Shown() []notification.Notification {
	return v.list.Filter(v.filter())
}

func (v *NotificationsView) All() []notification.Notification {
	return v.list.All()
}

func (v *NotificationsView) UnreadCount() int {
	return v.list.UnreadCount()
}

// Summary is the footer under the list.
func (v *NotificationsView) Summary() string {
	return notification.Summary(len(v.Shown()), v.list.Len())
}

func (v *NotificationsView) MarkAsRead(id string) error {
	if !v.list.MarkAsRead(id) {
		return ErrNoSuchNotification
	}
	return nil
}

func (v *NotificationsView) MarkAllAsRead() { v.list.MarkAllAsRead() }

func (v *NotificationsView) ClearAll() { v.list.ClearAll() }

func (v *NotificationsView) Confirm(ctx context.Context, id string) error {
	return v.decide(ctx, pairing.DecisionConfirm, id, v.pairing.Confirm)
}

func (v *NotificationsView) Reject(ctx context.Context, id string) error {
	return v.decide(ctx, pairing.DecisionReject, id, v.pairing.Reject)
}

type answerFunc func(ctx context.Context, preceptorID string, n notification.Notification) error

// decide answers the request behind id. The outcome, success or failure, is recorded in the
// list rather than returned: only a missing or non-request entry is an error.
func (v *NotificationsView) decide(ctx context.Context, d pairing.Decision, id string, send answerFunc) error {
	n, ok := v.list.Get(id)
	if !ok {
		return ErrNoSuchNotification
	}
	if !n.IsPendingRequest() {
		return ErrNotARequest
	}
	var preceptorID string
	v.read(func() {
		if v.user != nil {
			preceptorID = v.user.ID
		}
	})
	if preceptorID == "" {
		return core.NewSessionError("Not logged in")
	}

	err := send(ctx, preceptorID, n)
	if err != nil {
		v.logger.Error("failed to answer request", err, map[string]interface{}{"id": id})
	}
	v.update(func() { pairing.Apply(v.list, d, n, err, v.now()) })
	return nil
}

// Back closes the view and returns to the previous screen.
func (v *NotificationsView) Back() {
	v.Close()
	if !v.router.Back() {
		v.router.Replace(RouteProfile)
	}
}

// Close ends the realtime subscription. Later events and responses are dropped.
func (v *NotificationsView) Close() {
	if !v.close() {
		return
	}
	v.bridge.Stop()
}
