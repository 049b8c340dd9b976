package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/preceptor/core"
	"github.com/trezcool/preceptor/core/directory"
	"github.com/trezcool/preceptor/core/notification"
	"github.com/trezcool/preceptor/core/pairing"
	"github.com/trezcool/preceptor/core/realtime"
	"github.com/trezcool/preceptor/core/session"
)

type Tab string

const (
	TabToday    Tab = "today"
	TabSchedule Tab = "schedule"
)

// Texts of the profile screen.
const (
	MsgSearching        = "Searching..."
	MsgNoResults        = "No preceptors found matching your search."
	MsgInvalidResponse  = "Invalid response from server. Please try again."
	MsgNoPreceptor      = "No preceptor assigned for today."
	MsgLoadingPreceptor = "Loading today's preceptor..."

	ShiftHours  = "7:00 AM - 3:30 PM"
	TeamMembers = "5 nurses, 2 assistants"
)

var ErrNoSuchPreceptor = errors.New("no such preceptor in the search results")

// ScheduleRow is one line of the weekly schedule tab.
type ScheduleRow struct {
	directory.PreceptorInfo
	Today bool
}

// pairingPayload is a confirmed request; specialty is optional.
type pairingPayload struct {
	notification.RequestDocument
	Specialty string `json:"specialty"`
}

type ProfileView struct {
	viewState
	sessions  *session.Service
	directory *directory.Service
	pairing   *pairing.Service
	bridge    *realtime.Bridge
	debouncer *directory.Debouncer
	router    *Router
	logger    core.Logger
	now       func() time.Time

	profile          *session.Profile
	loading          bool
	loadingPreceptor bool
	currentDay       string
	current          *directory.PreceptorInfo
	tab              Tab

	term      string
	results   []directory.PreceptorInfo
	searching bool
	searchErr string
}

func NewProfileView(d Deps) *ProfileView {
	return &ProfileView{
		sessions:         d.Sessions,
		directory:        d.Directory,
		pairing:          d.Pairing,
		bridge:           realtime.NewBridge(d.Subscriber, d.Logger),
		debouncer:        directory.NewDebouncer(d.Conf.Search.Debounce),
		router:           d.Router,
		logger:           d.Logger,
		now:              d.now,
		loading:          true,
		loadingPreceptor: true,
		tab:              TabToday,
	}
}

// Load resolves the session and the user, then today's preceptor, and starts listening for
// confirmed pairings. Without a session the login screen opens.
func (v *ProfileView) Load(ctx context.Context) error {
	if v.Closed() {
		return ErrClosed
	}

	usr, err := v.loadUser(ctx)
	if err != nil {
		v.logger.Error("failed to fetch user data", err)
		v.update(func() {
			v.loading = false
			v.loadingPreceptor = false
			v.router.Replace(RouteLogin)
		})
		return err
	}

	profile := session.NewProfile(usr)
	day := directory.Today(v.now())
	if !v.update(func() {
		v.profile = &profile
		v.currentDay = day
		v.loading = false
	}) {
		return ErrClosed
	}

	current, err := v.directory.Current(ctx, day)
	if err != nil {
		v.logger.Warn("failed to fetch current preceptor", err, usr)
	}
	v.update(func() {
		v.current = current
		v.loadingPreceptor = false
	})

	stop, err := v.bridge.Watch(ctx, usr.ID, realtime.PairingsFor(usr.ID), v.onPairing)
	if err != nil {
		v.logger.Warn("realtime unavailable", err, usr)
		return nil
	}
	if v.Closed() {
		stop()
	}
	return nil
}

func (v *ProfileView) loadUser(ctx context.Context) (session.User, error) {
	if _, err := v.sessions.AwaitSession(ctx); err != nil {
		return session.User{}, err
	}
	return v.sessions.CurrentUser(ctx)
}

func (v *ProfileView) onPairing(evt realtime.Event) {
	var payload pairingPayload
	if err := evt.Bind(&payload); err != nil {
		v.logger.Warn("ignoring pairing event", err)
		return
	}
	v.update(func() {
		p := &directory.PreceptorInfo{
			ID:        payload.PreceptorID,
			Name:      payload.PreceptorName,
			Email:     payload.PreceptorEmail,
			Specialty: payload.Specialty,
			Day:       payload.Day,
		}
		if p.Specialty == "" {
			p.Specialty = directory.DefaultSpecialty
		}
		if p.Day == "" {
			p.Day = v.currentDay
		}
		v.current = p
	})
}

// SetSearchTerm stores term and schedules a search once typing pauses. A term below the
// minimum length shows an inline hint instead.
func (v *ProfileView) SetSearchTerm(term string) {
	v.update(func() {
		v.term = term
		trimmed := strings.TrimSpace(term)
		switch {
		case trimmed == "":
			v.debouncer.Stop()
			v.results, v.searchErr, v.searching = nil, "", false
		case v.directory.TooShort(trimmed):
			v.debouncer.Stop()
			v.results, v.searching = nil, false
			v.searchErr = fmt.Sprintf("Please enter at least %d characters", v.directory.MinLength())
		default:
			v.searchErr, v.searching = "", true
			v.debouncer.Trigger(v.search(trimmed))
		}
	})
}

func (v *ProfileView) search(term string) func(ctx context.Context, current func() bool) {
	return func(ctx context.Context, current func() bool) {
		results, err := v.directory.Search(ctx, term)
		v.update(func() {
			if !current() {
				return
			}
			v.searching = false
			if err != nil {
				v.logger.Warn("search failed", err, map[string]interface{}{"term": term})
				v.results = nil
				v.searchErr = searchErrorMessage(err)
				return
			}
			v.results = results
		})
	}
}

func searchErrorMessage(err error) string {
	if core.IsParse(err) {
		return MsgInvalidResponse
	}
	return core.FriendlyMessage(err, directory.MsgSearchFailed)
}

func (v *ProfileView) SearchTerm() (term string) {
	v.read(func() { term = v.term })
	return
}

func (v *ProfileView) Results() (res []directory.PreceptorInfo) {
	v.read(func() { res = append(res, v.results...) })
	return
}

// SearchStatus is the text shown in place of the results: the inline error, the searching
// state or the empty result message.
func (v *ProfileView) SearchStatus() (status string) {
	v.read(func() {
		switch {
		case v.searchErr != "":
			status = v.searchErr
		case v.searching:
			status = MsgSearching
		case strings.TrimSpace(v.term) != "" && len(v.results) == 0:
			status = MsgNoResults
		}
	})
	return
}

func (v *ProfileView) Searching() (searching bool) {
	v.read(func() { searching = v.searching })
	return
}

// Request asks the i-th search result to supervise the user today and returns that preceptor.
// On success the search is cleared; a failure is only logged.
func (v *ProfileView) Request(ctx context.Context, i int) (directory.PreceptorInfo, error) {
	var (
		profile   session.Profile
		preceptor directory.PreceptorInfo
		day       string
		ok        bool
	)
	v.read(func() {
		if v.closed || v.profile == nil || i < 0 || i >= len(v.results) {
			return
		}
		profile, preceptor, day, ok = *v.profile, v.results[i], v.currentDay, true
	})
	if !ok {
		return directory.PreceptorInfo{}, ErrNoSuchPreceptor
	}

	if err := v.pairing.Request(ctx, profile, preceptor, day); err != nil {
		v.logger.Error("failed to request preceptor", err)
		return preceptor, err
	}
	v.update(func() {
		v.debouncer.Stop()
		v.term, v.results, v.searchErr, v.searching = "", nil, "", false
	})
	return preceptor, nil
}

func (v *ProfileView) SetTab(tab Tab) {
	if tab != TabToday && tab != TabSchedule {
		return
	}
	v.update(func() { v.tab = tab })
}

func (v *ProfileView) Tab() (tab Tab) {
	v.read(func() { tab = v.tab })
	return
}

// Schedule lists the search results by day, flagging today's.
func (v *ProfileView) Schedule() (rows []ScheduleRow) {
	v.read(func() {
		for _, p := range v.results {
			rows = append(rows, ScheduleRow{PreceptorInfo: p, Today: p.Day == v.currentDay})
		}
	})
	return
}

// Profile returns the loaded profile, nil while loading.
func (v *ProfileView) Profile() (p *session.Profile) {
	v.read(func() {
		if v.profile != nil {
			cp := *v.profile
			p = &cp
		}
	})
	return
}

func (v *ProfileView) Loading() (loading bool) {
	v.read(func() { loading = v.loading })
	return
}

func (v *ProfileView) CurrentDay() (day string) {
	v.read(func() { day = v.currentDay })
	return
}

// CurrentPreceptor returns today's preceptor, nil when there is none.
func (v *ProfileView) CurrentPreceptor() (p *directory.PreceptorInfo) {
	v.read(func() {
		if v.current != nil {
			cp := *v.current
			p = &cp
		}
	})
	return
}

// PreceptorStatus is the text shown in place of a missing current preceptor.
func (v *ProfileView) PreceptorStatus() (status string) {
	v.read(func() {
		switch {
		case v.loadingPreceptor:
			status = MsgLoadingPreceptor
		case v.current == nil:
			status = MsgNoPreceptor
		}
	})
	return
}

// Realtime reports the state of the pairing subscription.
func (v *ProfileView) Realtime() realtime.State {
	return v.bridge.State()
}

// Logout ends the session and opens the login screen.
func (v *ProfileView) Logout(ctx context.Context) error {
	err := v.sessions.Logout(ctx)
	if err != nil {
		v.logger.Error("logout failed", err)
	}
	v.Close()
	v.router.Replace(RouteLogin)
	return err
}

// Close stops the pending search and the realtime subscription. Later responses are dropped.
func (v *ProfileView) Close() {
	if !v.close() {
		return
	}
	v.debouncer.Stop()
	v.bridge.Stop()
}
