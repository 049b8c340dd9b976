package placement_test

import (
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/preceptor/core"
	"github.com/trezcool/preceptor/core/notification"
	"github.com/trezcool/preceptor/core/placement"
	"github.com/trezcool/preceptor/core/realtime"
	"github.com/trezcool/preceptor/core/user"
	emailsvc "github.com/trezcool/preceptor/services/email"
	inmemdb "github.com/trezcool/preceptor/storage/inmem"
)

type published struct {
	event string
	doc   notification.RequestDocument
}

type recorder struct {
	mu     sync.Mutex
	events []published
}

func (r *recorder) Publish(event string, doc notification.RequestDocument) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{event: event, doc: doc})
}

func (r *recorder) last() published {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return published{}
	}
	return r.events[len(r.events)-1]
}

type fixture struct {
	svc       *placement.Service
	events    *recorder
	mail      interface{ Sent() []core.EmailMessage }
	student   user.User
	preceptor user.User
	other     user.User
}

func setup(t *testing.T) fixture {
	conf := core.NewTestConfig()
	db := inmemdb.Open()
	users := user.NewService(inmemdb.NewUserRepository(db), conf)
	events := new(recorder)
	mail := emailsvc.NewConsoleServiceMock(conf)

	create := func(name, email, label string) user.User {
		usr, err := users.Create(user.NewUser{Name: name, Email: email, Password: "password1", Labels: []string{label}})
		if err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
		return usr
	}
	return fixture{
		svc:       placement.NewService(inmemdb.NewRequestRepository(db), users, events, mail),
		events:    events,
		mail:      mail,
		student:   create("Sam Lee", "sam.lee@uwa.edu.au", core.RoleStudent),
		preceptor: create("Jane Doe", "jane@uwa.edu.au", core.RolePreceptor),
		other:     create("Tom Hill", "tom@uwa.edu.au", core.RoleStudent),
	}
}

func (f fixture) newRequest(day string) placement.NewRequest {
	return placement.NewRequest{
		StudentID:    f.student.ID,
		StudentName:  f.student.Name,
		StudentEmail: " Sam.Lee@uwa.edu.au ",
		PreceptorID:  f.preceptor.ID,
		Day:          day,
	}
}

func TestService_Create(t *testing.T) {
	f := setup(t)

	req, err := f.svc.Create(f.student.ID, f.newRequest("Wednesday"))
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	assert.Equal(t, placement.StatusPending, req.Status)
	assert.False(t, req.IsPaired)
	assert.Equal(t, "sam.lee@uwa.edu.au", req.StudentEmail)
	assert.Equal(t, "Jane Doe", req.PreceptorName)
	assert.Equal(t, published{event: realtime.EventDocumentCreate, doc: req.Document()}, f.events.last())

	tests := []struct {
		name     string
		callerID string
		nr       placement.NewRequest
		wantErr  func(error) bool
	}{
		{
			name:     "duplicate",
			callerID: f.student.ID,
			nr:       f.newRequest("Wednesday"),
			wantErr:  func(err error) bool { return err == placement.ErrDuplicate },
		},
		{
			name:     "someone else's request",
			callerID: f.other.ID,
			nr:       f.newRequest("Thursday"),
			wantErr:  func(err error) bool { return err == placement.ErrForbidden },
		},
		{
			name:     "not a preceptor",
			callerID: f.student.ID,
			nr:       placement.NewRequest{StudentID: f.student.ID, PreceptorID: f.other.ID, Day: "Monday"},
			wantErr:  func(err error) bool { return err == placement.ErrPreceptorUnknown },
		},
		{
			name:     "bad day",
			callerID: f.student.ID,
			nr:       f.newRequest("Someday"),
			wantErr:  core.IsValidation,
		},
		{
			name:     "another day",
			callerID: f.student.ID,
			nr:       f.newRequest(" Friday "),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(tt.callerID, tt.nr)
			if tt.wantErr != nil {
				assert.True(t, tt.wantErr(err), "Create() error = %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestService_answer(t *testing.T) {
	f := setup(t)
	placement.NowFunc = func() time.Time { return time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC) }
	defer func() { placement.NowFunc = time.Now }()

	confirmed, err := f.svc.Create(f.student.ID, f.newRequest("Wednesday"))
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	rejected, err := f.svc.Create(f.student.ID, f.newRequest("Thursday"))
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	pending, err := f.svc.Pending(f.preceptor.ID)
	assert.NoError(t, err)
	assert.Len(t, pending, 2)

	decision := func(req placement.Request) placement.Decision {
		return placement.Decision{DocumentID: req.ID, PreceptorID: f.preceptor.ID, StudentID: req.StudentID, Day: req.Day}
	}

	_, err = f.svc.Confirm(f.other.ID, decision(confirmed))
	assert.Equal(t, placement.ErrForbidden, err)
	_, err = f.svc.Confirm(f.preceptor.ID, placement.Decision{DocumentID: "nope", PreceptorID: f.preceptor.ID})
	assert.True(t, errors.Is(err, placement.ErrNotFound))
	_, err = f.svc.Confirm(f.preceptor.ID, placement.Decision{PreceptorID: f.preceptor.ID})
	assert.True(t, core.IsValidation(err))

	req, err := f.svc.Confirm(f.preceptor.ID, decision(confirmed))
	if err != nil {
		t.Fatalf("Confirm() failed: %v", err)
	}
	assert.True(t, req.IsPaired)
	assert.Equal(t, placement.StatusConfirmed, req.Status)
	assert.Equal(t, published{event: realtime.EventDocumentUpdate, doc: req.Document()}, f.events.last())

	_, err = f.svc.Reject(f.preceptor.ID, decision(confirmed))
	assert.Equal(t, placement.ErrAlreadyAnswered, err)

	req, err = f.svc.Reject(f.preceptor.ID, decision(rejected))
	if err != nil {
		t.Fatalf("Reject() failed: %v", err)
	}
	assert.False(t, req.IsPaired)
	assert.Equal(t, placement.StatusRejected, req.Status)

	sent := f.mail.Sent()
	if assert.Len(t, sent, 2) {
		assert.Equal(t, "Your preceptor request was accepted", sent[0].Subject)
		assert.Contains(t, sent[0].TextContent, "Jane Doe has accepted to be your preceptor on Wednesday.")
		assert.Equal(t, "Your preceptor request was declined", sent[1].Subject)
		assert.Equal(t, "sam.lee@uwa.edu.au", sent[1].To[0].Address)
	}

	current, err := f.svc.CurrentPreceptors(f.student.ID, "Wednesday")
	assert.NoError(t, err)
	if assert.Len(t, current, 1) {
		assert.Equal(t, f.preceptor.ID, current[0].ID)
	}
	current, err = f.svc.CurrentPreceptors(f.student.ID, "Thursday")
	assert.NoError(t, err)
	assert.Empty(t, current)

	pending, err = f.svc.Pending(f.preceptor.ID)
	assert.NoError(t, err)
	assert.Empty(t, pending)
}

func TestService_answerConcurrently(t *testing.T) {
	f := setup(t)
	req, err := f.svc.Create(f.student.ID, f.newRequest("Monday"))
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	d := placement.Decision{DocumentID: req.ID, PreceptorID: f.preceptor.ID}

	const callers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		answered int
		late     int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			answer := f.svc.Confirm
			if i%2 == 1 {
				answer = f.svc.Reject
			}
			_, err := answer(f.preceptor.ID, d)
			mu.Lock()
			defer mu.Unlock()
			switch err {
			case nil:
				answered++
			case placement.ErrAlreadyAnswered:
				late++
			default:
				t.Errorf("answer() unexpected error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, answered)
	assert.Equal(t, callers-1, late)
	assert.Len(t, f.mail.Sent(), 1)
}
