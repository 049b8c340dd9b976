package pairing

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/preceptor/core"
	"github.com/trezcool/preceptor/core/directory"
	"github.com/trezcool/preceptor/core/function"
	"github.com/trezcool/preceptor/core/notification"
	"github.com/trezcool/preceptor/core/session"
)

type fakeCaller struct {
	action string
	params interface{}
	err    error
}

func (f *fakeCaller) Call(_ context.Context, action string, params interface{}) (function.Response, error) {
	f.action, f.params = action, params
	return function.Response{Success: f.err == nil}, f.err
}

func paramsJSON(t *testing.T, params interface{}) string {
	raw, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("paramsJSON() failed: %v", err)
	}
	return string(raw)
}

func TestService_Request(t *testing.T) {
	fn := &fakeCaller{}
	svc := NewService(fn, core.NopLogger{})

	student := session.Profile{ID: "s1", Name: "Jane Doe", Email: "jane@uwa.edu.au"}
	preceptor := directory.PreceptorInfo{ID: "p1", Name: "Bob", Email: "bob@uwa.edu.au", Specialty: "ICU", Day: "Monday"}

	assert.NoError(t, svc.Request(context.Background(), student, preceptor, "Friday"))
	assert.Equal(t, function.ActionRequestPreceptor, fn.action)
	assert.JSONEq(t, `{
		"studentId":"s1","studentName":"Jane Doe","studentEmail":"jane@uwa.edu.au",
		"preceptorId":"p1","preceptorName":"Bob","preceptorEmail":"bob@uwa.edu.au",
		"day":"Friday","isPaired":false
	}`, paramsJSON(t, fn.params))

	fn.err = core.NewRemoteError("Already requested")
	err := svc.Request(context.Background(), student, preceptor, "Friday")
	assert.Equal(t, "Already requested", core.FriendlyMessage(err, ""))
}

func TestService_Decide(t *testing.T) {
	request := notification.Notification{ID: "req1", StudentID: "s1", StudentName: "Jane Doe", Day: "Monday", Type: notification.TypeRequest}
	now := time.Now()

	tests := []struct {
		name       string
		decision   Decision
		err        error
		wantAction string
		wantIDs    []string
		wantType   notification.Type
		wantMsg    string
		wantRead   bool
		wantTop    string
	}{
		{
			name:       "confirmed",
			decision:   DecisionConfirm,
			wantAction: function.ActionConfirmPreceptorRequest,
			wantType:   notification.TypeSuccess,
			wantMsg:    "You have accepted Jane Doe's request.",
			wantRead:   true,
		},
		{
			name:       "rejected",
			decision:   DecisionReject,
			wantAction: function.ActionRejectPreceptorRequest,
			wantType:   notification.TypeError,
			wantMsg:    "You have rejected Jane Doe's request.",
			wantRead:   true,
		},
		{
			name:       "confirm failed",
			decision:   DecisionConfirm,
			err:        core.NewRemoteError("Request not found"),
			wantAction: function.ActionConfirmPreceptorRequest,
			wantType:   notification.TypeRequest,
			wantTop:    "Failed to confirm request. Please try again.",
		},
		{
			name:       "reject failed",
			decision:   DecisionReject,
			err:        core.NewParseError(errors.New("bad body")),
			wantAction: function.ActionRejectPreceptorRequest,
			wantType:   notification.TypeRequest,
			wantTop:    "Failed to reject request. Please try again.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := &fakeCaller{err: tt.err}
			svc := NewService(fn, core.NopLogger{})
			list := notification.NewList(request)

			err := svc.Decide(context.Background(), tt.decision, "p1", request)
			Apply(list, tt.decision, request, err, now)

			assert.Equal(t, tt.wantAction, fn.action)
			assert.JSONEq(t, `{"documentId":"req1","preceptorId":"p1","studentId":"s1","day":"Monday"}`, paramsJSON(t, fn.params))

			got, _ := list.Get("req1")
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantRead, got.Read)
			if tt.wantTop == "" {
				assert.Equal(t, tt.wantMsg, got.Message)
				assert.Equal(t, 1, list.Len())
				return
			}

			all := list.All()
			if assert.Len(t, all, 2) {
				assert.Equal(t, tt.wantTop, all[0].Message)
				assert.Equal(t, notification.TypeError, all[0].Type)
				assert.False(t, all[0].Read)
				assert.NotEqual(t, "req1", all[0].ID)
			}
		})
	}
}

func TestService_ConfirmReject(t *testing.T) {
	request := notification.Notification{ID: "req1", StudentID: "s1", Day: "Monday", Type: notification.TypeRequest}
	fn := &fakeCaller{}
	svc := NewService(fn, core.NopLogger{})

	assert.NoError(t, svc.Confirm(context.Background(), "p1", request))
	assert.Equal(t, function.ActionConfirmPreceptorRequest, fn.action)

	fn.err = core.NewRemoteError("Request not found")
	err := svc.Reject(context.Background(), "p1", request)
	assert.Equal(t, function.ActionRejectPreceptorRequest, fn.action)
	assert.True(t, core.IsRemote(err))
	assert.JSONEq(t, `{"documentId":"req1","preceptorId":"p1","studentId":"s1","day":"Monday"}`, paramsJSON(t, fn.params))
}

func TestApply_failuresGetDistinctIDs(t *testing.T) {
	list := notification.NewList()
	request := notification.Notification{ID: "req1", Type: notification.TypeRequest}
	now := time.Now()

	Apply(list, DecisionConfirm, request, errors.New("boom"), now)
	Apply(list, DecisionConfirm, request, errors.New("boom"), now)
	assert.Equal(t, 2, list.Len())
}
