package function

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/preceptor/core"
)

type fakeExecutor struct {
	exec  Execution
	err   error
	calls []string
}

func (f *fakeExecutor) CreateExecution(_ context.Context, functionID, body string) (Execution, error) {
	f.calls = append(f.calls, functionID+" "+body)
	return f.exec, f.err
}

func TestClient_Call(t *testing.T) {
	conf := core.NewTestConfig()

	tests := []struct {
		name       string
		exec       Execution
		execErr    error
		wantErr    func(error) bool
		wantFriend string
	}{
		{
			name: "success",
			exec: Execution{Status: StatusCompleted, ResponseBody: `{"success":true,"data":{"ok":1}}`},
		},
		{
			name:       "transport failure",
			execErr:    core.NewNetworkError(errors.New("dial tcp: connection refused")),
			wantErr:    core.IsNetwork,
			wantFriend: core.MsgNetworkError,
		},
		{
			name:       "failed execution",
			exec:       Execution{Status: StatusFailed, Errors: "timeout"},
			wantErr:    core.IsRemote,
			wantFriend: "The server could not process the request",
		},
		{
			name:       "invalid body",
			exec:       Execution{Status: StatusCompleted, ResponseBody: "Internal Server Error"},
			wantErr:    core.IsParse,
			wantFriend: core.MsgInvalidData,
		},
		{
			name:       "remote failure with reason",
			exec:       Execution{Status: StatusCompleted, ResponseBody: `{"success":false,"error":"Request not found"}`},
			wantErr:    core.IsRemote,
			wantFriend: "Request not found",
		},
		{
			name:       "remote failure without reason",
			exec:       Execution{Status: StatusCompleted, ResponseBody: `{"success":false}`},
			wantErr:    core.IsRemote,
			wantFriend: "fallback",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &fakeExecutor{exec: tt.exec, err: tt.execErr}
			client := NewClient(exec, conf, core.NopLogger{})

			resp, err := client.Call(context.Background(), ActionSearchPreceptors, map[string]string{"search": "ja"})
			if assert.Len(t, exec.calls, 1) {
				var body map[string]interface{}
				_ = json.Unmarshal([]byte(exec.calls[0][len(conf.Backend.FunctionID)+1:]), &body)
				assert.Equal(t, ActionSearchPreceptors, body["action"])
				assert.Equal(t, "ja", body["search"])
			}
			if tt.wantErr == nil {
				assert.NoError(t, err)
				assert.True(t, resp.Success)
				return
			}
			assert.True(t, tt.wantErr(err), "Call() error = %v", err)
			assert.Equal(t, tt.wantFriend, core.FriendlyMessage(err, "fallback"))
		})
	}
}

func TestClient_Call_cancelled(t *testing.T) {
	conf := core.NewTestConfig()
	conf.Backend.RateLimit = 0.001
	conf.Backend.RateBurst = 1
	exec := &fakeExecutor{exec: Execution{Status: StatusCompleted, ResponseBody: `{"success":true}`}}
	client := NewClient(exec, conf, core.NopLogger{})

	_, err := client.Call(context.Background(), ActionCreateLabel, nil)
	assert.NoError(t, err)

	// the burst is spent: the next call has to wait and gives up with its context
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.Call(ctx, ActionCreateLabel, nil)
	assert.Error(t, err)
	assert.Len(t, exec.calls, 1)
}
