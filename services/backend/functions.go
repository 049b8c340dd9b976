package backendsvc

import (
	"context"
	"net/http"

	"github.com/trezcool/preceptor/core/function"
)

// Functions implements function.Executor over the function executions endpoint.
type Functions struct {
	client *Client
}

var _ function.Executor = (*Functions)(nil)

func NewFunctions(client *Client) *Functions {
	return &Functions{client: client}
}

type executionRequest struct {
	Body    string            `json:"body"`
	Async   bool              `json:"async"`
	Path    string            `json:"path"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
}

// CreateExecution runs the function synchronously with body as a JSON POST.
func (f *Functions) CreateExecution(ctx context.Context, functionID, body string) (function.Execution, error) {
	var exec function.Execution
	err := f.client.do(ctx, http.MethodPost, "/functions/"+functionID+"/executions", executionRequest{
		Body:    body,
		Async:   false,
		Path:    "/",
		Method:  http.MethodPost,
		Headers: map[string]string{"content-type": "application/json"},
	}, &exec)
	return exec, err
}
