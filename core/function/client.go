package function

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/trezcool/preceptor/core"
)

// Execution statuses reported by the function runtime.
const (
	StatusWaiting    = "waiting"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

type (
	// Execution is the outcome of one synchronous function run.
	Execution struct {
		ID           string    `json:"$id"`
		Status       string    `json:"status"`
		StatusCode   int       `json:"responseStatusCode"`
		ResponseBody string    `json:"responseBody"`
		Errors       string    `json:"errors"`
		Duration     float64   `json:"duration"`
		CreatedAt    time.Time `json:"$createdAt"`
	}

	// Executor runs the remote function with a JSON body sent as a POST request.
	Executor interface {
		CreateExecution(ctx context.Context, functionID, body string) (Execution, error)
	}

	// Caller issues one action against the remote function and returns its successful envelope.
	Caller interface {
		Call(ctx context.Context, action string, params interface{}) (Response, error)
	}

	Client struct {
		exec       Executor
		functionID string
		limiter    *rate.Limiter
		logger     core.Logger
	}
)

var _ Caller = (*Client)(nil)

func NewClient(exec Executor, conf *core.Config, logger core.Logger) *Client {
	limit := rate.Inf
	if conf.Backend.RateLimit > 0 {
		limit = rate.Limit(conf.Backend.RateLimit)
	}
	burst := conf.Backend.RateBurst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		exec:       exec,
		functionID: conf.Backend.FunctionID,
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger,
	}
}

// Call sends {action, ...params} and decodes the response envelope.
// Failures are *core.ParseError, *core.RemoteError or whatever the Executor returned.
func (c *Client) Call(ctx context.Context, action string, params interface{}) (Response, error) {
	body, err := Encode(action, params)
	if err != nil {
		return Response{}, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return Response{}, errors.Wrap(err, "waiting for rate limiter")
	}

	exec, err := c.exec.CreateExecution(ctx, c.functionID, string(body))
	if err != nil {
		return Response{}, errors.Wrapf(err, "executing %s", action)
	}
	if exec.Status == StatusFailed {
		c.logger.Warn("function execution failed", map[string]interface{}{
			"action": action, "execution": exec.ID, "errors": exec.Errors,
		})
		return Response{}, core.NewRemoteError("The server could not process the request")
	}

	resp, err := Decode([]byte(exec.ResponseBody))
	if err != nil {
		c.logger.Warn("invalid function response", map[string]interface{}{"action": action}, err)
		return Response{}, err
	}
	if err := resp.Err(""); err != nil {
		return resp, err
	}
	return resp, nil
}
