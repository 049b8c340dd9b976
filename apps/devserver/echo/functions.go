package echoapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/preceptor/core"
	"github.com/trezcool/preceptor/core/function"
	"github.com/trezcool/preceptor/core/placement"
	"github.com/trezcool/preceptor/core/user"
)

const msgInvalidAction = "Invalid action"

type (
	executionRequest struct {
		Body   string `json:"body"`
		Async  bool   `json:"async"`
		Path   string `json:"path"`
		Method string `json:"method"`
	}

	// actionFunc runs one action for the caller and returns the response data.
	actionFunc func(caller user.User, body []byte) (interface{}, error)

	functionsApi struct {
		functionID string
		users      *user.Service
		placements *placement.Service
		metrics    *metrics
		actions    map[string]actionFunc
	}

	usersData struct {
		Users interface{} `json:"users"`
	}

	documentData struct {
		Document interface{} `json:"document"`
	}
)

func registerFunctionsAPI(
	g *echo.Group,
	auth *authenticator,
	functionID string,
	users *user.Service,
	placements *placement.Service,
	m *metrics,
) {
	api := &functionsApi{
		functionID: functionID,
		users:      users,
		placements: placements,
		metrics:    m,
	}
	api.actions = map[string]actionFunc{
		function.ActionCreateLabel:             api.createLabel,
		function.ActionSearchPreceptors:        api.searchPreceptors,
		function.ActionGetCurrentPreceptor:     api.getCurrentPreceptor,
		function.ActionRequestPreceptor:        api.requestPreceptor,
		function.ActionConfirmPreceptorRequest: api.confirmRequest,
		function.ActionRejectPreceptorRequest:  api.rejectRequest,
	}

	g.POST("/functions/:id/executions", api.execute, auth.middleware())
}

// Handlers

func (api *functionsApi) execute(ctx echo.Context) error {
	if ctx.Param("id") != api.functionID {
		return errFunctionNotFound
	}
	var data executionRequest
	if err := ctx.Bind(&data); err != nil {
		return errInvalidBody
	}
	caller, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	action, resp := api.run(caller, []byte(data.Body))
	api.metrics.observe(action, resp.Success)

	body, err := json.Marshal(resp)
	if err != nil {
		return errors.Wrap(err, "encoding function response")
	}
	code := http.StatusOK
	if !resp.Success {
		code = http.StatusBadRequest
	}
	return ctx.JSON(http.StatusCreated, function.Execution{
		ID:           uuid.New().String(),
		Status:       function.StatusCompleted,
		StatusCode:   code,
		ResponseBody: string(body),
		Duration:     time.Since(start).Seconds(),
		CreatedAt:    start.UTC(),
	})
}

// run dispatches body to its action. Failures become {success:false, error}.
func (api *functionsApi) run(caller user.User, body []byte) (string, function.Response) {
	var envelope struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", function.Response{Error: "Invalid request body"}
	}
	fn, ok := api.actions[envelope.Action]
	if !ok {
		return envelope.Action, function.Response{Error: msgInvalidAction}
	}

	data, err := fn(caller, body)
	if err != nil {
		return envelope.Action, function.Response{Error: actionErrorMessage(err)}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return envelope.Action, function.Response{Error: actionErrorMessage(err)}
	}
	return envelope.Action, function.Response{Success: true, Data: raw}
}

// actionErrorMessage keeps messages meant for users and hides the rest.
func actionErrorMessage(err error) string {
	var vErr *core.ValidationError
	switch {
	case errors.As(err, &vErr):
		return vErr.Error()
	case errors.Is(err, user.ErrNotFound),
		errors.Is(err, placement.ErrNotFound),
		errors.Is(err, placement.ErrPreceptorUnknown),
		errors.Is(err, placement.ErrForbidden),
		errors.Is(err, placement.ErrAlreadyAnswered),
		errors.Is(err, placement.ErrDuplicate):
		return errors.Cause(err).Error()
	default:
		return http.StatusText(http.StatusInternalServerError)
	}
}

func bind(body []byte, v interface{}) error {
	if err := json.Unmarshal(body, v); err != nil {
		return core.NewValidationError(errors.New("Invalid request body"))
	}
	return nil
}

func accounts(users []user.User) []interface{} {
	res := make([]interface{}, 0, len(users))
	for _, u := range users {
		res = append(res, u.Account())
	}
	return res
}

// Actions

func (api *functionsApi) createLabel(caller user.User, body []byte) (interface{}, error) {
	var form user.LabelForm
	if err := bind(body, &form); err != nil {
		return nil, err
	}
	if form.UserID != caller.ID {
		return nil, placement.ErrForbidden
	}
	usr, err := api.users.SetLabel(form)
	if err != nil {
		return nil, err
	}
	return usr.Account(), nil
}

func (api *functionsApi) searchPreceptors(_ user.User, body []byte) (interface{}, error) {
	var params struct {
		Search string `json:"search"`
	}
	if err := bind(body, &params); err != nil {
		return nil, err
	}
	found, err := api.users.SearchPreceptors(params.Search)
	if err != nil {
		return nil, err
	}
	return usersData{Users: accounts(found)}, nil
}

func (api *functionsApi) getCurrentPreceptor(caller user.User, body []byte) (interface{}, error) {
	var params struct {
		Role string `json:"role"`
		Day  string `json:"day"`
	}
	if err := bind(body, &params); err != nil {
		return nil, err
	}
	if params.Role != "" && params.Role != core.RolePreceptor {
		return usersData{Users: []interface{}{}}, nil
	}
	found, err := api.placements.CurrentPreceptors(caller.ID, params.Day)
	if err != nil {
		return nil, err
	}
	return usersData{Users: accounts(found)}, nil
}

func (api *functionsApi) requestPreceptor(caller user.User, body []byte) (interface{}, error) {
	var nr placement.NewRequest
	if err := bind(body, &nr); err != nil {
		return nil, err
	}
	req, err := api.placements.Create(caller.ID, nr)
	if err != nil {
		return nil, err
	}
	return documentData{Document: req.Document()}, nil
}

func (api *functionsApi) confirmRequest(caller user.User, body []byte) (interface{}, error) {
	return api.decide(caller, body, api.placements.Confirm)
}

func (api *functionsApi) rejectRequest(caller user.User, body []byte) (interface{}, error) {
	return api.decide(caller, body, api.placements.Reject)
}

func (api *functionsApi) decide(
	caller user.User,
	body []byte,
	answer func(callerID string, d placement.Decision) (placement.Request, error),
) (interface{}, error) {
	var d placement.Decision
	if err := bind(body, &d); err != nil {
		return nil, err
	}
	req, err := answer(caller.ID, d)
	if err != nil {
		return nil, err
	}
	return documentData{Document: req.Document()}, nil
}
