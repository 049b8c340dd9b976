package function

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/trezcool/preceptor/core"
)

// Actions understood by the remote function.
const (
	ActionCreateLabel             = "createLabel"
	ActionSearchPreceptors        = "searchPreceptors"
	ActionGetCurrentPreceptor     = "getCurrentPreceptor"
	ActionRequestPreceptor        = "requestPreceptor"
	ActionConfirmPreceptorRequest = "confirmPreceptorRequest"
	ActionRejectPreceptorRequest  = "rejectPreceptorRequest"
)

var errNoSuccessField = errors.New(`missing boolean "success" field`)

// Response is the decoded response envelope {success, data?, error?, message?}.
type Response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Reason is the failure reason given by the server, or fallback.
func (r Response) Reason(fallback string) string {
	switch {
	case r.Error != "":
		return r.Error
	case r.Message != "":
		return r.Message
	default:
		return fallback
	}
}

// Err returns a *core.RemoteError when the envelope reports a failure.
func (r Response) Err(fallback string) error {
	if r.Success {
		return nil
	}
	return core.NewRemoteError(r.Reason(fallback))
}

// Bind decodes the data payload into v. An absent payload leaves v untouched.
func (r Response) Bind(v interface{}) error {
	if len(r.Data) == 0 || bytes.Equal(r.Data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return core.NewParseError(errors.Wrap(err, "decoding data"))
	}
	return nil
}

// Decode validates body as a response envelope. Anything that is not a JSON object with a
// boolean "success" field is a *core.ParseError.
func Decode(body []byte) (Response, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return Response{}, core.NewParseError(err)
	}
	rawSuccess, ok := fields["success"]
	if !ok {
		return Response{}, core.NewParseError(errNoSuccessField)
	}
	var resp Response
	if err := json.Unmarshal(rawSuccess, &resp.Success); err != nil {
		return Response{}, core.NewParseError(errNoSuccessField)
	}
	for key, dst := range map[string]*string{"error": &resp.Error, "message": &resp.Message} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		// non-string reasons are kept verbatim
		if err := json.Unmarshal(raw, dst); err != nil {
			*dst = string(raw)
		}
	}
	resp.Data = fields["data"]
	return resp, nil
}

// Encode builds the request envelope: params flattened into one object next to "action".
func Encode(action string, params interface{}) ([]byte, error) {
	body := map[string]interface{}{}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, errors.Wrap(err, "encoding params")
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, errors.Wrap(err, "params must encode to a JSON object")
		}
		if body == nil {
			body = map[string]interface{}{}
		}
	}
	body["action"] = action
	return json.Marshal(body)
}
