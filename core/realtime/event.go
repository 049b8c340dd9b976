package realtime

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/trezcool/preceptor/core"
)

const (
	ChannelDocuments = "documents"

	EventDocumentCreate = "databases.*.collections.*.documents.*.create"
	EventDocumentUpdate = "databases.*.collections.*.documents.*.update"
)

// Event is one message delivered on a realtime channel.
type Event struct {
	Events    []string        `json:"events"`
	Channels  []string        `json:"channels"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

// Has reports whether the event list contains name.
func (evt Event) Has(name string) bool {
	for _, e := range evt.Events {
		if e == name {
			return true
		}
	}
	return false
}

// Bind decodes the payload into v.
func (evt Event) Bind(v interface{}) error {
	if len(evt.Payload) == 0 || bytes.Equal(evt.Payload, []byte("null")) {
		return core.NewParseError(errors.New("empty event payload"))
	}
	if err := json.Unmarshal(evt.Payload, v); err != nil {
		return core.NewParseError(errors.Wrap(err, "decoding event payload"))
	}
	return nil
}

// field returns the payload value stored under key, if the payload is an object.
func (evt Event) field(key string) (interface{}, bool) {
	var payload map[string]interface{}
	if err := json.Unmarshal(evt.Payload, &payload); err != nil {
		return nil, false
	}
	v, ok := payload[key]
	return v, ok
}

// Filter decides whether an event is relevant to a subscriber.
type Filter func(evt Event) bool

// All matches events accepted by every filter.
func All(filters ...Filter) Filter {
	return func(evt Event) bool {
		for _, f := range filters {
			if !f(evt) {
				return false
			}
		}
		return true
	}
}

func Named(name string) Filter {
	return func(evt Event) bool { return evt.Has(name) }
}

// FieldEquals matches a string payload field.
func FieldEquals(key, want string) Filter {
	return func(evt Event) bool {
		v, ok := evt.field(key)
		if !ok {
			return false
		}
		s, isStr := v.(string)
		return isStr && s == want
	}
}

// FieldTrue matches a boolean payload field set to true.
func FieldTrue(key string) Filter {
	return func(evt Event) bool {
		v, ok := evt.field(key)
		if !ok {
			return false
		}
		b, isBool := v.(bool)
		return isBool && b
	}
}

// RequestsFor matches newly created requests addressed to the preceptor.
func RequestsFor(preceptorID string) Filter {
	return All(Named(EventDocumentCreate), FieldEquals("preceptorId", preceptorID))
}

// PairingsFor matches confirmed pairings of the student.
func PairingsFor(studentID string) Filter {
	return All(Named(EventDocumentUpdate), FieldEquals("studentId", studentID), FieldTrue("isPaired"))
}
