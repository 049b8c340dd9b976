package pairing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/preceptor/core"
	"github.com/trezcool/preceptor/core/directory"
	"github.com/trezcool/preceptor/core/function"
	"github.com/trezcool/preceptor/core/notification"
	"github.com/trezcool/preceptor/core/session"
)

// Decision is a preceptor's answer to a pairing request.
type Decision int

const (
	DecisionConfirm Decision = iota
	DecisionReject
)

func (d Decision) action() string {
	if d == DecisionReject {
		return function.ActionRejectPreceptorRequest
	}
	return function.ActionConfirmPreceptorRequest
}

func (d Decision) verb() string {
	if d == DecisionReject {
		return "reject"
	}
	return "confirm"
}

type (
	requestParams struct {
		StudentID      string `json:"studentId"`
		StudentName    string `json:"studentName"`
		StudentEmail   string `json:"studentEmail"`
		PreceptorID    string `json:"preceptorId"`
		PreceptorName  string `json:"preceptorName"`
		PreceptorEmail string `json:"preceptorEmail"`
		Day            string `json:"day"`
		IsPaired       bool   `json:"isPaired"`
	}

	decisionParams struct {
		DocumentID  string `json:"documentId"`
		PreceptorID string `json:"preceptorId"`
		StudentID   string `json:"studentId"`
		Day         string `json:"day"`
	}

	Service struct {
		fn     function.Caller
		logger core.Logger
	}
)

func NewService(fn function.Caller, logger core.Logger) *Service {
	return &Service{fn: fn, logger: logger}
}

// Request asks preceptor to supervise student on day.
func (svc *Service) Request(ctx context.Context, student session.Profile, preceptor directory.PreceptorInfo, day string) error {
	_, err := svc.fn.Call(ctx, function.ActionRequestPreceptor, requestParams{
		StudentID:      student.ID,
		StudentName:    student.Name,
		StudentEmail:   student.Email,
		PreceptorID:    preceptor.ID,
		PreceptorName:  preceptor.Name,
		PreceptorEmail: preceptor.Email,
		Day:            day,
	})
	if err != nil {
		return errors.Wrapf(err, "requesting preceptor %s", preceptor.ID)
	}
	return nil
}

func (svc *Service) Confirm(ctx context.Context, preceptorID string, n notification.Notification) error {
	return svc.Decide(ctx, DecisionConfirm, preceptorID, n)
}

func (svc *Service) Reject(ctx context.Context, preceptorID string, n notification.Notification) error {
	return svc.Decide(ctx, DecisionReject, preceptorID, n)
}

// Decide sends the preceptor's decision on the request behind n.
func (svc *Service) Decide(ctx context.Context, d Decision, preceptorID string, n notification.Notification) error {
	_, err := svc.fn.Call(ctx, d.action(), decisionParams{
		DocumentID:  n.ID,
		PreceptorID: preceptorID,
		StudentID:   n.StudentID,
		Day:         n.Day,
	})
	if err != nil {
		return errors.Wrapf(err, "%s request %s", d.verb(), n.ID)
	}
	return nil
}

// Apply records the outcome of Decide in list. On success the request becomes a read
// success (confirm) or error (reject) entry; on failure the request is left as it was and a new
// unread error entry is prepended.
func Apply(list *notification.List, d Decision, n notification.Notification, err error, now time.Time) {
	if err != nil {
		list.Prepend(notification.Notification{
			ID:        uuid.New().String(),
			Message:   fmt.Sprintf("Failed to %s request. Please try again.", d.verb()),
			Timestamp: now,
			Type:      notification.TypeError,
		})
		return
	}

	typ, verb := notification.TypeSuccess, "accepted"
	if d == DecisionReject {
		typ, verb = notification.TypeError, "rejected"
	}
	list.Update(n.ID, func(entry *notification.Notification) {
		entry.Type = typ
		entry.Read = true
		entry.Message = fmt.Sprintf("You have %s %s's request.", verb, n.StudentName)
	})
}
