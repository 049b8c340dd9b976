package placement

import (
	"time"

	"github.com/trezcool/preceptor/core"
	"github.com/trezcool/preceptor/core/notification"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
)

// Request is a student's request for a preceptor on a given day.
type Request struct {
	ID             string
	StudentID      string
	StudentName    string
	StudentEmail   string
	PreceptorID    string
	PreceptorName  string
	PreceptorEmail string
	Day            string
	IsPaired       bool
	Status         Status
	CreatedAt      time.Time // UTC
	UpdatedAt      time.Time // UTC
}

// Document is the payload pushed to realtime subscribers.
func (r Request) Document() notification.RequestDocument {
	return notification.RequestDocument{
		ID:             r.ID,
		StudentID:      r.StudentID,
		StudentName:    r.StudentName,
		StudentEmail:   r.StudentEmail,
		PreceptorID:    r.PreceptorID,
		PreceptorName:  r.PreceptorName,
		PreceptorEmail: r.PreceptorEmail,
		Day:            r.Day,
		IsPaired:       r.IsPaired,
	}
}

// NewRequest is the requestPreceptor payload.
type NewRequest struct {
	StudentID      string `json:"studentId" label:"Student" validate:"required"`
	StudentName    string `json:"studentName"`
	StudentEmail   string `json:"studentEmail" label:"Student email" validate:"omitempty,emailfmt"`
	PreceptorID    string `json:"preceptorId" label:"Preceptor" validate:"required"`
	PreceptorName  string `json:"preceptorName"`
	PreceptorEmail string `json:"preceptorEmail"`
	Day            string `json:"day" label:"Day" validate:"required,weekday"`
	IsPaired       bool   `json:"isPaired"`
}

func (nr *NewRequest) Clean() {
	nr.StudentName = core.CleanString(nr.StudentName)
	nr.StudentEmail = core.CleanString(nr.StudentEmail, true /* lower */)
	nr.Day = core.CleanString(nr.Day)
}

func (nr NewRequest) Validate() error { return core.ValidateStruct(nr) }

// Decision is the confirm/reject payload.
type Decision struct {
	DocumentID  string `json:"documentId" label:"Request" validate:"required"`
	PreceptorID string `json:"preceptorId" label:"Preceptor" validate:"required"`
	StudentID   string `json:"studentId"`
	Day         string `json:"day"`
}

func (d Decision) Validate() error { return core.ValidateStruct(d) }

// QueryFilter applies AND on its non-empty fields.
type QueryFilter struct {
	StudentID   string
	PreceptorID string
	Day         string
	Status      Status
}

func (qf QueryFilter) Match(r Request) bool {
	return (qf.StudentID == "" || r.StudentID == qf.StudentID) &&
		(qf.PreceptorID == "" || r.PreceptorID == qf.PreceptorID) &&
		(qf.Day == "" || r.Day == qf.Day) &&
		(qf.Status == "" || r.Status == qf.Status)
}
