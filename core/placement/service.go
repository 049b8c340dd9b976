package placement

import (
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/preceptor/core"
	"github.com/trezcool/preceptor/core/notification"
	"github.com/trezcool/preceptor/core/realtime"
	"github.com/trezcool/preceptor/core/user"
)

var (
	// errors
	ErrNotFound         = errors.New("Request not found")
	ErrPreceptorUnknown = errors.New("Preceptor not found")
	ErrForbidden        = errors.New("You are not allowed to do this")
	ErrAlreadyAnswered  = errors.New("This request has already been answered")
	ErrDuplicate        = errors.New("You have already requested this preceptor for this day")

	NowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateRequest(req Request) (Request, error)
		GetRequest(id string) (Request, error)
		// UpdateRequestIf applies fn to the stored request atomically; an error from fn
		// leaves the request unchanged.
		UpdateRequestIf(id string, fn func(req *Request) error) (Request, error)
		FilterRequests(filter QueryFilter) ([]Request, error)
	}

	// Publisher pushes document events to realtime subscribers.
	Publisher interface {
		Publish(event string, doc notification.RequestDocument)
	}

	Service struct {
		repo    Repository
		users   *user.Service
		events  Publisher
		mailSvc core.EmailService
	}
)

func NewService(repo Repository, users *user.Service, events Publisher, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, users: users, events: events, mailSvc: mailSvc}
}

// Create files a request on behalf of the calling student.
func (svc *Service) Create(callerID string, nr NewRequest) (Request, error) {
	nr.Clean()
	if err := nr.Validate(); err != nil {
		return Request{}, err
	}
	if nr.StudentID != callerID {
		return Request{}, ErrForbidden
	}

	preceptor, err := svc.users.GetByID(nr.PreceptorID)
	if err != nil || !preceptor.IsPreceptor() {
		return Request{}, ErrPreceptorUnknown
	}
	pending, err := svc.repo.FilterRequests(QueryFilter{
		StudentID:   nr.StudentID,
		PreceptorID: nr.PreceptorID,
		Day:         nr.Day,
		Status:      StatusPending,
	})
	if err != nil {
		return Request{}, err
	}
	if len(pending) > 0 {
		return Request{}, ErrDuplicate
	}

	now := NowFunc().UTC()
	req, err := svc.repo.CreateRequest(Request{
		ID:             uuid.New().String(),
		StudentID:      nr.StudentID,
		StudentName:    nr.StudentName,
		StudentEmail:   nr.StudentEmail,
		PreceptorID:    preceptor.ID,
		PreceptorName:  preceptor.Name,
		PreceptorEmail: preceptor.Email,
		Day:            nr.Day,
		Status:         StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return Request{}, err
	}
	svc.events.Publish(realtime.EventDocumentCreate, req.Document())
	return req, nil
}

// Confirm pairs the student with the calling preceptor.
func (svc *Service) Confirm(callerID string, d Decision) (Request, error) {
	return svc.answer(callerID, d, StatusConfirmed)
}

// Reject declines the request of the student.
func (svc *Service) Reject(callerID string, d Decision) (Request, error) {
	return svc.answer(callerID, d, StatusRejected)
}

func (svc *Service) answer(callerID string, d Decision, status Status) (Request, error) {
	if err := d.Validate(); err != nil {
		return Request{}, err
	}
	if d.PreceptorID != callerID {
		return Request{}, ErrForbidden
	}
	req, err := svc.repo.UpdateRequestIf(d.DocumentID, func(req *Request) error {
		if req.PreceptorID != callerID {
			return ErrForbidden
		}
		if req.Status != StatusPending {
			return ErrAlreadyAnswered
		}
		req.Status = status
		req.IsPaired = status == StatusConfirmed
		req.UpdatedAt = NowFunc().UTC()
		return nil
	})
	if err != nil {
		return Request{}, err
	}
	svc.events.Publish(realtime.EventDocumentUpdate, req.Document())
	svc.notifyStudent(req)
	return req, nil
}

func (svc *Service) notifyStudent(req Request) {
	if req.StudentEmail == "" {
		return
	}
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: req.StudentName, Address: req.StudentEmail}},
		Subject:      "Your preceptor request was declined",
		TemplateName: tmplRequestRejected,
		TemplateData: req,
	}
	if req.IsPaired {
		msg.Subject = "Your preceptor request was accepted"
		msg.TemplateName = tmplRequestConfirmed
	}
	svc.mailSvc.SendMessages(msg)
}

// CurrentPreceptors returns the preceptors the student is paired with on day.
func (svc *Service) CurrentPreceptors(studentID, day string) ([]user.User, error) {
	paired, err := svc.repo.FilterRequests(QueryFilter{StudentID: studentID, Day: day, Status: StatusConfirmed})
	if err != nil {
		return nil, err
	}
	if len(paired) == 0 {
		return []user.User{}, nil
	}
	ids := make([]string, 0, len(paired))
	for _, req := range paired {
		ids = append(ids, req.PreceptorID)
	}
	return svc.users.Filter(user.QueryFilter{Label: core.RolePreceptor, IDs: ids})
}

// Pending lists the requests still awaiting an answer from the preceptor.
func (svc *Service) Pending(preceptorID string) ([]Request, error) {
	return svc.repo.FilterRequests(QueryFilter{PreceptorID: preceptorID, Status: StatusPending})
}
