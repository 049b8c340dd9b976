package notification

import (
	"fmt"
	"time"
)

// Seed returns the static notifications a new notifications screen starts with.
func Seed(now time.Time) []Notification {
	return []Notification{
		{ID: "1", Message: "Your profile has been updated successfully", Timestamp: now.Add(-5 * time.Minute), Type: TypeSuccess},
		{ID: "2", Message: "Assessment failed. Please talk with your facilitator", Timestamp: now.Add(-30 * time.Minute), Type: TypeError},
		{ID: "3", Message: "Your assessment will expire in 3 days", Timestamp: now.Add(-2 * time.Hour), Type: TypeWarning, Read: true},
		{ID: "4", Message: "New feature available: Dark mode is now available", Timestamp: now.Add(-5 * time.Hour), Type: TypeInfo},
		{ID: "5", Message: "Your document has been shared with 3 people", Timestamp: now.Add(-24 * time.Hour), Type: TypeInfo, Read: true},
		{ID: "6", Message: "Security alert: New login from unknown device", Timestamp: now.Add(-48 * time.Hour), Type: TypeWarning},
		{ID: "7", Message: "Your password was changed successfully", Timestamp: now.Add(-72 * time.Hour), Type: TypeSuccess, Read: true},
		{ID: "8", Message: "System maintenance scheduled for tomorrow", Timestamp: now.Add(-96 * time.Hour), Type: TypeInfo, Read: true},
	}
}

// RequestDocument is the pairing-request document stored by the backend and pushed on the
// realtime channel.
type RequestDocument struct {
	ID             string `json:"$id"`
	StudentID      string `json:"studentId"`
	StudentName    string `json:"studentName"`
	StudentEmail   string `json:"studentEmail"`
	PreceptorID    string `json:"preceptorId"`
	PreceptorName  string `json:"preceptorName"`
	PreceptorEmail string `json:"preceptorEmail"`
	Day            string `json:"day"`
	IsPaired       bool   `json:"isPaired"`
}

// FromRequest builds the unread request notification shown to the requested preceptor.
func FromRequest(doc RequestDocument, now time.Time) Notification {
	return Notification{
		ID:           doc.ID,
		Message:      fmt.Sprintf("%s has requested you as a preceptor today. Please confirm.", doc.StudentName),
		Timestamp:    now,
		Type:         TypeRequest,
		StudentID:    doc.StudentID,
		StudentName:  doc.StudentName,
		StudentEmail: doc.StudentEmail,
		Day:          doc.Day,
	}
}

// Age renders how long ago t was, e.g. "5 minutes ago".
func Age(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute")
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour")
	default:
		return plural(int(d/(24*time.Hour)), "day")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
