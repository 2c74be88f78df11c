package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Direction string

const (
	DirectionIncoming Direction = "Incoming"
	DirectionOutgoing Direction = "Outgoing"
)

type Status string

const (
	StatusInProgress Status = "InProgress"
	StatusCompleted  Status = "Completed"
	StatusUrgent     Status = "Urgent"
)

type Role string

const (
	RoleAdministrator Role = "Administrator"
	RoleUser          Role = "User"
)

// DateLayout is the ISO calendar date used by every date field of a letter.
const DateLayout = "2006-01-02"

var ErrInvalidDraft = errors.New("invalid draft")

// Attachment is the embedded file of a letter. FileData is a data URL.
type Attachment struct {
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	FileData string `json:"fileData"`
}

// Letter is one archived piece of correspondence. The attachment fields are
// flattened into the record when serialized.
type Letter struct {
	ID           string    `json:"id"`
	LetterNumber string    `json:"letterNumber"`
	SubjectCode  string    `json:"subjectCode"`
	Subject      string    `json:"subject"`
	Counterparty string    `json:"counterparty"`
	ArchiveDate  string    `json:"archiveDate"`
	LetterDate   string    `json:"letterDate"`
	ReceivedDate string    `json:"receivedDate"`
	Direction    Direction `json:"direction"`
	Status       Status    `json:"status"`
	Signatory    string    `json:"signatory"`
	*Attachment
	Summary string `json:"summary,omitempty"`
}

// HasAttachment reports whether all three attachment fields are set.
func (l Letter) HasAttachment() bool {
	return l.Attachment != nil && l.Attachment.complete()
}

func (a *Attachment) complete() bool {
	return a.FileName != "" && a.FileType != "" && a.FileData != ""
}

func (a *Attachment) empty() bool {
	return a == nil || (a.FileName == "" && a.FileType == "" && a.FileData == "")
}

// Draft is the submitted form of a letter: every field except the id and the
// generated summary. It serializes with the same field names as Letter.
type Draft struct {
	LetterNumber string    `json:"letterNumber"`
	SubjectCode  string    `json:"subjectCode"`
	Subject      string    `json:"subject"`
	Counterparty string    `json:"counterparty"`
	ArchiveDate  string    `json:"archiveDate"`
	LetterDate   string    `json:"letterDate"`
	ReceivedDate string    `json:"receivedDate"`
	Direction    Direction `json:"direction"`
	Status       Status    `json:"status"`
	Signatory    string    `json:"signatory"`
	*Attachment
}

// NewDraft returns a blank draft with the form defaults. Letters opened from
// the outgoing tab default to Outgoing.
func NewDraft(outgoing bool, today time.Time) Draft {
	date := today.Format(DateLayout)
	direction := DirectionIncoming
	if outgoing {
		direction = DirectionOutgoing
	}
	return Draft{
		ArchiveDate:  date,
		LetterDate:   date,
		ReceivedDate: date,
		Direction:    direction,
		Status:       StatusInProgress,
	}
}

// DraftFrom copies an existing letter into an editable draft.
func DraftFrom(l Letter) Draft {
	d := Draft{
		LetterNumber: l.LetterNumber,
		SubjectCode:  l.SubjectCode,
		Subject:      l.Subject,
		Counterparty: l.Counterparty,
		ArchiveDate:  l.ArchiveDate,
		LetterDate:   l.LetterDate,
		ReceivedDate: l.ReceivedDate,
		Direction:    l.Direction,
		Status:       l.Status,
		Signatory:    l.Signatory,
	}
	if l.Attachment != nil {
		a := *l.Attachment
		d.Attachment = &a
	}
	return d
}

// Validate checks the draft once, at submission.
func (d *Draft) Validate() error {
	d.Subject = strings.TrimSpace(d.Subject)
	d.Counterparty = strings.TrimSpace(d.Counterparty)

	var problems []string
	if d.Subject == "" {
		problems = append(problems, "subject is required")
	}
	if d.Counterparty == "" {
		problems = append(problems, "counterparty is required")
	}
	if !d.Direction.Valid() {
		problems = append(problems, fmt.Sprintf("unknown direction %q", d.Direction))
	}
	if !d.Status.Valid() {
		problems = append(problems, fmt.Sprintf("unknown status %q", d.Status))
	}
	dates := []struct{ name, value string }{
		{"archiveDate", d.ArchiveDate},
		{"letterDate", d.LetterDate},
		{"receivedDate", d.ReceivedDate},
	}
	for _, date := range dates {
		if date.value == "" {
			continue
		}
		if _, err := time.Parse(DateLayout, date.value); err != nil {
			problems = append(problems, fmt.Sprintf("%s must be YYYY-MM-DD", date.name))
		}
	}
	if d.Attachment.empty() {
		d.Attachment = nil
	} else if !d.Attachment.complete() {
		problems = append(problems, "attachment requires fileName, fileType and fileData")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDraft, strings.Join(problems, "; "))
	}
	return nil
}

// Apply builds the letter for id from the draft, keeping summary as given.
func (d Draft) Apply(id, summary string) Letter {
	l := Letter{
		ID:           id,
		LetterNumber: d.LetterNumber,
		SubjectCode:  d.SubjectCode,
		Subject:      d.Subject,
		Counterparty: d.Counterparty,
		ArchiveDate:  d.ArchiveDate,
		LetterDate:   d.LetterDate,
		ReceivedDate: d.ReceivedDate,
		Direction:    d.Direction,
		Status:       d.Status,
		Signatory:    d.Signatory,
		Summary:      summary,
	}
	if d.Attachment != nil {
		a := *d.Attachment
		l.Attachment = &a
	}
	return l
}

func (d Direction) Valid() bool {
	return d == DirectionIncoming || d == DirectionOutgoing
}

func (s Status) Valid() bool {
	switch s {
	case StatusInProgress, StatusCompleted, StatusUrgent:
		return true
	}
	return false
}

// User is an authenticated operator of the archive.
type User struct {
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	Role      Role   `json:"role"`
	LastLogin string `json:"lastLogin,omitempty"`
}

func (u User) IsAdministrator() bool {
	return u.Role == RoleAdministrator
}

// Stats are counts over the whole archive.
type Stats struct {
	Total          int `json:"total"`
	Incoming       int `json:"incoming"`
	Outgoing       int `json:"outgoing"`
	InProgress     int `json:"inProgress"`
	Completed      int `json:"completed"`
	CompletionRate int `json:"completionRate"`
}
