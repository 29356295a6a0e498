package gmail

import "time"

// Well-known system label ids.
const (
	LabelInbox  = "INBOX"
	LabelUnread = "UNREAD"
)

// Message is the live part of a Gmail message. None of these fields are persisted.
type Message struct {
	ID           string
	ThreadID     string
	Subject      string
	From         string
	To           string
	Date         string
	Snippet      string
	LabelIDs     []string
	Unread       bool
	InternalDate time.Time
	// Body is only populated by GetThread.
	Body string
}

// ListOptions selects one page of messages.
type ListOptions struct {
	PageToken  string
	Query      string
	LabelIDs   []string
	MaxResults int64
}

// Page is one page of message ids in list order.
type Page struct {
	IDs                []string
	NextPageToken      string
	ResultSizeEstimate int64
}

// EmailMessage represents an email to be sent
type EmailMessage struct {
	To      []string
	Cc      []string
	Bcc     []string
	Subject string
	Body    string
	IsHTML  bool
}
