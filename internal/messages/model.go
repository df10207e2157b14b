package messages

import "time"

// SystemSenderID marks messages written by the platform itself.
const SystemSenderID = "system"

// Message is one entry in a case thread. Messages are never deleted; the
// read flag is the only field that changes after creation.
type Message struct {
	ID         string
	CaseID     string
	SenderID   string
	SenderName string
	IsAdmin    bool
	Read       bool
	Content    string
	CreatedAt  time.Time
}
