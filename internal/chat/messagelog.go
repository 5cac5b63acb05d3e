package chat

// Message is one accepted chat line. ID, Text and Timestamp come from the
// client as-is; Nickname and Color are stamped from the sender's identity.
type Message struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	Nickname  string `json:"nickname"`
	Color     string `json:"color"`
}

// Draft is a message as submitted by a client, before stamping.
type Draft struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// MessageLog is the append-only history of broadcast messages. It has no
// upper bound.
type MessageLog struct {
	messages []Message
}

// NewMessageLog returns an empty log.
func NewMessageLog() *MessageLog {
	return &MessageLog{}
}

// Append adds msg to the end of the log.
func (l *MessageLog) Append(msg Message) {
	l.messages = append(l.messages, msg)
}

// Snapshot returns every message, oldest first. The slice is a copy.
func (l *MessageLog) Snapshot() []Message {
	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Len returns the number of messages in the log.
func (l *MessageLog) Len() int {
	return len(l.messages)
}
