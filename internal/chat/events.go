package chat

// EventName identifies an outbound event.
type EventName string

// Outbound events, core to client.
const (
	EventChatHistory     EventName = "chat_history"
	EventRequestNickname EventName = "request_nickname"
	EventNicknameSet     EventName = "nickname_set"
	EventNicknameError   EventName = "nickname_error"
	EventUsersCount      EventName = "users_count"
	EventReceiveMessage  EventName = "receive_message"
)

// Event is a single push to one connection. Payload is JSON-encodable.
type Event struct {
	Name    EventName
	Payload any
}

// Conn is the Router's handle on a live transport connection.
//
// Deliver must not block: it either queues the event and returns true, or
// returns false when the connection cannot accept it (closed or backed
// up). Close releases the connection and must be idempotent.
type Conn interface {
	ID() string
	Deliver(ev Event) bool
	Close()
}

func historyEvent(messages []Message) Event {
	return Event{Name: EventChatHistory, Payload: messages}
}

func requestNicknameEvent() Event {
	return Event{Name: EventRequestNickname}
}

func nicknameSetEvent(id Identity) Event {
	return Event{Name: EventNicknameSet, Payload: id}
}

func nicknameErrorEvent(err error) Event {
	return Event{Name: EventNicknameError, Payload: Reason(err)}
}

func usersCountEvent(n int) Event {
	return Event{Name: EventUsersCount, Payload: n}
}

func receiveMessageEvent(msg Message) Event {
	return Event{Name: EventReceiveMessage, Payload: msg}
}
