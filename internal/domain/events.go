package domain

// Websocket event names pushed by the server.
const (
	EventOnlineUsers = "getOnlineUsers"
	EventNewMessage  = "newMessage"
)

// Event is the envelope for every server-to-client websocket push.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// NewOnlineUsersEvent builds a roster broadcast payload.
func NewOnlineUsersEvent(userIDs []string) Event {
	return Event{Event: EventOnlineUsers, Data: userIDs}
}

// NewMessageEvent builds a targeted message delivery payload.
func NewMessageEvent(msg *Message) Event {
	return Event{Event: EventNewMessage, Data: msg}
}
