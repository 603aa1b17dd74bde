package streamerbot

import "encoding/json"

// Event source and type names as Streamer.bot emits them.
const (
	sourceTwitch = "Twitch"

	typeChatMessage        = "ChatMessage"
	typeChatMessageDeleted = "ChatMessageDeleted"
	typeChatCleared        = "ChatCleared"
	typeUserBanned         = "UserBanned"
	typeUserTimedOut       = "UserTimedOut"
)

// ChatMessageEvent is the payload of Twitch.ChatMessage.
type ChatMessageEvent struct {
	Message ChatMessageBody `json:"message"`
}

// ChatMessageBody carries the fields of one chat message the bot uses.
type ChatMessageBody struct {
	MsgID       string `json:"msgId"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Message     string `json:"message"`
}

// ChatMessageDeletedEvent is the payload of Twitch.ChatMessageDeleted.
type ChatMessageDeletedEvent struct {
	TargetMessageID string `json:"targetMessageId"`
}

// UserModerationEvent is the shared payload of Twitch.UserBanned and
// Twitch.UserTimedOut; both carry only the moderated user's names.
type UserModerationEvent struct {
	UserName  string `json:"user_name"`
	UserLogin string `json:"user_login"`
}

// Action is one entry of the Streamer.bot action catalog.
type Action struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Group          string `json:"group"`
	Enabled        bool   `json:"enabled"`
	SubactionCount int    `json:"subaction_count"`
}

// frame is the generic inbound message shape: either an event push
// (Event/Data set) or a response to a request (ID/Status set).
type frame struct {
	ID      string          `json:"id,omitempty"`
	Status  string          `json:"status,omitempty"`
	Error   string          `json:"error,omitempty"`
	Event   *eventKey       `json:"event,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Actions []Action        `json:"actions,omitempty"`
}

type eventKey struct {
	Source string `json:"source"`
	Type   string `json:"type"`
}

// request is the outbound message shape.
type request struct {
	Request string              `json:"request"`
	ID      string              `json:"id"`
	Events  map[string][]string `json:"events,omitempty"`
	Action  *actionRef          `json:"action,omitempty"`
	Args    map[string]any      `json:"args,omitempty"`
}

type actionRef struct {
	ID string `json:"id"`
}
