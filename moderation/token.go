package moderation

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind names a moderation action a control can trigger.
type Kind string

const (
	KindDelete  Kind = "delete"
	KindTimeout Kind = "timeout"
	KindBan     Kind = "ban"
)

// The dispatcher is stateless between a click and the next interaction, so
// every token must carry its own identity. Control tokens embed the action
// kind and target; form tokens additionally embed the triggering user and an
// absolute deadline, which is how the 60-second response window survives
// without any server-side session. Twitch message ids are UUIDs and logins
// are [a-z0-9_], so a colon separator is unambiguous.

// ControlToken builds the self-describing custom id for a moderation button.
// The target is a source message id for delete, a user login otherwise.
func ControlToken(kind Kind, target string) string {
	return string(kind) + ":" + target
}

// ParseControlToken splits a button custom id back into kind and target.
func ParseControlToken(token string) (Kind, string, error) {
	kind, target, ok := strings.Cut(token, ":")
	if !ok || target == "" {
		return "", "", fmt.Errorf("malformed control token %q", token)
	}
	switch Kind(kind) {
	case KindDelete, KindTimeout, KindBan:
		return Kind(kind), target, nil
	}
	return "", "", fmt.Errorf("unknown control kind %q", kind)
}

// FormToken builds the custom id for a follow-up form. userID is the id of
// the user who clicked the control; a submission from anyone else is
// rejected so two moderators' concurrent forms can never cross-wire.
func FormToken(kind Kind, login, userID string, deadline time.Time) string {
	return string(kind) + "-form:" + userID + ":" + strconv.FormatInt(deadline.Unix(), 10) + ":" + login
}

// ParseFormToken splits a form custom id back into its parts. The login is
// the last segment so logins never collide with the separator layout.
func ParseFormToken(token string) (kind Kind, login, userID string, deadline time.Time, err error) {
	parts := strings.SplitN(token, ":", 4)
	if len(parts) != 4 {
		return "", "", "", time.Time{}, fmt.Errorf("malformed form token %q", token)
	}
	switch parts[0] {
	case string(KindTimeout) + "-form":
		kind = KindTimeout
	case string(KindBan) + "-form":
		kind = KindBan
	default:
		return "", "", "", time.Time{}, fmt.Errorf("unknown form kind %q", parts[0])
	}
	unix, perr := strconv.ParseInt(parts[2], 10, 64)
	if perr != nil {
		return "", "", "", time.Time{}, fmt.Errorf("malformed form deadline %q: %w", parts[2], perr)
	}
	userID = parts[1]
	login = parts[3]
	if userID == "" || login == "" {
		return "", "", "", time.Time{}, fmt.Errorf("malformed form token %q", token)
	}
	return kind, login, userID, time.Unix(unix, 0), nil
}
