// Package moderation turns Discord control clicks and form submissions into
// Streamer.bot action invocations.
//
// Delete completes in one hop: click, invoke, acknowledge. Timeout and ban
// need extra input, so the click opens a form (duration and/or reason) with
// a 60-second response window; the submission then invokes the configured
// action. All correlation state travels inside the interaction custom ids,
// see token.go.
package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/onnwee/chat-mirror/backend/mirror"
	"github.com/onnwee/chat-mirror/backend/telemetry"
)

// ResponseWindow bounds how long a moderator has to submit a follow-up form.
const ResponseWindow = 60 * time.Second

// ActionInvoker sends a named action with an argument bag to the backend.
type ActionInvoker interface {
	DoAction(ctx context.Context, actionID string, args map[string]any) error
}

// ActionIDs holds the externally configured Streamer.bot action ids. An
// empty id disables that control: clicks are logged no-ops.
type ActionIDs struct {
	Delete  string
	Timeout string
	Ban     string
}

// Click is a pressed moderation control.
type Click struct {
	Token  string // the control's custom id
	UserID string // platform id of the clicking user
}

// Submission is a submitted follow-up form.
type Submission struct {
	Token  string // the form's custom id
	UserID string // platform id of the submitting user
	Fields map[string]string
}

// TextInput describes one form field.
type TextInput struct {
	ID          string
	Label       string
	Placeholder string
	Required    bool
	Paragraph   bool
	MinLen      int
	MaxLen      int
}

// Form is a modal shown in response to a control click.
type Form struct {
	Token  string
	Title  string
	Inputs []TextInput
}

// Responder is the reply surface for one interaction.
type Responder interface {
	Reply(content string) error
	ShowForm(f Form) error
}

// Controls builds the three moderation buttons attached to a mirrored post.
// Delete needs the source message id; timeout and ban act on the login.
func Controls(msgID, login string) []mirror.Control {
	return []mirror.Control{
		{Token: ControlToken(KindDelete, msgID), Label: "Delete"},
		{Token: ControlToken(KindTimeout, login), Label: "Timeout", Danger: true},
		{Token: ControlToken(KindBan, login), Label: "Ban", Danger: true},
	}
}

// Dispatcher routes clicks and submissions to the action invoker.
type Dispatcher struct {
	invoker ActionInvoker
	actions ActionIDs
	now     func() time.Time
}

// NewDispatcher wires a dispatcher against the given invoker and action ids.
func NewDispatcher(invoker ActionInvoker, actions ActionIDs) *Dispatcher {
	return &Dispatcher{invoker: invoker, actions: actions, now: time.Now}
}

// HandleControl processes one button click. Delete invokes immediately;
// timeout and ban open their follow-up form. The returned error covers only
// invocation or response failures; a malformed or unconfigured control is a
// logged no-op.
func (d *Dispatcher) HandleControl(ctx context.Context, click Click, r Responder) error {
	kind, target, err := ParseControlToken(click.Token)
	if err != nil {
		telemetry.LoggerWithCorr(ctx).Warn("ignoring unrecognized control", slog.Any("err", err))
		return nil
	}
	switch kind {
	case KindDelete:
		if d.actions.Delete == "" {
			telemetry.LoggerWithCorr(ctx).Warn("delete action id not configured")
			return nil
		}
		if err := d.invoker.DoAction(ctx, d.actions.Delete, map[string]any{"id": target}); err != nil {
			telemetry.CountAction(string(KindDelete), false)
			return fmt.Errorf("invoke delete action: %w", err)
		}
		telemetry.CountAction(string(KindDelete), true)
		return r.Reply("Told Streamer.bot to run the delete action")
	case KindTimeout:
		return r.ShowForm(d.timeoutForm(target, click.UserID))
	case KindBan:
		return r.ShowForm(d.banForm(target, click.UserID))
	}
	return nil
}

// HandleSubmission processes one submitted form. Submissions past the
// deadline, from a different user than the clicker, or with a broken token
// invoke nothing; per policy the user gets silence, not an error message.
func (d *Dispatcher) HandleSubmission(ctx context.Context, sub Submission, r Responder) error {
	kind, login, userID, deadline, err := ParseFormToken(sub.Token)
	if err != nil {
		telemetry.LoggerWithCorr(ctx).Warn("ignoring unrecognized form submission", slog.Any("err", err))
		return nil
	}
	if sub.UserID != userID {
		telemetry.LoggerWithCorr(ctx).Warn("form submitted by a different user than the control click",
			slog.String("kind", string(kind)))
		return nil
	}
	if d.now().After(deadline) {
		telemetry.CountFormExpired()
		telemetry.LoggerWithCorr(ctx).Warn("form submitted past its response window",
			slog.String("kind", string(kind)), slog.Time("deadline", deadline))
		return nil
	}

	args := map[string]any{"username": login}
	var actionID string
	switch kind {
	case KindTimeout:
		duration := sub.Fields["duration"]
		if duration == "" {
			telemetry.LoggerWithCorr(ctx).Warn("timeout form submitted without a duration")
			return nil
		}
		args["duration"] = duration
		actionID = d.actions.Timeout
	case KindBan:
		actionID = d.actions.Ban
	}
	if actionID == "" {
		telemetry.LoggerWithCorr(ctx).Warn("action id not configured", slog.String("kind", string(kind)))
		return nil
	}
	if reason := strings.TrimSpace(sub.Fields["reason"]); reason != "" {
		args["reason"] = reason
	}

	if err := d.invoker.DoAction(ctx, actionID, args); err != nil {
		telemetry.CountAction(string(kind), false)
		return fmt.Errorf("invoke %s action: %w", kind, err)
	}
	telemetry.CountAction(string(kind), true)
	return r.Reply(fmt.Sprintf("Told Streamer.bot to run the %s action", kind))
}

func (d *Dispatcher) timeoutForm(login, userID string) Form {
	return Form{
		Token: FormToken(KindTimeout, login, userID, d.now().Add(ResponseWindow)),
		Title: "Timeout User",
		Inputs: []TextInput{
			{ID: "duration", Label: "Timeout Duration in Seconds", Placeholder: "Timeout Duration in Seconds", Required: true, MinLen: 1, MaxLen: 10},
			{ID: "reason", Label: "Timeout Reason", Placeholder: "Timeout Reason", Paragraph: true},
		},
	}
}

func (d *Dispatcher) banForm(login, userID string) Form {
	return Form{
		Token: FormToken(KindBan, login, userID, d.now().Add(ResponseWindow)),
		Title: "Ban User",
		Inputs: []TextInput{
			{ID: "reason", Label: "Ban Reason", Placeholder: "Ban Reason", Paragraph: true},
		},
	}
}
