package moderation

import (
	"context"
	"errors"
	"testing"
	"time"
)

type invocation struct {
	actionID string
	args     map[string]any
}

type fakeInvoker struct {
	calls []invocation
	err   error
}

func (f *fakeInvoker) DoAction(_ context.Context, actionID string, args map[string]any) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, invocation{actionID: actionID, args: args})
	return nil
}

type fakeResponder struct {
	replies []string
	forms   []Form
}

func (f *fakeResponder) Reply(content string) error {
	f.replies = append(f.replies, content)
	return nil
}

func (f *fakeResponder) ShowForm(form Form) error {
	f.forms = append(f.forms, form)
	return nil
}

var testActions = ActionIDs{Delete: "act-del", Timeout: "act-to", Ban: "act-ban"}

func newTestDispatcher(inv *fakeInvoker) *Dispatcher {
	return NewDispatcher(inv, testActions)
}

func TestControlsCarrySelfDescribingTokens(t *testing.T) {
	controls := Controls("m1", "ann")
	if len(controls) != 3 {
		t.Fatalf("Controls returned %d buttons, want 3", len(controls))
	}
	wantTokens := []string{"delete:m1", "timeout:ann", "ban:ann"}
	for i, c := range controls {
		if c.Token != wantTokens[i] {
			t.Errorf("control %d token = %q, want %q", i, c.Token, wantTokens[i])
		}
	}
	if controls[0].Danger {
		t.Error("delete control should not be danger-styled")
	}
	if !controls[1].Danger || !controls[2].Danger {
		t.Error("timeout and ban controls should be danger-styled")
	}
}

func TestDeleteClickInvokesAndAcknowledges(t *testing.T) {
	inv := &fakeInvoker{}
	r := &fakeResponder{}
	d := newTestDispatcher(inv)

	err := d.HandleControl(context.Background(), Click{Token: "delete:m1", UserID: "u1"}, r)
	if err != nil {
		t.Fatalf("HandleControl error: %v", err)
	}
	if len(inv.calls) != 1 {
		t.Fatalf("invoked %d actions, want 1", len(inv.calls))
	}
	if inv.calls[0].actionID != "act-del" {
		t.Errorf("actionID = %q, want act-del", inv.calls[0].actionID)
	}
	if got := inv.calls[0].args["id"]; got != "m1" {
		t.Errorf("args[id] = %v, want m1", got)
	}
	if len(r.replies) != 1 {
		t.Errorf("got %d replies, want 1 acknowledgement", len(r.replies))
	}
}

func TestDeleteClickInvokerFailureReturnsError(t *testing.T) {
	inv := &fakeInvoker{err: errors.New("backend down")}
	r := &fakeResponder{}
	d := newTestDispatcher(inv)

	err := d.HandleControl(context.Background(), Click{Token: "delete:m1", UserID: "u1"}, r)
	if err == nil {
		t.Fatal("expected error from failed invocation")
	}
	if len(r.replies) != 0 {
		t.Errorf("got %d replies after failure, want 0", len(r.replies))
	}
}

func TestDeleteClickUnconfiguredActionIsNoop(t *testing.T) {
	inv := &fakeInvoker{}
	r := &fakeResponder{}
	d := NewDispatcher(inv, ActionIDs{})

	if err := d.HandleControl(context.Background(), Click{Token: "delete:m1", UserID: "u1"}, r); err != nil {
		t.Fatalf("HandleControl error: %v", err)
	}
	if len(inv.calls) != 0 || len(r.replies) != 0 {
		t.Error("unconfigured delete action must invoke nothing and stay silent")
	}
}

func TestUnknownControlTokenIsNoop(t *testing.T) {
	inv := &fakeInvoker{}
	r := &fakeResponder{}
	d := newTestDispatcher(inv)

	if err := d.HandleControl(context.Background(), Click{Token: "bogus", UserID: "u1"}, r); err != nil {
		t.Fatalf("HandleControl error: %v", err)
	}
	if len(inv.calls) != 0 {
		t.Error("unknown token must invoke nothing")
	}
}

func TestTimeoutClickShowsForm(t *testing.T) {
	inv := &fakeInvoker{}
	r := &fakeResponder{}
	d := newTestDispatcher(inv)

	if err := d.HandleControl(context.Background(), Click{Token: "timeout:ann", UserID: "u1"}, r); err != nil {
		t.Fatalf("HandleControl error: %v", err)
	}
	if len(r.forms) != 1 {
		t.Fatalf("showed %d forms, want 1", len(r.forms))
	}
	f := r.forms[0]
	if f.Title != "Timeout User" {
		t.Errorf("form title = %q", f.Title)
	}
	if len(f.Inputs) != 2 {
		t.Fatalf("form has %d inputs, want 2", len(f.Inputs))
	}
	duration := f.Inputs[0]
	if duration.ID != "duration" || !duration.Required || duration.MinLen != 1 || duration.MaxLen != 10 {
		t.Errorf("duration input = %+v", duration)
	}
	if f.Inputs[1].Required {
		t.Error("reason input must be optional")
	}

	kind, login, userID, deadline, err := ParseFormToken(f.Token)
	if err != nil {
		t.Fatalf("form token does not parse: %v", err)
	}
	if kind != KindTimeout || login != "ann" || userID != "u1" {
		t.Errorf("form token carries (%q, %q, %q)", kind, login, userID)
	}
	window := time.Until(deadline)
	if window < 50*time.Second || window > 70*time.Second {
		t.Errorf("response window = %v, want ~60s", window)
	}
}

func TestBanClickShowsReasonOnlyForm(t *testing.T) {
	inv := &fakeInvoker{}
	r := &fakeResponder{}
	d := newTestDispatcher(inv)

	if err := d.HandleControl(context.Background(), Click{Token: "ban:ann", UserID: "u1"}, r); err != nil {
		t.Fatalf("HandleControl error: %v", err)
	}
	if len(r.forms) != 1 {
		t.Fatalf("showed %d forms, want 1", len(r.forms))
	}
	f := r.forms[0]
	if f.Title != "Ban User" {
		t.Errorf("form title = %q", f.Title)
	}
	if len(f.Inputs) != 1 || f.Inputs[0].ID != "reason" || f.Inputs[0].Required {
		t.Errorf("ban form inputs = %+v, want one optional reason", f.Inputs)
	}
}

func submissionToken(d *Dispatcher, kind Kind, login, userID string) string {
	return FormToken(kind, login, userID, d.now().Add(ResponseWindow))
}

func TestTimeoutSubmissionBlankReasonOmitsKey(t *testing.T) {
	inv := &fakeInvoker{}
	r := &fakeResponder{}
	d := newTestDispatcher(inv)

	sub := Submission{
		Token:  submissionToken(d, KindTimeout, "ann", "u1"),
		UserID: "u1",
		Fields: map[string]string{"duration": "30", "reason": "   "},
	}
	if err := d.HandleSubmission(context.Background(), sub, r); err != nil {
		t.Fatalf("HandleSubmission error: %v", err)
	}
	if len(inv.calls) != 1 {
		t.Fatalf("invoked %d actions, want 1", len(inv.calls))
	}
	call := inv.calls[0]
	if call.actionID != "act-to" {
		t.Errorf("actionID = %q, want act-to", call.actionID)
	}
	if call.args["username"] != "ann" || call.args["duration"] != "30" {
		t.Errorf("args = %v", call.args)
	}
	if _, present := call.args["reason"]; present {
		t.Error("blank reason must not produce a reason key")
	}
	if len(r.replies) != 1 {
		t.Errorf("got %d replies, want 1", len(r.replies))
	}
}

func TestTimeoutSubmissionWithReason(t *testing.T) {
	inv := &fakeInvoker{}
	d := newTestDispatcher(inv)

	sub := Submission{
		Token:  submissionToken(d, KindTimeout, "ann", "u1"),
		UserID: "u1",
		Fields: map[string]string{"duration": "600", "reason": " spamming "},
	}
	if err := d.HandleSubmission(context.Background(), sub, &fakeResponder{}); err != nil {
		t.Fatalf("HandleSubmission error: %v", err)
	}
	if got := inv.calls[0].args["reason"]; got != "spamming" {
		t.Errorf("args[reason] = %v, want trimmed %q", got, "spamming")
	}
}

func TestBanSubmission(t *testing.T) {
	inv := &fakeInvoker{}
	d := newTestDispatcher(inv)

	sub := Submission{
		Token:  submissionToken(d, KindBan, "ann", "u1"),
		UserID: "u1",
		Fields: map[string]string{"reason": ""},
	}
	if err := d.HandleSubmission(context.Background(), sub, &fakeResponder{}); err != nil {
		t.Fatalf("HandleSubmission error: %v", err)
	}
	call := inv.calls[0]
	if call.actionID != "act-ban" {
		t.Errorf("actionID = %q, want act-ban", call.actionID)
	}
	if call.args["username"] != "ann" {
		t.Errorf("args = %v", call.args)
	}
	if _, present := call.args["duration"]; present {
		t.Error("ban must not carry a duration")
	}
}

func TestSubmissionPastDeadlineInvokesNothing(t *testing.T) {
	inv := &fakeInvoker{}
	r := &fakeResponder{}
	d := newTestDispatcher(inv)

	token := FormToken(KindTimeout, "ann", "u1", time.Now().Add(-time.Second))
	sub := Submission{Token: token, UserID: "u1", Fields: map[string]string{"duration": "30"}}
	if err := d.HandleSubmission(context.Background(), sub, r); err != nil {
		t.Fatalf("HandleSubmission error: %v", err)
	}
	if len(inv.calls) != 0 {
		t.Error("expired form must invoke nothing")
	}
	if len(r.replies) != 0 {
		t.Error("expired form must get no confirmation")
	}
}

func TestSubmissionFromDifferentUserInvokesNothing(t *testing.T) {
	inv := &fakeInvoker{}
	d := newTestDispatcher(inv)

	sub := Submission{
		Token:  submissionToken(d, KindTimeout, "ann", "u1"),
		UserID: "u2",
		Fields: map[string]string{"duration": "30"},
	}
	if err := d.HandleSubmission(context.Background(), sub, &fakeResponder{}); err != nil {
		t.Fatalf("HandleSubmission error: %v", err)
	}
	if len(inv.calls) != 0 {
		t.Error("another user's submission must never fire the original click's action")
	}
}

func TestTimeoutSubmissionWithoutDurationInvokesNothing(t *testing.T) {
	inv := &fakeInvoker{}
	d := newTestDispatcher(inv)

	sub := Submission{
		Token:  submissionToken(d, KindTimeout, "ann", "u1"),
		UserID: "u1",
		Fields: map[string]string{"reason": "spamming"},
	}
	if err := d.HandleSubmission(context.Background(), sub, &fakeResponder{}); err != nil {
		t.Fatalf("HandleSubmission error: %v", err)
	}
	if len(inv.calls) != 0 {
		t.Error("timeout without duration must invoke nothing")
	}
}

func TestSubmissionInvokerFailureReturnsErrorWithoutReply(t *testing.T) {
	inv := &fakeInvoker{err: errors.New("backend down")}
	r := &fakeResponder{}
	d := newTestDispatcher(inv)

	sub := Submission{
		Token:  submissionToken(d, KindBan, "ann", "u1"),
		UserID: "u1",
		Fields: map[string]string{},
	}
	if err := d.HandleSubmission(context.Background(), sub, r); err == nil {
		t.Fatal("expected error from failed invocation")
	}
	if len(r.replies) != 0 {
		t.Error("failed invocation must yield silence, not a confirmation")
	}
}
