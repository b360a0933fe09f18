package mail

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/carelink/healthcare-portal/internal/core/ports"
)

type captureTransport struct {
	sent []Message
	err  error
}

func (c *captureTransport) Send(_ context.Context, m Message) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, m)
	return nil
}

func newTestNotifier(t *testing.T) (*Notifier, *captureTransport) {
	t.Helper()
	tr := &captureTransport{}
	n, err := NewNotifier(tr, "")
	if err != nil {
		t.Fatalf("NewNotifier: %v", err)
	}
	n.now = func() time.Time { return time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC) }
	return n, tr
}

func TestNotifier_VerificationCode(t *testing.T) {
	n, tr := newTestNotifier(t)
	if err := n.SendVerificationCode(context.Background(), "a@x.com", "Alice", "123456"); err != nil {
		t.Fatalf("SendVerificationCode: %v", err)
	}
	m := tr.sent[0]
	if m.To != "a@x.com" || m.Kind != KindVerification {
		t.Fatalf("unexpected message %+v", m)
	}
	if m.Subject != "Email Verification Code - Healthcare Portal" {
		t.Fatalf("subject = %q", m.Subject)
	}
	for _, want := range []string{"Hello Alice!", "123456", "2026 Healthcare Portal"} {
		if !strings.Contains(m.HTML, want) {
			t.Fatalf("body missing %q", want)
		}
	}
}

func TestNotifier_EscapesUserInput(t *testing.T) {
	n, tr := newTestNotifier(t)
	_ = n.SendAppointmentConfirmation(context.Background(), ports.AppointmentNotice{
		PatientName:  "Alice",
		PatientEmail: "a@x.com",
		DoctorName:   "Greg House",
		Date:         time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
		StartTime:    "10:00",
		EndTime:      "10:30",
		Reason:       "<script>alert(1)</script>",
	})
	body := tr.sent[0].HTML
	if strings.Contains(body, "<script>") {
		t.Fatalf("reason was not escaped")
	}
	if !strings.Contains(body, "Wednesday, March 11, 2026") || !strings.Contains(body, "Dr. Greg House") {
		t.Fatalf("details missing from body")
	}
}

func TestNotifier_DigestListsEntries(t *testing.T) {
	n, tr := newTestNotifier(t)
	entries := []ports.DigestEntry{
		{PatientName: "Bob Jones", StartTime: "11:00", Reason: "flu"},
		{PatientName: "Alice Smith", StartTime: "14:00", Reason: "checkup"},
	}
	if err := n.SendDoctorDigest(context.Background(), "h@x.com", "Greg House", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), entries); err != nil {
		t.Fatalf("SendDoctorDigest: %v", err)
	}
	body := tr.sent[0].HTML
	if !strings.Contains(body, "2 appointment(s)") || strings.Index(body, "Bob Jones") > strings.Index(body, "Alice Smith") {
		t.Fatalf("digest body wrong: %s", body)
	}
}

func TestNotifier_EveryKindRenders(t *testing.T) {
	n, tr := newTestNotifier(t)
	ctx := context.Background()
	notice := ports.AppointmentNotice{PatientEmail: "a@x.com", Date: time.Now()}
	calls := []error{
		n.SendPasswordReset(ctx, "a@x.com", "Alice", "654321"),
		n.SendAppointmentReminder(ctx, notice),
		n.SendTestResultReady(ctx, "a@x.com", "Alice", "CBC"),
		n.SendReferral(ctx, "c@x.com", "Lisa Cuddy", "Alice Smith", "second opinion", "high"),
		n.SendTestRecommendation(ctx, "a@x.com", "Alice", "Greg House", []string{"MRI", "CBC"}),
	}
	for i, err := range calls {
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if len(tr.sent) != len(calls) {
		t.Fatalf("sent %d of %d", len(tr.sent), len(calls))
	}
}

func TestNotifier_TransportError(t *testing.T) {
	n, tr := newTestNotifier(t)
	tr.err = errors.New("smtp down")
	if err := n.SendTestResultReady(context.Background(), "a@x.com", "Alice", "CBC"); !errors.Is(err, tr.err) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestLogTransport_RequiresRecipient(t *testing.T) {
	if err := (&LogTransport{}).Send(context.Background(), Message{}); !errors.Is(err, errNoRecipient) {
		t.Fatalf("expected errNoRecipient, got %v", err)
	}
}

func TestBuildMIME(t *testing.T) {
	raw := string(buildMIME("noreply@x.com", "Portal", Message{To: "a@x.com", Subject: "Hi", HTML: "<p>x</p>"}))
	if !strings.Contains(raw, "To: a@x.com\r\n") || !strings.HasSuffix(raw, "\r\n\r\n<p>x</p>") {
		t.Fatalf("unexpected MIME %q", raw)
	}
	if !strings.Contains(raw, `Content-Type: text/html; charset="UTF-8"`) {
		t.Fatalf("missing content type")
	}
}
