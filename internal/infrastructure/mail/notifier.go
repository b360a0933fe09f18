package mail

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/carelink/healthcare-portal/internal/core/ports"
)

const (
	defaultPortalName = "Healthcare Portal"
	dateLayout        = "Monday, January 2, 2006"
)

// Notifier renders portal notifications and hands them to a Transport.
// It implements ports.Notifier.
type Notifier struct {
	transport Transport
	tmpl      templates
	portal    string
	now       func() time.Time
}

func NewNotifier(transport Transport, portalName string) (*Notifier, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	if portalName == "" {
		portalName = defaultPortalName
	}
	return &Notifier{transport: transport, tmpl: tmpl, portal: portalName, now: time.Now}, nil
}

func (n *Notifier) send(ctx context.Context, kind, to string, data any) error {
	html, err := n.tmpl.render(kind, page{
		Title:  titles[kind],
		Portal: n.portal,
		Year:   n.now().Year(),
		Data:   data,
	})
	if err != nil {
		return err
	}
	subject := subjects[kind] + " - " + n.portal
	if err := n.transport.Send(ctx, Message{To: to, Subject: subject, HTML: html, Kind: kind}); err != nil {
		return fmt.Errorf("send %s: %w", kind, err)
	}
	return nil
}

type codeData struct {
	Name string
	Code string
}

func (n *Notifier) SendVerificationCode(ctx context.Context, to, name, code string) error {
	return n.send(ctx, KindVerification, to, codeData{Name: name, Code: code})
}

func (n *Notifier) SendPasswordReset(ctx context.Context, to, name, code string) error {
	return n.send(ctx, KindPasswordReset, to, codeData{Name: name, Code: code})
}

type appointmentData struct {
	ports.AppointmentNotice
	Date string
}

func (n *Notifier) SendAppointmentConfirmation(ctx context.Context, a ports.AppointmentNotice) error {
	return n.send(ctx, KindConfirmation, a.PatientEmail, appointmentData{AppointmentNotice: a, Date: a.Date.Format(dateLayout)})
}

func (n *Notifier) SendAppointmentReminder(ctx context.Context, a ports.AppointmentNotice) error {
	return n.send(ctx, KindReminder, a.PatientEmail, appointmentData{AppointmentNotice: a, Date: a.Date.Format(dateLayout)})
}

type digestData struct {
	DoctorName string
	Date       string
	Entries    []ports.DigestEntry
}

func (n *Notifier) SendDoctorDigest(ctx context.Context, to, doctorName string, day time.Time, entries []ports.DigestEntry) error {
	return n.send(ctx, KindDigest, to, digestData{DoctorName: doctorName, Date: day.Format(dateLayout), Entries: entries})
}

type testResultData struct {
	PatientName string
	TestName    string
}

func (n *Notifier) SendTestResultReady(ctx context.Context, to, patientName, testName string) error {
	return n.send(ctx, KindTestResult, to, testResultData{PatientName: patientName, TestName: testName})
}

type referralData struct {
	DoctorName  string
	PatientName string
	Reason      string
	Urgency     string
}

// SendReferral mails one participant of a referral to doctorName.
func (n *Notifier) SendReferral(ctx context.Context, to, doctorName, patientName, reason, urgency string) error {
	return n.send(ctx, KindReferral, to, referralData{
		DoctorName:  doctorName,
		PatientName: patientName,
		Reason:      reason,
		Urgency:     strings.ToUpper(urgency),
	})
}

type recommendationData struct {
	PatientName string
	DoctorName  string
	Tests       []string
}

func (n *Notifier) SendTestRecommendation(ctx context.Context, to, patientName, doctorName string, tests []string) error {
	return n.send(ctx, KindRecommendation, to, recommendationData{PatientName: patientName, DoctorName: doctorName, Tests: tests})
}
