// Package mail renders portal notifications and delivers them through a
// pluggable transport.
package mail

import (
	"context"
	"errors"
	"strings"
)

// Message is a rendered email ready for delivery.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Kind    string `json:"kind"`
}

// Transport delivers a rendered message.
type Transport interface {
	Send(ctx context.Context, m Message) error
}

// Message kinds, also used as the metrics label.
const (
	KindVerification   = "verification_code"
	KindPasswordReset  = "password_reset"
	KindConfirmation   = "appointment_confirmation"
	KindReminder       = "appointment_reminder"
	KindDigest         = "doctor_digest"
	KindTestResult     = "test_result"
	KindReferral       = "referral"
	KindRecommendation = "test_recommendation"
)

var errNoRecipient = errors.New("mail: recipient is required")

func (m Message) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return errNoRecipient
	}
	return nil
}
