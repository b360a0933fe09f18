package mail

import (
	"bytes"
	"fmt"
	"html/template"
)

const layout = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body style="font-family: Arial, sans-serif; color: #1f2937; max-width: 600px; margin: 0 auto;">
  <div style="background: #2563eb; color: #ffffff; padding: 20px; text-align: center;">
    <h1 style="margin: 0;">{{.Title}}</h1>
  </div>
  <div style="padding: 24px; background: #f9fafb;">
    {{template "content" .Data}}
  </div>
  <div style="padding: 12px; text-align: center; color: #6b7280; font-size: 12px;">
    <p>&copy; {{.Year}} {{.Portal}}. All rights reserved.</p>
  </div>
</body>
</html>`

var bodies = map[string]string{
	KindVerification: `
<h2>Hello {{.Name}}!</h2>
<p>Use the code below to verify your email address.</p>
<p style="font-size: 28px; font-weight: bold; letter-spacing: 6px; text-align: center;">{{.Code}}</p>
<p><strong>This code will expire in 10 minutes.</strong></p>
<p>If you didn't request this, please ignore this email.</p>`,

	KindPasswordReset: `
<h2>Hello {{.Name}}!</h2>
<p>We received a request to reset your password. Use this code to choose a new one.</p>
<p style="font-size: 28px; font-weight: bold; letter-spacing: 6px; text-align: center;">{{.Code}}</p>
<p><strong>This code will expire in 10 minutes.</strong></p>
<p>If you didn't request this, please ignore this email.</p>`,

	KindConfirmation: `
<h2>Hello {{.PatientName}}!</h2>
<p>Your appointment has been successfully scheduled.</p>
<h3>Appointment Details</h3>
<p><strong>Doctor:</strong> Dr. {{.DoctorName}}{{if .Specialty}} ({{.Specialty}}){{end}}</p>
<p><strong>Date:</strong> {{.Date}}</p>
<p><strong>Time:</strong> {{.StartTime}} - {{.EndTime}}</p>
<p><strong>Reason:</strong> {{.Reason}}</p>
<p><strong>Important:</strong> Please arrive 10 minutes before your scheduled time.</p>
<p>If you need to cancel or reschedule, please do so at least 24 hours in advance.</p>`,

	KindReminder: `
<h2>Hello {{.PatientName}}!</h2>
<p>This is a reminder of your appointment tomorrow.</p>
<p><strong>Doctor:</strong> Dr. {{.DoctorName}}</p>
<p><strong>Date:</strong> {{.Date}}</p>
<p><strong>Time:</strong> {{.StartTime}}</p>
<p>Please arrive 10 minutes early. If you need to cancel or reschedule, please contact us as soon as possible.</p>`,

	KindDigest: `
<h2>Good morning Dr. {{.DoctorName}}!</h2>
<p>You have {{len .Entries}} appointment(s) on {{.Date}}.</p>
{{range .Entries}}
<div style="border-left: 3px solid #2563eb; padding: 6px 12px; margin: 8px 0;">
  <p><strong>{{.StartTime}}</strong> - {{.PatientName}}</p>
  <p style="color: #6b7280; margin: 5px 0;">Reason: {{.Reason}}</p>
</div>
{{end}}`,

	KindTestResult: `
<h2>Hello {{.PatientName}}!</h2>
<p>Your test results are now available.</p>
<h3>{{.TestName}}</h3>
<p>Please log in to your portal to view the complete results and any notes from your doctor.</p>
<p>If you have any questions about your results, please contact your healthcare provider.</p>`,

	KindReferral: `
<h2>New referral</h2>
<p>{{.PatientName}} has been referred to Dr. {{.DoctorName}}.</p>
<p><strong>Urgency:</strong> {{.Urgency}}</p>
<p><strong>Reason:</strong> {{.Reason}}</p>
<p>Please log in to the portal to review the referral.</p>`,

	KindRecommendation: `
<h2>Hello {{.PatientName}}!</h2>
<p>Dr. {{.DoctorName}} has recommended the following tests:</p>
<ul>{{range .Tests}}<li>{{.}}</li>{{end}}</ul>
<p>Please log in to the portal to schedule them.</p>`,
}

var subjects = map[string]string{
	KindVerification:   "Email Verification Code",
	KindPasswordReset:  "Password Reset Code",
	KindConfirmation:   "Appointment Confirmation",
	KindReminder:       "Appointment Reminder - Tomorrow",
	KindDigest:         "Your Appointments Today",
	KindTestResult:     "Your Test Results Are Ready",
	KindReferral:       "New Referral",
	KindRecommendation: "Recommended Tests",
}

var titles = map[string]string{
	KindVerification:   "Verify Your Email",
	KindPasswordReset:  "Reset Your Password",
	KindConfirmation:   "Appointment Confirmed",
	KindReminder:       "Appointment Reminder",
	KindDigest:         "Daily Schedule",
	KindTestResult:     "Test Results Available",
	KindReferral:       "Referral",
	KindRecommendation: "Test Recommendation",
}

type templates map[string]*template.Template

func parseTemplates() (templates, error) {
	out := make(templates, len(bodies))
	for kind, body := range bodies {
		t, err := template.New(kind).Parse(layout)
		if err != nil {
			return nil, fmt.Errorf("parse layout: %w", err)
		}
		if _, err := t.New("content").Parse(body); err != nil {
			return nil, fmt.Errorf("parse %s template: %w", kind, err)
		}
		out[kind] = t
	}
	return out, nil
}

type page struct {
	Title  string
	Portal string
	Year   int
	Data   any
}

func (t templates) render(kind string, p page) (string, error) {
	tmpl, ok := t[kind]
	if !ok {
		return "", fmt.Errorf("no template for %q", kind)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("render %s: %w", kind, err)
	}
	return buf.String(), nil
}
