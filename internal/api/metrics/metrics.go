// Package metrics defines and registers all custom Prometheus metrics for the
// portal services. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics register with the default registry on package init through promauto;
// HTTP request metrics come from the echoprometheus middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portal"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// RegistrationsTotal counts registration attempts.
// Label:
//   - result: "created", "resent", "duplicate", "error"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "unverified", "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// TokenVerificationsTotal counts access-token checks, local or remote.
// Label:
//   - result: "valid", "invalid", "unavailable"
var TokenVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_verifications_total",
		Help:      "Total number of access token verifications, by result.",
	},
	[]string{"result"},
)

// ── Profile sync metrics ──────────────────────────────────────────────────────

// ProfileSyncTotal counts pushes of identity data into medical profiles.
// Labels:
//   - direction: "outbound" (auth side) or "inbound" (medical side)
//   - result: "created", "merged", "skipped", "failed"
var ProfileSyncTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "profile_sync_total",
		Help:      "Total number of profile sync operations, by direction and result.",
	},
	[]string{"direction", "result"},
)

// ProfilePullsTotal counts lazy identity pulls made while ensuring a profile.
// Label:
//   - result: "filled", "failed"
var ProfilePullsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "profile_pulls_total",
		Help:      "Total number of identity pulls from the auth service, by result.",
	},
	[]string{"result"},
)

// ── Medical metrics ───────────────────────────────────────────────────────────

// AppointmentsBookedTotal counts booking attempts.
// Label:
//   - result: "booked", "slot_taken"
var AppointmentsBookedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "appointments_booked_total",
		Help:      "Total number of appointment booking attempts, by result.",
	},
	[]string{"result"},
)

// NotificationsTotal counts outgoing messages.
// Labels:
//   - kind: "verification", "password_reset", "appointment_confirmation", ...
//   - result: "sent", "failed"
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of notifications handed to the mail transport.",
	},
	[]string{"kind", "result"},
)

// JobRunsTotal counts scheduled job executions.
// Labels:
//   - job: "reminders", "digest"
//   - result: "ok", "error", "locked"
var JobRunsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "job_runs_total",
		Help:      "Total number of scheduled job runs, by job and result.",
	},
	[]string{"job", "result"},
)

// JobDuration measures how long a scheduled job run takes.
var JobDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "job_duration_seconds",
		Help:      "Duration of scheduled job runs.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"job"},
)

// RateLimitedTotal counts requests rejected by a rate-limit policy.
var RateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by rate limiting, by policy.",
	},
	[]string{"policy"},
)

// MailQueueDepth tracks pending deliveries per mail worker.
var MailQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mail_queue_depth",
		Help:      "Current number of messages pending in each mail worker channel.",
	},
	[]string{"worker_id"},
)

// MailDeliveriesTotal counts SMTP deliveries made by the mail worker.
// Labels:
//   - kind: mail kind
//   - result: "sent", "failed"
var MailDeliveriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mail_deliveries_total",
		Help:      "Total number of mail deliveries by the mail worker, by kind and result.",
	},
	[]string{"kind", "result"},
)
