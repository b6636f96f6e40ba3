// Package metrics defines and registers the custom Prometheus metrics of the
// origination service. It is the single source of truth for metric names,
// labels, and help strings. Metrics register with the default registry on
// package init through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "origination"

// ── Application metrics ───────────────────────────────────────────────────────

// ApplicationsCreatedTotal counts committed application creations.
// Label:
//   - creator_role: role of the acting user (e.g. "customer", "agent")
var ApplicationsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "applications_created_total",
		Help:      "Total number of loan applications created, by creator role.",
	},
	[]string{"creator_role"},
)

// ReferenceCollisionsTotal counts reference ids rejected by the unique index.
var ReferenceCollisionsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reference_collisions_total",
		Help:      "Total number of generated reference ids that collided with an existing one.",
	},
)

// ApplicationsDeletedTotal counts hard deletes.
var ApplicationsDeletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "applications_deleted_total",
		Help:      "Total number of loan applications permanently deleted.",
	},
)

// ── Workflow metrics ──────────────────────────────────────────────────────────

// RemarksTotal counts workflow remark mutations.
// Labels:
//   - action: "add", "update", "delete" or "delete_request"
//   - status: the application status after the mutation
var RemarksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "workflow_remarks_total",
		Help:      "Total number of workflow remark mutations, by action and resulting status.",
	},
	[]string{"action", "status"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsSentTotal counts notifications written to the store.
var NotificationsSentTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_sent_total",
		Help:      "Total number of in-app notifications created.",
	},
)

// ── Mail metrics ──────────────────────────────────────────────────────────────

// MailQueueDepth tracks the number of messages waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var MailQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mail_queue_depth",
		Help:      "Current number of messages pending in each mail worker channel.",
	},
	[]string{"worker_id"},
)

// MailErrorsTotal counts messages the mailer failed to deliver.
var MailErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mail_errors_total",
		Help:      "Total number of outbound messages that failed delivery.",
	},
)

// MailDeliveryDuration measures how long the mailer takes per message.
var MailDeliveryDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "mail_delivery_duration_seconds",
		Help:      "Duration of a single mail delivery attempt.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Verification metrics ──────────────────────────────────────────────────────

// VerificationsTotal counts email verification outcomes.
// Label:
//   - result: "sent", "verified", "rejected" or "exhausted"
var VerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "email_verifications_total",
		Help:      "Total number of email verification steps, by result.",
	},
	[]string{"result"},
)
