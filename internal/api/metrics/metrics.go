// Package metrics defines all custom Prometheus metrics for the portal. It
// is the single source of truth for metric names, labels, and help strings;
// metrics self-register with the default registry via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portal"

// RegistrationsTotal counts registration attempts.
// Label:
//   - result: "ok", "duplicate_username", "duplicate_email", "invalid", "error"
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
//   - result: "ok", "unknown_user", "invalid_credentials", "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ListingUpdatesTotal counts filtered listing views pushed to live streams.
// A push can be triggered by a link, custom-role, or account change; the
// stream does not know which, so the counter carries no label.
var ListingUpdatesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listing_updates_total",
		Help:      "Total number of listing views pushed over live streams.",
	},
)

// ListingSessionsActive tracks currently open live listing streams.
var ListingSessionsActive = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "listing_sessions_active",
		Help:      "Number of websocket listing sessions currently open.",
	},
)

// PanelUnlocksTotal counts panel unlock attempts.
// Label:
//   - result: "ok", "bad_password", "forbidden"
var PanelUnlocksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "panel_unlocks_total",
		Help:      "Total number of admin panel unlock attempts, by result.",
	},
	[]string{"result"},
)
