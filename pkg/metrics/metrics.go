package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SessionsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "notevault", Name: "sessions_created_total", Help: "Number of sessions created."},
	)
	SessionsRevoked = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "notevault", Name: "sessions_revoked_total", Help: "Number of sessions revoked."},
	)
	TokenRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "notevault", Name: "token_refreshes_total", Help: "Number of transparent access-token refreshes by outcome."},
		[]string{"outcome"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "notevault", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "notevault", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(SessionsCreated)
	reg.MustRegister(SessionsRevoked)
	reg.MustRegister(TokenRefreshes)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
