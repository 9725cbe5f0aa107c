// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 remix-auth-example Contributors

package observability

import "github.com/prometheus/client_golang/prometheus"

// Session validation outcomes.
const (
	OutcomeAuthenticated   = "authenticated"
	OutcomeRenewed         = "renewed"
	OutcomeUnauthenticated = "unauthenticated"
	OutcomeError           = "error"
)

// ResultSuccess labels a successful signup or login. Failures are labelled
// with the error kind.
const ResultSuccess = "success"

// AuthMetrics counts authentication events. A nil *AuthMetrics discards
// everything, so components can be built without a registry.
type AuthMetrics struct {
	LoginsTotal      *prometheus.CounterVec
	SignupsTotal     *prometheus.CounterVec
	ValidationsTotal *prometheus.CounterVec
	SweptTotal       prometheus.Counter
}

// NewAuthMetrics creates and registers the authentication metrics.
func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	m := &AuthMetrics{
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "remix_auth_logins_total",
				Help: "Total number of login attempts by result",
			},
			[]string{"result"},
		),
		SignupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "remix_auth_signups_total",
				Help: "Total number of signup attempts by result",
			},
			[]string{"result"},
		),
		ValidationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "remix_auth_session_validations_total",
				Help: "Total number of session validations by outcome",
			},
			[]string{"outcome"},
		),
		SweptTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "remix_auth_sessions_swept_total",
				Help: "Total number of expired sessions deleted by the sweeper",
			},
		),
	}

	reg.MustRegister(m.LoginsTotal, m.SignupsTotal, m.ValidationsTotal, m.SweptTotal)
	return m
}

// RecordLogin counts a login attempt.
func (m *AuthMetrics) RecordLogin(result string) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(result).Inc()
}

// RecordSignup counts a signup attempt.
func (m *AuthMetrics) RecordSignup(result string) {
	if m == nil {
		return
	}
	m.SignupsTotal.WithLabelValues(result).Inc()
}

// RecordValidation counts a session validation.
func (m *AuthMetrics) RecordValidation(outcome string) {
	if m == nil {
		return
	}
	m.ValidationsTotal.WithLabelValues(outcome).Inc()
}

// AddSwept adds n deleted sessions.
func (m *AuthMetrics) AddSwept(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.SweptTotal.Add(float64(n))
}
