package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ChallengesIssuedTotal  *prometheus.CounterVec
	VerifyAttemptsTotal    *prometheus.CounterVec
	DispatchFailuresTotal  *prometheus.CounterVec
	BackupCodesUsedTotal   prometheus.Counter
	BackupCodesMintedTotal prometheus.Counter
	PendingChallenges      prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		ChallengesIssuedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "edgeguard_twofactor_challenges_issued_total",
			Help: "Total number of verification codes issued",
		}, []string{"channel"}),
		VerifyAttemptsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "edgeguard_twofactor_verify_attempts_total",
			Help: "Total number of code submissions by outcome",
		}, []string{"result"}),
		DispatchFailuresTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "edgeguard_twofactor_dispatch_failures_total",
			Help: "Total number of failed code deliveries",
		}, []string{"channel"}),
		BackupCodesUsedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "edgeguard_twofactor_backup_codes_used_total",
			Help: "Total number of backup codes consumed",
		}),
		BackupCodesMintedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "edgeguard_twofactor_backup_codes_minted_total",
			Help: "Total number of backup codes generated at enrollment",
		}),
		PendingChallenges: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "edgeguard_twofactor_pending_challenges",
			Help: "Current number of pending challenges in the store",
		}),
	}
}

func (m *Metrics) IncrementIssued(channel string) {
	m.ChallengesIssuedTotal.WithLabelValues(channel).Inc()
}

func (m *Metrics) IncrementVerifyAttempt(result string) {
	m.VerifyAttemptsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) IncrementDispatchFailure(channel string) {
	m.DispatchFailuresTotal.WithLabelValues(channel).Inc()
}

func (m *Metrics) IncrementBackupUsed() {
	m.BackupCodesUsedTotal.Inc()
}

func (m *Metrics) AddBackupMinted(n int) {
	m.BackupCodesMintedTotal.Add(float64(n))
}

func (m *Metrics) SetPendingChallenges(count int) {
	m.PendingChallenges.Set(float64(count))
}
