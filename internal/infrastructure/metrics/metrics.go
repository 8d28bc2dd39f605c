package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScanCycles counts scan cycles by outcome (completed, skipped, failed)
	ScanCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minefactory_scan_cycles_total",
			Help: "The total number of deposit scan cycles",
		},
		[]string{"status"},
	)

	// ScanWindows counts block windows by outcome (ok, failed)
	ScanWindows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minefactory_scan_windows_total",
			Help: "The total number of block windows scanned",
		},
		[]string{"status"},
	)

	// ScanCycleSeconds tracks how long one full cycle takes
	ScanCycleSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "minefactory_scan_cycle_seconds",
		Help:    "Time taken by one deposit scan cycle in seconds",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	// WalletLagBlocks is the distance between chain head and the slowest checkpoint
	WalletLagBlocks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "minefactory_wallet_lag_blocks",
		Help: "Largest gap between chain height and a wallet checkpoint after a cycle",
	})

	// Deposits counts crediting attempts by outcome (credited, duplicate, failed)
	Deposits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minefactory_deposits_total",
			Help: "The total number of deposit crediting attempts",
		},
		[]string{"source", "status"},
	)

	// Commissions counts referral payouts by mode and outcome
	Commissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minefactory_commissions_total",
			Help: "The total number of referral commission payouts",
		},
		[]string{"mode", "status"},
	)

	// TasksDeadLettered counts background tasks that failed or were dropped
	TasksDeadLettered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "minefactory_tasks_dead_lettered_total",
		Help: "Background tasks that failed, panicked or were dropped",
	})
)

// RecordScanCycle records the outcome and duration of a cycle
func RecordScanCycle(status string, seconds float64) {
	ScanCycles.WithLabelValues(status).Inc()
	if seconds > 0 {
		ScanCycleSeconds.Observe(seconds)
	}
}

// RecordScanWindow records one block window
func RecordScanWindow(status string) {
	ScanWindows.WithLabelValues(status).Inc()
}

// RecordDeposit records a crediting attempt
func RecordDeposit(source, status string) {
	Deposits.WithLabelValues(source, status).Inc()
}

// RecordCommission records a payout attempt
func RecordCommission(mode, status string) {
	Commissions.WithLabelValues(mode, status).Inc()
}
