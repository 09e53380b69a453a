// Package metrics содержит счётчики Prometheus для операций с кредитами и подписками.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Результаты операций
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	// CreditsDebited: списанные кредиты по продуктам.
	CreditsDebited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "biteplans",
		Name:      "credits_debited_total",
		Help:      "Credits debited by product use.",
	}, []string{"product"})

	// ProductUses: попытки использования продукта по результату.
	ProductUses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "biteplans",
		Name:      "product_uses_total",
		Help:      "Product use attempts by result.",
	}, []string{"result"})

	// VersionConflicts: конфликты оптимистичной блокировки аккаунта.
	VersionConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "biteplans",
		Name:      "account_version_conflicts_total",
		Help:      "Optimistic lock conflicts on account writes.",
	}, []string{"operation"})

	// Confirmations: подтверждения подписок по результату.
	Confirmations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "biteplans",
		Name:      "subscription_confirmations_total",
		Help:      "Subscription confirmations by result.",
	}, []string{"result"})

	// RepairTasks: опубликованные и обработанные задачи досинхронизации.
	RepairTasks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "biteplans",
		Name:      "repair_tasks_total",
		Help:      "Reconciliation repair tasks by kind and stage.",
	}, []string{"kind", "stage"})

	// ProcessorLatency: длительность вызовов платёжного процессора.
	ProcessorLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "biteplans",
		Name:      "processor_request_duration_seconds",
		Help:      "Payment processor call latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"call"})
)
