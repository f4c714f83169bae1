package usecase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_orders_created_total",
		Help: "Orders persisted by the order builder",
	})

	checkoutSessionsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_checkout_sessions_opened_total",
		Help: "Hosted checkout sessions opened with the payment provider",
	})

	statusApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_payment_status_applied_total",
			Help: "Payment status applications by event source and outcome",
		},
		[]string{"source", "outcome"},
	)

	sweeperRepairs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_reconciliation_repairs_total",
		Help: "Orders repaired by the reconciliation sweep",
	})
)
