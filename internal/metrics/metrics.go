package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grocermart_orders_created_total",
		Help: "Total number of orders successfully created.",
	})

	OrderTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grocermart_order_transitions_total",
		Help: "Total number of applied order status transitions.",
	},
		[]string{"to_status"},
	)

	NotificationsSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grocermart_notifications_sent_total",
		Help: "Total number of events delivered over a live connection.",
	})

	NotificationsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grocermart_notifications_dropped_total",
		Help: "Total number of events dropped because the user had no open connection.",
	})

	LiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "grocermart_live_connections",
		Help: "Current number of registered WebSocket connections.",
	})

	OutboxPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grocermart_outbox_published_total",
		Help: "Total number of outbox tasks published to the broker.",
	})

	OperationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grocermart_operation_errors_total",
		Help: "Total number of errors encountered during specific operations.",
	},
		[]string{"operation"},
	)

	OrderCacheItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "grocermart_order_cache_items",
		Help: "Current number of items in the order cache.",
	})
)
