package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of rejected order creations",
	}, []string{"reason"})

	OrderStatusTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Fulfillment status writes by destination status and result",
	}, []string{"status", "result"})

	PaymentStatusUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_status_updates_total",
		Help: "Payment status writes by destination status and result",
	}, []string{"status", "result"})

	OrdersDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_deleted_total",
		Help: "Total number of orders removed by staff",
	})

	OrderListRefetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_list_refetch_total",
		Help: "Full list reloads triggered by change events",
	}, []string{"table", "result"})

	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "Outbound notifications by template and outcome",
	}, []string{"template", "outcome"})

	SettingsRemoteSyncFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settings_remote_sync_failures_total",
		Help: "Settings writes accepted locally but not persisted remotely",
	})

	LocalCacheFallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "local_cache_fallbacks_total",
		Help: "Reads served from the local cache because the database failed or was empty",
	}, []string{"key"})

	PromoRedemptionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promo_redemptions_total",
		Help: "Promo code redemptions by result",
	}, []string{"result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
