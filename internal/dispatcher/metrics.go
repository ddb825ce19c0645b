package dispatcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postomat_dispatch_ticks_total",
		Help: "Количество выполненных тиков диспетчера.",
	})
	postsSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postomat_posts_sent_total",
		Help: "Посты, доставленные во все цели.",
	})
	postsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postomat_posts_failed_total",
		Help: "Посты, финализированные с отказом хотя бы одной цели.",
	})
	deliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postomat_deliveries_total",
		Help: "Доставки по платформе и исходу.",
	}, []string{"platform", "status"})
	copyFallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postomat_copy_fallback_total",
		Help: "Доставки Telegram, ушедшие через copy вместо forward.",
	})
)
