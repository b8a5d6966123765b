package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lawfort_http_requests_total",
		Help: "HTTP requests by route pattern, method and status.",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lawfort_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	ApplicationsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lawfort_applications_submitted_total",
		Help: "Applications accepted, by posting type.",
	}, []string{"kind"})

	ContentSaved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lawfort_content_saved_total",
		Help: "Items added to personal libraries.",
	})

	CommentsPosted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lawfort_comments_posted_total",
		Help: "Comments added to content.",
	})

	LikesToggled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lawfort_likes_toggled_total",
		Help: "Like toggles, by resulting action.",
	}, []string{"action"})

	NotificationsPushed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lawfort_notifications_pushed_total",
		Help: "Notifications delivered to live websocket connections.",
	})
)
