// Package metrics exposes the server's prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/studymate/internal/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studymate", Name: "http_requests_total", Help: "HTTP requests by route and status",
	}, []string{"method", "route", "status"})
	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "studymate", Name: "http_request_duration_seconds", Help: "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	RelationshipOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studymate", Name: "relationship_ops_total", Help: "Relationship mutations by outcome",
	}, []string{"op", "result"})
	ContentOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studymate", Name: "content_ops_total", Help: "Content mutations by kind and outcome",
	}, []string{"kind", "op", "result"})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "studymate", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPDuration, RelationshipOps, ContentOps, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }

func ObserveHTTP(method, route string, status int, d time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RelationshipOp counts a relationship mutation; result is common.Code(err).
func RelationshipOp(op string, err error) {
	RelationshipOps.WithLabelValues(op, common.Code(err)).Inc()
}

func ContentOp(kind, op string, err error) {
	ContentOps.WithLabelValues(kind, op, common.Code(err)).Inc()
}
