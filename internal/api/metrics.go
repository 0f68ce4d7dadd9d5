package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "agency_report_http_requests_total",
	Help: "Total API requests by route and status",
}, []string{"route", "status"})
