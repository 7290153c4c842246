package service

import "github.com/prometheus/client_golang/prometheus"

var (
	loginTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "user_login_total", Help: "Login attempts by result"},
		[]string{"result"},
	)
	imageHookFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "image_hook_failures_total", Help: "Failed image cleanup hook calls"},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(loginTotal, imageHookFailures)
}
