package chat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "padhaidunia",
		Subsystem: "chat",
		Name:      "messages_sent_total",
		Help:      "Number of chat messages sent, by sender role.",
	}, []string{"role"})

	messagesSeen = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "padhaidunia",
		Subsystem: "chat",
		Name:      "messages_seen_total",
		Help:      "Number of chat messages marked read.",
	})

	conversationsListed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "padhaidunia",
		Subsystem: "chat",
		Name:      "conversations_listed_total",
		Help:      "Number of conversation list requests, by viewer role.",
	}, []string{"role"})
)
