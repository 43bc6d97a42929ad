// Package metrics exposes runtime and graph gauges plus mutation
// counters for the /metrics endpoint.
package metrics

import (
	"net/http"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gramdb/pkg/events"
	"gramdb/pkg/graph"
)

var (
	goroutines = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "go_goroutines",
			Help: "Number of active goroutines.",
		},
		func() float64 { return float64(runtime.NumGoroutine()) },
	)

	gcPauseTotal = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "go_gc_pause_total_ns",
			Help: "Total GC pause time in nanoseconds.",
		},
		func() float64 {
			var stats runtime.MemStats
			runtime.ReadMemStats(&stats)
			return float64(stats.PauseTotalNs)
		},
	)

	heapAlloc = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "go_heap_alloc_bytes",
			Help: "Current heap allocation in bytes.",
		},
		func() float64 {
			var stats runtime.MemStats
			runtime.ReadMemStats(&stats)
			return float64(stats.HeapAlloc)
		},
	)

	numGC = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "go_gc_cycles_total",
			Help: "Total number of GC cycles.",
		},
		func() float64 {
			var stats runtime.MemStats
			runtime.ReadMemStats(&stats)
			return float64(stats.NumGC)
		},
	)

	mutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gramdb_mutations_total",
			Help: "Accepted graph mutations by operation.",
		},
		[]string{"op"},
	)
)

// statsSource yields a point-in-time graph census; set by the app once
// the graph exists.
var statsSource func() graph.Stats

// eventQueue is the activity stream queue observed by the queue gauges.
var eventQueue *events.Queue

func statOf(pick func(graph.Stats) int) func() float64 {
	return func() float64 {
		if statsSource == nil {
			return 0
		}
		return float64(pick(statsSource()))
	}
}

var (
	usersGauge = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{Name: "gramdb_users", Help: "Registered users."},
		statOf(func(s graph.Stats) int { return s.Users }),
	)
	postsGauge = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{Name: "gramdb_posts", Help: "Live posts."},
		statOf(func(s graph.Stats) int { return s.Posts }),
	)
	commentsGauge = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{Name: "gramdb_comments", Help: "Live comments."},
		statOf(func(s graph.Stats) int { return s.Comments }),
	)
	followEdgesGauge = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{Name: "gramdb_follow_edges", Help: "Directed follow edges."},
		statOf(func(s graph.Stats) int { return s.FollowEdges }),
	)
	likeEdgesGauge = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{Name: "gramdb_like_edges", Help: "Like edges."},
		statOf(func(s graph.Stats) int { return s.LikeEdges }),
	)
	hashtagsGauge = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{Name: "gramdb_hashtags", Help: "Hashtags with at least one live post."},
		statOf(func(s graph.Stats) int { return s.Hashtags }),
	)

	eventsQueueLen = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{Name: "gramdb_events_queue_len", Help: "Activity events waiting in the queue."},
		func() float64 {
			if eventQueue == nil {
				return 0
			}
			return float64(eventQueue.Len())
		},
	)
	eventsDropped = prometheus.NewCounterFunc(
		prometheus.CounterOpts{Name: "gramdb_events_dropped_total", Help: "Activity events dropped due to a full queue."},
		func() float64 {
			if eventQueue == nil {
				return 0
			}
			return float64(eventQueue.Dropped())
		},
	)
)

func init() {
	// prometheus.MustRegister(goroutines) // Already registered by Prometheus client library
	prometheus.MustRegister(gcPauseTotal)
	prometheus.MustRegister(heapAlloc)
	prometheus.MustRegister(numGC)
	prometheus.MustRegister(mutationsTotal)
	prometheus.MustRegister(usersGauge)
	prometheus.MustRegister(postsGauge)
	prometheus.MustRegister(commentsGauge)
	prometheus.MustRegister(followEdgesGauge)
	prometheus.MustRegister(likeEdgesGauge)
	prometheus.MustRegister(hashtagsGauge)
	prometheus.MustRegister(eventsQueueLen)
	prometheus.MustRegister(eventsDropped)
}

// SetSource wires the graph census the gauges report from.
func SetSource(fn func() graph.Stats) { statsSource = fn }

// SetEventQueue wires the activity queue observed by the queue gauges.
func SetEventQueue(q *events.Queue) { eventQueue = q }

// IncMutation bumps the mutation counter for an operation name.
func IncMutation(op string) { mutationsTotal.WithLabelValues(op).Inc() }

// Handler returns the scrape endpoint handler.
func Handler() http.Handler { return promhttp.Handler() }
