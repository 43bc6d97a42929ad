package telemetry

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"gramdb/pkg/logger"
	"gramdb/pkg/logging"
	"gramdb/pkg/state"
)

// Minimal, low-overhead request telemetry designed for local usage.
// - By default only slow requests are logged (see slowThreshold).
// - Per-request spans are only recorded when a request is sampled (very low default sampling).

type ctxKeyType struct{}

const (
	telemetryBufferSize    = 64 * 1024
	telemetryFlushInterval = 2 * time.Second
	telemetryFileMaxSize   = 40 * 1024 * 1024
)

var (
	writerOnce    sync.Once
	writerStopped sync.Once
	writerCh      chan []byte
	writerStop    chan struct{}
	writerWG      sync.WaitGroup
	requestCtr    uint64
	spanCtr       uint64
	sampleRate    = 0.001 // 0.1% default sampling for full traces (very low)
	slowThreshold = 200 * time.Millisecond
)

// Span is a simple span relative to request start (milliseconds)
type Span struct {
	ID       string                 `json:"id"`
	ParentID string                 `json:"parent_id,omitempty"`
	Op       string                 `json:"op"`
	StartMs  int64                  `json:"start_ms"`
	Duration int64                  `json:"duration_ms"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

// Telemetry holds the per-request trace and metadata. startTime is not exported.
type Telemetry struct {
	RequestID string `json:"request_id"`
	Op        string `json:"op"`
	StartMs   int64  `json:"start_ms"`
	Duration  int64  `json:"duration_ms"`
	Status    int    `json:"status"`
	Spans     []Span `json:"spans,omitempty"`

	// internal
	startTime time.Time
	mu        sync.Mutex
	// span stack for parent linkage
	spanStack []string
}

// initWriter lazily starts a background writer that appends JSON lines to
// the telemetry state dir, flushing on a ticker and truncating the file
// when it outgrows the size cap.
func initWriter() {
	writerCh = make(chan []byte, 1024)
	writerStop = make(chan struct{})
	writerWG.Add(1)
	go func() {
		defer writerWG.Done()
		dir := filepath.Join("data", "state", "telemetry")
		if state.PathsVar.Tel != "" {
			dir = state.PathsVar.Tel
		}
		_ = os.MkdirAll(dir, 0o755)
		path := filepath.Join(dir, "requests.jsonl")

		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			// bail out silently; telemetry is best-effort
			return
		}
		w := bufio.NewWriterSize(f, telemetryBufferSize)

		ticker := time.NewTicker(telemetryFlushInterval)
		defer ticker.Stop()

		for {
			select {
			case b := <-writerCh:
				w.Write(b)
				w.WriteByte('\n')

			case <-ticker.C:
				w.Flush()
				if fi, err := f.Stat(); err == nil && fi.Size() > telemetryFileMaxSize {
					// truncate and recreate file when over the cap
					f.Close()
					os.Remove(path)
					nf, nerr := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
					if nerr != nil {
						return
					}
					f = nf
					w = bufio.NewWriterSize(f, telemetryBufferSize)
				}

			case <-writerStop:
			drain:
				for {
					select {
					case b := <-writerCh:
						w.Write(b)
						w.WriteByte('\n')
					default:
						break drain
					}
				}
				w.Flush()
				f.Sync()
				f.Close()
				return
			}
		}
	}()
}

// Close flushes and stops the background writer. Safe to call when no
// request was ever sampled.
func Close() {
	if writerStop == nil {
		return
	}
	writerStopped.Do(func() {
		close(writerStop)
		writerWG.Wait()
	})
}

// Middleware wraps the provided handler and records request timing and sampled spans.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		// generate a request id for both sampled and non-sampled flows so slow logs
		// and any later instrumentation can reference the same id.
		reqID := "r-" + uuid.NewString()
		sampled := shouldSample(r)

		var tel *Telemetry
		if sampled {
			op := r.Header.Get("X-Operation")
			if op == "" {
				// fallback to request path for meaningful op when header not provided
				op = r.URL.Path
			}
			tel = &Telemetry{
				RequestID: reqID,
				Op:        op,
				startTime: start,
				StartMs:   start.UnixNano() / 1e6,
			}
			// create a root span representing this request's top-level op
			rootID := genSpanID()
			rootSpan := Span{ID: rootID, Op: tel.Op, StartMs: 0}
			tel.Spans = append(tel.Spans, rootSpan)
			tel.spanStack = append(tel.spanStack, rootID)
			// attach to context for instrumentation points
			ctx := context.WithValue(r.Context(), ctxKeyType{}, tel)
			r = r.WithContext(ctx)
		}

		// capture status
		srw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(srw, r)

		dur := time.Since(start)
		if tel != nil {
			tel.mu.Lock()
			tel.Status = srw.status
			tel.Duration = dur.Milliseconds()
			b := renderTrace(tel)
			tel.mu.Unlock()
			enqueue(b)
			return
		}

		// not sampled: only log slow requests as a compact record
		if dur > slowThreshold {
			// op fallback to header or path
			op := r.Header.Get("X-Operation")
			if op == "" {
				op = r.URL.Path
			}
			b, err := json.Marshal(map[string]interface{}{
				"request_id":  reqID,
				"op":          op,
				"duration_ms": dur.Milliseconds(),
				"status":      srw.status,
				"slow":        true,
			})
			if err == nil {
				enqueue(b)
			}
			// surface slow requests in the main log stream too, with
			// sensitive header values redacted
			logger.Warn("slow_request",
				"request_id", reqID,
				"op", op,
				"duration_ms", dur.Milliseconds(),
				"status", srw.status,
				"headers", logging.SafeHeaders(r))
		}
	})
}

func enqueue(b []byte) {
	if b == nil {
		return
	}
	writerOnce.Do(initWriter)
	select {
	case writerCh <- b:
	default:
		// drop if channel full to avoid blocking
	}
}

// renderTrace marshals a sampled trace as one JSON line. The post create
// path stays compact: spans are dropped so the hot path writes a fixed
// size record.
func renderTrace(t *Telemetry) []byte {
	if t.Op == "create_post" {
		b, err := json.Marshal(map[string]interface{}{
			"request_id":  t.RequestID,
			"op":          t.Op,
			"duration_ms": t.Duration,
			"status":      t.Status,
		})
		if err != nil {
			return nil
		}
		return b
	}
	b, err := json.Marshal(t)
	if err != nil {
		return nil
	}
	return b
}

// From a context, StartSpan returns an end function. If telemetry isn't enabled for the request,
// StartSpan returns a no-op end function (very low overhead).
func StartSpan(ctx context.Context, name string) func() {
	v := ctx.Value(ctxKeyType{})
	if v == nil {
		return func() {}
	}
	tel, ok := v.(*Telemetry)
	if !ok {
		return func() {}
	}
	startRel := time.Since(tel.startTime).Milliseconds()
	id := genSpanID()
	parent := ""

	tel.mu.Lock()
	if len(tel.spanStack) > 0 {
		parent = tel.spanStack[len(tel.spanStack)-1]
	}
	s := Span{ID: id, ParentID: parent, Op: name, StartMs: startRel}
	tel.Spans = append(tel.Spans, s)
	tel.spanStack = append(tel.spanStack, id)
	idx := len(tel.Spans) - 1
	tel.mu.Unlock()

	return func() {
		endRel := time.Since(tel.startTime).Milliseconds()
		tel.mu.Lock()
		if idx < len(tel.Spans) {
			tel.Spans[idx].Duration = endRel - tel.Spans[idx].StartMs
		}
		// pop stack
		if len(tel.spanStack) > 0 {
			tel.spanStack = tel.spanStack[:len(tel.spanStack)-1]
		}
		tel.mu.Unlock()
	}
}

// SetSpanData attaches a key/value to the currently active span for the
// request (no-op if telemetry isn't enabled or no active span).
func SetSpanData(ctx context.Context, key string, value interface{}) {
	v := ctx.Value(ctxKeyType{})
	if v == nil {
		return
	}
	tel, ok := v.(*Telemetry)
	if !ok {
		return
	}
	tel.mu.Lock()
	defer tel.mu.Unlock()
	if len(tel.spanStack) == 0 {
		return
	}
	top := tel.spanStack[len(tel.spanStack)-1]
	// find span by id from end
	for i := len(tel.Spans) - 1; i >= 0; i-- {
		if tel.Spans[i].ID == top {
			if tel.Spans[i].Data == nil {
				tel.Spans[i].Data = make(map[string]interface{})
			}
			tel.Spans[i].Data[key] = value
			return
		}
	}
}

// SetRequestOp allows a handler to override the top-level operation name for
// the current request telemetry. It will also update the root span op when
// present.
func SetRequestOp(ctx context.Context, op string) {
	v := ctx.Value(ctxKeyType{})
	if v == nil {
		return
	}
	tel, ok := v.(*Telemetry)
	if !ok {
		return
	}
	tel.mu.Lock()
	defer tel.mu.Unlock()
	tel.Op = op
	if len(tel.Spans) > 0 {
		// assume first span is root
		tel.Spans[0].Op = op
	}
}

// Helper: basic sampling decision. Also supports forcing sampling via header `X-Debug-Telemetry: 1`.
func shouldSample(r *http.Request) bool {
	if r.Header.Get("X-Debug-Telemetry") == "1" {
		return true
	}
	// very cheap check: use an atomic counter to sample deterministically
	if sampleRate <= 0 {
		return false
	}
	// convert sampleRate to a simple 1-in-N sampling when sampleRate is small
	// e.g. 0.001 -> 1 in 1000
	denom := int64(1 / sampleRate)
	if denom <= 1 {
		return true
	}
	n := int64(atomic.AddUint64(&requestCtr, 1))
	return (n % denom) == 0
}

func genSpanID() string {
	n := atomic.AddUint64(&spanCtr, 1)
	return "s-" + strconv.FormatUint(n, 10)
}

// SetSampleRate sets the approximate sampling rate for full traces (0..1).
// A rate of 0 disables full tracing (only slow requests will be logged).
func SetSampleRate(r float64) {
	if r < 0 {
		r = 0
	}
	if r > 1 {
		r = 1
	}
	sampleRate = r
}

// SetSlowThreshold sets the duration above which non-sampled requests get a lightweight log.
func SetSlowThreshold(d time.Duration) {
	if d <= 0 {
		d = 0
	}
	slowThreshold = d
}

// statusRecorder captures the response status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
