package middleware

import (
	"bytes"
	"net/http"
	"runtime/debug"

	"github.com/meridianhq/gatehouse/pkg/contextkeys"
	"github.com/meridianhq/gatehouse/pkg/httputil"
	"github.com/meridianhq/gatehouse/pkg/observability"
)

// FailureDescriber supplies the fallback response for an unrecoverable
// fault. The boundary itself has no opinion on response content.
type FailureDescriber interface {
	DescribeFailure() httputil.Envelope
}

// FaultBoundary is the outermost stage. It runs the wrapped chain under
// per-request fault isolation: a panic anywhere inside becomes the
// describer's fallback response instead of tearing down the serving
// goroutine, and no other in-flight request is affected.
type FaultBoundary struct {
	describer FailureDescriber
	logger    *observability.Logger
	metrics   *observability.AuthMetrics
}

// NewFaultBoundary creates the fault-isolation stage. metrics may be nil.
func NewFaultBoundary(describer FailureDescriber, logger *observability.Logger, metrics *observability.AuthMetrics) *FaultBoundary {
	return &FaultBoundary{
		describer: describer,
		logger:    logger,
		metrics:   metrics,
	}
}

// Handler wraps the inner chain with fault isolation.
//
// The inner chain writes to a buffered recorder and executes on a
// dedicated goroutine while the serving goroutine blocks on completion.
// Only on normal completion is the buffer flushed to the real writer, so
// the non-faulting path passes status, headers, and body through
// untouched while a fault can still discard a half-written response. The
// bridge blocks exactly one worker per request and never re-enters the
// chain: Ready, then Running, then either Completed or Faulted. No retry
// happens here.
func (fb *FaultBoundary) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := newRecorder()

		var fault interface{}
		var stack []byte
		done := make(chan struct{})

		go func() {
			defer close(done)
			defer func() {
				if v := recover(); v != nil {
					fault = v
					stack = debug.Stack()
				}
			}()
			next.ServeHTTP(rec, r)
		}()
		<-done

		if fault != nil {
			if fb.metrics != nil {
				fb.metrics.RecoveredPanicsTotal.Inc()
			}
			fb.logger.
				WithField("panic", fault).
				WithField("stack", string(stack)).
				WithField("path", r.URL.Path).
				WithField("request_id", contextkeys.RequestIDFrom(r.Context())).
				Error("handler fault recovered")
			_ = httputil.WriteEnvelope(w, fb.describer.DescribeFailure())
			return
		}
		rec.flush(w)
	})
}

// recorder buffers the inner chain's response until the boundary knows it
// completed without faulting.
type recorder struct {
	header      http.Header
	body        bytes.Buffer
	status      int
	wroteHeader bool
}

func newRecorder() *recorder {
	return &recorder{header: make(http.Header), status: http.StatusOK}
}

func (rec *recorder) Header() http.Header {
	return rec.header
}

func (rec *recorder) WriteHeader(status int) {
	if rec.wroteHeader {
		return
	}
	rec.status = status
	rec.wroteHeader = true
}

func (rec *recorder) Write(p []byte) (int, error) {
	rec.wroteHeader = true
	return rec.body.Write(p)
}

func (rec *recorder) flush(w http.ResponseWriter) {
	dst := w.Header()
	for k, vv := range rec.header {
		dst[k] = vv
	}
	w.WriteHeader(rec.status)
	if rec.body.Len() > 0 {
		_, _ = w.Write(rec.body.Bytes())
	}
}
