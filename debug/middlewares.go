package debug

import (
	"compress/gzip"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"candle/metrics"
	"candle/trc"

	"github.com/NYTimes/gziphandler"
	"github.com/gorilla/mux"
)

// GZipMiddleware compresses responses for clients that accept it.
func GZipMiddleware(next http.Handler) http.Handler {
	return gziphandler.GzipHandler(next)
}

// MaxDecompressedRequestBytes caps what GunzipRequestMiddleware will inflate.
const MaxDecompressedRequestBytes = 1 << 20

// GunzipRequestMiddleware decompresses request bodies sent with
// content-encoding: gzip, so handlers always read plain bodies. Reads past
// MaxDecompressedRequestBytes of inflated data fail.
func GunzipRequestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.EqualFold(strings.TrimSpace(r.Header.Get("content-encoding")), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		zr, err := gzip.NewReader(r.Body)
		if err != nil {
			trc.Errorf(r.Context(), "gunzip request: %v", err)
			http.Error(w, fmt.Sprintf("invalid gzip body: %v", err), http.StatusBadRequest)
			return
		}
		defer zr.Close()

		trc.Tracef(r.Context(), "request body is gzipped, %d compressed bytes", r.ContentLength)

		r.Header.Del("content-encoding")
		r.Header.Del("content-length")
		r.ContentLength = -1
		r.Body = http.MaxBytesReader(w, zr, MaxDecompressedRequestBytes)

		next.ServeHTTP(w, r)
	})
}

// TracingMiddleware opens one trace per request, named after the route, and
// marks it errored when the response is a server error.
func TracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, finish := trc.Create(r.Context(), getRouteName(r))
		defer finish()

		trc.Tracef(ctx, "%s %s %s", r.RemoteAddr, r.Method, r.URL.String())
		for k, vs := range r.Header {
			for _, v := range vs {
				trc.LazyTracef(ctx, "→ %s: %s", k, v)
			}
		}

		rec := newRecorder(w)
		begin := time.Now()

		next.ServeHTTP(rec, r.WithContext(ctx))

		took := time.Since(begin).Truncate(time.Microsecond)
		switch code := rec.Code(); {
		case code >= 500:
			trc.Errorf(ctx, "HTTP %d, %dB, %s", code, rec.Written(), took)
		default:
			trc.Tracef(ctx, "HTTP %d, %dB, %s", code, rec.Written(), took)
		}
	})
}

// MetricsMiddleware records request duration and response size per route.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := newRecorder(w)
		begin := time.Now()

		next.ServeHTTP(rec, r)

		route := getRouteName(r)
		metrics.HTTPRequestDurationSeconds.WithLabelValues(route, strconv.Itoa(rec.Code())).Observe(time.Since(begin).Seconds())
		metrics.HTTPResponseBytesTotal.WithLabelValues(route).Add(float64(rec.Written()))
	})
}

// getRouteName only works if it's called via mux.Router.Use(middleware).
// If you try to decorate an http.Handler, it won't identify the route.
func getRouteName(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return r.Method + " " + r.URL.Path
	}

	if name := route.GetName(); name != "" {
		return name
	}

	if tpl, err := route.GetPathTemplate(); err == nil && tpl != "" {
		return r.Method + " " + tpl
	}

	return r.Method + " " + r.URL.Path
}

//
//
//

// recorder remembers the status code and body size of a response.
type recorder struct {
	http.ResponseWriter

	code    int
	written int
}

func newRecorder(w http.ResponseWriter) *recorder {
	return &recorder{ResponseWriter: w}
}

func (rec *recorder) WriteHeader(code int) {
	if rec.code == 0 {
		rec.code = code
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *recorder) Write(p []byte) (int, error) {
	if rec.code == 0 {
		rec.code = http.StatusOK
	}
	n, err := rec.ResponseWriter.Write(p)
	rec.written += n
	return n, err
}

func (rec *recorder) Flush() {
	if f, ok := rec.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rec *recorder) Code() int {
	if rec.code == 0 {
		return http.StatusOK
	}
	return rec.code
}

func (rec *recorder) Written() int {
	return rec.written
}
