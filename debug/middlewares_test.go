package debug

import (
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
)

func TestGunzipRequestMiddleware(t *testing.T) {
	echo := GunzipRequestMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if enc := r.Header.Get("content-encoding"); enc != "" {
			t.Errorf("content-encoding %q leaked to the handler", enc)
		}
		io.Copy(w, r.Body)
	}))

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write([]byte(`{"hello":"world"}`))
	zw.Close()

	for _, testcase := range []struct {
		name     string
		body     io.Reader
		encoding string
		wantCode int
		wantBody string
	}{
		{"plain", strings.NewReader("plain body"), "", http.StatusOK, "plain body"},
		{"gzip", bytes.NewReader(buf.Bytes()), "gzip", http.StatusOK, `{"hello":"world"}`},
		{"GZIP", bytes.NewReader(buf.Bytes()), "GZIP", http.StatusOK, `{"hello":"world"}`},
		{"corrupt", strings.NewReader("not gzip"), "gzip", http.StatusBadRequest, ""},
	} {
		t.Run(testcase.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/", testcase.body)
			if testcase.encoding != "" {
				r.Header.Set("content-encoding", testcase.encoding)
			}
			w := httptest.NewRecorder()
			echo.ServeHTTP(w, r)

			if want, have := testcase.wantCode, w.Code; want != have {
				t.Fatalf("code: want %d, have %d", want, have)
			}
			if testcase.wantBody != "" {
				if want, have := testcase.wantBody, w.Body.String(); want != have {
					t.Fatalf("body: want %q, have %q", want, have)
				}
			}
		})
	}
}

func TestGunzipRequestMiddlewareLimit(t *testing.T) {
	var (
		readErr error
		read    int64
	)
	handler := GunzipRequestMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		read, readErr = io.Copy(io.Discard, r.Body)
	}))

	for _, testcase := range []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"at limit", MaxDecompressedRequestBytes, false},
		{"bomb", 64 * MaxDecompressedRequestBytes, true},
	} {
		t.Run(testcase.name, func(t *testing.T) {
			var buf bytes.Buffer
			zw := gzip.NewWriter(&buf)
			zw.Write(bytes.Repeat([]byte("{"), testcase.size))
			zw.Close()

			r := httptest.NewRequest("POST", "/", bytes.NewReader(buf.Bytes()))
			r.Header.Set("content-encoding", "gzip")
			handler.ServeHTTP(httptest.NewRecorder(), r)

			var maxErr *http.MaxBytesError
			switch {
			case testcase.wantErr && !errors.As(readErr, &maxErr):
				t.Fatalf("want %T, have %v", maxErr, readErr)
			case !testcase.wantErr && readErr != nil:
				t.Fatalf("want no error, have %v", readErr)
			}
			if read > MaxDecompressedRequestBytes {
				t.Fatalf("handler read %d bytes, limit is %d", read, MaxDecompressedRequestBytes)
			}
		})
	}
}

func TestGetRouteName(t *testing.T) {
	var have []string

	router := mux.NewRouter()
	router.Methods("GET").Path("/v1/auctions/{id}").HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	router.Methods("GET").Path("/named").Name("my-route").HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			have = append(have, getRouteName(r))
			next.ServeHTTP(w, r)
		})
	})

	for _, path := range []string{"/v1/auctions/7", "/named"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))
	}

	want := []string{"GET /v1/auctions/{id}", "my-route"}
	if strings.Join(want, ",") != strings.Join(have, ",") {
		t.Fatalf("want %v, have %v", want, have)
	}

	if want, have := "POST /unrouted", getRouteName(httptest.NewRequest("POST", "/unrouted", nil)); want != have {
		t.Fatalf("want %q, have %q", want, have)
	}
}

func TestRecorder(t *testing.T) {
	w := httptest.NewRecorder()
	rec := newRecorder(w)

	rec.Write([]byte("hello"))
	rec.WriteHeader(http.StatusTeapot) // too late, ignored
	rec.Write([]byte(" world"))

	if want, have := http.StatusOK, rec.Code(); want != have {
		t.Fatalf("code: want %d, have %d", want, have)
	}
	if want, have := 11, rec.Written(); want != have {
		t.Fatalf("written: want %d, have %d", want, have)
	}

	rec = newRecorder(httptest.NewRecorder())
	rec.WriteHeader(http.StatusTooEarly)
	if want, have := http.StatusTooEarly, rec.Code(); want != have {
		t.Fatalf("code: want %d, have %d", want, have)
	}
}

func TestIndexHandler(t *testing.T) {
	w := httptest.NewRecorder()
	NewHandler().ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	body := w.Body.String()
	for _, want := range []string{"/debug/requests", "/debug/events", "/metrics"} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %s", want)
		}
	}
}
