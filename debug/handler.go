package debug

import (
	"fmt"
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/trace"
)

func NewHandler() http.Handler {
	router := mux.NewRouter()
	router.StrictSlash(true)

	router.Methods("GET").Path("/debug/pprof/").HandlerFunc(pprof.Index)
	router.Methods("GET").Path("/debug/pprof/cmdline").HandlerFunc(pprof.Cmdline)
	router.Methods("GET").Path("/debug/pprof/profile").HandlerFunc(pprof.Profile)
	router.Methods("GET").Path("/debug/pprof/symbol").HandlerFunc(pprof.Symbol)
	router.Methods("GET").Path("/debug/pprof/trace").HandlerFunc(pprof.Trace)
	for _, profile := range []string{"goroutine", "threadcreate", "heap", "allocs", "block", "mutex"} {
		router.Methods("GET").Path("/debug/pprof/" + profile).Handler(pprof.Handler(profile))
	}

	router.Methods("GET").Path("/debug/requests").HandlerFunc(trace.Traces)
	router.Methods("GET").Path("/debug/events").HandlerFunc(trace.Events)

	router.Methods("GET").Path("/metrics").Handler(promhttp.Handler())

	router.Methods("GET").Path("/").Handler(indexHandler(router))

	router.Use(
		// MetricsMiddleware, // debug endpoint metrics just pollute the dashboards
		GZipMiddleware,
	)

	return router
}

func indexHandler(r *mux.Router) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		var debug, other []string
		r.Walk(func(route *mux.Route, router *mux.Router, ancestors []*mux.Route) error {
			switch routePath, _ := route.GetPathTemplate(); {
			case routePath == "", routePath == "/":
			case strings.HasPrefix(routePath, "/debug/"):
				debug = append(debug, routePath)
			default:
				other = append(other, routePath)
			}
			return nil
		})

		w.Header().Set("content-type", "text/html; charset=utf-8")

		for _, set := range []struct {
			name      string
			endpoints []string
		}{
			{"debug", debug},
			{"candle", other},
		} {
			fmt.Fprintf(w, "<h1>%s</h1>\n<ul>\n", set.name)
			for _, endpoint := range set.endpoints {
				fmt.Fprintf(w, "<li><a href=\"%[1]s\">%[1]s</a></li>\n", endpoint)
			}
			fmt.Fprintf(w, "</ul>\n")
		}
	})
}
