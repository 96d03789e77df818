package status

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"

	"github.com/julienschmidt/httprouter"
	"github.com/norasector/turbine-p25/pkg/dsp/viz"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server exposes channel state over HTTP:
//
//	/metrics                 prometheus scrape endpoint
//	/channels                JSON channel stats
//	/view/:bucket            page of a channel's scope images
//	/img/:bucket/:img        one scope image
type Server struct {
	srv      *http.Server
	source   Source
	scopes   *viz.Registry
	registry *prometheus.Registry
	logger   zerolog.Logger
}

func NewServer(port int, source Source, scopes *viz.Registry, logger zerolog.Logger) *Server {
	s := &Server{
		srv:      &http.Server{Addr: fmt.Sprintf(":%d", port)},
		source:   source,
		scopes:   scopes,
		registry: prometheus.NewRegistry(),
		logger:   logger,
	}
	s.registry.MustRegister(NewCollector(source))
	s.srv.Handler = s.Handler()
	return s
}

// Registry is the server's prometheus registry, for additional collectors.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

func (s *Server) Handler() http.Handler {
	handler := httprouter.New()

	handler.Handler(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	handler.GET("/channels", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(s.source.ChannelStats()); err != nil {
			s.logger.Warn().Err(err).Msg("error writing channel stats")
		}
	})

	handler.GET("/", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		buckets := s.buckets()
		if len(buckets) == 0 {
			http.Redirect(w, r, "/channels", http.StatusFound)
			return
		}
		http.Redirect(w, r, "/view/"+url.PathEscape(buckets[0]), http.StatusFound)
	})

	handler.GET("/view/:bucket", func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		bucket := params.ByName("bucket")
		if s.scopes == nil {
			http.NotFound(w, r)
			return
		}
		names, ok := s.scopes.Producers(bucket)
		if !ok {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><head><title>%s</title><meta http-equiv="refresh" content="2"></head>`, html.EscapeString(bucket))
		fmt.Fprint(w, `<body style='background-color: black'><div style="display: flex; flex-direction: row; flex-wrap: wrap">`)
		for _, name := range names {
			fmt.Fprintf(w, `<div><img src="/img/%s/%s" /></div>`, url.PathEscape(bucket), url.PathEscape(name))
		}
		fmt.Fprint(w, `</div></body></html>`)
	})

	handler.GET("/img/:bucket/:img", func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		if s.scopes == nil {
			http.NotFound(w, r)
			return
		}
		img, ok := s.scopes.Image(params.ByName("bucket"), params.ByName("img"))
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(img.Data())
	})

	return handler
}

func (s *Server) buckets() []string {
	if s.scopes == nil {
		return nil
	}
	return s.scopes.Buckets()
}

// Run serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.srv.Addr).Msg("status server listening")
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		if err := s.srv.Shutdown(context.Background()); err != nil {
			return err
		}
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
