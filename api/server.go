// Copyright 2019 The go-ultiledger Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	restful "github.com/emicklei/go-restful/v3"
	"github.com/jellydator/ttlcache/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ultiledger/go-ultimint/mint"
)

const (
	limiterTTL      = 10 * time.Minute
	shutdownTimeout = 10 * time.Second
)

// Server exposes the orchestrator flows over http.
type Server struct {
	config    *Config
	orch      *mint.Orchestrator
	logger    *zap.SugaredLogger
	limiters  *ttlcache.Cache[string, *rate.Limiter]
	container *restful.Container
}

// NewServer creates the server. Metrics are served from gatherer
// when it is not nil.
func NewServer(cfg *Config, orch *mint.Orchestrator, gatherer prometheus.Gatherer, logger *zap.SugaredLogger) *Server {
	s := &Server{
		config:    cfg,
		orch:      orch,
		logger:    logger,
		container: restful.NewContainer(),
	}

	ws := new(restful.WebService)
	ws.Path("/").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)
	ws.Route(ws.POST("/nft").Consumes(restful.MIME_JSON, "multipart/form-data").To(s.issue))
	ws.Route(ws.POST("/nft/transfer").To(s.transfer))
	ws.Route(ws.GET("/nft/{code}").To(s.lookup))
	ws.Route(ws.POST("/trustlines").To(s.trust))
	ws.Route(ws.POST("/accounts/fund").To(s.fund))
	ws.Route(ws.GET("/cid").To(s.decodeCID))
	s.container.Add(ws)

	if len(cfg.CORSOrigins) > 0 {
		cors := restful.CrossOriginResourceSharing{
			AllowedHeaders: []string{"Content-Type"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			Container:      s.container,
		}
		// an empty list allows every origin
		if !(len(cfg.CORSOrigins) == 1 && cfg.CORSOrigins[0] == "*") {
			cors.AllowedDomains = cfg.CORSOrigins
		}
		s.container.Filter(cors.Filter)
		s.container.Filter(s.container.OPTIONSFilter)
	}
	if cfg.RateLimit > 0 {
		s.limiters = ttlcache.New[string, *rate.Limiter](
			ttlcache.WithTTL[string, *rate.Limiter](limiterTTL),
		)
		go s.limiters.Start()
		s.container.Filter(s.rateLimit)
	}
	s.container.Filter(s.accessLog)

	if gatherer != nil {
		s.container.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	if cfg.StaticDir != "" {
		s.container.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))))
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.container
}

// Serve listens on the configured address until ctx is done and
// then shuts the http server down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.container,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Infow("start to serve http requests", "addr", s.config.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Infow("gracefully shutdown http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases the per client limiters.
func (s *Server) Close() {
	if s.limiters != nil {
		s.limiters.Stop()
	}
}

// rateLimit throttles every client separately. Limiters of idle
// clients expire from the cache.
func (s *Server) rateLimit(request *restful.Request, response *restful.Response, chain *restful.FilterChain) {
	host, _, err := net.SplitHostPort(request.Request.RemoteAddr)
	if err != nil {
		host = request.Request.RemoteAddr
	}
	item, _ := s.limiters.GetOrSet(host, rate.NewLimiter(rate.Limit(s.config.RateLimit), s.config.RateBurst))
	if !item.Value().Allow() {
		s.writeErrorBody(response, http.StatusTooManyRequests, &ErrorDetail{Code: "rate_limited", Cause: "too many requests"})
		return
	}
	chain.ProcessFilter(request, response)
}

func (s *Server) accessLog(request *restful.Request, response *restful.Response, chain *restful.FilterChain) {
	start := time.Now()
	chain.ProcessFilter(request, response)
	s.logger.Debugw("http request",
		"method", request.Request.Method,
		"path", request.Request.URL.Path,
		"status", response.StatusCode(),
		"elapsed", time.Since(start))
}
