package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/tuneshelf/internal/logging"
)

type HTTPServer struct {
	address         string
	handler         http.Handler
	logger          logging.Logger
	shutdownTimeout time.Duration
}

func NewHTTPServer(a string, h http.Handler, l logging.Logger, shutdownTimeout time.Duration) *HTTPServer {
	return &HTTPServer{
		address:         a,
		handler:         h,
		logger:          l.With("module", "http_server"),
		shutdownTimeout: shutdownTimeout,
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests for up
// to the shutdown timeout.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()
		stopped <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-stopped
}
