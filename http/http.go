package http

import (
	"context"
	"net/http"
	"sync"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
)

// ListenAndServe runs the given servers until ctx is canceled, then shuts
// them all down and waits for them to stop. voxd uses it to run the scene
// service and the admin endpoint side by side.
func ListenAndServe(ctx context.Context, servers ...*http.Server) {
	go func() {
		<-ctx.Done()

		for _, s := range servers {
			if err := s.Shutdown(context.Background()); err != nil {
				logs.Warn(errors.New("shutting down server failed").
					WithTag("addr", s.Addr).
					Wrap(err))
			}
		}
	}()

	var wg sync.WaitGroup

	for _, s := range servers {
		s := s
		wg.Add(1)

		go func() {
			defer wg.Done()

			logs.WithTag("addr", s.Addr).Info("serving")

			err := s.ListenAndServe()
			switch err {
			case nil, http.ErrServerClosed, context.Canceled:
				logs.WithTag("addr", s.Addr).Info("server stopped")

			default:
				logs.Error(errors.New("server stopped unexpectedly").
					WithTag("addr", s.Addr).
					Wrap(err))
			}
		}()
	}

	wg.Wait()
}

// MetricsPathFormatter drops the request path from HTTP metrics for
// redirect and client error statuses, so probes against unknown paths do
// not create unbounded label cardinality.
func MetricsPathFormatter(statusCode int, path string) string {
	switch statusCode {
	case http.StatusMovedPermanently,
		http.StatusBadRequest,
		http.StatusNotFound,
		http.StatusMethodNotAllowed:
		return ""
	}
	return path
}
