package main

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// serverWithShutdown runs handler over net/http, stopping gracefully when
// ctx is cancelled (the indexer driver exiting, or SIGINT/SIGTERM), matching
// the teacher's "run the router, exit when the process is asked to" top
// level but with an explicit shutdown path instead of a bare r.Run(":port").
type serverWithShutdown struct {
	addr    string
	handler http.Handler
	log     *logrus.Entry
}

func (s *serverWithShutdown) runUntil(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.handler}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.addr).Info("rpc server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}
