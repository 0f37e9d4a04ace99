package serve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/config"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// RunningListener is a started HTTP listener.
type RunningListener struct {
	Addr   net.Addr
	Port   int
	Server *http.Server
	Close  func(ctx context.Context) error
}

// startListener serves handler over HTTP/1.1 and cleartext HTTP/2 on
// cfg.Port. Port 0 picks a free port; the bound port is in the result.
func startListener(cfg config.ListenerConfig, handler http.Handler) (*RunningListener, error) {
	if cfg.ReadHeaderTimeout == 0 {
		cfg.ReadHeaderTimeout = 5 * time.Second
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("listen failed: %w", err)
	}

	srv := &http.Server{
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", "err", err)
		}
	}()

	var closeOnce sync.Once
	closeFn := func(ctx context.Context) error {
		var shutdownErr error
		closeOnce.Do(func() {
			if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
				shutdownErr = err
			}
		})
		return shutdownErr
	}

	port := 0
	if tcp, ok := lis.Addr().(*net.TCPAddr); ok {
		port = tcp.Port
	}
	return &RunningListener{Addr: lis.Addr(), Port: port, Server: srv, Close: closeFn}, nil
}
