// Command target serves the internal/testserver routes for local runs:
//
//	go run ./scripts/testservers/target --port 8080
//	volley -u http://localhost:8080/status/200 -c 8 -r 1000
//	volley -u ws://localhost:8080/ws -m WS --ws-message hi --ws-duration 5 -c 4
package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/torosent/volley/internal/logging"
	"github.com/torosent/volley/internal/testserver"
)

func main() {
	port := pflag.Int("port", 8080, "Listening port")
	verbose := pflag.BoolP("verbose", "v", false, "Enable debug logging")
	pflag.Parse()

	logger := logging.New(os.Stderr, *verbose)
	defer func() { _ = logger.Sync() }()

	addr := fmt.Sprintf(":%d", *port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           testserver.New(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("target listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server failed", zap.Error(err))
	}
}
