// Package web exposes a small read-only HTTP status API for dashboards
// and server lists.
package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Status is the view of the server the API reports on.
type Status interface {
	PlayerNames() []string
	Seed() int32
	Uptime() time.Duration
}

type statusResponse struct {
	Players       []string `json:"players"`
	Seed          int32    `json:"seed"`
	UptimeSeconds int64    `json:"uptime_seconds"`
}

// Serve starts the status endpoint on its own goroutine. Port 0 disables
// the API entirely.
func Serve(logger *logrus.Logger, status Status, port int) {
	if port == 0 {
		return
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		names := status.PlayerNames()
		if names == nil {
			names = []string{}
		}
		_ = json.NewEncoder(w).Encode(statusResponse{
			Players:       names,
			Seed:          status.Seed(),
			UptimeSeconds: int64(status.Uptime().Seconds()),
		})
	})

	go func() {
		addr := fmt.Sprintf(":%d", port)
		logger.WithField("addr", addr).Info("status API listening")
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.WithError(err).Error("status API failed")
		}
	}()
}
