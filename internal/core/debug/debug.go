// Package debug provides the optional debugging utilities for the server:
// a pprof HTTP endpoint and decoded-packet logging.
package debug

import (
	"fmt"
	"net/http"
	_ "net/http/pprof"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"
)

var dumper = spew.ConfigState{Indent: "  ", DisableMethods: true, SortKeys: true}

// StartPprofServer starts the default pprof HTTP server that can be accessed
// via localhost to get runtime information about the server.
// See https://golang.org/pkg/net/http/pprof/
func StartPprofServer(logger *logrus.Logger, port int) {
	listenerAddr := fmt.Sprintf("localhost:%d", port)
	logger.Infof("starting pprof server on %s", listenerAddr)

	go func() {
		if err := http.ListenAndServe(listenerAddr, nil); err != nil {
			logger.Infof("error starting pprof server: %s", err)
		}
	}()
}

// DumpPacket returns a multi-line rendering of a decoded packet suitable
// for packet logging.
func DumpPacket(packet interface{}) string {
	return dumper.Sdump(packet)
}
