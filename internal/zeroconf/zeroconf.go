// Package zeroconf advertises the adapter over mDNS/DNS-SD so sources and
// consumers on the LAN can find it without configuration.
package zeroconf

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/grandcat/zeroconf"
)

// ServiceType is the DNS-SD service type the adapter registers under.
const ServiceType = "_wnp._tcp"

// Service manages mDNS service registration.
type Service struct {
	name string // instance name, usually the hostname
	port int
	txt  []string
}

// New creates a Service that will advertise port under the given instance
// name, announcing the adapter version and protocol revision.
func New(name string, port int, version string, revision int) *Service {
	return &Service{
		name: name,
		port: port,
		txt:  TXT(version, revision),
	}
}

// TXT builds the TXT records for an adapter.
func TXT(version string, revision int) []string {
	return []string{
		"version=" + version,
		"revision=" + strconv.Itoa(revision),
	}
}

// Start registers the mDNS service and blocks until ctx is cancelled, at which
// point it shuts down the server cleanly.
func (s *Service) Start(ctx context.Context) error {
	if s.port <= 0 || s.port > 65535 {
		return fmt.Errorf("zeroconf: invalid port %d", s.port)
	}
	server, err := zeroconf.Register(
		s.name,
		ServiceType,
		"local.",
		s.port,
		s.txt,
		nil, // all interfaces
	)
	if err != nil {
		return fmt.Errorf("zeroconf register: %w", err)
	}
	slog.Info("zeroconf: registered mDNS service",
		"name", s.name,
		"type", ServiceType,
		"port", s.port,
		"txt", s.txt,
	)

	<-ctx.Done()

	server.Shutdown()
	slog.Info("zeroconf: mDNS service unregistered")
	return nil
}
