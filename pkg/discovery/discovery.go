// Package discovery advertises and finds the hand-tracking backend on the
// local network over mDNS.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service the backend registers.
const ServiceType = "_aircanvas._tcp"

// DefaultTimeout bounds a Lookup when the caller passes zero.
const DefaultTimeout = 3 * time.Second

// ErrNotFound is returned when no backend answered before the timeout.
var ErrNotFound = errors.New("discovery: no backend found")

// Advertiser is a running mDNS responder.
type Advertiser struct {
	server *mdns.Server
	logger *slog.Logger
}

// Advertise announces a backend listening on port. An empty instance uses
// the host name.
func Advertise(instance string, port int, logger *slog.Logger) (*Advertiser, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "discovery")

	if instance == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("could not get hostname: %w", err)
		}
		instance = host
	}

	service, err := newService(instance, "", port, nil)
	if err != nil {
		return nil, err
	}

	server, err := mdns.NewServer(&mdns.Config{
		Zone:   service,
		Logger: slog.NewLogLogger(logger.Handler(), slog.LevelDebug),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}

	logger.Info("advertising backend", "instance", instance, "service", ServiceType, "port", port)
	return &Advertiser{server: server, logger: logger}, nil
}

func newService(instance, hostName string, port int, ips []net.IP) (*mdns.MDNSService, error) {
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("discovery: invalid port %d", port)
	}
	service, err := mdns.NewMDNSService(
		instance,
		ServiceType,
		"",
		hostName,
		port,
		ips,
		[]string{"path=/ws", "proto=aircanvas"},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}
	return service, nil
}

// Shutdown stops the responder.
func (a *Advertiser) Shutdown() error {
	a.logger.Debug("advertisement stopped")
	return a.server.Shutdown()
}

// Lookup browses for a backend and returns the first "host:port" found.
func Lookup(ctx context.Context, timeout time.Duration, logger *slog.Logger) (string, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "discovery")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *mdns.ServiceEntry, 8)
	params := mdns.DefaultParams(ServiceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true
	params.Logger = slog.NewLogLogger(logger.Handler(), slog.LevelDebug)

	errCh := make(chan error, 1)
	go func() { errCh <- mdns.QueryContext(ctx, params) }()

	for {
		select {
		case e := <-entries:
			if addr, ok := entryAddr(e); ok {
				logger.Info("backend discovered", "name", e.Name, "addr", addr)
				return addr, nil
			}
		case err := <-errCh:
			// The query may have queued entries before returning.
			if addr, ok := drain(entries); ok {
				return addr, nil
			}
			if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
				return "", fmt.Errorf("discovery: query failed: %w", err)
			}
			return "", ErrNotFound
		}
	}
}

// entryAddr extracts a dialable IPv4 address from a service entry.
func entryAddr(e *mdns.ServiceEntry) (string, bool) {
	if e == nil || e.Port == 0 {
		return "", false
	}
	ip := e.AddrV4
	if ip == nil {
		ip = e.Addr.To4()
	}
	if ip == nil {
		return "", false
	}
	return net.JoinHostPort(ip.String(), strconv.Itoa(e.Port)), true
}

func drain(entries <-chan *mdns.ServiceEntry) (string, bool) {
	for {
		select {
		case e := <-entries:
			if addr, ok := entryAddr(e); ok {
				return addr, true
			}
		default:
			return "", false
		}
	}
}

// BaseURL turns a discovered address into a server base URL.
func BaseURL(addr string, secure bool) string {
	if secure {
		return "https://" + addr
	}
	return "http://" + addr
}
