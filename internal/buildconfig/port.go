package buildconfig

import (
	"context"
	"fmt"
	"net"
	"strconv"
)

// DefaultHost is where the dev server listens when the config names no host.
const DefaultHost = "localhost"

// ListenAddr is the dev server's host:port.
func (d DevServer) ListenAddr() string {
	host := d.Host
	if host == "" {
		host = DefaultHost
	}
	return net.JoinHostPort(host, strconv.Itoa(d.Port))
}

// CheckPortAvailable verifies nothing is listening on host:port by binding it
// briefly. It is a point-in-time check; the server still handles bind errors.
func CheckPortAvailable(ctx context.Context, host string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, port)
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("%w: %s:%d: %v", ErrPortInUse, host, port, err)
	}
	return ln.Close()
}
