package util

import (
	"fmt"
	"net"
	"os"
	"strconv"
)

// Overridable in tests.
var (
	hostname   = os.Hostname
	lookupHost = net.LookupHost
)

// ResolveAddr builds a host:port string, validating that the host is a
// numeric IP when noDNS is true.
func ResolveAddr(host string, port int, noDNS bool) (string, error) {
	if noDNS {
		if net.ParseIP(host) == nil {
			return "", fmt.Errorf("cannot parse %q as an IP address (DNS disabled with -n)", host)
		}
	}
	return net.JoinHostPort(host, strconv.Itoa(port)), nil
}

// LookupHost resolves a hostname.  With noDNS it only accepts numeric IPs.
func LookupHost(host string, noDNS bool) ([]string, error) {
	if noDNS {
		if net.ParseIP(host) == nil {
			return nil, fmt.Errorf("cannot parse %q as an IP address (DNS disabled with -n)", host)
		}
		return []string{host}, nil
	}
	addrs, err := lookupHost(host)
	if err != nil {
		return nil, fmt.Errorf("DNS lookup for %q: %w", host, err)
	}
	return addrs, nil
}

// LocalBindAddress returns the host:port the relay listener binds to.
// An explicit host is used as given (subject to noDNS).  An empty host
// means "this machine": the first address the local host name resolves
// to, IPv4 preferred, falling back to 127.0.0.1 when the name does not
// resolve.
func LocalBindAddress(host string, port int, noDNS bool) (string, error) {
	if host != "" {
		return ResolveAddr(host, port, noDNS)
	}

	name, err := hostname()
	if err != nil {
		return FormatAddr("127.0.0.1", port), nil
	}
	addrs, err := lookupHost(name)
	if err != nil || len(addrs) == 0 {
		return FormatAddr("127.0.0.1", port), nil
	}
	for _, a := range addrs {
		if ip := net.ParseIP(a); ip != nil && ip.To4() != nil {
			return FormatAddr(a, port), nil
		}
	}
	return FormatAddr(addrs[0], port), nil
}

// FormatAddr returns "host:port".
func FormatAddr(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// FindFreePort returns an available TCP port on 127.0.0.1.
func FindFreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("finding free port: %w", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
