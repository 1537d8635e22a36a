// Package netinfo reports the network address of the device and resets its
// network provisioning.
package netinfo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os/exec"
	"strings"
)

// ErrNoInterface is returned when the configured interface does not exist.
var ErrNoInterface = errors.New("netinfo: no such interface")

// Info reports network state.
type Info struct {
	iface    string
	resetCmd []string
	log      *slog.Logger

	// interfaces is net.Interfaces, replaced in tests.
	interfaces func() ([]Interface, error)
}

// Interface is the part of a network interface Info looks at.
type Interface struct {
	Name  string
	Flags net.Flags
	Addrs []net.Addr
}

// New returns an Info for iface, or for the first interface that is up when
// iface is empty. resetCmd is run by Reset.
func New(iface string, resetCmd []string, logger *slog.Logger) *Info {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Info{
		iface:      iface,
		resetCmd:   resetCmd,
		log:        logger,
		interfaces: systemInterfaces,
	}
}

func systemInterfaces() ([]Interface, error) {
	list, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	out := make([]Interface, 0, len(list))
	for _, i := range list {
		addrs, err := i.Addrs()
		if err != nil {
			continue
		}
		out = append(out, Interface{Name: i.Name, Flags: i.Flags, Addrs: addrs})
	}
	return out, nil
}

// Address returns the IPv4 address of the device, or the empty string when
// it has none.
func (n *Info) Address() string {
	list, err := n.interfaces()
	if err != nil {
		n.log.Warn("listing interfaces failed", "error", err)
		return ""
	}
	addr, err := pick(list, n.iface)
	if err != nil {
		n.log.Debug("no address", "error", err)
	}
	return addr
}

// IsConnected reports whether the device has an address.
func (n *Info) IsConnected() bool {
	return n.Address() != ""
}

// pick returns the first IPv4 address of a running, non loopback interface.
func pick(list []Interface, name string) (string, error) {
	found := name == ""
	for _, i := range list {
		if name != "" && i.Name != name {
			continue
		}
		found = true
		if i.Flags&net.FlagUp == 0 || i.Flags&net.FlagLoopback != 0 {
			continue
		}
		for _, a := range i.Addrs {
			var ip net.IP
			switch v := a.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip4 := ip.To4(); ip4 != nil && !ip4.IsLoopback() {
				return ip4.String(), nil
			}
		}
	}
	if !found {
		return "", fmt.Errorf("%w: %s", ErrNoInterface, name)
	}
	return "", nil
}

// Reset runs the configured provisioning reset command.
func (n *Info) Reset(ctx context.Context) error {
	if len(n.resetCmd) == 0 {
		n.log.Warn("network reset requested, no reset command configured")
		return nil
	}
	n.log.Info("resetting network", "command", strings.Join(n.resetCmd, " "))
	out, err := exec.CommandContext(ctx, n.resetCmd[0], n.resetCmd[1:]...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("netinfo: reset: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
