package netinfo

import (
	"context"
	"errors"
	"net"
	"testing"
)

func ipNet(s string) net.Addr {
	ip, n, err := net.ParseCIDR(s)
	if err != nil {
		panic(err)
	}
	n.IP = ip
	return n
}

func testInterfaces() ([]Interface, error) {
	return []Interface{
		{Name: "lo", Flags: net.FlagUp | net.FlagLoopback, Addrs: []net.Addr{ipNet("127.0.0.1/8")}},
		{Name: "eth0", Flags: 0, Addrs: []net.Addr{ipNet("10.0.0.2/24")}},
		{Name: "wlan0", Flags: net.FlagUp, Addrs: []net.Addr{ipNet("fe80::1/64"), ipNet("192.168.1.50/24")}},
	}, nil
}

func TestAddress(t *testing.T) {
	tests := []struct {
		Iface, Want string
	}{
		{"", "192.168.1.50"},
		{"wlan0", "192.168.1.50"},
		{"eth0", ""},
		{"lo", ""},
		{"usb0", ""},
	}
	for _, test := range tests {
		t.Run(test.Iface, func(it *testing.T) {
			n := New(test.Iface, nil, nil)
			n.interfaces = testInterfaces
			if v := n.Address(); v != test.Want {
				it.Errorf("expected %q, got %q", test.Want, v)
			}
			if v := n.IsConnected(); v != (test.Want != "") {
				it.Errorf("expected connected %t, got %t", test.Want != "", v)
			}
		})
	}
}

func TestPickMissing(t *testing.T) {
	list, _ := testInterfaces()
	if _, err := pick(list, "usb0"); !errors.Is(err, ErrNoInterface) {
		t.Errorf("expected ErrNoInterface, got %v", err)
	}
}

func TestReset(t *testing.T) {
	if err := New("", nil, nil).Reset(context.Background()); err != nil {
		t.Errorf("expected reset without command to succeed, got %v", err)
	}
	if err := New("", []string{"true"}, nil).Reset(context.Background()); err != nil {
		t.Errorf("expected reset to succeed, got %v", err)
	}
	if err := New("", []string{"false"}, nil).Reset(context.Background()); err == nil {
		t.Error("expected failing command to be reported")
	}
}
