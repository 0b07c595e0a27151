package router

import (
	"fmt"
	"net/netip"
	"slices"
)

// Interface identifies where a packet entered or should leave the router.
type Interface int

const (
	Unmarked Interface = iota
	Host
	Lan
	Wan
)

func (i Interface) String() string {
	switch i {
	case Host:
		return "host"
	case Lan:
		return "lan"
	case Wan:
		return "wan"
	default:
		return "unmarked"
	}
}

// Packet is the part of an IPv4 packet the forwarding policy looks at.
type Packet struct {
	Src     netip.Addr
	Dst     netip.Addr
	Payload []byte
}

// Annotated is a packet tagged with its inbound and outbound interfaces.
type Annotated struct {
	Packet   Packet
	Inbound  Interface
	Outbound Interface
}

// Clone returns a deep copy so cloned branches never share a payload.
func (a Annotated) Clone() Annotated {
	a.Packet.Payload = slices.Clone(a.Packet.Payload)
	return a
}

func (a Annotated) String() string {
	return fmt.Sprintf("%s->%s %s=>%s", a.Packet.Src, a.Packet.Dst, a.Inbound, a.Outbound)
}

// Broadcast is the limited broadcast address.
var Broadcast = netip.AddrFrom4([4]byte{255, 255, 255, 255})

// LastAddr returns the highest address of an IPv4 prefix, its directed
// broadcast address.
func LastAddr(p netip.Prefix) netip.Addr {
	p = p.Masked()
	b := p.Addr().As4()
	host := uint32(1)<<(32-p.Bits()) - 1
	v := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	v |= host
	return netip.AddrFrom4([4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}

// hostPrefix returns the /32 prefix of addr.
func hostPrefix(addr netip.Addr) netip.Prefix {
	return netip.PrefixFrom(addr, addr.BitLen())
}
