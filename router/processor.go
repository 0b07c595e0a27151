package router

import "github.com/kbukum/packetflow/element"

// SetOutbound tags each packet to leave through iface.
func SetOutbound(iface Interface) element.Processor[Annotated, Annotated] {
	return element.Map(func(a Annotated) Annotated {
		a.Outbound = iface
		return a
	})
}

// SetInbound rewrites the interface each packet is treated as arriving on.
func SetInbound(iface Interface) element.Processor[Annotated, Annotated] {
	return element.Map(func(a Annotated) Annotated {
		a.Inbound = iface
		return a
	})
}

// Decap strips the interface annotation.
func Decap() element.Processor[Annotated, Packet] {
	return element.Map(func(a Annotated) Packet { return a.Packet })
}

// Encap annotates bare packets with fixed interfaces.
func Encap(inbound, outbound Interface) element.Processor[Packet, Annotated] {
	return element.Map(func(p Packet) Annotated {
		return Annotated{Packet: p, Inbound: inbound, Outbound: outbound}
	})
}
