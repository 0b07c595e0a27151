package router

import (
	"fmt"
	"net/netip"

	"github.com/kbukum/packetflow/element"
	"github.com/kbukum/packetflow/errors"
	"github.com/kbukum/packetflow/link"
	"github.com/kbukum/packetflow/observability"
	"github.com/kbukum/packetflow/validation"
)

// Kind is the component name reported in configuration errors.
const Kind = "handle_ipv4"

// Slot names specific to HandleIPv4Builder.
const (
	SlotWanIP     = "wan_ip"
	SlotLanIP     = "lan_ip"
	SlotLanSubnet = "lan_subnet"
)

type fromHostDest int

const (
	hostToLan fromHostDest = iota
	hostToBroadcast
	hostToOther
)

type fromLanDest int

const (
	lanToMe fromLanDest = iota
	lanToLan
	lanToBroadcast
	lanToOther
)

type meOrOther int

const (
	me meOrOther = iota
	other
)

// HandleIPv4Builder builds the home router forwarding policy for IPv4
// traffic arriving from the host, the LAN and the WAN. The result has a
// single egress stream of packets tagged with their outbound interface.
//
//   - host traffic to the LAN subnet or a broadcast address goes out the LAN,
//     everything else goes out the WAN through NAT.
//   - LAN traffic to the router's LAN address or a broadcast address goes to
//     the host, traffic to other LAN hosts is dropped, the rest goes out the
//     WAN through NAT.
//   - WAN traffic not addressed to the WAN address is dropped, the rest goes
//     through NAT to the LAN, or to the host when it targets the LAN address.
//   - packets with an unmarked inbound interface are dropped.
//
// NAT is an identity placeholder.
type HandleIPv4Builder struct {
	v *validation.Validator

	ingressor *link.PacketStream[Annotated]
	wanIP     netip.Addr
	lanIP     netip.Addr
	lanSubnet netip.Prefix
	name      string
	observer  observability.Observer

	ingSet, wanSet, lanSet, subnetSet, nameSet, observerSet bool

	built bool
}

// NewHandleIPv4 creates an empty builder.
func NewHandleIPv4() *HandleIPv4Builder {
	return &HandleIPv4Builder{v: validation.New(Kind)}
}

// Ingressor sets the annotated packet stream.
func (b *HandleIPv4Builder) Ingressor(s *link.PacketStream[Annotated]) *HandleIPv4Builder {
	if b.v.Once(link.SlotIngressor, b.ingSet) {
		b.ingressor, b.ingSet = s, true
	}
	return b
}

// WanIP sets the router's WAN address.
func (b *HandleIPv4Builder) WanIP(addr netip.Addr) *HandleIPv4Builder {
	if b.v.Once(SlotWanIP, b.wanSet) {
		b.wanIP, b.wanSet = addr, true
		b.v.Custom(addr.Is4(), SlotWanIP, errors.ReasonInvalid, "wan_ip must be an IPv4 address")
	}
	return b
}

// LanIP sets the router's LAN address.
func (b *HandleIPv4Builder) LanIP(addr netip.Addr) *HandleIPv4Builder {
	if b.v.Once(SlotLanIP, b.lanSet) {
		b.lanIP, b.lanSet = addr, true
		b.v.Custom(addr.Is4(), SlotLanIP, errors.ReasonInvalid, "lan_ip must be an IPv4 address")
	}
	return b
}

// LanSubnet sets the LAN prefix.
func (b *HandleIPv4Builder) LanSubnet(p netip.Prefix) *HandleIPv4Builder {
	if b.v.Once(SlotLanSubnet, b.subnetSet) {
		b.lanSubnet, b.subnetSet = p.Masked(), true
		b.v.Custom(p.Addr().Is4(), SlotLanSubnet, errors.ReasonInvalid, "lan_subnet must be an IPv4 prefix")
	}
	return b
}

// Name sets the prefix of every inner stage name. Defaults to handle_ipv4.
func (b *HandleIPv4Builder) Name(name string) *HandleIPv4Builder {
	if b.v.Once(link.SlotName, b.nameSet) {
		b.name, b.nameSet = name, true
		b.v.NotEmpty(link.SlotName, name)
	}
	return b
}

// Observer attaches o to every inner stage.
func (b *HandleIPv4Builder) Observer(o observability.Observer) *HandleIPv4Builder {
	if b.v.Once(link.SlotObserver, b.observerSet) {
		b.observer, b.observerSet = o, true
	}
	return b
}

// Build validates the slots and wires the policy out of classify, process
// and join links.
func (b *HandleIPv4Builder) Build() (link.Link[Annotated], error) {
	if b.built {
		return link.Link[Annotated]{}, errors.BuilderConsumed(Kind)
	}
	b.built = true

	b.v.Required(link.SlotIngressor, b.ingressor != nil).
		Required(SlotWanIP, b.wanIP.IsValid()).
		Required(SlotLanIP, b.lanIP.IsValid()).
		Required(SlotLanSubnet, b.lanSubnet.IsValid())
	if b.ingressor != nil && b.ingressor.Claimed() {
		b.v.Add(link.SlotIngressor, errors.ReasonStreamConsumed, "ingressor already has a consumer")
	}
	if err := b.v.Validate(); err != nil {
		return link.Link[Annotated]{}, err
	}

	w := &wiring{prefix: Kind, observer: b.observer}
	if b.nameSet {
		w.prefix = b.name
	}
	out, err := w.build(b)
	if err != nil {
		return link.Link[Annotated]{}, fmt.Errorf("%s: %w", w.prefix, err)
	}
	return link.Link[Annotated]{Runnables: w.runnables, Egressors: out}, nil
}

type wiring struct {
	prefix    string
	observer  observability.Observer
	runnables []*link.Runnable
}

func (w *wiring) stageName(step string) string { return w.prefix + "." + step }

func classify[C any](w *wiring, step string, in *link.PacketStream[Annotated], c element.Classifier[Annotated, C], n int, d element.Dispatcher[C]) ([]*link.PacketStream[Annotated], error) {
	b := link.NewClassify[Annotated, C]().
		Ingressor(in).
		Classifier(c).
		Dispatcher(d).
		NumEgressors(n).
		Name(w.stageName(step))
	if w.observer != nil {
		b.Observer(w.observer)
	}
	l, err := b.Build()
	if err != nil {
		return nil, err
	}
	w.runnables = append(w.runnables, l.Runnables...)
	return l.Egressors, nil
}

func process[I, O any](w *wiring, step string, in *link.PacketStream[I], p element.Processor[I, O]) (*link.PacketStream[O], error) {
	b := link.NewProcess[I, O]().
		Ingressor(in).
		Processor(p).
		Name(w.stageName(step))
	if w.observer != nil {
		b.Observer(w.observer)
	}
	l, err := b.Build()
	if err != nil {
		return nil, err
	}
	w.runnables = append(w.runnables, l.Runnables...)
	return l.Egressors[0], nil
}

func join[T any](w *wiring, step string, ins ...*link.PacketStream[T]) (*link.PacketStream[T], error) {
	b := link.NewJoin[T]().
		Ingressors(ins).
		Name(w.stageName(step))
	if w.observer != nil {
		b.Observer(w.observer)
	}
	l, err := b.Build()
	if err != nil {
		return nil, err
	}
	w.runnables = append(w.runnables, l.Runnables...)
	return l.Egressors[0], nil
}

func (w *wiring) build(b *HandleIPv4Builder) ([]*link.PacketStream[Annotated], error) {
	byInbound, err := classify(w, "classify_inbound", b.ingressor, ByInboundInterface(), 3,
		func(i Interface) (int, bool) {
			switch i {
			case Host:
				return 0, true
			case Lan:
				return 1, true
			case Wan:
				return 2, true
			default:
				return 0, false
			}
		})
	if err != nil {
		return nil, err
	}
	fromHost, fromLan, fromWan := byInbound[0], byInbound[1], byInbound[2]

	// Host: LAN and broadcast stay local, the rest heads for NAT.
	hostDest, err := classify(w, "classify_host_dest", fromHost,
		ByDestSubnet(NewSubnetTable(map[netip.Prefix]fromHostDest{
			hostPrefix(Broadcast): hostToBroadcast,
			b.lanSubnet:           hostToLan,
		}, hostToOther)), 2,
		func(c fromHostDest) (int, bool) {
			if c == hostToOther {
				return 1, true
			}
			return 0, true
		})
	if err != nil {
		return nil, err
	}
	hostToLanOut, err := process(w, "host_to_lan", hostDest[0], SetOutbound(Lan))
	if err != nil {
		return nil, err
	}
	hostToWan, err := process(w, "host_to_wan_decap", hostDest[1], Decap())
	if err != nil {
		return nil, err
	}

	// LAN: the router and broadcast go to the host, LAN-to-LAN is not
	// reflected, the rest heads for NAT.
	lanBroadcast := hostPrefix(LastAddr(b.lanSubnet))
	lanDest, err := classify(w, "classify_lan_dest", fromLan,
		ByDestSubnet(NewSubnetTable(map[netip.Prefix]fromLanDest{
			hostPrefix(b.lanIP):   lanToMe,
			hostPrefix(Broadcast): lanToBroadcast,
			lanBroadcast:          lanToBroadcast,
			b.lanSubnet:           lanToLan,
		}, lanToOther)), 2,
		func(c fromLanDest) (int, bool) {
			switch c {
			case lanToMe, lanToBroadcast:
				return 0, true
			case lanToOther:
				return 1, true
			default:
				return 0, false
			}
		})
	if err != nil {
		return nil, err
	}
	lanToHostOut, err := process(w, "lan_to_host", lanDest[0], SetOutbound(Host))
	if err != nil {
		return nil, err
	}
	lanToWan, err := process(w, "lan_to_wan_decap", lanDest[1], Decap())
	if err != nil {
		return nil, err
	}

	// Outbound NAT.
	toNat, err := join(w, "join_nat_encap", hostToWan, lanToWan)
	if err != nil {
		return nil, err
	}
	natEncap, err := process(w, "nat_encap", toNat, element.Identity[Packet]())
	if err != nil {
		return nil, err
	}
	natEncapOut, err := process(w, "nat_encap_annotate", natEncap, Encap(Lan, Wan))
	if err != nil {
		return nil, err
	}
	natSrc, err := classify(w, "classify_nat_src", natEncapOut,
		BySrcSubnet(NewSubnetTable(map[netip.Prefix]meOrOther{
			hostPrefix(b.lanIP): me,
		}, other)), 2,
		func(c meOrOther) (int, bool) { return int(c), true })
	if err != nil {
		return nil, err
	}
	hostThroughNat, err := process(w, "host_through_nat", natSrc[0], SetInbound(Host))
	if err != nil {
		return nil, err
	}
	lanThroughNat := natSrc[1]

	// WAN: only traffic for the WAN address is accepted.
	wanDest, err := classify(w, "classify_wan_dest", fromWan,
		ByDestSubnet(NewSubnetTable(map[netip.Prefix]meOrOther{
			hostPrefix(b.wanIP): me,
		}, other)), 1,
		func(c meOrOther) (int, bool) { return 0, c == me })
	if err != nil {
		return nil, err
	}
	wanToMe, err := process(w, "wan_to_me_decap", wanDest[0], Decap())
	if err != nil {
		return nil, err
	}

	// Inbound NAT.
	natDecap, err := process(w, "nat_decap", wanToMe, element.Identity[Packet]())
	if err != nil {
		return nil, err
	}
	natDecapOut, err := process(w, "nat_decap_annotate", natDecap, Encap(Wan, Lan))
	if err != nil {
		return nil, err
	}
	natDest, err := classify(w, "classify_nat_dest", natDecapOut,
		ByDestSubnet(NewSubnetTable(map[netip.Prefix]meOrOther{
			hostPrefix(b.lanIP): me,
		}, other)), 2,
		func(c meOrOther) (int, bool) { return int(c), true })
	if err != nil {
		return nil, err
	}
	natToHost, err := process(w, "nat_to_host", natDest[0], SetOutbound(Host))
	if err != nil {
		return nil, err
	}
	natToLan := natDest[1]

	out, err := join(w, "join_out",
		hostToLanOut,
		hostThroughNat,
		lanThroughNat,
		lanToHostOut,
		natToLan,
		natToHost,
	)
	if err != nil {
		return nil, err
	}
	return []*link.PacketStream[Annotated]{out}, nil
}
