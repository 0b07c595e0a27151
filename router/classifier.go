package router

import (
	"net/netip"
	"sort"

	"github.com/kbukum/packetflow/element"
)

// ByInboundInterface classifies a packet by the interface it arrived on.
func ByInboundInterface() element.Classifier[Annotated, Interface] {
	return element.ClassifierFunc[Annotated, Interface](func(a Annotated) Interface {
		return a.Inbound
	})
}

type route[C any] struct {
	prefix   netip.Prefix
	category C
}

// SubnetTable maps prefixes to categories with longest-prefix match.
type SubnetTable[C any] struct {
	routes   []route[C]
	fallback C
}

// NewSubnetTable builds a table. Addresses matching no prefix get fallback.
func NewSubnetTable[C any](prefixes map[netip.Prefix]C, fallback C) *SubnetTable[C] {
	t := &SubnetTable[C]{fallback: fallback}
	for p, c := range prefixes {
		t.routes = append(t.routes, route[C]{prefix: p.Masked(), category: c})
	}
	sort.Slice(t.routes, func(i, j int) bool {
		return t.routes[i].prefix.Bits() > t.routes[j].prefix.Bits()
	})
	return t
}

// Lookup returns the category of the most specific prefix containing addr.
func (t *SubnetTable[C]) Lookup(addr netip.Addr) C {
	for _, r := range t.routes {
		if r.prefix.Contains(addr) {
			return r.category
		}
	}
	return t.fallback
}

// ByDestSubnet classifies by destination address.
func ByDestSubnet[C any](table *SubnetTable[C]) element.Classifier[Annotated, C] {
	return element.ClassifierFunc[Annotated, C](func(a Annotated) C {
		return table.Lookup(a.Packet.Dst)
	})
}

// BySrcSubnet classifies by source address.
func BySrcSubnet[C any](table *SubnetTable[C]) element.Classifier[Annotated, C] {
	return element.ClassifierFunc[Annotated, C](func(a Annotated) C {
		return table.Lookup(a.Packet.Src)
	})
}
