// Package router is a home router IPv4 forwarding policy built only from
// link primitives: classify by inbound interface, classify by destination or
// source subnet, annotate, and join everything into one outbound stream.
package router
