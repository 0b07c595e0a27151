package main

import (
	"strings"
	"unicode"

	"github.com/kbukum/packetflow/element"
	"github.com/kbukum/packetflow/graph"
	"github.com/kbukum/packetflow/resilience"
)

// Line rate admitted by the "police" element.
const (
	policeRate  = 1000
	policeBurst = 100
)

// builtins returns the registry of line elements a graph file may reference.
func builtins() *graph.Registry[string] {
	reg := graph.NewRegistry[string]()

	reg.RegisterElement("identity", element.Identity[string])
	reg.RegisterElement("upper", func() element.Processor[string, string] {
		return element.Map(strings.ToUpper)
	})
	reg.RegisterElement("lower", func() element.Processor[string, string] {
		return element.Map(strings.ToLower)
	})
	reg.RegisterElement("trim", func() element.Processor[string, string] {
		return element.Map(strings.TrimSpace)
	})
	reg.RegisterElement("reverse", func() element.Processor[string, string] {
		return element.Map(reverse)
	})
	reg.RegisterElement("drop_empty", func() element.Processor[string, string] {
		return element.Filter(func(s string) bool { return strings.TrimSpace(s) != "" })
	})
	reg.RegisterElement("strip_prefix", func() element.Processor[string, string] {
		return element.Map(func(s string) string {
			_, rest, ok := strings.Cut(s, ":")
			if !ok {
				return s
			}
			return strings.TrimSpace(rest)
		})
	})

	reg.RegisterElement("police", func() element.Processor[string, string] {
		return element.Police[string](resilience.NewTokenBucket(resilience.TokenBucketConfig{
			Name:  "police",
			Rate:  policeRate,
			Burst: policeBurst,
		}))
	})

	reg.RegisterClassifier("prefix", func() element.Classifier[string, string] {
		return element.ClassifierFunc[string, string](prefix)
	})
	reg.RegisterClassifier("parity", func() element.Classifier[string, string] {
		return element.ClassifierFunc[string, string](func(s string) string {
			if len(s)%2 == 0 {
				return "even"
			}
			return "odd"
		})
	})
	reg.RegisterClassifier("case", func() element.Classifier[string, string] {
		return element.ClassifierFunc[string, string](letterCase)
	})

	reg.RegisterDispatcher("parity", func() element.Dispatcher[string] {
		return element.MapDispatcher(map[string]int{"even": 0, "odd": 1})
	})
	return reg
}

// prefix returns the text before the first colon, or "" when there is none.
func prefix(s string) string {
	p, _, ok := strings.Cut(s, ":")
	if !ok {
		return ""
	}
	return strings.TrimSpace(p)
}

func letterCase(s string) string {
	var upper, lower bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		}
	}
	switch {
	case upper && lower:
		return "mixed"
	case upper:
		return "upper"
	case lower:
		return "lower"
	default:
		return "none"
	}
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}
