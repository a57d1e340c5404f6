package config

import (
	"slices"
	"strings"
)

// LocaleConfig lists the UI languages the BFF serves.
type LocaleConfig struct {
	Supported []string `env:"SUPPORTED" envDefault:"en,de,ru" envSeparator:","`
	Default   string   `env:"DEFAULT"   envDefault:"en"`
	// Fallback supplies messages missing from a bundle.
	Fallback string `env:"FALLBACK" envDefault:"en"`
}

// Sanitize normalises locale tags and keeps Default and Fallback within Supported.
func (l *LocaleConfig) Sanitize() {
	supported := splitList(l.Supported)
	for i, s := range supported {
		supported[i] = strings.ToLower(s)
	}
	if len(supported) == 0 {
		supported = []string{"en"}
	}
	l.Supported = slices.Compact(supported)

	l.Default = strings.ToLower(strings.TrimSpace(l.Default))
	if !slices.Contains(l.Supported, l.Default) {
		l.Default = l.Supported[0]
	}
	l.Fallback = strings.ToLower(strings.TrimSpace(l.Fallback))
	if !slices.Contains(l.Supported, l.Fallback) {
		l.Fallback = l.Default
	}
}
