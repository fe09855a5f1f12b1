package source

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/econoscale/econoscale/internal/config"
)

// UnwrapRule describes how a relay's response body maps back to the
// upstream body.
type UnwrapRule string

const (
	// UnwrapNone passes the body through verbatim (direct calls and
	// raw-forwarding relays).
	UnwrapNone UnwrapRule = "none"
	// UnwrapContents extracts the upstream body from a JSON envelope's
	// "contents" string field (allorigins-style relays).
	UnwrapContents UnwrapRule = "contents"
)

// Strategy is one transport path: a direct call when Template is empty,
// otherwise a relay whose URL is built from the template. Strategies are
// configuration, not code — reordering or adding relays is a config edit.
type Strategy struct {
	Name     string
	Template string // contains {{url}} where the escaped target goes
	Unwrap   UnwrapRule
}

const urlPlaceholder = "{{url}}"

// Strategies builds the ordered strategy list from configuration.
// Entries with an unknown unwrap rule are dropped with an error so a bad
// config line cannot silently eat responses.
func Strategies(cfgs []config.TransportConfig) ([]Strategy, error) {
	out := make([]Strategy, 0, len(cfgs))
	for _, tc := range cfgs {
		rule := UnwrapRule(tc.Unwrap)
		if rule == "" {
			rule = UnwrapNone
		}
		if rule != UnwrapNone && rule != UnwrapContents {
			return nil, fmt.Errorf("transport %q: unknown unwrap rule %q", tc.Name, tc.Unwrap)
		}
		if tc.Template != "" && !strings.Contains(tc.Template, urlPlaceholder) {
			return nil, fmt.Errorf("transport %q: template missing %s placeholder", tc.Name, urlPlaceholder)
		}
		out = append(out, Strategy{Name: tc.Name, Template: tc.Template, Unwrap: rule})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no transport strategies configured")
	}
	return out, nil
}

// RequestURL returns the URL to actually request for the given upstream
// target.
func (s Strategy) RequestURL(target string) string {
	if s.Template == "" {
		return target
	}
	return strings.ReplaceAll(s.Template, urlPlaceholder, url.QueryEscape(target))
}

// UnwrapBody applies the strategy's unwrap rule to a response body.
func (s Strategy) UnwrapBody(body []byte) ([]byte, error) {
	switch s.Unwrap {
	case UnwrapContents:
		contents := gjson.GetBytes(body, "contents")
		if !contents.Exists() || contents.Type != gjson.String {
			return nil, fmt.Errorf("relay envelope has no contents field")
		}
		return []byte(contents.String()), nil
	default:
		return body, nil
	}
}
