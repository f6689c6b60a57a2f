package hosts

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Registry holds per-host behavior loaded from configuration data:
// response transforms for known-unreliable hosts serving non-standard
// feed dialects, and the auto-allow-empty host list for sources that
// legitimately return zero results. Membership is configuration, not
// code; no hosts are built in.
type Registry struct {
	overrides  []override
	allowEmpty []string
}

type override struct {
	host      string
	transform func([]byte) []byte
}

type fileFormat struct {
	Overrides []struct {
		Host      string `yaml:"host"`
		Transform string `yaml:"transform"`
	} `yaml:"overrides"`
	AllowEmptyHosts []string `yaml:"allow_empty_hosts"`
}

var ampersandPattern = regexp.MustCompile(`&(?:[a-zA-Z]+;|#[0-9]+;|#x[0-9a-fA-F]+;)?`)

// Named transforms an override may reference.
var transforms = map[string]func([]byte) []byte{
	"strip_bom":        stripBOM,
	"escape_ampersand": escapeAmpersands,
}

// Load reads a registry from a YAML file. An empty path yields an
// empty registry; an unreadable or malformed file is a boot-time
// configuration error.
func Load(path string) (*Registry, error) {
	reg := &Registry{}
	if path == "" {
		return reg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read hosts file: %w", err)
	}

	var parsed fileFormat
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse hosts file: %w", err)
	}

	for _, entry := range parsed.Overrides {
		fn, ok := transforms[entry.Transform]
		if !ok {
			return nil, fmt.Errorf("unknown transform %q for host %q", entry.Transform, entry.Host)
		}
		reg.overrides = append(reg.overrides, override{
			host:      strings.ToLower(entry.Host),
			transform: fn,
		})
	}

	for _, host := range parsed.AllowEmptyHosts {
		reg.allowEmpty = append(reg.allowEmpty, strings.ToLower(host))
	}

	return reg, nil
}

// Apply runs every matching override transform over the fetched body.
func (r *Registry) Apply(sourceURL string, data []byte) []byte {
	host := hostOf(sourceURL)
	if host == "" {
		return data
	}

	for _, o := range r.overrides {
		if matchHost(host, o.host) {
			data = o.transform(data)
		}
	}
	return data
}

// AllowEmpty reports whether a zero-item refresh for this source is a
// legitimate skip rather than a failure.
func (r *Registry) AllowEmpty(sourceURL string) bool {
	host := hostOf(sourceURL)
	for _, h := range r.allowEmpty {
		if matchHost(host, h) {
			return true
		}
	}
	return false
}

func hostOf(sourceURL string) string {
	parsed, err := url.Parse(sourceURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

// matchHost matches exact hosts and subdomains of the configured host.
func matchHost(host, configured string) bool {
	return host == configured || strings.HasSuffix(host, "."+configured)
}

func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
}

// escapeAmpersands fixes feeds that emit bare & characters in XML.
// Existing entity references are left alone.
func escapeAmpersands(data []byte) []byte {
	return ampersandPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		if len(match) == 1 {
			return []byte("&amp;")
		}
		return match
	})
}
