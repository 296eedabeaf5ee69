// Package inventory provides an in-memory host list for running a provider outside a
// provisioning framework, loaded from YAML:
//
//	hosts:
//	  - name: web-1.example.com
//	    properties:
//	      hocho_jwt:
//	        issue: true
//	        duration: 3600
//	        claims:
//	          aud: deploy
package inventory

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Host is a named property tree plus an attribute collection.
type Host struct {
	name       string
	properties map[string]any
	attributes map[string]any
}

// NewHost returns a host with an empty attribute collection.
func NewHost(name string, properties map[string]any) *Host {
	if properties == nil {
		properties = map[string]any{}
	}
	return &Host{
		name:       name,
		properties: properties,
		attributes: map[string]any{},
	}
}

func (h *Host) Name() string               { return h.name }
func (h *Host) Properties() map[string]any { return h.properties }
func (h *Host) Attributes() map[string]any { return h.attributes }

type file struct {
	Hosts []hostSpec `yaml:"hosts"`
}

type hostSpec struct {
	Name       string         `yaml:"name"`
	Properties map[string]any `yaml:"properties"`
}

// Load decodes an inventory document. Host names must be present and unique.
func Load(r io.Reader) ([]*Host, error) {
	var doc file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode inventory: %w", err)
	}

	seen := make(map[string]struct{}, len(doc.Hosts))
	hosts := make([]*Host, 0, len(doc.Hosts))
	for i, spec := range doc.Hosts {
		if spec.Name == "" {
			return nil, fmt.Errorf("inventory host %d has no name", i)
		}
		if _, dup := seen[spec.Name]; dup {
			return nil, fmt.Errorf("inventory host %q is listed twice", spec.Name)
		}
		seen[spec.Name] = struct{}{}

		props, _ := normalize(spec.Properties).(map[string]any)
		hosts = append(hosts, NewHost(spec.Name, props))
	}
	return hosts, nil
}

// LoadFile reads an inventory from path.
func LoadFile(path string) ([]*Host, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open inventory: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// normalize rewrites mappings with non-string keys so every level is map[string]any.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			t[k] = normalize(child)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[fmt.Sprint(k)] = normalize(child)
		}
		return out
	case []any:
		for i, child := range t {
			t[i] = normalize(child)
		}
		return t
	default:
		return v
	}
}
