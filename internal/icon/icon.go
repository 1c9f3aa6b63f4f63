// ABOUTME: Folder icon configuration: a closed set of variants persisted per folder
// ABOUTME: Only the custom variant references an uploaded asset

package icon

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/2389/folder-icons/internal/assetstore"
	"github.com/2389/folder-icons/internal/symbols"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid icon configuration")

// Kind selects the icon variant.
type Kind string

const (
	KindStatus Kind = "status"
	KindCustom Kind = "custom"
	KindURL    Kind = "url"
	KindSymbol Kind = "symbol"
)

// Config is the icon configuration held by a folder.
// The zero value is a status icon over all jobs.
type Config struct {
	Kind   Kind     `json:"kind"`
	Asset  string   `json:"asset,omitempty"`
	URL    string   `json:"url,omitempty"`
	Symbol string   `json:"symbol,omitempty"`
	Jobs   []string `json:"jobs,omitempty"`
}

// Status returns a status icon, optionally restricted to the named jobs.
func Status(jobs ...string) Config {
	return Config{Kind: KindStatus, Jobs: jobs}
}

// Custom returns a custom icon referencing an uploaded asset.
func Custom(identity string) Config {
	return Config{Kind: KindCustom, Asset: identity}
}

// URL returns an icon loaded from an external image URL.
func URL(u string) Config {
	return Config{Kind: KindURL, URL: u}
}

// Symbol returns an icon drawn from the symbol catalog.
func Symbol(name string) Config {
	return Config{Kind: KindSymbol, Symbol: name}
}

// EffectiveKind maps the empty kind to KindStatus.
func (c Config) EffectiveKind() Kind {
	if c.Kind == "" {
		return KindStatus
	}
	return c.Kind
}

// AssetIdentity returns the referenced asset identity, if this is a custom icon
// with a non-blank asset.
func (c Config) AssetIdentity() (string, bool) {
	if c.EffectiveKind() != KindCustom {
		return "", false
	}
	id := strings.TrimSpace(c.Asset)
	if id == "" {
		return "", false
	}
	return id, true
}

// Validate checks the variant's fields. Symbol names are checked against the
// catalog unless it is degraded.
func (c Config) Validate(catalog *symbols.Catalog) error {
	switch c.EffectiveKind() {
	case KindStatus:
		for _, j := range c.Jobs {
			if strings.TrimSpace(j) == "" {
				return fmt.Errorf("%w: blank job name in status filter", ErrInvalid)
			}
		}
	case KindCustom:
		id, ok := c.AssetIdentity()
		if !ok {
			return fmt.Errorf("%w: custom icon requires an asset", ErrInvalid)
		}
		if _, err := assetstore.ParseIdentity(id); err != nil {
			return fmt.Errorf("%w: malformed asset identity %q", ErrInvalid, id)
		}
	case KindURL:
		u, err := url.Parse(c.URL)
		if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: url icon requires an absolute http(s) URL", ErrInvalid)
		}
	case KindSymbol:
		if strings.TrimSpace(c.Symbol) == "" {
			return fmt.Errorf("%w: symbol icon requires a name", ErrInvalid)
		}
		if catalog != nil && !catalog.Degraded() {
			if _, ok := catalog.Lookup(c.Symbol); !ok {
				return fmt.Errorf("%w: unknown symbol %q", ErrInvalid, c.Symbol)
			}
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalid, c.Kind)
	}
	return nil
}

// Normalize clears fields that do not belong to the variant.
func (c Config) Normalize() Config {
	switch c.EffectiveKind() {
	case KindStatus:
		return Config{Kind: KindStatus, Jobs: c.Jobs}
	case KindCustom:
		return Config{Kind: KindCustom, Asset: strings.TrimSpace(c.Asset)}
	case KindURL:
		return Config{Kind: KindURL, URL: c.URL}
	case KindSymbol:
		return Config{Kind: KindSymbol, Symbol: c.Symbol}
	}
	return c
}
