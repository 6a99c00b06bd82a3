package memory

import (
	"context"
	"strings"

	"github.com/aretw0/bookflow/pkg/ports"
)

// Area is a named serviceable region.
// A zip belongs to it when it equals one of Zips or starts with one of Prefixes.
type Area struct {
	Name     string   `mapstructure:"name" yaml:"name"`
	Zips     []string `mapstructure:"zips" yaml:"zips,omitempty"`
	Prefixes []string `mapstructure:"prefixes" yaml:"prefixes,omitempty"`
}

// UnserviceableMessage is returned for zips outside every area.
const UnserviceableMessage = "we do not serve this area yet"

// AreaChecker implements ports.AreaChecker against a static list of areas.
type AreaChecker struct {
	areas []Area
}

// NewAreaChecker creates an area checker.
func NewAreaChecker(areas ...Area) *AreaChecker {
	return &AreaChecker{areas: append([]Area(nil), areas...)}
}

// CheckArea implements ports.AreaChecker.
func (a *AreaChecker) CheckArea(ctx context.Context, req ports.AreaCheckRequest) (ports.AreaCheckResponse, error) {
	if err := ctx.Err(); err != nil {
		return ports.AreaCheckResponse{}, err
	}

	zip := normalizeZip(req.Zip)
	for _, area := range a.areas {
		if area.contains(zip) {
			return ports.AreaCheckResponse{Serviceable: true, AreaName: area.Name}, nil
		}
	}
	return ports.AreaCheckResponse{Serviceable: false, Message: UnserviceableMessage}, nil
}

func (a Area) contains(zip string) bool {
	for _, z := range a.Zips {
		if normalizeZip(z) == zip {
			return true
		}
	}
	for _, p := range a.Prefixes {
		if p = normalizeZip(p); p != "" && strings.HasPrefix(zip, p) {
			return true
		}
	}
	return false
}

// normalizeZip upper-cases and drops spaces and dashes, so "sw1a 1aa" matches "SW1A1AA".
func normalizeZip(zip string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, strings.ToUpper(strings.TrimSpace(zip)))
}
