package alerts

import "encoding/json"

// ScopeKind discriminates the Scope variants.
type ScopeKind int

const (
	ScopeGeostore ScopeKind = iota
	ScopeAdmin
	ScopeLandUse
	ScopeProtectedArea
	ScopeGeometry
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeGeostore:
		return "geostore"
	case ScopeAdmin:
		return "admin"
	case ScopeLandUse:
		return "use"
	case ScopeProtectedArea:
		return "wdpa"
	case ScopeGeometry:
		return "geojson"
	default:
		return "unknown"
	}
}

// Admin is a country ISO code optionally refined by state and district.
// Zero State/District means "not set".
type Admin struct {
	ISO      string
	State    int
	District int
}

// Scope is the area of interest for a request. Exactly one variant is populated,
// as indicated by Kind.
type Scope struct {
	Kind ScopeKind

	GeostoreID string
	Admin      Admin
	UseType    string
	UseID      string
	WDPAID     string
	Geometry   json.RawMessage
}

// GeostoreScope builds a geostore scope.
func GeostoreScope(id string) Scope { return Scope{Kind: ScopeGeostore, GeostoreID: id} }

// AdminScope builds an admin scope.
func AdminScope(iso string, state, district int) Scope {
	return Scope{Kind: ScopeAdmin, Admin: Admin{ISO: iso, State: state, District: district}}
}

// LandUseScope builds a land-use scope.
func LandUseScope(useType, useID string) Scope {
	return Scope{Kind: ScopeLandUse, UseType: useType, UseID: useID}
}

// ProtectedAreaScope builds a WDPA scope.
func ProtectedAreaScope(id string) Scope { return Scope{Kind: ScopeProtectedArea, WDPAID: id} }

// GeometryScope builds a scope from an ad-hoc GeoJSON geometry.
func GeometryScope(raw json.RawMessage) Scope { return Scope{Kind: ScopeGeometry, Geometry: raw} }

// ResolvedScope is a Scope after area lookup.
type ResolvedScope struct {
	Scope Scope

	// AreaHa is zero when the area is unknown (e.g. posted geometries).
	AreaHa float64

	// GeostoreID is the spatial filter token; empty for admin scopes,
	// which are embedded in the query text instead.
	GeostoreID string
}

// EmbedsAdmin reports whether the admin codes are part of the query text.
func (r ResolvedScope) EmbedsAdmin() bool {
	return r.Scope.Kind == ScopeAdmin
}
