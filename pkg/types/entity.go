// Package types defines the shared value types for the Dossier core.
// All data crossing component boundaries uses these explicit structs;
// no untyped maps are passed between packages.
package types

// Entity represents a named thing extracted from the document corpus
// by the upstream NER layer: a person, place, organization, or date.
type Entity struct {
	// ID is the numeric identifier assigned at creation. Immutable.
	ID int64 `json:"id"`

	// Name is the display name as it appeared in the corpus.
	Name string `json:"name"`

	// Type classifies the entity (see EntityType constants).
	Type string `json:"type"`

	// Canonical is the normalized form used for raw uniqueness at
	// creation time. This is an NER-layer concept and is distinct from
	// the resolved canonical identity maintained by the resolver.
	Canonical string `json:"canonical,omitempty"`
}

// Entity type constants. The schema does not restrict types to this
// set; these are the ones the upstream extractor produces today.
const (
	EntityTypePerson = "person"
	EntityTypePlace  = "place"
	EntityTypeOrg    = "org"
	EntityTypeDate   = "date"
)
