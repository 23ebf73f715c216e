// Package chem defines the port through which the template and assembly
// engines reach an external chemistry toolkit. Nothing in this package
// performs chemistry; it only describes the calls and their wire shapes.
package chem

import (
	"context"
)

// SmartsValidator reports whether a SMARTS pattern parses.
type SmartsValidator interface {
	IsValidSmarts(ctx context.Context, pattern string) (bool, error)
}

// Oracle is the chemistry service consumed by the core engines.
//
// Errors returned by any method are transport or protocol failures. An
// unparsable molecule is an ordinary result of Validate (ok == false) and is
// never reported through the error value.
type Oracle interface {
	SmartsValidator

	// Validate parses raw and returns the molecule with its canonical key.
	Validate(ctx context.Context, raw string) (Molecule, bool, error)

	// ComputeProperty evaluates a registered numeric descriptor.
	ComputeProperty(ctx context.Context, name string, m Molecule) (float64, error)

	// CatalogHasMatch reports whether m matches any entry of the named catalog.
	CatalogHasMatch(ctx context.Context, catalog string, m Molecule) (bool, error)

	// SmartsMatchCount counts the substructure matches of pattern in m.
	SmartsMatchCount(ctx context.Context, pattern string, m Molecule) (int, error)

	// ClassifyForRole reports whether m can fill a leaf with the given role.
	ClassifyForRole(ctx context.Context, m Molecule, role RoleConstraint) (bool, error)

	// ComputeSynthons decomposes a building block into its reactive synthons.
	ComputeSynthons(ctx context.Context, m Molecule) ([]Synthon, error)

	// CombinatorialAssemble runs the bond-forming engine over a compiled tree.
	CombinatorialAssemble(ctx context.Context, req AssembleRequest) ([]RawProduct, error)

	// ReactionMechanisms lists the mechanisms the engine knows about.
	ReactionMechanisms(ctx context.Context) ([]Mechanism, error)
}

//Personal.AI order the ending
