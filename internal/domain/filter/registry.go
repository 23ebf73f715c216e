// Package filter compiles declarative filter templates into ordered predicate
// lists and evaluates them against molecules through a chem.Oracle.
package filter

import (
	"context"

	"github.com/turtacn/chemtemplates/internal/domain/chem"
)

// registryEntry pairs a registered name with its human-readable description.
type registryEntry struct {
	name        string
	description string
}

var builtinProperties = []registryEntry{
	{"Number of Compounds", "counts the number of compounds in the input, denoted by `.` separation"},
	{"TPSA", "TPSA value for the input"},
	{"LogP", "cLogP for the input"},
	{"Molecular Weight", "molecular weight of the input"},
	{"Heavy Atom Count", "counts the number of heavy atoms in the input"},
	{"Atom Count", "counts the total number of atoms in the input (including hydrogens)"},
	{"Heteroatom Count", "counts the number of heteroatoms in the input"},
	{"Spiro Atom Count", "counts the number of spirocarbons in the input"},
	{"Bridgehead Atom Count", "counts the number of bridgehead atoms in the input"},
	{"Stereocenter Count", "counts the number of stereocenters in the input"},
	{"Hydrogen Bond Donors", "counts the number of hydrogen bond donors in the input"},
	{"Hydrogen Bond Acceptors", "counts the number of hydrogen bond acceptors in the input"},
	{"Formal Charge", "computes the overall formal charge of the input"},
	{"Rotatable Bonds", "counts the number of rotatable bonds in the input"},
	{"Loose Rotatable Bonds", "counts the number of rotatable bonds in the input, using looser criteria that includes things like amides and esters"},
	{"Rotatable Chain Length", "counts the length of the longest contiguous chain of rotatable bonds in the input"},
	{"Max Ring Size", "computes the size of the largest ring in the input"},
	{"Min Ring Size", "computes the size of the smallest ring in the input"},
	{"Ring Count", "counts the number of rings in the input"},
	{"Ring Count (Aromatic)", "counts the number of aromatic rings in the input"},
	{"Ring Count (Saturated)", "counts the number of saturated rings in the input"},
	{"Ring Count (Aliphatic)", "counts the number of aliphatic rings in the input"},
	{"Heterocycle Count", "counts the number of heterocycles in the input"},
	{"Heterocycle Count (Aromatic)", "counts the number of aromatic heterocycles in the input"},
	{"Heterocycle Count (Saturated)", "counts the number of saturated heterocycles in the input"},
	{"Heterocycle Count (Aliphatic)", "counts the number of aliphatic heterocycles in the input"},
	{"Carbocycles (Aromatic)", "counts the number of aromatic carbocycles in the input"},
	{"Carbocycles (Saturated)", "counts the number of saturated carbocycles in the input"},
	{"Carbocycles (Aliphatic)", "counts the number of aliphatic carbocycles in the input"},
	{"Amide Bond Count", "counts the number of amide bonds in the input"},
	{"Fraction SP3", "computes the fraction SP3 of the input"},
	{"QED", "computes the QED score of the input"},
	{"SA Score", "computes the SA score of the input"},
	{"Molar Refractivity", "computes the molar refractivity of the input"},
	{"Radical Count", "counts the number of radical electrons in the input"},
}

var builtinCatalogs = []registryEntry{
	{"PAINS", "Pan assay interference patterns, doi:10.1021/jm901137j"},
	{"PAINS_A", "Pan assay interference patterns subset A, doi:10.1021/jm901137j"},
	{"PAINS_B", "Pan assay interference patterns subset B, doi:10.1021/jm901137j"},
	{"PAINS_C", "Pan assay interference patterns subset C, doi:10.1021/jm901137j"},
	{"BRENK", "filters unwanted functionality due to potential tox reasons or unfavorable pharmacokinetics, doi:10.1002/cmdc.200700139"},
	{"NIH", "annotated compounds with problematic functional groups, doi:10.1039/C4OB02287D"},
	{"ZINC", "Filtering based on drug-likeness and unwanted functional groups, http://blaster.docking.org/filtering/"},
}

// Registry is the immutable table of known property and catalog names.
// It is built once at startup and shared by every request without locking.
type Registry struct {
	properties      map[string]string
	propertyOrder   []string
	catalogs        map[string]string
	catalogOrder    []string
	smartsValidator chem.SmartsValidator
}

// NewRegistry builds the registry of built-in properties and catalogs.
// SMARTS validity is delegated to v.
func NewRegistry(v chem.SmartsValidator) *Registry {
	r := &Registry{
		properties:      make(map[string]string, len(builtinProperties)),
		propertyOrder:   make([]string, 0, len(builtinProperties)),
		catalogs:        make(map[string]string, len(builtinCatalogs)),
		catalogOrder:    make([]string, 0, len(builtinCatalogs)),
		smartsValidator: v,
	}
	for _, e := range builtinProperties {
		r.properties[e.name] = e.description
		r.propertyOrder = append(r.propertyOrder, e.name)
	}
	for _, e := range builtinCatalogs {
		r.catalogs[e.name] = e.description
		r.catalogOrder = append(r.catalogOrder, e.name)
	}
	return r
}

// KnownPropertyNames returns the registered property names in registry order.
func (r *Registry) KnownPropertyNames() []string {
	return append([]string(nil), r.propertyOrder...)
}

// KnownCatalogNames returns the registered catalog names in registry order.
func (r *Registry) KnownCatalogNames() []string {
	return append([]string(nil), r.catalogOrder...)
}

func (r *Registry) HasProperty(name string) bool {
	_, ok := r.properties[name]
	return ok
}

func (r *Registry) HasCatalog(name string) bool {
	_, ok := r.catalogs[name]
	return ok
}

// PropertyDescription returns the description of name, or "" if unknown.
func (r *Registry) PropertyDescription(name string) string {
	return r.properties[name]
}

// CatalogDescription returns the description of name, or "" if unknown.
func (r *Registry) CatalogDescription(name string) string {
	return r.catalogs[name]
}

// IsValidSmarts asks the oracle whether pattern parses. An empty pattern is
// never valid and does not reach the oracle.
func (r *Registry) IsValidSmarts(ctx context.Context, pattern string) (bool, error) {
	if pattern == "" {
		return false, nil
	}
	if r.smartsValidator == nil {
		return false, nil
	}
	return r.smartsValidator.IsValidSmarts(ctx, pattern)
}

//Personal.AI order the ending
