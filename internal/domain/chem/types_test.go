package chem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRoleConstraint_SortsAndDedups(t *testing.T) {
	rc := NewRoleConstraint(RoleFunctionalGroups, []int{2, 1, 2, 0})
	assert.Equal(t, []int{0, 1, 2}, rc.Values)
	assert.Equal(t, RoleFunctionalGroups, rc.Kind)
}

func TestNewRoleConstraint_Empty(t *testing.T) {
	rc := NewRoleConstraint(RoleMappingIndices, nil)
	assert.Empty(t, rc.Values)
	assert.False(t, rc.Contains(0))
}

func TestRoleConstraint_Contains(t *testing.T) {
	rc := NewRoleConstraint(RoleMappingIndices, []int{3, 1})
	assert.True(t, rc.Contains(1))
	assert.True(t, rc.Contains(3))
	assert.False(t, rc.Contains(2))
}

func TestMolecule_Key(t *testing.T) {
	m := Molecule{Input: "C(C)C", Canonical: "CCC"}
	assert.Equal(t, "CCC", m.Key())
}

func TestDefaultLimits(t *testing.T) {
	l := DefaultLimits()
	assert.Equal(t, 1000, l.MaxPoolSize)
	assert.Equal(t, 1000000, l.MaxProducts)
}

//Personal.AI order the ending
