package od

// VariableList backs an ARRAY or RECORD Entry: subindex 0 holds the
// "highest subindex supported" count, subindices 1..N hold the elements.
// Adapted from the teacher's pkg/od/variable_list.go (od_interface.go
// VariableList in the retrieval pack).
type VariableList struct {
	objectType ObjectType
	si0        *Variable
	elements   []*Variable
}

// NewArray creates a fixed-capacity ARRAY with up to maxElements
// subindices, all initially present (si0 == maxElements). Use SetSI0 to
// model a shorter currently-active length (scenario S4 in spec.md §8).
func NewArray(maxElements uint8, elementDataType uint8, elementAttribute uint16) *VariableList {
	si0, _ := NewVariable(0, "highest sub-index supported", UNSIGNED8, AttributeSdoR, "")
	si0.value[0] = maxElements
	elements := make([]*Variable, maxElements)
	for i := range elements {
		v, _ := NewVariable(uint8(i+1), "", elementDataType, elementAttribute, "")
		elements[i] = v
	}
	return &VariableList{objectType: ObjectTypeARRAY, si0: si0, elements: elements}
}

// NewRecord creates a RECORD from a caller-supplied, heterogeneously
// typed list of subindex variables (subindex 1..N); si0 reports len(vars).
func NewRecord(vars []*Variable) *VariableList {
	si0, _ := NewVariable(0, "highest sub-index supported", UNSIGNED8, AttributeSdoR, "")
	si0.value[0] = byte(len(vars))
	return &VariableList{objectType: ObjectTypeRECORD, si0: si0, elements: vars}
}

// SI0 returns the "highest subindex supported" variable.
func (l *VariableList) SI0() *Variable { return l.si0 }

// SetSI0 sets the currently-active element count, used by Complete Access
// writes that include subindex 0 (spec.md §8 scenario S4).
func (l *VariableList) SetSI0(n uint8) {
	l.si0.value[0] = n
}

// ActiveCount is the currently-active element count (si0's value), which
// may be less than len(elements) for an ARRAY whose active length has
// been shrunk.
func (l *VariableList) ActiveCount() uint8 {
	return l.si0.value[0]
}

// Subindex returns the Variable for the given subindex (0 == si0,
// 1..len(elements) == elements), or ErrSubNotExist.
func (l *VariableList) Subindex(si uint8) (*Variable, error) {
	if si == 0 {
		return l.si0, nil
	}
	idx := int(si) - 1
	if idx < 0 || idx >= len(l.elements) {
		return nil, ErrSubNotExist
	}
	return l.elements[idx], nil
}

// MaxSubindex is the highest addressable subindex (len(elements)), which
// may exceed ActiveCount() for a partially-populated ARRAY.
func (l *VariableList) MaxSubindex() uint8 {
	return uint8(len(l.elements))
}
