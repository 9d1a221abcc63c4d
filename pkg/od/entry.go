package od

import (
	"io"

	"github.com/canroda/roda/pkg/roda"
)

// Entry is a dictionary object: either a single Variable (VAR/DOMAIN) or
// a VariableList (ARRAY/RECORD). It implements ObjectHandle. Adapted from
// the teacher's pkg/od/entry.go, collapsed onto the two shapes this
// subsystem's Non-goals leave in scope (no PDO mapping metadata, no
// extension/Streamer indirection).
type Entry struct {
	index      uint16
	objectType ObjectType
	variable   *Variable     // set when objectType == ObjectTypeVAR
	list       *VariableList // set when objectType != ObjectTypeVAR
}

// NewVarEntry wraps a single Variable as a VAR object at index.
func NewVarEntry(index uint16, v *Variable) *Entry {
	return &Entry{index: index, objectType: ObjectTypeVAR, variable: v}
}

// NewListEntry wraps a VariableList (ARRAY/RECORD) as an object at index.
func NewListEntry(index uint16, l *VariableList) *Entry {
	return &Entry{index: index, objectType: l.objectType, list: l}
}

func (e *Entry) Index() uint16               { return e.index }
func (e *Entry) ObjectCode() roda.ObjectCode { return e.objectType }

func (e *Entry) Name() string {
	if e.variable != nil {
		return e.variable.Name
	}
	if si0 := e.list.SI0(); si0 != nil {
		return si0.Name
	}
	return ""
}

func (e *Entry) MaxSubindexCount() uint16 {
	if e.variable != nil {
		return 0
	}
	return uint16(e.list.MaxSubindex())
}

// LockData locks every Variable backing this entry and returns a single
// unlock function that releases them all, in the teacher's
// lock-outermost-first order (si0 then elements), mirroring
// pkg/od/entry.go lock_data.
func (e *Entry) LockData() func() {
	if e.variable != nil {
		return e.variable.Lock()
	}
	unlocks := make([]func(), 0, 1+len(e.list.elements))
	unlocks = append(unlocks, e.list.si0.Lock())
	for _, v := range e.list.elements {
		unlocks = append(unlocks, v.Lock())
	}
	return func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
}

func (e *Entry) subVariable(si uint8) (*Variable, error) {
	if e.variable != nil {
		if si != 0 {
			return nil, ErrSubNotExist
		}
		return e.variable, nil
	}
	return e.list.Subindex(si)
}

func (e *Entry) SubindexAttributes(si uint8) (uint16, error) {
	v, err := e.subVariable(si)
	if err != nil {
		return 0, err
	}
	return v.Attribute, nil
}

func (e *Entry) SubindexActualSizeBits(si uint8) (uint32, error) {
	v, err := e.subVariable(si)
	if err != nil {
		return 0, err
	}
	return v.DataLength() * 8, nil
}

func (e *Entry) SubindexEmpty(si uint8) bool {
	v, err := e.subVariable(si)
	if err != nil {
		return true
	}
	return v.DataLength() == 0
}

func (e *Entry) SubindexDataType(si uint8) uint8 {
	v, err := e.subVariable(si)
	if err != nil {
		return 0
	}
	return v.DataType
}

func (e *Entry) SubindexName(si uint8) string {
	v, err := e.subVariable(si)
	if err != nil {
		return ""
	}
	return v.Name
}

// checkAccess intersects the object's declared attribute with the
// caller-presented permissions mask (spec.md §4.1 per-kind dispatch:
// a read/write request carries the rights the session is authorized
// for, the object carries the rights it allows; both must agree).
func checkAccess(attr, permissions, want uint16) ODR {
	if attr&want == 0 {
		return ErrUnsuppAccess
	}
	if permissions&want == 0 {
		return ErrUnsuppAccess
	}
	return ErrNo
}

func (e *Entry) Read(si uint8, permissions uint16, w io.Writer) roda.AbortCode {
	v, err := e.subVariable(si)
	if err != nil {
		return ErrSubNotExist.ToAbortCode()
	}
	if odr := checkAccess(v.Attribute, permissions, AttributeSdoR); odr != ErrNo {
		return odr.ToAbortCode()
	}
	unlock := v.Lock()
	defer unlock()
	buf := make([]byte, len(v.value))
	n, rerr := v.readLocked(buf)
	if rerr != nil {
		return rerr.(ODR).ToAbortCode()
	}
	if _, werr := w.Write(buf[:n]); werr != nil {
		return roda.AbortGeneralError
	}
	return roda.AbortNone
}

func (e *Entry) Write(si uint8, permissions uint16, r io.Reader) roda.AbortCode {
	v, err := e.subVariable(si)
	if err != nil {
		return ErrSubNotExist.ToAbortCode()
	}
	if odr := checkAccess(v.Attribute, permissions, AttributeSdoW); odr != ErrNo {
		return odr.ToAbortCode()
	}
	data, rerr := io.ReadAll(r)
	if rerr != nil {
		return roda.AbortGeneralError
	}
	unlock := v.Lock()
	defer unlock()
	allowShort := v.Attribute&AttributeStr != 0
	if werr := v.writeLocked(data, allowShort); werr != nil {
		return werr.(ODR).ToAbortCode()
	}
	return roda.AbortNone
}

// completeSubindices returns the subindices a Complete-Access stream
// touches, in ascending order.
func (e *Entry) completeSubindices(includeSI0 bool) []uint8 {
	if e.variable != nil {
		return []uint8{0}
	}
	n := e.list.MaxSubindex()
	var subs []uint8
	if includeSI0 {
		subs = append(subs, 0)
	}
	for si := uint8(1); si <= n; si++ {
		subs = append(subs, si)
	}
	return subs
}

func (e *Entry) CompleteRead(includeSI0 bool, si0As16Bit bool, permissions uint16, w io.Writer) roda.AbortCode {
	for _, si := range e.completeSubindices(includeSI0) {
		v, _ := e.subVariable(si)
		if odr := checkAccess(v.Attribute, permissions, AttributeSdoR); odr != ErrNo {
			return odr.ToAbortCode()
		}
		unlock := v.Lock()
		buf := make([]byte, len(v.value))
		n, rerr := v.readLocked(buf)
		unlock()
		if rerr != nil {
			return rerr.(ODR).ToAbortCode()
		}
		wn := n
		if si == 0 && si0As16Bit {
			buf = append(buf, 0)
			wn = n + 1
		}
		if _, werr := w.Write(buf[:wn]); werr != nil {
			return roda.AbortGeneralError
		}
	}
	return roda.AbortNone
}

func (e *Entry) CompleteWrite(includeSI0 bool, si0As16Bit bool, permissions uint16, r io.Reader, policy TrailingBitPolicy) roda.AbortCode {
	var subs []uint8
	switch {
	case e.variable != nil:
		subs = []uint8{0}
	case includeSI0:
		// Writing SI0 as part of Complete Access resizes the active
		// element count (spec.md §8 scenario S4): the new SI0 value,
		// not the object's full subindex range, governs how many
		// elements the rest of the stream carries.
		newCount, abort := e.writeSI0(si0As16Bit, permissions, r)
		if abort != roda.AbortNone {
			return abort
		}
		subs = make([]uint8, newCount)
		for i := range subs {
			subs[i] = uint8(i + 1)
		}
	default:
		n := e.list.MaxSubindex()
		subs = make([]uint8, n)
		for i := range subs {
			subs[i] = uint8(i + 1)
		}
	}

	for i, si := range subs {
		v, _ := e.subVariable(si)
		if odr := checkAccess(v.Attribute, permissions, AttributeSdoW); odr != ErrNo {
			return odr.ToAbortCode()
		}
		want := int(v.DataLength())
		if e.variable != nil && si == 0 && si0As16Bit {
			want++
		}
		chunk := make([]byte, want)
		n, rerr := io.ReadFull(r, chunk)
		last := i == len(subs)-1
		if rerr == io.ErrUnexpectedEOF || rerr == io.EOF {
			if !last || policy == TrailingBitsReject {
				return ErrDataShort.ToAbortCode()
			}
		} else if rerr != nil {
			return roda.AbortGeneralError
		}
		chunk = chunk[:n]
		if e.variable != nil && si == 0 && si0As16Bit && len(chunk) > 0 {
			chunk = chunk[:1]
		}
		unlock := v.Lock()
		werr := v.writeLocked(chunk, true)
		unlock()
		if werr != nil {
			return werr.(ODR).ToAbortCode()
		}
	}
	return roda.AbortNone
}

// writeSI0 consumes and applies the SI0 prefix of a Complete-Access write
// to a VariableList, returning the new active element count (spec.md §8
// scenario S4). Complete-Access SI0 writability is governed by the
// caller's own permissions rather than SI0's single-subindex attribute,
// which is conventionally read-only so that a plain subindex write can't
// resize the array out from under single-subindex readers.
func (e *Entry) writeSI0(si0As16Bit bool, permissions uint16, r io.Reader) (uint8, roda.AbortCode) {
	if permissions&AttributeSdoW == 0 {
		return 0, ErrUnsuppAccess.ToAbortCode()
	}
	width := 1
	if si0As16Bit {
		width = 2
	}
	chunk := make([]byte, width)
	if _, rerr := io.ReadFull(r, chunk); rerr != nil {
		return 0, ErrDataShort.ToAbortCode()
	}
	newCount := chunk[0]
	if newCount > e.list.MaxSubindex() {
		return 0, ErrDataLong.ToAbortCode()
	}
	unlock := e.list.si0.Lock()
	e.list.SetSI0(newCount)
	unlock()
	return newCount, roda.AbortNone
}

func (e *Entry) ObjectStreamSizeBits(si0As16Bit bool) uint32 {
	var total uint32
	for _, si := range e.completeSubindices(true) {
		v, _ := e.subVariable(si)
		bits := v.DataLength() * 8
		if si == 0 && si0As16Bit {
			bits += 8
		}
		total += bits
	}
	return total
}
