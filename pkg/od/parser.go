package od

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

var (
	matchIndexRegExp    = regexp.MustCompile(`^[0-9A-Fa-f]{4}$`)
	matchSubindexRegExp = regexp.MustCompile(`^([0-9A-Fa-f]{4})[Ss]ub([0-9A-Fa-f]+)$`)
)

// LoadFromINI builds an ObjectDictionary from an EDS-style ini file (a
// path, []byte, or io.Reader — anything ini.Load accepts). Adapted from
// the teacher's pkg/od/parser.go Parse, trimmed to the attributes this
// subsystem's Non-goals leave in scope: no PDO mapping, no low/high
// limit validation, no $NODEID substitution.
func LoadFromINI(source any) (*ObjectDictionary, error) {
	file, err := ini.Load(source)
	if err != nil {
		return nil, fmt.Errorf("od: loading ini: %w", err)
	}
	d := NewObjectDictionary()

	for _, section := range file.Sections() {
		name := section.Name()
		if matchIndexRegExp.MatchString(name) {
			if err := loadObjectSection(d, section); err != nil {
				return nil, err
			}
			continue
		}
		if m := matchSubindexRegExp.FindStringSubmatch(name); m != nil {
			if err := loadSubindexSection(d, m[1], m[2], section); err != nil {
				return nil, err
			}
		}
	}
	return d, nil
}

func loadObjectSection(d *ObjectDictionary, section *ini.Section) error {
	idx, err := strconv.ParseUint(section.Name(), 16, 16)
	if err != nil {
		return err
	}
	index := uint16(idx)
	paramName := section.Key("ParameterName").String()

	objectType := uint8(ObjectTypeVAR)
	if raw := section.Key("ObjectType").Value(); raw != "" {
		if n, err := strconv.ParseUint(raw, 0, 8); err == nil {
			objectType = uint8(n)
		}
	}

	switch ObjectType(objectType) {
	case ObjectTypeVAR:
		v, err := variableFromSection(section, paramName, 0)
		if err != nil {
			return fmt.Errorf("od: %04X: %w", index, err)
		}
		d.AddVariable(index, v)
	case ObjectTypeARRAY:
		subNumberRaw, err := strconv.ParseUint(section.Key("SubNumber").Value(), 0, 8)
		if err != nil {
			return fmt.Errorf("od: %04X: missing SubNumber for ARRAY", index)
		}
		subNumber := uint8(subNumberRaw)
		dataType := uint8(UNSIGNED32)
		if raw := section.Key("DataType").Value(); raw != "" {
			if n, err := strconv.ParseUint(raw, 0, 8); err == nil {
				dataType = uint8(n)
			}
		}
		attr := accessTypeAttribute(section.Key("AccessType").String())
		// SubNumber includes subindex 0, so the array itself holds
		// subNumber-1 elements.
		elements := uint8(0)
		if subNumber > 0 {
			elements = subNumber - 1
		}
		d.AddList(index, NewArray(elements, dataType, attr))
	case ObjectTypeRECORD:
		d.AddList(index, NewRecord(nil))
	default:
		return fmt.Errorf("od: %04X: unknown ObjectType %d", index, objectType)
	}
	return nil
}

func loadSubindexSection(d *ObjectDictionary, indexHex, subHex string, section *ini.Section) error {
	idx, err := strconv.ParseUint(indexHex, 16, 16)
	if err != nil {
		return err
	}
	sidx, err := strconv.ParseUint(subHex, 16, 8)
	if err != nil {
		return err
	}
	index := uint16(idx)
	subindex := uint8(sidx)

	obj, ok := d.GetObject(index)
	if !ok {
		return fmt.Errorf("od: subindex section %sSub%s: index %04X not yet declared", indexHex, subHex, index)
	}
	entry, ok := obj.(*Entry)
	if !ok || entry.list == nil {
		return fmt.Errorf("od: subindex section %sSub%s: index %04X is not an ARRAY/RECORD", indexHex, subHex, index)
	}

	paramName := section.Key("ParameterName").String()
	v, err := variableFromSection(section, paramName, subindex)
	if err != nil {
		return fmt.Errorf("od: %04Xsub%d: %w", index, subindex, err)
	}

	switch entry.objectType {
	case ObjectTypeRECORD:
		if subindex == 0 {
			entry.list.si0 = v
		} else {
			entry.list.elements = append(entry.list.elements, v)
			entry.list.SetSI0(uint8(len(entry.list.elements)))
		}
	default: // ARRAY
		if subindex == 0 {
			entry.list.si0 = v
		} else if int(subindex)-1 < len(entry.list.elements) {
			entry.list.elements[subindex-1] = v
		}
	}
	return nil
}

func variableFromSection(section *ini.Section, name string, subindex uint8) (*Variable, error) {
	dataType := uint8(UNSIGNED32)
	if raw := section.Key("DataType").Value(); raw != "" {
		if n, err := strconv.ParseUint(raw, 0, 8); err == nil {
			dataType = uint8(n)
		}
	}
	attr := accessTypeAttribute(section.Key("AccessType").String())
	defaultValue := section.Key("DefaultValue").String()
	return NewVariable(subindex, name, dataType, attr, defaultValue)
}

// accessTypeAttribute maps an EDS AccessType string to an attribute
// bitmask, per CiA 306 ("ro"/"wo"/"rw"/"rwr"/"rww"/"const").
func accessTypeAttribute(accessType string) uint16 {
	switch strings.ToLower(strings.TrimSpace(accessType)) {
	case "ro", "const":
		return AttributeSdoR
	case "wo":
		return AttributeSdoW
	case "rw", "rwr", "rww":
		return AttributeSdoRw
	default:
		return AttributeSdoRw
	}
}
