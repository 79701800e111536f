package ot

import "fmt"

// --- Fvar table ------------------------------------------------------------

// VariationAxis is one axis record of the fvar table. Min/Default/Max are
// in user space (e.g. 100…900 for a weight axis).
type VariationAxis struct {
	Tag     Tag
	Minimum Fixed
	Default Fixed
	Maximum Fixed
	Flags   uint16
	NameID  uint16
}

// VariationInstance is a named position in the design space, e.g. "Bold".
// Coordinates are in user space, one per axis, in axis order.
type VariationInstance struct {
	SubfamilyNameID uint16
	Flags           uint16
	Coordinates     []Fixed
}

// FvarTable lists the variation axes and named instances of a variable
// font.
type FvarTable struct {
	tableBase
	Axes      []VariationAxis
	Instances []VariationInstance
}

func newFvarTable(tag Tag, b binarySegm, offset, size uint32) *FvarTable {
	t := &FvarTable{}
	base := tableBase{
		data:   b,
		name:   tag,
		offset: offset,
		length: size,
	}
	t.tableBase = base
	t.self = t
	return t
}

// NewFvarTable creates an fvar table for the font assembly path.
func NewFvarTable(axes []VariationAxis, instances []VariationInstance) *FvarTable {
	t := newFvarTable(T("fvar"), nil, 0, 0)
	t.Axes = axes
	t.Instances = instances
	return t
}

// AxisIndex returns the position of an axis tag in the axis order, or -1.
func (t *FvarTable) AxisIndex(tag Tag) int {
	for i, ax := range t.Axes {
		if ax.Tag == tag {
			return i
		}
	}
	return -1
}

const fvarAxisSize = 20

func parseFvar(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size < 16 {
		return nil, tableError(tag, "Size", fmt.Sprintf("fvar table too small: %d bytes (need 16)", size), offset)
	}
	t := newFvarTable(tag, b, offset, size)
	axesOffset := int(b.U16(4))
	axisCount := int(b.U16(8))
	axisSize := int(b.U16(10))
	instanceCount := int(b.U16(12))
	instanceSize := int(b.U16(14))
	if axisSize < fvarAxisSize {
		return nil, tableError(tag, "AxisSize", fmt.Sprintf("axis record size %d too small", axisSize), offset+10)
	}
	axesSize, err := checkedMulInt(axisCount, axisSize)
	if err != nil || axesOffset+axesSize > len(b) {
		return nil, tableError(tag, "Axes", "axis records truncated", offset+uint32(axesOffset))
	}
	t.Axes = make([]VariationAxis, axisCount)
	for i := 0; i < axisCount; i++ {
		rec := b[axesOffset+i*axisSize:]
		t.Axes[i] = VariationAxis{
			Tag:     Tag(rec.U32(0)),
			Minimum: Fixed(rec.U32(4)),
			Default: Fixed(rec.U32(8)),
			Maximum: Fixed(rec.U32(12)),
			Flags:   rec.U16(16),
			NameID:  rec.U16(18),
		}
		ax := t.Axes[i]
		if !(ax.Minimum <= ax.Default && ax.Default <= ax.Maximum) {
			return nil, tableError(tag, "Axes",
				fmt.Sprintf("axis %s: min/default/max not ordered", ax.Tag), offset+uint32(axesOffset+i*axisSize))
		}
	}
	// instance records follow the axis records
	if instanceSize < 4+axisCount*4 {
		if instanceCount > 0 {
			return nil, tableError(tag, "Instances", fmt.Sprintf("instance record size %d too small", instanceSize), offset+14)
		}
		return t, nil
	}
	instOffset := axesOffset + axesSize
	instsSize, err := checkedMulInt(instanceCount, instanceSize)
	if err != nil || instOffset+instsSize > len(b) {
		return nil, tableError(tag, "Instances", "instance records truncated", offset+uint32(instOffset))
	}
	t.Instances = make([]VariationInstance, instanceCount)
	for i := 0; i < instanceCount; i++ {
		rec := b[instOffset+i*instanceSize:]
		inst := VariationInstance{
			SubfamilyNameID: rec.U16(0),
			Flags:           rec.U16(2),
			Coordinates:     make([]Fixed, axisCount),
		}
		for a := 0; a < axisCount; a++ {
			inst.Coordinates[a] = Fixed(rec.U32(4 + a*4))
		}
		t.Instances[i] = inst
	}
	return t, nil
}

func encodeFvar(table Table) ([]byte, error) {
	t := table.Self().AsFvar()
	if t == nil {
		return nil, errFontFormat("fvar: not an fvar table")
	}
	buf := newBuffer()
	buf.PutU16(1) // majorVersion
	buf.PutU16(0) // minorVersion
	buf.PutU16(16)
	buf.PutU16(2) // reserved, "set to 2"
	buf.PutU16(uint16(len(t.Axes)))
	buf.PutU16(fvarAxisSize)
	buf.PutU16(uint16(len(t.Instances)))
	buf.PutU16(uint16(4 + len(t.Axes)*4))
	for _, ax := range t.Axes {
		buf.PutTag(ax.Tag)
		buf.PutFixed(ax.Minimum)
		buf.PutFixed(ax.Default)
		buf.PutFixed(ax.Maximum)
		buf.PutU16(ax.Flags)
		buf.PutU16(ax.NameID)
	}
	for _, inst := range t.Instances {
		buf.PutU16(inst.SubfamilyNameID)
		buf.PutU16(inst.Flags)
		for a := 0; a < len(t.Axes); a++ {
			var c Fixed
			if a < len(inst.Coordinates) {
				c = inst.Coordinates[a]
			}
			buf.PutFixed(c)
		}
	}
	return buf.Bytes(), nil
}
