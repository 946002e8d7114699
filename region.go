package vexfat

import (
	"fmt"
	"sort"

	"github.com/aligator/vexfat/checkpoint"
)

// Region binds a synthesizer to the blocks [Start, Start+Length).
type Region struct {
	Start  uint32
	Length uint32
	Synth  Synthesizer
	Name   string
}

// End is the first block after the region.
func (r Region) End() uint64 {
	return uint64(r.Start) + uint64(r.Length)
}

func (r Region) String() string {
	return fmt.Sprintf("%s [%d, %d)", r.Name, r.Start, r.End())
}

// regionTable is a sorted list of regions covering a whole volume.
type regionTable []Region

// newRegionTable sorts regions and checks that they cover [0, blocks) with no
// gap and no overlap. Empty regions are dropped.
func newRegionTable(regions []Region, blocks uint32) (regionTable, error) {
	table := make(regionTable, 0, len(regions))
	for _, r := range regions {
		if r.Length == 0 {
			continue
		}
		if r.Synth == nil {
			return nil, checkpoint.Wrap(fmt.Errorf("%v has no synthesizer", r), ErrRegionTiling)
		}
		table = append(table, r)
	}
	sort.Slice(table, func(i, j int) bool {
		return table[i].Start < table[j].Start
	})

	next := uint64(0)
	for _, r := range table {
		switch {
		case uint64(r.Start) > next:
			return nil, checkpoint.Wrap(fmt.Errorf("gap [%d, %d) before %v", next, r.Start, r), ErrRegionTiling)
		case uint64(r.Start) < next:
			return nil, checkpoint.Wrap(fmt.Errorf("%v overlaps the previous region", r), ErrRegionTiling)
		}
		next = r.End()
	}
	if next != uint64(blocks) {
		return nil, checkpoint.Wrap(fmt.Errorf("regions end at %d, volume has %d blocks", next, blocks), ErrRegionTiling)
	}
	return table, nil
}

// find returns the region containing block. block must be inside the volume.
func (t regionTable) find(block uint32) *Region {
	lo, hi := 0, len(t)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if t[mid].End() <= uint64(block) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return &t[lo]
}
