package frame

import (
	"github.com/jxlcore/jxl/internal/jxlerr"
)

// Section identifies one entry of a frame's table of contents, per
// spec.md §3/§4.2's canonical section enumeration. Grounded on
// original_source/jxl/src/frame.rs's Section enum (LfGlobal, Lf{group},
// HfGlobal, Hf{group,pass}) and its get_section_idx method.
type Section struct {
	Kind  SectionKind
	Group int // group index; unused for LfGlobal/HfGlobal
	Pass  int // pass index; only used for Hf
}

type SectionKind int

const (
	SectionLfGlobal SectionKind = iota
	SectionLfGroup
	SectionHfGlobal
	SectionHfGroup
)

// GetSectionIdx computes the canonical TOC index for a section, given
// the frame's declared TOC entry count and group counts. Per spec.md §3
// ("Section enumeration"), the short-circuit that collapses every
// section to index 0 is keyed on the TOC itself carrying a single
// entry (numTOCEntries == 1), not on the group/pass counts being 1: a
// frame with one group, one LF group and one pass still has a 4-entry
// TOC (2 + numLFGroups + numGroups*numPasses) unless the bitstream
// actually declared num_toc_entries == 1.
func GetSectionIdx(s Section, numTOCEntries, numGroups, numLFGroups, numPasses int) int {
	if numTOCEntries == 1 {
		return 0
	}
	switch s.Kind {
	case SectionLfGlobal:
		return 0
	case SectionLfGroup:
		return 1 + s.Group
	case SectionHfGlobal:
		return 1 + numLFGroups
	case SectionHfGroup:
		return 2 + numLFGroups + s.Pass*groupsPerPass(numGroups) + s.Group
	default:
		return -1
	}
}

// groupsPerPass is split out only so the HfGroup index formula reads the
// same shape as frame.rs's 2 + num_lf_groups + pass*num_groups + group.
func groupsPerPass(numGroups int) int {
	return numGroups
}

// Sections splits a byte-aligned frame body into one byte slice per
// TOC entry, cut in stored TOC order and then reordered through the
// TOC's optional permutation (entry k of the result is stored section
// Permutation[k]) so the returned slice is indexed by the logical
// section order GetSectionIdx computes. Grounded on
// frame.rs's sections() (br.split_at per entry, then permutation
// applied via inverse-permute).
func Sections(body []byte, toc Toc) ([][]byte, error) {
	if len(toc.Entries) == 0 {
		return nil, jxlerr.Wrap(jxlerr.ErrOutOfBounds, "frame: empty TOC")
	}
	raw := make([][]byte, len(toc.Entries))
	offset := 0
	for i, length := range toc.Entries {
		end := offset + int(length)
		if end > len(body) {
			return nil, jxlerr.Wrapf(jxlerr.ErrOutOfBounds, "frame: section %d (len %d) exceeds remaining body %d", i, length, len(body)-offset)
		}
		raw[i] = body[offset:end]
		offset = end
	}
	if !toc.Permuted {
		return raw, nil
	}
	if len(toc.Permutation) != len(raw) {
		return nil, jxlerr.Wrapf(jxlerr.ErrOutOfBounds, "frame: permutation length %d != TOC length %d", len(toc.Permutation), len(raw))
	}
	out := make([][]byte, len(raw))
	for logical, stored := range toc.Permutation {
		if int(stored) < 0 || int(stored) >= len(raw) {
			return nil, jxlerr.Wrapf(jxlerr.ErrOutOfBounds, "frame: permutation entry %d out of range", stored)
		}
		out[logical] = raw[stored]
	}
	return out, nil
}
