package frame

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jxlcore/jxl/internal/bitio"
)

func TestGetSectionIdx_SingleTOCEntryShortCircuit(t *testing.T) {
	idx := GetSectionIdx(Section{Kind: SectionHfGroup, Group: 0, Pass: 0}, 1, 1, 1, 1)
	if idx != 0 {
		t.Fatalf("a single-entry TOC should collapse every section to index 0, got %d", idx)
	}
}

func TestGetSectionIdx_SingleGroupCountsButMultiEntryTOCDoesNotCollapse(t *testing.T) {
	// numGroups == numLFGroups == numPasses == 1, but the TOC still
	// declares its full 4-entry layout (2 + numLFGroups + numGroups*numPasses
	// = 4): the short-circuit must not trigger on the group/pass counts
	// alone.
	const numTOCEntries = 4
	lfGlobal := GetSectionIdx(Section{Kind: SectionLfGlobal}, numTOCEntries, 1, 1, 1)
	if lfGlobal != 0 {
		t.Fatalf("LfGlobal index = %d, want 0", lfGlobal)
	}
	lfGroup := GetSectionIdx(Section{Kind: SectionLfGroup, Group: 0}, numTOCEntries, 1, 1, 1)
	if lfGroup != 1 {
		t.Fatalf("LfGroup(0) index = %d, want 1", lfGroup)
	}
	hfGlobal := GetSectionIdx(Section{Kind: SectionHfGlobal}, numTOCEntries, 1, 1, 1)
	if hfGlobal != 2 {
		t.Fatalf("HfGlobal index = %d, want 2", hfGlobal)
	}
	hfGroup := GetSectionIdx(Section{Kind: SectionHfGroup, Group: 0, Pass: 0}, numTOCEntries, 1, 1, 1)
	if hfGroup != 3 {
		t.Fatalf("HfGroup(0,0) index = %d, want 3", hfGroup)
	}
}

func TestGetSectionIdx_CanonicalOrdering(t *testing.T) {
	numGroups, numLFGroups, numPasses := 3, 2, 2
	numTOCEntries := 2 + numLFGroups + numGroups*numPasses

	lfGlobal := GetSectionIdx(Section{Kind: SectionLfGlobal}, numTOCEntries, numGroups, numLFGroups, numPasses)
	if lfGlobal != 0 {
		t.Fatalf("LfGlobal index = %d, want 0", lfGlobal)
	}

	for g := 0; g < numLFGroups; g++ {
		got := GetSectionIdx(Section{Kind: SectionLfGroup, Group: g}, numTOCEntries, numGroups, numLFGroups, numPasses)
		if want := 1 + g; got != want {
			t.Fatalf("LfGroup(%d) index = %d, want %d", g, got, want)
		}
	}

	hfGlobal := GetSectionIdx(Section{Kind: SectionHfGlobal}, numTOCEntries, numGroups, numLFGroups, numPasses)
	if want := 1 + numLFGroups; hfGlobal != want {
		t.Fatalf("HfGlobal index = %d, want %d", hfGlobal, want)
	}

	seen := map[int]bool{lfGlobal: true, hfGlobal: true}
	for g := 0; g < numLFGroups; g++ {
		seen[1+g] = true
	}
	for p := 0; p < numPasses; p++ {
		for g := 0; g < numGroups; g++ {
			idx := GetSectionIdx(Section{Kind: SectionHfGroup, Group: g, Pass: p}, numTOCEntries, numGroups, numLFGroups, numPasses)
			want := 2 + numLFGroups + p*numGroups + g
			if idx != want {
				t.Fatalf("HfGroup(g=%d,p=%d) index = %d, want %d", g, p, idx, want)
			}
			if seen[idx] {
				t.Fatalf("section index %d collides with an earlier section", idx)
			}
			seen[idx] = true
		}
	}
}

func TestSections_SplitsAndUnpermutes(t *testing.T) {
	body := []byte{0xAA, 0xBB, 0xBB, 0xCC, 0xCC, 0xCC}
	toc := Toc{Entries: []uint32{1, 2, 3}}

	secs, err := Sections(body, toc)
	if err != nil {
		t.Fatal(err)
	}
	if len(secs) != 3 {
		t.Fatalf("got %d sections, want 3", len(secs))
	}
	if secs[0][0] != 0xAA || len(secs[1]) != 2 || len(secs[2]) != 3 {
		t.Fatalf("unexpected section split: %v", secs)
	}

	permToc := Toc{Entries: []uint32{1, 2, 3}, Permuted: true, Permutation: []uint32{2, 0, 1}}
	permSecs, err := Sections(body, permToc)
	if err != nil {
		t.Fatal(err)
	}
	// permSecs[0] should be the *stored* section at index 2 (length 3).
	if len(permSecs[0]) != 3 || len(permSecs[1]) != 1 || len(permSecs[2]) != 2 {
		t.Fatalf("unpermuted sections = %v, want lengths [3 1 2]", permSecs)
	}
}

func TestSections_RejectsOverrunningLengths(t *testing.T) {
	body := []byte{0x00, 0x01}
	toc := Toc{Entries: []uint32{10}}
	if _, err := Sections(body, toc); err == nil {
		t.Fatal("want error when a section's declared length exceeds the body")
	}
}

func TestReadUsedOrders_Presets(t *testing.T) {
	// sel=0 -> 0x5F, sel=1 -> 0x13, sel=2 -> 0x00.
	for sel, want := range map[uint8]uint32{0: 0x5F, 1: 0x13, 2: 0x00} {
		w := &bitWriterForFrame{}
		w.writeBits2(uint64(sel), 2)
		br := bitio.NewReader(w.bytes())
		got, err := readUsedOrders(br)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Fatalf("readUsedOrders(sel=%d) = %#x, want %#x", sel, got, want)
		}
	}
}

func TestReadUsedOrders_RawBits(t *testing.T) {
	w := &bitWriterForFrame{}
	w.writeBits2(3, 2)           // sel=3 -> raw bits follow
	w.writeBits2(0x1FFF, NumOrders) // all 13 bits set
	br := bitio.NewReader(w.bytes())
	got, err := readUsedOrders(br)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0x1FFF {
		t.Fatalf("readUsedOrders(raw) = %#x, want %#x", got, 0x1FFF)
	}
}

func TestTreeMaxSize_BoundedByCap(t *testing.T) {
	// A huge image should hit the 1<<22 cap, not the linear formula.
	got := TreeMaxSize(100000, 100000, 3, 3)
	if got != 1<<22 {
		t.Fatalf("TreeMaxSize = %d, want cap %d", got, 1<<22)
	}
	// A small image should use the linear formula.
	got = TreeMaxSize(16, 16, 3, 0)
	want := 1024 + 16*16*3/16
	if got != want {
		t.Fatalf("TreeMaxSize(small) = %d, want %d", got, want)
	}
}

func TestCeilLog2(t *testing.T) {
	cases := map[int]int{1: 0, 2: 1, 3: 2, 4: 2, 5: 3, 8: 3, 9: 4}
	for n, want := range cases {
		if got := ceilLog2(n); got != want {
			t.Fatalf("ceilLog2(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestHeaderRoundTrip_ReadsBackAllFields(t *testing.T) {
	w := &bitWriterForFrame{}
	w.writeBits2(0, 1)  // encoding: VarDCT
	w.writeBits2(64, 32) // width
	w.writeBits2(32, 32) // height
	w.writeBits2(0x3F, 8) // flags: patches|splines|noise|lfframe|islast|canberef, no savebeforect
	w.writeBits2(1, 2)    // save_as_reference
	w.writeBits2(0, 8)    // passes-1 -> 1 pass
	w.writeBits2(5, 32)   // num_toc_entries
	w.writeBits2(4, 32)   // num_groups
	w.writeBits2(1, 32)   // num_lf_groups
	br := bitio.NewReader(w.bytes())

	h, err := ReadHeader(br)
	if err != nil {
		t.Fatal(err)
	}

	want := Header{
		Width: 64, Height: 32,
		Encoding:        EncodingVarDCT,
		HasPatches:      true,
		HasSplines:      true,
		HasNoise:        true,
		HasLFFrame:      true,
		NumPasses:       1,
		NumTOCEntries:   5,
		NumGroups:       4,
		NumLFGroups:     1,
		IsLast:          true,
		CanBeReferenced: true,
		SaveAsReference: 1,
		SaveBeforeCT:    false,
	}
	if diff := cmp.Diff(want, h); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}
}

func TestDecoderState_FinalizeStoresReferenceAndSignalsLast(t *testing.T) {
	ds := &DecoderState{}
	f := &Frame{
		Header: Header{
			CanBeReferenced: true,
			SaveAsReference: 2,
			IsLast:          false,
		},
		decoderState: ds,
	}
	next, err := f.Finalize()
	if err != nil {
		t.Fatal(err)
	}
	if next != ds {
		t.Fatalf("Finalize should return the same DecoderState when not the last frame")
	}
	if ds.ReferenceFrames[2] == nil {
		t.Fatalf("Finalize should have stored a reference frame in slot 2")
	}

	f2 := &Frame{Header: Header{IsLast: true}, decoderState: ds}
	next2, err := f2.Finalize()
	if err != nil {
		t.Fatal(err)
	}
	if next2 != nil {
		t.Fatalf("Finalize should return nil once the last frame is reached")
	}
}

// bitWriterForFrame is a tiny MSB-irrelevant LSB-first bit packer
// matching bitio.Reader's convention, local to this package's tests
// (internal/entropy's test helper is unexported and package-private).
type bitWriterForFrame struct {
	bits []bool
}

func (w *bitWriterForFrame) writeBits2(v uint64, n int) {
	for i := 0; i < n; i++ {
		w.bits = append(w.bits, (v>>uint(i))&1 != 0)
	}
}

func (w *bitWriterForFrame) bytes() []byte {
	n := (len(w.bits) + 7) / 8
	out := make([]byte, n)
	for i, b := range w.bits {
		if b {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}
