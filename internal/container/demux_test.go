package container

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/jxlcore/jxl/internal/jxlerr"
)

func TestKind_Signatures(t *testing.T) {
	// spec.md §8 scenario 1.
	d := NewDemux()
	if err := d.FeedBytes([]byte{0xFF, 0x0A, 0x00}); err != nil {
		t.Fatal(err)
	}
	if d.Kind() != KindBareCodestream {
		t.Fatalf("Kind() = %v, want BareCodestream", d.Kind())
	}

	d = NewDemux()
	if err := d.FeedBytes([]byte{0, 0, 0, 0x0C, 'J', 'X', 'L', ' ', 0x0D, 0x0A, 0x87, 0x0A}); err != nil {
		t.Fatal(err)
	}
	if d.Kind() != KindContainer {
		t.Fatalf("Kind() = %v, want Container", d.Kind())
	}

	d = NewDemux()
	if err := d.FeedBytes([]byte{0xFF, 0x0B}); err != nil {
		t.Fatal(err)
	}
	if d.Kind() != KindInvalid {
		t.Fatalf("Kind() = %v, want Invalid", d.Kind())
	}
}

func TestKind_NeedMoreData(t *testing.T) {
	d := NewDemux()
	if err := d.FeedBytes([]byte{0xFF}); err != nil {
		t.Fatal(err)
	}
	if d.Kind() != KindUnknown {
		t.Fatalf("Kind() = %v, want Unknown (need more data)", d.Kind())
	}
}

func boxBytes(boxType string, payload []byte) []byte {
	var buf bytes.Buffer
	var sizeBuf [4]byte
	binary.BigEndian.PutUint32(sizeBuf[:], uint32(8+len(payload)))
	buf.Write(sizeBuf[:])
	buf.WriteString(boxType)
	buf.Write(payload)
	return buf.Bytes()
}

func jxlpPayload(index uint32, last bool, data []byte) []byte {
	idx := index
	if last {
		idx |= 0x80000000
	}
	var idxBuf [4]byte
	binary.BigEndian.PutUint32(idxBuf[:], idx)
	return append(idxBuf[:], data...)
}

func TestJxlpOrder(t *testing.T) {
	// spec.md §8 scenario 2.
	var buf bytes.Buffer
	buf.Write(containerSig[:])
	buf.Write(boxBytes("jxlp", jxlpPayload(0, false, []byte{'A'})))
	buf.Write(boxBytes("jxlp", jxlpPayload(1, true, []byte{'B'})))

	d := NewDemux()
	if err := d.FeedBytes(buf.Bytes()); err != nil {
		t.Fatal(err)
	}
	d.Finish()
	got := d.TakeBytes()
	if !bytes.Equal(got, []byte{'A', 'B'}) {
		t.Fatalf("codestream = %v, want AB", got)
	}
}

func TestJxlpOutOfOrder(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(containerSig[:])
	buf.Write(boxBytes("jxlp", jxlpPayload(1, false, []byte{'A'})))
	buf.Write(boxBytes("jxlp", jxlpPayload(0, true, []byte{'B'})))

	d := NewDemux()
	err := d.FeedBytes(buf.Bytes())
	if !errors.Is(err, jxlerr.ErrInvalidBox) {
		t.Fatalf("err = %v, want ErrInvalidBox", err)
	}
}

func TestDuplicateJxlc(t *testing.T) {
	// spec.md §8 scenario 3.
	var buf bytes.Buffer
	buf.Write(containerSig[:])
	buf.Write(boxBytes("jxlc", []byte{'A'}))
	buf.Write(boxBytes("jxlc", []byte{'B'}))

	d := NewDemux()
	err := d.FeedBytes(buf.Bytes())
	if !errors.Is(err, jxlerr.ErrInvalidBox) {
		t.Fatalf("err = %v, want ErrInvalidBox", err)
	}
}

func TestJxlcAfterJxlp(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(containerSig[:])
	buf.Write(boxBytes("jxlp", jxlpPayload(0, true, []byte{'A'})))
	buf.Write(boxBytes("jxlc", []byte{'B'}))

	d := NewDemux()
	err := d.FeedBytes(buf.Bytes())
	if !errors.Is(err, jxlerr.ErrInvalidBox) {
		t.Fatalf("err = %v, want ErrInvalidBox", err)
	}
}

func TestJxlpTooSmall(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(containerSig[:])
	buf.Write(boxBytes("jxlp", []byte{0, 0, 0})) // declared payload < 4 bytes

	d := NewDemux()
	err := d.FeedBytes(buf.Bytes())
	if !errors.Is(err, jxlerr.ErrInvalidBox) {
		t.Fatalf("err = %v, want ErrInvalidBox", err)
	}
}

func TestAuxBoxesAccumulated(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(containerSig[:])
	buf.Write(boxBytes("xml ", []byte("hello")))
	buf.Write(boxBytes("jxlc", []byte("codestream-bytes")))

	d := NewDemux()
	if err := d.FeedBytes(buf.Bytes()); err != nil {
		t.Fatal(err)
	}
	d.Finish()
	aux := d.AuxBoxes()
	if len(aux) != 1 || string(aux[0].Payload) != "hello" {
		t.Fatalf("aux boxes = %+v, want one box with payload 'hello'", aux)
	}
	if got := d.TakeBytes(); string(got) != "codestream-bytes" {
		t.Fatalf("codestream = %q", got)
	}
}

func TestMaxBoxPayload_RejectsOversizedBox(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(containerSig[:])
	buf.Write(boxBytes("xml ", []byte("hello world")))

	d := NewDemuxWithLimits(4)
	err := d.FeedBytes(buf.Bytes())
	if err == nil {
		t.Fatal("want error when a box payload exceeds MaxBoxPayload")
	}
	if !errors.Is(err, jxlerr.ErrInvalidBox) {
		t.Fatalf("err = %v, want ErrInvalidBox", err)
	}
}

func TestMaxBoxPayload_ZeroMeansUnbounded(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(containerSig[:])
	buf.Write(boxBytes("xml ", []byte("hello world")))
	buf.Write(boxBytes("jxlc", []byte("codestream-bytes")))

	d := NewDemuxWithLimits(0)
	if err := d.FeedBytes(buf.Bytes()); err != nil {
		t.Fatal(err)
	}
	d.Finish()
	if d.Kind() != KindContainer {
		t.Fatalf("Kind() = %v, want Container", d.Kind())
	}
}

// TestChunkedFeedEquivalence checks the universal property from spec.md §8:
// feeding the demux any byte partition of a valid input produces the same
// codestream as feeding it whole.
func TestChunkedFeedEquivalence(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(containerSig[:])
	buf.Write(boxBytes("jxlp", jxlpPayload(0, false, []byte("hello "))))
	buf.Write(boxBytes("Exif", []byte("meta")))
	buf.Write(boxBytes("jxlp", jxlpPayload(1, true, []byte("world"))))
	whole := buf.Bytes()

	dWhole := NewDemux()
	if err := dWhole.FeedBytes(whole); err != nil {
		t.Fatal(err)
	}
	dWhole.Finish()
	want := dWhole.TakeBytes()

	for chunkSize := 1; chunkSize <= len(whole); chunkSize++ {
		d := NewDemux()
		for i := 0; i < len(whole); i += chunkSize {
			end := i + chunkSize
			if end > len(whole) {
				end = len(whole)
			}
			if err := d.FeedBytes(whole[i:end]); err != nil {
				t.Fatalf("chunkSize=%d: %v", chunkSize, err)
			}
		}
		d.Finish()
		got := d.TakeBytes()
		if !bytes.Equal(got, want) {
			t.Fatalf("chunkSize=%d: codestream = %q, want %q", chunkSize, got, want)
		}
	}
}

func TestCollectCodestream(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(containerSig[:])
	buf.Write(boxBytes("jxlc", []byte("payload")))
	got, err := CollectCodestream(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "payload" {
		t.Fatalf("CollectCodestream = %q", got)
	}
}
