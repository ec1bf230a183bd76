package encoder

import (
	"bytes"
	"errors"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caskfs/cask/pkg/chk"
	"github.com/caskfs/cask/pkg/crypt"
	"github.com/caskfs/cask/pkg/locator"
)

type block struct {
	depth      int
	rec        chk.Record
	ciphertext []byte
}

// collector returns a sink that copies every emitted block.
func collector(blocks *[]block) BlockFunc {
	return func(depth int, rec chk.Record, ciphertext []byte) error {
		*blocks = append(*blocks, block{
			depth:      depth,
			rec:        rec,
			ciphertext: append([]byte(nil), ciphertext...),
		})
		return nil
	}
}

func testData(n int) []byte {
	rng := rand.New(rand.NewSource(42))
	data := make([]byte, n)
	rng.Read(data)
	return data
}

// expectedRecord encodes one payload the way the encoder must.
func expectedRecord(payload []byte) (chk.Record, []byte) {
	key := crypt.Hash(payload)
	ck, iv := crypt.DeriveBlockKey(key[:])
	ct := crypt.Encrypt(ck, iv, payload)
	return chk.Record{Key: key, Query: crypt.Hash(ct)}, ct
}

func TestEmptyInput(t *testing.T) {
	var blocks []block
	root, err := Encode(bytes.NewReader(nil), 0, collector(&blocks))
	require.NoError(t, err)

	assert.Equal(t, uint64(0), root.FileSize)
	require.Len(t, blocks, 1)
	assert.Equal(t, 0, blocks[0].depth)
	assert.Empty(t, blocks[0].ciphertext)
	assert.Equal(t, blocks[0].rec, root.Record)

	wantKey := crypt.Hash(nil)
	assert.Equal(t, wantKey[:], root.Key[:])
	assert.True(t, strings.HasSuffix(locator.Format(root), ".0"))
}

func TestSingleFullLeaf(t *testing.T) {
	data := testData(chk.LeafSize)
	var blocks []block
	root, err := Encode(bytes.NewReader(data), chk.LeafSize, collector(&blocks))
	require.NoError(t, err)

	require.Len(t, blocks, 1)
	wantRec, wantCT := expectedRecord(data)
	assert.Equal(t, wantRec, root.Record)
	assert.Equal(t, wantCT, blocks[0].ciphertext)
	assert.Equal(t, uint64(chk.LeafSize), root.FileSize)
}

func TestTwoLeavesAndIBlock(t *testing.T) {
	data := testData(chk.LeafSize + 1)
	var blocks []block
	root, err := Encode(bytes.NewReader(data), uint64(len(data)), collector(&blocks))
	require.NoError(t, err)

	require.Len(t, blocks, 3)
	assert.Equal(t, []int{0, 0, 1}, depths(blocks))

	leaf0, _ := expectedRecord(data[:chk.LeafSize])
	leaf1, _ := expectedRecord(data[chk.LeafSize:])
	payload := leaf1.AppendTo(leaf0.AppendTo(nil))

	wantRoot, _ := expectedRecord(payload)
	assert.Equal(t, wantRoot, root.Record)
}

func TestFullIBlock(t *testing.T) {
	data := testData(chk.LeafSize * chk.FanOut)
	var blocks []block
	root, err := Encode(bytes.NewReader(data), uint64(len(data)), collector(&blocks))
	require.NoError(t, err)

	require.Len(t, blocks, chk.FanOut+1)
	top := blocks[len(blocks)-1]
	assert.Equal(t, 1, top.depth)
	// a full internal block's payload is exactly one leaf payload
	assert.Len(t, top.ciphertext, chk.LeafSize)
	assert.Equal(t, top.rec, root.Record)
	for _, b := range blocks[:chk.FanOut] {
		assert.Equal(t, 0, b.depth)
	}
}

// One byte past a full internal block forces depth 3. The second-level
// block created at the promotion holds exactly one child so far; the
// final second-level block holds two.
func TestFullIBlockPlusOne(t *testing.T) {
	data := testData(chk.LeafSize*chk.FanOut + 1)
	var blocks []block
	root, err := Encode(bytes.NewReader(data), uint64(len(data)), collector(&blocks))
	require.NoError(t, err)

	require.Len(t, blocks, chk.FanOut+5)
	want := make([]int, 0, chk.FanOut+5)
	for i := 0; i < chk.FanOut; i++ {
		want = append(want, 0)
	}
	want = append(want, 1, 2, 0, 1, 2)
	assert.Equal(t, want, depths(blocks))

	firstDepth2 := blocks[chk.FanOut+1]
	assert.Len(t, firstDepth2.ciphertext, chk.RecordSize)
	lastDepth2 := blocks[len(blocks)-1]
	assert.Len(t, lastDepth2.ciphertext, 2*chk.RecordSize)
	assert.Equal(t, lastDepth2.rec, root.Record)
}

func TestDeterminism(t *testing.T) {
	data := testData(100000)
	a, err := Encode(bytes.NewReader(data), uint64(len(data)), nil)
	require.NoError(t, err)
	b, err := Encode(bytes.NewReader(data), uint64(len(data)), nil)
	require.NoError(t, err)
	assert.Equal(t, locator.Format(a), locator.Format(b))
}

// Two distinct files sharing an identical leaf converge on the
// identical record for that leaf.
func TestConvergence(t *testing.T) {
	shared := testData(chk.LeafSize)
	fileA := append(append([]byte(nil), shared...), []byte("tail a")...)
	fileB := append(append([]byte(nil), shared...), []byte("completely different tail")...)

	var blocksA, blocksB []block
	_, err := Encode(bytes.NewReader(fileA), uint64(len(fileA)), collector(&blocksA))
	require.NoError(t, err)
	_, err = Encode(bytes.NewReader(fileB), uint64(len(fileB)), collector(&blocksB))
	require.NoError(t, err)

	assert.Equal(t, blocksA[0].rec, blocksB[0].rec)
	assert.Equal(t, blocksA[0].ciphertext, blocksB[0].ciphertext)
}

// Decrypting the emitted leaf blocks with keys derived from their own
// content keys reassembles the input.
func TestLeafReassembly(t *testing.T) {
	data := testData(3*chk.LeafSize + 1234)
	var blocks []block
	_, err := Encode(bytes.NewReader(data), uint64(len(data)), collector(&blocks))
	require.NoError(t, err)

	var got []byte
	for _, b := range blocks {
		wantQuery := crypt.Hash(b.ciphertext)
		assert.Equal(t, wantQuery[:], b.rec.Query[:])
		if b.depth != 0 {
			continue
		}
		key, iv := crypt.DeriveBlockKey(b.rec.Key[:])
		got = append(got, crypt.Decrypt(key, iv, b.ciphertext)...)
	}
	assert.Equal(t, data, got)
}

type failingReader struct {
	data []byte
	err  error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func TestReadErrorAborts(t *testing.T) {
	r := &failingReader{data: testData(chk.LeafSize), err: errors.New("disk on fire")}
	root, err := Encode(r, 2*chk.LeafSize, nil)
	assert.Error(t, err)
	assert.Equal(t, chk.Root{}, root)
}

func TestShortInputAborts(t *testing.T) {
	data := testData(100)
	_, err := Encode(bytes.NewReader(data), 200, nil)
	assert.Error(t, err)
}

func TestOversizeInputRejected(t *testing.T) {
	// sizes past the int64 range cannot be streamed and must fail
	// loudly instead of reading nothing
	root, err := Encode(bytes.NewReader(nil), math.MaxUint64, nil)
	assert.Error(t, err)
	assert.Equal(t, chk.Root{}, root)

	root, err = Encode(bytes.NewReader(nil), uint64(math.MaxInt64)+1, nil)
	assert.Error(t, err)
	assert.Equal(t, chk.Root{}, root)
}

func TestSinkErrorAborts(t *testing.T) {
	sinkErr := errors.New("store full")
	_, err := Encode(bytes.NewReader(testData(10)), 10, func(int, chk.Record, []byte) error {
		return sinkErr
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, sinkErr)
}

func depths(blocks []block) []int {
	out := make([]int, len(blocks))
	for i, b := range blocks {
		out[i] = b.depth
	}
	return out
}
