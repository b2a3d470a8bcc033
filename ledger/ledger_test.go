package ledger

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendN(lc *Lockchain, n int) {
	for i := 0; i < n; i++ {
		lc.Append(NewReceipt("cnv@test", []byte("query"), []byte("result")))
	}
}

func TestAppendLinksEntries(t *testing.T) {
	lc := New(nil)

	r1 := NewReceipt("cnv@test", []byte("q1"), []byte("r1"))
	h1 := lc.Append(r1)
	r2 := NewReceipt("cnv@test", []byte("q2"), []byte("r2"))
	h2 := lc.Append(r2)

	entries := lc.EntriesSince(0)
	require.Len(t, entries, 2)

	assert.True(t, entries[0].PrevHash.IsZero(), "entry 0 must chain from the genesis sentinel")
	assert.Equal(t, h1, entries[0].ChainHash)
	assert.Equal(t, uint64(0), entries[0].Index)

	assert.Equal(t, h1, entries[1].PrevHash)
	assert.Equal(t, h2, entries[1].ChainHash)
	assert.Equal(t, uint64(1), entries[1].Index)

	assert.Equal(t, h2, lc.Head())
	assert.Equal(t, 2, lc.Len())
}

func TestEmptyChain(t *testing.T) {
	lc := New(nil)
	assert.True(t, lc.Head().IsZero())
	assert.Equal(t, 0, lc.Len())
	assert.True(t, lc.Verify(), "an empty chain verifies")
	assert.Empty(t, lc.EntriesSince(0))
}

func TestVerifyDetectsTamper(t *testing.T) {
	lc := New(nil)
	appendN(lc, 3)
	require.True(t, lc.Verify())

	// Mutate the middle entry's receipt after it was chained.
	lc.entries[1].Receipt.InvocationHash = HashBytes([]byte("forged"))

	assert.False(t, lc.Verify())
	index, ok := lc.FirstInvalid()
	assert.False(t, ok)
	assert.Equal(t, uint64(1), index)
}

// Tampering with one chain hash is localized: the corrupted entry fails,
// but each neighbour re-chained on its own (against the correct
// predecessor) still validates.
func TestTamperLocalization(t *testing.T) {
	lc := New(nil)
	appendN(lc, 4)

	entries := lc.EntriesSince(0)
	entries[2].ChainHash[0] ^= 0xff

	index, ok := VerifyEntries(entries)
	require.False(t, ok)
	assert.Equal(t, uint64(2), index)

	// Entries 0 and 1 are untouched and verify as a prefix.
	_, ok = VerifyEntries(entries[:2])
	assert.True(t, ok)

	// Entry 3's own link is still internally consistent: its chain hash
	// re-derives from its receipt and its recorded predecessor.
	e3 := entries[3]
	assert.Equal(t, e3.ChainHash, ChainHash(e3.Receipt, e3.PrevHash))

	// Entry 1's link likewise.
	e1 := entries[1]
	assert.Equal(t, e1.ChainHash, ChainHash(e1.Receipt, e1.PrevHash))
}

// Identical receipt sequences produce identical chains, regardless of when
// or where they are appended.
func TestChainDeterminism(t *testing.T) {
	receipts := []Receipt{
		NewReceipt("cnv@test", []byte("q1"), []byte("r1")),
		NewReceipt("cnv@test", []byte("q2"), []byte("r2")),
		NewReceipt("cnv@test", []byte("q3"), []byte("r3")),
	}

	a := New(nil)
	b := New(nil)
	for _, r := range receipts {
		a.Append(r)
	}
	for _, r := range receipts {
		b.Append(r)
	}

	assert.Equal(t, a.Head(), b.Head())
	ea, eb := a.EntriesSince(0), b.EntriesSince(0)
	require.Equal(t, len(ea), len(eb))
	for i := range ea {
		assert.Equal(t, ea[i].ChainHash, eb[i].ChainHash, "entry %d", i)
	}
}

func TestEntriesSinceSnapshot(t *testing.T) {
	lc := New(nil)
	appendN(lc, 5)

	tail := lc.EntriesSince(3)
	require.Len(t, tail, 2)
	assert.Equal(t, uint64(3), tail[0].Index)
	assert.Equal(t, uint64(4), tail[1].Index)

	assert.Empty(t, lc.EntriesSince(5))
	assert.Empty(t, lc.EntriesSince(100))

	// The snapshot is a copy: later appends do not grow it.
	appendN(lc, 1)
	assert.Len(t, tail, 2)
}

func TestRecent(t *testing.T) {
	lc := New(nil)
	appendN(lc, 5)

	recent := lc.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, uint64(3), recent[0].Index, "oldest first")
	assert.Equal(t, uint64(4), recent[1].Index)

	assert.Len(t, lc.Recent(100), 5)
}

func TestEntryByHash(t *testing.T) {
	lc := New(nil)
	r := NewReceipt("cnv@test", []byte("q"), []byte("r"))
	h := lc.Append(r)
	appendN(lc, 2)

	entry, ok := lc.EntryByHash(h)
	require.True(t, ok)
	assert.Equal(t, r.ID, entry.Receipt.ID)

	_, ok = lc.EntryByHash(HashBytes([]byte("nope")))
	assert.False(t, ok)
}

// Concurrent appends are strictly ordered: no gaps, no duplicate indices,
// and the finished chain verifies.
func TestConcurrentAppends(t *testing.T) {
	lc := New(nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			appendN(lc, 25)
		}()
	}
	wg.Wait()

	assert.Equal(t, 200, lc.Len())
	assert.True(t, lc.Verify())
	for i, e := range lc.EntriesSince(0) {
		assert.Equal(t, uint64(i), e.Index)
	}
}

func TestEntryJSONRoundTrip(t *testing.T) {
	lc := New(nil)
	appendN(lc, 2)
	entries := lc.EntriesSince(0)

	data, err := json.Marshal(entries)
	require.NoError(t, err)

	var decoded []Entry
	require.NoError(t, json.Unmarshal(data, &decoded))
	_, ok := VerifyEntries(decoded)
	assert.True(t, ok, "chain must survive a JSON export/import")
	assert.Equal(t, entries[1].ChainHash, decoded[1].ChainHash)
}

func TestParseHash(t *testing.T) {
	h := HashBytes([]byte("payload"))
	parsed, err := ParseHash(h.Hex())
	require.NoError(t, err)
	assert.Equal(t, h, parsed)

	_, err = ParseHash("zz")
	assert.Error(t, err)
	_, err = ParseHash("abcd")
	assert.Error(t, err, "too short")
}
