// Package ledger implements the lockchain: an in-memory, append-only,
// hash-chained sequence of execution receipts. Each entry's chain hash
// incorporates the previous entry's chain hash, so any later mutation of a
// stored entry is detectable by re-verification.
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/seanchatmangpt/clap-noun-verb-sub004/errors"
)

// Hash is a SHA-256 digest. The zero value is the genesis sentinel used in
// place of a previous hash for the first entry.
type Hash [sha256.Size]byte

// Genesis is the sentinel standing in for the previous hash of entry zero.
var Genesis Hash

// Hex returns the lowercase hex encoding of the hash.
func (h Hash) Hex() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether the hash is the genesis sentinel.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// MarshalJSON encodes the hash as a hex string.
func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.Hex())
}

// UnmarshalJSON decodes a hex string hash.
func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseHash(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseHash decodes a 64-character hex string into a Hash.
func ParseHash(s string) (Hash, error) {
	var h Hash
	raw, err := hex.DecodeString(s)
	if err != nil {
		return h, errors.Wrapf(err, "invalid hash %q", s)
	}
	if len(raw) != sha256.Size {
		return h, errors.Newf("invalid hash length %d, want %d", len(raw), sha256.Size)
	}
	copy(h[:], raw)
	return h, nil
}

// HashBytes digests an arbitrary payload.
func HashBytes(data []byte) Hash {
	return sha256.Sum256(data)
}

// Receipt records one accepted invocation: what was asked, what was
// answered, and who asked. Immutable once created.
type Receipt struct {
	ID             string    `json:"id"`
	InvocationHash Hash      `json:"invocation_hash"`
	ResultHash     Hash      `json:"result_hash"`
	AgentID        string    `json:"agent_id"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewReceipt builds a receipt from raw invocation and result payloads,
// hashing both and stamping the current time.
func NewReceipt(agentID string, invocation, result []byte) Receipt {
	return Receipt{
		ID:             "RC-" + uuid.NewString(),
		InvocationHash: HashBytes(invocation),
		ResultHash:     HashBytes(result),
		AgentID:        agentID,
		Timestamp:      time.Now().UTC(),
	}
}

// Entry is one link of the lockchain.
type Entry struct {
	Receipt   Receipt   `json:"receipt"`
	PrevHash  Hash      `json:"prev_hash"`
	ChainHash Hash      `json:"chain_hash"`
	Index     uint64    `json:"index"`
	Timestamp time.Time `json:"timestamp"`
}

// ChainHash computes the hash linking a receipt to its predecessor:
// SHA-256(invocation_hash || result_hash || prev_hash). Exported so external
// verifiers can re-derive a chain independently.
func ChainHash(r Receipt, prev Hash) Hash {
	h := sha256.New()
	h.Write(r.InvocationHash[:])
	h.Write(r.ResultHash[:])
	h.Write(prev[:])
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}
