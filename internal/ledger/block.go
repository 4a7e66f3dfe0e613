package ledger

import (
	"encoding/json"
	"time"
)

// GenesisPrevHash is the previous-hash sentinel of the genesis block.
const GenesisPrevHash = "0000000000000000000000000000000000000000000000000000000000000000"

// Block is a mined segment of the chain. Immutable once mined.
type Block struct {
	ID           int            `json:"block_id"`
	Timestamp    time.Time      `json:"timestamp"`
	Transactions []*Transaction `json:"transactions"`
	PrevHash     string         `json:"previous_hash"`
	MerkleRoot   string         `json:"merkle_root"`
	Hash         string         `json:"block_hash"`
}

// computeMerkleRoot reduces the transaction digests pairwise until a single
// root remains, duplicating the last digest whenever a level is odd.
func (b *Block) computeMerkleRoot() string {
	if len(b.Transactions) == 0 {
		return hashHex([]byte("empty_block"))
	}

	hashes := make([]string, len(b.Transactions))
	for i, tx := range b.Transactions {
		hashes[i] = tx.digest()
	}

	for len(hashes) > 1 {
		if len(hashes)%2 == 1 {
			hashes = append(hashes, hashes[len(hashes)-1])
		}
		next := make([]string, 0, len(hashes)/2)
		for i := 0; i < len(hashes); i += 2 {
			next = append(next, hashHex([]byte(hashes[i]+hashes[i+1])))
		}
		hashes = next
	}
	return hashes[0]
}

// computeHash hashes the block header. Transactions enter only through the
// merkle root and the count.
func (b *Block) computeHash() string {
	header := struct {
		ID         int       `json:"block_id"`
		Timestamp  time.Time `json:"timestamp"`
		PrevHash   string    `json:"previous_hash"`
		MerkleRoot string    `json:"merkle_root"`
		TxCount    int       `json:"transaction_count"`
	}{b.ID, b.Timestamp, b.PrevHash, b.MerkleRoot, len(b.Transactions)}

	data, _ := json.Marshal(header)
	return hashHex(data)
}
