package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"chainsched/internal/model"
)

// Status is the recorded outcome of a scheduling decision.
type Status string

const (
	StatusAssigned Status = "assigned"
	StatusFailed   Status = "failed"
	StatusRejected Status = "rejected"
)

// Transaction is one scheduling outcome recorded in the ledger. It is
// immutable after creation except for the BlockHash stamp applied when its
// containing block is mined.
type Transaction struct {
	ID           string          `json:"transaction_id"`
	Timestamp    time.Time       `json:"timestamp"`
	VMID         int             `json:"vm_id"`
	TaskID       string          `json:"task_id"`
	Requirements model.Resources `json:"task_requirements"`
	StateBefore  model.Resources `json:"vm_state_before"`
	StateAfter   model.Resources `json:"vm_state_after"`
	Score        float64         `json:"score"`
	Status       Status          `json:"status"`
	BlockHash    string          `json:"block_hash"`
}

// digest hashes the transaction over a canonical serialization that excludes
// the block hash stamp, so stamping at mining time cannot invalidate the
// merkle root built from these digests.
func (t *Transaction) digest() string {
	shadow := struct {
		ID           string          `json:"transaction_id"`
		Timestamp    time.Time       `json:"timestamp"`
		VMID         int             `json:"vm_id"`
		TaskID       string          `json:"task_id"`
		Requirements model.Resources `json:"task_requirements"`
		StateBefore  model.Resources `json:"vm_state_before"`
		StateAfter   model.Resources `json:"vm_state_after"`
		Score        float64         `json:"score"`
		Status       Status          `json:"status"`
	}{t.ID, t.Timestamp, t.VMID, t.TaskID, t.Requirements, t.StateBefore, t.StateAfter, t.Score, t.Status}

	data, _ := json.Marshal(shadow)
	return hashHex(data)
}

func hashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
