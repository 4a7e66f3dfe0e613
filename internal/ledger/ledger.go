package ledger

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"chainsched/internal/model"
)

// DefaultBlockSize is the pending-transaction count that triggers mining.
const DefaultBlockSize = 5

// Ledger is an append-only, hash-chained block log of scheduling decisions.
// Committed blocks only grow and are never rewritten; pending transactions
// drain into a new block when the configured block size is reached.
//
// The mutex exists because the HTTP inspection surface reads the ledger
// concurrently with the scheduling path that appends to it.
type Ledger struct {
	mu        sync.Mutex
	blocks    []*Block
	pending   []*Transaction
	blockSize int
	txCounter int64

	now func() time.Time
}

// New creates a ledger containing only the genesis block.
func New(blockSize int) *Ledger {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	l := &Ledger{
		blockSize: blockSize,
		now:       time.Now,
	}
	genesis := &Block{
		ID:        0,
		Timestamp: l.now(),
		PrevHash:  GenesisPrevHash,
	}
	genesis.MerkleRoot = genesis.computeMerkleRoot()
	genesis.Hash = genesis.computeHash()
	l.blocks = append(l.blocks, genesis)
	return l
}

// Append records one scheduling outcome and returns its transaction id.
// Mining runs inline when the pending buffer reaches the block size.
func (l *Ledger) Append(vmID int, task *model.Task, before, after model.Resources, score float64, status Status) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.txCounter++
	tx := &Transaction{
		ID:           fmt.Sprintf("tx_%d_%d", l.txCounter, l.now().UnixMilli()),
		Timestamp:    l.now(),
		VMID:         vmID,
		TaskID:       task.ID,
		Requirements: task.Demand,
		StateBefore:  before,
		StateAfter:   after,
		Score:        score,
		Status:       status,
	}
	l.pending = append(l.pending, tx)

	if len(l.pending) >= l.blockSize {
		l.mineLocked()
	}
	return tx.ID
}

// Mine closes the pending buffer into a new block. No-op when nothing is
// pending.
func (l *Ledger) Mine() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mineLocked()
}

func (l *Ledger) mineLocked() {
	if len(l.pending) == 0 {
		return
	}

	block := &Block{
		ID:           len(l.blocks),
		Timestamp:    l.now(),
		Transactions: append([]*Transaction(nil), l.pending...),
		PrevHash:     l.blocks[len(l.blocks)-1].Hash,
	}
	block.MerkleRoot = block.computeMerkleRoot()
	block.Hash = block.computeHash()
	for _, tx := range block.Transactions {
		tx.BlockHash = block.Hash
	}

	l.blocks = append(l.blocks, block)
	l.pending = nil
}

// VerifyIntegrity re-derives every stored hash. A false result must be
// surfaced to the caller; the ledger never repairs itself.
func (l *Ledger) VerifyIntegrity() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.verifyLocked()
}

func (l *Ledger) verifyLocked() bool {
	if len(l.blocks) == 0 {
		return true
	}
	if l.blocks[0].PrevHash != GenesisPrevHash {
		return false
	}
	for i := 1; i < len(l.blocks); i++ {
		block := l.blocks[i]
		if block.PrevHash != l.blocks[i-1].Hash {
			return false
		}
		if block.Hash != block.computeHash() {
			return false
		}
		if block.MerkleRoot != block.computeMerkleRoot() {
			return false
		}
	}
	return true
}

// History returns committed and pending transactions in ascending timestamp
// order. vmID < 0 disables the VM filter; an empty taskID disables the task
// filter.
func (l *Ledger) History(vmID int, taskID string) []*Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []*Transaction
	for _, block := range l.blocks {
		out = append(out, block.Transactions...)
	}
	out = append(out, l.pending...)

	if vmID >= 0 || taskID != "" {
		filtered := out[:0:0]
		for _, tx := range out {
			if vmID >= 0 && tx.VMID != vmID {
				continue
			}
			if taskID != "" && tx.TaskID != taskID {
				continue
			}
			filtered = append(filtered, tx)
		}
		out = filtered
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// Recent returns up to limit transactions from the tail of the history.
func (l *Ledger) Recent(limit int) []*Transaction {
	all := l.History(-1, "")
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all
}

// VMStats aggregates assignment statistics for one VM.
type VMStats struct {
	VMID              int     `json:"vm_id"`
	TotalAssignments  int     `json:"total_assignments"`
	FailedAssignments int     `json:"failed_assignments"`
	SuccessRate       float64 `json:"success_rate"`
	AverageScore      float64 `json:"average_score"`
	TotalCPUAllocated float64 `json:"total_cpu_allocated"`
	TotalMemAllocated float64 `json:"total_mem_allocated"`
	TotalTransactions int     `json:"total_transactions"`
}

// VMStats reports per-VM assignment statistics across committed and pending
// transactions.
func (l *Ledger) VMStats(vmID int) VMStats {
	txs := l.History(vmID, "")

	stats := VMStats{VMID: vmID, TotalTransactions: len(txs)}
	var scoreSum float64
	for _, tx := range txs {
		switch tx.Status {
		case StatusAssigned:
			stats.TotalAssignments++
			scoreSum += tx.Score
			stats.TotalCPUAllocated += tx.Requirements.CPU
			stats.TotalMemAllocated += tx.Requirements.Mem
		case StatusFailed:
			stats.FailedAssignments++
		}
	}
	stats.SuccessRate = float64(stats.TotalAssignments) / float64(max(stats.TotalAssignments+stats.FailedAssignments, 1))
	stats.AverageScore = scoreSum / float64(max(stats.TotalAssignments, 1))
	return stats
}

// Summary is the ledger-wide statistics structure.
type Summary struct {
	TotalBlocks           int     `json:"total_blocks"`
	TotalTransactions     int     `json:"total_transactions"`
	PendingTransactions   int     `json:"pending_transactions"`
	SuccessfulAssignments int     `json:"successful_assignments"`
	FailedAssignments     int     `json:"failed_assignments"`
	SuccessRate           float64 `json:"success_rate"`
	ChainIntegrity        bool    `json:"chain_integrity"`
	LatestBlockHash       string  `json:"latest_block_hash"`
}

// Summary reports totals, the global success rate, and the integrity bit.
func (l *Ledger) Summary() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.summaryLocked()
}

func (l *Ledger) summaryLocked() Summary {
	s := Summary{
		TotalBlocks:         len(l.blocks),
		PendingTransactions: len(l.pending),
		ChainIntegrity:      l.verifyLocked(),
		LatestBlockHash:     l.blocks[len(l.blocks)-1].Hash,
	}

	count := func(txs []*Transaction) {
		for _, tx := range txs {
			s.TotalTransactions++
			switch tx.Status {
			case StatusAssigned:
				s.SuccessfulAssignments++
			case StatusFailed:
				s.FailedAssignments++
			}
		}
	}
	for _, block := range l.blocks {
		count(block.Transactions)
	}
	count(l.pending)

	s.SuccessRate = float64(s.SuccessfulAssignments) / float64(max(s.TotalTransactions, 1))
	return s
}

// Export is the full structural snapshot consumed by the inspection layer.
type Export struct {
	Blocks  []*Block       `json:"blocks"`
	Pending []*Transaction `json:"pending_transactions"`
	Summary Summary        `json:"summary"`
}

// Export snapshots the chain, the pending buffer and the summary.
func (l *Ledger) Export() Export {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Export{
		Blocks:  append([]*Block(nil), l.blocks...),
		Pending: append([]*Transaction(nil), l.pending...),
		Summary: l.summaryLocked(),
	}
}
