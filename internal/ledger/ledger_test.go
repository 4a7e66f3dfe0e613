package ledger

import (
	"fmt"
	"testing"
	"time"

	"chainsched/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClock advances one second per call so timestamps are deterministic and
// strictly ordered.
func testClock() func() time.Time {
	current := time.Unix(1700000000, 0)
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func newTestLedger(blockSize int) *Ledger {
	l := New(blockSize)
	l.now = testClock()
	return l
}

func appendN(l *Ledger, n int, status Status) []string {
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		task := &model.Task{
			ID:     fmt.Sprintf("task_%d", i),
			Demand: model.Resources{CPU: 1, Mem: 2, IO: 1, BW: 1},
		}
		before := model.Resources{CPU: float64(i)}
		after := before.Add(task.Demand)
		ids = append(ids, l.Append(i%2, task, before, after, float64(i), status))
	}
	return ids
}

func TestFreshLedgerHasValidGenesis(t *testing.T) {
	l := newTestLedger(5)

	require.Len(t, l.blocks, 1)
	genesis := l.blocks[0]
	assert.Equal(t, 0, genesis.ID)
	assert.Equal(t, GenesisPrevHash, genesis.PrevHash)
	assert.Empty(t, genesis.Transactions)
	assert.NotEmpty(t, genesis.Hash)
	assert.True(t, l.VerifyIntegrity())
}

func TestAppendAssignsUniqueMonotonicIDs(t *testing.T) {
	l := newTestLedger(100)
	ids := appendN(l, 10, StatusAssigned)

	seen := make(map[string]bool)
	for i, id := range ids {
		assert.False(t, seen[id], "duplicate transaction id %s", id)
		seen[id] = true
		assert.Contains(t, id, fmt.Sprintf("tx_%d_", i+1))
	}
}

func TestMiningTriggersExactlyAtBlockSize(t *testing.T) {
	l := newTestLedger(5)

	appendN(l, 4, StatusAssigned)
	assert.Len(t, l.blocks, 1)
	assert.Len(t, l.pending, 4)

	appendN(l, 1, StatusAssigned)
	require.Len(t, l.blocks, 2)
	assert.Empty(t, l.pending)
	assert.Len(t, l.blocks[1].Transactions, 5)
}

func TestMixedOutcomesAcrossAutoAndForcedMining(t *testing.T) {
	l := newTestLedger(5)

	// 8 appends: the 5th auto-mines, 3 remain pending.
	appendN(l, 5, StatusAssigned)
	appendN(l, 3, StatusFailed)
	require.Len(t, l.blocks, 2)
	require.Len(t, l.pending, 3)

	l.Mine()
	require.Len(t, l.blocks, 3)
	assert.Empty(t, l.pending)
	assert.Len(t, l.blocks[2].Transactions, 3)
	assert.True(t, l.VerifyIntegrity())

	summary := l.Summary()
	assert.Equal(t, 3, summary.TotalBlocks)
	assert.Equal(t, 8, summary.TotalTransactions)
	assert.Equal(t, 0, summary.PendingTransactions)
	assert.Equal(t, 5, summary.SuccessfulAssignments)
	assert.Equal(t, 3, summary.FailedAssignments)
	assert.InDelta(t, 5.0/8.0, summary.SuccessRate, 1e-9)
}

func TestMineIsNoOpWhenNothingPending(t *testing.T) {
	l := newTestLedger(5)
	l.Mine()
	assert.Len(t, l.blocks, 1)
}

func TestMinedTransactionsAreStampedWithBlockHash(t *testing.T) {
	l := newTestLedger(3)
	appendN(l, 3, StatusAssigned)

	require.Len(t, l.blocks, 2)
	block := l.blocks[1]
	for _, tx := range block.Transactions {
		assert.Equal(t, block.Hash, tx.BlockHash)
	}
}

func TestChainLinksEachBlockToItsPredecessor(t *testing.T) {
	l := newTestLedger(2)
	appendN(l, 6, StatusAssigned)

	require.Len(t, l.blocks, 4)
	for i := 1; i < len(l.blocks); i++ {
		assert.Equal(t, l.blocks[i-1].Hash, l.blocks[i].PrevHash)
	}
}

func TestMerkleRootRecomputesForUntamperedBlocks(t *testing.T) {
	l := newTestLedger(3)
	appendN(l, 7, StatusAssigned)
	l.Mine()

	for _, block := range l.blocks {
		assert.Equal(t, block.MerkleRoot, block.computeMerkleRoot(), "block %d", block.ID)
		assert.Equal(t, block.Hash, block.computeHash(), "block %d", block.ID)
	}
}

func TestTamperingWithTransactionBreaksIntegrity(t *testing.T) {
	l := newTestLedger(3)
	appendN(l, 3, StatusAssigned)
	require.True(t, l.VerifyIntegrity())

	l.blocks[1].Transactions[0].Score = 9999
	assert.False(t, l.VerifyIntegrity())
}

func TestTamperingWithBlockHashBreaksIntegrity(t *testing.T) {
	l := newTestLedger(3)
	appendN(l, 3, StatusAssigned)

	l.blocks[1].Hash = "deadbeef"
	assert.False(t, l.VerifyIntegrity())
}

func TestTamperingWithPrevHashBreaksIntegrity(t *testing.T) {
	l := newTestLedger(3)
	appendN(l, 3, StatusAssigned)

	l.blocks[1].PrevHash = GenesisPrevHash[:63] + "1"
	assert.False(t, l.VerifyIntegrity())
}

func TestTamperingWithGenesisSentinelBreaksIntegrity(t *testing.T) {
	l := newTestLedger(3)
	l.blocks[0].PrevHash = "not the sentinel"
	assert.False(t, l.VerifyIntegrity())
}

func TestHistoryReturnsAscendingTimestampsAcrossBlocksAndPending(t *testing.T) {
	l := newTestLedger(3)
	appendN(l, 8, StatusAssigned)

	txs := l.History(-1, "")
	require.Len(t, txs, 8)
	for i := 1; i < len(txs); i++ {
		assert.False(t, txs[i].Timestamp.Before(txs[i-1].Timestamp))
	}
}

func TestHistoryFiltersByVMAndTask(t *testing.T) {
	l := newTestLedger(100)
	appendN(l, 6, StatusAssigned) // vm ids alternate 0,1

	byVM := l.History(0, "")
	require.Len(t, byVM, 3)
	for _, tx := range byVM {
		assert.Equal(t, 0, tx.VMID)
	}

	byTask := l.History(-1, "task_2")
	require.Len(t, byTask, 1)
	assert.Equal(t, "task_2", byTask[0].TaskID)

	both := l.History(1, "task_3")
	require.Len(t, both, 1)
	assert.Equal(t, 1, both[0].VMID)

	assert.Empty(t, l.History(0, "task_3")) // task_3 ran on vm 1
}

func TestRecentReturnsTailOfHistory(t *testing.T) {
	l := newTestLedger(100)
	appendN(l, 6, StatusAssigned)

	recent := l.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "task_4", recent[0].TaskID)
	assert.Equal(t, "task_5", recent[1].TaskID)
}

func TestVMStatsAggregatesAssignmentsAndFailures(t *testing.T) {
	l := newTestLedger(100)
	task := &model.Task{ID: "t", Demand: model.Resources{CPU: 2, Mem: 4, IO: 1, BW: 2}}

	l.Append(0, task, model.Resources{}, task.Demand, 10, StatusAssigned)
	l.Append(0, task, task.Demand, task.Demand.Add(task.Demand), 20, StatusAssigned)
	l.Append(0, task, model.Resources{}, model.Resources{}, 0, StatusFailed)
	l.Append(1, task, model.Resources{}, task.Demand, 5, StatusAssigned)

	stats := l.VMStats(0)
	assert.Equal(t, 0, stats.VMID)
	assert.Equal(t, 2, stats.TotalAssignments)
	assert.Equal(t, 1, stats.FailedAssignments)
	assert.InDelta(t, 2.0/3.0, stats.SuccessRate, 1e-9)
	assert.InDelta(t, 15.0, stats.AverageScore, 1e-9)
	assert.InDelta(t, 4.0, stats.TotalCPUAllocated, 1e-9)
	assert.InDelta(t, 8.0, stats.TotalMemAllocated, 1e-9)
	assert.Equal(t, 3, stats.TotalTransactions)
}

func TestVMStatsForUnknownVMIsZeroWithFlooredRate(t *testing.T) {
	l := newTestLedger(100)
	stats := l.VMStats(42)
	assert.Equal(t, 0, stats.TotalTransactions)
	assert.Equal(t, 0.0, stats.SuccessRate)
	assert.Equal(t, 0.0, stats.AverageScore)
}

func TestSummaryOnFreshLedger(t *testing.T) {
	l := newTestLedger(5)
	summary := l.Summary()

	assert.Equal(t, 1, summary.TotalBlocks)
	assert.Equal(t, 0, summary.TotalTransactions)
	assert.Equal(t, 0.0, summary.SuccessRate)
	assert.True(t, summary.ChainIntegrity)
	assert.Equal(t, l.blocks[0].Hash, summary.LatestBlockHash)
}

func TestExportSnapshotsBlocksPendingAndSummary(t *testing.T) {
	l := newTestLedger(5)
	appendN(l, 7, StatusAssigned)

	export := l.Export()
	require.Len(t, export.Blocks, 2)
	require.Len(t, export.Pending, 2)
	assert.Equal(t, 7, export.Summary.TotalTransactions)
	assert.Equal(t, 2, export.Summary.PendingTransactions)
	assert.True(t, export.Summary.ChainIntegrity)
}
