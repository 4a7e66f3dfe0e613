package service

import (
	"errors"
	"fmt"

	"chainsched/internal/ledger"
	"chainsched/internal/scheduler"
)

var (
	// ErrNoLedger is returned for policies that do not maintain a ledger.
	ErrNoLedger = errors.New("policy does not maintain a transaction ledger")

	// ErrIntegrityViolation is returned when the chain fails verification.
	// It is surfaced, never repaired.
	ErrIntegrityViolation = errors.New("ledger chain integrity violated")
)

// LedgerOverview is the inspection payload for a policy's ledger, matching
// the shape the dashboard consumes.
type LedgerOverview struct {
	Summary            ledger.Summary         `json:"summary"`
	RecentTransactions []*ledger.Transaction  `json:"recent_transactions"`
	VMStats            map[int]ledger.VMStats `json:"vm_stats"`
	Export             ledger.Export          `json:"export_data"`
}

// LedgerService exposes ledger queries for ledger-backed policies.
type LedgerService struct {
	registry *scheduler.Registry
}

// NewLedgerService creates the ledger query service.
func NewLedgerService(registry *scheduler.Registry) *LedgerService {
	return &LedgerService{registry: registry}
}

func (s *LedgerService) ledgerFor(policyName string) (*ledger.Ledger, error) {
	policy, err := s.registry.Get(scheduler.PolicyName(policyName))
	if err != nil {
		return nil, err
	}
	bp, ok := policy.(*scheduler.BlockchainInspired)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoLedger, policyName)
	}
	return bp.Ledger(), nil
}

// Overview aggregates summary, recent transactions, per-VM stats and the
// full export. VM stats cover every VM seen in the recent window.
func (s *LedgerService) Overview(policyName string, recentLimit int) (*LedgerOverview, error) {
	l, err := s.ledgerFor(policyName)
	if err != nil {
		return nil, err
	}

	recent := l.Recent(recentLimit)
	stats := make(map[int]ledger.VMStats)
	for _, tx := range recent {
		if _, ok := stats[tx.VMID]; !ok {
			stats[tx.VMID] = l.VMStats(tx.VMID)
		}
	}

	return &LedgerOverview{
		Summary:            l.Summary(),
		RecentTransactions: recent,
		VMStats:            stats,
		Export:             l.Export(),
	}, nil
}

// Verify checks chain integrity, returning ErrIntegrityViolation on failure.
func (s *LedgerService) Verify(policyName string) error {
	l, err := s.ledgerFor(policyName)
	if err != nil {
		return err
	}
	if !l.VerifyIntegrity() {
		return ErrIntegrityViolation
	}
	return nil
}

// ForceMine closes the pending buffer into a block regardless of fill level.
func (s *LedgerService) ForceMine(policyName string) error {
	l, err := s.ledgerFor(policyName)
	if err != nil {
		return err
	}
	l.Mine()
	return nil
}

// History returns transactions filtered by VM and/or task id; vmID < 0 and
// an empty taskID disable the respective filter.
func (s *LedgerService) History(policyName string, vmID int, taskID string) ([]*ledger.Transaction, error) {
	l, err := s.ledgerFor(policyName)
	if err != nil {
		return nil, err
	}
	return l.History(vmID, taskID), nil
}

// VMStats returns the per-VM assignment statistics.
func (s *LedgerService) VMStats(policyName string, vmID int) (ledger.VMStats, error) {
	l, err := s.ledgerFor(policyName)
	if err != nil {
		return ledger.VMStats{}, err
	}
	return l.VMStats(vmID), nil
}
