package services

import (
	"context"
	"math"
	"testing"
	"time"

	"paripool/domain/entities"
	"paripool/domain/events"
	"paripool/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// curatorID is one of the configured test curators
const curatorID = int64(999999)

// memoryWallets is an in-memory wallet and ledger store so settlement tests
// can assert conservation across every balance mutation.
type memoryWallets struct {
	wallets map[int64]*entities.Wallet
	entries []*entities.LedgerEntry
}

func newMemoryWallets() *memoryWallets {
	return &memoryWallets{wallets: make(map[int64]*entities.Wallet)}
}

func (m *memoryWallets) fund(userID, available, committed int64) {
	m.wallets[userID] = &entities.Wallet{UserID: userID, Available: available, Committed: committed}
}

func (m *memoryWallets) GetByUserID(ctx context.Context, userID int64) (*entities.Wallet, error) {
	w, ok := m.wallets[userID]
	if !ok {
		return nil, nil
	}
	copied := *w
	return &copied, nil
}

func (m *memoryWallets) GetByUserIDForUpdate(ctx context.Context, userID int64) (*entities.Wallet, error) {
	return m.GetByUserID(ctx, userID)
}

func (m *memoryWallets) Create(ctx context.Context, userID int64, available int64) (*entities.Wallet, error) {
	m.fund(userID, available, 0)
	return m.GetByUserID(ctx, userID)
}

func (m *memoryWallets) UpdateBalances(ctx context.Context, userID int64, available, committed int64) error {
	w := m.wallets[userID]
	w.Available = available
	w.Committed = committed
	return nil
}

func (m *memoryWallets) Record(ctx context.Context, entry *entities.LedgerEntry) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memoryWallets) GetByUser(ctx context.Context, userID int64, limit int) ([]*entities.LedgerEntry, error) {
	var out []*entities.LedgerEntry
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if m.entries[i].UserID == userID {
			out = append(out, m.entries[i])
		}
	}
	return out, nil
}

func (m *memoryWallets) totalValue() int64 {
	var total int64
	for _, w := range m.wallets {
		total += w.Available + w.Committed
	}
	return total
}

type settlementFixture struct {
	svc          *settlementService
	eventRepo    *testhelpers.MockEventRepository
	wagerRepo    *testhelpers.MockWagerRepository
	evidenceRepo *testhelpers.MockEvidenceRepository
	wallets      *memoryWallets
	publisher    *testhelpers.CapturingEventPublisher
}

func newSettlementFixture() *settlementFixture {
	f := &settlementFixture{
		eventRepo:    new(testhelpers.MockEventRepository),
		wagerRepo:    new(testhelpers.MockWagerRepository),
		evidenceRepo: new(testhelpers.MockEvidenceRepository),
		wallets:      newMemoryWallets(),
		publisher:    &testhelpers.CapturingEventPublisher{},
	}
	ledger := NewWalletLedger(f.wallets, f.wallets, f.publisher)
	f.svc = NewSettlementService(f.eventRepo, f.wagerRepo, f.evidenceRepo, ledger, f.publisher).(*settlementService)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func closedEvent(id int64) *entities.Event {
	return &entities.Event{
		ID:              id,
		CreatorID:       1,
		Title:           "Will it rain tomorrow",
		OutcomeOptions:  []string{"yes", "no"},
		Status:          entities.EventStatusClosed,
		StakeDeadline:   fixedNow.Add(-2 * time.Hour),
		ProofDeadline:   fixedNow.Add(22 * time.Hour),
		ResolutionDueBy: fixedNow.Add(46 * time.Hour),
	}
}

func TestSettleSoleWinnerTakesDistributionPool(t *testing.T) {
	ctx := context.Background()
	f := newSettlementFixture()

	// Two opposing stakes of 100 each; winner staked on yes. At 50 bps the
	// commission on the 200 pool is 1, leaving 199 for the sole winner.
	f.wallets.fund(101, 0, 100)
	f.wallets.fund(102, 0, 100)
	f.wallets.fund(curatorID, 0, 0)

	f.eventRepo.On("GetByID", ctx, int64(10)).Return(closedEvent(10), nil)
	f.eventRepo.On("Update", ctx, mock.Anything).Return(nil)
	f.wagerRepo.On("GetByEvent", ctx, int64(10)).Return([]*entities.Wager{
		{ID: 1, EventID: 10, UserID: 101, Option: "yes", Amount: 100, Odds: 2.0},
		{ID: 2, EventID: 10, UserID: 102, Option: "no", Amount: 100, Odds: 2.0},
	}, nil)
	f.wagerRepo.On("UpdateSettlement", ctx, mock.Anything).Return(nil)

	before := f.wallets.totalValue()

	summary, err := f.svc.Settle(ctx, 10, "yes", curatorID, nil, "saw it rain")
	require.NoError(t, err)

	assert.Equal(t, int64(200), summary.TotalPool)
	assert.Equal(t, int64(1), summary.Commission)
	assert.Equal(t, int64(199), summary.DistributionPool)
	assert.Equal(t, 1, summary.WinnersCount)
	assert.Equal(t, int64(199), summary.TotalPayout)

	winner, _ := f.wallets.GetByUserID(ctx, 101)
	loser, _ := f.wallets.GetByUserID(ctx, 102)
	curator, _ := f.wallets.GetByUserID(ctx, curatorID)

	assert.Equal(t, int64(199), winner.Available)
	assert.Equal(t, int64(0), winner.Committed)
	assert.Equal(t, int64(0), loser.Available)
	assert.Equal(t, int64(0), loser.Committed)
	assert.Equal(t, int64(1), curator.Available)

	// The pool is conserved exactly
	assert.Equal(t, before, f.wallets.totalValue())
}

func TestSettleFloorsPayoutsAndGivesResidualToCurator(t *testing.T) {
	ctx := context.Background()
	f := newSettlementFixture()

	// Pool 1000, commission 5, distribution 995 split across three equal
	// winning stakes of 100 in a 300 winners pool: each gets floor(100*995/300)
	// = 331, total 993, residual 2 goes to the curator on top of the 5.
	f.wallets.fund(101, 0, 100)
	f.wallets.fund(102, 0, 100)
	f.wallets.fund(103, 0, 100)
	f.wallets.fund(104, 0, 700)
	f.wallets.fund(curatorID, 0, 0)

	f.eventRepo.On("GetByID", ctx, int64(10)).Return(closedEvent(10), nil)
	f.eventRepo.On("Update", ctx, mock.Anything).Return(nil)
	f.wagerRepo.On("GetByEvent", ctx, int64(10)).Return([]*entities.Wager{
		{ID: 1, EventID: 10, UserID: 101, Option: "yes", Amount: 100},
		{ID: 2, EventID: 10, UserID: 102, Option: "yes", Amount: 100},
		{ID: 3, EventID: 10, UserID: 103, Option: "yes", Amount: 100},
		{ID: 4, EventID: 10, UserID: 104, Option: "no", Amount: 700},
	}, nil)
	f.wagerRepo.On("UpdateSettlement", ctx, mock.Anything).Return(nil)

	before := f.wallets.totalValue()

	summary, err := f.svc.Settle(ctx, 10, "yes", curatorID, nil, "")
	require.NoError(t, err)

	assert.Equal(t, int64(1000), summary.TotalPool)
	assert.Equal(t, int64(993), summary.TotalPayout)
	assert.Equal(t, int64(7), summary.Commission)

	curator, _ := f.wallets.GetByUserID(ctx, curatorID)
	assert.Equal(t, int64(7), curator.Available)

	for _, userID := range []int64{101, 102, 103} {
		w, _ := f.wallets.GetByUserID(ctx, userID)
		assert.Equal(t, int64(331), w.Available)
		assert.Equal(t, int64(0), w.Committed)
	}

	assert.Equal(t, before, f.wallets.totalValue())
}

func TestSettleNoWinnersRefundsEveryStake(t *testing.T) {
	ctx := context.Background()
	f := newSettlementFixture()

	f.wallets.fund(101, 0, 100)
	f.wallets.fund(102, 0, 300)
	f.wallets.fund(curatorID, 0, 0)

	f.eventRepo.On("GetByID", ctx, int64(10)).Return(closedEvent(10), nil)
	f.eventRepo.On("Update", ctx, mock.Anything).Return(nil)
	f.wagerRepo.On("GetByEvent", ctx, int64(10)).Return([]*entities.Wager{
		{ID: 1, EventID: 10, UserID: 101, Option: "no", Amount: 100},
		{ID: 2, EventID: 10, UserID: 102, Option: "no", Amount: 300},
	}, nil)
	f.wagerRepo.On("UpdateSettlement", ctx, mock.Anything).Return(nil)

	summary, err := f.svc.Settle(ctx, 10, "yes", curatorID, nil, "")
	require.NoError(t, err)

	assert.Equal(t, 0, summary.WinnersCount)
	assert.Equal(t, int64(0), summary.TotalPayout)
	// The curator still earns the commission on the voided pool
	assert.Equal(t, int64(2), summary.Commission)

	w1, _ := f.wallets.GetByUserID(ctx, 101)
	w2, _ := f.wallets.GetByUserID(ctx, 102)
	assert.Equal(t, int64(100), w1.Available)
	assert.Equal(t, int64(300), w2.Available)

	curator, _ := f.wallets.GetByUserID(ctx, curatorID)
	assert.Equal(t, int64(2), curator.Available)
}

func TestSettleZeroWagersResolvesWithEmptySummary(t *testing.T) {
	ctx := context.Background()
	f := newSettlementFixture()

	var updated *entities.Event
	f.eventRepo.On("GetByID", ctx, int64(10)).Return(closedEvent(10), nil)
	f.eventRepo.On("Update", ctx, mock.Anything).Run(func(args mock.Arguments) {
		updated = args.Get(1).(*entities.Event)
	}).Return(nil)
	f.wagerRepo.On("GetByEvent", ctx, int64(10)).Return([]*entities.Wager{}, nil)

	summary, err := f.svc.Settle(ctx, 10, "yes", curatorID, nil, "")
	require.NoError(t, err)

	assert.Equal(t, int64(0), summary.TotalPool)
	assert.Equal(t, int64(0), summary.Commission)
	require.NotNil(t, updated)
	assert.Equal(t, entities.EventStatusResolved, updated.Status)
	assert.Empty(t, f.wallets.entries)
}

func TestSettleRequiresCurator(t *testing.T) {
	f := newSettlementFixture()

	_, err := f.svc.Settle(context.Background(), 10, "yes", 12345, nil, "")
	assert.ErrorIs(t, err, entities.ErrNotAuthorized)
}

func TestSettleTerminalEvent(t *testing.T) {
	ctx := context.Background()
	f := newSettlementFixture()

	event := closedEvent(10)
	event.Status = entities.EventStatusResolved
	f.eventRepo.On("GetByID", ctx, int64(10)).Return(event, nil)

	_, err := f.svc.Settle(ctx, 10, "yes", curatorID, nil, "")
	assert.ErrorIs(t, err, entities.ErrAlreadyTerminal)
}

func TestSettleInvalidWinningOption(t *testing.T) {
	ctx := context.Background()
	f := newSettlementFixture()

	f.eventRepo.On("GetByID", ctx, int64(10)).Return(closedEvent(10), nil)

	_, err := f.svc.Settle(ctx, 10, "maybe", curatorID, nil, "")
	assert.ErrorIs(t, err, entities.ErrInvalidWinningOption)
}

func TestSettleRejectsForeignEvidence(t *testing.T) {
	ctx := context.Background()
	f := newSettlementFixture()

	f.eventRepo.On("GetByID", ctx, int64(10)).Return(closedEvent(10), nil)
	f.evidenceRepo.On("GetByID", ctx, int64(5)).Return(&entities.Evidence{
		ID:      5,
		EventID: 99,
	}, nil)

	_, err := f.svc.Settle(ctx, 10, "yes", curatorID, int64Ptr(5), "")
	assert.ErrorIs(t, err, entities.ErrEvidenceNotFound)
}

func TestSettleRecordsEvidenceReference(t *testing.T) {
	ctx := context.Background()
	f := newSettlementFixture()

	f.wallets.fund(101, 0, 100)
	f.wallets.fund(curatorID, 0, 0)

	f.eventRepo.On("GetByID", ctx, int64(10)).Return(closedEvent(10), nil)
	f.evidenceRepo.On("GetByID", ctx, int64(5)).Return(&entities.Evidence{
		ID:      5,
		EventID: 10,
	}, nil)

	var updated *entities.Event
	f.eventRepo.On("Update", ctx, mock.Anything).Run(func(args mock.Arguments) {
		updated = args.Get(1).(*entities.Event)
	}).Return(nil)
	f.wagerRepo.On("GetByEvent", ctx, int64(10)).Return([]*entities.Wager{
		{ID: 1, EventID: 10, UserID: 101, Option: "yes", Amount: 100},
	}, nil)
	f.wagerRepo.On("UpdateSettlement", ctx, mock.Anything).Return(nil)

	summary, err := f.svc.Settle(ctx, 10, "yes", curatorID, int64Ptr(5), "per submitted photo")
	require.NoError(t, err)

	// The evidence the decision was based on lands on the resolved event and
	// in the summary
	require.NotNil(t, updated)
	require.NotNil(t, updated.EvidenceID)
	assert.Equal(t, int64(5), *updated.EvidenceID)
	require.NotNil(t, summary.EvidenceID)
	assert.Equal(t, int64(5), *summary.EvidenceID)
}

func TestSettleOpenEventPublishesOpenTransition(t *testing.T) {
	ctx := context.Background()
	f := newSettlementFixture()

	f.wallets.fund(101, 0, 100)
	f.wallets.fund(curatorID, 0, 0)

	// A curator may settle an event that is still stored open; the published
	// transition must report the status it actually left.
	event := closedEvent(10)
	event.Status = entities.EventStatusOpen
	event.StakeDeadline = fixedNow.Add(2 * time.Hour)
	f.eventRepo.On("GetByID", ctx, int64(10)).Return(event, nil)
	f.eventRepo.On("Update", ctx, mock.Anything).Return(nil)
	f.wagerRepo.On("GetByEvent", ctx, int64(10)).Return([]*entities.Wager{
		{ID: 1, EventID: 10, UserID: 101, Option: "yes", Amount: 100},
	}, nil)
	f.wagerRepo.On("UpdateSettlement", ctx, mock.Anything).Return(nil)

	_, err := f.svc.Settle(ctx, 10, "yes", curatorID, nil, "")
	require.NoError(t, err)

	var change events.EventStateChangeEvent
	for _, e := range f.publisher.Events {
		if c, ok := e.(events.EventStateChangeEvent); ok {
			change = c
		}
	}
	assert.Equal(t, string(entities.EventStatusOpen), change.OldStatus)
	assert.Equal(t, string(entities.EventStatusResolved), change.NewStatus)
}

func TestSettleRejectsOversizedPool(t *testing.T) {
	ctx := context.Background()
	f := newSettlementFixture()

	huge := int64(math.MaxInt64 / 2)
	f.eventRepo.On("GetByID", ctx, int64(10)).Return(closedEvent(10), nil)
	f.wagerRepo.On("GetByEvent", ctx, int64(10)).Return([]*entities.Wager{
		{ID: 1, EventID: 10, UserID: 101, Option: "no", Amount: huge},
		{ID: 2, EventID: 10, UserID: 102, Option: "no", Amount: huge},
	}, nil)

	_, err := f.svc.Settle(ctx, 10, "yes", curatorID, nil, "")
	assert.ErrorIs(t, err, entities.ErrPoolTooLarge)
	// Settlement aborts before any balance moves
	assert.Empty(t, f.wallets.entries)
}

func TestSettlePublishesSettlementEvents(t *testing.T) {
	ctx := context.Background()
	f := newSettlementFixture()

	f.wallets.fund(101, 0, 100)
	f.wallets.fund(curatorID, 0, 0)

	f.eventRepo.On("GetByID", ctx, int64(10)).Return(closedEvent(10), nil)
	f.eventRepo.On("Update", ctx, mock.Anything).Return(nil)
	f.wagerRepo.On("GetByEvent", ctx, int64(10)).Return([]*entities.Wager{
		{ID: 1, EventID: 10, UserID: 101, Option: "yes", Amount: 100},
	}, nil)
	f.wagerRepo.On("UpdateSettlement", ctx, mock.Anything).Return(nil)

	_, err := f.svc.Settle(ctx, 10, "yes", curatorID, nil, "")
	require.NoError(t, err)

	var stateChange, settled bool
	for _, e := range f.publisher.Events {
		switch e.(type) {
		case events.EventStateChangeEvent:
			stateChange = true
		case events.EventSettledEvent:
			settled = true
		}
	}
	assert.True(t, stateChange)
	assert.True(t, settled)
}

func TestCancelRefundsUnsettledWagers(t *testing.T) {
	ctx := context.Background()
	f := newSettlementFixture()

	f.wallets.fund(101, 50, 100)
	f.wallets.fund(102, 0, 300)

	event := closedEvent(10)
	f.eventRepo.On("GetByID", ctx, int64(10)).Return(event, nil)
	f.eventRepo.On("Update", ctx, mock.Anything).Return(nil)
	f.wagerRepo.On("GetUnsettledByEvent", ctx, int64(10)).Return([]*entities.Wager{
		{ID: 1, EventID: 10, UserID: 101, Amount: 100},
		{ID: 2, EventID: 10, UserID: 102, Amount: 300},
	}, nil)
	f.wagerRepo.On("UpdateSettlement", ctx, mock.Anything).Return(nil)

	cancelled, err := f.svc.Cancel(ctx, 10, nil) // system actor
	require.NoError(t, err)
	assert.Equal(t, entities.EventStatusCancelled, cancelled.Status)

	w1, _ := f.wallets.GetByUserID(ctx, 101)
	w2, _ := f.wallets.GetByUserID(ctx, 102)
	assert.Equal(t, int64(150), w1.Available)
	assert.Equal(t, int64(0), w1.Committed)
	assert.Equal(t, int64(300), w2.Available)
}

func TestCancelByCreatorAllowed(t *testing.T) {
	ctx := context.Background()
	f := newSettlementFixture()

	event := closedEvent(10)
	f.eventRepo.On("GetByID", ctx, int64(10)).Return(event, nil)
	f.eventRepo.On("Update", ctx, mock.Anything).Return(nil)
	f.wagerRepo.On("GetUnsettledByEvent", ctx, int64(10)).Return([]*entities.Wager{}, nil)

	_, err := f.svc.Cancel(ctx, 10, int64Ptr(event.CreatorID))
	assert.NoError(t, err)
}

func TestCancelByStrangerRejected(t *testing.T) {
	ctx := context.Background()
	f := newSettlementFixture()

	f.eventRepo.On("GetByID", ctx, int64(10)).Return(closedEvent(10), nil)

	_, err := f.svc.Cancel(ctx, 10, int64Ptr(555))
	assert.ErrorIs(t, err, entities.ErrNotAuthorized)
}

func TestCancelTerminalEvent(t *testing.T) {
	ctx := context.Background()
	f := newSettlementFixture()

	event := closedEvent(10)
	event.Status = entities.EventStatusCancelled
	f.eventRepo.On("GetByID", ctx, int64(10)).Return(event, nil)

	_, err := f.svc.Cancel(ctx, 10, nil)
	assert.ErrorIs(t, err, entities.ErrAlreadyTerminal)
}

func TestIsCurator(t *testing.T) {
	f := newSettlementFixture()

	assert.True(t, f.svc.IsCurator(curatorID))
	assert.False(t, f.svc.IsCurator(42))
}
