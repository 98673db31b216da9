package repository

import (
	"context"
	"testing"
	"time"

	"paripool/domain/entities"
	"paripool/domain/events"
	"paripool/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepos(t *testing.T) (*testutil.TestDatabase, *UserRepository, *WalletRepository, *LedgerEntryRepository, *EventRepository, *WagerRepository, *EvidenceRepository) {
	testDB := testutil.SetupTestDatabase(t)
	return testDB,
		NewUserRepository(testDB.DB),
		NewWalletRepository(testDB.DB),
		NewLedgerEntryRepository(testDB.DB),
		NewEventRepository(testDB.DB),
		NewWagerRepository(testDB.DB),
		NewEvidenceRepository(testDB.DB)
}

func TestUserAndWalletLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	_, userRepo, walletRepo, _, _, _, _ := setupRepos(t)

	user, err := userRepo.Create(ctx, "alice")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)

	fetched, err := userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, "alice", fetched.Username)

	missing, err := userRepo.GetByID(ctx, 999999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	wallet, err := walletRepo.Create(ctx, user.ID, 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), wallet.Available)
	assert.Equal(t, int64(0), wallet.Committed)

	require.NoError(t, walletRepo.UpdateBalances(ctx, user.ID, 700, 300))

	wallet, err = walletRepo.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(700), wallet.Available)
	assert.Equal(t, int64(300), wallet.Committed)
	assert.Equal(t, int64(1000), wallet.Total())
}

func TestLedgerEntryRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	_, userRepo, walletRepo, ledgerRepo, _, _, _ := setupRepos(t)

	user, err := userRepo.Create(ctx, "bob")
	require.NoError(t, err)
	_, err = walletRepo.Create(ctx, user.ID, 1000)
	require.NoError(t, err)

	entry := testutil.CreateTestLedgerEntry(user.ID, 100)
	require.NoError(t, ledgerRepo.Record(ctx, entry))
	assert.NotZero(t, entry.ID)

	entries, err := ledgerRepo.GetByUser(ctx, user.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.Equal(t, int64(-100), got.AvailableDelta)
	assert.Equal(t, entities.TransactionTypeStakeCommit, got.TransactionType)
	// JSONB metadata survives the round trip
	assert.Equal(t, true, got.TransactionMetadata["test"])
}

func TestEventRepositoryLifecycleQueries(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	_, userRepo, _, _, eventRepo, _, _ := setupRepos(t)

	user, err := userRepo.Create(ctx, "carol")
	require.NoError(t, err)

	// An event whose stake deadline has already passed, still stored open
	expired := testutil.CreateTestEvent(user.ID, "expired market")
	expired.StakeDeadline = time.Now().Add(-time.Hour)
	expired.ProofDeadline = time.Now().Add(23 * time.Hour)
	expired.ResolutionDueBy = time.Now().Add(47 * time.Hour)
	require.NoError(t, eventRepo.Create(ctx, expired))

	fresh := testutil.CreateTestEvent(user.ID, "fresh market")
	require.NoError(t, eventRepo.Create(ctx, fresh))

	fetched, err := eventRepo.GetByID(ctx, expired.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, []string{"yes", "no"}, fetched.OutcomeOptions)
	assert.Equal(t, entities.EventStatusOpen, fetched.Status)

	expiredOpen, err := eventRepo.GetExpiredOpen(ctx)
	require.NoError(t, err)
	require.Len(t, expiredOpen, 1)
	assert.Equal(t, expired.ID, expiredOpen[0].ID)

	// Awaiting resolution covers both stored-closed and expired-open events
	awaiting, err := eventRepo.GetAwaitingResolution(ctx)
	require.NoError(t, err)
	require.Len(t, awaiting, 1)

	fetched.Close()
	require.NoError(t, eventRepo.Update(ctx, fetched))

	awaiting, err = eventRepo.GetAwaitingResolution(ctx)
	require.NoError(t, err)
	require.Len(t, awaiting, 1)
	assert.Equal(t, entities.EventStatusClosed, awaiting[0].Status)

	winning := "yes"
	fetched.Resolve(user.ID, winning, nil, nil, time.Now())
	fetched.CuratorCommission = 5
	require.NoError(t, eventRepo.Update(ctx, fetched))

	resolved, err := eventRepo.GetByID(ctx, fetched.ID)
	require.NoError(t, err)
	require.NotNil(t, resolved.WinningOption)
	assert.Equal(t, winning, *resolved.WinningOption)
	assert.Equal(t, int64(5), resolved.CuratorCommission)

	awaiting, err = eventRepo.GetAwaitingResolution(ctx)
	require.NoError(t, err)
	assert.Empty(t, awaiting)
}

func TestEventUpdateRefusesTerminalRows(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	_, userRepo, _, _, eventRepo, _, evidenceRepo := setupRepos(t)

	user, err := userRepo.Create(ctx, "grace")
	require.NoError(t, err)

	event := testutil.CreateTestEvent(user.ID, "guarded market")
	event.StakeDeadline = time.Now().Add(-time.Hour)
	event.ProofDeadline = time.Now().Add(23 * time.Hour)
	event.ResolutionDueBy = time.Now().Add(47 * time.Hour)
	require.NoError(t, eventRepo.Create(ctx, event))

	evidence := testutil.CreateTestEvidence(event.ID, user.ID, "yes")
	require.NoError(t, evidenceRepo.Create(ctx, evidence))

	// The conditional close flips the open row exactly once
	closed, err := eventRepo.CloseExpired(ctx, event.ID, entities.EvidencePhaseCreator)
	require.NoError(t, err)
	assert.True(t, closed)
	closed, err = eventRepo.CloseExpired(ctx, event.ID, entities.EvidencePhaseCreator)
	require.NoError(t, err)
	assert.False(t, closed)

	fetched, err := eventRepo.GetByID(ctx, event.ID)
	require.NoError(t, err)
	require.Equal(t, entities.EventStatusClosed, fetched.Status)

	fetched.Resolve(user.ID, "yes", nil, &evidence.ID, time.Now())
	fetched.CuratorCommission = 3
	require.NoError(t, eventRepo.Update(ctx, fetched))

	resolved, err := eventRepo.GetByID(ctx, event.ID)
	require.NoError(t, err)
	require.NotNil(t, resolved.EvidenceID)
	assert.Equal(t, evidence.ID, *resolved.EvidenceID)

	// A stale snapshot that still believes the event is closed cannot write
	// over the resolution
	stale := *fetched
	stale.Status = entities.EventStatusClosed
	stale.WinningOption = nil
	stale.EvidenceID = nil
	stale.CuratorCommission = 0
	assert.Error(t, eventRepo.Update(ctx, &stale))

	closed, err = eventRepo.CloseExpired(ctx, event.ID, entities.EvidencePhaseCreator)
	require.NoError(t, err)
	assert.False(t, closed)

	intact, err := eventRepo.GetByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.EventStatusResolved, intact.Status)
	require.NotNil(t, intact.WinningOption)
	assert.Equal(t, "yes", *intact.WinningOption)
	assert.Equal(t, int64(3), intact.CuratorCommission)
}

func TestWagerPoolTotalsAndSettlement(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	_, userRepo, _, _, eventRepo, wagerRepo, _ := setupRepos(t)

	creator, err := userRepo.Create(ctx, "dave")
	require.NoError(t, err)
	bettor, err := userRepo.Create(ctx, "erin")
	require.NoError(t, err)

	event := testutil.CreateTestEvent(creator.ID, "pool market")
	require.NoError(t, eventRepo.Create(ctx, event))

	w1 := testutil.CreateTestWager(event.ID, creator.ID, "yes", 100)
	w2 := testutil.CreateTestWager(event.ID, bettor.ID, "no", 300)
	w3 := testutil.CreateTestWager(event.ID, bettor.ID, "yes", 50)
	for _, w := range []*entities.Wager{w1, w2, w3} {
		require.NoError(t, wagerRepo.Create(ctx, w))
	}

	totals, err := wagerRepo.GetPoolTotals(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, totals.TotalWagers)
	assert.Equal(t, int64(450), totals.TotalAmount)
	assert.Equal(t, int64(150), totals.OptionAmount("yes"))
	assert.Equal(t, int64(300), totals.OptionAmount("no"))

	now := time.Now()
	w1.MarkSettled(true, 200, now)
	w2.MarkSettled(false, 0, now)
	w3.MarkSettled(true, 100, now)
	require.NoError(t, wagerRepo.UpdateSettlement(ctx, []*entities.Wager{w1, w2, w3}))

	unsettled, err := wagerRepo.GetUnsettledByEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Empty(t, unsettled)

	all, err := wagerRepo.GetByEvent(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, w := range all {
		assert.True(t, w.Settled)
		require.NotNil(t, w.Won)
	}

	// Settling twice must fail, settlement is once only
	err = wagerRepo.UpdateSettlement(ctx, []*entities.Wager{w1})
	assert.Error(t, err)
}

func TestEvidenceEndorsements(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	_, userRepo, _, _, eventRepo, _, evidenceRepo := setupRepos(t)

	user, err := userRepo.Create(ctx, "frank")
	require.NoError(t, err)
	event := testutil.CreateTestEvent(user.ID, "evidence market")
	require.NoError(t, eventRepo.Create(ctx, event))

	evidence := testutil.CreateTestEvidence(event.ID, user.ID, "yes")
	require.NoError(t, evidenceRepo.Create(ctx, evidence))

	count, err := evidenceRepo.IncrementEndorsements(ctx, evidence.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	count, err = evidenceRepo.IncrementEndorsements(ctx, evidence.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = evidenceRepo.IncrementEndorsements(ctx, 999999)
	assert.ErrorIs(t, err, entities.ErrEvidenceNotFound)

	records, err := evidenceRepo.GetByEvent(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2, records[0].Endorsements)
}

func TestUnitOfWorkCommitAndRollback(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	testDB := testutil.SetupTestDatabase(t)

	publisher := &capturingPublisher{}
	factory := NewUnitOfWorkFactory(testDB.DB, publisher)

	// Rolled-back work leaves no rows and no published events
	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))
	_, err := uow.UserRepository().Create(ctx, "ghost")
	require.NoError(t, err)
	require.NoError(t, uow.EventPublisher().Publish(events.UserCreatedEvent{Username: "ghost"}))
	require.NoError(t, uow.Rollback())

	userRepo := NewUserRepository(testDB.DB)
	users, err := userRepo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, users)
	assert.Empty(t, publisher.published)

	// Committed work persists and flushes buffered events
	uow = factory.Create()
	require.NoError(t, uow.Begin(ctx))
	user, err := uow.UserRepository().Create(ctx, "alice")
	require.NoError(t, err)
	_, err = uow.WalletRepository().Create(ctx, user.ID, 500)
	require.NoError(t, err)
	require.NoError(t, uow.EventPublisher().Publish(events.UserCreatedEvent{UserID: user.ID, Username: "alice"}))
	require.NoError(t, uow.Commit())

	persisted, err := userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, persisted)
	require.Len(t, publisher.published, 1)
}

type capturingPublisher struct {
	published []events.Event
}

func (p *capturingPublisher) Publish(event events.Event) error {
	p.published = append(p.published, event)
	return nil
}
