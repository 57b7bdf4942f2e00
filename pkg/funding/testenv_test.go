package funding_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hive.go/core/kvstore"
	"github.com/iotaledger/hive.go/core/kvstore/mapdb"

	"github.com/distributeproject/distribute-go/pkg/funding"
)

const (
	testBasePrice         = 100
	testRegistrationGrant = 10000
)

var testMetadataHash = bytes.Repeat([]byte{0xaa}, funding.MetadataHashLength)

// fundingTestEnv wires a Manager on an in-memory store with a movable clock.
type fundingTestEnv struct {
	t       *testing.T
	store   kvstore.KVStore
	now     time.Time
	manager *funding.Manager
}

func newFundingTestEnv(t *testing.T, opts ...funding.Option) *fundingTestEnv {
	env := &fundingTestEnv{
		t:     t,
		store: mapdb.NewMapDB(),
		now:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	options := append([]funding.Option{funding.WithBondingCurve(testBasePrice, 0)}, opts...)

	manager, err := funding.NewManager(
		env.store,
		func() time.Time { return env.now },
		funding.NewReputationRegistry(env.store, testRegistrationGrant),
		options...,
	)
	require.NoError(t, err)
	env.manager = manager

	return env
}

// reopen creates a fresh Manager on the same store, as after a restart.
func (env *fundingTestEnv) reopen(opts ...funding.Option) {
	options := append([]funding.Option{funding.WithBondingCurve(testBasePrice, 0)}, opts...)

	manager, err := funding.NewManager(
		env.store,
		func() time.Time { return env.now },
		funding.NewReputationRegistry(env.store, testRegistrationGrant),
		options...,
	)
	require.NoError(env.t, err)
	env.manager = manager
}

func (env *fundingTestEnv) advanceClock(d time.Duration) {
	env.now = env.now.Add(d)
}

func (env *fundingTestEnv) deadline() time.Time {
	return env.now.Add(24 * time.Hour)
}

func (env *fundingTestEnv) mintTokens(account funding.AccountID, amount uint64) {
	cost, err := env.manager.TokenLedger().PriceToMint(amount)
	require.NoError(env.t, err)

	refund, err := env.manager.Mint(account, amount, cost)
	require.NoError(env.t, err)
	require.Zero(env.t, refund)
}

func (env *fundingTestEnv) tokenBalance(account funding.AccountID) uint64 {
	balance, err := env.manager.TokenBalance(account)
	require.NoError(env.t, err)

	return balance
}

func (env *fundingTestEnv) reputationBalance(account funding.AccountID) uint64 {
	balance, err := env.manager.ReputationBalance(account)
	require.NoError(env.t, err)

	return balance
}

// proposeTokenProject mints enough tokens for the escrow and proposes a project.
func (env *fundingTestEnv) proposeTokenProject(proposer funding.AccountID, costTarget uint64) funding.ProjectID {
	escrow := costTarget / env.manager.TokenInfo().CurrentPrice / 20
	env.mintTokens(proposer, escrow)

	projectID, err := env.manager.ProposeProject(proposer, funding.StakeKindToken, costTarget, env.deadline(), testMetadataHash)
	require.NoError(env.t, err)

	return projectID
}

// unreliableStore wraps a store so that batch commits can be made to fail on
// demand.
type unreliableStore struct {
	kvstore.KVStore
	failCommits bool
}

func (s *unreliableStore) Batched() (kvstore.BatchedMutations, error) {
	mutations, err := s.KVStore.Batched()
	if err != nil {
		return nil, err
	}

	return &unreliableMutations{BatchedMutations: mutations, store: s}, nil
}

type unreliableMutations struct {
	kvstore.BatchedMutations
	store *unreliableStore
}

func (m *unreliableMutations) Commit() error {
	if m.store.failCommits {
		m.BatchedMutations.Cancel()

		return errors.New("commit failed")
	}

	return m.BatchedMutations.Commit()
}

func accountID(b byte) funding.AccountID {
	var account funding.AccountID
	for i := range account {
		account[i] = b
	}

	return account
}
