package funding_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hive.go/core/kvstore/mapdb"

	"github.com/distributeproject/distribute-go/pkg/funding"
)

func TestProposeProject(t *testing.T) {
	env := newFundingTestEnv(t)

	proposer := accountID(1)
	env.mintTokens(proposer, 1000)

	projectID, err := env.manager.ProposeProject(proposer, funding.StakeKindToken, 1_000_000, env.deadline(), testMetadataHash)
	require.NoError(t, err)

	// escrow is a twentieth of the cost target, valued at the current price
	require.EqualValues(t, 500, env.tokenBalance(proposer))

	project := env.manager.Project(projectID)
	require.NotNil(t, project)
	require.Equal(t, funding.StateProposed, project.State)
	require.EqualValues(t, 1_000_000, project.CostTarget)
	require.EqualValues(t, 500, project.ProposerStakeAmount)
	require.Equal(t, proposer, project.Proposer)
}

func TestProposeProjectValidation(t *testing.T) {
	env := newFundingTestEnv(t)

	proposer := accountID(1)
	env.mintTokens(proposer, 1000)

	_, err := env.manager.ProposeProject(proposer, funding.StakeKindToken, 0, env.deadline(), testMetadataHash)
	require.ErrorIs(t, err, funding.ErrInvalidCostTarget)

	_, err = env.manager.ProposeProject(proposer, funding.StakeKindToken, 1_000_000, env.now.Add(-time.Hour), testMetadataHash)
	require.ErrorIs(t, err, funding.ErrExpiredDeadline)

	_, err = env.manager.ProposeProject(proposer, funding.StakeKindToken, 1_000_000, env.deadline(), []byte{0x01, 0x02})
	require.ErrorIs(t, err, funding.ErrInvalidMetadataHash)

	// the escrow exceeds the proposer balance
	_, err = env.manager.ProposeProject(accountID(9), funding.StakeKindToken, 1_000_000, env.deadline(), testMetadataHash)
	require.ErrorIs(t, err, funding.ErrInsufficientBalance)
}

func TestProposeProjectWithReputation(t *testing.T) {
	env := newFundingTestEnv(t)

	proposer := accountID(1)
	require.NoError(t, env.manager.RegisterReputation(proposer))

	projectID, err := env.manager.ProposeProject(proposer, funding.StakeKindReputation, 1_000_000, env.deadline(), testMetadataHash)
	require.NoError(t, err)

	require.EqualValues(t, testRegistrationGrant-500, env.reputationBalance(proposer))

	project := env.manager.Project(projectID)
	require.Equal(t, funding.StakeKindReputation, project.ProposerStakeKind)
	require.EqualValues(t, 500, project.ProposerStakeAmount)
}

func TestStakeTokensClampsToFundingGap(t *testing.T) {
	env := newFundingTestEnv(t)

	proposer := accountID(1)
	alice := accountID(2)
	bob := accountID(3)

	projectID := env.proposeTokenProject(proposer, 1_000_000)

	env.mintTokens(alice, 6000)
	accepted, err := env.manager.StakeTokens(projectID, alice, 6000)
	require.NoError(t, err)
	require.EqualValues(t, 6000, accepted)

	project := env.manager.Project(projectID)
	require.Equal(t, funding.StateProposed, project.State)
	require.EqualValues(t, 600_000, project.ReserveCommitted)

	// only 4000 tokens worth of funding gap remain, the rest stays with bob
	env.mintTokens(bob, 5000)
	accepted, err = env.manager.StakeTokens(projectID, bob, 5000)
	require.NoError(t, err)
	require.EqualValues(t, 4000, accepted)
	require.EqualValues(t, 1000, env.tokenBalance(bob))

	project = env.manager.Project(projectID)
	require.Equal(t, funding.StateCollected, project.State)
	require.Equal(t, project.CostTarget, project.ReserveCommitted)
}

func TestStakeTokensValidation(t *testing.T) {
	env := newFundingTestEnv(t)

	proposer := accountID(1)
	alice := accountID(2)

	projectID := env.proposeTokenProject(proposer, 1_000_000)

	_, err := env.manager.StakeTokens(funding.ProjectID{0xff}, alice, 100)
	require.ErrorIs(t, err, funding.ErrUnknownProject)

	_, err = env.manager.StakeTokens(projectID, alice, 100)
	require.ErrorIs(t, err, funding.ErrInsufficientBalance)

	// a zero stake is a no-op
	env.mintTokens(alice, 100)
	accepted, err := env.manager.StakeTokens(projectID, alice, 0)
	require.NoError(t, err)
	require.Zero(t, accepted)
	require.False(t, env.manager.Project(projectID).IsStaker(alice))
}

func TestStakeTokensAfterCollection(t *testing.T) {
	env := newFundingTestEnv(t)

	proposer := accountID(1)
	alice := accountID(2)
	bob := accountID(3)

	projectID := env.proposeTokenProject(proposer, 100_000)

	env.mintTokens(alice, 1000)
	_, err := env.manager.StakeTokens(projectID, alice, 1000)
	require.NoError(t, err)
	require.Equal(t, funding.StateCollected, env.manager.Project(projectID).State)

	env.mintTokens(bob, 100)
	_, err = env.manager.StakeTokens(projectID, bob, 100)
	require.ErrorIs(t, err, funding.ErrInvalidState)
}

func TestUnstakeTokens(t *testing.T) {
	env := newFundingTestEnv(t)

	proposer := accountID(1)
	alice := accountID(2)

	projectID := env.proposeTokenProject(proposer, 1_000_000)

	env.mintTokens(alice, 3000)
	_, err := env.manager.StakeTokens(projectID, alice, 3000)
	require.NoError(t, err)
	require.Zero(t, env.tokenBalance(alice))

	require.NoError(t, env.manager.UnstakeTokens(projectID, alice, 1000))
	require.EqualValues(t, 1000, env.tokenBalance(alice))

	project := env.manager.Project(projectID)
	require.EqualValues(t, 2000, project.StakedTokens(alice))
	require.EqualValues(t, 200_000, project.ReserveCommitted)

	require.NoError(t, env.manager.UnstakeTokens(projectID, alice, 2000))
	require.EqualValues(t, 3000, env.tokenBalance(alice))
	require.Zero(t, env.manager.Project(projectID).ReserveCommitted)
	require.False(t, env.manager.Project(projectID).IsStaker(alice))
}

func TestUnstakeTokensValidation(t *testing.T) {
	env := newFundingTestEnv(t)

	proposer := accountID(1)
	alice := accountID(2)
	bob := accountID(3)

	projectID := env.proposeTokenProject(proposer, 100_000)

	env.mintTokens(alice, 500)
	_, err := env.manager.StakeTokens(projectID, alice, 500)
	require.NoError(t, err)

	require.ErrorIs(t, env.manager.UnstakeTokens(funding.ProjectID{0xff}, alice, 100), funding.ErrUnknownProject)
	require.ErrorIs(t, env.manager.UnstakeTokens(projectID, bob, 100), funding.ErrNotAStaker)
	require.ErrorIs(t, env.manager.UnstakeTokens(projectID, alice, 501), funding.ErrInsufficientStake)

	// once collected, stakes are locked in
	env.mintTokens(alice, 500)
	_, err = env.manager.StakeTokens(projectID, alice, 500)
	require.NoError(t, err)
	require.Equal(t, funding.StateCollected, env.manager.Project(projectID).State)
	require.ErrorIs(t, env.manager.UnstakeTokens(projectID, alice, 100), funding.ErrInvalidState)
}

func TestStakeReputation(t *testing.T) {
	env := newFundingTestEnv(t)

	proposer := accountID(1)
	alice := accountID(2)

	projectID := env.proposeTokenProject(proposer, 1_000_000)

	require.NoError(t, env.manager.RegisterReputation(alice))
	require.NoError(t, env.manager.StakeReputation(projectID, alice, 4000))

	require.EqualValues(t, testRegistrationGrant-4000, env.reputationBalance(alice))

	project := env.manager.Project(projectID)
	require.EqualValues(t, 4000, project.StakedReputation(alice))
	require.EqualValues(t, 4000, project.ReputationStaked)

	// reputation is weight, not funding
	require.Zero(t, project.ReserveCommitted)
	require.Equal(t, funding.StateProposed, project.State)

	require.NoError(t, env.manager.UnstakeReputation(projectID, alice, 4000))
	require.EqualValues(t, testRegistrationGrant, env.reputationBalance(alice))
	require.False(t, env.manager.Project(projectID).IsStaker(alice))
}

func TestStakerWeights(t *testing.T) {
	env := newFundingTestEnv(t)

	proposer := accountID(1)
	alice := accountID(2)
	bob := accountID(3)

	projectID := env.proposeTokenProject(proposer, 1_000_000)

	env.mintTokens(alice, 2000)
	_, err := env.manager.StakeTokens(projectID, alice, 2000)
	require.NoError(t, err)

	require.NoError(t, env.manager.RegisterReputation(bob))
	require.NoError(t, env.manager.StakeReputation(projectID, bob, 5000))

	// alice holds all token weight, bob all reputation weight
	project := env.manager.Project(projectID)
	require.EqualValues(t, 50, project.WeightOf(alice))
	require.EqualValues(t, 50, project.WeightOf(bob))

	stakers, err := env.manager.ProjectStakers(projectID)
	require.NoError(t, err)
	require.Len(t, stakers, 2)
}

func TestCheckExpiry(t *testing.T) {
	env := newFundingTestEnv(t)

	proposer := accountID(1)
	alice := accountID(2)
	bob := accountID(3)

	projectID := env.proposeTokenProject(proposer, 1_000_000)

	env.mintTokens(alice, 3000)
	_, err := env.manager.StakeTokens(projectID, alice, 3000)
	require.NoError(t, err)

	require.NoError(t, env.manager.RegisterReputation(bob))
	require.NoError(t, env.manager.StakeReputation(projectID, bob, 2000))

	// before the deadline nothing happens
	require.NoError(t, env.manager.CheckExpiry(projectID))
	require.Equal(t, funding.StateProposed, env.manager.Project(projectID).State)

	env.advanceClock(25 * time.Hour)
	require.NoError(t, env.manager.CheckExpiry(projectID))

	project := env.manager.Project(projectID)
	require.Equal(t, funding.StateFailed, project.State)

	// stakers are made whole, the proposer escrow is forfeited into the reward pool
	require.EqualValues(t, 3000, env.tokenBalance(alice))
	require.EqualValues(t, testRegistrationGrant, env.reputationBalance(bob))
	require.Zero(t, env.tokenBalance(proposer))
	require.Zero(t, project.ProposerStakeAmount)
	require.EqualValues(t, 500*testBasePrice, env.manager.TokenInfo().RewardPool)

	// a second sweep is a no-op
	require.NoError(t, env.manager.CheckExpiry(projectID))
	require.EqualValues(t, 500*testBasePrice, env.manager.TokenInfo().RewardPool)
}

func TestSweepExpired(t *testing.T) {
	env := newFundingTestEnv(t)

	proposer := accountID(1)
	alice := accountID(2)

	expiring := env.proposeTokenProject(proposer, 1_000_000)
	collected := env.proposeTokenProject(proposer, 100_000)

	env.mintTokens(alice, 1000)
	_, err := env.manager.StakeTokens(collected, alice, 1000)
	require.NoError(t, err)

	env.advanceClock(25 * time.Hour)

	failed, err := env.manager.SweepExpired()
	require.NoError(t, err)
	require.Equal(t, []funding.ProjectID{expiring}, failed)

	require.Equal(t, funding.StateFailed, env.manager.Project(expiring).State)
	require.Equal(t, funding.StateCollected, env.manager.Project(collected).State)
}

func TestRefundProposer(t *testing.T) {
	env := newFundingTestEnv(t)

	proposer := accountID(1)
	alice := accountID(2)

	// fail a first project to fund the reward pool
	expired := env.proposeTokenProject(proposer, 1_000_000)
	env.advanceClock(25 * time.Hour)
	require.NoError(t, env.manager.CheckExpiry(expired))
	require.EqualValues(t, 50_000, env.manager.TokenInfo().RewardPool)

	projectID := env.proposeTokenProject(proposer, 1_000_000)
	env.mintTokens(alice, 10000)
	_, err := env.manager.StakeTokens(projectID, alice, 10000)
	require.NoError(t, err)
	require.Equal(t, funding.StateCollected, env.manager.Project(projectID).State)

	escrow, reward, err := env.manager.RefundProposer(projectID, proposer)
	require.NoError(t, err)
	require.EqualValues(t, 500, escrow)
	require.EqualValues(t, 10_000, reward)
	require.EqualValues(t, 500, env.tokenBalance(proposer))
	require.EqualValues(t, 40_000, env.manager.TokenInfo().RewardPool)

	// the refund is paid exactly once
	_, _, err = env.manager.RefundProposer(projectID, proposer)
	require.ErrorIs(t, err, funding.ErrAlreadyRefunded)
}

func TestRefundProposerValidation(t *testing.T) {
	env := newFundingTestEnv(t)

	proposer := accountID(1)
	alice := accountID(2)

	projectID := env.proposeTokenProject(proposer, 100_000)

	_, _, err := env.manager.RefundProposer(funding.ProjectID{0xff}, proposer)
	require.ErrorIs(t, err, funding.ErrUnknownProject)

	_, _, err = env.manager.RefundProposer(projectID, alice)
	require.ErrorIs(t, err, funding.ErrNotAuthorized)

	// not refundable while still collecting
	_, _, err = env.manager.RefundProposer(projectID, proposer)
	require.ErrorIs(t, err, funding.ErrInvalidState)

	// nor after the project failed
	env.advanceClock(25 * time.Hour)
	require.NoError(t, env.manager.CheckExpiry(projectID))
	_, _, err = env.manager.RefundProposer(projectID, proposer)
	require.ErrorIs(t, err, funding.ErrInvalidState)
}

func TestRefundProposerEmptyPool(t *testing.T) {
	env := newFundingTestEnv(t)

	proposer := accountID(1)
	alice := accountID(2)

	projectID := env.proposeTokenProject(proposer, 100_000)
	env.mintTokens(alice, 1000)
	_, err := env.manager.StakeTokens(projectID, alice, 1000)
	require.NoError(t, err)

	// the reward is capped at the pool balance
	escrow, reward, err := env.manager.RefundProposer(projectID, proposer)
	require.NoError(t, err)
	require.EqualValues(t, 50, escrow)
	require.Zero(t, reward)
}

func TestRefundProposerZeroEscrow(t *testing.T) {
	env := newFundingTestEnv(t)

	proposer := accountID(1)
	alice := accountID(2)

	// a tiny cost target rounds the escrow down to zero
	projectID := env.proposeTokenProject(proposer, 1000)
	require.Zero(t, env.manager.Project(projectID).ProposerStakeAmount)

	env.mintTokens(alice, 10)
	_, err := env.manager.StakeTokens(projectID, alice, 10)
	require.NoError(t, err)
	require.Equal(t, funding.StateCollected, env.manager.Project(projectID).State)

	// the first refund succeeds even though there is no escrow to return
	escrow, reward, err := env.manager.RefundProposer(projectID, proposer)
	require.NoError(t, err)
	require.Zero(t, escrow)
	require.Zero(t, reward)

	_, _, err = env.manager.RefundProposer(projectID, proposer)
	require.ErrorIs(t, err, funding.ErrAlreadyRefunded)
}

func TestAdvanceProject(t *testing.T) {
	env := newFundingTestEnv(t)

	proposer := accountID(1)
	alice := accountID(2)

	projectID := env.proposeTokenProject(proposer, 100_000)

	// collection phase transitions cannot be forced
	require.ErrorIs(t, env.manager.AdvanceProject(projectID, proposer, funding.StateCollected), funding.ErrInvalidState)

	env.mintTokens(alice, 1000)
	_, err := env.manager.StakeTokens(projectID, alice, 1000)
	require.NoError(t, err)

	// only the proposer may advance
	require.ErrorIs(t, env.manager.AdvanceProject(projectID, alice, funding.StateActive), funding.ErrNotAuthorized)
	require.Equal(t, funding.StateCollected, env.manager.Project(projectID).State)

	require.ErrorIs(t, env.manager.AdvanceProject(projectID, proposer, funding.StateSucceeded), funding.ErrInvalidTransition)

	require.NoError(t, env.manager.AdvanceProject(projectID, proposer, funding.StateActive))
	require.NoError(t, env.manager.AdvanceProject(projectID, proposer, funding.StateValidating))
	require.NoError(t, env.manager.AdvanceProject(projectID, proposer, funding.StateSucceeded))

	require.Equal(t, funding.StateSucceeded, env.manager.Project(projectID).State)
	require.ErrorIs(t, env.manager.AdvanceProject(projectID, proposer, funding.StateFailed), funding.ErrInvalidTransition)
}

func TestManagerPersistence(t *testing.T) {
	env := newFundingTestEnv(t)

	proposer := accountID(1)
	alice := accountID(2)

	projectID := env.proposeTokenProject(proposer, 1_000_000)

	env.mintTokens(alice, 3000)
	_, err := env.manager.StakeTokens(projectID, alice, 3000)
	require.NoError(t, err)

	env.reopen()

	project := env.manager.Project(projectID)
	require.NotNil(t, project)
	require.Equal(t, funding.StateProposed, project.State)
	require.EqualValues(t, 3000, project.StakedTokens(alice))
	require.EqualValues(t, 300_000, project.ReserveCommitted)

	// the restored registry keeps operating on the same state
	env.mintTokens(alice, 7000)
	accepted, err := env.manager.StakeTokens(projectID, alice, 7000)
	require.NoError(t, err)
	require.EqualValues(t, 7000, accepted)
	require.Equal(t, funding.StateCollected, env.manager.Project(projectID).State)
}

func TestStoreFailureLeavesStateUntouched(t *testing.T) {
	store := &unreliableStore{KVStore: mapdb.NewMapDB()}
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	manager, err := funding.NewManager(
		store,
		func() time.Time { return now },
		funding.NewReputationRegistry(store, testRegistrationGrant),
		funding.WithBondingCurve(testBasePrice, 0),
	)
	require.NoError(t, err)

	proposer := accountID(1)
	alice := accountID(2)

	mint := func(account funding.AccountID, amount uint64) {
		cost, err := manager.TokenLedger().PriceToMint(amount)
		require.NoError(t, err)
		_, err = manager.Mint(account, amount, cost)
		require.NoError(t, err)
	}
	balance := func(account funding.AccountID) uint64 {
		b, err := manager.TokenBalance(account)
		require.NoError(t, err)

		return b
	}

	mint(proposer, 50)
	projectID, err := manager.ProposeProject(proposer, funding.StakeKindToken, 100_000, now.Add(24*time.Hour), testMetadataHash)
	require.NoError(t, err)

	mint(alice, 1000)
	_, err = manager.StakeTokens(projectID, alice, 300)
	require.NoError(t, err)

	store.failCommits = true

	// a failed commit must leave neither the balance nor the stake moved
	_, err = manager.StakeTokens(projectID, alice, 200)
	require.Error(t, err)
	require.EqualValues(t, 700, balance(alice))
	require.EqualValues(t, 300, manager.Project(projectID).StakedTokens(alice))
	require.EqualValues(t, 30_000, manager.Project(projectID).ReserveCommitted)

	require.Error(t, manager.UnstakeTokens(projectID, alice, 100))
	require.EqualValues(t, 700, balance(alice))
	require.EqualValues(t, 300, manager.Project(projectID).StakedTokens(alice))

	_, err = manager.ProposeProject(alice, funding.StakeKindToken, 100_000, now.Add(24*time.Hour), testMetadataHash)
	require.Error(t, err)
	require.EqualValues(t, 700, balance(alice))
	require.Len(t, manager.ProjectIDs(), 1)

	store.failCommits = false

	// the registry keeps operating once the store recovers
	accepted, err := manager.StakeTokens(projectID, alice, 200)
	require.NoError(t, err)
	require.EqualValues(t, 200, accepted)
	require.EqualValues(t, 500, balance(alice))

	// the persisted state matches the in-memory state
	reopened, err := funding.NewManager(
		store,
		func() time.Time { return now },
		funding.NewReputationRegistry(store, testRegistrationGrant),
		funding.WithBondingCurve(testBasePrice, 0),
	)
	require.NoError(t, err)
	require.EqualValues(t, 500, reopened.Project(projectID).StakedTokens(alice))
	require.EqualValues(t, 50_000, reopened.Project(projectID).ReserveCommitted)
}

func TestProjectIDsAreUnique(t *testing.T) {
	env := newFundingTestEnv(t)

	proposer := accountID(1)
	env.mintTokens(proposer, 1000)

	first, err := env.manager.ProposeProject(proposer, funding.StakeKindToken, 1_000_000, env.deadline(), testMetadataHash)
	require.NoError(t, err)

	// an identical proposal yields a distinct project
	second, err := env.manager.ProposeProject(proposer, funding.StakeKindToken, 1_000_000, env.deadline(), testMetadataHash)
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	require.Len(t, env.manager.ProjectIDs(), 2)
}
