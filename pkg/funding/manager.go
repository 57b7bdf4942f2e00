package funding

import (
	"time"

	"github.com/pkg/errors"

	"github.com/iotaledger/hive.go/core/kvstore"
	"github.com/iotaledger/hive.go/core/marshalutil"
	"github.com/iotaledger/hive.go/core/syncutils"
)

var (
	ErrUnknownProject      = errors.New("unknown project")
	ErrNotAuthorized       = errors.New("the caller is not authorized for this operation")
	ErrExpiredDeadline     = errors.New("the project deadline lies in the past")
	ErrAlreadyRefunded     = errors.New("the proposer stake was already refunded")
	ErrNotAStaker          = errors.New("the account has no stake on this project")
	ErrInsufficientStake   = errors.New("the account staked less than the requested amount")
	ErrInvalidCostTarget   = errors.New("the cost target must be greater than zero")
	ErrInvalidMetadataHash = errors.New("the metadata hash does not have the expected length")
)

// ClockProvider supplies the externally owned time source used for deadline
// comparisons.
type ClockProvider func() time.Time

// Options define options for the Manager.
type Options struct {
	basePrice         uint64
	priceSlope        uint64
	proposeProportion uint64
	rewardDivisor     uint64
}

// the default options applied to the Manager.
var defaultOptions = []Option{
	WithBondingCurve(100000, 10),
	WithProposeProportion(20),
	WithRewardDivisor(100),
}

func (o *Options) apply(opts ...Option) {
	for _, opt := range opts {
		opt(o)
	}
}

// WithBondingCurve sets the base price and slope of the token bonding curve.
func WithBondingCurve(basePrice uint64, priceSlope uint64) Option {
	return func(opts *Options) {
		opts.basePrice = basePrice
		opts.priceSlope = priceSlope
	}
}

// WithProposeProportion sets the divisor determining the proposer escrow as a
// proportion of the cost target.
func WithProposeProportion(proportion uint64) Option {
	return func(opts *Options) {
		opts.proposeProportion = proportion
	}
}

// WithRewardDivisor sets the divisor determining the proposer reward as a
// proportion of the cost target.
func WithRewardDivisor(divisor uint64) Option {
	return func(opts *Options) {
		opts.rewardDivisor = divisor
	}
}

// Option is a function setting a Manager option.
type Option func(opts *Options)

// Manager is the project registry: it owns project creation, gates every
// mutating call by caller identity and project existence, and is the only
// mutation path into the token ledger and the per-project staking ledgers.
// Every mutating call runs under its lock as one atomic unit; all store writes
// of one call go through a single batched mutation and the in-memory state is
// only updated after the batch committed, so a failed call leaves no partial
// state behind. Calls into the reputation collaborator cannot join that batch;
// they are compensated if the commit fails.
type Manager struct {
	// lock used to secure the state of the Manager.
	syncutils.RWMutex

	clockFunc ClockProvider

	store       kvstore.KVStore
	tokenLedger *TokenLedger
	reputation  ReputationLedger

	opts *Options

	projects       map[ProjectID]*Project
	projectCounter uint64

	// Events are triggered on every state-changing operation.
	Events *Events
}

// NewManager creates a new Manager instance on top of the given store,
// restoring the token ledger and all known projects.
func NewManager(store kvstore.KVStore, clockProvider ClockProvider, reputationLedger ReputationLedger, opts ...Option) (*Manager, error) {
	options := &Options{}
	options.apply(defaultOptions...)
	options.apply(opts...)

	tokenLedger, err := NewTokenLedger(store, options.basePrice, options.priceSlope)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		clockFunc:   clockProvider,
		store:       store,
		tokenLedger: tokenLedger,
		reputation:  reputationLedger,
		opts:        options,
		Events:      newEvents(),
	}

	if err := m.init(); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Manager) init() error {
	projects, err := m.loadProjects()
	if err != nil {
		return err
	}
	m.projects = projects

	counter, err := m.loadProjectCounter()
	if err != nil {
		return err
	}
	m.projectCounter = counter

	return nil
}

// TokenLedger returns the stake currency ledger for read access.
func (m *Manager) TokenLedger() *TokenLedger {
	return m.tokenLedger
}

// Reputation returns the reputation ledger collaborator.
func (m *Manager) Reputation() ReputationLedger {
	return m.reputation
}

// Mint mints tokens against a deposit, see TokenLedger.Mint.
func (m *Manager) Mint(account AccountID, amount uint64, deposit uint64) (refund uint64, err error) {
	m.Lock()
	defer m.Unlock()

	refund, err = m.tokenLedger.Mint(account, amount, deposit)
	if err != nil {
		return 0, err
	}

	m.Events.TokensMinted.Trigger(&TokenMintedEvent{
		Account:     account,
		Amount:      amount,
		Cost:        deposit - refund,
		Refund:      refund,
		TotalSupply: m.tokenLedger.TotalSupply(),
		Reserve:     m.tokenLedger.Reserve(),
	})

	return refund, nil
}

// Burn burns tokens and pays out their curve value, see TokenLedger.Burn.
func (m *Manager) Burn(account AccountID, amount uint64) (payout uint64, err error) {
	m.Lock()
	defer m.Unlock()

	payout, err = m.tokenLedger.Burn(account, amount)
	if err != nil {
		return 0, err
	}

	m.Events.TokensBurned.Trigger(&TokenBurnedEvent{
		Account:     account,
		Amount:      amount,
		Payout:      payout,
		TotalSupply: m.tokenLedger.TotalSupply(),
		Reserve:     m.tokenLedger.Reserve(),
	})

	return payout, nil
}

// RegisterReputation registers the account with the reputation ledger.
func (m *Manager) RegisterReputation(account AccountID) error {
	m.Lock()
	defer m.Unlock()

	return m.reputation.Register(account)
}

// ProposeProject creates a new project in the proposed state. The proposer
// escrows a fixed proportion of the cost target, valued at the current token
// price for token proposers, or the same figure in reputation points.
func (m *Manager) ProposeProject(proposer AccountID, kind StakeKind, costTarget uint64, deadline time.Time, metadataHash []byte) (ProjectID, error) {
	m.Lock()
	defer m.Unlock()

	if costTarget == 0 {
		return NullProjectID, ErrInvalidCostTarget
	}
	if !deadline.After(m.clockFunc()) {
		return NullProjectID, errors.Wrapf(ErrExpiredDeadline, "deadline %s", deadline)
	}
	if len(metadataHash) != MetadataHashLength {
		return NullProjectID, errors.Wrapf(ErrInvalidMetadataHash, "expected %d bytes, got %d", MetadataHashLength, len(metadataHash))
	}
	if kind != StakeKindToken && kind != StakeKindReputation {
		return NullProjectID, errors.Errorf("unknown stake kind %d", kind)
	}

	escrow := costTarget / m.tokenLedger.CurrentPrice() / m.opts.proposeProportion

	projectID, err := deriveProjectID(proposer, kind, costTarget, deadline, metadataHash, m.projectCounter)
	if err != nil {
		return NullProjectID, err
	}

	project := &Project{
		ID:                  projectID,
		CostTarget:          costTarget,
		Proposer:            proposer,
		ProposerStakeKind:   kind,
		ProposerStakeAmount: escrow,
		Deadline:            deadline.UTC(),
		MetadataHash:        append([]byte(nil), metadataHash...),
		State:               StateProposed,
		stakerTokens:        make(map[AccountID]uint64),
		stakerValues:        make(map[AccountID]uint64),
		stakerReputation:    make(map[AccountID]uint64),
	}

	mutations, err := m.store.Batched()
	if err != nil {
		return NullProjectID, err
	}

	if kind == StakeKindToken {
		if err := m.tokenLedger.withdraw(proposer, escrow, mutations); err != nil {
			mutations.Cancel()
			return NullProjectID, err
		}
	} else {
		if err := m.reputation.Withdraw(proposer, escrow); err != nil {
			mutations.Cancel()
			return NullProjectID, err
		}
	}

	if err := m.storeProject(project, mutations); err != nil {
		mutations.Cancel()
		m.compensateReputation(kind, proposer, escrow)
		return NullProjectID, err
	}
	if err := mutations.Set([]byte{StoreKeyPrefixRegistryStatus}, uint64Bytes(m.projectCounter+1)); err != nil {
		mutations.Cancel()
		m.compensateReputation(kind, proposer, escrow)
		return NullProjectID, err
	}
	if err := mutations.Commit(); err != nil {
		m.compensateReputation(kind, proposer, escrow)
		return NullProjectID, err
	}

	m.projects[projectID] = project
	m.projectCounter++

	m.Events.ProjectProposed.Trigger(&ProjectProposedEvent{
		ProjectID:     projectID,
		Proposer:      proposer,
		StakeKind:     kind,
		ProposerStake: escrow,
		CostTarget:    costTarget,
	})

	return projectID, nil
}

// compensateReputation returns an already withdrawn reputation escrow after a
// failed store commit. Token escrows need no compensation, their withdrawal is
// part of the cancelled batch.
func (m *Manager) compensateReputation(kind StakeKind, account AccountID, amount uint64) {
	if kind == StakeKindReputation && amount > 0 {
		_ = m.reputation.Deposit(account, amount)
	}
}

// StakeTokens commits tokens of the staker to the project at the live token
// price. A request larger than the remaining funding gap is clamped so that the
// gap is filled exactly; the unconsumed remainder stays with the staker and the
// accepted amount is reported back. Filling the gap flips the project to the
// collected state within the same atomic operation.
func (m *Manager) StakeTokens(projectID ProjectID, staker AccountID, amount uint64) (accepted uint64, err error) {
	m.Lock()
	defer m.Unlock()

	project, exists := m.projects[projectID]
	if !exists {
		return 0, errors.Wrap(ErrUnknownProject, projectID.ToHex())
	}
	if project.State != StateProposed {
		return 0, errors.Wrapf(ErrInvalidState, "staking on %s project", project.State)
	}
	if amount == 0 {
		return 0, nil
	}

	balance, err := m.tokenLedger.BalanceOf(staker)
	if err != nil {
		return 0, err
	}
	if balance < amount {
		return 0, errors.Wrapf(ErrInsufficientBalance, "staking %d tokens, account holds %d", amount, balance)
	}

	price := m.tokenLedger.CurrentPrice()
	remaining := project.CostTarget - project.ReserveCommitted
	required := ceilDiv(remaining, price)

	accepted = amount
	if accepted > required {
		accepted = required
	}
	value := accepted * price
	if value > remaining {
		value = remaining
	}

	updated := project.Clone()
	updated.addTokenStake(staker, accepted, value)

	collected := updated.ReserveCommitted == updated.CostTarget
	if collected {
		if err := updated.transitionTo(StateCollected); err != nil {
			return 0, err
		}
	}

	mutations, err := m.store.Batched()
	if err != nil {
		return 0, err
	}
	if err := m.tokenLedger.withdraw(staker, accepted, mutations); err != nil {
		mutations.Cancel()
		return 0, err
	}
	if err := m.storeProject(updated, mutations); err != nil {
		mutations.Cancel()
		return 0, err
	}
	if err := mutations.Commit(); err != nil {
		return 0, err
	}

	m.projects[projectID] = updated

	m.Events.TokensStaked.Trigger(&TokenStakeEvent{
		ProjectID:        projectID,
		Staker:           staker,
		Requested:        amount,
		Accepted:         accepted,
		ReserveCommitted: updated.ReserveCommitted,
	})
	if collected {
		m.Events.ProjectCollected.Trigger(&ProjectStateEvent{
			ProjectID: projectID,
			OldState:  StateProposed,
			NewState:  StateCollected,
		})
	}

	return accepted, nil
}

// UnstakeTokens returns previously staked tokens to the staker, together with
// the proportional share of the committed reserve value. Only legal while the
// project is still collecting.
func (m *Manager) UnstakeTokens(projectID ProjectID, staker AccountID, amount uint64) error {
	m.Lock()
	defer m.Unlock()

	project, exists := m.projects[projectID]
	if !exists {
		return errors.Wrap(ErrUnknownProject, projectID.ToHex())
	}
	if project.State != StateProposed {
		return errors.Wrapf(ErrInvalidState, "unstaking from %s project", project.State)
	}

	staked := project.StakedTokens(staker)
	if staked == 0 {
		return errors.Wrap(ErrNotAStaker, staker.ToHex())
	}
	if staked < amount {
		return errors.Wrapf(ErrInsufficientStake, "unstaking %d tokens, staked %d", amount, staked)
	}
	if amount == 0 {
		return nil
	}

	updated := project.Clone()
	updated.removeTokenStake(staker, amount)

	mutations, err := m.store.Batched()
	if err != nil {
		return err
	}
	if err := m.tokenLedger.deposit(staker, amount, mutations); err != nil {
		mutations.Cancel()
		return err
	}
	if err := m.storeProject(updated, mutations); err != nil {
		mutations.Cancel()
		return err
	}
	if err := mutations.Commit(); err != nil {
		return err
	}

	m.projects[projectID] = updated

	m.Events.TokensUnstaked.Trigger(&TokenStakeEvent{
		ProjectID:        projectID,
		Staker:           staker,
		Requested:        amount,
		Accepted:         amount,
		ReserveCommitted: updated.ReserveCommitted,
	})

	return nil
}

// StakeReputation commits reputation of the staker to the project. Reputation is
// weight, not currency: it never moves the committed reserve and therefore never
// triggers the collected transition.
func (m *Manager) StakeReputation(projectID ProjectID, staker AccountID, amount uint64) error {
	m.Lock()
	defer m.Unlock()

	project, exists := m.projects[projectID]
	if !exists {
		return errors.Wrap(ErrUnknownProject, projectID.ToHex())
	}
	if project.State != StateProposed {
		return errors.Wrapf(ErrInvalidState, "staking on %s project", project.State)
	}
	if amount == 0 {
		return nil
	}

	updated := project.Clone()
	updated.addReputationStake(staker, amount)

	mutations, err := m.store.Batched()
	if err != nil {
		return err
	}
	if err := m.storeProject(updated, mutations); err != nil {
		mutations.Cancel()
		return err
	}
	if err := m.reputation.Withdraw(staker, amount); err != nil {
		mutations.Cancel()
		return err
	}
	if err := mutations.Commit(); err != nil {
		m.compensateReputation(StakeKindReputation, staker, amount)
		return err
	}

	m.projects[projectID] = updated

	m.Events.ReputationStaked.Trigger(&ReputationStakeEvent{
		ProjectID:        projectID,
		Staker:           staker,
		Amount:           amount,
		ReputationStaked: updated.ReputationStaked,
	})

	return nil
}

// UnstakeReputation returns previously staked reputation to the staker. Only
// legal while the project is still collecting.
func (m *Manager) UnstakeReputation(projectID ProjectID, staker AccountID, amount uint64) error {
	m.Lock()
	defer m.Unlock()

	project, exists := m.projects[projectID]
	if !exists {
		return errors.Wrap(ErrUnknownProject, projectID.ToHex())
	}
	if project.State != StateProposed {
		return errors.Wrapf(ErrInvalidState, "unstaking from %s project", project.State)
	}

	staked := project.StakedReputation(staker)
	if staked == 0 {
		return errors.Wrap(ErrNotAStaker, staker.ToHex())
	}
	if staked < amount {
		return errors.Wrapf(ErrInsufficientStake, "unstaking %d reputation, staked %d", amount, staked)
	}
	if amount == 0 {
		return nil
	}

	updated := project.Clone()
	updated.removeReputationStake(staker, amount)

	mutations, err := m.store.Batched()
	if err != nil {
		return err
	}
	if err := m.storeProject(updated, mutations); err != nil {
		mutations.Cancel()
		return err
	}
	if err := m.reputation.Deposit(staker, amount); err != nil {
		mutations.Cancel()
		return err
	}
	if err := mutations.Commit(); err != nil {
		_ = m.reputation.Withdraw(staker, amount)
		return err
	}

	m.projects[projectID] = updated

	m.Events.ReputationUnstaked.Trigger(&ReputationStakeEvent{
		ProjectID:        projectID,
		Staker:           staker,
		Amount:           amount,
		ReputationStaked: updated.ReputationStaked,
	})

	return nil
}

// CheckExpiry evaluates the deadline rule for the project. Callable by anyone
// and idempotent: it no-ops unless the project is still collecting past its
// deadline. An expired, underfunded project fails, every staker balance is
// refunded and the proposer escrow is forfeited into the reward pool.
func (m *Manager) CheckExpiry(projectID ProjectID) error {
	m.Lock()
	defer m.Unlock()

	project, exists := m.projects[projectID]
	if !exists {
		return errors.Wrap(ErrUnknownProject, projectID.ToHex())
	}

	return m.checkExpiryWithoutLocking(project)
}

// SweepExpired runs the deadline rule over all projects still collecting and
// returns the projects that failed.
func (m *Manager) SweepExpired() ([]ProjectID, error) {
	m.Lock()
	defer m.Unlock()

	var failed []ProjectID
	for projectID, project := range m.projects {
		if project.State != StateProposed {
			continue
		}
		if err := m.checkExpiryWithoutLocking(project); err != nil {
			return failed, err
		}
		if m.projects[projectID].State == StateFailed {
			failed = append(failed, projectID)
		}
	}
	return failed, nil
}

func (m *Manager) checkExpiryWithoutLocking(project *Project) error {
	if project.State != StateProposed {
		return nil
	}
	if !m.clockFunc().After(project.Deadline) {
		return nil
	}

	tokenStakers := project.TokenStakers()
	reputationStakers := project.ReputationStakers()

	updated := project.Clone()
	updated.stakerTokens = make(map[AccountID]uint64)
	updated.stakerValues = make(map[AccountID]uint64)
	updated.stakerReputation = make(map[AccountID]uint64)
	updated.TokensStaked = 0
	updated.ReputationStaked = 0
	updated.ReserveCommitted = 0

	mutations, err := m.store.Batched()
	if err != nil {
		return err
	}

	// refund all stakers before the state flips
	for _, staker := range tokenStakers {
		if err := m.tokenLedger.deposit(staker, project.StakedTokens(staker), mutations); err != nil {
			mutations.Cancel()
			return err
		}
	}

	// the proposer escrow is forfeited, not refunded
	applyForfeiture := func() {}
	forfeitedReputation := uint64(0)
	if updated.ProposerStakeAmount > 0 {
		if updated.ProposerStakeKind == StakeKindToken {
			applyForfeiture, err = m.tokenLedger.burnToPool(updated.ProposerStakeAmount, mutations)
			if err != nil {
				mutations.Cancel()
				return err
			}
		} else {
			forfeitedReputation = updated.ProposerStakeAmount
		}
		updated.ProposerStakeAmount = 0
	}

	if err := updated.transitionTo(StateFailed); err != nil {
		mutations.Cancel()
		return err
	}
	if err := m.storeProject(updated, mutations); err != nil {
		mutations.Cancel()
		return err
	}

	// collaborator refunds happen outside the batch and are compensated on a
	// failed commit
	deposited := make([]AccountID, 0, len(reputationStakers))
	compensate := func() {
		for _, staker := range deposited {
			_ = m.reputation.Withdraw(staker, project.StakedReputation(staker))
		}
	}
	for _, staker := range reputationStakers {
		if err := m.reputation.Deposit(staker, project.StakedReputation(staker)); err != nil {
			mutations.Cancel()
			compensate()
			return err
		}
		deposited = append(deposited, staker)
	}
	if forfeitedReputation > 0 {
		if err := m.reputation.Burn(forfeitedReputation); err != nil {
			mutations.Cancel()
			compensate()
			return err
		}
	}

	if err := mutations.Commit(); err != nil {
		compensate()
		return err
	}

	applyForfeiture()
	m.projects[project.ID] = updated

	m.Events.ProjectFailed.Trigger(&ProjectStateEvent{
		ProjectID: project.ID,
		OldState:  StateProposed,
		NewState:  StateFailed,
	})

	return nil
}

// RefundProposer returns the proposer escrow and pays the proportional reward
// out of the reward pool. Legal exactly once, only for the original proposer and
// only once the project has been collected.
func (m *Manager) RefundProposer(projectID ProjectID, caller AccountID) (escrowReturned uint64, rewardPaid uint64, err error) {
	m.Lock()
	defer m.Unlock()

	project, exists := m.projects[projectID]
	if !exists {
		return 0, 0, errors.Wrap(ErrUnknownProject, projectID.ToHex())
	}
	if caller != project.Proposer {
		return 0, 0, errors.Wrap(ErrNotAuthorized, caller.ToHex())
	}
	if project.State == StateProposed || project.State == StateFailed {
		return 0, 0, errors.Wrapf(ErrInvalidState, "refunding proposer of %s project", project.State)
	}
	if project.ProposerRefunded {
		return 0, 0, errors.Wrap(ErrAlreadyRefunded, projectID.ToHex())
	}

	escrowReturned = project.ProposerStakeAmount

	updated := project.Clone()
	updated.ProposerStakeAmount = 0
	updated.ProposerRefunded = true

	mutations, err := m.store.Batched()
	if err != nil {
		return 0, 0, err
	}

	if updated.ProposerStakeKind == StakeKindToken {
		if err := m.tokenLedger.deposit(caller, escrowReturned, mutations); err != nil {
			mutations.Cancel()
			return 0, 0, err
		}
	}

	rewardPaid, applyReward, err := m.tokenLedger.payFromPool(updated.CostTarget/m.opts.rewardDivisor, mutations)
	if err != nil {
		mutations.Cancel()
		return 0, 0, err
	}

	if err := m.storeProject(updated, mutations); err != nil {
		mutations.Cancel()
		return 0, 0, err
	}

	if updated.ProposerStakeKind == StakeKindReputation && escrowReturned > 0 {
		if err := m.reputation.Deposit(caller, escrowReturned); err != nil {
			mutations.Cancel()
			return 0, 0, err
		}
	}

	if err := mutations.Commit(); err != nil {
		if updated.ProposerStakeKind == StakeKindReputation && escrowReturned > 0 {
			_ = m.reputation.Withdraw(caller, escrowReturned)
		}
		return 0, 0, err
	}

	applyReward()
	m.projects[projectID] = updated

	m.Events.ProposerRefunded.Trigger(&ProposerRefundedEvent{
		ProjectID:      projectID,
		Proposer:       caller,
		EscrowReturned: escrowReturned,
		RewardPaid:     rewardPaid,
	})

	return escrowReturned, rewardPaid, nil
}

// AdvanceProject walks a collected project through the later lifecycle phases.
// Only the proposer may advance; the collection-phase transitions are automatic
// and cannot be forced here.
func (m *Manager) AdvanceProject(projectID ProjectID, caller AccountID, next ProjectState) error {
	m.Lock()
	defer m.Unlock()

	project, exists := m.projects[projectID]
	if !exists {
		return errors.Wrap(ErrUnknownProject, projectID.ToHex())
	}
	if caller != project.Proposer {
		return errors.Wrap(ErrNotAuthorized, caller.ToHex())
	}
	if project.State == StateProposed {
		return errors.Wrap(ErrInvalidState, "collection phase transitions are automatic")
	}

	oldState := project.State

	updated := project.Clone()
	if err := updated.transitionTo(next); err != nil {
		return err
	}

	mutations, err := m.store.Batched()
	if err != nil {
		return err
	}
	if err := m.storeProject(updated, mutations); err != nil {
		mutations.Cancel()
		return err
	}
	if err := mutations.Commit(); err != nil {
		return err
	}

	m.projects[projectID] = updated

	m.Events.ProjectAdvanced.Trigger(&ProjectStateEvent{
		ProjectID: projectID,
		OldState:  oldState,
		NewState:  next,
	})

	return nil
}

// TokenInfo is a point-in-time snapshot of the token ledger.
type TokenInfo struct {
	TotalSupply  uint64
	Reserve      uint64
	RewardPool   uint64
	CurrentPrice uint64
}

// TokenInfo returns a consistent snapshot of the token ledger.
func (m *Manager) TokenInfo() TokenInfo {
	m.RLock()
	defer m.RUnlock()

	return TokenInfo{
		TotalSupply:  m.tokenLedger.TotalSupply(),
		Reserve:      m.tokenLedger.Reserve(),
		RewardPool:   m.tokenLedger.RewardPool(),
		CurrentPrice: m.tokenLedger.CurrentPrice(),
	}
}

// TokenBalance returns the token balance of the account.
func (m *Manager) TokenBalance(account AccountID) (uint64, error) {
	m.RLock()
	defer m.RUnlock()
	return m.tokenLedger.BalanceOf(account)
}

// ReputationBalance returns the reputation balance of the account.
func (m *Manager) ReputationBalance(account AccountID) (uint64, error) {
	m.RLock()
	defer m.RUnlock()
	return m.reputation.BalanceOf(account)
}

// Project returns the project with the given ID, or nil if it does not exist.
func (m *Manager) Project(projectID ProjectID) *Project {
	m.RLock()
	defer m.RUnlock()
	return m.projects[projectID]
}

// ProjectIDs returns the IDs of all known projects.
func (m *Manager) ProjectIDs() []ProjectID {
	m.RLock()
	defer m.RUnlock()

	ids := make([]ProjectID, 0, len(m.projects))
	for id := range m.projects {
		ids = append(ids, id)
	}
	return ids
}

// StakerInfo holds the stake and weight of a single staker.
type StakerInfo struct {
	Account    AccountID
	Tokens     uint64
	Reputation uint64
	Weight     uint64
}

// ProjectStakers returns a consistent snapshot of all stakers of the project
// with their current weights.
func (m *Manager) ProjectStakers(projectID ProjectID) ([]*StakerInfo, error) {
	m.RLock()
	defer m.RUnlock()

	project, exists := m.projects[projectID]
	if !exists {
		return nil, errors.Wrap(ErrUnknownProject, projectID.ToHex())
	}

	seen := make(map[AccountID]struct{})
	var stakers []*StakerInfo
	for _, account := range append(project.TokenStakers(), project.ReputationStakers()...) {
		if _, ok := seen[account]; ok {
			continue
		}
		seen[account] = struct{}{}
		stakers = append(stakers, &StakerInfo{
			Account:    account,
			Tokens:     project.StakedTokens(account),
			Reputation: project.StakedReputation(account),
			Weight:     project.WeightOf(account),
		})
	}
	return stakers, nil
}

// ProjectsInState returns all projects currently in the given state.
func (m *Manager) ProjectsInState(state ProjectState) []*Project {
	m.RLock()
	defer m.RUnlock()

	var projects []*Project
	for _, project := range m.projects {
		if project.State == state {
			projects = append(projects, project)
		}
	}
	return projects
}

func ceilDiv(a uint64, b uint64) uint64 {
	return (a + b - 1) / b
}

func (m *Manager) projectKey(projectID ProjectID) []byte {
	mu := marshalutil.New(1 + ProjectIDLength)
	mu.WriteByte(StoreKeyPrefixProjects)
	mu.WriteBytes(projectID[:])
	return mu.Bytes()
}

func (m *Manager) storeProject(project *Project, mutations kvstore.BatchedMutations) error {
	return mutations.Set(m.projectKey(project.ID), project.Bytes())
}

func (m *Manager) loadProjects() (map[ProjectID]*Project, error) {
	projects := make(map[ProjectID]*Project)

	var innerErr error
	if err := m.store.Iterate([]byte{StoreKeyPrefixProjects}, func(key kvstore.Key, value kvstore.Value) bool {
		project, err := ProjectFromBytes(value)
		if err != nil {
			innerErr = err
			return false
		}
		projects[project.ID] = project
		return true
	}); err != nil {
		return nil, err
	}
	if innerErr != nil {
		return nil, innerErr
	}

	return projects, nil
}

func (m *Manager) loadProjectCounter() (uint64, error) {
	value, err := m.store.Get([]byte{StoreKeyPrefixRegistryStatus})
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return uint64FromBytes(value)
}
