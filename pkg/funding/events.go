package funding

import (
	"github.com/iotaledger/hive.go/core/events"
)

// Events are triggered by the Manager on every state-changing operation, after
// the mutation committed. Consumers (loggers, indexers) attach closures; delivery
// guarantees are out of scope.
type Events struct {
	// TokensMinted is triggered with a *TokenMintedEvent.
	TokensMinted *events.Event
	// TokensBurned is triggered with a *TokenBurnedEvent.
	TokensBurned *events.Event
	// ProjectProposed is triggered with a *ProjectProposedEvent.
	ProjectProposed *events.Event
	// TokensStaked is triggered with a *TokenStakeEvent.
	TokensStaked *events.Event
	// TokensUnstaked is triggered with a *TokenStakeEvent.
	TokensUnstaked *events.Event
	// ReputationStaked is triggered with a *ReputationStakeEvent.
	ReputationStaked *events.Event
	// ReputationUnstaked is triggered with a *ReputationStakeEvent.
	ReputationUnstaked *events.Event
	// ProjectCollected is triggered with a *ProjectStateEvent when the funding target is reached.
	ProjectCollected *events.Event
	// ProjectFailed is triggered with a *ProjectStateEvent on a deadline sweep failure.
	ProjectFailed *events.Event
	// ProjectAdvanced is triggered with a *ProjectStateEvent on a manual lifecycle transition.
	ProjectAdvanced *events.Event
	// ProposerRefunded is triggered with a *ProposerRefundedEvent.
	ProposerRefunded *events.Event
}

func newEvents() *Events {
	return &Events{
		TokensMinted:       events.NewEvent(tokenMintedCaller),
		TokensBurned:       events.NewEvent(tokenBurnedCaller),
		ProjectProposed:    events.NewEvent(projectProposedCaller),
		TokensStaked:       events.NewEvent(tokenStakeCaller),
		TokensUnstaked:     events.NewEvent(tokenStakeCaller),
		ReputationStaked:   events.NewEvent(reputationStakeCaller),
		ReputationUnstaked: events.NewEvent(reputationStakeCaller),
		ProjectCollected:   events.NewEvent(projectStateCaller),
		ProjectFailed:      events.NewEvent(projectStateCaller),
		ProjectAdvanced:    events.NewEvent(projectStateCaller),
		ProposerRefunded:   events.NewEvent(proposerRefundedCaller),
	}
}

// TokenMintedEvent carries the outcome of a mint.
type TokenMintedEvent struct {
	Account     AccountID
	Amount      uint64
	Cost        uint64
	Refund      uint64
	TotalSupply uint64
	Reserve     uint64
}

// TokenBurnedEvent carries the outcome of a burn.
type TokenBurnedEvent struct {
	Account     AccountID
	Amount      uint64
	Payout      uint64
	TotalSupply uint64
	Reserve     uint64
}

// ProjectProposedEvent carries the outcome of a proposal.
type ProjectProposedEvent struct {
	ProjectID     ProjectID
	Proposer      AccountID
	StakeKind     StakeKind
	ProposerStake uint64
	CostTarget    uint64
}

// TokenStakeEvent carries the outcome of a token stake or unstake.
type TokenStakeEvent struct {
	ProjectID        ProjectID
	Staker           AccountID
	Requested        uint64
	Accepted         uint64
	ReserveCommitted uint64
}

// ReputationStakeEvent carries the outcome of a reputation stake or unstake.
type ReputationStakeEvent struct {
	ProjectID        ProjectID
	Staker           AccountID
	Amount           uint64
	ReputationStaked uint64
}

// ProjectStateEvent carries a lifecycle transition.
type ProjectStateEvent struct {
	ProjectID ProjectID
	OldState  ProjectState
	NewState  ProjectState
}

// ProposerRefundedEvent carries the outcome of a proposer refund.
type ProposerRefundedEvent struct {
	ProjectID      ProjectID
	Proposer       AccountID
	EscrowReturned uint64
	RewardPaid     uint64
}

func tokenMintedCaller(handler interface{}, params ...interface{}) {
	handler.(func(*TokenMintedEvent))(params[0].(*TokenMintedEvent))
}

func tokenBurnedCaller(handler interface{}, params ...interface{}) {
	handler.(func(*TokenBurnedEvent))(params[0].(*TokenBurnedEvent))
}

func projectProposedCaller(handler interface{}, params ...interface{}) {
	handler.(func(*ProjectProposedEvent))(params[0].(*ProjectProposedEvent))
}

func tokenStakeCaller(handler interface{}, params ...interface{}) {
	handler.(func(*TokenStakeEvent))(params[0].(*TokenStakeEvent))
}

func reputationStakeCaller(handler interface{}, params ...interface{}) {
	handler.(func(*ReputationStakeEvent))(params[0].(*ReputationStakeEvent))
}

func projectStateCaller(handler interface{}, params ...interface{}) {
	handler.(func(*ProjectStateEvent))(params[0].(*ProjectStateEvent))
}

func proposerRefundedCaller(handler interface{}, params ...interface{}) {
	handler.(func(*ProposerRefundedEvent))(params[0].(*ProposerRefundedEvent))
}
