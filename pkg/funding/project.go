package funding

import (
	"bytes"
	"sort"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"

	"github.com/iotaledger/hive.go/core/marshalutil"
	"github.com/iotaledger/hive.go/serializer/v2"
)

var (
	ErrInvalidState      = errors.New("the operation is not legal in the current project state")
	ErrInvalidTransition = errors.New("illegal project state transition")
	ErrProjectCorrupted  = errors.New("the stored project could not be parsed")
)

// StakeKind discriminates which currency a proposer escrowed.
type StakeKind uint8

const (
	StakeKindToken      StakeKind = 0
	StakeKindReputation StakeKind = 1
)

// ProjectState is a state of the project lifecycle.
type ProjectState uint8

const (
	// StateProposed is the collection phase; the only state accepting stake and unstake.
	StateProposed ProjectState = 1
	// StateCollected is reached the instant the funding target is fully backed.
	StateCollected ProjectState = 2
	// StateActive is the working phase after collection.
	StateActive ProjectState = 3
	// StateValidating is the phase in which delivered work is validated.
	StateValidating ProjectState = 4
	// StateSucceeded is the successful terminal state.
	StateSucceeded ProjectState = 5
	// StateFailed is the failed terminal state.
	StateFailed ProjectState = 6
)

func (s ProjectState) String() string {
	switch s {
	case StateProposed:
		return "proposed"
	case StateCollected:
		return "collected"
	case StateActive:
		return "active"
	case StateValidating:
		return "validating"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// stateTransitions is the lifecycle table. Proposed->Collected and
// Proposed->Failed carry precise predicates (full backing, deadline sweep); the
// later phases are registered here so they can only be walked in order, their
// predicates live with the operations that will drive them.
var stateTransitions = map[ProjectState][]ProjectState{
	StateProposed:   {StateCollected, StateFailed},
	StateCollected:  {StateActive, StateFailed},
	StateActive:     {StateValidating, StateFailed},
	StateValidating: {StateSucceeded, StateFailed},
}

// CanTransitionTo tells whether the lifecycle table allows moving to next.
func (s ProjectState) CanTransitionTo(next ProjectState) bool {
	for _, allowed := range stateTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal tells whether no further transitions are possible.
func (s ProjectState) IsTerminal() bool {
	return len(stateTransitions[s]) == 0
}

// Project is one capital-seeking project: its funding target, lifecycle state and
// the per-staker escrow ledgers. Projects are only ever mutated by the Manager
// holding its lock.
type Project struct {
	// ID is derived from the proposal content and never changes.
	ID ProjectID
	// CostTarget is the amount of reserve currency the project requests.
	CostTarget uint64
	// Proposer is the identity that proposed the project.
	Proposer AccountID
	// ProposerStakeKind tells which currency the proposer escrowed.
	ProposerStakeKind StakeKind
	// ProposerStakeAmount is the outstanding escrow; zeroed on refund or forfeiture.
	ProposerStakeAmount uint64
	// ProposerRefunded marks that the proposer refund was paid out.
	ProposerRefunded bool
	// Deadline is the end of the collection phase.
	Deadline time.Time
	// MetadataHash is the opaque content hash of the project metadata.
	MetadataHash []byte
	// State is the current lifecycle state.
	State ProjectState

	// TokensStaked is the cumulative stake currency committed.
	TokensStaked uint64
	// ReputationStaked is the cumulative reputation committed.
	ReputationStaked uint64
	// ReserveCommitted is the monetary value backing TokensStaked; never exceeds CostTarget.
	ReserveCommitted uint64

	stakerTokens     map[AccountID]uint64
	stakerValues     map[AccountID]uint64
	stakerReputation map[AccountID]uint64
}

// deriveProjectID derives the content-addressed identity of a proposal. The
// registry-assigned nonce makes otherwise identical proposals distinct.
func deriveProjectID(proposer AccountID, kind StakeKind, costTarget uint64, deadline time.Time, metadataHash []byte, nonce uint64) (ProjectID, error) {
	data, err := serializer.NewSerializer().
		WriteBytes(proposer[:], func(err error) error {
			return errors.Wrap(err, "unable to serialize proposer in proposal")
		}).
		WriteNum(uint8(kind), func(err error) error {
			return errors.Wrap(err, "unable to serialize stake kind in proposal")
		}).
		WriteNum(costTarget, func(err error) error {
			return errors.Wrap(err, "unable to serialize cost target in proposal")
		}).
		WriteNum(uint64(deadline.Unix()), func(err error) error {
			return errors.Wrap(err, "unable to serialize deadline in proposal")
		}).
		WriteVariableByteSlice(metadataHash, serializer.SeriLengthPrefixTypeAsByte, func(err error) error {
			return errors.Wrap(err, "unable to serialize metadata hash in proposal")
		}, 0, 0).
		WriteNum(nonce, func(err error) error {
			return errors.Wrap(err, "unable to serialize nonce in proposal")
		}).
		Serialize()
	if err != nil {
		return NullProjectID, err
	}

	return ProjectID(blake2b.Sum256(data)), nil
}

// Clone returns a deep copy of the project. Mutating operations work on a copy
// and only swap it in once the corresponding store mutations committed.
func (p *Project) Clone() *Project {
	clone := *p
	clone.MetadataHash = append([]byte(nil), p.MetadataHash...)
	clone.stakerTokens = make(map[AccountID]uint64, len(p.stakerTokens))
	for account, amount := range p.stakerTokens {
		clone.stakerTokens[account] = amount
	}
	clone.stakerValues = make(map[AccountID]uint64, len(p.stakerValues))
	for account, amount := range p.stakerValues {
		clone.stakerValues[account] = amount
	}
	clone.stakerReputation = make(map[AccountID]uint64, len(p.stakerReputation))
	for account, amount := range p.stakerReputation {
		clone.stakerReputation[account] = amount
	}

	return &clone
}

// StakedTokens returns the recorded token stake of the account.
func (p *Project) StakedTokens(account AccountID) uint64 {
	return p.stakerTokens[account]
}

// StakedReputation returns the recorded reputation stake of the account.
func (p *Project) StakedReputation(account AccountID) uint64 {
	return p.stakerReputation[account]
}

// IsStaker tells whether the account has any stake recorded on the project.
func (p *Project) IsStaker(account AccountID) bool {
	return p.stakerTokens[account] > 0 || p.stakerReputation[account] > 0
}

// WeightOf returns the percentage weight of the account among the project
// stakers. Token stakers share one half of the weight, reputation stakers the
// other.
func (p *Project) WeightOf(account AccountID) uint64 {
	var weight uint64
	if p.TokensStaked > 0 {
		weight += p.stakerTokens[account] * 100 / p.TokensStaked
	}
	if p.ReputationStaked > 0 {
		weight += p.stakerReputation[account] * 100 / p.ReputationStaked
	}
	return weight / 2
}

// TokenStakers returns the accounts with a recorded token stake.
func (p *Project) TokenStakers() []AccountID {
	return sortedAccounts(p.stakerTokens)
}

// ReputationStakers returns the accounts with a recorded reputation stake.
func (p *Project) ReputationStakers() []AccountID {
	return sortedAccounts(p.stakerReputation)
}

// transitionTo moves the project to the next state, honoring the lifecycle table.
func (p *Project) transitionTo(next ProjectState) error {
	if !p.State.CanTransitionTo(next) {
		return errors.Wrapf(ErrInvalidTransition, "%s -> %s", p.State, next)
	}
	p.State = next
	return nil
}

// addTokenStake records an accepted token stake and the reserve value backing it.
func (p *Project) addTokenStake(staker AccountID, tokens uint64, value uint64) {
	p.stakerTokens[staker] += tokens
	p.stakerValues[staker] += value
	p.TokensStaked += tokens
	p.ReserveCommitted += value
}

// removeTokenStake releases tokens from a stake together with the proportional
// share of the reserve value the staker committed, so that a full unstake always
// releases the exact committed value.
func (p *Project) removeTokenStake(staker AccountID, tokens uint64) uint64 {
	staked := p.stakerTokens[staker]
	value := p.stakerValues[staker] * tokens / staked

	p.stakerTokens[staker] = staked - tokens
	p.stakerValues[staker] -= value
	if p.stakerTokens[staker] == 0 {
		delete(p.stakerTokens, staker)
		delete(p.stakerValues, staker)
	}
	p.TokensStaked -= tokens
	p.ReserveCommitted -= value

	return value
}

func (p *Project) addReputationStake(staker AccountID, amount uint64) {
	p.stakerReputation[staker] += amount
	p.ReputationStaked += amount
}

func (p *Project) removeReputationStake(staker AccountID, amount uint64) {
	p.stakerReputation[staker] -= amount
	if p.stakerReputation[staker] == 0 {
		delete(p.stakerReputation, staker)
	}
	p.ReputationStaked -= amount
}

// Bytes serializes the project including its per-staker ledgers.
func (p *Project) Bytes() []byte {
	m := marshalutil.New()
	m.WriteBytes(p.ID[:])
	m.WriteUint64(p.CostTarget)
	m.WriteBytes(p.Proposer[:])
	m.WriteUint8(uint8(p.ProposerStakeKind))
	m.WriteUint64(p.ProposerStakeAmount)
	m.WriteBool(p.ProposerRefunded)
	m.WriteUint64(uint64(p.Deadline.Unix()))
	m.WriteUint8(uint8(len(p.MetadataHash)))
	m.WriteBytes(p.MetadataHash)
	m.WriteUint8(uint8(p.State))
	m.WriteUint64(p.TokensStaked)
	m.WriteUint64(p.ReputationStaked)
	m.WriteUint64(p.ReserveCommitted)
	writeAccountAmounts(m, p.stakerTokens)
	writeAccountAmounts(m, p.stakerValues)
	writeAccountAmounts(m, p.stakerReputation)
	return m.Bytes()
}

// ProjectFromBytes deserializes a project stored with Bytes.
func ProjectFromBytes(data []byte) (*Project, error) {
	m := marshalutil.New(data)

	p := &Project{}
	id, err := m.ReadBytes(ProjectIDLength)
	if err != nil {
		return nil, errors.Wrap(ErrProjectCorrupted, err.Error())
	}
	copy(p.ID[:], id)

	if p.CostTarget, err = m.ReadUint64(); err != nil {
		return nil, errors.Wrap(ErrProjectCorrupted, err.Error())
	}

	proposer, err := m.ReadBytes(AccountIDLength)
	if err != nil {
		return nil, errors.Wrap(ErrProjectCorrupted, err.Error())
	}
	copy(p.Proposer[:], proposer)

	kind, err := m.ReadUint8()
	if err != nil {
		return nil, errors.Wrap(ErrProjectCorrupted, err.Error())
	}
	p.ProposerStakeKind = StakeKind(kind)

	if p.ProposerStakeAmount, err = m.ReadUint64(); err != nil {
		return nil, errors.Wrap(ErrProjectCorrupted, err.Error())
	}
	if p.ProposerRefunded, err = m.ReadBool(); err != nil {
		return nil, errors.Wrap(ErrProjectCorrupted, err.Error())
	}

	deadline, err := m.ReadUint64()
	if err != nil {
		return nil, errors.Wrap(ErrProjectCorrupted, err.Error())
	}
	p.Deadline = time.Unix(int64(deadline), 0).UTC()

	hashLen, err := m.ReadUint8()
	if err != nil {
		return nil, errors.Wrap(ErrProjectCorrupted, err.Error())
	}
	if p.MetadataHash, err = m.ReadBytes(int(hashLen)); err != nil {
		return nil, errors.Wrap(ErrProjectCorrupted, err.Error())
	}

	state, err := m.ReadUint8()
	if err != nil {
		return nil, errors.Wrap(ErrProjectCorrupted, err.Error())
	}
	p.State = ProjectState(state)

	if p.TokensStaked, err = m.ReadUint64(); err != nil {
		return nil, errors.Wrap(ErrProjectCorrupted, err.Error())
	}
	if p.ReputationStaked, err = m.ReadUint64(); err != nil {
		return nil, errors.Wrap(ErrProjectCorrupted, err.Error())
	}
	if p.ReserveCommitted, err = m.ReadUint64(); err != nil {
		return nil, errors.Wrap(ErrProjectCorrupted, err.Error())
	}

	if p.stakerTokens, err = readAccountAmounts(m); err != nil {
		return nil, errors.Wrap(ErrProjectCorrupted, err.Error())
	}
	if p.stakerValues, err = readAccountAmounts(m); err != nil {
		return nil, errors.Wrap(ErrProjectCorrupted, err.Error())
	}
	if p.stakerReputation, err = readAccountAmounts(m); err != nil {
		return nil, errors.Wrap(ErrProjectCorrupted, err.Error())
	}

	return p, nil
}

func sortedAccounts(amounts map[AccountID]uint64) []AccountID {
	accounts := make([]AccountID, 0, len(amounts))
	for account := range amounts {
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return bytes.Compare(accounts[i][:], accounts[j][:]) < 0
	})
	return accounts
}

func writeAccountAmounts(m *marshalutil.MarshalUtil, amounts map[AccountID]uint64) {
	m.WriteUint32(uint32(len(amounts)))
	for _, account := range sortedAccounts(amounts) {
		m.WriteBytes(account[:])
		m.WriteUint64(amounts[account])
	}
}

func readAccountAmounts(m *marshalutil.MarshalUtil) (map[AccountID]uint64, error) {
	count, err := m.ReadUint32()
	if err != nil {
		return nil, err
	}

	amounts := make(map[AccountID]uint64, count)
	for i := uint32(0); i < count; i++ {
		accountBytes, err := m.ReadBytes(AccountIDLength)
		if err != nil {
			return nil, err
		}
		var account AccountID
		copy(account[:], accountBytes)

		amount, err := m.ReadUint64()
		if err != nil {
			return nil, err
		}
		amounts[account] = amount
	}
	return amounts, nil
}
