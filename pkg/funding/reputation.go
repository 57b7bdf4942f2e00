package funding

import (
	"github.com/pkg/errors"

	"github.com/iotaledger/hive.go/core/kvstore"
	"github.com/iotaledger/hive.go/core/marshalutil"
)

var (
	ErrAlreadyRegistered = errors.New("the account is already registered")
	ErrNotRegistered     = errors.New("the account is not registered")
)

// ReputationLedger is the external collaborator holding the non-transferable
// reputation currency. Register grants a one-time fixed amount; there is no
// further minting. Withdraw, Deposit and Burn are the hooks the staking core uses
// to escrow, return and forfeit staked reputation.
type ReputationLedger interface {
	Register(account AccountID) error
	BalanceOf(account AccountID) (uint64, error)
	TotalSupply() (uint64, error)
	TotalRegistered() (uint64, error)
	Withdraw(account AccountID, amount uint64) error
	Deposit(account AccountID, amount uint64) error
	Burn(amount uint64) error
}

// ReputationRegistry is a kvstore-backed ReputationLedger.
type ReputationRegistry struct {
	store kvstore.KVStore
	grant uint64
}

// NewReputationRegistry creates a reputation registry granting the given amount
// of reputation on registration.
func NewReputationRegistry(store kvstore.KVStore, registrationGrant uint64) *ReputationRegistry {
	return &ReputationRegistry{
		store: store,
		grant: registrationGrant,
	}
}

// Register credits the one-time registration grant to the account. A second call
// for the same account fails with ErrAlreadyRegistered.
func (rr *ReputationRegistry) Register(account AccountID) error {
	exists, err := rr.store.Has(rr.balanceKey(account))
	if err != nil {
		return err
	}
	if exists {
		return errors.Wrap(ErrAlreadyRegistered, account.ToHex())
	}

	totalSupply, totalRegistered, err := rr.status()
	if err != nil {
		return err
	}

	mutations, err := rr.store.Batched()
	if err != nil {
		return err
	}
	if err := mutations.Set(rr.balanceKey(account), uint64Bytes(rr.grant)); err != nil {
		mutations.Cancel()
		return err
	}
	if err := rr.storeStatus(totalSupply+rr.grant, totalRegistered+1, mutations); err != nil {
		mutations.Cancel()
		return err
	}
	return mutations.Commit()
}

// BalanceOf returns the unstaked reputation balance of the account.
func (rr *ReputationRegistry) BalanceOf(account AccountID) (uint64, error) {
	value, err := rr.store.Get(rr.balanceKey(account))
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return uint64FromBytes(value)
}

// TotalSupply returns the total amount of reputation ever granted minus what was
// forfeited.
func (rr *ReputationRegistry) TotalSupply() (uint64, error) {
	totalSupply, _, err := rr.status()
	return totalSupply, err
}

// TotalRegistered returns the number of registered accounts.
func (rr *ReputationRegistry) TotalRegistered() (uint64, error) {
	_, totalRegistered, err := rr.status()
	return totalRegistered, err
}

// Withdraw moves reputation out of the account balance into escrow held by the
// caller. The registered marker is kept even when the balance drops to zero.
func (rr *ReputationRegistry) Withdraw(account AccountID, amount uint64) error {
	exists, err := rr.store.Has(rr.balanceKey(account))
	if err != nil {
		return err
	}
	if !exists {
		return errors.Wrap(ErrNotRegistered, account.ToHex())
	}

	balance, err := rr.BalanceOf(account)
	if err != nil {
		return err
	}
	if balance < amount {
		return errors.Wrapf(ErrInsufficientBalance, "withdrawing %d reputation, account holds %d", amount, balance)
	}
	return rr.store.Set(rr.balanceKey(account), uint64Bytes(balance-amount))
}

// Deposit returns escrowed reputation to the account balance.
func (rr *ReputationRegistry) Deposit(account AccountID, amount uint64) error {
	exists, err := rr.store.Has(rr.balanceKey(account))
	if err != nil {
		return err
	}
	if !exists {
		return errors.Wrap(ErrNotRegistered, account.ToHex())
	}

	balance, err := rr.BalanceOf(account)
	if err != nil {
		return err
	}
	return rr.store.Set(rr.balanceKey(account), uint64Bytes(balance+amount))
}

// Burn destroys escrowed reputation, removing it from the total supply.
func (rr *ReputationRegistry) Burn(amount uint64) error {
	totalSupply, totalRegistered, err := rr.status()
	if err != nil {
		return err
	}
	if totalSupply < amount {
		return errors.Wrapf(ErrInsufficientBalance, "burning %d reputation, supply is %d", amount, totalSupply)
	}
	return rr.storeStatusDirect(totalSupply-amount, totalRegistered)
}

func (rr *ReputationRegistry) balanceKey(account AccountID) []byte {
	m := marshalutil.New(1 + AccountIDLength)
	m.WriteByte(StoreKeyPrefixReputationBalances)
	m.WriteBytes(account[:])
	return m.Bytes()
}

func (rr *ReputationRegistry) status() (totalSupply uint64, totalRegistered uint64, err error) {
	value, err := rr.store.Get([]byte{StoreKeyPrefixReputationStatus})
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, err
	}

	m := marshalutil.New(value)
	if totalSupply, err = m.ReadUint64(); err != nil {
		return 0, 0, err
	}
	if totalRegistered, err = m.ReadUint64(); err != nil {
		return 0, 0, err
	}
	return totalSupply, totalRegistered, nil
}

func (rr *ReputationRegistry) statusBytes(totalSupply uint64, totalRegistered uint64) []byte {
	m := marshalutil.New(16)
	m.WriteUint64(totalSupply)
	m.WriteUint64(totalRegistered)
	return m.Bytes()
}

func (rr *ReputationRegistry) storeStatus(totalSupply uint64, totalRegistered uint64, mutations kvstore.BatchedMutations) error {
	return mutations.Set([]byte{StoreKeyPrefixReputationStatus}, rr.statusBytes(totalSupply, totalRegistered))
}

func (rr *ReputationRegistry) storeStatusDirect(totalSupply uint64, totalRegistered uint64) error {
	return rr.store.Set([]byte{StoreKeyPrefixReputationStatus}, rr.statusBytes(totalSupply, totalRegistered))
}
