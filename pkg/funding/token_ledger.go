package funding

import (
	"math/bits"

	"github.com/pkg/errors"

	"github.com/iotaledger/hive.go/core/kvstore"
	"github.com/iotaledger/hive.go/core/marshalutil"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInsufficientPayment = errors.New("insufficient payment")
	ErrAmountTooLarge      = errors.New("the requested amount exceeds the maximum token supply")
	ErrInvalidCurve        = errors.New("the bonding curve must have a non-zero base price")
)

// reserveOverflows reports whether the reserve backing the given supply would
// overflow uint64 for the given curve parameters.
func reserveOverflows(basePrice uint64, priceSlope uint64, supply uint64) bool {
	if supply == 0 {
		return false
	}
	hiBase, loBase := bits.Mul64(supply, basePrice)
	if hiBase != 0 {
		return true
	}
	// sum of (k-1) for k in [1, supply]; supply and supply-1 have opposite parity
	var weights uint64
	if supply%2 == 0 {
		weights = supply / 2 * (supply - 1)
	} else {
		weights = (supply - 1) / 2 * supply
	}
	hiSlope, loSlope := bits.Mul64(priceSlope, weights)
	if hiSlope != 0 {
		return true
	}
	_, carry := bits.Add64(loBase, loSlope, 0)

	return carry != 0
}

// maxSupplyForCurve returns the largest supply not exceeding MaxTokenAmount
// whose reserve still fits uint64.
func maxSupplyForCurve(basePrice uint64, priceSlope uint64) uint64 {
	lo, hi := uint64(0), uint64(MaxTokenAmount)
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		if reserveOverflows(basePrice, priceSlope, mid) {
			hi = mid - 1
		} else {
			lo = mid
		}
	}

	return lo
}

// MaxTokenAmount bounds the total supply of the token. Steep curves carry a
// lower, curve-derived bound keeping the closed-form reserve within uint64.
const MaxTokenAmount = 1 << 32

// TokenLedger is the source of truth for supply, reserve and per-account balances
// of the stake currency. The marginal price of the k-th unit follows the linear
// bonding curve price(k) = basePrice + priceSlope*(k-1), applied symmetrically to
// mint and burn, so the reserve always equals the sum of the unit prices of the
// outstanding supply.
//
// The ledger carries no lock of its own; all mutations are serialized by the
// owning Manager.
type TokenLedger struct {
	store kvstore.KVStore

	basePrice  uint64
	priceSlope uint64
	maxSupply  uint64

	totalSupply uint64
	reserve     uint64
	rewardPool  uint64
}

// NewTokenLedger creates a token ledger on top of the given store, restoring any
// previously persisted state.
func NewTokenLedger(store kvstore.KVStore, basePrice uint64, priceSlope uint64) (*TokenLedger, error) {
	if basePrice == 0 {
		return nil, ErrInvalidCurve
	}

	tl := &TokenLedger{
		store:      store,
		basePrice:  basePrice,
		priceSlope: priceSlope,
		maxSupply:  maxSupplyForCurve(basePrice, priceSlope),
	}

	if err := tl.loadStatus(); err != nil {
		return nil, err
	}

	return tl, nil
}

// TotalSupply returns the amount of tokens in circulation.
func (tl *TokenLedger) TotalSupply() uint64 {
	return tl.totalSupply
}

// Reserve returns the pooled collateral backing the outstanding supply.
func (tl *TokenLedger) Reserve() uint64 {
	return tl.reserve
}

// RewardPool returns the balance of the protocol pool that funds proposer rewards.
// It is fed by forfeited proposer escrows and is separate from the curve-backed
// reserve.
func (tl *TokenLedger) RewardPool() uint64 {
	return tl.rewardPool
}

// CurrentPrice returns the marginal price of the next unit to be minted. It is a
// point-in-time read with no reservation; the price may have moved by the time a
// caller submits a mutating call based on it.
func (tl *TokenLedger) CurrentPrice() uint64 {
	return tl.basePrice + tl.priceSlope*tl.totalSupply
}

// priceSum returns the sum of the unit prices for the supply window [from, to].
func (tl *TokenLedger) priceSum(from uint64, to uint64) uint64 {
	if to < from {
		return 0
	}
	n := to - from + 1
	// sum of (k-1) for k in [from, to]; from+to-2 and n cannot both be odd
	var weights uint64
	if (from+to-2)%2 == 0 {
		weights = (from + to - 2) / 2 * n
	} else {
		weights = n / 2 * (from + to - 2)
	}
	return n*tl.basePrice + tl.priceSlope*weights
}

// MaxSupply returns the supply bound of the ledger, see MaxTokenAmount.
func (tl *TokenLedger) MaxSupply() uint64 {
	return tl.maxSupply
}

// PriceToMint returns the cost of minting the given amount of tokens on top of the
// current supply.
func (tl *TokenLedger) PriceToMint(amount uint64) (uint64, error) {
	if amount > tl.maxSupply || tl.totalSupply+amount > tl.maxSupply {
		return 0, ErrAmountTooLarge
	}
	return tl.priceSum(tl.totalSupply+1, tl.totalSupply+amount), nil
}

// PriceToBurn returns the payout for burning the given amount of tokens from the
// current supply. It is the exact inverse of PriceToMint over the same window.
func (tl *TokenLedger) PriceToBurn(amount uint64) (uint64, error) {
	if amount > tl.totalSupply {
		return 0, ErrInsufficientBalance
	}
	return tl.priceSum(tl.totalSupply-amount+1, tl.totalSupply), nil
}

// Mint credits the given amount of new tokens to the account against the supplied
// deposit. The deposit must cover the curve cost; any excess is not retained but
// returned to the caller. The supply, reserve and balance move as one unit.
func (tl *TokenLedger) Mint(account AccountID, amount uint64, deposit uint64) (refund uint64, err error) {
	cost, err := tl.PriceToMint(amount)
	if err != nil {
		return 0, err
	}
	if deposit < cost {
		return 0, errors.Wrapf(ErrInsufficientPayment, "minting %d tokens requires %d, got %d", amount, cost, deposit)
	}

	balance, err := tl.balance(account)
	if err != nil {
		return 0, err
	}

	mutations, err := tl.store.Batched()
	if err != nil {
		return 0, err
	}

	if err := tl.setBalance(account, balance+amount, mutations); err != nil {
		mutations.Cancel()
		return 0, err
	}
	if err := tl.storeStatus(tl.totalSupply+amount, tl.reserve+cost, tl.rewardPool, mutations); err != nil {
		mutations.Cancel()
		return 0, err
	}
	if err := mutations.Commit(); err != nil {
		return 0, err
	}

	tl.totalSupply += amount
	tl.reserve += cost

	return deposit - cost, nil
}

// Burn destroys the given amount of tokens held by the account and pays the curve
// value of the burned window back out of the reserve.
func (tl *TokenLedger) Burn(account AccountID, amount uint64) (payout uint64, err error) {
	balance, err := tl.balance(account)
	if err != nil {
		return 0, err
	}
	if balance < amount {
		return 0, errors.Wrapf(ErrInsufficientBalance, "burning %d tokens, account holds %d", amount, balance)
	}

	payout, err = tl.PriceToBurn(amount)
	if err != nil {
		return 0, err
	}

	mutations, err := tl.store.Batched()
	if err != nil {
		return 0, err
	}

	if err := tl.setBalance(account, balance-amount, mutations); err != nil {
		mutations.Cancel()
		return 0, err
	}
	if err := tl.storeStatus(tl.totalSupply-amount, tl.reserve-payout, tl.rewardPool, mutations); err != nil {
		mutations.Cancel()
		return 0, err
	}
	if err := mutations.Commit(); err != nil {
		return 0, err
	}

	tl.totalSupply -= amount
	tl.reserve -= payout

	return payout, nil
}

// BalanceOf returns the token balance of the given account.
func (tl *TokenLedger) BalanceOf(account AccountID) (uint64, error) {
	return tl.balance(account)
}

// withdraw stages moving tokens out of an account balance into escrow held by
// the caller. The supply does not change. The write only takes effect when the
// mutations are committed.
func (tl *TokenLedger) withdraw(account AccountID, amount uint64, mutations kvstore.BatchedMutations) error {
	balance, err := tl.balance(account)
	if err != nil {
		return err
	}
	if balance < amount {
		return errors.Wrapf(ErrInsufficientBalance, "withdrawing %d tokens, account holds %d", amount, balance)
	}
	return mutations.Set(tl.balanceKey(account), uint64Bytes(balance-amount))
}

// deposit stages returning escrowed tokens to an account balance.
func (tl *TokenLedger) deposit(account AccountID, amount uint64, mutations kvstore.BatchedMutations) error {
	balance, err := tl.balance(account)
	if err != nil {
		return err
	}
	return mutations.Set(tl.balanceKey(account), uint64Bytes(balance+amount))
}

// burnToPool stages burning escrowed tokens, crediting their burn value to the
// reward pool instead of paying it out. Used for forfeited proposer escrows.
// The returned apply func updates the in-memory state and must be called after
// the mutations committed.
func (tl *TokenLedger) burnToPool(amount uint64, mutations kvstore.BatchedMutations) (apply func(), err error) {
	value, err := tl.PriceToBurn(amount)
	if err != nil {
		return nil, err
	}

	if err := tl.storeStatus(tl.totalSupply-amount, tl.reserve-value, tl.rewardPool+value, mutations); err != nil {
		return nil, err
	}

	return func() {
		tl.totalSupply -= amount
		tl.reserve -= value
		tl.rewardPool += value
	}, nil
}

// payFromPool stages paying up to the requested amount out of the reward pool
// and reports how much will be paid. The returned apply func updates the
// in-memory state and must be called after the mutations committed.
func (tl *TokenLedger) payFromPool(amount uint64, mutations kvstore.BatchedMutations) (paid uint64, apply func(), err error) {
	paid = amount
	if paid > tl.rewardPool {
		paid = tl.rewardPool
	}

	if err := tl.storeStatus(tl.totalSupply, tl.reserve, tl.rewardPool-paid, mutations); err != nil {
		return 0, nil, err
	}

	return paid, func() { tl.rewardPool -= paid }, nil
}

func (tl *TokenLedger) balanceKey(account AccountID) []byte {
	m := marshalutil.New(1 + AccountIDLength)
	m.WriteByte(StoreKeyPrefixTokenBalances)
	m.WriteBytes(account[:])
	return m.Bytes()
}

func (tl *TokenLedger) balance(account AccountID) (uint64, error) {
	value, err := tl.store.Get(tl.balanceKey(account))
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return uint64FromBytes(value)
}

func (tl *TokenLedger) setBalance(account AccountID, balance uint64, mutations kvstore.BatchedMutations) error {
	return mutations.Set(tl.balanceKey(account), uint64Bytes(balance))
}

func (tl *TokenLedger) loadStatus() error {
	value, err := tl.store.Get([]byte{StoreKeyPrefixTokenLedgerStatus})
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	m := marshalutil.New(value)
	if tl.totalSupply, err = m.ReadUint64(); err != nil {
		return err
	}
	if tl.reserve, err = m.ReadUint64(); err != nil {
		return err
	}
	if tl.rewardPool, err = m.ReadUint64(); err != nil {
		return err
	}
	return nil
}

func (tl *TokenLedger) statusBytes(totalSupply uint64, reserve uint64, rewardPool uint64) []byte {
	m := marshalutil.New(24)
	m.WriteUint64(totalSupply)
	m.WriteUint64(reserve)
	m.WriteUint64(rewardPool)
	return m.Bytes()
}

func (tl *TokenLedger) storeStatus(totalSupply uint64, reserve uint64, rewardPool uint64, mutations kvstore.BatchedMutations) error {
	return mutations.Set([]byte{StoreKeyPrefixTokenLedgerStatus}, tl.statusBytes(totalSupply, reserve, rewardPool))
}

func uint64Bytes(value uint64) []byte {
	m := marshalutil.New(8)
	m.WriteUint64(value)
	return m.Bytes()
}

func uint64FromBytes(value []byte) (uint64, error) {
	return marshalutil.New(value).ReadUint64()
}
