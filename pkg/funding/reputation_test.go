package funding_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hive.go/core/kvstore/mapdb"

	"github.com/distributeproject/distribute-go/pkg/funding"
)

func TestReputationRegister(t *testing.T) {
	registry := funding.NewReputationRegistry(mapdb.NewMapDB(), 10000)

	alice := accountID(1)

	require.NoError(t, registry.Register(alice))

	balance, err := registry.BalanceOf(alice)
	require.NoError(t, err)
	require.EqualValues(t, 10000, balance)

	totalSupply, err := registry.TotalSupply()
	require.NoError(t, err)
	require.EqualValues(t, 10000, totalSupply)

	totalRegistered, err := registry.TotalRegistered()
	require.NoError(t, err)
	require.EqualValues(t, 1, totalRegistered)

	// the grant is handed out exactly once
	require.ErrorIs(t, registry.Register(alice), funding.ErrAlreadyRegistered)
}

func TestReputationWithdrawDeposit(t *testing.T) {
	registry := funding.NewReputationRegistry(mapdb.NewMapDB(), 10000)

	alice := accountID(1)
	require.NoError(t, registry.Register(alice))

	require.NoError(t, registry.Withdraw(alice, 400))

	balance, err := registry.BalanceOf(alice)
	require.NoError(t, err)
	require.EqualValues(t, 9600, balance)

	require.NoError(t, registry.Deposit(alice, 400))

	balance, err = registry.BalanceOf(alice)
	require.NoError(t, err)
	require.EqualValues(t, 10000, balance)

	require.ErrorIs(t, registry.Withdraw(alice, 10001), funding.ErrInsufficientBalance)
}

func TestReputationUnregisteredAccount(t *testing.T) {
	registry := funding.NewReputationRegistry(mapdb.NewMapDB(), 10000)

	bob := accountID(2)

	require.ErrorIs(t, registry.Withdraw(bob, 1), funding.ErrNotRegistered)
	require.ErrorIs(t, registry.Deposit(bob, 1), funding.ErrNotRegistered)

	// unregistered accounts read as zero balance
	balance, err := registry.BalanceOf(bob)
	require.NoError(t, err)
	require.Zero(t, balance)
}

func TestReputationZeroBalanceStaysRegistered(t *testing.T) {
	registry := funding.NewReputationRegistry(mapdb.NewMapDB(), 10000)

	alice := accountID(1)
	require.NoError(t, registry.Register(alice))
	require.NoError(t, registry.Withdraw(alice, 10000))

	require.ErrorIs(t, registry.Register(alice), funding.ErrAlreadyRegistered)
	require.NoError(t, registry.Deposit(alice, 10000))
}

func TestReputationBurn(t *testing.T) {
	registry := funding.NewReputationRegistry(mapdb.NewMapDB(), 10000)

	alice := accountID(1)
	require.NoError(t, registry.Register(alice))
	require.NoError(t, registry.Withdraw(alice, 500))

	require.NoError(t, registry.Burn(500))

	totalSupply, err := registry.TotalSupply()
	require.NoError(t, err)
	require.EqualValues(t, 9500, totalSupply)

	require.ErrorIs(t, registry.Burn(10000), funding.ErrInsufficientBalance)
}
