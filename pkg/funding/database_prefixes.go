package funding

const (
	// Holds the token ledger status (supply, reserve, reward pool).
	StoreKeyPrefixTokenLedgerStatus byte = 0

	// Holds the token balances per account.
	StoreKeyPrefixTokenBalances byte = 1

	// Holds the reputation ledger status (total supply, registered accounts).
	StoreKeyPrefixReputationStatus byte = 2

	// Holds the reputation balances per registered account.
	StoreKeyPrefixReputationBalances byte = 3

	// Holds the projects.
	StoreKeyPrefixProjects byte = 4

	// Holds the registry status (project counter).
	StoreKeyPrefixRegistryStatus byte = 5
)
