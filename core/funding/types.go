package funding

// TokenInfoResponse defines the response of a GET RouteTokenInfo REST API call.
type TokenInfoResponse struct {
	// The amount of tokens in circulation.
	TotalSupply uint64 `json:"totalSupply"`
	// The pooled collateral backing the outstanding supply.
	Reserve uint64 `json:"reserve"`
	// The balance of the pool funding proposer rewards.
	RewardPool uint64 `json:"rewardPool"`
	// The marginal price of the next token unit.
	CurrentPrice uint64 `json:"currentPrice"`
}

// BalanceResponse defines the response of a balance REST API call.
type BalanceResponse struct {
	// The hex encoded ID of the account.
	Account string `json:"account"`
	// The balance of the account.
	Balance uint64 `json:"balance"`
}

// MintRequest defines the request of a POST RouteTokenMint REST API call.
type MintRequest struct {
	// The hex encoded ID of the account receiving the tokens.
	Account string `json:"account"`
	// The amount of tokens to mint.
	Amount uint64 `json:"amount"`
	// The deposit covering the curve cost of the mint.
	Deposit uint64 `json:"deposit"`
}

// MintResponse defines the response of a POST RouteTokenMint REST API call.
type MintResponse struct {
	// The curve cost of the minted tokens.
	Cost uint64 `json:"cost"`
	// The excess deposit returned to the caller.
	Refund uint64 `json:"refund"`
	// The amount of tokens in circulation after the mint.
	TotalSupply uint64 `json:"totalSupply"`
}

// BurnRequest defines the request of a POST RouteTokenBurn REST API call.
type BurnRequest struct {
	// The hex encoded ID of the account burning the tokens.
	Account string `json:"account"`
	// The amount of tokens to burn.
	Amount uint64 `json:"amount"`
}

// BurnResponse defines the response of a POST RouteTokenBurn REST API call.
type BurnResponse struct {
	// The curve value paid out of the reserve.
	Payout uint64 `json:"payout"`
	// The amount of tokens in circulation after the burn.
	TotalSupply uint64 `json:"totalSupply"`
}

// RegisterRequest defines the request of a POST RouteReputationRegister REST API call.
type RegisterRequest struct {
	// The hex encoded ID of the account to register.
	Account string `json:"account"`
}

// ProposeRequest defines the request of a POST RouteProjectPropose REST API call.
type ProposeRequest struct {
	// The hex encoded ID of the proposer.
	Proposer string `json:"proposer"`
	// The currency of the proposer escrow ("token" or "reputation").
	StakeKind string `json:"stakeKind"`
	// The amount of reserve currency the project requests.
	CostTarget uint64 `json:"costTarget"`
	// The end of the collection phase as a unix timestamp.
	Deadline int64 `json:"deadline"`
	// The hex encoded content hash of the project metadata.
	MetadataHash string `json:"metadataHash"`
}

// ProposeResponse defines the response of a POST RouteProjectPropose REST API call.
type ProposeResponse struct {
	// The hex encoded ID of the created project.
	ProjectID string `json:"projectId"`
	// The escrowed proposer stake.
	ProposerStake uint64 `json:"proposerStake"`
}

// ProjectsResponse defines the response of a GET RouteProjects REST API call.
type ProjectsResponse struct {
	// The hex encoded IDs of the found projects.
	ProjectIDs []string `json:"projectIds"`
}

// ProjectResponse defines the response of a GET RouteProject REST API call.
type ProjectResponse struct {
	// The hex encoded ID of the project.
	ProjectID string `json:"projectId"`
	// The hex encoded ID of the proposer.
	Proposer string `json:"proposer"`
	// The currency of the proposer escrow.
	StakeKind string `json:"stakeKind"`
	// The outstanding proposer escrow.
	ProposerStake uint64 `json:"proposerStake"`
	// The amount of reserve currency the project requests.
	CostTarget uint64 `json:"costTarget"`
	// The end of the collection phase as a unix timestamp.
	Deadline int64 `json:"deadline"`
	// The hex encoded content hash of the project metadata.
	MetadataHash string `json:"metadataHash"`
	// The current lifecycle state.
	State string `json:"state"`
	// The cumulative stake currency committed.
	TokensStaked uint64 `json:"tokensStaked"`
	// The cumulative reputation committed.
	ReputationStaked uint64 `json:"reputationStaked"`
	// The monetary value backing the committed tokens.
	ReserveCommitted uint64 `json:"reserveCommitted"`
}

// StakeRequest defines the request of a stake or unstake REST API call.
type StakeRequest struct {
	// The hex encoded ID of the staker.
	Staker string `json:"staker"`
	// The amount to stake or unstake.
	Amount uint64 `json:"amount"`
}

// StakeResponse defines the response of a stake or unstake REST API call.
type StakeResponse struct {
	// The amount accepted after clamping to the remaining funding gap.
	Accepted uint64 `json:"accepted"`
	// The monetary value backing the committed tokens after the call.
	ReserveCommitted uint64 `json:"reserveCommitted"`
	// The lifecycle state after the call.
	State string `json:"state"`
}

// CheckExpiryResponse defines the response of a POST RouteProjectCheckExpiry REST API call.
type CheckExpiryResponse struct {
	// The lifecycle state after the deadline rule was evaluated.
	State string `json:"state"`
}

// RefundRequest defines the request of a POST RouteProjectRefundProposer REST API call.
type RefundRequest struct {
	// The hex encoded ID of the caller, which must be the proposer.
	Caller string `json:"caller"`
}

// RefundResponse defines the response of a POST RouteProjectRefundProposer REST API call.
type RefundResponse struct {
	// The escrow returned to the proposer.
	EscrowReturned uint64 `json:"escrowReturned"`
	// The reward paid out of the reward pool.
	RewardPaid uint64 `json:"rewardPaid"`
}

// AdvanceRequest defines the request of a POST RouteProjectAdvance REST API call.
type AdvanceRequest struct {
	// The hex encoded ID of the caller, which must be the proposer.
	Caller string `json:"caller"`
	// The lifecycle state to advance to.
	State string `json:"state"`
}

// StakerResponse holds the stake and weight of a single staker.
type StakerResponse struct {
	// The hex encoded ID of the staker.
	Account string `json:"account"`
	// The amount of tokens staked.
	Tokens uint64 `json:"tokens"`
	// The amount of reputation staked.
	Reputation uint64 `json:"reputation"`
	// The percentage weight among the project stakers.
	Weight uint64 `json:"weight"`
}

// StakersResponse defines the response of a GET RouteProjectStakers REST API call.
type StakersResponse struct {
	// The stakers of the project.
	Stakers []*StakerResponse `json:"stakers"`
}
