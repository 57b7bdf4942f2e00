package funding

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/distributeproject/distribute-go/pkg/funding"
)

func parseAccountID(hexString string) (funding.AccountID, error) {
	account, err := funding.AccountIDFromHex(strings.ToLower(hexString))
	if err != nil {
		return funding.AccountID{}, errors.WithMessagef(ErrInvalidParameter, "invalid account ID: %s, error: %s", hexString, err)
	}

	return account, nil
}

func parseProjectIDParam(c echo.Context) (funding.ProjectID, error) {
	projectIDHex := strings.ToLower(c.Param(ParameterProjectID))
	if projectIDHex == "" {
		return funding.NullProjectID, errors.WithMessagef(ErrInvalidParameter, "parameter \"%s\" not specified", ParameterProjectID)
	}

	projectID, err := funding.ProjectIDFromHex(projectIDHex)
	if err != nil {
		return funding.NullProjectID, errors.WithMessagef(ErrInvalidParameter, "invalid project ID: %s, error: %s", projectIDHex, err)
	}

	return projectID, nil
}

func parseStakeKind(kind string) (funding.StakeKind, error) {
	switch kind {
	case "token":
		return funding.StakeKindToken, nil
	case "reputation":
		return funding.StakeKindReputation, nil
	default:
		return 0, errors.WithMessagef(ErrInvalidParameter, "invalid stake kind: %s", kind)
	}
}

func parseProjectState(state string) (funding.ProjectState, error) {
	for _, s := range []funding.ProjectState{
		funding.StateProposed,
		funding.StateCollected,
		funding.StateActive,
		funding.StateValidating,
		funding.StateSucceeded,
		funding.StateFailed,
	} {
		if s.String() == state {
			return s, nil
		}
	}

	return 0, errors.WithMessagef(ErrInvalidParameter, "invalid project state: %s", state)
}

func stakeKindString(kind funding.StakeKind) string {
	if kind == funding.StakeKindReputation {
		return "reputation"
	}

	return "token"
}

func getTokenInfo() *TokenInfoResponse {
	info := deps.FundingManager.TokenInfo()

	return &TokenInfoResponse{
		TotalSupply:  info.TotalSupply,
		Reserve:      info.Reserve,
		RewardPool:   info.RewardPool,
		CurrentPrice: info.CurrentPrice,
	}
}

func getTokenBalance(c echo.Context) (*BalanceResponse, error) {
	account, err := parseAccountID(c.Param(ParameterAccount))
	if err != nil {
		return nil, err
	}

	balance, err := deps.FundingManager.TokenBalance(account)
	if err != nil {
		return nil, err
	}

	return &BalanceResponse{Account: account.ToHex(), Balance: balance}, nil
}

func mintTokens(c echo.Context) (*MintResponse, error) {
	request := &MintRequest{}
	if err := c.Bind(request); err != nil {
		return nil, errors.WithMessagef(ErrInvalidParameter, "invalid request, error: %s", err)
	}

	account, err := parseAccountID(request.Account)
	if err != nil {
		return nil, err
	}

	refund, err := deps.FundingManager.Mint(account, request.Amount, request.Deposit)
	if err != nil {
		return nil, err
	}

	return &MintResponse{
		Cost:        request.Deposit - refund,
		Refund:      refund,
		TotalSupply: deps.FundingManager.TokenInfo().TotalSupply,
	}, nil
}

func burnTokens(c echo.Context) (*BurnResponse, error) {
	request := &BurnRequest{}
	if err := c.Bind(request); err != nil {
		return nil, errors.WithMessagef(ErrInvalidParameter, "invalid request, error: %s", err)
	}

	account, err := parseAccountID(request.Account)
	if err != nil {
		return nil, err
	}

	payout, err := deps.FundingManager.Burn(account, request.Amount)
	if err != nil {
		return nil, err
	}

	return &BurnResponse{
		Payout:      payout,
		TotalSupply: deps.FundingManager.TokenInfo().TotalSupply,
	}, nil
}

func registerReputation(c echo.Context) (*BalanceResponse, error) {
	request := &RegisterRequest{}
	if err := c.Bind(request); err != nil {
		return nil, errors.WithMessagef(ErrInvalidParameter, "invalid request, error: %s", err)
	}

	account, err := parseAccountID(request.Account)
	if err != nil {
		return nil, err
	}

	if err := deps.FundingManager.RegisterReputation(account); err != nil {
		return nil, err
	}

	balance, err := deps.FundingManager.ReputationBalance(account)
	if err != nil {
		return nil, err
	}

	return &BalanceResponse{Account: account.ToHex(), Balance: balance}, nil
}

func getReputationBalance(c echo.Context) (*BalanceResponse, error) {
	account, err := parseAccountID(c.Param(ParameterAccount))
	if err != nil {
		return nil, err
	}

	balance, err := deps.FundingManager.ReputationBalance(account)
	if err != nil {
		return nil, err
	}

	return &BalanceResponse{Account: account.ToHex(), Balance: balance}, nil
}

func getProjects(c echo.Context) (*ProjectsResponse, error) {
	stateParam := c.QueryParam(ParameterState)

	var projectIDs []funding.ProjectID
	if stateParam != "" {
		state, err := parseProjectState(stateParam)
		if err != nil {
			return nil, err
		}
		for _, project := range deps.FundingManager.ProjectsInState(state) {
			projectIDs = append(projectIDs, project.ID)
		}
	} else {
		projectIDs = deps.FundingManager.ProjectIDs()
	}

	response := &ProjectsResponse{ProjectIDs: make([]string, 0, len(projectIDs))}
	for _, projectID := range projectIDs {
		response.ProjectIDs = append(response.ProjectIDs, projectID.ToHex())
	}

	return response, nil
}

func proposeProject(c echo.Context) (*ProposeResponse, error) {
	request := &ProposeRequest{}
	if err := c.Bind(request); err != nil {
		return nil, errors.WithMessagef(ErrInvalidParameter, "invalid request, error: %s", err)
	}

	proposer, err := parseAccountID(request.Proposer)
	if err != nil {
		return nil, err
	}

	kind, err := parseStakeKind(request.StakeKind)
	if err != nil {
		return nil, err
	}

	metadataHash, err := hex.DecodeString(strings.TrimPrefix(strings.ToLower(request.MetadataHash), "0x"))
	if err != nil {
		return nil, errors.WithMessagef(ErrInvalidParameter, "invalid metadata hash: %s, error: %s", request.MetadataHash, err)
	}

	projectID, err := deps.FundingManager.ProposeProject(proposer, kind, request.CostTarget, time.Unix(request.Deadline, 0), metadataHash)
	if err != nil {
		return nil, err
	}

	return &ProposeResponse{
		ProjectID:     projectID.ToHex(),
		ProposerStake: deps.FundingManager.Project(projectID).ProposerStakeAmount,
	}, nil
}

func projectResponse(project *funding.Project) *ProjectResponse {
	return &ProjectResponse{
		ProjectID:        project.ID.ToHex(),
		Proposer:         project.Proposer.ToHex(),
		StakeKind:        stakeKindString(project.ProposerStakeKind),
		ProposerStake:    project.ProposerStakeAmount,
		CostTarget:       project.CostTarget,
		Deadline:         project.Deadline.Unix(),
		MetadataHash:     "0x" + hex.EncodeToString(project.MetadataHash),
		State:            project.State.String(),
		TokensStaked:     project.TokensStaked,
		ReputationStaked: project.ReputationStaked,
		ReserveCommitted: project.ReserveCommitted,
	}
}

func getProject(c echo.Context) (*ProjectResponse, error) {
	projectID, err := parseProjectIDParam(c)
	if err != nil {
		return nil, err
	}

	project := deps.FundingManager.Project(projectID)
	if project == nil {
		return nil, errors.Wrap(funding.ErrUnknownProject, projectID.ToHex())
	}

	return projectResponse(project), nil
}

func stakeTokens(c echo.Context) (*StakeResponse, error) {
	projectID, err := parseProjectIDParam(c)
	if err != nil {
		return nil, err
	}

	request := &StakeRequest{}
	if err := c.Bind(request); err != nil {
		return nil, errors.WithMessagef(ErrInvalidParameter, "invalid request, error: %s", err)
	}

	staker, err := parseAccountID(request.Staker)
	if err != nil {
		return nil, err
	}

	accepted, err := deps.FundingManager.StakeTokens(projectID, staker, request.Amount)
	if err != nil {
		return nil, err
	}

	project := deps.FundingManager.Project(projectID)

	return &StakeResponse{
		Accepted:         accepted,
		ReserveCommitted: project.ReserveCommitted,
		State:            project.State.String(),
	}, nil
}

func unstakeTokens(c echo.Context) (*StakeResponse, error) {
	projectID, err := parseProjectIDParam(c)
	if err != nil {
		return nil, err
	}

	request := &StakeRequest{}
	if err := c.Bind(request); err != nil {
		return nil, errors.WithMessagef(ErrInvalidParameter, "invalid request, error: %s", err)
	}

	staker, err := parseAccountID(request.Staker)
	if err != nil {
		return nil, err
	}

	if err := deps.FundingManager.UnstakeTokens(projectID, staker, request.Amount); err != nil {
		return nil, err
	}

	project := deps.FundingManager.Project(projectID)

	return &StakeResponse{
		Accepted:         request.Amount,
		ReserveCommitted: project.ReserveCommitted,
		State:            project.State.String(),
	}, nil
}

func stakeReputation(c echo.Context) (*StakeResponse, error) {
	projectID, err := parseProjectIDParam(c)
	if err != nil {
		return nil, err
	}

	request := &StakeRequest{}
	if err := c.Bind(request); err != nil {
		return nil, errors.WithMessagef(ErrInvalidParameter, "invalid request, error: %s", err)
	}

	staker, err := parseAccountID(request.Staker)
	if err != nil {
		return nil, err
	}

	if err := deps.FundingManager.StakeReputation(projectID, staker, request.Amount); err != nil {
		return nil, err
	}

	project := deps.FundingManager.Project(projectID)

	return &StakeResponse{
		Accepted:         request.Amount,
		ReserveCommitted: project.ReserveCommitted,
		State:            project.State.String(),
	}, nil
}

func unstakeReputation(c echo.Context) (*StakeResponse, error) {
	projectID, err := parseProjectIDParam(c)
	if err != nil {
		return nil, err
	}

	request := &StakeRequest{}
	if err := c.Bind(request); err != nil {
		return nil, errors.WithMessagef(ErrInvalidParameter, "invalid request, error: %s", err)
	}

	staker, err := parseAccountID(request.Staker)
	if err != nil {
		return nil, err
	}

	if err := deps.FundingManager.UnstakeReputation(projectID, staker, request.Amount); err != nil {
		return nil, err
	}

	project := deps.FundingManager.Project(projectID)

	return &StakeResponse{
		Accepted:         request.Amount,
		ReserveCommitted: project.ReserveCommitted,
		State:            project.State.String(),
	}, nil
}

func checkExpiry(c echo.Context) (*CheckExpiryResponse, error) {
	projectID, err := parseProjectIDParam(c)
	if err != nil {
		return nil, err
	}

	if err := deps.FundingManager.CheckExpiry(projectID); err != nil {
		return nil, err
	}

	return &CheckExpiryResponse{State: deps.FundingManager.Project(projectID).State.String()}, nil
}

func refundProposer(c echo.Context) (*RefundResponse, error) {
	projectID, err := parseProjectIDParam(c)
	if err != nil {
		return nil, err
	}

	request := &RefundRequest{}
	if err := c.Bind(request); err != nil {
		return nil, errors.WithMessagef(ErrInvalidParameter, "invalid request, error: %s", err)
	}

	caller, err := parseAccountID(request.Caller)
	if err != nil {
		return nil, err
	}

	escrowReturned, rewardPaid, err := deps.FundingManager.RefundProposer(projectID, caller)
	if err != nil {
		return nil, err
	}

	return &RefundResponse{EscrowReturned: escrowReturned, RewardPaid: rewardPaid}, nil
}

func advanceProject(c echo.Context) (*ProjectResponse, error) {
	projectID, err := parseProjectIDParam(c)
	if err != nil {
		return nil, err
	}

	request := &AdvanceRequest{}
	if err := c.Bind(request); err != nil {
		return nil, errors.WithMessagef(ErrInvalidParameter, "invalid request, error: %s", err)
	}

	caller, err := parseAccountID(request.Caller)
	if err != nil {
		return nil, err
	}

	state, err := parseProjectState(request.State)
	if err != nil {
		return nil, err
	}

	if err := deps.FundingManager.AdvanceProject(projectID, caller, state); err != nil {
		return nil, err
	}

	return projectResponse(deps.FundingManager.Project(projectID)), nil
}

func getProjectStakers(c echo.Context) (*StakersResponse, error) {
	projectID, err := parseProjectIDParam(c)
	if err != nil {
		return nil, err
	}

	stakers, err := deps.FundingManager.ProjectStakers(projectID)
	if err != nil {
		return nil, err
	}

	response := &StakersResponse{Stakers: make([]*StakerResponse, 0, len(stakers))}
	for _, staker := range stakers {
		response.Stakers = append(response.Stakers, &StakerResponse{
			Account:    staker.Account.ToHex(),
			Tokens:     staker.Tokens,
			Reputation: staker.Reputation,
			Weight:     staker.Weight,
		})
	}

	return response, nil
}
