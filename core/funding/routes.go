package funding

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	// RouteTokenInfo is the route to get the token ledger status.
	// GET returns the total supply, reserve, reward pool and current price.
	RouteTokenInfo = "/token"

	// RouteTokenBalance is the route to get the token balance of an account.
	RouteTokenBalance = "/token/balances/:" + ParameterAccount

	// RouteTokenMint is the route to mint tokens against a deposit.
	// POST mints the requested amount and returns the excess deposit.
	RouteTokenMint = "/token/mint"

	// RouteTokenBurn is the route to burn tokens.
	// POST burns the requested amount and returns the payout.
	RouteTokenBurn = "/token/burn"

	// RouteReputationRegister is the route to register an account with the reputation ledger.
	// POST grants the one-time registration amount.
	RouteReputationRegister = "/reputation/register"

	// RouteReputationBalance is the route to get the reputation balance of an account.
	RouteReputationBalance = "/reputation/balances/:" + ParameterAccount

	// RouteProjects is the route to list all projects, returning their IDs.
	// GET returns a list of all projects. Optional query parameter filters by state (query parameters: "state").
	RouteProjects = "/projects"

	// RouteProjectPropose is the route to propose a new project.
	// POST escrows the proposer stake and creates the project.
	RouteProjectPropose = "/projects"

	// RouteProject is the route to access a single project by its ID.
	RouteProject = "/projects/:" + ParameterProjectID

	// RouteProjectStake is the route to stake tokens on a project.
	// POST commits tokens at the live price, clamped to the remaining funding gap.
	RouteProjectStake = "/projects/:" + ParameterProjectID + "/stake"

	// RouteProjectUnstake is the route to unstake tokens from a project.
	RouteProjectUnstake = "/projects/:" + ParameterProjectID + "/unstake"

	// RouteProjectStakeReputation is the route to stake reputation on a project.
	RouteProjectStakeReputation = "/projects/:" + ParameterProjectID + "/stake-reputation"

	// RouteProjectUnstakeReputation is the route to unstake reputation from a project.
	RouteProjectUnstakeReputation = "/projects/:" + ParameterProjectID + "/unstake-reputation"

	// RouteProjectCheckExpiry is the route to run the deadline rule on a project.
	// POST is callable by anyone and idempotent.
	RouteProjectCheckExpiry = "/projects/:" + ParameterProjectID + "/check-expiry"

	// RouteProjectRefundProposer is the route to refund the proposer escrow and pay the reward.
	// POST is legal exactly once, only for the proposer of a collected project.
	RouteProjectRefundProposer = "/projects/:" + ParameterProjectID + "/refund-proposer"

	// RouteProjectAdvance is the route to walk a collected project through the later lifecycle phases.
	RouteProjectAdvance = "/projects/:" + ParameterProjectID + "/advance"

	// RouteProjectStakers is the route to list the stakers of a project with their weights.
	RouteProjectStakers = "/projects/:" + ParameterProjectID + "/stakers"

	// ParameterAccount is used to identify an account by its hex ID.
	ParameterAccount = "account"

	// ParameterProjectID is used to identify a project by its hex ID.
	ParameterProjectID = "projectID"

	// ParameterState is used to filter projects by lifecycle state.
	ParameterState = "state"
)

func setupRoutes(e *echo.Echo) {

	e.GET(RouteTokenInfo, func(c echo.Context) error {
		return c.JSON(http.StatusOK, getTokenInfo())
	})

	e.GET(RouteTokenBalance, func(c echo.Context) error {
		resp, err := getTokenBalance(c)
		if err != nil {
			return err
		}

		return c.JSON(http.StatusOK, resp)
	})

	e.POST(RouteTokenMint, func(c echo.Context) error {
		resp, err := mintTokens(c)
		if err != nil {
			return err
		}

		return c.JSON(http.StatusOK, resp)
	})

	e.POST(RouteTokenBurn, func(c echo.Context) error {
		resp, err := burnTokens(c)
		if err != nil {
			return err
		}

		return c.JSON(http.StatusOK, resp)
	})

	e.POST(RouteReputationRegister, func(c echo.Context) error {
		resp, err := registerReputation(c)
		if err != nil {
			return err
		}

		return c.JSON(http.StatusCreated, resp)
	})

	e.GET(RouteReputationBalance, func(c echo.Context) error {
		resp, err := getReputationBalance(c)
		if err != nil {
			return err
		}

		return c.JSON(http.StatusOK, resp)
	})

	e.GET(RouteProjects, func(c echo.Context) error {
		resp, err := getProjects(c)
		if err != nil {
			return err
		}

		return c.JSON(http.StatusOK, resp)
	})

	e.POST(RouteProjectPropose, func(c echo.Context) error {
		resp, err := proposeProject(c)
		if err != nil {
			return err
		}

		c.Response().Header().Set(echo.HeaderLocation, resp.ProjectID)

		return c.JSON(http.StatusCreated, resp)
	})

	e.GET(RouteProject, func(c echo.Context) error {
		resp, err := getProject(c)
		if err != nil {
			return err
		}

		return c.JSON(http.StatusOK, resp)
	})

	e.POST(RouteProjectStake, func(c echo.Context) error {
		resp, err := stakeTokens(c)
		if err != nil {
			return err
		}

		return c.JSON(http.StatusOK, resp)
	})

	e.POST(RouteProjectUnstake, func(c echo.Context) error {
		resp, err := unstakeTokens(c)
		if err != nil {
			return err
		}

		return c.JSON(http.StatusOK, resp)
	})

	e.POST(RouteProjectStakeReputation, func(c echo.Context) error {
		resp, err := stakeReputation(c)
		if err != nil {
			return err
		}

		return c.JSON(http.StatusOK, resp)
	})

	e.POST(RouteProjectUnstakeReputation, func(c echo.Context) error {
		resp, err := unstakeReputation(c)
		if err != nil {
			return err
		}

		return c.JSON(http.StatusOK, resp)
	})

	e.POST(RouteProjectCheckExpiry, func(c echo.Context) error {
		resp, err := checkExpiry(c)
		if err != nil {
			return err
		}

		return c.JSON(http.StatusOK, resp)
	})

	e.POST(RouteProjectRefundProposer, func(c echo.Context) error {
		resp, err := refundProposer(c)
		if err != nil {
			return err
		}

		return c.JSON(http.StatusOK, resp)
	})

	e.POST(RouteProjectAdvance, func(c echo.Context) error {
		resp, err := advanceProject(c)
		if err != nil {
			return err
		}

		return c.JSON(http.StatusOK, resp)
	})

	e.GET(RouteProjectStakers, func(c echo.Context) error {
		resp, err := getProjectStakers(c)
		if err != nil {
			return err
		}

		return c.JSON(http.StatusOK, resp)
	})
}
