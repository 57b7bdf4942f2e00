package funding

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/dig"

	"github.com/iotaledger/hive.go/core/app"
	hiveevents "github.com/iotaledger/hive.go/core/events"
	"github.com/iotaledger/hive.go/core/kvstore"

	"github.com/distributeproject/distribute-go/pkg/daemon"
	"github.com/distributeproject/distribute-go/pkg/funding"
)

func init() {
	CoreComponent = &app.CoreComponent{
		Component: &app.Component{
			Name:      "Funding",
			Params:    params,
			DepsFunc:  func(cDeps dependencies) { deps = cDeps },
			Provide:   provide,
			Configure: configure,
			Run:       run,
		},
	}
}

var (
	CoreComponent *app.CoreComponent
	deps          dependencies
)

type dependencies struct {
	dig.In
	FundingStore   kvstore.KVStore
	FundingManager *funding.Manager
}

func provide(c *dig.Container) error {

	if err := c.Provide(func() kvstore.KVStore {
		store, err := storeWithDefaultSettings(ParamsFunding.Database.Path, ParamsFunding.Database.Engine)
		if err != nil {
			CoreComponent.LogErrorAndExit(err)
		}

		return store
	}); err != nil {
		return err
	}

	if err := c.Provide(func(store kvstore.KVStore) funding.ReputationLedger {
		return funding.NewReputationRegistry(store, ParamsFunding.RegistrationGrant)
	}); err != nil {
		return err
	}

	return c.Provide(func(store kvstore.KVStore, reputation funding.ReputationLedger) *funding.Manager {
		manager, err := funding.NewManager(
			store,
			time.Now,
			reputation,
			funding.WithBondingCurve(ParamsFunding.Curve.BasePrice, ParamsFunding.Curve.PriceSlope),
			funding.WithProposeProportion(ParamsFunding.ProposeProportion),
			funding.WithRewardDivisor(ParamsFunding.RewardDivisor),
		)
		if err != nil {
			CoreComponent.LogErrorAndExit(err)
		}
		CoreComponent.LogInfof("Initialized FundingManager with %d projects at supply %d", len(manager.ProjectIDs()), manager.TokenLedger().TotalSupply())

		return manager
	})
}

func configure() error {
	if err := CoreComponent.Daemon().BackgroundWorker("Close Funding database", func(ctx context.Context) {
		<-ctx.Done()

		CoreComponent.LogInfo("Syncing Funding database to disk ...")
		if err := deps.FundingStore.Flush(); err != nil {
			CoreComponent.LogErrorfAndExit("Syncing Funding database to disk ... failed: %s", err)
		}
		if err := deps.FundingStore.Close(); err != nil {
			CoreComponent.LogErrorfAndExit("Syncing Funding database to disk ... failed: %s", err)
		}
		CoreComponent.LogInfo("Syncing Funding database to disk ... done")
	}, daemon.PriorityCloseFundingDatabase); err != nil {
		CoreComponent.LogPanicf("failed to start worker: %s", err)
	}

	configureEventLogging()

	return nil
}

func configureEventLogging() {
	events := deps.FundingManager.Events

	events.TokensMinted.Hook(hiveevents.NewClosure(func(ev *funding.TokenMintedEvent) {
		CoreComponent.LogInfof("Minted %d tokens for %s, supply %d, reserve %d", ev.Amount, ev.Account.ToHex(), ev.TotalSupply, ev.Reserve)
	}))
	events.TokensBurned.Hook(hiveevents.NewClosure(func(ev *funding.TokenBurnedEvent) {
		CoreComponent.LogInfof("Burned %d tokens of %s, payout %d, supply %d", ev.Amount, ev.Account.ToHex(), ev.Payout, ev.TotalSupply)
	}))
	events.ProjectProposed.Hook(hiveevents.NewClosure(func(ev *funding.ProjectProposedEvent) {
		CoreComponent.LogInfof("Project %s proposed by %s, cost target %d, escrow %d", ev.ProjectID.ToHex(), ev.Proposer.ToHex(), ev.CostTarget, ev.ProposerStake)
	}))
	events.TokensStaked.Hook(hiveevents.NewClosure(func(ev *funding.TokenStakeEvent) {
		CoreComponent.LogInfof("Staked %d/%d tokens of %s on project %s, committed %d", ev.Accepted, ev.Requested, ev.Staker.ToHex(), ev.ProjectID.ToHex(), ev.ReserveCommitted)
	}))
	events.TokensUnstaked.Hook(hiveevents.NewClosure(func(ev *funding.TokenStakeEvent) {
		CoreComponent.LogInfof("Unstaked %d tokens of %s from project %s", ev.Accepted, ev.Staker.ToHex(), ev.ProjectID.ToHex())
	}))
	events.ProjectCollected.Hook(hiveevents.NewClosure(func(ev *funding.ProjectStateEvent) {
		CoreComponent.LogInfof("Project %s fully funded, state %s", ev.ProjectID.ToHex(), ev.NewState)
	}))
	events.ProjectFailed.Hook(hiveevents.NewClosure(func(ev *funding.ProjectStateEvent) {
		CoreComponent.LogInfof("Project %s expired, state %s", ev.ProjectID.ToHex(), ev.NewState)
	}))
	events.ProposerRefunded.Hook(hiveevents.NewClosure(func(ev *funding.ProposerRefundedEvent) {
		CoreComponent.LogInfof("Refunded proposer %s of project %s, escrow %d, reward %d", ev.Proposer.ToHex(), ev.ProjectID.ToHex(), ev.EscrowReturned, ev.RewardPaid)
	}))
}

func run() error {
	// create a background worker that periodically sweeps expired projects
	if err := CoreComponent.Daemon().BackgroundWorker("DeadlineSweeper", func(ctx context.Context) {
		CoreComponent.LogInfo("Starting DeadlineSweeper ... done")

		ticker := time.NewTicker(ParamsFunding.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				CoreComponent.LogInfo("Stopping DeadlineSweeper ... done")

				return
			case <-ticker.C:
				failed, err := deps.FundingManager.SweepExpired()
				if err != nil {
					CoreComponent.LogWarnf("Sweeping expired projects failed: %s", err)

					continue
				}
				if len(failed) > 0 {
					CoreComponent.LogInfof("Swept %d expired projects", len(failed))
				}
			}
		}
	}, daemon.PriorityStopDeadlineSweeper); err != nil {
		CoreComponent.LogPanicf("failed to start worker: %s", err)
	}

	// create a background worker that handles the API
	if err := CoreComponent.Daemon().BackgroundWorker("API", func(ctx context.Context) {
		CoreComponent.LogInfo("Starting API server ...")

		e := newEcho()
		setupRoutes(e)

		go func() {
			CoreComponent.LogInfof("You can now access the API using: http://%s", ParamsRestAPI.BindAddress)
			if err := e.Start(ParamsRestAPI.BindAddress); err != nil && !errors.Is(err, http.ErrServerClosed) {
				CoreComponent.LogErrorfAndExit("Stopped REST-API server due to an error (%s)", err)
			}
		}()

		CoreComponent.LogInfo("Starting API server ... done")
		<-ctx.Done()
		CoreComponent.LogInfo("Stopping API ...")

		shutdownCtx, shutdownCtxCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCtxCancel()

		//nolint:contextcheck // false positive
		if err := e.Shutdown(shutdownCtx); err != nil {
			CoreComponent.LogWarn(err)
		}

		CoreComponent.LogInfo("Stopping API ... done")
	}, daemon.PriorityStopFundingAPI); err != nil {
		CoreComponent.LogPanicf("failed to start worker: %s", err)
	}

	return nil
}
