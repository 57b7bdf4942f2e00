package funding

import (
	"time"

	"github.com/iotaledger/hive.go/core/app"
)

type ParametersFunding struct {
	Database struct {
		// Engine defines the used database engine (pebble/mapdb).
		Engine string `default:"pebble" usage:"the used database engine (pebble/mapdb)"`
		// Path defines the path to the database folder.
		Path string `default:"database" usage:"the path to the database folder"`
	}

	Curve struct {
		// BasePrice defines the price of the first token unit on the bonding curve.
		BasePrice uint64 `default:"100000" usage:"the price of the first token unit on the bonding curve"`
		// PriceSlope defines the price increase per token unit on the bonding curve.
		PriceSlope uint64 `default:"10" usage:"the price increase per token unit on the bonding curve"`
	}

	// ProposeProportion defines the divisor determining the proposer escrow as a proportion of the cost target.
	ProposeProportion uint64 `default:"20" usage:"the divisor determining the proposer escrow as a proportion of the cost target"`
	// RewardDivisor defines the divisor determining the proposer reward as a proportion of the cost target.
	RewardDivisor uint64 `default:"100" usage:"the divisor determining the proposer reward as a proportion of the cost target"`
	// RegistrationGrant defines the amount of reputation granted on registration.
	RegistrationGrant uint64 `default:"10000" usage:"the amount of reputation granted on registration"`
	// SweepInterval defines the interval in which expired projects are swept.
	SweepInterval time.Duration `default:"30s" usage:"the interval in which expired projects are swept"`
}

type ParametersRestAPI struct {
	// BindAddress defines the bind address on which the funding HTTP server listens.
	BindAddress string `default:"localhost:9892" usage:"the bind address on which the funding HTTP server listens"`
	// DebugRequestLoggerEnabled defines whether the debug logging for requests should be enabled.
	DebugRequestLoggerEnabled bool `default:"false" usage:"whether the debug logging for requests should be enabled"`
}

var (
	ParamsFunding = &ParametersFunding{}
	ParamsRestAPI = &ParametersRestAPI{}
)

var params = &app.ComponentParams{
	Params: map[string]any{
		"funding": ParamsFunding,
		"restAPI": ParamsRestAPI,
	},
	Masked: nil,
}
