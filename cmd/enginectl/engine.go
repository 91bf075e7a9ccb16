package main

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"vaultscript/core"
	"vaultscript/pkg/config"
)

var engineLog = logrus.WithField("component", "enginectl")

// newTxHash derives the per-invocation transaction hash as the SHA-256 of
// seed; bootstrap passes a seed that includes the wall clock, since
// enginectl issues one ad-hoc transaction per CLI invocation rather than
// batching a mempool.
func newTxHash(seed string) [32]byte {
	return sha256.Sum256([]byte(seed))
}

// bootstrap loads configuration, opens the substate store, and constructs a
// fresh Process ready to run one transaction.
func bootstrap(seed string) (*core.Process, *core.Track, *core.IdAllocator, error) {
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		engineLog.WithError(err).Warn("no config file found, using defaults")
		cfg = &config.Config{}
	}
	if cfg.Metering.TbdLimit == 0 {
		cfg.Metering.TbdLimit = 10_000_000
	}

	txHash := newTxHash(fmt.Sprintf("%s-%d", seed, time.Now().UnixNano()))
	store := core.NewInMemorySubstateStore(txHash)
	track := core.NewTrack(store, txHash)
	ids := core.NewIdAllocator(txHash)
	process := core.NewProcess(ids, track)
	process.Executor = newGuestExecutor(cfg)
	return process, track, ids, nil
}

// newGuestExecutor builds the Process.Executor that actually hosts a
// frame's package bytecode in wasmer-go, rather than the package's own
// identity-pass-through default (which only exists so core's frame
// machinery can be unit tested without a wasm host).
func newGuestExecutor(cfg *config.Config) func(*core.Process, *core.Frame, core.ScryptoValue) (core.ScryptoValue, []*core.Bucket, error) {
	costs := core.DefaultCostTable()
	if cfg.Metering.PerWasmInstruction != 0 {
		costs.PerWasmInstruction = cfg.Metering.PerWasmInstruction
	}
	if cfg.Metering.HostCallBase != 0 {
		costs.HostCallBase = cfg.Metering.HostCallBase
	}
	if cfg.Metering.SubstateReadCostPerByte != 0 {
		costs.SubstateReadCostPerByte = cfg.Metering.SubstateReadCostPerByte
	}
	if cfg.Metering.SubstateWriteCostPerByte != 0 {
		costs.SubstateWriteCostPerByte = cfg.Metering.SubstateWriteCostPerByte
	}
	meter := core.NewTbdMeter(cfg.Metering.TbdLimit, costs)

	return func(p *core.Process, frame *core.Frame, args core.ScryptoValue) (core.ScryptoValue, []*core.Bucket, error) {
		pkg, err := p.Package(frame.PackageAddress())
		if err != nil {
			return core.ScryptoValue{}, nil, err
		}
		if len(pkg.Code) == 0 {
			// A package published without bytecode (e.g. the CLI's own
			// publish smoke-test path) has nothing to execute; behave like
			// the frame-machinery identity default rather than failing.
			return args, nil, nil
		}

		dispatcher := core.NewHostDispatcher(p, meter)
		runtime := core.NewGuestRuntime(dispatcher)

		result, err := runtime.Invoke(frame, pkg.Code, frame.BlueprintName(), frame.EntryPoint(), args)
		if err != nil {
			return core.ScryptoValue{}, nil, err
		}
		buckets, proofs, err := p.HarvestReturnValue(frame, result)
		if err != nil {
			return core.ScryptoValue{}, nil, err
		}
		for _, pr := range proofs {
			_ = pr.Drop()
		}
		return result, buckets, nil
	}
}
