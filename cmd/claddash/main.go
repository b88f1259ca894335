package main

import (
	"context"
	"encoding/hex"
	"strings"

	"github.com/clad-sovereign/clad-dashboard/internal/backend"
	"github.com/clad-sovereign/clad-dashboard/internal/callcodec"
	"github.com/clad-sovereign/clad-dashboard/internal/config"
	"github.com/clad-sovereign/clad-dashboard/internal/eventsync"
	"github.com/clad-sovereign/clad-dashboard/internal/handlers/cli"
	"github.com/clad-sovereign/clad-dashboard/internal/infra/node/substrate"
	"github.com/clad-sovereign/clad-dashboard/internal/infra/storage/bolt"
	"github.com/clad-sovereign/clad-dashboard/internal/infra/storage/redis"
	"github.com/clad-sovereign/clad-dashboard/internal/multisig"
	"github.com/clad-sovereign/clad-dashboard/internal/nodeconn"
	"github.com/clad-sovereign/clad-dashboard/internal/pkg/logger"
	"github.com/clad-sovereign/clad-dashboard/internal/pkg/telemetry"
)

// localStore is the state store the process runs on, regardless of whether
// it is backed by the local bbolt file or a shared Redis.
type localStore interface {
	eventsync.LogStorage
	LoadEndpoint(ctx context.Context) (string, error)
	SaveEndpoint(ctx context.Context, endpoint string) error
	Close() error
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	if err := logger.Init(logger.WithLevel(cfg.LogLevel)); err != nil {
		panic(err)
	}
	defer logger.Sync()

	shutdownTelemetry, err := telemetry.Init(ctx, "claddash")
	if err != nil {
		logger.Fatal(ctx, "initializing telemetry", "error", err)
	}
	defer shutdownTelemetry(ctx)

	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "opening state store", "error", err)
	}
	defer store.Close()

	endpoint := cfg.NodeEndpoint
	if saved, err := store.LoadEndpoint(ctx); err == nil && saved != "" {
		endpoint = saved
	}

	registry := multisig.EmptyRegistry()
	if cfg.RegistryPath != "" {
		registry, err = multisig.LoadRegistry(cfg.RegistryPath)
		if err != nil {
			logger.Fatal(ctx, "loading signatory registry", "error", err)
		}
	}

	coordinator := backend.NewMock()
	if cfg.BackendURL != "" {
		coordinator = backend.New(cfg.BackendURL)
	}

	nodes := nodeconn.New(substrate.NewDialer())
	source := substrate.NewLiveSource(nodes)

	sync := eventsync.New(source, store, nodes.StateCell(),
		eventsync.WithBackfillDepth(cfg.BackfillDepth),
	)

	approvals := multisig.New(source, registry,
		multisig.WithOperationResolver(callResolver(coordinator, source)),
	)

	err = cli.Run(ctx, cli.Deps{
		Nodes:     nodes,
		Sync:      sync,
		Approvals: approvals,
		Backend:   coordinator,
		Source:    source,
		Endpoint:  endpoint,
	})
	if err != nil {
		logger.Fatal(ctx, "command failed", "error", err)
	}
}

// openStore picks the shared Redis store when configured, the local bbolt
// file otherwise.
func openStore(ctx context.Context, cfg config.Config) (localStore, error) {
	if cfg.Redis.Addr != "" {
		return redis.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	}
	return bolt.Open(cfg.DataPath)
}

// callResolver resolves multisig call hashes into decoded operations by
// looking the payload up in the coordination backend.
func callResolver(store backend.Store, source *substrate.LiveSource) multisig.OperationResolver {
	return func(ctx context.Context, callHash string) (callcodec.DecodedOperation, bool) {
		record, err := store.GetCallRecord(ctx, callHash)
		if err != nil {
			return callcodec.DecodedOperation{}, false
		}

		payload, err := hex.DecodeString(strings.TrimPrefix(record.Payload, "0x"))
		if err != nil {
			return callcodec.DecodedOperation{}, false
		}
		if !callcodec.VerifyHash(payload, callHash) {
			return callcodec.DecodedOperation{}, false
		}

		profile := source.Profile()
		if profile == nil {
			profile = callcodec.DefaultProfile()
		}
		return callcodec.Decode(profile, payload), true
	}
}
