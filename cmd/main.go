// The vault host binary wires the reference runtime: durable account storage
// in Postgres, the in-memory ledger collaborator, signer token verification,
// and the optional snapshot archive. The embedding deployment feeds requests
// to Runtime.Invoke; this process owns lifecycle and wiring only.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ARTHON9611/Time-Locked-Vault/internal/config"
	"github.com/ARTHON9611/Time-Locked-Vault/internal/host"
	"github.com/ARTHON9611/Time-Locked-Vault/internal/ledger"
	"github.com/ARTHON9611/Time-Locked-Vault/internal/logger"
	"github.com/ARTHON9611/Time-Locked-Vault/internal/model"
	"github.com/ARTHON9611/Time-Locked-Vault/internal/repository/postgres"
	storage "github.com/ARTHON9611/Time-Locked-Vault/internal/storage/minio"
	"github.com/ARTHON9611/Time-Locked-Vault/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	accountRepo := postgres.NewAccountRepository(db)
	tokenManager := token.NewJWT(cfg.Token.Secret)
	balances := ledger.NewMemory()

	var archive model.SnapshotArchive
	if cfg.Archive.Enabled {
		minioClient, err := minio.New(cfg.Archive.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.Archive.AccessKey, cfg.Archive.SecretKey, ""),
			Secure: cfg.Archive.UseSSL,
		})
		if err != nil {
			logger.Fatal("failed to create minio client", "error", err)
		}
		archive, err = storage.NewArchive(ctx, minioClient, cfg.Archive.Bucket)
		if err != nil {
			logger.Fatal("failed to initialize snapshot archive", "error", err)
		}
	}

	runtime := host.NewRuntime(accountRepo, balances, host.SystemClock{}, tokenManager, archive, logger)

	// Dry-run the full invocation path (storage transaction included); an
	// empty instruction must be rejected without touching state.
	probe := host.InvokeRequest{Accounts: []host.AccountRef{{}, {}}}
	if err := runtime.Invoke(ctx, probe); !errors.Is(err, model.ErrInvalidInstructionData) {
		logger.Fatal("host self-check failed", "error", err)
	}

	logger.Info("vault host ready",
		"program", model.ProgramID,
		"build_version", buildVersion,
		"build_date", buildDate,
		"build_commit", buildCommit)

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")
}
