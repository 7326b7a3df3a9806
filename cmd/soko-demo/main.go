// Command soko-demo walks one full client flow against a running backend:
// register (or log in), then capture the three images given as arguments
// and drive a verification attempt to its terminal state.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sokoni-app/sokoni_mobile/internal/backend"
	"github.com/sokoni-app/sokoni_mobile/internal/cache"
	"github.com/sokoni-app/sokoni_mobile/internal/config"
	"github.com/sokoni-app/sokoni_mobile/internal/infra"
	"github.com/sokoni-app/sokoni_mobile/internal/logging"
	"github.com/sokoni-app/sokoni_mobile/internal/push"
	"github.com/sokoni-app/sokoni_mobile/internal/securestore"
	"github.com/sokoni-app/sokoni_mobile/internal/session"
	"github.com/sokoni-app/sokoni_mobile/internal/verifsvc"
	"github.com/sokoni-app/sokoni_mobile/internal/verify"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "soko-demo: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) != 6 {
		return fmt.Errorf("usage: soko-demo <email> <password> <id-front> <id-back> <selfie>")
	}
	email, password := os.Args[1], os.Args[2]
	idFront, idBack, selfie := os.Args[3], os.Args[4], os.Args[5]

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(cfg.LogLevel)
	ctx := context.Background()

	var secrets securestore.Store
	if cfg.TokenPath != "" {
		secrets, err = securestore.NewFile(cfg.TokenPath)
		if err != nil {
			return err
		}
	} else {
		secrets = securestore.NewMemory()
	}

	var queries cache.Cache = cache.NewMemory()
	if cfg.RedisURL != "" {
		client, err := infra.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		queries = cache.NewRedis(client, "")
	}

	api := backend.NewClient(cfg.BackendURL)
	sessions := session.NewStore(api, secrets, queries, push.NewLoggerRegistrar(logger), logger)

	sessions.Initialize(ctx)

	if !sessions.Snapshot().Authenticated() {
		if err := sessions.Login(ctx, email, password); err != nil {
			logger.Info("login failed, registering", "error", err)
			if err := sessions.Register(ctx, email, password, "Demo User"); err != nil {
				return err
			}
		}
	}

	snap := sessions.Snapshot()
	logger.Info("session ready", "user", snap.User.Email, "identity_verified", snap.User.IdentityVerified)

	svc := verifsvc.NewClient(cfg.VerificationURL, cfg.VerificationAPIKey, cfg.VerificationProfile,
		verifsvc.WithTimeout(cfg.VerificationTimeout))
	pipeline := verify.New(svc, api, sessions, logger)

	if err := pipeline.CaptureIDFront(idFront); err != nil {
		return err
	}
	if err := pipeline.CaptureIDBack(idBack); err != nil {
		return err
	}
	if err := pipeline.AdvanceToSelfie(); err != nil {
		return err
	}
	if err := pipeline.CaptureSelfie(selfie); err != nil {
		return err
	}
	if err := pipeline.Submit(ctx); err != nil {
		return err
	}

	switch pipeline.State() {
	case verify.StateAccepted:
		logger.Info("identity verified", "user", sessions.Snapshot().User.Email)
	case verify.StateRejected:
		logger.Info("verification rejected", "reason", pipeline.RejectionReason())
	case verify.StateFailed:
		failure := pipeline.Failure()
		logger.Error("verification failed", "guidance", failure.Guidance(), "error", failure.Err)
	}

	return nil
}
