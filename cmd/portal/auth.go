package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/carelink/healthcare-portal/internal/api"
	"github.com/carelink/healthcare-portal/internal/api/handler"
	"github.com/carelink/healthcare-portal/internal/core/ports"
	"github.com/carelink/healthcare-portal/internal/core/service"
	mongodb "github.com/carelink/healthcare-portal/internal/infrastructure/db/mongo"
	httpinfra "github.com/carelink/healthcare-portal/internal/infrastructure/http"
	"github.com/carelink/healthcare-portal/internal/infrastructure/http/client"
	"github.com/carelink/healthcare-portal/internal/pkg/password"
)

const authServiceName = "auth-service"

var errAdminPassword = errors.New("ADMIN_PASSWORD is required to seed the admin account")

func newAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Run the auth service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, authServiceName)
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.cfg.ValidateAuth(); err != nil {
				return err
			}

			db, err := a.connectMongo(ctx, a.cfg.Auth.Database)
			if err != nil {
				return err
			}
			rdb, err := a.connectRedis(ctx)
			if err != nil {
				return err
			}
			auth, err := a.buildAuthService(ctx, db)
			if err != nil {
				return err
			}

			e := api.NewAuthRouter(httpinfra.EngineConfig{
				Service:     authServiceName,
				Subsystem:   "auth",
				CORSOrigins: a.cfg.CORSOrigins,
				Mongo:       db,
				Redis:       rdb,
				Log:         a.log,
			}, api.AuthDeps{
				Auth:       auth,
				Users:      auth,
				Cookies:    handler.CookieConfig{Secure: a.cfg.SecureCookies(), AccessTTL: a.cfg.Auth.AccessTTL},
				ServiceKey: a.cfg.ServiceKey,
				General:    a.generalLimiter(rdb),
				Strict:     a.authLimiter(rdb),
			})
			return a.serve(ctx, e, a.cfg.Auth.Port)
		},
	}
}

func (a *app) buildAuthService(ctx context.Context, db *mongo.Database) (*service.AuthService, error) {
	repo := mongodb.NewCredentialRepository(db)
	if err := mongodb.EnsureAllIndexes(ctx, repo); err != nil {
		return nil, err
	}
	notifier, err := a.notifier()
	if err != nil {
		return nil, err
	}

	var syncer ports.ProfileSyncer
	if a.cfg.ServiceKey != "" {
		syncer = client.NewMedicalClient(a.cfg.Auth.MedicalServiceURL, a.cfg.ServiceKey, a.cfg.Auth.SyncTimeout)
	} else {
		a.log.Warn().Msg("SERVICE_API_KEY not set, profile sync to the medical service is disabled")
	}

	tokens := service.NewTokenService(service.TokenConfig{
		AccessSecret:  a.cfg.Auth.JWTSecret,
		RefreshSecret: a.cfg.Auth.JWTRefreshSecret,
		AccessTTL:     a.cfg.Auth.AccessTTL,
		RefreshTTL:    a.cfg.Auth.RefreshTTL,
	})
	return service.NewAuthService(repo, tokens, password.NewHasher(password.DefaultParams), notifier, syncer, a.log), nil
}

func newSeedAdminCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the default admin account if it does not exist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, authServiceName)
			if err != nil {
				return err
			}
			defer a.close()
			if a.cfg.Admin.Password == "" {
				return errAdminPassword
			}

			db, err := a.connectMongo(ctx, a.cfg.Auth.Database)
			if err != nil {
				return err
			}
			auth, err := a.buildAuthService(ctx, db)
			if err != nil {
				return err
			}
			created, err := auth.SeedAdmin(ctx, a.cfg.Admin.Email, a.cfg.Admin.Password)
			if err != nil {
				return err
			}
			a.log.Info().Str("email", a.cfg.Admin.Email).Bool("created", created).Msg("admin seed finished")
			return nil
		},
	}
}
