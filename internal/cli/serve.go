package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Allen20077/8berries/internal/auth"
	"github.com/Allen20077/8berries/internal/chat"
	"github.com/Allen20077/8berries/internal/config"
	"github.com/Allen20077/8berries/internal/llm"
	"github.com/Allen20077/8berries/internal/logging"
	"github.com/Allen20077/8berries/internal/server"
	"github.com/Allen20077/8berries/internal/store"
	"github.com/Allen20077/8berries/internal/upload"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Server.Port = port
			}
			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}

			log := logging.NewStyled(os.Stderr, cfg.Logging.Level, cfg.Logging.Style)

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			// Session and credential stores (SQLite or in-memory).
			var sessions chat.SessionStore
			var creds auth.CredentialStore
			if cfg.Storage.Store == "sqlite" {
				db, err := store.Open(cfg.Storage.Path, log)
				if err != nil {
					return fmt.Errorf("opening database: %w", err)
				}
				defer db.Close()
				sessions = store.NewSQLiteSessionStore(db)
				creds = store.NewSQLiteCredentialStore(db)
				log.Info().Str("path", cfg.Storage.Path).Msg("using SQLite storage")
			} else {
				sessions = store.NewMemorySessionStore()
				creds = auth.NewMemoryCredentialStore()
				log.Warn().Msg("using in-memory storage, data is lost on restart")
			}

			client := llm.NewGroqClient(cfg.Provider.BaseURL, cfg.Provider.APIKey, cfg.Provider.Model)
			if cfg.Provider.APIKey == "" {
				log.Warn().Msg("no provider API key configured, completions will fail")
			}

			chatSvc := chat.NewService(chat.Config{
				Model:     cfg.Provider.Model,
				MaxTokens: cfg.Provider.MaxTokens,
				Timeout:   time.Duration(cfg.Provider.TimeoutSeconds) * time.Second,
			}, sessions, client, log)

			authSvc := auth.NewService(creds, log)
			loginSessions := auth.NewSessionManager(
				time.Duration(cfg.Auth.SessionTTLHours)*time.Hour,
				cfg.Auth.SecureCookies,
			)
			defer loginSessions.Close()

			var google *auth.GoogleAuth
			if cfg.Auth.GoogleClientID != "" {
				base := cfg.Server.BaseURL
				if base == "" {
					base = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
				}
				google = auth.NewGoogleAuth(
					cfg.Auth.GoogleClientID,
					cfg.Auth.GoogleClientSecret,
					base+"/auth/google/callback",
					authSvc,
				)
				log.Info().Msg("google login enabled")
			}

			uploads, err := upload.NewStore(cfg.Uploads.Dir, log)
			if err != nil {
				return err
			}

			srv := server.New(cfg.Server, chatSvc, authSvc, loginSessions, google, uploads, log)

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override the listen port")
	return cmd
}
