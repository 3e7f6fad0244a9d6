package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/bogglefinder/internal/auth"
	"github.com/robalobadob/bogglefinder/internal/httpserver"
	"github.com/robalobadob/bogglefinder/internal/store"
	"github.com/robalobadob/bogglefinder/internal/words"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API.

Configuration comes from the environment (and a .env file if present):
PORT, DB_PATH, JWT_SECRET, CLIENT_ORIGIN, DICTIONARY_FILE, MAX_PATH_LENGTH, ...
The server stops gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Production() && cfg.JWTSecret == "dev_secret_change_me" {
		log.Warn().Msg("JWT_SECRET is the development default")
	}

	dict, err := words.Load(cfg.DictionaryFile)
	if err != nil {
		return err
	}
	log.Info().Int("words", dict.Len()).Str("file", cfg.DictionaryFile).Msg("dictionary loaded")

	acc, err := openAccounts(ctx)
	if err != nil {
		return err
	}
	defer acc.Close()

	srv := httpserver.New(httpserver.Deps{
		Config:  cfg,
		Store:   store.NewMemoryStore(),
		History: store.NewHistory(acc.db),
		Users:   acc.users,
		Ledger:  acc.ledger,
		Signer:  auth.NewSigner(cfg.JWTSecret, cfg.JWTTTL),
		Dict:    dict,
	}).HTTPServer(":" + cfg.Port)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting bogglefinder")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down")
		return srv.Shutdown(sctx)
	})
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server exited")
		return err
	}
	return nil
}
