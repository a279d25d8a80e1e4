package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rgehrsitz/matricula/internal/api"
	"github.com/rgehrsitz/matricula/internal/refdata"
	"github.com/rgehrsitz/matricula/internal/store"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the pricing, lookup and enrollment HTTP API",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		settings, err := loadSettings(cmd)
		if err != nil {
			log.Fatal(err)
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			settings.HTTPAddress = addr
		}

		st, catalog, err := openStore(cmd, settings)
		if err != nil {
			log.Fatal(err)
		}
		refs, err := loadReference(cmd, settings, referenceSource(cmd, settings, catalog))
		if err != nil {
			log.Fatal(err)
		}

		if debugMode, _ := cmd.Flags().GetBool("debug"); !debugMode {
			gin.SetMode(gin.ReleaseMode)
		}

		server := api.NewServer(newEngine(cmd, settings), refs, st,
			api.WithLogger(simpleCLILogger{}),
			api.WithLookupTimeout(settings.LookupTimeout),
			api.WithSubmitTimeout(settings.SubmitTimeout),
		)

		srv := &http.Server{
			Addr:              settings.HTTPAddress,
			Handler:           server.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), settings.SubmitTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Printf("ERROR: shutdown: %v", err)
			}
		}()

		log.Printf("INFO: listening on %s", settings.HTTPAddress)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		settings, err := loadSettings(cmd)
		if err != nil {
			log.Fatal(err)
		}
		if settings.DatabaseDSN == "" {
			log.Fatal("migrate requires a database: set database_dsn or --dsn")
		}

		gs, err := store.Open(settings.DatabaseDSN)
		if err != nil {
			log.Fatal(err)
		}
		if err := gs.Migrate(cmd.Context()); err != nil {
			log.Fatal(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")

		if seed, _ := cmd.Flags().GetBool("seed"); !seed {
			return
		}
		refs, err := loadReference(cmd, settings, refdata.NewFileSource(settings.ReferenceFile))
		if err != nil {
			log.Fatal(err)
		}
		if err := store.NewCatalogSource(gs.DB()).Seed(cmd.Context(), refs); err != nil {
			log.Fatal(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d discounts, %d series and %d tracks from %s\n",
			refs.Discounts.Len(), len(refs.Series), len(refs.Tracks), settings.ReferenceFile)
	},
}
