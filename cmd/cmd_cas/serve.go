package cmd_cas

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rskv-p/cas/cmd/cmd_env"
	"github.com/rskv-p/cas/pkg/x_db"
	"github.com/rskv-p/cas/pkg/x_log"
	"github.com/rskv-p/cas/servs/s_cas/cas_api"
	"github.com/rskv-p/cas/servs/s_cas/cas_bus"
	"github.com/rskv-p/cas/servs/s_cas/cas_serv"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve an index over HTTP, websocket and optionally NATS",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := cmd_env.Config()
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("addr") {
			cfg.API.Addr, _ = flags.GetString("addr")
		}
		if flags.Changed("nats-embedded") {
			cfg.NATS.Embedded, _ = flags.GetBool("nats-embedded")
		}
		withBus, _ := flags.GetBool("bus")
		csvFile, _ := flags.GetString("csv")
		dataset, _ := flags.GetString("dataset")

		log := x_log.New("serve")
		store, err := cas_serv.New(cfg)
		if err != nil {
			return err
		}

		if csvFile != "" {
			f, err := os.Open(csvFile)
			if err != nil {
				return err
			}
			_, err = store.Import(f, cfg.Delim(), true)
			f.Close()
			if err != nil {
				return err
			}
		}
		if dataset != "" {
			dao, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer x_db.Shutdown()
			if _, err := store.Restore(cmd.Context(), dao, dataset); err != nil {
				return err
			}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if withBus || cfg.NATS.Embedded {
			bus := cas_bus.New(store, cfg.NATS, x_log.New("bus"))
			if err := bus.Start(); err != nil {
				return fmt.Errorf("bus: %w", err)
			}
			defer bus.Stop()
		}

		api, err := cas_api.New(store, cfg.API, cfg.Delim(), x_log.New("api"))
		if err != nil {
			return err
		}
		if cfg.API.JWTSecret == "" {
			log.Warn().Msg("no jwt secret, mutating routes are open")
		}
		log.Info().Str("value_type", cfg.ValueType).Int("keys", store.Len()).Msg("serving")
		return api.ListenAndServe(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default api.addr)")
	serveCmd.Flags().String("csv", "", "bulk load a path;value;did file first")
	serveCmd.Flags().String("dataset", "", "restore a dataset from the database first")
	serveCmd.Flags().Bool("bus", false, "also serve on NATS (nats.url)")
	serveCmd.Flags().Bool("nats-embedded", false, "run an embedded NATS server for the bus")
}
