package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/toolbelt/plumbing-estimator/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the estimator HTTP and websocket API",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("model", "", "model bundle to load instead of model.path")
	serveCmd.Flags().String("address", "", "listen address instead of server.address")
}

func serve(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, logger := setup()
	defer logger.Sync()

	logger.Info("starting the plumbing-estimator", zap.String("version", version))

	predictor, err := loadPredictor(config.Model, cmd.Flag("model").Value.String(), logger)
	if err != nil {
		logger.Fatal("loading the predictor", zap.Error(err))
	}

	store, err := openHistory(config.History, logger)
	if err != nil {
		logger.Fatal("opening estimate history", zap.Error(err))
	}
	if store != nil {
		defer store.Close()
	}

	deps := api.Deps{
		Predictor: predictor,
		Info: api.Info{
			ModelVersion: predictor.Version(),
			Features:     predictor.Schema().Width(),
		},
		Logger: logger,
	}
	if store != nil {
		deps.History = store
	}

	// Without a language model the API still starts; /health reports it and
	// the estimate endpoints answer 503.
	extractor, provider, err := newExtractor(ctx, config.AI, logger)
	deps.Info.Provider = provider
	if err != nil {
		logger.Error("feature extractor unavailable", zap.Error(err))
	} else {
		service, err := newService(config, extractor, predictor, store, logger)
		if err != nil {
			logger.Fatal("building the estimate service", zap.Error(err))
		}
		deps.Estimator = service
	}

	serverCfg := config.Server
	if address := cmd.Flag("address").Value.String(); address != "" {
		serverCfg.Address = address
	}

	if err := api.NewServer(serverCfg, deps).Run(ctx); err != nil {
		logger.Fatal("serving", zap.Error(err))
	}

	logger.Info("stopped")
}
