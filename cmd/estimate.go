package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/toolbelt/plumbing-estimator/internal/estimate"
)

var estimateCmd = &cobra.Command{
	Use:   "estimate [description]",
	Short: "Estimate cost and time of a job from its description",
	Run: func(cmd *cobra.Command, args []string) {
		runEstimate(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(estimateCmd)

	estimateCmd.Flags().String("model", "", "model bundle to load instead of model.path")
	estimateCmd.Flags().Bool("quote", false, "also print the materials and labour quote")
}

func runEstimate(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	config, logger := setup()
	defer logger.Sync()

	description, err := readDescription(args)
	if err != nil {
		logger.Fatal("exiting", zap.Error(err))
	}

	predictor, err := loadPredictor(config.Model, cmd.Flag("model").Value.String(), logger)
	if err != nil {
		logger.Fatal("loading the predictor", zap.Error(err))
	}

	extractor, _, err := newExtractor(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("creating the feature extractor", zap.Error(err))
	}

	store, err := openHistory(config.History, logger)
	if err != nil {
		logger.Fatal("opening estimate history", zap.Error(err))
	}
	if store != nil {
		defer store.Close()
	}

	service, err := newService(config, extractor, predictor, store, logger)
	if err != nil {
		logger.Fatal("building the estimate service", zap.Error(err))
	}

	result, err := service.Estimate(ctx, description)
	if err != nil {
		logger.Fatal("estimating", zap.Error(err))
	}

	if cmd.Flag("quote").Value.String() != "true" {
		printJSON(result)
		return
	}

	quote, err := estimate.BuildQuote(result.Features)
	if err != nil {
		logger.Fatal("building the quote", zap.Error(err))
	}
	printJSON(map[string]any{
		"estimate":        result,
		"materials":       quote.Materials,
		"materials_total": quote.MaterialsTotal(),
		"tasks":           quote.Tasks,
		"hours":           quote.Hours(),
	})
}
