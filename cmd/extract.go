package cmd

import (
	"context"
	"errors"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/toolbelt/plumbing-estimator/internal/normalize"
)

var extractCmd = &cobra.Command{
	Use:   "extract [description]",
	Short: "Extract the structured job record from a description",
	Run: func(_ *cobra.Command, args []string) {
		extract(args)
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().Bool("fallback", true, "fill features the language model could not extract with defaults")

	viper.BindPFlag("ai.fallback", extractCmd.Flags().Lookup("fallback"))
}

func extract(args []string) {
	ctx := context.Background()

	config, logger := setup()
	defer logger.Sync()

	description, err := readDescription(args)
	if err != nil {
		logger.Fatal("exiting", zap.Error(err))
	}

	extractor, _, err := newExtractor(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("creating the feature extractor", zap.Error(err))
	}

	extraction, err := extractor.Extract(ctx, description)
	if err != nil {
		logger.Fatal("extracting features", zap.Error(err))
	}

	record, err := normalize.Run(ctx, normalize.Deps{Logger: logger}, normalize.Default(config.AI.Fallback), extraction.Record)
	if err != nil {
		logger.Fatal("normalizing features", zap.Error(err))
	}
	extraction.Record = record

	printJSON(extraction)
}

// readDescription joins the arguments or, without any, asks for the description.
func readDescription(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	prompt := promptui.Prompt{
		Label: "Describe the plumbing job",
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New("description is empty")
			}
			return nil
		},
	}

	return prompt.Run()
}
