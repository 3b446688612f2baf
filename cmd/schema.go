package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/toolbelt/plumbing-estimator/internal/features"
	"github.com/toolbelt/plumbing-estimator/internal/model"
	"github.com/toolbelt/plumbing-estimator/internal/normalize"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the feature schema of the model bundle and the job field catalog",
	Run: func(cmd *cobra.Command, _ []string) {
		printSchema(cmd)
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)

	schemaCmd.Flags().String("model", "", "model bundle to load instead of model.path")
}

func printSchema(cmd *cobra.Command) {
	config, logger := setup()
	defer logger.Sync()

	predictor, err := loadPredictor(config.Model, cmd.Flag("model").Value.String(), logger)
	if err != nil {
		logger.Fatal("loading the predictor", zap.Error(err))
	}

	schema := predictor.Schema()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	fmt.Fprintf(w, "bundle version:\t%s\n", predictor.Version())
	fmt.Fprintf(w, "schema version:\t%d\n", schema.Version)
	fmt.Fprintf(w, "fingerprint:\t%s\n", schema.Fingerprint)
	fmt.Fprintf(w, "width:\t%d\n\n", schema.Width())

	fmt.Fprintln(w, "FIELD\tKIND\tENCODING\tVALUES\tDEFAULT")
	for _, f := range features.Catalog() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\n", f.Name, f.Kind, encoding(schema, f), fieldValues(f), f.Default)
	}

	fmt.Fprintln(w, "\nSTEP\tENABLED\tREASON")
	for _, s := range normalize.Describe(normalize.Default(config.AI.Fallback)) {
		fmt.Fprintf(w, "%s\t%t\t%s\n", s.Name, s.Enabled, s.Reason)
	}
	w.Flush()

	fmt.Println("\ncolumns:")
	for i, column := range schema.Features {
		fmt.Printf("  %3d  %s\n", i, column)
	}
}

func encoding(schema *model.Schema, f features.Field) string {
	switch {
	case f.Kind == features.KindCount:
		return "numeric"
	case schema.IsOrdinal(f.Name):
		return "ordinal"
	default:
		return "one-hot"
	}
}

func fieldValues(f features.Field) string {
	if f.Kind == features.KindCount {
		return fmt.Sprintf("%d-%d", f.Min, f.Max)
	}
	return strings.Join(f.Values, ", ")
}
