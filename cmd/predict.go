package cmd

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/toolbelt/plumbing-estimator/internal/features"
	"github.com/toolbelt/plumbing-estimator/internal/model"
)

var batchHeader = []string{"index", "cost", "time", "status", "error"}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict cost and time from a structured job record",
	Long: `Predict cost and time from a structured job record without calling a language model.

Exactly one of --example, --input-file or --batch is required.`,
	Run: func(cmd *cobra.Command, _ []string) {
		predict(cmd)
	},
}

func init() {
	rootCmd.AddCommand(predictCmd)

	predictCmd.Flags().Bool("example", false, "predict the default job")
	predictCmd.Flags().StringP("input-file", "i", "", "json file with one record; the result is written next to it as <name>.output.json")
	predictCmd.Flags().StringP("batch", "b", "", "csv file with a header of field names; results go to <name>.predictions.csv")
	predictCmd.Flags().String("model", "", "model bundle to load instead of model.path")

	predictCmd.MarkFlagsMutuallyExclusive("example", "input-file", "batch")
	predictCmd.MarkFlagsOneRequired("example", "input-file", "batch")
}

func predict(cmd *cobra.Command) {
	config, logger := setup()
	defer logger.Sync()

	predictor, err := loadPredictor(config.Model, cmd.Flag("model").Value.String(), logger)
	if err != nil {
		logger.Fatal("loading the predictor", zap.Error(err))
	}

	inputFile := cmd.Flag("input-file").Value.String()
	batchFile := cmd.Flag("batch").Value.String()

	switch {
	case batchFile != "":
		out, results, err := predictBatchFile(predictor, batchFile)
		if err != nil {
			logger.Fatal("batch prediction", zap.Error(err))
		}
		failed := 0
		for _, r := range results {
			if r.Error != "" {
				failed++
			}
		}
		logger.Info("batch prediction done",
			zap.Int("records", len(results)),
			zap.Int("failed", failed),
			zap.String("output", out),
		)

	case inputFile != "":
		record, err := readRecordFile(inputFile)
		if err != nil {
			logger.Fatal("reading the input record", zap.Error(err))
		}
		pred, err := predictor.Predict(record)
		if err != nil {
			logger.Fatal("prediction", zap.Error(err))
		}
		out := siblingPath(inputFile, ".output.json")
		if err := writeJSONFile(out, pred); err != nil {
			logger.Fatal("writing the prediction", zap.Error(err))
		}
		printJSON(pred)
		logger.Info("prediction saved", zap.String("output", out))

	default:
		pred, err := predictor.Predict(features.Defaults())
		if err != nil {
			logger.Fatal("prediction", zap.Error(err))
		}
		printJSON(map[string]any{"input": features.Defaults(), "prediction": pred})
	}
}

// siblingPath replaces the extension of path with suffix.
func siblingPath(path, suffix string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + suffix
}

func readRecordFile(path string) (features.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var record features.Record
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&record); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if record == nil {
		return nil, fmt.Errorf("%s: expected a JSON object", path)
	}

	return record, nil
}

func predictBatchFile(predictor *model.Predictor, path string) (string, []model.BatchResult, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", nil, err
	}
	defer in.Close()

	records, err := readBatch(in)
	if err != nil {
		return "", nil, fmt.Errorf("read %s: %w", path, err)
	}

	results := predictor.PredictBatch(records)

	out := siblingPath(path, ".predictions.csv")
	f, err := os.Create(out)
	if err != nil {
		return "", nil, err
	}
	if err := writeBatch(f, results); err != nil {
		f.Close()
		return "", nil, fmt.Errorf("write %s: %w", out, err)
	}

	return out, results, f.Close()
}

// readBatch reads one record per csv row, keyed by the header. Empty cells
// are left out so the missing field policy applies to them.
func readBatch(r io.Reader) ([]features.Record, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("csv is empty")
	}
	if err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records []features.Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		record := features.Record{}
		for i, cell := range row {
			if cell = strings.TrimSpace(cell); cell != "" {
				record[header[i]] = cell
			}
		}
		records = append(records, record)
	}

	return records, nil
}

func writeBatch(w io.Writer, results []model.BatchResult) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(batchHeader); err != nil {
		return err
	}

	for _, r := range results {
		row := []string{strconv.Itoa(r.Index), "", "", "ok", ""}
		if r.Error != "" {
			row[3], row[4] = "error", r.Error
		} else {
			row[1] = strconv.FormatFloat(r.Prediction.Cost, 'f', 2, 64)
			row[2] = strconv.FormatFloat(r.Prediction.Time, 'f', 2, 64)
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func printJSON(v any) {
	// do not bother error since every value printed here marshals
	pretty, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(pretty))
}
