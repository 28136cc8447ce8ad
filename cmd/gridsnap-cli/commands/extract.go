package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gridsnap/gridsnap/cmd/gridsnap-cli/ui"
	"github.com/gridsnap/gridsnap/internal/config"
	"github.com/gridsnap/gridsnap/internal/imaging"
	"github.com/gridsnap/gridsnap/internal/observability"
	"github.com/gridsnap/gridsnap/internal/relay"
	"github.com/gridsnap/gridsnap/internal/vision"
)

var (
	extractOutputPath string
	extractAsJSON     bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <image>",
	Short: "Extract a table from a screenshot",
	Long:  "Extract table data from a screenshot image and print it as CSV (or JSON).",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractOutputPath, "output", "o", "", "write result to file instead of stdout")
	extractCmd.Flags().BoolVar(&extractAsJSON, "json", false, "emit {headers, rows} JSON instead of CSV")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ui.InitUI(noColor)

	imagePath := args[0]
	image, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Vision.Timeout)
	defer cancel()

	validator := imaging.NewValidator(cfg.Upload.MaxBytes, cfg.Upload.AllowedTypes)
	extractor := vision.NewClient(vision.ClientConfig{
		APIKey:    cfg.Vision.APIKey,
		Model:     cfg.Vision.Model,
		BaseURL:   cfg.Vision.BaseURL,
		Timeout:   cfg.Vision.Timeout,
		MaxTokens: cfg.Vision.MaxTokens,
		Logger:    observability.Nop(),
	})
	service := relay.NewService(validator, extractor, observability.Nop())

	ui.Info("Image: %s", imagePath)

	spin := ui.NewSpinner("Extracting table...")
	spin.Start()
	table, err := service.Process(ctx, image, contentTypeForPath(imagePath))
	spin.Stop()

	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	var output string
	if extractAsJSON {
		data, err := json.MarshalIndent(table, "", "  ")
		if err != nil {
			return fmt.Errorf("encode table: %w", err)
		}
		output = string(data) + "\n"
	} else {
		output, err = table.ToCSV()
		if err != nil {
			return fmt.Errorf("serialize table: %w", err)
		}
	}

	if extractOutputPath != "" {
		if err := os.WriteFile(extractOutputPath, []byte(output), 0644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		ui.Success("Extracted %d rows to %s", len(table.Rows), extractOutputPath)
		return nil
	}

	fmt.Print(output)
	ui.Success("Extracted %d columns, %d rows", len(table.Headers), len(table.Rows))
	return nil
}

// contentTypeForPath maps the file extension to the upload content type the
// relay validates against; the decoder still sniffs the actual bytes.
func contentTypeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}
