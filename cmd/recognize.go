package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"docvoice/internal/logger"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize [image-file]",
	Short: "Recognize a photographed document into text",
	Long: `Send the photographed document to the vision model and print the
recognized text. Candidate models are tried in priority order until one
returns a usable result.

Required credentials (environment variable or key file):
  GEMINI_API_KEY / GEMINI_API.txt`,
	Example: `  # Print the recognized text to stdout
  docvoice recognize letter.jpg

  # Full read-out, saved as JSON with metadata
  docvoice recognize letter.jpg --detailed --json -o result.json`,
	Args: cobra.ExactArgs(1),
	RunE: runRecognize,
}

// recognizeOutput is the JSON output structure when --json is used
type recognizeOutput struct {
	Text               string    `json:"text"`
	FileName           string    `json:"file_name"`
	FileSize           int64     `json:"file_size"`
	Detailed           bool      `json:"detailed"`
	ProcessedAt        time.Time `json:"processed_at"`
	ProcessingDuration string    `json:"processing_duration"`
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	recognizeCmd.Flags().Bool("detailed", false, "Read the full content instead of a short summary")
	recognizeCmd.Flags().Bool("json", false, "Output as JSON")
	recognizeCmd.Flags().Int("timeout", 120, "Processing timeout in seconds")
}

func runRecognize(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("recognize")

	outputPath, _ := cmd.Flags().GetString("output")
	detailed, _ := cmd.Flags().GetBool("detailed")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	imagePath := args[0]

	log.Info().
		Str("file", imagePath).
		Bool("detailed", detailed).
		Bool("json", jsonOutput).
		Msg("Starting recognition")

	imageBytes, err := loadImageFile(imagePath, log)
	if err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	recognizer, err := createRecognizer(log)
	if err != nil {
		return err
	}

	startTime := time.Now()
	text, err := recognizer.Recognize(ctx, imageBytes, cfg.Prompt(detailed))
	if err != nil {
		return handleRecognitionError(err, log)
	}

	duration := time.Since(startTime)
	log.Info().
		Int("text_length", len(text)).
		Dur("duration", duration).
		Msg("Recognition completed")

	var outputData []byte
	if jsonOutput {
		outputData, err = json.MarshalIndent(recognizeOutput{
			Text:               text,
			FileName:           filepath.Base(imagePath),
			FileSize:           int64(len(imageBytes)),
			Detailed:           detailed,
			ProcessedAt:        time.Now(),
			ProcessingDuration: duration.String(),
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to create JSON output: %w", err)
		}
	} else {
		outputData = []byte(text)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, outputData, 0644); err != nil {
			log.Error().
				Err(err).
				Str("output_file", outputPath).
				Msg("Failed to write output file")
			return fmt.Errorf("failed to write output file: %w", err)
		}
		log.Info().
			Str("output_file", outputPath).
			Int("bytes", len(outputData)).
			Msg("Recognition results written to file")
	} else {
		if _, err := os.Stdout.Write(outputData); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		if !jsonOutput {
			fmt.Println()
		}
	}

	return nil
}
