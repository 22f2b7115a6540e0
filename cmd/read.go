package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"docvoice/internal/logger"
	"docvoice/internal/recognition"
	"docvoice/internal/tts"
)

// MaxImageSizeBytes bounds the image payload sent to the vision model.
const MaxImageSizeBytes = 10 * 1024 * 1024

var readCmd = &cobra.Command{
	Use:   "read [image-file]",
	Short: "Recognize a photographed document and speak it as a WAV file",
	Long: `Run the full pipeline: send the photographed document to the vision
model, take the recognized text, and synthesize it into one WAV file.

Recognition fails over across candidate models automatically; synthesis
splits the text into chunks, downloads them concurrently with retry, and
merges the audio losslessly. If any chunk cannot be synthesized the whole
run fails — no partial audio is ever written.

Required credentials (environment variable or key file):
  GEMINI_API_KEY / GEMINI_API.txt - vision model access
  YATING_API_KEY / YATING_API.txt - speech synthesis access`,
	Example: `  # Read a photographed letter into letter.wav
  docvoice read letter.jpg -o letter.wav

  # Faithful full read-out instead of a short summary
  docvoice read letter.jpg --detailed -o letter.wav`,
	Args: cobra.ExactArgs(1),
	RunE: runRead,
}

func init() {
	rootCmd.AddCommand(readCmd)

	readCmd.Flags().StringP("output", "o", "output.wav", "Output WAV file path")
	readCmd.Flags().Bool("detailed", false, "Read the full content instead of a short summary")
	readCmd.Flags().Int("timeout", 300, "Overall timeout in seconds")
}

func runRead(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("read")

	outputPath, _ := cmd.Flags().GetString("output")
	detailed, _ := cmd.Flags().GetBool("detailed")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	imagePath := args[0]

	log.Info().
		Str("file", imagePath).
		Str("output", outputPath).
		Bool("detailed", detailed).
		Int("timeout", timeoutSecs).
		Msg("Starting read pipeline")

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

	log.Info().
		Int("text_length", len(text)).
		Dur("duration", time.Since(startTime)).
		Msg("Recognition completed")

	synthesizer, err := createSynthesizer(log)
	if err != nil {
		return err
	}

	audio, err := synthesizer.Synthesize(ctx, text)
	if err != nil {
		return handleSynthesisError(err, log)
	}

	if err := os.WriteFile(outputPath, audio, 0644); err != nil {
		log.Error().
			Err(err).
			Str("output_file", outputPath).
			Msg("Failed to write output file")
		return fmt.Errorf("failed to write output file: %w", err)
	}

	log.Info().
		Str("output_file", outputPath).
		Int("bytes", len(audio)).
		Dur("duration", time.Since(startTime)).
		Msg("Read pipeline completed")
	fmt.Printf("Wrote %s (%d bytes)\n", outputPath, len(audio))

	return nil
}

// loadImageFile validates the image path and returns its contents.
func loadImageFile(imagePath string, log zerolog.Logger) ([]byte, error) {
	fileInfo, err := os.Stat(imagePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Error().
				Str("file", imagePath).
				Msg("Image file not found")
			return nil, fmt.Errorf("image file not found: %s", imagePath)
		}
		if os.IsPermission(err) {
			log.Error().
				Str("file", imagePath).
				Msg("Permission denied accessing image file")
			return nil, fmt.Errorf("permission denied accessing image file: %s", imagePath)
		}
		return nil, fmt.Errorf("error accessing image file: %w", err)
	}

	if !fileInfo.Mode().IsRegular() {
		log.Error().
			Str("file", imagePath).
			Msg("Path is not a regular file")
		return nil, fmt.Errorf("path is not a regular file: %s", imagePath)
	}

	if fileInfo.Size() == 0 {
		log.Error().
			Str("file", imagePath).
			Msg("Image file is empty")
		return nil, fmt.Errorf("image file is empty: %s", imagePath)
	}

	if fileInfo.Size() > MaxImageSizeBytes {
		log.Error().
			Str("file", imagePath).
			Int64("size", fileInfo.Size()).
			Msg("Image file exceeds maximum size limit")
		return nil, fmt.Errorf("image file too large (%d bytes), maximum is %d bytes",
			fileInfo.Size(), MaxImageSizeBytes)
	}

	lower := strings.ToLower(imagePath)
	if !strings.HasSuffix(lower, ".jpg") && !strings.HasSuffix(lower, ".jpeg") {
		log.Warn().
			Str("file", imagePath).
			Msg("File does not have a .jpg extension, sending as JPEG anyway")
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}
	return data, nil
}

// createContextWithTimeout creates a context with timeout and signal handling
func createContextWithTimeout(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// createRecognizer builds the recognition service from the loaded config.
func createRecognizer(log zerolog.Logger) (recognition.Recognizer, error) {
	svc, err := recognition.NewGeminiService(recognition.Config{
		APIKey:  cfg.GeminiAPIKey,
		BaseURL: cfg.GeminiBaseURL,
		Logger:  logger.WithComponent("recognition"),
	})
	if err != nil {
		if errors.Is(err, recognition.ErrMissingAPIKey) {
			log.Error().Msg("Gemini API key not configured")
			return nil, fmt.Errorf("Gemini API key not configured. Please either:\n\n" +
				"1. Export GEMINI_API_KEY:\n" +
				"   export GEMINI_API_KEY=your-key\n\n" +
				"2. Or place the key in a GEMINI_API.txt file next to the binary")
		}
		return nil, fmt.Errorf("failed to create recognition service: %w", err)
	}
	return svc, nil
}

// createSynthesizer builds the synthesis service from the loaded config.
func createSynthesizer(log zerolog.Logger) (tts.Synthesizer, error) {
	voice := tts.Voice{
		Model:  cfg.VoiceModel,
		Speed:  cfg.VoiceSpeed,
		Pitch:  cfg.VoicePitch,
		Energy: cfg.VoiceEnergy,
	}
	return createSynthesizerWithVoice(voice, log)
}

// createSynthesizerWithVoice builds the synthesis service with an explicit
// voice, used when command flags override the configured defaults.
func createSynthesizerWithVoice(voice tts.Voice, log zerolog.Logger) (tts.Synthesizer, error) {
	svc, err := tts.NewService(tts.Config{
		APIKey:      cfg.YatingAPIKey,
		Endpoint:    cfg.TTSEndpoint,
		Voice:       voice,
		ChunkSize:   cfg.TTSChunkSize,
		Workers:     cfg.TTSWorkers,
		MaxAttempts: cfg.TTSMaxAttempts,
		Timeout:     time.Duration(cfg.TTSTimeoutSecs) * time.Second,
		RetryDelay:  time.Duration(cfg.TTSRetryDelayMsec) * time.Millisecond,
		Logger:      logger.WithComponent("tts"),
	})
	if err != nil {
		if errors.Is(err, tts.ErrMissingAPIKey) {
			log.Error().Msg("Yating API key not configured")
			return nil, fmt.Errorf("Yating API key not configured. Please either:\n\n" +
				"1. Export YATING_API_KEY:\n" +
				"   export YATING_API_KEY=your-key\n\n" +
				"2. Or place the key in a YATING_API.txt file next to the binary")
		}
		return nil, fmt.Errorf("failed to create synthesis service: %w", err)
	}
	return svc, nil
}

// handleRecognitionError provides user-friendly messages for recognition failures
func handleRecognitionError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Recognition failed")

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("recognition timed out. Try increasing --timeout")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("recognition was canceled")
	case errors.Is(err, recognition.ErrEmptyImage):
		return fmt.Errorf("the image payload is empty")
	case errors.Is(err, recognition.ErrExhausted):
		return fmt.Errorf("could not read the image: every candidate model failed (%v)", err)
	default:
		return fmt.Errorf("could not read the image: %w", err)
	}
}

// handleSynthesisError provides user-friendly messages for synthesis failures
func handleSynthesisError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Synthesis failed")

	var incomplete *tts.IncompleteSynthesisError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("synthesis timed out. Try increasing --timeout")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("synthesis was canceled")
	case errors.Is(err, tts.ErrEmptyInput):
		return fmt.Errorf("there is no text to speak")
	case errors.As(err, &incomplete):
		return fmt.Errorf("could not produce audio: %d of %d segments failed to synthesize",
			incomplete.Missing, incomplete.Total)
	default:
		return fmt.Errorf("could not produce audio: %w", err)
	}
}
