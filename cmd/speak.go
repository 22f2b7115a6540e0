package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"docvoice/internal/logger"
	"docvoice/internal/tts"
)

var speakCmd = &cobra.Command{
	Use:   "speak [text-file]",
	Short: "Synthesize text into a WAV file",
	Long: `Synthesize the given text into one WAV file. Text is read from the
file argument, or from stdin when the argument is "-".

Long text is split into chunks on sentence punctuation; chunks are
downloaded concurrently with retry and merged in source order. If any
chunk cannot be synthesized the whole run fails and no file is written.

Required credentials (environment variable or key file):
  YATING_API_KEY / YATING_API.txt`,
	Example: `  # Speak a text file
  docvoice speak letter.txt -o letter.wav

  # Speak piped text with a slower voice
  echo "今日真歡喜。" | docvoice speak - --speed 0.8 -o out.wav`,
	Args: cobra.ExactArgs(1),
	RunE: runSpeak,
}

func init() {
	rootCmd.AddCommand(speakCmd)

	speakCmd.Flags().StringP("output", "o", "speech.wav", "Output WAV file path")
	speakCmd.Flags().Int("timeout", 300, "Overall timeout in seconds")
	speakCmd.Flags().String("voice", "", "Voice model (default from config)")
	speakCmd.Flags().Float64("speed", 0, "Speaking speed (default from config)")
	speakCmd.Flags().Float64("pitch", 0, "Voice pitch (default from config)")
	speakCmd.Flags().Float64("energy", 0, "Voice energy (default from config)")
}

func runSpeak(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("speak")

	outputPath, _ := cmd.Flags().GetString("output")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")
	voiceModel, _ := cmd.Flags().GetString("voice")
	speed, _ := cmd.Flags().GetFloat64("speed")
	pitch, _ := cmd.Flags().GetFloat64("pitch")
	energy, _ := cmd.Flags().GetFloat64("energy")

	text, err := loadText(args[0])
	if err != nil {
		log.Error().Err(err).Str("source", args[0]).Msg("Failed to load text")
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("there is no text to speak")
	}

	log.Info().
		Str("output", outputPath).
		Int("text_length", len(text)).
		Msg("Starting synthesis")

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	// Flag overrides on top of config defaults.
	voice := tts.Voice{
		Model:  cfg.VoiceModel,
		Speed:  cfg.VoiceSpeed,
		Pitch:  cfg.VoicePitch,
		Energy: cfg.VoiceEnergy,
	}
	if voiceModel != "" {
		voice.Model = voiceModel
	}
	if speed > 0 {
		voice.Speed = speed
	}
	if pitch > 0 {
		voice.Pitch = pitch
	}
	if energy > 0 {
		voice.Energy = energy
	}

	synthesizer, err := createSynthesizerWithVoice(voice, log)
	if err != nil {
		return err
	}

	startTime := time.Now()
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
		Msg("Synthesis completed")
	fmt.Printf("Wrote %s (%d bytes)\n", outputPath, len(audio))

	return nil
}

// loadText reads the synthesis input from a file, or stdin for "-".
func loadText(source string) (string, error) {
	if source == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return "", fmt.Errorf("failed to read text file: %w", err)
	}
	return string(data), nil
}
