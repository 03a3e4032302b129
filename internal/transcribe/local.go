package transcribe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"

	"subsync/internal/errs"
	"subsync/internal/extract"
)

// LocalConfig configures the offline sherpa-onnx Whisper backend.
type LocalConfig struct {
	ModelDir   string
	Language   string // empty for auto-detect
	NumThreads int
}

// DefaultLocalConfig returns sane offline-transcription defaults.
func DefaultLocalConfig(modelDir string) *LocalConfig {
	return &LocalConfig{ModelDir: modelDir, Language: "en", NumThreads: 4}
}

var encoderCandidates = []string{
	"encoder.int8.onnx", "encoder.onnx",
	"large-v3-encoder.int8.onnx", "large-v3-encoder.onnx",
	"turbo-encoder.int8.onnx", "turbo-encoder.onnx",
}

var decoderCandidates = []string{
	"decoder.int8.onnx", "decoder.onnx",
	"large-v3-decoder.int8.onnx", "large-v3-decoder.onnx",
	"turbo-decoder.int8.onnx", "turbo-decoder.onnx",
}

var tokensCandidates = []string{
	"tokens.txt", "large-v3-tokens.txt", "turbo-tokens.txt",
}

// Local wraps an offline sherpa-onnx Whisper recognizer. The backend
// has no transient/fatal distinction of its own: a decode that yields
// no result is surfaced as errs.RetryableApiError, so the shared retry
// policy decodes the same buffer again; a canceled context is returned
// as is.
type Local struct {
	recognizer *sherpa.OfflineRecognizer
	config     *LocalConfig
}

// NewLocal builds a Local transcriber by locating encoder/decoder/token
// files in config.ModelDir, mirroring the teacher's model-discovery
// convention of trying a list of known filenames in priority order.
func NewLocal(config *LocalConfig) (*Local, error) {
	if config == nil {
		return nil, &errs.InternalInvariant{Msg: "local transcriber requires a config"}
	}

	encoderPath := findModelFile(config.ModelDir, encoderCandidates)
	decoderPath := findModelFile(config.ModelDir, decoderCandidates)
	tokensPath := findModelFile(config.ModelDir, tokensCandidates)

	if encoderPath == "" {
		return nil, fmt.Errorf("encoder model not found in %s", config.ModelDir)
	}
	if decoderPath == "" {
		return nil, fmt.Errorf("decoder model not found in %s", config.ModelDir)
	}
	if tokensPath == "" {
		return nil, fmt.Errorf("tokens file not found in %s", config.ModelDir)
	}

	numThreads := config.NumThreads
	if numThreads <= 0 {
		numThreads = 4
	}

	sherpaConfig := sherpa.OfflineRecognizerConfig{
		FeatConfig: sherpa.FeatureConfig{
			SampleRate: extract.SampleRate,
			FeatureDim: 80,
		},
		ModelConfig: sherpa.OfflineModelConfig{
			Whisper: sherpa.OfflineWhisperModelConfig{
				Encoder:  encoderPath,
				Decoder:  decoderPath,
				Language: config.Language,
				Task:     "transcribe",
			},
			Tokens:     tokensPath,
			NumThreads: numThreads,
			Debug:      0,
		},
	}

	recognizer := sherpa.NewOfflineRecognizer(&sherpaConfig)
	if recognizer == nil {
		return nil, fmt.Errorf("failed to create local recognizer from %s", config.ModelDir)
	}

	return &Local{recognizer: recognizer, config: config}, nil
}

// Close releases the underlying recognizer.
func (l *Local) Close() {
	if l.recognizer != nil {
		sherpa.DeleteOfflineRecognizer(l.recognizer)
		l.recognizer = nil
	}
}

func (l *Local) Transcribe(ctx context.Context, pcm extract.PCM) (string, error) {
	if len(pcm.Samples) == 0 {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	stream := sherpa.NewOfflineStream(l.recognizer)
	defer sherpa.DeleteOfflineStream(stream)

	stream.AcceptWaveform(extract.SampleRate, pcm.Samples)
	l.recognizer.Decode(stream)

	result := stream.GetResult()
	if result == nil {
		return "", &errs.RetryableApiError{Attempt: 1, Err: fmt.Errorf("local recognizer returned no result")}
	}
	return result.Text, nil
}

func findModelFile(dir string, candidates []string) string {
	for _, candidate := range candidates {
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
