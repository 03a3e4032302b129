package transcribe

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"

	"subsync/internal/errs"
	"subsync/internal/extract"
)

const whisperEndpoint = "https://api.openai.com/v1/audio/transcriptions"

// WhisperCloud calls OpenAI's hosted Whisper transcription endpoint.
type WhisperCloud struct {
	APIKey string
	Model  string // defaults to "whisper-1"
	Client *http.Client
}

// NewWhisperCloud builds a WhisperCloud adapter, failing with
// errs.AuthError if apiKey is empty (spec §6 environment contract).
func NewWhisperCloud(apiKey string) (*WhisperCloud, error) {
	if apiKey == "" {
		return nil, &errs.AuthError{Msg: "OPENAI_API_KEY is not set"}
	}
	return &WhisperCloud{APIKey: apiKey, Model: "whisper-1", Client: http.DefaultClient}, nil
}

func (w *WhisperCloud) Transcribe(ctx context.Context, pcm extract.PCM) (string, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	part, err := mw.CreateFormFile("file", "sample.wav")
	if err != nil {
		return "", &errs.RetryableApiError{Attempt: 1, Err: err}
	}
	if err := writeWAV(part, pcm); err != nil {
		return "", &errs.RetryableApiError{Attempt: 1, Err: err}
	}
	if err := mw.WriteField("model", modelOr(w.Model, "whisper-1")); err != nil {
		return "", &errs.RetryableApiError{Attempt: 1, Err: err}
	}
	if err := mw.Close(); err != nil {
		return "", &errs.RetryableApiError{Attempt: 1, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, whisperEndpoint, body)
	if err != nil {
		return "", &errs.RetryableApiError{Attempt: 1, Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+w.APIKey)

	client := w.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", &errs.RetryableApiError{Attempt: 1, Err: err}
	}
	defer resp.Body.Close()

	return decodeTranscriptionResponse(resp)
}

func decodeTranscriptionResponse(resp *http.Response) (string, error) {
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return "", &errs.AuthError{Msg: fmt.Sprintf("http %d", resp.StatusCode)}
	case http.StatusTooManyRequests:
		return "", &errs.QuotaExceeded{Msg: "rate limited"}
	}
	if resp.StatusCode >= 500 {
		return "", &errs.RetryableApiError{Attempt: 1, Err: fmt.Errorf("http %d", resp.StatusCode)}
	}
	if resp.StatusCode >= 400 {
		return "", &errs.RetryableApiError{Attempt: 1, Err: fmt.Errorf("http %d", resp.StatusCode)}
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", &errs.RetryableApiError{Attempt: 1, Err: err}
	}
	return payload.Text, nil
}

func modelOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// writeWAV encodes pcm as a 16-bit PCM WAV container, the format the
// cloud transcription endpoints expect.
func writeWAV(w io.Writer, pcm extract.PCM) error {
	numSamples := len(pcm.Samples)
	dataSize := numSamples * 2
	byteRate := extract.SampleRate * 2

	header := bytes.Buffer{}
	header.WriteString("RIFF")
	binary.Write(&header, binary.LittleEndian, uint32(36+dataSize))
	header.WriteString("WAVE")
	header.WriteString("fmt ")
	binary.Write(&header, binary.LittleEndian, uint32(16))
	binary.Write(&header, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&header, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&header, binary.LittleEndian, uint32(extract.SampleRate))
	binary.Write(&header, binary.LittleEndian, uint32(byteRate))
	binary.Write(&header, binary.LittleEndian, uint16(2)) // block align
	binary.Write(&header, binary.LittleEndian, uint16(16))
	header.WriteString("data")
	binary.Write(&header, binary.LittleEndian, uint32(dataSize))
	if _, err := w.Write(header.Bytes()); err != nil {
		return err
	}

	buf := make([]byte, dataSize)
	for i, s := range pcm.Samples {
		v := int16(math.Max(-32768, math.Min(32767, float64(s)*32767)))
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
	}
	_, err := w.Write(buf)
	return err
}
