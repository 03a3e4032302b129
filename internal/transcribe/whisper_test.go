package transcribe

import (
	"bytes"
	"encoding/binary"
	"io"
	"net/http"
	"strings"
	"testing"

	"subsync/internal/errs"
	"subsync/internal/extract"
)

func fakeResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestDecodeTranscriptionResponseSuccess(t *testing.T) {
	resp := fakeResponse(200, `{"text":"hello there"}`)
	text, err := decodeTranscriptionResponse(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hello there" {
		t.Errorf("text = %q, want %q", text, "hello there")
	}
}

func TestDecodeTranscriptionResponseAuthError(t *testing.T) {
	resp := fakeResponse(401, `{}`)
	_, err := decodeTranscriptionResponse(resp)
	if _, ok := err.(*errs.AuthError); !ok {
		t.Fatalf("expected AuthError, got %T: %v", err, err)
	}
}

func TestDecodeTranscriptionResponseQuotaExceeded(t *testing.T) {
	resp := fakeResponse(429, `{}`)
	_, err := decodeTranscriptionResponse(resp)
	if _, ok := err.(*errs.QuotaExceeded); !ok {
		t.Fatalf("expected QuotaExceeded, got %T: %v", err, err)
	}
}

func TestDecodeTranscriptionResponseServerErrorRetryable(t *testing.T) {
	resp := fakeResponse(503, `{}`)
	_, err := decodeTranscriptionResponse(resp)
	if _, ok := err.(*errs.RetryableApiError); !ok {
		t.Fatalf("expected RetryableApiError, got %T: %v", err, err)
	}
}

func TestWriteWAVHeaderIsWellFormed(t *testing.T) {
	pcm := extract.PCM{Samples: []float32{0, 0.5, -0.5, 1, -1}}
	buf := &bytes.Buffer{}
	if err := writeWAV(buf, pcm); err != nil {
		t.Fatalf("writeWAV failed: %v", err)
	}

	data := buf.Bytes()
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("missing RIFF/WAVE markers")
	}
	sampleRate := binary.LittleEndian.Uint32(data[24:28])
	if sampleRate != extract.SampleRate {
		t.Errorf("sample rate = %d, want %d", sampleRate, extract.SampleRate)
	}
	dataSize := binary.LittleEndian.Uint32(data[40:44])
	if int(dataSize) != len(pcm.Samples)*2 {
		t.Errorf("data size = %d, want %d", dataSize, len(pcm.Samples)*2)
	}
	if len(data) != 44+len(pcm.Samples)*2 {
		t.Errorf("total length = %d, want %d", len(data), 44+len(pcm.Samples)*2)
	}
}
