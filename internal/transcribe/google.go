package transcribe

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"subsync/internal/errs"
	"subsync/internal/extract"
)

const googleSpeechEndpoint = "https://speech.googleapis.com/v1/speech:recognize"

// GoogleCloud calls Google's Cloud Speech-to-Text REST endpoint.
// Named per the spec's environment contract (GOOGLE_PLACES_API_KEY),
// which this adapter treats as a plain API key query parameter.
type GoogleCloud struct {
	APIKey   string
	Language string // defaults to "en-US"
	Client   *http.Client
}

// NewGoogleCloud builds a GoogleCloud adapter, failing with
// errs.AuthError if apiKey is empty.
func NewGoogleCloud(apiKey string) (*GoogleCloud, error) {
	if apiKey == "" {
		return nil, &errs.AuthError{Msg: "GOOGLE_PLACES_API_KEY is not set"}
	}
	return &GoogleCloud{APIKey: apiKey, Language: "en-US", Client: http.DefaultClient}, nil
}

type googleSpeechRequest struct {
	Config struct {
		Encoding        string `json:"encoding"`
		SampleRateHertz int    `json:"sampleRateHertz"`
		LanguageCode    string `json:"languageCode"`
	} `json:"config"`
	Audio struct {
		Content string `json:"content"`
	} `json:"audio"`
}

type googleSpeechResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"results"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (g *GoogleCloud) Transcribe(ctx context.Context, pcm extract.PCM) (string, error) {
	buf := &bytes.Buffer{}
	if err := writeWAV(buf, pcm); err != nil {
		return "", &errs.RetryableApiError{Attempt: 1, Err: err}
	}

	lang := g.Language
	if lang == "" {
		lang = "en-US"
	}
	var reqBody googleSpeechRequest
	reqBody.Config.Encoding = "LINEAR16"
	reqBody.Config.SampleRateHertz = extract.SampleRate
	reqBody.Config.LanguageCode = lang
	reqBody.Audio.Content = base64.StdEncoding.EncodeToString(buf.Bytes())

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", &errs.RetryableApiError{Attempt: 1, Err: err}
	}

	url := fmt.Sprintf("%s?key=%s", googleSpeechEndpoint, g.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", &errs.RetryableApiError{Attempt: 1, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", &errs.RetryableApiError{Attempt: 1, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", &errs.AuthError{Msg: fmt.Sprintf("http %d", resp.StatusCode)}
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &errs.QuotaExceeded{Msg: "rate limited"}
	}
	if resp.StatusCode >= 500 {
		return "", &errs.RetryableApiError{Attempt: 1, Err: fmt.Errorf("http %d", resp.StatusCode)}
	}

	var out googleSpeechResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &errs.RetryableApiError{Attempt: 1, Err: err}
	}
	if out.Error != nil {
		if out.Error.Code == 401 || out.Error.Code == 403 {
			return "", &errs.AuthError{Msg: out.Error.Message}
		}
		if out.Error.Code == 429 {
			return "", &errs.QuotaExceeded{Msg: out.Error.Message}
		}
		return "", &errs.RetryableApiError{Attempt: 1, Err: fmt.Errorf("%s", out.Error.Message)}
	}

	var text string
	for i, r := range out.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		if i > 0 {
			text += " "
		}
		text += r.Alternatives[0].Transcript
	}
	return text, nil
}
