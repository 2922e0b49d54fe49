package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/uberzzr/claude-relay/src/relayd/entity"
	"github.com/uberzzr/claude-relay/src/relayd/internal/fs"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_defaultBaseURL     = "https://api.openai.com/v1"
	_defaultModel       = "whisper-1"
	_defaultRefineModel = "gpt-4o-mini"

	_requestTimeout   = 2 * time.Minute
	_maxErrorBodySize = 2048

	_refineInstructions = "Clean up the following voice transcript: fix " +
		"punctuation and obvious transcription mistakes, keep the wording " +
		"and language unchanged, and return only the cleaned text."
)

// Transcriber turns an audio file reference into cleaned text. It is a
// black-box collaborator: the relay core consumes its output exactly like a
// typed message.
type Transcriber interface {
	// Transcribe downloads the audio at the given URL, transcribes it and
	// (when refinement is enabled) cleans the transcript up.
	Transcribe(ctx context.Context, audioURL string) (string, error)
}

// Params defines the dependencies of the transcriber.
type Params struct {
	fx.In

	Config config.Provider
	Logger *zap.SugaredLogger
	FS     fs.RelayFS
}

type transcriber struct {
	cfg    entity.TranscriptionConfig
	client *http.Client
	logger *zap.SugaredLogger
	fs     fs.RelayFS
}

// New returns a Transcriber from the "transcription" configuration block.
func New(p Params) (Transcriber, error) {
	var cfg entity.TranscriptionConfig
	if err := p.Config.Get(entity.TranscriptionConfigKey).Populate(&cfg); err != nil {
		return nil, fmt.Errorf("getting configuration for %q: %w", entity.TranscriptionConfigKey, err)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = _defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = _defaultModel
	}
	if cfg.RefineModel == "" {
		cfg.RefineModel = _defaultRefineModel
	}

	return &transcriber{
		cfg:    cfg,
		client: &http.Client{Timeout: _requestTimeout},
		logger: p.Logger.With("gateway", "transcriber"),
		fs:     p.FS,
	}, nil
}

func (t *transcriber) Transcribe(ctx context.Context, audioURL string) (string, error) {
	if t.cfg.APIKey == "" {
		return "", fmt.Errorf("transcription is not configured")
	}

	audioPath, err := t.download(ctx, audioURL)
	if err != nil {
		return "", err
	}
	defer func() {
		// Cleanup is best-effort and never propagates.
		if err := t.fs.Remove(audioPath); err != nil {
			t.logger.Debugw("leaving temp audio file behind", "path", audioPath, "error", err)
		}
	}()

	text, err := t.transcribe(ctx, audioPath)
	if err != nil {
		return "", err
	}

	if t.cfg.Refine {
		refined, err := t.refine(ctx, text)
		if err != nil {
			// Refinement is best-effort; the raw transcript is still
			// usable.
			t.logger.Warnw("transcript refinement failed", "error", err)
			return text, nil
		}
		return refined, nil
	}
	return text, nil
}

// download fetches the voice note into a temp file and returns its path.
func (t *transcriber) download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading audio: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("downloading audio: status %d", resp.StatusCode)
	}

	tmp, err := t.fs.TempFile("", "voice-*.oga")
	if err != nil {
		return "", fmt.Errorf("creating temp audio file: %w", err)
	}
	defer tmp.Close()
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		return "", fmt.Errorf("writing temp audio file: %w", err)
	}
	return tmp.Name(), nil
}

func (t *transcriber) transcribe(ctx context.Context, audioPath string) (string, error) {
	audio, err := t.fs.ReadFile(audioPath)
	if err != nil {
		return "", fmt.Errorf("reading temp audio file: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "voice.oga")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audio); err != nil {
		return "", err
	}
	if err := writer.WriteField("model", t.cfg.Model); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.BaseURL+"/audio/transcriptions", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+t.cfg.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling transcription API: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", apiError("transcription", resp)
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding transcription response: %w", err)
	}
	return parsed.Text, nil
}

func (t *transcriber) refine(ctx context.Context, transcript string) (string, error) {
	payload := map[string]any{
		"model": t.cfg.RefineModel,
		"messages": []map[string]string{
			{"role": "system", "content": _refineInstructions},
			{"role": "user", "content": transcript},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+t.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling refinement API: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", apiError("refinement", resp)
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding refinement response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("refinement response contained no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

func apiError(stage string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, _maxErrorBodySize))
	return fmt.Errorf("%s API returned status %d: %s", stage, resp.StatusCode, bytes.TrimSpace(body))
}
