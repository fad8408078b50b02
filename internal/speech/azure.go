package speech

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MrJi421/VOCEX/internal/logger"
)

// AzureOption configures the Azure TTS client.
type AzureOption func(*AzureClient)

// WithVoice overrides the default synthesis voice.
func WithVoice(voice string) AzureOption {
	return func(c *AzureClient) {
		c.voice = voice
	}
}

// WithAudioFormat overrides the requested audio output format.
func WithAudioFormat(format string) AzureOption {
	return func(c *AzureClient) {
		c.format = format
	}
}

// WithHTTPTimeout bounds each synthesis request.
func WithHTTPTimeout(d time.Duration) AzureOption {
	return func(c *AzureClient) {
		c.httpClient.Timeout = d
	}
}

// AzureClient synthesizes speech through the Azure Cognitive Services
// REST endpoint. One POST per utterance, SSML in, WAV out.
type AzureClient struct {
	key        string
	region     string
	voice      string
	format     string
	httpClient *http.Client
	log        *logger.Logger
}

// Voice reports the configured voice name. The audio cache keys
// entries on it.
func (c *AzureClient) Voice() string { return c.voice }

// NewAzureClient builds a TTS client for the given subscription key
// and region.
func NewAzureClient(key, region string, log *logger.Logger, opts ...AzureOption) *AzureClient {
	c := &AzureClient{
		key:    key,
		region: region,
		voice:  DefaultVoice,
		format: DefaultAudioFormat,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *AzureClient) endpoint() string {
	return fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", c.region)
}

// Synthesize renders text as WAV audio.
func (c *AzureClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	ssml := c.buildSSML(text)
	c.log.Debug("azure tts: %d chars, voice %s", len(text), c.voice)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), strings.NewReader(ssml))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", c.format)
	req.Header.Set("User-Agent", "VOCEX/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("azure tts error %d: %s", resp.StatusCode, string(body))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading audio data: %w", err)
	}

	c.log.Debug("azure tts: received %d bytes", len(audio))
	return audio, nil
}

// ssmlEscaper handles the XML special characters that can appear in
// spoken feedback (program names, note text).
var ssmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

// buildSSML wraps text in the minimal SSML envelope Azure requires.
func (c *AzureClient) buildSSML(text string) string {
	return fmt.Sprintf(
		`<speak version='1.0' xml:lang='en-US'><voice xml:lang='en-US' name='%s'>%s</voice></speak>`,
		c.voice, ssmlEscaper.Replace(text),
	)
}
