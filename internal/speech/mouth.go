package speech

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/MrJi421/VOCEX/internal/logger"
)

// Synthesizer turns text into WAV audio. Implemented by AzureClient.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
	Voice() string
}

// AudioSink plays WAV audio. Implemented by Player.
type AudioSink interface {
	Play(wav []byte) error
	Stop()
}

// MouthOption configures the Mouth.
type MouthOption func(*Mouth)

// WithLaneCapacity bounds each feedback lane. When a lane is full the
// oldest item in it is dropped to make room.
func WithLaneCapacity(n int) MouthOption {
	return func(m *Mouth) {
		if n > 0 {
			m.laneCap = n
		}
	}
}

// WithChunkSize sets the approximate max character count per TTS chunk.
// Text longer than this is split at sentence boundaries and synthesized
// in parallel so playback doesn't stall between sentences.
func WithChunkSize(n int) MouthOption {
	return func(m *Mouth) {
		m.chunkSize = n
	}
}

// WithCacheDir sets the filesystem directory used for persistent audio
// caching. If empty, the disk layer is disabled (pure in-memory).
func WithCacheDir(dir string) MouthOption {
	return func(m *Mouth) {
		m.cacheDir = dir
	}
}

// WithDiskWrite controls whether new cache entries are written to disk.
// Even when false, existing on-disk entries are still read.
func WithDiskWrite(enabled bool) MouthOption {
	return func(m *Mouth) {
		m.diskWrite = enabled
	}
}

// Mouth is the central speech dispatcher. It serializes all speech
// output through a single pipeline: queue -> chunk -> synthesize
// (parallel) -> play (sequential). Only one thing speaks at a time.
//
// Feedback is queued into two bounded lanes. PriorityHigh and above go
// to the priority lane, which always drains first; everything else
// waits in the normal lane. A full lane drops its oldest item, so a
// burst of chatter can never starve or unbound the queue.
//
// An internal AudioCache transparently avoids re-synthesizing identical
// text. Use Prefetch to pre-warm the cache for text that will be spoken
// soon.
type Mouth struct {
	tts   Synthesizer
	sink  AudioSink
	log   *logger.Logger
	cache *AudioCache

	mu             sync.Mutex
	priority       []SpeechRequest // PriorityHigh and PriorityCritical
	normal         []SpeechRequest // PriorityLow and PriorityNormal
	laneCap        int
	notify         chan struct{}
	speaking       bool
	interrupted    bool   // set by Interrupt(), checked between chunks
	chunkSize      int    // chars per TTS request, 0 = no chunking
	cacheDir       string // filesystem cache directory
	diskWrite      bool   // persist new cache entries to disk
	lastSpokenText string // most recent non-filler text spoken
}

// NewMouth creates a speech dispatcher with the given synthesizer and sink.
func NewMouth(tts Synthesizer, sink AudioSink, log *logger.Logger, opts ...MouthOption) *Mouth {
	m := &Mouth{
		tts:       tts,
		sink:      sink,
		log:       log,
		laneCap:   32,
		notify:    make(chan struct{}, 1),
		chunkSize: 200,  // roughly 2 sentences
		diskWrite: true, // default: persist to disk
	}
	for _, opt := range opts {
		opt(m)
	}
	// Build the cache after options are applied so voice/cacheDir/diskWrite
	// are all settled.
	m.cache = NewAudioCache(tts.Voice(), m.cacheDir, m.diskWrite, log)
	return m
}

// Say queues text to be spoken at the given priority. Non-blocking.
// When something at PriorityNormal or above is queued, any stale
// PriorityLow items are flushed — they're no longer relevant.
func (m *Mouth) Say(text string, priority Priority) {
	if strings.TrimSpace(text) == "" {
		return
	}

	m.mu.Lock()
	if priority >= PriorityNormal {
		m.flushLowLocked()
	}
	req := SpeechRequest{
		Text:     text,
		Priority: priority,
		QueuedAt: time.Now(),
	}
	lane := &m.normal
	if priority >= PriorityHigh {
		lane = &m.priority
	}
	*lane = append(*lane, req)
	if len(*lane) > m.laneCap {
		dropped := (*lane)[0]
		*lane = (*lane)[1:]
		m.log.Warn("mouth: lane full, dropped: %s", truncate(dropped.Text, 60))
	}
	qLen := len(m.priority) + len(m.normal)
	m.mu.Unlock()

	m.log.Debug("mouth: queued (priority=%d, queue_len=%d): %s", priority, qLen, truncate(text, 60))

	// Wake the processing goroutine.
	select {
	case m.notify <- struct{}{}:
	default: // already signaled
	}
}

// flushLowLocked removes all PriorityLow items from the normal lane.
// Must be called with m.mu held.
func (m *Mouth) flushLowLocked() {
	n := 0
	for _, item := range m.normal {
		if item.Priority > PriorityLow {
			m.normal[n] = item
			n++
		}
	}
	dropped := len(m.normal) - n
	m.normal = m.normal[:n]
	if dropped > 0 {
		m.log.Debug("mouth: flushed %d low-priority items", dropped)
	}
}

// IsSpeaking returns true if the mouth is currently synthesizing or
// playing audio.
func (m *Mouth) IsSpeaking() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.speaking
}

// QueueLen returns the number of pending speech requests across both lanes.
func (m *Mouth) QueueLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.priority) + len(m.normal)
}

// Interrupt stops the currently playing audio, clears both lanes, and
// causes any in-progress multi-chunk playback to abort. Use this when
// something more important needs to be spoken immediately.
func (m *Mouth) Interrupt() {
	m.mu.Lock()
	m.priority = m.priority[:0]
	m.normal = m.normal[:0]
	m.interrupted = true
	m.mu.Unlock()

	m.sink.Stop()

	m.log.Debug("mouth: interrupted, queue cleared, playback stopped")
}

// Start launches the processing goroutine. Non-blocking.
func (m *Mouth) Start(ctx context.Context) {
	go m.processLoop(ctx)
	m.log.Info("mouth started")
}

// processLoop wakes on the notify channel and drains the lanes.
func (m *Mouth) processLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			m.log.Info("mouth stopped")
			return
		case <-m.notify:
			m.drain(ctx)
		}
	}
}

// drain speaks everything queued, priority lane ahead of normal.
func (m *Mouth) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		// Reset the interrupt flag so items queued after the
		// interrupt still play.
		m.mu.Lock()
		m.interrupted = false
		m.mu.Unlock()

		item, ok := m.dequeue()
		if !ok {
			return
		}

		m.mu.Lock()
		m.speaking = true
		m.mu.Unlock()

		m.process(ctx, item)

		// Remember the last substantial utterance; fillers and
		// short acks don't count.
		if len(item.Text) > 20 {
			m.mu.Lock()
			m.lastSpokenText = item.Text
			m.mu.Unlock()
		}

		m.mu.Lock()
		m.speaking = false
		m.mu.Unlock()
	}
}

// dequeue removes and returns the next item to speak: highest priority
// first within the priority lane, then the normal lane, oldest first
// on ties.
func (m *Mouth) dequeue() (SpeechRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lane := &m.priority
	if len(*lane) == 0 {
		lane = &m.normal
	}
	if len(*lane) == 0 {
		return SpeechRequest{}, false
	}

	bestIdx := 0
	for i, item := range *lane {
		if item.Priority > (*lane)[bestIdx].Priority {
			bestIdx = i
		}
	}

	item := (*lane)[bestIdx]
	*lane = append((*lane)[:bestIdx], (*lane)[bestIdx+1:]...)
	return item, true
}

// process synthesizes and plays a single speech request, using chunked
// parallel synthesis for long text.
func (m *Mouth) process(ctx context.Context, req SpeechRequest) {
	waitTime := time.Since(req.QueuedAt).Round(time.Millisecond)
	m.log.Debug("mouth: speaking (priority=%d, waited=%s): %s", req.Priority, waitTime, truncate(req.Text, 60))

	chunks := m.splitChunks(req.Text)
	if len(chunks) <= 1 {
		// Short text — single request, no concurrency overhead.
		m.synthAndPlay(ctx, req.Text)
		return
	}

	m.log.Debug("mouth: split into %d chunks for parallel synthesis", len(chunks))

	// Fire all synthesis requests in parallel, using cache.
	type result struct {
		idx   int
		audio []byte
		err   error
	}
	results := make(chan result, len(chunks))

	for i, chunk := range chunks {
		go func(idx int, text string) {
			audio, err := m.synthesizeWithCache(ctx, text)
			results <- result{idx: idx, audio: audio, err: err}
		}(i, chunk)
	}

	// Gather into ordered slots.
	audioSlots := make([][]byte, len(chunks))
	for range chunks {
		r := <-results
		if r.err != nil {
			m.log.Error("mouth: chunk %d synthesis failed: %v", r.idx, r.err)
			// Playback skips the slot.
		} else {
			audioSlots[r.idx] = r.audio
		}
	}

	// Play in order; later chunks usually finish synthesizing while
	// earlier ones play.
	for i, audio := range audioSlots {
		if audio == nil {
			m.log.Debug("mouth: skipping chunk %d (synthesis failed)", i)
			continue
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
		// Interrupts take effect between chunks.
		m.mu.Lock()
		abort := m.interrupted
		m.mu.Unlock()
		if abort {
			m.log.Debug("mouth: aborting chunk playback (interrupted)")
			return
		}
		if err := m.sink.Play(audio); err != nil {
			m.log.Error("mouth: chunk %d playback failed: %v", i, err)
		}
	}
}

// synthAndPlay handles short text in one synthesis call.
func (m *Mouth) synthAndPlay(ctx context.Context, text string) {
	audioData, err := m.synthesizeWithCache(ctx, text)
	if err != nil {
		m.log.Error("mouth: synthesis failed: %v", err)
		return
	}
	if err := m.sink.Play(audioData); err != nil {
		m.log.Error("mouth: playback failed: %v", err)
	}
}

// synthesizeWithCache serves from the cache when possible, otherwise
// synthesizes and stores the result.
func (m *Mouth) synthesizeWithCache(ctx context.Context, text string) ([]byte, error) {
	if audio, ok := m.cache.Get(text); ok {
		return audio, nil
	}
	audio, err := m.tts.Synthesize(ctx, text)
	if err != nil {
		return nil, err
	}
	m.cache.Put(text, audio)
	return audio, nil
}

// splitChunks cuts text at sentence boundaries into pieces of roughly
// chunkSize characters. Short text (or chunkSize 0) comes back whole.
func (m *Mouth) splitChunks(text string) []string {
	if m.chunkSize <= 0 || len(text) <= m.chunkSize {
		return []string{text}
	}

	sentences := splitSentences(text)

	var chunks []string
	var current strings.Builder

	for _, s := range sentences {
		// Flush before the sentence that would overflow the chunk.
		if current.Len() > 0 && current.Len()+len(s) > m.chunkSize {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
		current.WriteString(s)
	}
	if current.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}

	// Drop empties.
	var out []string
	for _, c := range chunks {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// splitSentences cuts text after each . ! or ?, keeping the
// punctuation and trailing whitespace with the sentence.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		current.WriteRune(runes[i])
		if isSentenceEnd(runes[i]) {
			for i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
				i++
				current.WriteRune(runes[i])
			}
			sentences = append(sentences, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, current.String())
	}
	return sentences
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// truncate caps a string for log lines.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// Prefetch warms the audio cache for texts that will be spoken soon
// (the listening fillers, the welcome line), so the first Say of each
// plays with no synthesis delay. Already-cached texts are skipped.
// Non-blocking.
func (m *Mouth) Prefetch(ctx context.Context, texts ...string) {
	for _, text := range texts {
		if text == "" {
			continue
		}

		// Long text warms the same chunks Say would produce.
		chunks := m.splitChunks(text)
		for _, chunk := range chunks {
			if m.cache.Has(chunk) {
				continue
			}
			go func(t string) {
				audio, err := m.tts.Synthesize(ctx, t)
				if err != nil {
					m.log.Error("prefetch: synthesis failed: %v", err)
					return
				}
				m.cache.Put(t, audio)
				m.log.Debug("prefetch: cached %d bytes for: %s", len(audio), truncate(t, 50))
			}(chunk)
		}
	}
}

// LastSpoken returns the most recently spoken non-filler text.
func (m *Mouth) LastSpoken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSpokenText
}

// Cache exposes the underlying audio cache for stats reporting.
func (m *Mouth) Cache() *AudioCache { return m.cache }
