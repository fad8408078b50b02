package speech

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeSynth struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeSynth) Synthesize(_ context.Context, text string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.mu.Unlock()
	// The sink is also fake, so the audio payload is just the text.
	return []byte(text), nil
}

func (f *fakeSynth) Voice() string { return "test-voice" }

type fakeSink struct {
	mu      sync.Mutex
	played  []string
	stopped bool
	gate    chan struct{} // when set, Play blocks until the gate closes
}

func (f *fakeSink) Play(wav []byte) error {
	f.mu.Lock()
	f.played = append(f.played, string(wav))
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return nil
}

func (f *fakeSink) Stop() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

func (f *fakeSink) playedCopy() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.played))
	copy(out, f.played)
	return out
}

func newTestMouth() (*Mouth, *fakeSink) {
	sink := &fakeSink{}
	m := NewMouth(&fakeSynth{}, sink, testLog())
	return m, sink
}

func waitIdle(t *testing.T, m *Mouth) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if m.QueueLen() == 0 && !m.IsSpeaking() {
			// One more settle pass: drain() flips speaking between items.
			time.Sleep(50 * time.Millisecond)
			if m.QueueLen() == 0 && !m.IsSpeaking() {
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("mouth never went idle")
}

func TestMouthPriorityLaneDrainsFirst(t *testing.T) {
	m, sink := newTestMouth()

	// Queue everything before starting so the drain order is fixed.
	m.Say("normal feedback", PriorityNormal)
	m.Say("urgent failure", PriorityHigh)
	m.Say("critical alert", PriorityCritical)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)
	waitIdle(t, m)

	played := sink.playedCopy()
	want := []string{"critical alert", "urgent failure", "normal feedback"}
	if len(played) != len(want) {
		t.Fatalf("played %v, want %v", played, want)
	}
	for i := range want {
		if played[i] != want[i] {
			t.Errorf("played[%d] = %q, want %q", i, played[i], want[i])
		}
	}
}

func TestMouthPriorityCutsAheadMidPlayback(t *testing.T) {
	sink := &fakeSink{gate: make(chan struct{})}
	m := NewMouth(&fakeSynth{}, sink, testLog())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	// Hold the sink open so the first item stays "playing" while the
	// rest of the queue builds up behind it.
	m.Say("first line", PriorityNormal)
	deadline := time.Now().Add(3 * time.Second)
	for len(sink.playedCopy()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("first item never reached the sink")
		}
		time.Sleep(5 * time.Millisecond)
	}

	m.Say("second line", PriorityNormal)
	m.Say("third line", PriorityNormal)
	m.Say("urgent cut-in", PriorityHigh)

	close(sink.gate)
	waitIdle(t, m)

	played := sink.playedCopy()
	want := []string{"first line", "urgent cut-in", "second line", "third line"}
	if len(played) != len(want) {
		t.Fatalf("played %v, want %v", played, want)
	}
	for i := range want {
		if played[i] != want[i] {
			t.Errorf("played[%d] = %q, want %q", i, played[i], want[i])
		}
	}
}

func TestMouthNormalFlushesStaleLow(t *testing.T) {
	m, _ := newTestMouth()

	m.Say("idle chatter", PriorityLow)
	m.Say("real feedback", PriorityNormal)

	if got := m.QueueLen(); got != 1 {
		t.Errorf("QueueLen = %d, want 1 (low item flushed)", got)
	}
}

func TestMouthLaneOverflowDropsOldest(t *testing.T) {
	sink := &fakeSink{}
	m := NewMouth(&fakeSynth{}, sink, testLog(), WithLaneCapacity(2))

	m.Say("first", PriorityNormal)
	m.Say("second", PriorityNormal)
	m.Say("third", PriorityNormal)

	if got := m.QueueLen(); got != 2 {
		t.Fatalf("QueueLen = %d, want 2", got)
	}

	req, ok := m.dequeue()
	if !ok || req.Text != "second" {
		t.Errorf("next item = %q, want second (first dropped)", req.Text)
	}
}

func TestMouthInterruptClearsBothLanes(t *testing.T) {
	m, sink := newTestMouth()

	m.Say("a", PriorityNormal)
	m.Say("b", PriorityHigh)
	m.Interrupt()

	if got := m.QueueLen(); got != 0 {
		t.Errorf("QueueLen after Interrupt = %d, want 0", got)
	}
	sink.mu.Lock()
	stopped := sink.stopped
	sink.mu.Unlock()
	if !stopped {
		t.Error("Interrupt should stop the sink")
	}
}

func TestMouthEmptyTextIgnored(t *testing.T) {
	m, _ := newTestMouth()
	m.Say("   ", PriorityNormal)
	if got := m.QueueLen(); got != 0 {
		t.Errorf("QueueLen = %d, want 0", got)
	}
}

func TestMouthLastSpoken(t *testing.T) {
	m, _ := newTestMouth()

	m.Say("this sentence is long enough to be remembered", PriorityNormal)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)
	waitIdle(t, m)

	if got := m.LastSpoken(); got != "this sentence is long enough to be remembered" {
		t.Errorf("LastSpoken = %q", got)
	}
}

func TestMouthSynthesisIsCached(t *testing.T) {
	synth := &fakeSynth{}
	m := NewMouth(synth, &fakeSink{}, testLog())

	ctx := context.Background()
	if _, err := m.synthesizeWithCache(ctx, "hello"); err != nil {
		t.Fatalf("synthesizeWithCache: %v", err)
	}
	if _, err := m.synthesizeWithCache(ctx, "hello"); err != nil {
		t.Fatalf("synthesizeWithCache: %v", err)
	}

	synth.mu.Lock()
	calls := len(synth.calls)
	synth.mu.Unlock()
	if calls != 1 {
		t.Errorf("synthesizer called %d times, want 1", calls)
	}
}

func TestSplitChunks(t *testing.T) {
	m := NewMouth(&fakeSynth{}, &fakeSink{}, testLog(), WithChunkSize(30))

	chunks := m.splitChunks("First sentence here. Second sentence here. Third one.")
	if len(chunks) < 2 {
		t.Fatalf("chunks = %v, want a split", chunks)
	}
	for _, c := range chunks {
		if len(c) == 0 {
			t.Error("empty chunk produced")
		}
	}

	// Short text passes through untouched.
	chunks = m.splitChunks("Short.")
	if len(chunks) != 1 || chunks[0] != "Short." {
		t.Errorf("short text chunks = %v", chunks)
	}
}
