package speech

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"

	"github.com/MrJi421/VOCEX/internal/logger"
)

// AudioCache is a thread-safe two-tier cache (in-memory + filesystem)
// for synthesized audio. The key is sha256(voice + ":" + text), so a
// voice change misses until the voice is switched back.
//
// The disk layer is always read when a cacheDir is set; diskWrite only
// controls whether new entries are persisted. That way a fresh run
// still warm-starts from previous sessions.
type AudioCache struct {
	mu        sync.RWMutex
	entries   map[string][]byte // hash -> WAV bytes
	log       *logger.Logger
	voice     string
	cacheDir  string // empty = no disk layer
	diskWrite bool
	hits      int64
	misses    int64
}

// NewAudioCache creates an audio cache keyed by the given voice.
func NewAudioCache(voice, cacheDir string, diskWrite bool, log *logger.Logger) *AudioCache {
	c := &AudioCache{
		entries:   make(map[string][]byte),
		log:       log,
		voice:     voice,
		cacheDir:  cacheDir,
		diskWrite: diskWrite,
	}
	if cacheDir != "" && diskWrite {
		if err := os.MkdirAll(cacheDir, 0o755); err != nil {
			log.Error("cache: failed to create cache dir %s: %v", cacheDir, err)
		}
	}
	return c
}

// Get returns cached audio for the text, checking memory first and
// the disk layer second. Disk hits are promoted to memory.
func (c *AudioCache) Get(text string) ([]byte, bool) {
	key := c.hashKey(text)

	c.mu.RLock()
	data, ok := c.entries[key]
	c.mu.RUnlock()

	if ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		c.log.Debug("cache hit (mem): %s (%d bytes)", truncate(text, 40), len(data))
		return data, true
	}

	if c.cacheDir != "" {
		if diskData, diskOK := c.readDisk(key); diskOK {
			c.mu.Lock()
			c.entries[key] = diskData
			c.hits++
			c.mu.Unlock()
			c.log.Debug("cache hit (disk): %s (%d bytes)", truncate(text, 40), len(diskData))
			return diskData, true
		}
	}

	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
	return nil, false
}

// Put stores audio for the text. Memory always; disk when enabled.
func (c *AudioCache) Put(text string, audio []byte) {
	key := c.hashKey(text)

	c.mu.Lock()
	c.entries[key] = audio
	size := len(c.entries)
	c.mu.Unlock()

	c.log.Debug("cache store: %s (%d bytes, %d entries)", truncate(text, 40), len(audio), size)

	if c.cacheDir != "" && c.diskWrite {
		c.writeDisk(key, audio)
	}
}

// Has reports whether audio for the text is cached in either tier.
func (c *AudioCache) Has(text string) bool {
	key := c.hashKey(text)

	c.mu.RLock()
	_, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return true
	}
	if c.cacheDir != "" {
		return c.existsOnDisk(key)
	}
	return false
}

// Len returns the number of in-memory entries.
func (c *AudioCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats reports hit and miss counts.
func (c *AudioCache) Stats() (hits, misses int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// Clear empties the in-memory tier. The disk cache is left alone.
func (c *AudioCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
	c.mu.Unlock()
}

func (c *AudioCache) hashKey(text string) string {
	h := sha256.Sum256([]byte(c.voice + ":" + text))
	return hex.EncodeToString(h[:])
}

func (c *AudioCache) diskPath(key string) string {
	return filepath.Join(c.cacheDir, key+".wav")
}

func (c *AudioCache) readDisk(key string) ([]byte, bool) {
	data, err := os.ReadFile(c.diskPath(key))
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *AudioCache) writeDisk(key string, audio []byte) {
	path := c.diskPath(key)
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		c.log.Error("cache: disk write failed for %s: %v", path, err)
	}
}

func (c *AudioCache) existsOnDisk(key string) bool {
	_, err := os.Stat(c.diskPath(key))
	return err == nil
}
