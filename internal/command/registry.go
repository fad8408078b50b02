// Package command implements the command table: trigger-phrase parsing,
// program resolution, dispatch, and the session command history.
package command

import (
	"sort"
	"strings"
	"sync"

	"github.com/MrJi421/VOCEX/internal/domain"
	"github.com/MrJi421/VOCEX/internal/logger"
)

// Registry is the program half of the command table: trigger phrase ->
// executable path. Preloaded with built-in mappings; extendable at
// runtime through RegisterProgram. Safe for concurrent access.
type Registry struct {
	mu       sync.RWMutex
	programs map[string]string
	log      *logger.Logger
}

// NewRegistry creates a registry preloaded with the default program map.
func NewRegistry(log *logger.Logger) *Registry {
	r := &Registry{
		programs: make(map[string]string),
		log:      log,
	}
	r.seed()
	return r
}

// seed loads the built-in program mappings.
func (r *Registry) seed() {
	defaults := map[string]string{
		// System built-ins.
		"notepad":        "notepad.exe",
		"word":           "winword.exe",
		"excel":          "excel.exe",
		"powerpoint":     "powerpnt.exe",
		"chrome":         "chrome.exe",
		"firefox":        "firefox.exe",
		"edge":           "msedge.exe",
		"calculator":     "calc.exe",
		"paint":          "mspaint.exe",
		"explorer":       "explorer.exe",
		"control panel":  "control.exe",
		"task manager":   "taskmgr.exe",
		"cmd":            "cmd.exe",
		"powershell":     "powershell.exe",
		"regedit":        "regedit.exe",
		"services":       "services.msc",
		"device manager": "devmgmt.msc",

		// Common applications.
		"spotify":       "spotify.exe",
		"discord":       "discord.exe",
		"steam":         "steam.exe",
		"vscode":        "code.exe",
		"sublime":       "sublime_text.exe",
		"photoshop":     "photoshop.exe",
		"illustrator":   "illustrator.exe",
		"premiere":      "premiere.exe",
		"after effects": "afterfx.exe",
		"blender":       "blender.exe",
		"unity":         "unity.exe",
		"unreal":        "unreal.exe",
		"zoom":          "zoom.exe",
		"teams":         "teams.exe",
		"skype":         "skype.exe",
		"whatsapp":      "whatsapp.exe",
		"telegram":      "telegram.exe",
		"slack":         "slack.exe",
		"notion":        "notion.exe",
		"obsidian":      "obsidian.exe",
		"roam":          "roam.exe",
		"logseq":        "logseq.exe",
	}
	for name, path := range defaults {
		r.programs[name] = path
	}
}

// RegisterProgram adds a trigger phrase -> executable mapping. Names are
// unique: registering an existing name returns ErrAlreadyExists so a
// runtime addition can't silently shadow a built-in.
func (r *Registry) RegisterProgram(name, path string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || path == "" {
		return domain.ErrNoPayload
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.programs[name]; ok {
		return domain.ErrAlreadyExists
	}
	r.programs[name] = path
	r.log.Info("registered program %q -> %s", name, path)
	return nil
}

// RegisterAlias binds a second trigger phrase to an already-registered
// program, so "browser" can resolve to the same executable as "chrome".
func (r *Registry) RegisterAlias(alias, canonical string) error {
	alias = strings.ToLower(strings.TrimSpace(alias))
	canonical = strings.ToLower(strings.TrimSpace(canonical))
	if alias == "" || canonical == "" {
		return domain.ErrNoPayload
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	path, ok := r.programs[canonical]
	if !ok {
		return domain.ErrNotFound
	}
	if _, ok := r.programs[alias]; ok {
		return domain.ErrAlreadyExists
	}
	r.programs[alias] = path
	r.log.Info("registered alias %q -> %q (%s)", alias, canonical, path)
	return nil
}

// Lookup returns the executable path bound to an exact trigger phrase.
func (r *Registry) Lookup(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	path, ok := r.programs[strings.ToLower(strings.TrimSpace(name))]
	return path, ok
}

// Resolve scans a phrase for a known program name and returns its path
// and the canonical name. When several names appear ("open the control
// panel" contains both "control panel" and, for some registries,
// "control"), the longest name wins.
func (r *Registry) Resolve(phrase string) (path, canonical string, ok bool) {
	lower := strings.ToLower(phrase)

	r.mu.RLock()
	defer r.mu.RUnlock()

	best := ""
	for name := range r.programs {
		if len(name) <= len(best) {
			continue
		}
		if containsWord(lower, name) {
			best = name
		}
	}
	if best == "" {
		return "", "", false
	}
	return r.programs[best], best, true
}

// Names returns all registered trigger phrases, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.programs))
	for name := range r.programs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered programs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.programs)
}

// containsWord reports whether sub occurs in s on word boundaries, so
// "word" doesn't match inside "password".
func containsWord(s, sub string) bool {
	for start := 0; ; {
		idx := strings.Index(s[start:], sub)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(sub)
		leftOK := idx == 0 || s[idx-1] == ' '
		rightOK := end == len(s) || s[end] == ' ' || s[end] == ',' || s[end] == '.'
		if leftOK && rightOK {
			return true
		}
		start = idx + 1
		if start >= len(s) {
			return false
		}
	}
}
