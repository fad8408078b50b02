// Package system implements the OS-facing ports: process control,
// keyboard and clipboard automation, web search, audio and display
// settings.
package system

import (
	"context"
	"os/exec"
	"strings"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/MrJi421/VOCEX/internal/domain"
	"github.com/MrJi421/VOCEX/internal/logger"
)

// Compile-time interface check.
var _ domain.Launcher = (*ProcessManager)(nil)

// ProcessManager launches and terminates desktop programs.
type ProcessManager struct {
	log *logger.Logger
}

func NewProcessManager(log *logger.Logger) *ProcessManager {
	return &ProcessManager{log: log}
}

// Launch starts the program and returns its pid. The child is not
// tied to ctx: a launched program must outlive the utterance that
// started it.
func (m *ProcessManager) Launch(_ context.Context, path string) (int, error) {
	cmd := exec.Command(path)
	if err := cmd.Start(); err != nil {
		return 0, err
	}
	pid := cmd.Process.Pid
	m.log.Debug("started %s as pid %d", path, pid)

	// Reap the child so finished programs don't linger as zombies.
	go func() {
		_ = cmd.Wait()
	}()
	return pid, nil
}

// Close terminates every running process whose executable name matches,
// and returns how many it signalled. No match is ErrNotFound.
func (m *ProcessManager) Close(ctx context.Context, name string) (int, error) {
	if strings.TrimSpace(name) == "" {
		return 0, domain.ErrNoPayload
	}
	want := normalizeProcName(name)

	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, p := range procs {
		pname, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		if normalizeProcName(pname) != want {
			continue
		}
		if err := p.TerminateWithContext(ctx); err != nil {
			m.log.Warn("terminate pid %d (%s): %v", p.Pid, pname, err)
			continue
		}
		m.log.Debug("terminated pid %d (%s)", p.Pid, pname)
		count++
	}

	if count == 0 {
		return 0, domain.ErrNotFound
	}
	return count, nil
}

// normalizeProcName reduces a process or program name to a comparable
// form: base name, lowercase, no extension. A full Windows path and a
// bare "spotify" both normalize to "spotify".
func normalizeProcName(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.ToLower(name)
	return strings.TrimSuffix(name, ".exe")
}
