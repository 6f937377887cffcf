package supervisor

import (
	"fmt"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shirou/gopsutil/v3/process"
)

// WorkerInfo is a point-in-time view of the tracked worker as the OS sees it.
type WorkerInfo struct {
	Pid       int       `json:"pid"`
	Command   string    `json:"command"`
	StartedAt time.Time `json:"started_at"`
	RSSBytes  uint64    `json:"rss_bytes"`
	Ports     []string  `json:"ports"`
}

// Inspect reads process details for the tracked worker, including TCP ports
// its process tree listens on. It never changes the slot; use Status to
// detect that the worker has exited.
func (s *Supervisor) Inspect() (WorkerInfo, error) {
	pid, ok := s.pid()
	if !ok {
		return WorkerInfo{}, ErrNotRunning
	}

	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return WorkerInfo{}, errors.Wrapf(err, "inspect worker (pid %d)", pid)
	}

	info := WorkerInfo{Pid: pid, Ports: []string{}}
	if cmdline, err := proc.Cmdline(); err == nil {
		info.Command = cmdline
	}
	if created, err := proc.CreateTime(); err == nil {
		info.StartedAt = time.UnixMilli(created)
	}
	if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
		info.RSSBytes = mem.RSS
	}

	portSet := make(map[string]struct{})
	s.collectListeningPorts(proc, make(map[int32]struct{}), portSet)
	for port := range portSet {
		info.Ports = append(info.Ports, port)
	}
	sort.Strings(info.Ports)

	return info, nil
}

func (s *Supervisor) collectListeningPorts(proc *process.Process, visited map[int32]struct{}, portSet map[string]struct{}) {
	if proc == nil {
		return
	}

	pid := proc.Pid
	if _, seen := visited[pid]; seen {
		return
	}
	visited[pid] = struct{}{}

	conns, err := proc.Connections()
	if err != nil {
		s.logger.Debug().Err(err).Int32("pid", pid).Msg("Failed to get process connections")
	} else {
		for _, conn := range conns {
			if conn.Status == "LISTEN" {
				portSet[fmt.Sprintf("%d", conn.Laddr.Port)] = struct{}{}
			}
		}
	}

	children, err := proc.Children()
	if err != nil {
		// gopsutil reports a process without children as an error.
		return
	}
	for _, child := range children {
		s.collectListeningPorts(child, visited, portSet)
	}
}
