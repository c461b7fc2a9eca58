package performance

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/procfs"
	"github.com/prometheus/procfs/blockdevice"
)

const sectorSize = 512

// tcpEstablished is the kernel TCP_ESTABLISHED state
const tcpEstablished = 1

// SystemSample is one reading of host load
type SystemSample struct {
	CPU     float64 // percent busy since the previous sample
	Memory  float64 // percent in use
	Storage float64 // MB/s read plus written since the previous sample
}

// ProcSampler reads host load from /proc
type ProcSampler struct {
	fs    procfs.FS
	block blockdevice.FS

	mu        sync.Mutex
	lastCPU   *procfs.CPUStat
	lastBytes uint64
	lastAt    time.Time
}

// NewProcSampler opens the default /proc mount
func NewProcSampler() (*ProcSampler, error) {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return nil, fmt.Errorf("failed to open procfs: %w", err)
	}
	block, err := blockdevice.NewDefaultFS()
	if err != nil {
		return nil, fmt.Errorf("failed to open block device stats: %w", err)
	}
	return &ProcSampler{fs: fs, block: block}, nil
}

// SampleSystem returns CPU, memory and storage load. Rates are zero on
// the first call.
func (p *ProcSampler) SampleSystem(_ context.Context) (SystemSample, error) {
	stat, err := p.fs.Stat()
	if err != nil {
		return SystemSample{}, fmt.Errorf("failed to read cpu stats: %w", err)
	}
	mem, err := p.fs.Meminfo()
	if err != nil {
		return SystemSample{}, fmt.Errorf("failed to read meminfo: %w", err)
	}
	disks, err := p.block.ProcDiskstats()
	if err != nil {
		return SystemSample{}, fmt.Errorf("failed to read diskstats: %w", err)
	}

	now := time.Now()
	bytes := diskBytes(disks)
	cpu := stat.CPUTotal

	p.mu.Lock()
	defer p.mu.Unlock()

	sample := SystemSample{Memory: memoryPercent(mem)}
	if p.lastCPU != nil {
		sample.CPU = cpuPercent(*p.lastCPU, cpu)
		if secs := now.Sub(p.lastAt).Seconds(); secs > 0 && bytes >= p.lastBytes {
			sample.Storage = float64(bytes-p.lastBytes) / secs / 1e6
		}
	}
	p.lastCPU = &cpu
	p.lastBytes = bytes
	p.lastAt = now
	return sample, nil
}

// OpenConnections counts established TCP connections over IPv4 and IPv6
func (p *ProcSampler) OpenConnections() (int, error) {
	tcp, err := p.fs.NetTCP()
	if err != nil {
		return 0, fmt.Errorf("failed to read tcp table: %w", err)
	}
	count := 0
	for _, line := range tcp {
		if line.St == tcpEstablished {
			count++
		}
	}
	// hosts without IPv6 have no tcp6 table
	if tcp6, err := p.fs.NetTCP6(); err == nil {
		for _, line := range tcp6 {
			if line.St == tcpEstablished {
				count++
			}
		}
	}
	return count, nil
}

func cpuPercent(prev, cur procfs.CPUStat) float64 {
	idle := func(s procfs.CPUStat) float64 { return s.Idle + s.Iowait }
	total := func(s procfs.CPUStat) float64 {
		return s.User + s.Nice + s.System + s.Idle + s.Iowait + s.IRQ + s.SoftIRQ + s.Steal
	}
	dt := total(cur) - total(prev)
	if dt <= 0 {
		return 0
	}
	busy := dt - (idle(cur) - idle(prev))
	return clamp01(busy/dt) * 100
}

func memoryPercent(m procfs.Meminfo) float64 {
	if m.MemTotal == nil || *m.MemTotal == 0 {
		return 0
	}
	avail := m.MemFree
	if m.MemAvailable != nil {
		avail = m.MemAvailable
	}
	if avail == nil {
		return 0
	}
	used := float64(*m.MemTotal) - float64(*avail)
	return clamp01(used/float64(*m.MemTotal)) * 100
}

func diskBytes(disks []blockdevice.Diskstats) uint64 {
	var sectors uint64
	for _, d := range disks {
		name := d.Info.DeviceName
		if strings.HasPrefix(name, "loop") || strings.HasPrefix(name, "ram") {
			continue
		}
		sectors += d.IOStats.ReadSectors + d.IOStats.WriteSectors
	}
	return sectors * sectorSize
}
