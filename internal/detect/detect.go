// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package detect

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// detectTimeout bounds all probes together when ctx has no deadline.
const detectTimeout = 5 * time.Second

// ErrUnknown is returned when no probe could read the memory size.
var ErrUnknown = errors.New("could not detect available memory")

// =============================================================================
// MEMORY INFO
// =============================================================================

// Source is the probe that produced a MemoryInfo.
type Source int

const (
	SourceNone Source = iota
	SourceNvidia
	SourceApple
	SourceSystem
)

// String returns the display name of the source.
func (s Source) String() string {
	switch s {
	case SourceNvidia:
		return "NVIDIA"
	case SourceApple:
		return "Apple Silicon"
	case SourceSystem:
		return "System RAM"
	default:
		return "Unknown"
	}
}

// MemoryInfo is the memory one probe found.
type MemoryInfo struct {
	Source  Source
	Name    string
	TotalMB uint64
}

// GB is TotalMB in whole gigabytes, rounded to nearest.
func (m MemoryInfo) GB() int {
	return int((m.TotalMB + 512) / 1024)
}

// String renders e.g. "NVIDIA RTX 4090 (24GB)".
func (m MemoryInfo) String() string {
	name := m.Name
	if name == "" {
		name = m.Source.String()
	}
	return fmt.Sprintf("%s (%dGB)", name, m.GB())
}

// =============================================================================
// PROBES
// =============================================================================

// commandOutput runs an external tool. Tests replace it.
var commandOutput = func(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

var meminfoPath = "/proc/meminfo"

// Memory runs the probes in order and returns the first answer.
func Memory(ctx context.Context) (MemoryInfo, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, detectTimeout)
		defer cancel()
	}

	if info, ok := detectNvidia(ctx); ok {
		return info, nil
	}
	if info, ok := detectApple(ctx); ok {
		return info, nil
	}
	if info, ok := detectSystem(); ok {
		return info, nil
	}
	if err := ctx.Err(); err != nil {
		return MemoryInfo{}, err
	}
	return MemoryInfo{}, ErrUnknown
}

func detectNvidia(ctx context.Context) (MemoryInfo, bool) {
	out, err := commandOutput(ctx, "nvidia-smi",
		"--query-gpu=name,memory.total",
		"--format=csv,noheader,nounits")
	if err != nil {
		return MemoryInfo{}, false
	}
	return parseNvidiaSmi(out)
}

// parseNvidiaSmi reads the first GPU of `name, memory.total` CSV output.
// memory.total is in MiB.
func parseNvidiaSmi(out []byte) (MemoryInfo, bool) {
	line := strings.TrimSpace(strings.SplitN(strings.TrimSpace(string(out)), "\n", 2)[0])
	parts := strings.Split(line, ", ")
	if len(parts) < 2 {
		return MemoryInfo{}, false
	}
	mb, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || mb <= 0 {
		return MemoryInfo{}, false
	}
	return MemoryInfo{
		Source:  SourceNvidia,
		Name:    "NVIDIA " + strings.TrimSpace(parts[0]),
		TotalMB: uint64(mb),
	}, true
}

func detectApple(ctx context.Context) (MemoryInfo, bool) {
	if runtime.GOOS != "darwin" || runtime.GOARCH != "arm64" {
		return MemoryInfo{}, false
	}
	out, err := commandOutput(ctx, "sysctl", "-n", "hw.memsize")
	if err != nil {
		return MemoryInfo{}, false
	}
	bytes, err := strconv.ParseUint(strings.TrimSpace(string(out)), 10, 64)
	if err != nil || bytes == 0 {
		return MemoryInfo{}, false
	}
	return MemoryInfo{Source: SourceApple, Name: "Apple Silicon", TotalMB: bytes >> 20}, true
}

func detectSystem() (MemoryInfo, bool) {
	f, err := os.Open(meminfoPath)
	if err != nil {
		return MemoryInfo{}, false
	}
	defer f.Close()

	kb, ok := parseMeminfo(f)
	if !ok {
		return MemoryInfo{}, false
	}
	return MemoryInfo{Source: SourceSystem, TotalMB: kb >> 10}, true
}

// parseMeminfo returns MemTotal in kB.
func parseMeminfo(r io.Reader) (uint64, bool) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 || fields[0] != "MemTotal:" {
			continue
		}
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		return kb, err == nil && kb > 0
	}
	return 0, false
}

// =============================================================================
// CACHE
// =============================================================================

var (
	cache         *MemoryInfo
	cacheTime     time.Time
	cacheMu       sync.Mutex
	cacheDuration = 5 * time.Minute
)

// MemoryCached is Memory with a five minute cache. Failures are not cached.
func MemoryCached(ctx context.Context) (MemoryInfo, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if cache != nil && time.Since(cacheTime) < cacheDuration {
		return *cache, nil
	}
	info, err := Memory(ctx)
	if err != nil {
		return MemoryInfo{}, err
	}
	cache = &info
	cacheTime = time.Now()
	return info, nil
}

// ClearCache forgets the cached result.
func ClearCache() {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	cache = nil
}
