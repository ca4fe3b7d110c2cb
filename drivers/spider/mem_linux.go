//go:build linux && !tinygo

package spider

import (
	"sync"

	"golang.org/x/sys/unix"
)

// DevMemPath is the default physical memory device.
const DevMemPath = "/dev/mem"

// DevMem accesses physical memory through a memory device. Each access is
// one pread/pwrite, so nothing can be cached or merged between calls.
type DevMem struct {
	fd int

	mu  sync.Mutex
	err error
}

// OpenDevMem opens path (usually DevMemPath) for synchronous access.
func OpenDevMem(path string) (*DevMem, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_SYNC|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	return &DevMem{fd: fd}, nil
}

func (m *DevMem) Load8(addr uintptr) uint8 {
	var b [1]byte
	if _, err := unix.Pread(m.fd, b[:], int64(addr)); err != nil {
		m.record(err)
	}
	return b[0]
}

func (m *DevMem) Store8(addr uintptr, v uint8) {
	b := [1]byte{v}
	if _, err := unix.Pwrite(m.fd, b[:], int64(addr)); err != nil {
		m.record(err)
	}
}

func (m *DevMem) record(err error) {
	m.mu.Lock()
	if m.err == nil {
		m.err = err
	}
	m.mu.Unlock()
}

// Err returns the first I/O error seen, if any.
func (m *DevMem) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Close releases the device.
func (m *DevMem) Close() error { return unix.Close(m.fd) }
