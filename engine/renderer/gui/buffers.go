package gui

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/spaghettifunk/cumulus/engine/gpu"
)

type bufferRole int

const (
	roleVertex bufferRole = iota
	roleIndex
	roleCount
)

func (r bufferRole) String() string {
	if r == roleVertex {
		return "vertex"
	}
	return "index"
}

func (r bufferRole) usage() gpu.BufferUsage {
	if r == roleVertex {
		return gpu.BufferUsageVertex
	}
	return gpu.BufferUsageIndex
}

// bufferManager keeps one GPU-resident buffer per role. Buffers only grow:
// when a frame needs more than the current capacity the old buffer is
// released and one twice the required size takes its place.
type bufferManager struct {
	device     gpu.Device
	logger     *log.Logger
	buffers    [roleCount]gpu.Buffer
	capacities [roleCount]uint32
}

func newBufferManager(device gpu.Device, logger *log.Logger) *bufferManager {
	return &bufferManager{device: device, logger: logger}
}

func (m *bufferManager) buffer(role bufferRole) gpu.Buffer {
	return m.buffers[role]
}

func (m *bufferManager) capacity(role bufferRole) uint32 {
	return m.capacities[role]
}

// ensureCapacity returns a buffer of the role holding at least required
// bytes. On allocation failure the role is left without a buffer.
func (m *bufferManager) ensureCapacity(role bufferRole, required uint32) (gpu.Buffer, error) {
	if m.buffers[role] != nil && m.capacities[role] >= required {
		return m.buffers[role], nil
	}

	if m.buffers[role] != nil {
		m.device.ReleaseBuffer(m.buffers[role])
		m.buffers[role] = nil
		m.capacities[role] = 0
	}

	size := required * 2
	buf, err := m.device.CreateBuffer(gpu.BufferCreateInfo{
		Usage: role.usage(),
		Size:  size,
		Name:  "ui " + role.String(),
	})
	if err != nil {
		m.logger.Error("failed to grow gpu buffer", "role", role, "size", size, "err", err)
		return nil, fmt.Errorf("failed to create %d byte %s buffer: %w", size, role, err)
	}
	m.buffers[role] = buf
	m.capacities[role] = size
	m.logger.Debug("gpu buffer grown", "role", role, "size", size)
	return buf, nil
}

func (m *bufferManager) release() {
	for role := range m.buffers {
		if m.buffers[role] != nil {
			m.device.ReleaseBuffer(m.buffers[role])
			m.buffers[role] = nil
		}
		m.capacities[role] = 0
	}
}
