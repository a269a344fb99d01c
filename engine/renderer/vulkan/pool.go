package vulkan

import "sync"

type LockGroup string

const (
	// Guards the per-frame release lists.
	ResourceManagement LockGroup = "resource_management"
	// vkQueueSubmit and vkQueuePresent need external synchronization per queue.
	QueueManagement LockGroup = "queue_management"
	// Guards the descriptor set cache and its pools.
	DescriptorManagement LockGroup = "descriptor_management"
)

// VulkanLockPool hands out one mutex per group of Vulkan objects that need
// external synchronization.
type VulkanLockPool struct {
	locks map[LockGroup]*sync.Mutex
	mu    sync.Mutex
}

func NewVulkanLockPool() *VulkanLockPool {
	return &VulkanLockPool{
		locks: make(map[LockGroup]*sync.Mutex),
	}
}

func (vs *VulkanLockPool) lock(group LockGroup) *sync.Mutex {
	vs.mu.Lock()
	l, ok := vs.locks[group]
	if !ok {
		l = &sync.Mutex{}
		vs.locks[group] = l
	}
	vs.mu.Unlock()

	l.Lock()
	return l
}

// SafeCall runs fn while holding the group's mutex.
func (vs *VulkanLockPool) SafeCall(group LockGroup, fn func() error) error {
	l := vs.lock(group)
	defer l.Unlock()

	return fn()
}
