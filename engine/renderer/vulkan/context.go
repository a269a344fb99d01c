package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/cumulus/engine/core"
)

type VulkanContext struct {
	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks
	Surface   vk.Surface

	debugMessenger vk.DebugReportCallback

	Device *VulkanDevice

	Swapchain *VulkanSwapchain
}

// FindMemoryIndex returns the first memory type allowed by typeFilter that has
// every property in propertyFlags, or -1.
func (vc *VulkanContext) FindMemoryIndex(typeFilter uint32, propertyFlags vk.MemoryPropertyFlags) int32 {
	memoryProperties := vc.Device.Memory

	for i := uint32(0); i < memoryProperties.MemoryTypeCount; i++ {
		memoryProperties.MemoryTypes[i].Deref()
		if (typeFilter&(1<<i)) != 0 && (memoryProperties.MemoryTypes[i].PropertyFlags&propertyFlags) == propertyFlags {
			return int32(i)
		}
	}
	core.LogWarn("Unable to find suitable memory type!")
	return -1
}

// allocateMemory allocates and returns memory satisfying reqs with the given
// properties.
func (vc *VulkanContext) allocateMemory(reqs vk.MemoryRequirements, properties vk.MemoryPropertyFlags) (vk.DeviceMemory, error) {
	index := vc.FindMemoryIndex(reqs.MemoryTypeBits, properties)
	if index < 0 {
		return nil, vkError("vkAllocateMemory", vk.ErrorOutOfDeviceMemory)
	}
	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  reqs.Size,
		MemoryTypeIndex: uint32(index),
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(vc.Device.LogicalDevice, &allocInfo, vc.Allocator, &memory); res != vk.Success {
		return nil, vkError("vkAllocateMemory", res)
	}
	return memory, nil
}
