package vulkan

import (
	"errors"
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/cumulus/engine/core"
)

type VulkanDevice struct {
	PhysicalDevice     vk.PhysicalDevice
	LogicalDevice      vk.Device
	SwapchainSupport   VulkanSwapchainSupportInfo
	GraphicsQueueIndex int32
	PresentQueueIndex  int32

	GraphicsQueue vk.Queue
	PresentQueue  vk.Queue

	GraphicsCommandPool vk.CommandPool

	Properties vk.PhysicalDeviceProperties
	Memory     vk.PhysicalDeviceMemoryProperties
}

type VulkanPhysicalDeviceRequirements struct {
	Graphics             bool
	Present              bool
	DeviceExtensionNames []string
	DiscreteGPU          bool
}

type VulkanPhysicalDeviceQueueFamilyInfo struct {
	GraphicsFamilyIndex int32
	PresentFamilyIndex  int32
}

var errNoSuitableDevice = errors.New("no physical device meets the requirements")

const portabilitySubsetExtension = "VK_KHR_portability_subset"

func DeviceCreate(context *VulkanContext) error {
	if err := SelectPhysicalDevice(context); err != nil {
		return err
	}

	core.LogInfo("Creating logical device...")

	indices := []uint32{uint32(context.Device.GraphicsQueueIndex)}
	if context.Device.PresentQueueIndex != context.Device.GraphicsQueueIndex {
		indices = append(indices, uint32(context.Device.PresentQueueIndex))
	}

	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, len(indices))
	for i := range indices {
		queueCreateInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: indices[i],
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}

	extensions, err := deviceExtensions(context.Device.PhysicalDevice)
	if err != nil {
		return err
	}
	extensionNames := []string{vk.KhrSwapchainExtensionName}
	if _, ok := extensions[portabilitySubsetExtension]; ok {
		core.LogInfo("Adding required extension '%s'.", portabilitySubsetExtension)
		extensionNames = append(extensionNames, portabilitySubsetExtension)
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{}},
		EnabledExtensionCount:   uint32(len(extensionNames)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensionNames),
	}

	var logical vk.Device
	if res := vk.CreateDevice(context.Device.PhysicalDevice, &deviceCreateInfo, context.Allocator, &logical); res != vk.Success {
		return vkError("vkCreateDevice", res)
	}
	context.Device.LogicalDevice = logical
	core.LogInfo("Logical device created.")

	var graphics, present vk.Queue
	vk.GetDeviceQueue(logical, uint32(context.Device.GraphicsQueueIndex), 0, &graphics)
	vk.GetDeviceQueue(logical, uint32(context.Device.PresentQueueIndex), 0, &present)
	context.Device.GraphicsQueue = graphics
	context.Device.PresentQueue = present

	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: uint32(context.Device.GraphicsQueueIndex),
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	var pool vk.CommandPool
	if res := vk.CreateCommandPool(logical, &poolCreateInfo, context.Allocator, &pool); res != vk.Success {
		return vkError("vkCreateCommandPool", res)
	}
	context.Device.GraphicsCommandPool = pool
	core.LogDebug("Graphics command pool created.")

	return nil
}

func DeviceDestroy(context *VulkanContext) {
	if context.Device == nil {
		return
	}
	context.Device.GraphicsQueue = nil
	context.Device.PresentQueue = nil

	if context.Device.GraphicsCommandPool != nil {
		core.LogDebug("Destroying command pools...")
		vk.DestroyCommandPool(context.Device.LogicalDevice, context.Device.GraphicsCommandPool, context.Allocator)
		context.Device.GraphicsCommandPool = nil
	}

	if context.Device.LogicalDevice != nil {
		core.LogDebug("Destroying logical device...")
		vk.DestroyDevice(context.Device.LogicalDevice, context.Allocator)
		context.Device.LogicalDevice = nil
	}

	// Physical devices are not destroyed.
	context.Device.PhysicalDevice = nil
	context.Device.SwapchainSupport = VulkanSwapchainSupportInfo{}
	context.Device.GraphicsQueueIndex = -1
	context.Device.PresentQueueIndex = -1
}

func DeviceQuerySwapchainSupport(physicalDevice vk.PhysicalDevice, surface vk.Surface, supportInfo *VulkanSwapchainSupportInfo) error {
	if res := vk.GetPhysicalDeviceSurfaceCapabilities(physicalDevice, surface, &supportInfo.Capabilities); res != vk.Success {
		return vkError("vkGetPhysicalDeviceSurfaceCapabilitiesKHR", res)
	}
	supportInfo.Capabilities.Deref()
	supportInfo.Capabilities.CurrentExtent.Deref()
	supportInfo.Capabilities.MinImageExtent.Deref()
	supportInfo.Capabilities.MaxImageExtent.Deref()

	var formatCount uint32
	if res := vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &formatCount, nil); res != vk.Success {
		return vkError("vkGetPhysicalDeviceSurfaceFormatsKHR", res)
	}
	supportInfo.Formats = make([]vk.SurfaceFormat, formatCount)
	if formatCount > 0 {
		if res := vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &formatCount, supportInfo.Formats); res != vk.Success {
			return vkError("vkGetPhysicalDeviceSurfaceFormatsKHR", res)
		}
		for i := range supportInfo.Formats {
			supportInfo.Formats[i].Deref()
		}
	}

	var modeCount uint32
	if res := vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &modeCount, nil); res != vk.Success {
		return vkError("vkGetPhysicalDeviceSurfacePresentModesKHR", res)
	}
	supportInfo.PresentModes = make([]vk.PresentMode, modeCount)
	if modeCount > 0 {
		if res := vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &modeCount, supportInfo.PresentModes); res != vk.Success {
			return vkError("vkGetPhysicalDeviceSurfacePresentModesKHR", res)
		}
	}
	return nil
}

// SelectPhysicalDevice picks the first device meeting the requirements,
// preferring a discrete GPU when there is one.
func SelectPhysicalDevice(context *VulkanContext) error {
	var physicalDeviceCount uint32
	if res := vk.EnumeratePhysicalDevices(context.Instance, &physicalDeviceCount, nil); res != vk.Success {
		return vkError("vkEnumeratePhysicalDevices", res)
	}
	if physicalDeviceCount == 0 {
		return fmt.Errorf("no devices which support Vulkan were found: %w", errNoSuitableDevice)
	}
	physicalDevices := make([]vk.PhysicalDevice, physicalDeviceCount)
	if res := vk.EnumeratePhysicalDevices(context.Instance, &physicalDeviceCount, physicalDevices); res != vk.Success {
		return vkError("vkEnumeratePhysicalDevices", res)
	}

	for _, discrete := range []bool{true, false} {
		requirements := VulkanPhysicalDeviceRequirements{
			Graphics:             true,
			Present:              true,
			DiscreteGPU:          discrete,
			DeviceExtensionNames: []string{vk.KhrSwapchainExtensionName},
		}
		for _, pd := range physicalDevices {
			var properties vk.PhysicalDeviceProperties
			vk.GetPhysicalDeviceProperties(pd, &properties)
			properties.Deref()

			var queueInfo VulkanPhysicalDeviceQueueFamilyInfo
			var support VulkanSwapchainSupportInfo
			if !PhysicalDeviceMeetsRequirements(pd, context.Surface, &properties, &requirements, &queueInfo, &support) {
				continue
			}

			var memory vk.PhysicalDeviceMemoryProperties
			vk.GetPhysicalDeviceMemoryProperties(pd, &memory)
			memory.Deref()

			context.Device.PhysicalDevice = pd
			context.Device.GraphicsQueueIndex = queueInfo.GraphicsFamilyIndex
			context.Device.PresentQueueIndex = queueInfo.PresentFamilyIndex
			context.Device.SwapchainSupport = support
			context.Device.Properties = properties
			context.Device.Memory = memory

			logDevice(&properties, &memory)
			return nil
		}
	}
	return errNoSuitableDevice
}

func logDevice(properties *vk.PhysicalDeviceProperties, memory *vk.PhysicalDeviceMemoryProperties) {
	kind := "unknown"
	switch properties.DeviceType {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		kind = "integrated"
	case vk.PhysicalDeviceTypeDiscreteGpu:
		kind = "discrete"
	case vk.PhysicalDeviceTypeVirtualGpu:
		kind = "virtual"
	case vk.PhysicalDeviceTypeCpu:
		kind = "cpu"
	}
	api := vk.Version(properties.ApiVersion)
	core.LogInfo("Selected device: '%s' (%s), Vulkan API %d.%d.%d",
		cString(properties.DeviceName[:]), kind, api.Major(), api.Minor(), api.Patch())

	for j := uint32(0); j < memory.MemoryHeapCount; j++ {
		memory.MemoryHeaps[j].Deref()
		sizeMiB := uint64(memory.MemoryHeaps[j].Size) / 1024 / 1024
		if memory.MemoryHeaps[j].Flags&vk.MemoryHeapFlags(vk.MemoryHeapDeviceLocalBit) != 0 {
			core.LogDebug("Local GPU memory: %d MiB", sizeMiB)
		} else {
			core.LogDebug("Shared system memory: %d MiB", sizeMiB)
		}
	}
}

func PhysicalDeviceMeetsRequirements(device vk.PhysicalDevice, surface vk.Surface, properties *vk.PhysicalDeviceProperties, requirements *VulkanPhysicalDeviceRequirements, outQueueInfo *VulkanPhysicalDeviceQueueFamilyInfo, outSwapchainSupport *VulkanSwapchainSupportInfo) bool {
	name := cString(properties.DeviceName[:])
	outQueueInfo.GraphicsFamilyIndex = -1
	outQueueInfo.PresentFamilyIndex = -1

	if requirements.DiscreteGPU && properties.DeviceType != vk.PhysicalDeviceTypeDiscreteGpu {
		core.LogDebug("Device '%s' is not a discrete GPU, skipping.", name)
		return false
	}

	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, nil)
	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, queueFamilies)

	for i := range queueFamilies {
		queueFamilies[i].Deref()
		graphics := queueFamilies[i].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0
		if graphics && outQueueInfo.GraphicsFamilyIndex < 0 {
			outQueueInfo.GraphicsFamilyIndex = int32(i)
		}

		var supportsPresent vk.Bool32
		if res := vk.GetPhysicalDeviceSurfaceSupport(device, uint32(i), surface, &supportsPresent); res != vk.Success {
			return false
		}
		if supportsPresent == vk.True {
			// a family doing both avoids concurrent sharing of swapchain images
			if outQueueInfo.PresentFamilyIndex < 0 || (graphics && outQueueInfo.GraphicsFamilyIndex == int32(i)) {
				outQueueInfo.PresentFamilyIndex = int32(i)
			}
		}
	}

	if requirements.Graphics && outQueueInfo.GraphicsFamilyIndex < 0 {
		core.LogDebug("Device '%s' has no graphics queue, skipping.", name)
		return false
	}
	if requirements.Present && outQueueInfo.PresentFamilyIndex < 0 {
		core.LogDebug("Device '%s' cannot present to the surface, skipping.", name)
		return false
	}

	if err := DeviceQuerySwapchainSupport(device, surface, outSwapchainSupport); err != nil {
		core.LogDebug("Device '%s' swapchain query failed: %s", name, err)
		return false
	}
	if len(outSwapchainSupport.Formats) < 1 || len(outSwapchainSupport.PresentModes) < 1 {
		core.LogDebug("Required swapchain support not present on '%s', skipping.", name)
		return false
	}

	if len(requirements.DeviceExtensionNames) > 0 {
		available, err := deviceExtensions(device)
		if err != nil {
			return false
		}
		for _, ext := range requirements.DeviceExtensionNames {
			if _, ok := available[ext]; !ok {
				core.LogDebug("Required extension not found: '%s', skipping '%s'.", ext, name)
				return false
			}
		}
	}
	return true
}

func deviceExtensions(device vk.PhysicalDevice) (map[string]struct{}, error) {
	var count uint32
	if res := vk.EnumerateDeviceExtensionProperties(device, "", &count, nil); res != vk.Success {
		return nil, vkError("vkEnumerateDeviceExtensionProperties", res)
	}
	props := make([]vk.ExtensionProperties, count)
	if count > 0 {
		if res := vk.EnumerateDeviceExtensionProperties(device, "", &count, props); res != vk.Success {
			return nil, vkError("vkEnumerateDeviceExtensionProperties", res)
		}
	}
	out := make(map[string]struct{}, count)
	for i := range props {
		props[i].Deref()
		out[cString(props[i].ExtensionName[:])] = struct{}{}
	}
	return out, nil
}
