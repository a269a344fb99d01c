package vulkan

import (
	"math"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/cumulus/engine/core"
	cmath "github.com/spaghettifunk/cumulus/engine/math"
)

type VulkanSwapchain struct {
	ImageFormat vk.SurfaceFormat
	Extent      vk.Extent2D
	Handle      vk.Swapchain
	Images      []vk.Image
	Views       []vk.ImageView

	// Textures wrap the images so render passes can target them.
	Textures []*Texture
	// Fences of the submissions still reading each image.
	ImagesInFlight []*VulkanFence
}

type VulkanSwapchainSupportInfo struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// SwapchainCreate builds a swapchain of the given pixel size. The old one, if
// any, is handed to the driver for resource reuse and must be destroyed by the
// caller afterwards.
func SwapchainCreate(context *VulkanContext, width, height uint32, old *VulkanSwapchain, ids func() uint64) (*VulkanSwapchain, error) {
	support := &context.Device.SwapchainSupport
	swapchain := &VulkanSwapchain{}

	// Prefer B8G8R8A8 unorm with an sRGB non-linear color space.
	swapchain.ImageFormat = support.Formats[0]
	for _, format := range support.Formats {
		if format.Format == vk.FormatB8g8r8a8Unorm && format.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			swapchain.ImageFormat = format
			break
		}
	}

	presentMode := vk.PresentModeFifo
	for _, mode := range support.PresentModes {
		if mode == vk.PresentModeMailbox {
			presentMode = mode
			break
		}
	}

	extent := vk.Extent2D{Width: width, Height: height}
	if support.Capabilities.CurrentExtent.Width != math.MaxUint32 {
		extent = support.Capabilities.CurrentExtent
	}
	minExtent := support.Capabilities.MinImageExtent
	maxExtent := support.Capabilities.MaxImageExtent
	extent.Width = cmath.Clamp(extent.Width, minExtent.Width, maxExtent.Width)
	extent.Height = cmath.Clamp(extent.Height, minExtent.Height, maxExtent.Height)
	swapchain.Extent = extent

	imageCount := support.Capabilities.MinImageCount + 1
	if support.Capabilities.MaxImageCount > 0 && imageCount > support.Capabilities.MaxImageCount {
		imageCount = support.Capabilities.MaxImageCount
	}

	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          context.Surface,
		MinImageCount:    imageCount,
		ImageFormat:      swapchain.ImageFormat.Format,
		ImageColorSpace:  swapchain.ImageFormat.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     support.Capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vk.True,
	}
	if context.Device.GraphicsQueueIndex != context.Device.PresentQueueIndex {
		createInfo.ImageSharingMode = vk.SharingModeConcurrent
		createInfo.QueueFamilyIndexCount = 2
		createInfo.PQueueFamilyIndices = []uint32{
			uint32(context.Device.GraphicsQueueIndex),
			uint32(context.Device.PresentQueueIndex),
		}
	}
	if old != nil {
		createInfo.OldSwapchain = old.Handle
	}

	var handle vk.Swapchain
	if res := vk.CreateSwapchain(context.Device.LogicalDevice, &createInfo, context.Allocator, &handle); res != vk.Success {
		return nil, vkError("vkCreateSwapchainKHR", res)
	}
	swapchain.Handle = handle

	var count uint32
	if res := vk.GetSwapchainImages(context.Device.LogicalDevice, handle, &count, nil); res != vk.Success {
		swapchain.destroy(context)
		return nil, vkError("vkGetSwapchainImagesKHR", res)
	}
	swapchain.Images = make([]vk.Image, count)
	if res := vk.GetSwapchainImages(context.Device.LogicalDevice, handle, &count, swapchain.Images); res != vk.Success {
		swapchain.destroy(context)
		return nil, vkError("vkGetSwapchainImagesKHR", res)
	}

	swapchain.Views = make([]vk.ImageView, 0, count)
	swapchain.Textures = make([]*Texture, 0, count)
	swapchain.ImagesInFlight = make([]*VulkanFence, count)
	for i, image := range swapchain.Images {
		view, err := createImageView(context, image, swapchain.ImageFormat.Format)
		if err != nil {
			swapchain.destroy(context)
			return nil, err
		}
		swapchain.Views = append(swapchain.Views, view)
		swapchain.Textures = append(swapchain.Textures, &Texture{
			id:         ids(),
			image:      image,
			view:       view,
			width:      extent.Width,
			height:     extent.Height,
			format:     textureFormat(swapchain.ImageFormat.Format),
			vkFormat:   swapchain.ImageFormat.Format,
			swapchain:  true,
			imageIndex: uint32(i),
		})
	}

	core.LogDebug("Swapchain created: %dx%d, %d images.", extent.Width, extent.Height, count)
	return swapchain, nil
}

// destroy releases the views and the swapchain. The images are owned by the
// swapchain and go with it.
func (vs *VulkanSwapchain) destroy(context *VulkanContext) {
	for _, view := range vs.Views {
		vk.DestroyImageView(context.Device.LogicalDevice, view, context.Allocator)
	}
	vs.Views = nil
	vs.Textures = nil
	if vs.Handle != vk.NullSwapchain {
		vk.DestroySwapchain(context.Device.LogicalDevice, vs.Handle, context.Allocator)
		vs.Handle = vk.NullSwapchain
	}
}

// acquire returns the index of the next presentable image.
func (vs *VulkanSwapchain) acquire(context *VulkanContext, imageAvailable vk.Semaphore) (uint32, error) {
	var index uint32
	res := vk.AcquireNextImage(context.Device.LogicalDevice, vs.Handle, math.MaxUint64, imageAvailable, vk.NullFence, &index)
	if res == vk.Suboptimal {
		// still presentable; the next resize check rebuilds it
		return index, nil
	}
	if res != vk.Success {
		return 0, vkError("vkAcquireNextImageKHR", res)
	}
	return index, nil
}

// present queues the image for presentation once renderComplete signals.
func (vs *VulkanSwapchain) present(context *VulkanContext, renderComplete vk.Semaphore, index uint32) error {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{renderComplete},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{vs.Handle},
		PImageIndices:      []uint32{index},
	}
	res := vk.QueuePresent(context.Device.PresentQueue, &presentInfo)
	if res == vk.Suboptimal {
		return vkError("vkQueuePresentKHR", vk.ErrorOutOfDate)
	}
	return vkError("vkQueuePresentKHR", res)
}
