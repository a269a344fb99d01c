// Package vulkan implements the gpu.Device API on top of Vulkan.
//
// Every submission that presents advances the device to the next frame slot.
// Before a slot is reused its fences are waited on, and only then are the
// objects released while it was current destroyed.
package vulkan

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync/atomic"
	"unsafe"

	"github.com/charmbracelet/log"
	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/cumulus/engine/core"
	"github.com/spaghettifunk/cumulus/engine/gpu"
)

// Window is what the device needs from the host window: its size, the
// instance extensions the windowing system requires and a surface.
type Window interface {
	gpu.Window
	GetRequiredExtensionNames() []string
	CreateWindowSurface(instance interface{}) (uintptr, error)
}

type Config struct {
	ApplicationName   string
	Validation        bool
	MaxFramesInFlight uint32
}

func NewConfig(app core.ApplicationSection, renderer core.RendererSection) Config {
	return Config{
		ApplicationName:   app.Name,
		Validation:        renderer.Validation,
		MaxFramesInFlight: max(renderer.MaxFramesInFlight, 1),
	}
}

type frame struct {
	imageAvailable vk.Semaphore
	renderComplete vk.Semaphore

	buffers []*VulkanCommandBuffer
	fences  []*VulkanFence
	used    int

	begun    bool
	acquired bool
	garbage  []func(vk.Device)
}

type Device struct {
	context *VulkanContext
	window  Window
	cfg     Config
	locks   *VulkanLockPool
	logger  *log.Logger
	nextID  atomic.Uint64

	frames  []*frame
	current int

	setLayout      vk.DescriptorSetLayout
	pipelineLayout vk.PipelineLayout
	descriptors    *descriptorCache
	renderPasses   map[renderPassKey]vk.RenderPass
	framebuffers   map[vk.ImageView]vk.Framebuffer

	swapchainWidth  int
	swapchainHeight int
	swapchainStale  bool

	destroyed bool
}

// New creates the instance, surface, logical device and swapchain for window.
// On failure everything created so far is destroyed again.
func New(window Window, cfg Config) (*Device, error) {
	if window == nil {
		return nil, errors.New("vulkan device needs a window")
	}
	if cfg.MaxFramesInFlight == 0 {
		cfg.MaxFramesInFlight = 2
	}
	d := &Device{
		context:      &VulkanContext{Device: &VulkanDevice{GraphicsQueueIndex: -1, PresentQueueIndex: -1}},
		window:       window,
		cfg:          cfg,
		locks:        NewVulkanLockPool(),
		logger:       core.Logger().With("gpu", "vulkan"),
		renderPasses: make(map[renderPassKey]vk.RenderPass),
		framebuffers: make(map[vk.ImageView]vk.Framebuffer),
	}
	if err := d.initialize(); err != nil {
		d.Destroy()
		return nil, err
	}
	return d, nil
}

func (d *Device) initialize() error {
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		return errors.New("GetInstanceProcAddress is nil")
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		return fmt.Errorf("failed to initialize vk: %w", err)
	}

	if err := d.createInstance(); err != nil {
		return err
	}

	d.logger.Debug("Creating Vulkan surface...")
	surface, err := d.window.CreateWindowSurface(d.context.Instance)
	if err != nil {
		return fmt.Errorf("vulkan surface creation failed: %w", err)
	}
	d.context.Surface = vk.SurfaceFromPointer(surface)

	if err := DeviceCreate(d.context); err != nil {
		return err
	}

	setLayout, layout, err := createPipelineLayout(d.context)
	if err != nil {
		return err
	}
	d.setLayout, d.pipelineLayout = setLayout, layout
	d.descriptors = newDescriptorCache(d, setLayout)

	for i := uint32(0); i < d.cfg.MaxFramesInFlight; i++ {
		f := &frame{}
		d.frames = append(d.frames, f)
		semaphoreInfo := vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}
		if res := vk.CreateSemaphore(d.context.Device.LogicalDevice, &semaphoreInfo, d.context.Allocator, &f.imageAvailable); res != vk.Success {
			return vkError("vkCreateSemaphore", res)
		}
		if res := vk.CreateSemaphore(d.context.Device.LogicalDevice, &semaphoreInfo, d.context.Allocator, &f.renderComplete); res != vk.Success {
			return vkError("vkCreateSemaphore", res)
		}
	}

	w, h := d.window.SizeInPixels()
	if err := d.recreateSwapchain(max(w, 1), max(h, 1)); err != nil {
		return err
	}
	d.logger.Info("Vulkan device initialized", "frames_in_flight", d.cfg.MaxFramesInFlight)
	return nil
}

func (d *Device) createInstance() error {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 1, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(d.cfg.ApplicationName),
		PEngineName:        VulkanSafeString("Cumulus"),
	}
	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	extensions := append([]string{}, d.window.GetRequiredExtensionNames()...)
	if runtime.GOOS == "darwin" {
		extensions = append(extensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}

	var layers []string
	if d.cfg.Validation {
		extensions = append(extensions, vk.ExtDebugReportExtensionName)
		layers = []string{"VK_LAYER_KHRONOS_validation"}
		if err := checkLayers(layers); err != nil {
			return err
		}
		d.logger.Info("Validation layers enabled.")
	}
	d.logger.Debug("Required instance extensions", "extensions", extensions)

	createInfo.EnabledExtensionCount = uint32(len(extensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(extensions)
	createInfo.EnabledLayerCount = uint32(len(layers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(layers)

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, d.context.Allocator, &instance); res != vk.Success {
		return vkError("vkCreateInstance", res)
	}
	d.context.Instance = instance
	if err := vk.InitInstance(instance); err != nil {
		return err
	}
	d.logger.Debug("Vulkan Instance created.")

	if d.cfg.Validation {
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
			PfnCallback: dbgCallbackFunc,
		}
		var dbg vk.DebugReportCallback
		if err := vk.Error(vk.CreateDebugReportCallback(instance, &debugCreateInfo, nil, &dbg)); err != nil {
			return fmt.Errorf("vkCreateDebugReportCallbackEXT: %w", err)
		}
		d.context.debugMessenger = dbg
	}
	return nil
}

func checkLayers(required []string) error {
	var count uint32
	if res := vk.EnumerateInstanceLayerProperties(&count, nil); res != vk.Success {
		return vkError("vkEnumerateInstanceLayerProperties", res)
	}
	available := make([]vk.LayerProperties, count)
	if res := vk.EnumerateInstanceLayerProperties(&count, available); res != vk.Success {
		return vkError("vkEnumerateInstanceLayerProperties", res)
	}
	for _, name := range required {
		found := false
		for i := range available {
			available[i].Deref()
			if cString(available[i].LayerName[:]) == name {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("required validation layer is missing: %s", name)
		}
	}
	return nil
}

func (d *Device) newID() uint64 {
	return d.nextID.Add(1)
}

func (d *Device) ShaderFormats() gpu.ShaderFormat {
	return gpu.ShaderFormatSPIRV
}

func (d *Device) SwapchainTextureFormat() gpu.TextureFormat {
	if d.context.Swapchain == nil {
		return gpu.TextureFormatInvalid
	}
	return textureFormat(d.context.Swapchain.ImageFormat.Format)
}

// deferRelease queues fn until the current frame slot comes around again.
func (d *Device) deferRelease(fn func(vk.Device)) {
	_ = d.locks.SafeCall(ResourceManagement, func() error {
		if len(d.frames) == 0 {
			fn(d.context.Device.LogicalDevice)
			return nil
		}
		f := d.frames[d.current]
		f.garbage = append(f.garbage, fn)
		return nil
	})
}

func (d *Device) collect(f *frame) {
	var garbage []func(vk.Device)
	_ = d.locks.SafeCall(ResourceManagement, func() error {
		garbage, f.garbage = f.garbage, nil
		return nil
	})
	for _, fn := range garbage {
		fn(d.context.Device.LogicalDevice)
	}
}

// beginFrame waits for the previous use of the slot and frees what was
// released while it was current.
func (d *Device) beginFrame(f *frame) error {
	if f.begun {
		return nil
	}
	for _, fence := range f.fences {
		if err := fence.FenceWait(d.context, math.MaxUint64); err != nil {
			return err
		}
	}
	d.collect(f)
	f.used = 0
	f.acquired = false
	f.begun = true
	return nil
}

func (d *Device) AcquireCommandBuffer() (gpu.CommandBuffer, error) {
	if d.destroyed {
		return nil, gpu.ErrDeviceLost
	}
	f := d.frames[d.current]
	if err := d.beginFrame(f); err != nil {
		return nil, err
	}
	if f.used == len(f.buffers) {
		vcb, err := NewVulkanCommandBuffer(d.context, d.context.Device.GraphicsCommandPool)
		if err != nil {
			return nil, err
		}
		fence, err := NewFence(d.context, true)
		if err != nil {
			vcb.Free(d.context, d.context.Device.GraphicsCommandPool)
			return nil, err
		}
		f.buffers = append(f.buffers, vcb)
		f.fences = append(f.fences, fence)
	}
	vcb, fence := f.buffers[f.used], f.fences[f.used]
	f.used++
	if err := vcb.Begin(); err != nil {
		return nil, err
	}
	return &commandBuffer{device: d, frame: f, vcb: vcb, fence: fence}, nil
}

func (d *Device) acquireSwapchainTexture(f *frame) (*Texture, error) {
	if f.acquired {
		return nil, fmt.Errorf("a swapchain image was already acquired this frame: %w", gpu.ErrInvalidResource)
	}
	w, h := d.window.SizeInPixels()
	if w <= 0 || h <= 0 {
		return nil, nil
	}
	if d.swapchainStale || w != d.swapchainWidth || h != d.swapchainHeight {
		if err := d.recreateSwapchain(w, h); err != nil {
			return nil, err
		}
	}

	sc := d.context.Swapchain
	index, err := sc.acquire(d.context, f.imageAvailable)
	if errors.Is(err, core.ErrSwapchainOutOfDate) {
		d.logger.Debug("swapchain out of date, skipping frame")
		d.swapchainStale = true
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	f.acquired = true

	if fence := sc.ImagesInFlight[index]; fence != nil {
		if err := fence.FenceWait(d.context, math.MaxUint64); err != nil {
			return nil, err
		}
	}
	return sc.Textures[index], nil
}

func (d *Device) recreateSwapchain(width, height int) error {
	if res := vk.DeviceWaitIdle(d.context.Device.LogicalDevice); res != vk.Success {
		return vkError("vkDeviceWaitIdle", res)
	}
	if err := DeviceQuerySwapchainSupport(d.context.Device.PhysicalDevice, d.context.Surface, &d.context.Device.SwapchainSupport); err != nil {
		return err
	}

	old := d.context.Swapchain
	sc, err := SwapchainCreate(d.context, uint32(width), uint32(height), old, d.newID)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrSwapchainOutOfDate, err)
	}
	if old != nil {
		for _, view := range old.Views {
			if fb := d.forgetFramebuffer(view); fb != nil {
				vk.DestroyFramebuffer(d.context.Device.LogicalDevice, fb, d.context.Allocator)
			}
		}
		old.destroy(d.context)
	}
	d.context.Swapchain = sc
	d.swapchainWidth, d.swapchainHeight = width, height
	d.swapchainStale = false
	d.logger.Info("Swapchain ready", "width", sc.Extent.Width, "height", sc.Extent.Height)
	return nil
}

func (d *Device) submit(cb *commandBuffer) error {
	cmd := cb.vcb.Handle
	if cb.acquired != nil && !cb.presented {
		transitionImage(cmd, cb.acquired, vk.ImageLayoutPresentSrc)
	}
	if err := cb.vcb.End(); err != nil {
		return err
	}
	if err := cb.fence.FenceReset(d.context); err != nil {
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cmd},
	}
	f := cb.frame
	if cb.acquired != nil {
		submitInfo.WaitSemaphoreCount = 1
		submitInfo.PWaitSemaphores = []vk.Semaphore{f.imageAvailable}
		submitInfo.PWaitDstStageMask = []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)}
		submitInfo.SignalSemaphoreCount = 1
		submitInfo.PSignalSemaphores = []vk.Semaphore{f.renderComplete}
	}

	err := d.locks.SafeCall(QueueManagement, func() error {
		return vkError("vkQueueSubmit", vk.QueueSubmit(d.context.Device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, cb.fence.Handle))
	})
	if err != nil {
		return err
	}
	cb.vcb.State = COMMAND_BUFFER_STATE_SUBMITTED

	if cb.acquired == nil {
		return nil
	}

	sc := d.context.Swapchain
	sc.ImagesInFlight[cb.acquired.imageIndex] = cb.fence
	err = d.locks.SafeCall(QueueManagement, func() error {
		return sc.present(d.context, f.renderComplete, cb.acquired.imageIndex)
	})
	d.advance()
	if errors.Is(err, core.ErrSwapchainOutOfDate) {
		d.swapchainStale = true
		return nil
	}
	return err
}

func (d *Device) advance() {
	_ = d.locks.SafeCall(ResourceManagement, func() error {
		d.current = (d.current + 1) % len(d.frames)
		d.frames[d.current].begun = false
		return nil
	})
}

func (d *Device) WaitIdle() error {
	if d.context.Device.LogicalDevice == nil {
		return nil
	}
	if res := vk.DeviceWaitIdle(d.context.Device.LogicalDevice); res != vk.Success {
		return vkError("vkDeviceWaitIdle", res)
	}
	return nil
}

// Destroy waits for the GPU and destroys every object the device still owns.
// Calling it again is a no-op.
func (d *Device) Destroy() {
	if d.destroyed {
		return
	}
	d.destroyed = true
	ctx := d.context
	ld := ctx.Device.LogicalDevice

	if ld != nil {
		if err := d.WaitIdle(); err != nil {
			d.logger.Warn("device did not go idle before shutdown", "err", err)
		}
		for _, f := range d.frames {
			d.collect(f)
		}
		if d.descriptors != nil {
			d.descriptors.destroy()
		}
		for view, fb := range d.framebuffers {
			vk.DestroyFramebuffer(ld, fb, ctx.Allocator)
			delete(d.framebuffers, view)
		}
		d.destroyRenderPasses()
		if d.pipelineLayout != nil {
			vk.DestroyPipelineLayout(ld, d.pipelineLayout, ctx.Allocator)
		}
		if d.setLayout != nil {
			vk.DestroyDescriptorSetLayout(ld, d.setLayout, ctx.Allocator)
		}
		if ctx.Swapchain != nil {
			ctx.Swapchain.destroy(ctx)
			ctx.Swapchain = nil
		}
		for _, f := range d.frames {
			for _, fence := range f.fences {
				fence.FenceDestroy(ctx)
			}
			for _, vcb := range f.buffers {
				vcb.Free(ctx, ctx.Device.GraphicsCommandPool)
			}
			if f.imageAvailable != nil {
				vk.DestroySemaphore(ld, f.imageAvailable, ctx.Allocator)
			}
			if f.renderComplete != nil {
				vk.DestroySemaphore(ld, f.renderComplete, ctx.Allocator)
			}
		}
		d.frames = nil
		DeviceDestroy(ctx)
	}

	if ctx.Instance != nil {
		if ctx.Surface != vk.NullSurface {
			vk.DestroySurface(ctx.Instance, ctx.Surface, ctx.Allocator)
			ctx.Surface = vk.NullSurface
		}
		if ctx.debugMessenger != vk.NullDebugReportCallback {
			vk.DestroyDebugReportCallback(ctx.Instance, ctx.debugMessenger, ctx.Allocator)
			ctx.debugMessenger = vk.NullDebugReportCallback
		}
		vk.DestroyInstance(ctx.Instance, ctx.Allocator)
		ctx.Instance = nil
	}
	d.logger.Info("Vulkan device destroyed")
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogDebug("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
