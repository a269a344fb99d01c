package vulkan

import (
	"encoding/binary"
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/cumulus/engine/core"
	"github.com/spaghettifunk/cumulus/engine/gpu"
)

var resultNames = map[vk.Result]string{
	vk.Success:                    "VK_SUCCESS",
	vk.NotReady:                   "VK_NOT_READY",
	vk.Timeout:                    "VK_TIMEOUT",
	vk.EventSet:                   "VK_EVENT_SET",
	vk.EventReset:                 "VK_EVENT_RESET",
	vk.Incomplete:                 "VK_INCOMPLETE",
	vk.Suboptimal:                 "VK_SUBOPTIMAL_KHR",
	vk.ErrorOutOfHostMemory:       "VK_ERROR_OUT_OF_HOST_MEMORY",
	vk.ErrorOutOfDeviceMemory:     "VK_ERROR_OUT_OF_DEVICE_MEMORY",
	vk.ErrorInitializationFailed:  "VK_ERROR_INITIALIZATION_FAILED",
	vk.ErrorDeviceLost:            "VK_ERROR_DEVICE_LOST",
	vk.ErrorMemoryMapFailed:       "VK_ERROR_MEMORY_MAP_FAILED",
	vk.ErrorLayerNotPresent:       "VK_ERROR_LAYER_NOT_PRESENT",
	vk.ErrorExtensionNotPresent:   "VK_ERROR_EXTENSION_NOT_PRESENT",
	vk.ErrorFeatureNotPresent:     "VK_ERROR_FEATURE_NOT_PRESENT",
	vk.ErrorIncompatibleDriver:    "VK_ERROR_INCOMPATIBLE_DRIVER",
	vk.ErrorTooManyObjects:        "VK_ERROR_TOO_MANY_OBJECTS",
	vk.ErrorFormatNotSupported:    "VK_ERROR_FORMAT_NOT_SUPPORTED",
	vk.ErrorFragmentedPool:        "VK_ERROR_FRAGMENTED_POOL",
	vk.ErrorSurfaceLost:           "VK_ERROR_SURFACE_LOST_KHR",
	vk.ErrorNativeWindowInUse:     "VK_ERROR_NATIVE_WINDOW_IN_USE_KHR",
	vk.ErrorOutOfDate:             "VK_ERROR_OUT_OF_DATE_KHR",
	vk.ErrorIncompatibleDisplay:   "VK_ERROR_INCOMPATIBLE_DISPLAY_KHR",
	vk.ErrorOutOfPoolMemory:       "VK_ERROR_OUT_OF_POOL_MEMORY",
	vk.ErrorInvalidExternalHandle: "VK_ERROR_INVALID_EXTERNAL_HANDLE",
	vk.ErrorFragmentation:         "VK_ERROR_FRAGMENTATION",
	vk.ErrorUnknown:               "VK_ERROR_UNKNOWN",
}

func VulkanResultString(result vk.Result) string {
	if s, ok := resultNames[result]; ok {
		return s
	}
	return fmt.Sprintf("VkResult(%d)", int32(result))
}

// VulkanResultIsSuccess reports whether result is one of the non-error codes.
// Error codes are all negative.
func VulkanResultIsSuccess(result vk.Result) bool {
	return result >= 0
}

// vkError turns a failed result into an error naming the call. Results with a
// portable meaning wrap the matching sentinel so callers can errors.Is them.
func vkError(call string, result vk.Result) error {
	if VulkanResultIsSuccess(result) {
		return nil
	}
	switch result {
	case vk.ErrorOutOfHostMemory, vk.ErrorOutOfDeviceMemory, vk.ErrorOutOfPoolMemory, vk.ErrorFragmentedPool:
		return fmt.Errorf("%s failed with %s: %w", call, VulkanResultString(result), gpu.ErrOutOfMemory)
	case vk.ErrorDeviceLost:
		return fmt.Errorf("%s failed with %s: %w", call, VulkanResultString(result), gpu.ErrDeviceLost)
	case vk.ErrorOutOfDate:
		return fmt.Errorf("%s failed with %s: %w", call, VulkanResultString(result), core.ErrSwapchainOutOfDate)
	case vk.ErrorFormatNotSupported:
		return fmt.Errorf("%s failed with %s: %w", call, VulkanResultString(result), gpu.ErrUnsupportedFormat)
	}
	return fmt.Errorf("%s failed with %s", call, VulkanResultString(result))
}

var end = "\x00"
var endChar byte = '\x00'

func VulkanSafeString(s string) string {
	if len(s) == 0 {
		return end
	}
	if s[len(s)-1] != endChar {
		return s + end
	}
	return s
}

func VulkanSafeStrings(list []string) []string {
	out := make([]string, len(list))
	for i := range list {
		out[i] = VulkanSafeString(list[i])
	}
	return out
}

// cString trims a fixed-size, NUL padded name returned by the driver.
func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

const spirvMagic = 0x07230203

// spirvWords reinterprets a little-endian SPIR-V blob as the word slice
// vkCreateShaderModule expects.
func spirvWords(code []byte) ([]uint32, error) {
	if len(code) < 4 || len(code)%4 != 0 {
		return nil, fmt.Errorf("spir-v blob of %d bytes is not word aligned: %w", len(code), gpu.ErrUnsupportedFormat)
	}
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[i*4:])
	}
	if words[0] != spirvMagic {
		return nil, fmt.Errorf("blob is not spir-v (magic %#08x): %w", words[0], gpu.ErrUnsupportedFormat)
	}
	return words, nil
}
