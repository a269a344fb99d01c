package vulkan

import (
	"errors"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/cumulus/engine/core"
	"github.com/spaghettifunk/cumulus/engine/gpu"
)

func TestVkErrorWrapsSentinels(t *testing.T) {
	tests := []struct {
		result vk.Result
		want   error
	}{
		{vk.ErrorOutOfDeviceMemory, gpu.ErrOutOfMemory},
		{vk.ErrorOutOfHostMemory, gpu.ErrOutOfMemory},
		{vk.ErrorDeviceLost, gpu.ErrDeviceLost},
		{vk.ErrorOutOfDate, core.ErrSwapchainOutOfDate},
		{vk.ErrorFormatNotSupported, gpu.ErrUnsupportedFormat},
	}
	for _, tt := range tests {
		t.Run(VulkanResultString(tt.result), func(t *testing.T) {
			if err := vkError("vkTest", tt.result); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
	if err := vkError("vkTest", vk.Success); err != nil {
		t.Fatalf("success produced %v", err)
	}
	if err := vkError("vkTest", vk.Suboptimal); err != nil {
		t.Fatalf("suboptimal is not an error, got %v", err)
	}
}

func TestSpirvWords(t *testing.T) {
	code := []byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00}
	words, err := spirvWords(code)
	if err != nil {
		t.Fatal(err)
	}
	if len(words) != 2 || words[0] != spirvMagic || words[1] != 0x00010000 {
		t.Fatalf("words %#x", words)
	}

	for _, bad := range [][]byte{nil, {1, 2, 3}, {0, 0, 0, 0}, {0x03, 0x02, 0x23, 0x07, 0}} {
		if _, err := spirvWords(bad); !errors.Is(err, gpu.ErrUnsupportedFormat) {
			t.Fatalf("%v accepted: %v", bad, err)
		}
	}
}

func TestVulkanSafeStrings(t *testing.T) {
	in := []string{"VK_KHR_surface", "", "done\x00"}
	out := VulkanSafeStrings(in)
	if out[0] != "VK_KHR_surface\x00" || out[1] != "\x00" || out[2] != "done\x00" {
		t.Fatalf("%q", out)
	}
	if in[0] != "VK_KHR_surface" {
		t.Fatal("input slice modified")
	}
	if cString([]byte("abc\x00\x00")) != "abc" || cString([]byte("xyz")) != "xyz" {
		t.Fatal("cString")
	}
}

func TestFormatMapping(t *testing.T) {
	for _, f := range []gpu.TextureFormat{gpu.TextureFormatR8G8B8A8Unorm, gpu.TextureFormatB8G8R8A8Unorm, gpu.TextureFormatB8G8R8A8UnormSRGB} {
		vf, err := vulkanFormat(f)
		if err != nil {
			t.Fatal(err)
		}
		if textureFormat(vf) != f {
			t.Fatalf("%v did not round trip", f)
		}
	}
	if _, err := vulkanFormat(gpu.TextureFormatInvalid); !errors.Is(err, gpu.ErrUnsupportedFormat) {
		t.Fatal("invalid format accepted")
	}
}
