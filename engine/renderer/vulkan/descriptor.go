package vulkan

import (
	vk "github.com/goki/vulkan"
)

const descriptorPoolSize = 256

type descriptorKey struct {
	texture uint64
	sampler uint64
}

type descriptorEntry struct {
	set  vk.DescriptorSet
	pool vk.DescriptorPool
}

// descriptorCache keeps one combined image sampler set per texture and
// sampler pair. Sets are written once and freed when either side is released.
type descriptorCache struct {
	device *Device
	layout vk.DescriptorSetLayout
	pools  []vk.DescriptorPool
	sets   map[descriptorKey]descriptorEntry
}

func newDescriptorCache(device *Device, layout vk.DescriptorSetLayout) *descriptorCache {
	return &descriptorCache{
		device: device,
		layout: layout,
		sets:   make(map[descriptorKey]descriptorEntry),
	}
}

func (c *descriptorCache) newPool() (vk.DescriptorPool, error) {
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		Flags:         vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit),
		MaxSets:       descriptorPoolSize,
		PoolSizeCount: 1,
		PPoolSizes: []vk.DescriptorPoolSize{{
			Type:            vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: descriptorPoolSize,
		}},
	}
	var pool vk.DescriptorPool
	ctx := c.device.context
	if res := vk.CreateDescriptorPool(ctx.Device.LogicalDevice, &poolInfo, ctx.Allocator, &pool); res != vk.Success {
		return nil, vkError("vkCreateDescriptorPool", res)
	}
	c.pools = append(c.pools, pool)
	return pool, nil
}

func (c *descriptorCache) allocate() (vk.DescriptorSet, vk.DescriptorPool, error) {
	device := c.device.context.Device.LogicalDevice
	for _, pool := range c.pools {
		if set, ok := c.allocateFrom(device, pool); ok {
			return set, pool, nil
		}
	}
	pool, err := c.newPool()
	if err != nil {
		return nil, nil, err
	}
	set, ok := c.allocateFrom(device, pool)
	if !ok {
		return nil, nil, vkError("vkAllocateDescriptorSets", vk.ErrorOutOfPoolMemory)
	}
	return set, pool, nil
}

func (c *descriptorCache) allocateFrom(device vk.Device, pool vk.DescriptorPool) (vk.DescriptorSet, bool) {
	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{c.layout},
	}
	var set vk.DescriptorSet
	if res := vk.AllocateDescriptorSets(device, &allocInfo, &set); res != vk.Success {
		return nil, false
	}
	return set, true
}

// get returns the set sampling t with s, writing a new one on first use.
func (c *descriptorCache) get(t *Texture, s *Sampler) (vk.DescriptorSet, error) {
	var out vk.DescriptorSet
	err := c.device.locks.SafeCall(DescriptorManagement, func() error {
		key := descriptorKey{texture: t.id, sampler: s.id}
		if e, ok := c.sets[key]; ok {
			out = e.set
			return nil
		}
		set, pool, err := c.allocate()
		if err != nil {
			return err
		}
		write := vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          set,
			DstBinding:      0,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			PImageInfo: []vk.DescriptorImageInfo{{
				Sampler:     s.handle,
				ImageView:   t.view,
				ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
			}},
		}
		vk.UpdateDescriptorSets(c.device.context.Device.LogicalDevice, 1, []vk.WriteDescriptorSet{write}, 0, nil)
		c.sets[key] = descriptorEntry{set: set, pool: pool}
		out = set
		return nil
	})
	return out, err
}

// forget drops every set referencing the resource id. The sets go back to
// their pools once the frames that may bind them have finished.
func (c *descriptorCache) forget(id uint64) {
	_ = c.device.locks.SafeCall(DescriptorManagement, func() error {
		for key, e := range c.sets {
			if key.texture != id && key.sampler != id {
				continue
			}
			delete(c.sets, key)
			set, pool := e.set, e.pool
			c.device.deferRelease(func(ld vk.Device) {
				vk.FreeDescriptorSets(ld, pool, 1, []vk.DescriptorSet{set})
			})
		}
		return nil
	})
}

// destroy frees every pool and with them every set. Only valid once the
// device is idle.
func (c *descriptorCache) destroy() {
	ctx := c.device.context
	for _, pool := range c.pools {
		vk.DestroyDescriptorPool(ctx.Device.LogicalDevice, pool, ctx.Allocator)
	}
	c.pools = nil
	clear(c.sets)
}
