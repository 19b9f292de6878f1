package retire

import (
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/retire/disposal"
)

// HAL resource adapters. Each wraps one HAL object and destroys it on the
// device that created it when the disposal queue frees it.
//
//	r.Submit([]hal.CommandBuffer{cmd},
//	    retire.Buffer(device, staging),
//	    retire.BindGroup(device, bg))

type bufferResource struct {
	device hal.Device
	buffer hal.Buffer
}

func (r bufferResource) Free() { r.device.DestroyBuffer(r.buffer) }

// Buffer returns a resource that destroys buf.
func Buffer(device hal.Device, buf hal.Buffer) disposal.Resource {
	return bufferResource{device: device, buffer: buf}
}

type textureResource struct {
	device  hal.Device
	texture hal.Texture
}

func (r textureResource) Free() { r.device.DestroyTexture(r.texture) }

// Texture returns a resource that destroys tex.
func Texture(device hal.Device, tex hal.Texture) disposal.Resource {
	return textureResource{device: device, texture: tex}
}

type textureViewResource struct {
	device hal.Device
	view   hal.TextureView
}

func (r textureViewResource) Free() { r.device.DestroyTextureView(r.view) }

// TextureView returns a resource that destroys view. Add views before the
// texture they belong to so they are freed first.
func TextureView(device hal.Device, view hal.TextureView) disposal.Resource {
	return textureViewResource{device: device, view: view}
}

type bindGroupResource struct {
	device hal.Device
	group  hal.BindGroup
}

func (r bindGroupResource) Free() { r.device.DestroyBindGroup(r.group) }

// BindGroup returns a resource that destroys group.
func BindGroup(device hal.Device, group hal.BindGroup) disposal.Resource {
	return bindGroupResource{device: device, group: group}
}

type samplerResource struct {
	device  hal.Device
	sampler hal.Sampler
}

func (r samplerResource) Free() { r.device.DestroySampler(r.sampler) }

// Sampler returns a resource that destroys sampler.
func Sampler(device hal.Device, sampler hal.Sampler) disposal.Resource {
	return samplerResource{device: device, sampler: sampler}
}

// commandBufferResource frees a command buffer through any device that can.
type commandBufferResource struct {
	device commandBufferFreer
	cmd    hal.CommandBuffer
}

type commandBufferFreer interface {
	FreeCommandBuffer(cmdBuffer hal.CommandBuffer)
}

func (r commandBufferResource) Free() { r.device.FreeCommandBuffer(r.cmd) }

// CommandBuffer returns a resource that frees cmd.
func CommandBuffer(device hal.Device, cmd hal.CommandBuffer) disposal.Resource {
	return commandBufferResource{device: device, cmd: cmd}
}
