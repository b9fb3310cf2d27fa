package renderer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-compute/common"
	"github.com/Carmen-Shannon/oxy-compute/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-compute/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-compute/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// Pipeline retrieves a registered Pipeline by key, or nil if none is registered under it.
//
// Parameters:
//   - key: the unique identifier for the Pipeline to retrieve
//
// Returns:
//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
func (c *Context) Pipeline(key string) pipeline.Pipeline {
	return c.pipelines[key]
}

// RegisterPipelines creates the GPU pipeline objects (render or compute) for one or more pipelines and
// registers them by PipelineKey. Pipelines whose keys are already registered are skipped.
// Registered pipelines are released by Context.Release.
//
// Parameters:
//   - pipelines: the Pipelines to register
//
// Returns:
//   - error: a wrapped error naming the first pipeline that failed
func (c *Context) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	for _, p := range pipelines {
		if _, ok := c.pipelines[p.PipelineKey()]; ok {
			continue
		}

		var err error
		switch p.Type() {
		case pipeline.PipelineTypeCompute:
			err = c.registerComputePipeline(p)
		case pipeline.PipelineTypeRender:
			err = c.registerRenderPipeline(p)
		default:
			err = fmt.Errorf("unknown pipeline type %d", p.Type())
		}
		if err != nil {
			return fmt.Errorf("renderer: register %s pipeline %q: %w", p.Type(), p.PipelineKey(), err)
		}

		c.pipelines[p.PipelineKey()] = p
		common.Logger().Debug("pipeline registered", "key", p.PipelineKey(), "type", p.Type().String())
	}
	return nil
}

// createBindGroupLayouts creates one layout per group index. Gaps are filled with empty layouts so the
// pipeline layout's group slice has no nil entries.
func (c *Context) createBindGroupLayouts(descriptors map[int]wgpu.BindGroupLayoutDescriptor) ([]*wgpu.BindGroupLayout, error) {
	layouts := make([]*wgpu.BindGroupLayout, groupCount(descriptors))
	for g := range layouts {
		desc := descriptors[g]
		layout, err := c.device.CreateBindGroupLayout(&desc)
		if err != nil {
			return nil, fmt.Errorf("failed to create bind group layout for group %d: %w", g, err)
		}
		layouts[g] = layout
	}
	return layouts, nil
}

func releaseLayouts(layouts []*wgpu.BindGroupLayout) {
	for _, l := range layouts {
		if l != nil {
			l.Release()
		}
	}
}

func (c *Context) registerComputePipeline(p pipeline.Pipeline) error {
	computeShader := p.Shader(shader.ShaderTypeCompute)
	if computeShader == nil {
		return errors.New("compute shader must be set to create a compute pipeline")
	}

	module, err := c.device.CreateShaderModule(computeShader.Module())
	if err != nil {
		return err
	}
	defer module.Release()

	bindGroupLayouts, err := c.createBindGroupLayouts(computeShader.BindGroupLayoutDescriptors())
	if err != nil {
		return err
	}
	defer releaseLayouts(bindGroupLayouts)

	layout, err := c.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: bindGroupLayouts,
	})
	if err != nil {
		return err
	}

	created, err := c.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  p.PipelineKey() + " Compute Pipeline",
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: computeShader.EntryPoint(),
		},
	})
	if err != nil {
		layout.Release()
		return err
	}

	p.SetComputePipeline(created, layout)
	return nil
}

func (c *Context) registerRenderPipeline(p pipeline.Pipeline) error {
	vertexShader := p.Shader(shader.ShaderTypeVertex)
	fragmentShader := p.Shader(shader.ShaderTypeFragment)
	if vertexShader == nil || fragmentShader == nil {
		return errors.New("both vertex and fragment shaders must be set to create a render pipeline")
	}

	vs, err := c.device.CreateShaderModule(vertexShader.Module())
	if err != nil {
		return err
	}
	defer vs.Release()

	fs := vs
	if fragmentShader.Source() != vertexShader.Source() {
		fs, err = c.device.CreateShaderModule(fragmentShader.Module())
		if err != nil {
			return err
		}
		defer fs.Release()
	}

	merged := mergeBindGroupLayouts(vertexShader.BindGroupLayoutDescriptors(), fragmentShader.BindGroupLayoutDescriptors())
	bindGroupLayouts, err := c.createBindGroupLayouts(merged)
	if err != nil {
		return err
	}
	defer releaseLayouts(bindGroupLayouts)

	layout, err := c.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: bindGroupLayouts,
	})
	if err != nil {
		return err
	}

	vertexLayouts := make([]wgpu.VertexBufferLayout, 0, len(vertexShader.VertexLayouts()))
	for i := range len(vertexShader.VertexLayouts()) {
		vertexLayouts = append(vertexLayouts, vertexShader.VertexLayouts()[i]...)
	}

	created, err := c.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vertexShader.EntryPoint(),
			Buffers:    vertexLayouts,
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: fragmentShader.EntryPoint(),
			Targets: []wgpu.ColorTargetState{
				{
					Format:    c.format,
					Blend:     p.BlendState(),
					WriteMask: p.WriteMask(),
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		layout.Release()
		return err
	}

	p.SetRenderPipeline(created, layout)
	return nil
}

// InitStorageTexture creates a 2D texture a compute shader can write and a render pass can sample,
// and stores it with a default view on the provider at the given binding.
//
// Parameters:
//   - provider: the BindGroupProvider that will own the texture
//   - bindingKey: the binding index the view is bound at
//   - stagingData: size, format and readback flag of the texture
//
// Returns:
//   - error: a wrapped error if the texture or its view could not be created
func (c *Context) InitStorageTexture(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.StorageTextureStagingData) error {
	usage := wgpu.TextureUsageStorageBinding | wgpu.TextureUsageTextureBinding
	if stagingData.Readable {
		usage |= wgpu.TextureUsageCopySrc
	}

	tex, err := c.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     provider.Label() + " Texture",
		Usage:     usage,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              stagingData.Width,
			Height:             stagingData.Height,
			DepthOrArrayLayers: 1,
		},
		Format:        common.Coalesce(stagingData.Format, wgpu.TextureFormatRGBA8Unorm),
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return fmt.Errorf("renderer: create %s texture: %w", provider.Label(), err)
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return fmt.Errorf("renderer: create %s texture view: %w", provider.Label(), err)
	}
	provider.SetTexture(bindingKey, tex, view)

	common.Logger().Debug("storage texture created", "label", provider.Label(), "width", stagingData.Width, "height", stagingData.Height)
	return nil
}

// InitSampler creates a GPU sampler from staging data and stores it on the provider at the given binding.
// Zero fields default to linear filtering and clamp-to-edge addressing.
//
// Parameters:
//   - provider: the BindGroupProvider to store the created sampler on
//   - bindingKey: the binding index for this sampler
//   - samplerStagingData: the sampler configuration
//
// Returns:
//   - error: a wrapped error if sampler creation fails
func (c *Context) InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error {
	samp, err := c.device.CreateSampler(samplerDescriptor(provider.Label()+" Sampler", samplerStagingData))
	if err != nil {
		return fmt.Errorf("renderer: create %s sampler: %w", provider.Label(), err)
	}
	provider.SetSampler(bindingKey, samp)
	return nil
}

func samplerDescriptor(label string, s common.SamplerStagingData) *wgpu.SamplerDescriptor {
	return &wgpu.SamplerDescriptor{
		Label:         label,
		AddressModeU:  common.Coalesce(s.AddressModeU, wgpu.AddressModeClampToEdge),
		AddressModeV:  common.Coalesce(s.AddressModeV, wgpu.AddressModeClampToEdge),
		AddressModeW:  common.Coalesce(s.AddressModeW, wgpu.AddressModeClampToEdge),
		MagFilter:     common.Coalesce(s.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     common.Coalesce(s.MinFilter, wgpu.FilterModeLinear),
		MipmapFilter:  s.MipmapFilter,
		LodMinClamp:   s.LodMinClamp,
		LodMaxClamp:   common.Coalesce(s.LodMaxClamp, 32.0),
		MaxAnisotropy: common.Coalesce(s.MaxAnisotropy, 1),
	}
}

// InitVertexBuffer uploads vertex data into a new vertex buffer stored on the provider.
//
// Parameters:
//   - provider: the BindGroupProvider to store the buffer on
//   - vertexData: the raw vertex bytes
//   - vertexCount: the number of vertices in vertexData
//
// Returns:
//   - error: a wrapped error if the buffer could not be created
func (c *Context) InitVertexBuffer(provider bind_group_provider.BindGroupProvider, vertexData []byte, vertexCount uint32) error {
	buf, err := c.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    provider.Label() + " Vertex Buffer",
		Contents: vertexData,
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return fmt.Errorf("renderer: create %s vertex buffer: %w", provider.Label(), err)
	}
	provider.SetVertexBuffer(buf, vertexCount)
	return nil
}

// InitBindGroup creates a bind group for the descriptor from the texture views and samplers already
// stored on the provider. Texture views must be set and samplers created with InitSampler before calling.
//
// Parameters:
//   - provider: the BindGroupProvider holding the resources, which receives the bind group
//   - descriptor: the reflected layout descriptor of the group
//
// Returns:
//   - error: a wrapped error if a resource is missing or creation fails
func (c *Context) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) error {
	entries, err := bindGroupEntries(provider, descriptor)
	if err != nil {
		return fmt.Errorf("renderer: %s bind group: %w", provider.Label(), err)
	}

	layout := provider.BindGroupLayout()
	if layout == nil {
		layout, err = c.device.CreateBindGroupLayout(&descriptor)
		if err != nil {
			return fmt.Errorf("renderer: %s bind group layout: %w", provider.Label(), err)
		}
		provider.SetBindGroupLayout(layout)
	}

	bindGroup, err := c.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label() + " Bind Group",
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("renderer: %s bind group: %w", provider.Label(), err)
	}
	provider.SetBindGroup(bindGroup)
	return nil
}

// bindGroupEntries resolves every layout entry to the provider resource bound at its index.
func bindGroupEntries(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) ([]wgpu.BindGroupEntry, error) {
	if len(descriptor.Entries) == 0 {
		return nil, errors.New("layout has no entries")
	}

	entries := make([]wgpu.BindGroupEntry, len(descriptor.Entries))
	for i, entry := range descriptor.Entries {
		binding := int(entry.Binding)
		isTexture := entry.Texture.SampleType != wgpu.TextureSampleTypeUndefined ||
			entry.StorageTexture.Access != wgpu.StorageTextureAccessUndefined
		isSampler := entry.Sampler.Type != wgpu.SamplerBindingTypeUndefined

		switch {
		case isTexture:
			tv := provider.TextureView(binding)
			if tv == nil {
				return nil, fmt.Errorf("texture binding %d has no texture view", binding)
			}
			entries[i] = wgpu.BindGroupEntry{Binding: entry.Binding, TextureView: tv}
		case isSampler:
			samp := provider.Sampler(binding)
			if samp == nil {
				return nil, fmt.Errorf("sampler binding %d has no sampler, call InitSampler first", binding)
			}
			entries[i] = wgpu.BindGroupEntry{Binding: entry.Binding, Sampler: samp}
		default:
			return nil, fmt.Errorf("binding %d is a buffer, which this renderer does not bind", binding)
		}
	}
	return entries, nil
}
