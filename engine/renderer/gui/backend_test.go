package gui

import (
	"errors"
	"fmt"
	"testing"
	"unsafe"

	"github.com/spaghettifunk/cumulus/engine/core"
	"github.com/spaghettifunk/cumulus/engine/gpu"
	"github.com/spaghettifunk/cumulus/engine/gpu/gputest"
)

type memShaders map[gpu.ShaderFormat]map[gpu.ShaderStage][]byte

func (s memShaders) Shader(stage gpu.ShaderStage, format gpu.ShaderFormat) ([]byte, error) {
	code, ok := s[format][stage]
	if !ok {
		return nil, fmt.Errorf("no %s shader for format %d", stage, format)
	}
	return code, nil
}

func spirvShaders() memShaders {
	return memShaders{
		gpu.ShaderFormatSPIRV: {
			gpu.ShaderStageVertex:   []byte("vert"),
			gpu.ShaderStageFragment: []byte("frag"),
		},
	}
}

func testConfig() Config {
	cfg := NewConfig(core.DefaultConfig().UI, spirvShaders())
	cfg.AntiAliasing = false
	return cfg
}

func newTestBackend(t *testing.T, window *gputest.Window) (*Backend, *gputest.Recorder) {
	t.Helper()
	rec := gputest.NewRecorder()
	if window == nil {
		window = &gputest.Window{W: 800, H: 600, PW: 800, PH: 600}
	}
	b, err := Init(rec, window, rec.SwapchainTextureFormat(), testConfig())
	if err != nil {
		t.Fatal(err)
	}
	b.FontStashBegin().AddDefault()
	if err := b.FontStashEnd(); err != nil {
		t.Fatal(err)
	}
	rec.Reset()
	return b, rec
}

func TestVertexLayoutIsByteExact(t *testing.T) {
	var v Vertex
	if s := unsafe.Sizeof(v); s != 20 {
		t.Fatalf("vertex size = %d, want 20", s)
	}
	if unsafe.Offsetof(v.Position) != 0 || unsafe.Offsetof(v.UV) != 8 || unsafe.Offsetof(v.Color) != 16 {
		t.Fatalf("offsets %d/%d/%d", unsafe.Offsetof(v.Position), unsafe.Offsetof(v.UV), unsafe.Offsetof(v.Color))
	}
}

func TestInitCreatesPipelineAndSampler(t *testing.T) {
	rec := gputest.NewRecorder()
	b, err := Init(rec, &gputest.Window{W: 800, H: 600, PW: 800, PH: 600}, gpu.TextureFormatB8G8R8A8Unorm, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer b.Shutdown()

	want := []gputest.OpKind{gputest.OpCreateShader, gputest.OpCreateShader, gputest.OpCreatePipeline, gputest.OpCreateSampler}
	got := rec.Kinds()
	if len(got) != len(want) {
		t.Fatalf("ops = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("op %d = %s, want %s", i, got[i], want[i])
		}
	}

	info := b.pipeline.(*gputest.Pipeline).Info
	if len(info.VertexBuffers) != 1 || info.VertexBuffers[0].Pitch != 20 {
		t.Fatalf("vertex buffers = %+v", info.VertexBuffers)
	}
	attrs := []struct {
		format gpu.VertexElementFormat
		offset uint32
	}{
		{gpu.VertexElementFormatFloat2, 0},
		{gpu.VertexElementFormatFloat2, 8},
		{gpu.VertexElementFormatUByte4Norm, 16},
	}
	for i, a := range attrs {
		if info.Attributes[i].Location != uint32(i) || info.Attributes[i].Format != a.format || info.Attributes[i].Offset != a.offset {
			t.Fatalf("attribute %d = %+v", i, info.Attributes[i])
		}
	}
	blend := info.ColorTargets[0].BlendState
	if !blend.Enable || blend.SrcColorBlendFactor != gpu.BlendFactorSrcAlpha || blend.DstColorBlendFactor != gpu.BlendFactorOneMinusSrcAlpha {
		t.Fatalf("blend state = %+v", blend)
	}
	if info.ColorTargets[0].Format != gpu.TextureFormatB8G8R8A8Unorm {
		t.Fatalf("color target format = %d", info.ColorTargets[0].Format)
	}

	vs := b.vertexShader.(*gputest.Shader).Info
	if vs.Entrypoint != "main" || vs.NumUniformBuffers != 1 || vs.NumSamplers != 0 {
		t.Fatalf("vertex shader info = %+v", vs)
	}
	fs := b.fragmentShader.(*gputest.Shader).Info
	if fs.NumSamplers != 1 || fs.NumUniformBuffers != 0 {
		t.Fatalf("fragment shader info = %+v", fs)
	}
	if s := b.sampler.(*gputest.Sampler).Info; s.AddressModeU != gpu.SamplerAddressModeRepeat || s.MinFilter != gpu.FilterLinear {
		t.Fatalf("sampler info = %+v", s)
	}
}

func TestInitPicksSupportedShaderFormat(t *testing.T) {
	rec := gputest.NewRecorder()
	rec.Formats = gpu.ShaderFormatMSL
	cfg := testConfig()
	cfg.Shaders = memShaders{
		gpu.ShaderFormatMSL: {
			gpu.ShaderStageVertex:   []byte("vert"),
			gpu.ShaderStageFragment: []byte("frag"),
		},
	}
	b, err := Init(rec, &gputest.Window{W: 1, H: 1, PW: 1, PH: 1}, gpu.TextureFormatB8G8R8A8Unorm, cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Shutdown()
	if info := b.vertexShader.(*gputest.Shader).Info; info.Format != gpu.ShaderFormatMSL || info.Entrypoint != "main0" {
		t.Fatalf("vertex shader = %+v", info)
	}
}

func TestInitFailureReleasesEverything(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name string
		fail gputest.OpKind
	}{
		{"shader", gputest.OpCreateShader},
		{"pipeline", gputest.OpCreatePipeline},
		{"sampler", gputest.OpCreateSampler},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := gputest.NewRecorder()
			rec.Fail(tt.fail, boom)
			_, err := Init(rec, &gputest.Window{W: 1, H: 1, PW: 1, PH: 1}, gpu.TextureFormatB8G8R8A8Unorm, testConfig())
			if !errors.Is(err, boom) {
				t.Fatalf("Init error = %v", err)
			}
			if rec.Live() != 0 {
				t.Fatalf("%d resources leaked", rec.Live())
			}
			if bad := rec.InvalidReleases(); len(bad) != 0 {
				t.Fatalf("invalid releases %v", bad)
			}
		})
	}
}

func TestInitWithoutUsableShaders(t *testing.T) {
	rec := gputest.NewRecorder()
	rec.Formats = gpu.ShaderFormatDXIL
	_, err := Init(rec, &gputest.Window{W: 1, H: 1, PW: 1, PH: 1}, gpu.TextureFormatB8G8R8A8Unorm, testConfig())
	if err == nil {
		t.Fatal("expected an error when no shader blob matches the device")
	}
	if rec.Live() != 0 {
		t.Fatalf("%d resources leaked", rec.Live())
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	b, rec := newTestBackend(t, nil)
	ctx := b.Context()
	_ = ctx.BeginInput()
	_ = ctx.EndInput()
	ctx.FillRect(rectAt(0, 0, 10, 10), 0, white)
	cmd, _ := rec.AcquireCommandBuffer()
	if err := b.RenderUpload(cmd); err != nil {
		t.Fatal(err)
	}

	b.Shutdown()
	if rec.Live() != 0 {
		t.Fatalf("%d resources still alive after shutdown", rec.Live())
	}
	n := len(rec.Ops())
	b.Shutdown()
	if len(rec.Ops()) != n {
		t.Fatalf("second shutdown issued %d more operations", len(rec.Ops())-n)
	}
	if bad := rec.InvalidReleases(); len(bad) != 0 {
		t.Fatalf("invalid releases %v", bad)
	}
	if err := b.RenderUpload(cmd); err != nil || len(rec.Ops()) != n {
		t.Fatal("a shut down backend must not touch the device")
	}
}

func TestFontStashEndUploadsAtlas(t *testing.T) {
	rec := gputest.NewRecorder()
	b, err := Init(rec, &gputest.Window{W: 800, H: 600, PW: 800, PH: 600}, rec.SwapchainTextureFormat(), testConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer b.Shutdown()
	rec.Reset()

	atlas := b.FontStashBegin()
	font := atlas.AddDefault()
	if err := b.FontStashEnd(); err != nil {
		t.Fatal(err)
	}

	want := []gputest.OpKind{
		gputest.OpCreateTexture,
		gputest.OpCreateTransferBuffer,
		gputest.OpMapTransferBuffer,
		gputest.OpUnmapTransferBuffer,
		gputest.OpAcquireCommandBuffer,
		gputest.OpBeginCopyPass,
		gputest.OpUploadToTexture,
		gputest.OpEndCopyPass,
		gputest.OpSubmit,
		gputest.OpReleaseTransferBuffer,
	}
	got := rec.Kinds()
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("ops = %v\nwant  %v", got, want)
	}

	if b.Context().Font() != font {
		t.Fatal("default font not installed in the context")
	}
	if font.Texture != b.fontHandle || !b.fontHandle.Valid() {
		t.Fatalf("font texture handle %d, atlas handle %d", font.Texture, b.fontHandle)
	}
	if b.convert.NullTexture.Texture != b.fontHandle {
		t.Fatal("null texture must point at the atlas")
	}
	tex := b.fontTexture.(*gputest.Texture)
	if string(tex.Bytes()) != string(atlas.Image().Pix) {
		t.Fatal("uploaded texels differ from the baked atlas")
	}
	if err := b.FontStashEnd(); err == nil {
		t.Fatal("a second FontStashEnd should fail")
	}
}

func TestFontStashEndFailureLeaksNothing(t *testing.T) {
	rec := gputest.NewRecorder()
	b, err := Init(rec, &gputest.Window{W: 1, H: 1, PW: 1, PH: 1}, rec.SwapchainTextureFormat(), testConfig())
	if err != nil {
		t.Fatal(err)
	}
	live := rec.Live()
	rec.Fail(gputest.OpSubmit, errors.New("lost"))
	b.FontStashBegin().AddDefault()
	if err := b.FontStashEnd(); err == nil {
		t.Fatal("expected the upload to fail")
	}
	if rec.Live() != live {
		t.Fatalf("live resources %d, want %d", rec.Live(), live)
	}
	b.Shutdown()
	if bad := rec.InvalidReleases(); len(bad) != 0 {
		t.Fatalf("invalid releases %v", bad)
	}
}

func TestReloadPipeline(t *testing.T) {
	b, rec := newTestBackend(t, nil)
	defer b.Shutdown()
	old := b.pipeline.ID()

	if err := b.ReloadPipeline(); err != nil {
		t.Fatal(err)
	}
	if b.pipeline.ID() == old {
		t.Fatal("pipeline was not replaced")
	}
	if rec.Count(gputest.OpReleasePipeline) != 1 || rec.Count(gputest.OpReleaseShader) != 2 {
		t.Fatalf("old objects not released: %v", rec.Kinds())
	}

	current := b.pipeline.ID()
	rec.Fail(gputest.OpCreatePipeline, errors.New("bad shader"))
	if err := b.ReloadPipeline(); err == nil {
		t.Fatal("expected reload failure")
	}
	if b.pipeline.ID() != current {
		t.Fatal("a failed reload must keep the running pipeline")
	}
	rec.ClearFailures()
	b.Shutdown()
	if rec.Live() != 0 {
		t.Fatalf("%d resources leaked", rec.Live())
	}
}

func TestTextureRegistryReusesSlots(t *testing.T) {
	b, _ := newTestBackend(t, nil)
	defer b.Shutdown()

	a := b.RegisterTexture(gputest.NewTexture(100, 4, 4))
	c := b.RegisterTexture(gputest.NewTexture(101, 4, 4))
	if a == c || !a.Valid() || !c.Valid() {
		t.Fatalf("handles %d and %d", a, c)
	}
	if err := b.UnregisterTexture(a); err != nil {
		t.Fatal(err)
	}
	if b.texture(a) != b.fontTexture {
		t.Fatal("unregistered handles must fall back to the atlas")
	}
	if d := b.RegisterTexture(gputest.NewTexture(102, 4, 4)); d != a {
		t.Fatalf("freed slot %d not reused, got %d", a, d)
	}
	if err := b.UnregisterTexture(b.fontHandle); err == nil {
		t.Fatal("the atlas must stay registered")
	}
	if err := b.UnregisterTexture(999); err == nil {
		t.Fatal("out of range handle accepted")
	}
}
