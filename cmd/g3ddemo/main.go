// Command g3ddemo builds a small scene on a headless engine: a textured
// icosphere lit by a sun, with optional IBL, and prints the resulting
// resource counts.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/g3d"
	"github.com/gogpu/g3d/icosphere"
	"github.com/gogpu/g3d/texload"
)

const materialPackage = `name: unlit
parameters:
  - {name: baseColor, type: float4}
  - {name: albedo, type: sampler2d}
`

func main() {
	var (
		rounds   = flag.Int("rounds", 3, "icosphere subdivision rounds")
		shared   = flag.Bool("shared", false, "share edge midpoints between triangles")
		manifest = flag.String("manifest", "", "YAML asset manifest")
		texture  = flag.String("texture", "", "PNG, JPEG or KTX texture (asset name when -manifest is set)")
		ibl      = flag.String("ibl", "", "KTX cubemap with sh metadata")
		srgb     = flag.Bool("srgb", true, "decode color textures as sRGB")
		nomips   = flag.Bool("nomips", false, "skip mip generation")
		verbose  = flag.Bool("v", false, "log engine activity to stderr")
	)
	flag.Parse()

	if *verbose {
		g3d.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	var opts []g3d.EngineOption
	if *manifest != "" {
		tab, err := g3d.LoadAssetManifest(*manifest)
		if err != nil {
			log.Fatalf("Failed to load manifest: %v", err)
		}
		opts = append(opts, g3d.WithAssetTable(tab))
	}
	e, err := g3d.NewHeadlessEngine(opts...)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}
	defer e.Destroy()

	if *rounds < 0 || *rounds > icosphere.MaxRounds {
		log.Fatalf("rounds must be in [0, %d]", icosphere.MaxRounds)
	}
	gen := icosphere.New(nil)
	mesh := gen.Generate(*rounds)
	if *shared {
		mesh = gen.GenerateShared(*rounds)
	}
	bufs, err := mesh.Upload(e)
	if err != nil {
		log.Fatalf("Failed to upload icosphere: %v", err)
	}
	log.Printf("Icosphere: %d vertices, %d triangles\n", mesh.VertexCount(), mesh.TriangleCount())

	mi := buildMaterial(e, *texture, *manifest != "", texload.Options{SRGB: *srgb, NoMips: *nomips})

	ents, err := e.Entities().CreateN(2)
	if err != nil {
		log.Fatalf("Failed to create entities: %v", err)
	}
	err = g3d.NewRenderableBuilder(1).
		BoundingBox(mesh.Bounds()).
		Geometry(0, g3d.PrimitiveTriangles, bufs.Vertices, bufs.Indices).
		Material(0, mi).
		Build(e, ents[0])
	if err != nil {
		log.Fatalf("Failed to build renderable: %v", err)
	}
	err = g3d.NewLightBuilder(g3d.LightSun).
		Direction(mgl32.Vec3{0.3, -1, -0.5}).
		Color(mgl32.Vec3{1, 0.95, 0.9}).
		CastShadows(true).
		Build(e, ents[1])
	if err != nil {
		log.Fatalf("Failed to build light: %v", err)
	}

	if *ibl != "" {
		data, err := os.ReadFile(filepath.Clean(*ibl))
		if err != nil {
			log.Fatalf("Failed to read IBL: %v", err)
		}
		light, err := texload.DecodeIBL(e, g3d.Bytes(data), texload.Options{})
		if err != nil {
			log.Fatalf("Failed to decode IBL: %v", err)
		}
		if light.IsZero() {
			log.Printf("IBL %s not supported by this engine\n", *ibl)
		}
	}

	log.Println(e.Stats())
}

// buildMaterial creates a material instance, textured when name is set.
func buildMaterial(e *g3d.Engine, name string, isAsset bool, opts texload.Options) g3d.MaterialInstance {
	m, err := g3d.NewMaterialBuilder().Package(g3d.Bytes(materialPackage)).Build(e)
	if err != nil {
		log.Fatalf("Failed to build material: %v", err)
	}
	mi, err := m.CreateInstance(e)
	if err != nil {
		log.Fatalf("Failed to create material instance: %v", err)
	}
	if err := mi.SetParameter(e, "baseColor", mgl32.Vec4{1, 1, 1, 1}); err != nil {
		log.Fatalf("Failed to set baseColor: %v", err)
	}
	if name == "" {
		return mi
	}

	var src g3d.Source = g3d.Asset(name)
	if !isAsset {
		data, err := os.ReadFile(filepath.Clean(name))
		if err != nil {
			log.Fatalf("Failed to read texture: %v", err)
		}
		src = g3d.Bytes(data)
	}
	tex, err := texload.Decode(e, src, opts)
	if err != nil {
		log.Fatalf("Failed to decode texture: %v", err)
	}
	if tex.IsZero() {
		log.Printf("Texture %s not supported by this engine, using baseColor only\n", name)
		return mi
	}
	if err := mi.SetParameter(e, "albedo", tex); err != nil {
		log.Fatalf("Failed to set albedo: %v", err)
	}
	return mi
}
