// Package g3d builds GPU resources for a 3D engine from caller data.
//
// # Overview
//
// g3d owns the path bulk data takes from caller memory into engine-owned
// resources. Caller bytes are copied into a BufferDescriptor, builders
// collect the parameters of a resource, and a single Build call validates
// them, allocates the resource on the engine's device and returns an opaque
// handle. Descriptors and builders are single use.
//
// # Quick Start
//
//	e, err := g3d.NewHeadlessEngine()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer e.Destroy()
//
//	vb, err := g3d.NewVertexBufferBuilder().
//	    VertexCount(3).
//	    BufferCount(1).
//	    Attribute(g3d.AttributePosition, 0, g3d.AttributeFloat3, 0, 12).
//	    Build(e)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = vb.SetBufferAt(e, 0, g3d.Float32Bytes(0, 0, 0, 1, 0, 0, 0, 1, 0), 0)
//
// # Ownership
//
// Every entry point that accepts bulk data takes a [Source]: a named [Asset]
// resolved through the engine's [AssetTable], raw [Bytes], or a descriptor
// created with [Engine.NewBuffer] and friends. A descriptor is consumed by
// the first call that reads it; its heap storage is freed and its release
// callback runs at that point.
//
// Handles stay valid until the matching Engine.Destroy* call. Using a
// destroyed handle returns [ErrStaleHandle]; passing a handle or descriptor
// to an engine that did not create it returns [ErrForeignEngine].
//
// # Concurrency
//
// An Engine and everything created from it belong to one goroutine.
// [Texture.GenerateMipmaps] may filter the layers of a cubemap on worker
// goroutines (see [WithMipWorkers]) and returns once all of them are done.
//
// # Subpackages
//
//   - geom: vector and quaternion helpers used by mesh generators
//   - icosphere: subdivided icosahedron meshes with tangent frames
//   - texload: PNG, JPEG and KTX decoding into textures
package g3d

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
