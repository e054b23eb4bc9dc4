// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texload

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/gogpu/g3d"
	"github.com/gogpu/g3d/internal/ktx"
)

// DecodeIBL builds an indirect light from a KTX cubemap. The cubemap
// becomes the reflections map and the "sh" metadata, when present, the
// irradiance. A file whose cubemap the engine cannot store still yields an
// irradiance-only light.
func DecodeIBL(e *g3d.Engine, src g3d.Source, opts Options) (g3d.IndirectLight, error) {
	b, err := readKTX(e, src)
	if err != nil {
		return g3d.IndirectLight{}, err
	}
	if !b.IsCubemap() {
		return g3d.IndirectLight{}, fmt.Errorf("%w: ibl: %d faces, want a cubemap", ErrDecode, b.Faces())
	}

	sh, bands, err := irradiance(b)
	if err != nil {
		return g3d.IndirectLight{}, err
	}
	reflections, err := textureFromBundle(e, b, opts)
	if err != nil {
		return g3d.IndirectLight{}, err
	}
	if reflections.IsZero() && bands == 0 {
		g3d.Logger().Warn("texload: ibl has neither a usable cubemap nor sh metadata")
		return g3d.IndirectLight{}, nil
	}

	lb := g3d.NewIndirectLightBuilder()
	if !reflections.IsZero() {
		lb.Reflections(reflections)
	}
	if bands > 0 {
		lb.Irradiance(bands, sh)
	}
	light, err := lb.Build(e)
	if err != nil {
		if !reflections.IsZero() {
			_ = e.DestroyTexture(reflections)
		}
		return g3d.IndirectLight{}, err
	}
	g3d.Logger().Debug("texload: ibl decoded", "bands", bands, "reflections", !reflections.IsZero())
	return light, nil
}

// irradiance reads the spherical harmonics of b. A missing "sh" key
// yields zero bands.
func irradiance(b *ktx.Bundle) ([][3]float32, int, error) {
	sh, err := b.SphericalHarmonics()
	if errors.Is(err, ktx.ErrUnsupported) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%w: ibl: %w", ErrDecode, err)
	}
	bands := int(math32.Round(math32.Sqrt(float32(len(sh)))))
	if bands*bands != len(sh) {
		return nil, 0, fmt.Errorf("%w: ibl: %d sh coefficients is not a square", ErrDecode, len(sh))
	}
	if bands > 3 {
		g3d.Logger().Debug("texload: truncating sh to 3 bands", "bands", bands)
		bands = 3
	}
	return sh, bands, nil
}

// DecodeSkybox builds a skybox from a KTX cubemap.
func DecodeSkybox(e *g3d.Engine, src g3d.Source, opts Options) (g3d.Skybox, error) {
	b, err := readKTX(e, src)
	if err != nil {
		return g3d.Skybox{}, err
	}
	if !b.IsCubemap() {
		return g3d.Skybox{}, fmt.Errorf("%w: skybox: %d faces, want a cubemap", ErrDecode, b.Faces())
	}
	env, err := textureFromBundle(e, b, opts)
	if err != nil || env.IsZero() {
		return g3d.Skybox{}, err
	}
	sky, err := g3d.NewSkyboxBuilder().Environment(env).Build(e)
	if err != nil {
		_ = e.DestroyTexture(env)
		return g3d.Skybox{}, err
	}
	return sky, nil
}
