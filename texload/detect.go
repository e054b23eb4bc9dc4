// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texload

import (
	"fmt"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"github.com/h2non/filetype/types"

	"github.com/gogpu/g3d"
	"github.com/gogpu/g3d/internal/ktx"
)

// TypeKTX is the filetype registered for KTX 1.1 containers.
var TypeKTX = filetype.NewType("ktx", "image/ktx")

func init() {
	filetype.AddMatcher(TypeKTX, ktx.IsKTX)
}

// Detect returns the container type of data: TypeKTX,
// matchers.TypePng, matchers.TypeJpeg, or filetype.Unknown.
func Detect(data []byte) types.Type {
	t, err := filetype.Match(data)
	if err != nil {
		return filetype.Unknown
	}
	switch t {
	case TypeKTX, matchers.TypePng, matchers.TypeJpeg:
		return t
	}
	return filetype.Unknown
}

// Decode sniffs the payload and decodes it as PNG, JPEG or KTX.
func Decode(e *g3d.Engine, src g3d.Source, opts Options) (g3d.Texture, error) {
	data, err := e.ReadSource(src)
	if err != nil {
		return g3d.Texture{}, err
	}
	switch t := Detect(data); t {
	case TypeKTX:
		return DecodeKTX(e, g3d.Bytes(data), opts)
	case matchers.TypePng:
		return DecodePNG(e, g3d.Bytes(data), opts)
	case matchers.TypeJpeg:
		return DecodeJPEG(e, g3d.Bytes(data), opts)
	default:
		return g3d.Texture{}, fmt.Errorf("%w: unrecognized container", ErrDecode)
	}
}
