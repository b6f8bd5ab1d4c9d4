/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"

	xdraw "golang.org/x/image/draw"

	"kinboard/internal/domain"
	"kinboard/internal/geom"
)

// maxImageDim caps the larger side of a dropped image in canvas units.
// Oversized drops are downscaled proportionally before placement.
const maxImageDim = 400

// DropImage decodes a dropped raster, downscales it if either side exceeds
// maxImageDim and places an image shape centered at the drop position. The
// decode result is applied in one call so no partial state is observable.
// The possibly-downscaled pixels are returned for the host to persist as a
// workspace asset under the returned shape's Source name.
func (e *Engine) DropImage(name string, data []byte, screen geom.Pt) (*domain.Image, image.Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("decode dropped image %q: %w", name, err)
	}
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	if w <= 0 || h <= 0 {
		return nil, nil, fmt.Errorf("dropped image %q has empty bounds", name)
	}
	if w > maxImageDim || h > maxImageDim {
		scale := maxImageDim / w
		if h > w {
			scale = maxImageDim / h
		}
		dw, dh := int(w*scale+0.5), int(h*scale+0.5)
		dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
		xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
		img = dst
		w, h = float64(dw), float64(dh)
	}

	pt := e.vp.ToCanvas(screen)
	shape := &domain.Image{
		ID:     newID(),
		Rect:   geom.R(pt.X-w/2, pt.Y-h/2, w, h),
		Source: newID() + "." + format,
	}
	e.doc.Shapes = append(e.doc.Shapes, shape)
	e.selected = EntityRef{Kind: EntityShape, ID: shape.ID}
	e.hasSel = true
	e.log.Debug("image placed",
		slog.String("source", shape.Source),
		slog.Int("width", int(w)), slog.Int("height", int(h)))
	e.fireChange()
	return shape, img, nil
}
