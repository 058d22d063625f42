// Package screen houses observation provider implementations. The real
// capture surface (a driven browser tab, an OS screenshot primitive) is an
// external capability; this package contributes the degraded-mode placeholder
// used when no surface exists, and a wrapper persisting snapshots to the
// per-install directory.
package screen

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"

	"github.com/hupe1980/deskmesh/core"
)

// Placeholder dimensions mirror the original degraded-mode image.
const (
	placeholderWidth  = 800
	placeholderHeight = 600
)

// PlaceholderProvider synthesizes a neutral gray snapshot carrying no visual
// grounding. It never fails, making it the terminal fallback in the provider
// chain.
type PlaceholderProvider struct {
	png []byte // rendered once, reused every capture
}

// NewPlaceholderProvider returns a provider emitting a fixed placeholder image.
func NewPlaceholderProvider() (*PlaceholderProvider, error) {
	img := image.NewRGBA(image.Rect(0, 0, placeholderWidth, placeholderHeight))
	gray := color.RGBA{R: 0xd3, G: 0xd3, B: 0xd3, A: 0xff}
	for y := 0; y < placeholderHeight; y++ {
		for x := 0; x < placeholderWidth; x++ {
			img.Set(x, y, gray)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return &PlaceholderProvider{png: buf.Bytes()}, nil
}

// Capture implements core.ObservationProvider.
func (p *PlaceholderProvider) Capture(context.Context) (core.Observation, error) {
	return core.Observation{PNG: p.png, Placeholder: true}, nil
}

// FallbackProvider wraps a primary provider and substitutes a placeholder
// observation whenever capture is unavailable, keeping the loop alive in
// "no visual grounding" mode.
type FallbackProvider struct {
	primary     core.ObservationProvider
	placeholder *PlaceholderProvider
}

// NewFallbackProvider builds the provider chain. primary may be nil, in which
// case every capture degrades to the placeholder.
func NewFallbackProvider(primary core.ObservationProvider) (*FallbackProvider, error) {
	placeholder, err := NewPlaceholderProvider()
	if err != nil {
		return nil, err
	}
	return &FallbackProvider{primary: primary, placeholder: placeholder}, nil
}

// Capture implements core.ObservationProvider. Only ErrCaptureUnavailable
// triggers the fallback; other capture errors propagate.
func (p *FallbackProvider) Capture(ctx context.Context) (core.Observation, error) {
	if p.primary == nil {
		return p.placeholder.Capture(ctx)
	}
	obs, err := p.primary.Capture(ctx)
	if err != nil {
		if errors.Is(err, core.ErrCaptureUnavailable) {
			return p.placeholder.Capture(ctx)
		}
		return core.Observation{}, err
	}
	return obs, nil
}
