package export

import "math"

const mmPerInch = 25.4

// PageSize is a paper size in millimetres.
type PageSize struct {
	WidthMM  float64
	HeightMM float64
}

var A4 = PageSize{WidthMM: 210, HeightMM: 297}

func (p PageSize) WidthIn() float64  { return p.WidthMM / mmPerInch }
func (p PageSize) HeightIn() float64 { return p.HeightMM / mmPerInch }

// Placement is where an image lands on a page, in millimetres.
type Placement struct {
	X, Y          float64
	Width, Height float64
}

// FitContain scales an image of imgW x imgH pixels to fit inside the page
// minus margin on every side, keeping its aspect ratio, and centres it.
func FitContain(p PageSize, marginMM, imgW, imgH float64) Placement {
	if imgW <= 0 || imgH <= 0 {
		return Placement{}
	}
	availW := math.Max(p.WidthMM-2*marginMM, 0)
	availH := math.Max(p.HeightMM-2*marginMM, 0)

	ratio := math.Min(availW/imgW, availH/imgH)
	w := imgW * ratio
	h := imgH * ratio
	return Placement{
		X:      (p.WidthMM - w) / 2,
		Y:      (p.HeightMM - h) / 2,
		Width:  w,
		Height: h,
	}
}
