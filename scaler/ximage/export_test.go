package ximage

import gtfont "github.com/go-text/typesetting/font"

func gtAspect(style uint8, weight, stretch float32) gtfont.Aspect {
	return gtfont.Aspect{Style: gtfont.Style(style), Weight: gtfont.Weight(weight), Stretch: gtfont.Stretch(stretch)}
}
