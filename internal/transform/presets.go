package transform

import (
	"errors"
	"fmt"

	"github.com/KSD554/imagekit/internal/model"
)

// ErrUnknownPreset is returned by Resolve for an id not in the catalog.
var ErrUnknownPreset = errors.New("unknown transformation preset")

// Directive codes understood by the CDN. Costs are in CDN extension units.
const (
	BackgroundRemoval        = "e-bgremove"    // 10 units
	BackgroundRemovalPremium = "e-removedotbg" // 130 units
	Retouch                  = "e-retouch"
	Upscale                  = "e-upscale"
	DropShadow               = "e-dropshadow"
	GenerateVariation        = "e-genvar"
	FaceFocus                = "fo-face"
	AutoFocus                = "fo-auto"
)

var presets = []model.TransformationOption{
	{
		ID:             "bg-removal",
		Name:           "Background removal",
		Description:    "Removes the background instantly with AI",
		Icon:           "eraser",
		Transformation: BackgroundRemoval,
		Cost:           10,
		Category:       "background",
	},
	{
		ID:             "bg-removal-premium",
		Name:           "Premium background removal",
		Description:    "Higher quality background removal",
		Icon:           "scissors",
		Transformation: BackgroundRemovalPremium,
		Cost:           130,
		Category:       "background",
	},
	{
		ID:             "bg-remove-shadow",
		Name:           "Background removal + drop shadow",
		Description:    "Removes the background and adds a realistic shadow",
		Icon:           "shadow",
		Transformation: BackgroundRemoval + chainSeparator + DropShadow,
		Cost:           11,
		Category:       "effects",
	},
	{
		ID:             "smart-crop",
		Name:           "Smart square crop",
		Description:    "Automatic 400x400 square crop",
		Icon:           "crop",
		Transformation: "w-400,h-400," + AutoFocus,
		Cost:           0,
		Category:       "smart",
	},
	{
		ID:             "face-crop",
		Name:           "Face square crop",
		Description:    "Crops around the face at 300x300",
		Icon:           "user",
		Transformation: "w-300,h-300," + FaceFocus,
		Cost:           0,
		Category:       "smart",
	},
	{
		ID:             "resize-optimize",
		Name:           "Optimize and resize",
		Description:    "Resizes to 800px wide with quality optimization",
		Icon:           "zoom-in",
		Transformation: "w-800,q-80,f-auto",
		Cost:           0,
		Category:       "optimize",
	},
	{
		ID:             "enhance-basic",
		Name:           "Enhance quality",
		Description:    "Basic image enhancement",
		Icon:           "sparkles",
		Transformation: "e-sharpen,e-contrast",
		Cost:           0,
		Category:       "enhance",
	},
	{
		ID:             "retouch",
		Name:           "AI retouch",
		Description:    "Improves overall image quality",
		Icon:           "wand",
		Transformation: Retouch,
		Cost:           5,
		Category:       "enhance",
	},
	{
		ID:             "upscale",
		Name:           "AI upscale",
		Description:    "Increases resolution",
		Icon:           "maximize",
		Transformation: Upscale,
		Cost:           5,
		Category:       "enhance",
	},
	{
		ID:             "variation",
		Name:           "Generate variation",
		Description:    "Generates a new variation of the image",
		Icon:           "shuffle",
		Transformation: GenerateVariation,
		Cost:           25,
		Category:       "effects",
	},
}

var demoImages = []model.DemoImage{
	{URL: "https://ik.imagekit.io/demo/img/image4.jpeg", Name: "Person with background"},
	{URL: "https://ik.imagekit.io/demo/img/image1.jpeg", Name: "Portrait"},
	{URL: "https://ik.imagekit.io/demo/medium_cafe_B1iTdD0C.jpg", Name: "Cafe scene"},
	{URL: "https://ik.imagekit.io/demo/img/image10.jpeg", Name: "Group photo"},
	{URL: "https://ik.imagekit.io/demo/img/image2.jpeg", Name: "Outdoor scene"},
}

// Options returns a copy of the preset catalog.
func Options() []model.TransformationOption {
	out := make([]model.TransformationOption, len(presets))
	copy(out, presets)
	return out
}

// DemoImages returns a copy of the demo image list.
func DemoImages() []model.DemoImage {
	out := make([]model.DemoImage, len(demoImages))
	copy(out, demoImages)
	return out
}

// Lookup finds a preset by id.
func Lookup(id string) (model.TransformationOption, bool) {
	for _, p := range presets {
		if p.ID == id {
			return p, true
		}
	}
	return model.TransformationOption{}, false
}

// Resolve maps preset ids to their directives, preserving order.
func Resolve(ids []string) ([]model.Directive, error) {
	out := make([]model.Directive, 0, len(ids))
	for _, id := range ids {
		p, ok := Lookup(id)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, id)
		}
		out = append(out, p.Transformation)
	}
	return out, nil
}

// Cost sums the extension units of the given presets. Unknown ids count 0.
func Cost(ids []string) int {
	total := 0
	for _, id := range ids {
		if p, ok := Lookup(id); ok {
			total += p.Cost
		}
	}
	return total
}
