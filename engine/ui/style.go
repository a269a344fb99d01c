package ui

import "github.com/spaghettifunk/cumulus/engine/math"

type Style struct {
	Text               math.Color
	Window             math.Color
	Header             math.Color
	Border             math.Color
	Button             math.Color
	ButtonHover        math.Color
	ButtonActive       math.Color
	Toggle             math.Color
	ToggleHover        math.Color
	ToggleCursor       math.Color
	Slider             math.Color
	SliderCursor       math.Color
	SliderCursorHover  math.Color
	SliderCursorActive math.Color
	Property           math.Color
	Progress           math.Color
	ProgressCursor     math.Color

	Padding      math.Vec2
	Spacing      math.Vec2
	Rounding     float32
	BorderWidth  float32
	HeaderHeight float32
}

// DefaultStyle is a dark grey theme.
func DefaultStyle() Style {
	return Style{
		Text:               math.NewColor(175, 175, 175, 255),
		Window:             math.NewColor(45, 45, 45, 255),
		Header:             math.NewColor(40, 40, 40, 255),
		Border:             math.NewColor(65, 65, 65, 255),
		Button:             math.NewColor(50, 50, 50, 255),
		ButtonHover:        math.NewColor(40, 40, 40, 255),
		ButtonActive:       math.NewColor(35, 35, 35, 255),
		Toggle:             math.NewColor(100, 100, 100, 255),
		ToggleHover:        math.NewColor(120, 120, 120, 255),
		ToggleCursor:       math.NewColor(45, 45, 45, 255),
		Slider:             math.NewColor(38, 38, 38, 255),
		SliderCursor:       math.NewColor(100, 100, 100, 255),
		SliderCursorHover:  math.NewColor(120, 120, 120, 255),
		SliderCursorActive: math.NewColor(150, 150, 150, 255),
		Property:           math.NewColor(38, 38, 38, 255),
		Progress:           math.NewColor(38, 38, 38, 255),
		ProgressCursor:     math.NewColor(100, 100, 100, 255),
		Padding:            math.NewVec2(4, 4),
		Spacing:            math.NewVec2(4, 4),
		Rounding:           4,
		BorderWidth:        1,
		HeaderHeight:       22,
	}
}
