package models

// HighlightTarget is a model-reported row position for one athlete entry.
// Percentages are measured from the page's top-left corner.
type HighlightTarget struct {
	AthleteName   string   `json:"name"`
	EventLabel    string   `json:"event"`
	Page          int      `json:"page"`
	YPercent      float64  `json:"yPercent"`
	XStartPercent *float64 `json:"xStartPercent,omitempty"`
	XEndPercent   *float64 `json:"xEndPercent,omitempty"`
	Found         bool     `json:"found"`
}

// Shape kinds produced by the highlight resolver.
const (
	ShapeRectangle = "rectangle"
	ShapeCircle    = "circle"
)

// RGB is a colour with components in the 0..1 range.
type RGB struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// DrawInstruction is one shape to render on a 1-indexed page, in the page's
// bottom-left origin coordinate space. Rectangles use X, Y, Width and Height;
// circles use X, Y as the centre and Radius.
type DrawInstruction struct {
	Page    int     `json:"page"`
	Shape   string  `json:"shape"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width,omitempty"`
	Height  float64 `json:"height,omitempty"`
	Radius  float64 `json:"radius,omitempty"`
	Color   RGB     `json:"color"`
	Opacity float64 `json:"opacity"`
}
