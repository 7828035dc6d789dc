package render

import "context"

// Format selects the screenshot encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

// Style defaults and clamp bounds for caller-supplied parameters.
const (
	DefaultLineWidth = 2.0
	MinLineWidth     = 1.0
	MaxLineWidth     = 50.0

	DefaultNodeSize = 40.0
	DefaultFontSize = 14.0
	DefaultOpacity  = 0.9
)

// Style carries the presentation knobs of a render request. Out-of-range
// values are clamped rather than rejected so a sloppy query string still
// produces an image.
type Style struct {
	LineWidth float64
	NodeSize  float64
	FontSize  float64
	Opacity   float64
	Format    Format
}

// DefaultStyle returns a Style with every knob at its default.
func DefaultStyle() Style {
	return Style{
		LineWidth: DefaultLineWidth,
		NodeSize:  DefaultNodeSize,
		FontSize:  DefaultFontSize,
		Opacity:   DefaultOpacity,
		Format:    FormatPNG,
	}
}

// Normalize clamps every field into its legal range and fills zero values
// with defaults.
func (s Style) Normalize() Style {
	if s.LineWidth == 0 {
		s.LineWidth = DefaultLineWidth
	}
	if s.LineWidth < MinLineWidth {
		s.LineWidth = MinLineWidth
	}
	if s.LineWidth > MaxLineWidth {
		s.LineWidth = MaxLineWidth
	}

	if s.NodeSize <= 0 {
		s.NodeSize = DefaultNodeSize
	}
	if s.FontSize <= 0 {
		s.FontSize = DefaultFontSize
	}

	if s.Opacity <= 0 || s.Opacity > 1 {
		s.Opacity = DefaultOpacity
	}

	if s.Format != FormatJPEG {
		s.Format = FormatPNG
	}

	return s
}

// Node is a render-input node.
type Node struct {
	ID    int64
	Label string
}

// Edge is a render-input edge between two node IDs.
type Edge struct {
	From   int64
	To     int64
	Source string
}

// Renderer turns a graph snapshot into encoded image bytes.
type Renderer interface {
	Render(ctx context.Context, nodes []Node, edges []Edge, style Style) ([]byte, error)
}
