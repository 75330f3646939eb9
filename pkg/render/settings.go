package render

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Projection selects the projection matrix used by the renderer.
type Projection int

const (
	Perspective Projection = iota
	Orthographic
)

func (p Projection) String() string {
	switch p {
	case Perspective:
		return "perspective"
	case Orthographic:
		return "orthographic"
	}
	return fmt.Sprintf("Projection(%d)", int(p))
}

// UnmarshalYAML implements yaml.Unmarshaler for Projection.
func (p *Projection) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch s {
	case "perspective":
		*p = Perspective
	case "orthographic":
		*p = Orthographic
	default:
		return fmt.Errorf("invalid projection %q", s)
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler for Projection.
func (p Projection) MarshalYAML() (any, error) {
	return p.String(), nil
}

// FillRule decides which pixels on a shared triangle edge are covered.
type FillRule int

const (
	// FillStrict covers a pixel only when its center is strictly inside the
	// triangle; pixels exactly on an edge are left empty.
	FillStrict FillRule = iota
	// FillTopLeft also covers pixel centers on top and left edges, so a
	// pixel on an edge shared by two triangles is drawn exactly once.
	FillTopLeft
)

func (f FillRule) String() string {
	switch f {
	case FillStrict:
		return "strict"
	case FillTopLeft:
		return "top-left"
	}
	return fmt.Sprintf("FillRule(%d)", int(f))
}

// UnmarshalYAML implements yaml.Unmarshaler for FillRule.
func (f *FillRule) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch s {
	case "strict":
		*f = FillStrict
	case "top-left":
		*f = FillTopLeft
	default:
		return fmt.Errorf("invalid fill rule %q", s)
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler for FillRule.
func (f FillRule) MarshalYAML() (any, error) {
	return f.String(), nil
}

// Settings toggles pipeline stages.
type Settings struct {
	Projection        Projection `yaml:"projection"`
	Wireframe         bool       `yaml:"wireframe"`           // Draw triangle edges
	VertexColorInterp bool       `yaml:"vertex_color_interp"` // Fill with blended vertex colors
	FragmentShading   bool       `yaml:"fragment_shading"`    // Fill through the fragment shader
	ClipNearFar       bool       `yaml:"clip_near_far"`       // Clip triangles to the near and far planes
	CullBackFaces     bool       `yaml:"cull_back_faces"`
	FillRule          FillRule   `yaml:"fill_rule"`
	MeshCulling       bool       `yaml:"mesh_culling"` // Skip meshes outside the view volume
}

// DefaultSettings returns shaded perspective rendering with clipping and
// back-face culling enabled.
func DefaultSettings() Settings {
	return Settings{
		Projection:      Perspective,
		FragmentShading: true,
		ClipNearFar:     true,
		CullBackFaces:   true,
		FillRule:        FillStrict,
		MeshCulling:     true,
	}
}

// ParseSettings decodes YAML settings. Keys that are absent keep their
// DefaultSettings value.
func ParseSettings(data []byte) (Settings, error) {
	s := DefaultSettings()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parsing settings: %w", err)
	}
	return s, nil
}

// LoadSettings reads settings from a YAML file.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("reading settings: %w", err)
	}
	return ParseSettings(data)
}
