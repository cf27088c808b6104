// Package config loads chart configuration files.
//
// A configuration is YAML, decoded strictly (unknown fields are errors)
// and validated with go-playground/validator struct tags. Build turns a
// valid configuration into a chart with its registries, default styles
// and view settings in place.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config describes a chart.
type Config struct {
	// Name is the chart name; snapshots are saved under it.
	Name string `yaml:"name" validate:"required"`

	// NumGradings is the length of class degrees. Default 2.
	NumGradings int `yaml:"num_gradings" validate:"omitempty,gte=2"`

	XProjection []int64 `yaml:"x_projection" validate:"omitempty,min=2"`
	YProjection []int64 `yaml:"y_projection" validate:"omitempty,min=2"`

	XRange        []int64 `yaml:"x_range" validate:"omitempty,len=2"`
	YRange        []int64 `yaml:"y_range" validate:"omitempty,len=2"`
	InitialXRange []int64 `yaml:"initial_x_range" validate:"omitempty,len=2"`
	InitialYRange []int64 `yaml:"initial_y_range" validate:"omitempty,len=2"`

	// PageList replaces the default display pages when present.
	PageList []PagePair `yaml:"page_list"`

	// Colors and Shapes are registered under their keys.
	Colors map[string]string      `yaml:"colors" validate:"omitempty,dive,keys,required,endkeys,colorspec"`
	Shapes map[string]ShapeConfig `yaml:"shapes" validate:"omitempty,dive,keys,required,endkeys"`

	ClassStyles []ClassStyleConfig `yaml:"class_styles" validate:"omitempty,dive"`
	EdgeStyles  []EdgeStyleConfig  `yaml:"edge_styles" validate:"omitempty,dive"`

	// Defaults names registered styles to use for new entities.
	Defaults DefaultsConfig `yaml:"defaults"`
}

// PagePair is a display page written as [page, max_len].
type PagePair []PageValue

// ShapeConfig describes a registered shape.
type ShapeConfig struct {
	Kind string `yaml:"kind" validate:"required,oneof=empty character circle square"`

	// Size is the padding of circle and square shapes.
	Size float64 `yaml:"size" validate:"gte=0"`

	// Char and Font apply to character shapes.
	Char string `yaml:"char" validate:"required_if=Kind character"`
	Font string `yaml:"font"`

	// Circles draws extra concentric circles around circle shapes.
	Circles int64   `yaml:"circles" validate:"omitempty,gte=1"`
	Gap     float64 `yaml:"gap" validate:"gte=0"`
}

// ClassStyleConfig describes a registered class style. Colors and shapes
// are names: registered ones, CSS colors or hex colors.
type ClassStyleConfig struct {
	GroupName       string  `yaml:"group_name" validate:"required"`
	Shape           string  `yaml:"shape" validate:"required"`
	BackgroundColor string  `yaml:"background_color" validate:"required,colorspec"`
	BorderColor     string  `yaml:"border_color" validate:"required,colorspec"`
	ForegroundColor string  `yaml:"foreground_color" validate:"required,colorspec"`
	BorderWidth     float64 `yaml:"border_width" validate:"gte=0"`
}

// EdgeStyleConfig describes a registered edge style.
type EdgeStyleConfig struct {
	Action      string  `yaml:"action" validate:"required"`
	Color       string  `yaml:"color" validate:"required,colorspec"`
	DashPattern []int64 `yaml:"dash_pattern" validate:"omitempty,dive,gte=0"`
	LineWidth   float64 `yaml:"line_width" validate:"gte=0"`
	StartTip    string  `yaml:"start_tip" validate:"omitempty,oneof=standard"`
	EndTip      string  `yaml:"end_tip" validate:"omitempty,oneof=standard"`
}

// DefaultsConfig names the registered styles applied to new entities.
type DefaultsConfig struct {
	ClassStyle        string `yaml:"class_style"`
	StructlineStyle   string `yaml:"structline_style"`
	DifferentialStyle string `yaml:"differential_style"`
	ExtensionStyle    string `yaml:"extension_style"`
}

// colorSpec accepts hex colors and names (registered or CSS).
var colorSpec = regexp.MustCompile(`^(#[0-9a-fA-F]{6}([0-9a-fA-F]{2})?|[A-Za-z][A-Za-z0-9_-]*)$`)

// configValidate is the validator instance for configurations.
var configValidate *validator.Validate

func init() {
	configValidate = validator.New()
	configValidate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := configValidate.RegisterValidation("colorspec", validateColorSpec); err != nil {
		panic(fmt.Sprintf("register colorspec validator: %v", err))
	}
}

func validateColorSpec(fl validator.FieldLevel) bool {
	return colorSpec.MatchString(fl.Field().String())
}

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a YAML configuration.
// Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate checks struct tags and the rules tags cannot express.
func (c *Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return describe(err)
	}

	n := c.NumGradings
	if n == 0 {
		n = 2
	}
	var errs []error
	if c.XProjection != nil && len(c.XProjection) != n {
		errs = append(errs, fmt.Errorf("x_projection has %d entries, num_gradings is %d", len(c.XProjection), n))
	}
	if c.YProjection != nil && len(c.YProjection) != n {
		errs = append(errs, fmt.Errorf("y_projection has %d entries, num_gradings is %d", len(c.YProjection), n))
	}
	for i, pair := range c.PageList {
		if len(pair) != 2 {
			errs = append(errs, fmt.Errorf("page_list[%d]: expected [page, max_len], got %d entries", i, len(pair)))
		}
	}

	classStyles := map[string]bool{}
	for _, s := range c.ClassStyles {
		if classStyles[s.GroupName] {
			errs = append(errs, fmt.Errorf("class style %q defined twice", s.GroupName))
		}
		classStyles[s.GroupName] = true
	}
	edgeStyles := map[string]bool{}
	for _, s := range c.EdgeStyles {
		if edgeStyles[s.Action] {
			errs = append(errs, fmt.Errorf("edge style %q defined twice", s.Action))
		}
		edgeStyles[s.Action] = true
	}

	if d := c.Defaults.ClassStyle; d != "" && !classStyles[d] {
		errs = append(errs, fmt.Errorf("defaults.class_style: no class style named %q", d))
	}
	for field, name := range map[string]string{
		"structline_style":   c.Defaults.StructlineStyle,
		"differential_style": c.Defaults.DifferentialStyle,
		"extension_style":    c.Defaults.ExtensionStyle,
	} {
		if name != "" && !edgeStyles[name] {
			errs = append(errs, fmt.Errorf("defaults.%s: no edge style named %q", field, name))
		}
	}
	return errors.Join(errs...)
}

// describe turns validator errors into one error per failing field.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	errs := make([]error, len(verrs))
	for i, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			errs[i] = fmt.Errorf("%s: failed %s=%s (value %v)", field, fe.Tag(), fe.Param(), fe.Value())
		} else {
			errs[i] = fmt.Errorf("%s: failed %s (value %v)", field, fe.Tag(), fe.Value())
		}
	}
	return errors.Join(errs...)
}
