package seed

import (
	_ "embed"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed timezones.yaml
var zonesYAML []byte

// ZoneTable maps time zone names to fixed UTC offsets.
type ZoneTable struct {
	Default string            `yaml:"default" validate:"required,utcoffset"`
	Zones   map[string]string `yaml:"zones" validate:"required,dive,keys,required,endkeys,utcoffset"`
}

// Offset returns the offset for name, or the table default for unknown names.
func (t ZoneTable) Offset(name string) string {
	if off, ok := t.Zones[name]; ok {
		return off
	}
	return t.Default
}

// LoadZoneTable decodes and validates the embedded zone table.
func LoadZoneTable(v *validator.Validate) (ZoneTable, error) {
	return parseZoneTable(zonesYAML, v)
}

func parseZoneTable(data []byte, v *validator.Validate) (ZoneTable, error) {
	var t ZoneTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return ZoneTable{}, fmt.Errorf("seed.LoadZoneTable: %w", err)
	}
	if err := v.Struct(t); err != nil {
		return ZoneTable{}, fmt.Errorf("seed.LoadZoneTable: %w", err)
	}
	return t, nil
}
