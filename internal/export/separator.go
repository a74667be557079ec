package export

import (
	"errors"
	"fmt"
)

// ErrUnknownPreset is returned when selecting a preset that does not exist
var ErrUnknownPreset = errors.New("unknown separator preset")

// Preset is a named separator the user can pick.
type Preset struct {
	Name  string
	Value string
}

// Field separators go between the two texts of one record. The tab preset
// is four spaces, matching what the export dialog always produced.
var FieldPresets = []Preset{
	{Name: "comma", Value: ","},
	{Name: "semicolon", Value: ";"},
	{Name: "tab", Value: "    "},
}

// Record separators go after every record.
var RecordPresets = []Preset{
	{Name: "newline", Value: "\n"},
	{Name: "semicolon", Value: ";"},
}

// CustomName selects the free-text separator on either axis
const CustomName = "custom"

// Choice is either a preset or the custom separator. It never holds the
// custom marker as a literal value.
type Choice struct {
	custom bool
	preset Preset
}

// PresetChoice selects p
func PresetChoice(p Preset) Choice {
	return Choice{preset: p}
}

// CustomChoice selects the axis' custom text
func CustomChoice() Choice {
	return Choice{custom: true}
}

// IsCustom reports whether the custom text is selected
func (c Choice) IsCustom() bool {
	return c.custom
}

// Name returns the preset name or "custom"
func (c Choice) Name() string {
	if c.custom {
		return CustomName
	}
	return c.preset.Name
}

// Axis is the selection state for one separator.
type Axis struct {
	presets []Preset
	choice  Choice
	custom  string
}

func newAxis(presets []Preset) Axis {
	return Axis{presets: presets, choice: PresetChoice(presets[0])}
}

// Select picks a preset by name, or the custom separator for "custom".
// The selection is unchanged when the name is unknown.
func (a *Axis) Select(name string) error {
	if name == CustomName {
		a.choice = CustomChoice()
		return nil
	}
	for _, p := range a.presets {
		if p.Name == name {
			a.choice = PresetChoice(p)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownPreset, name)
}

// SetCustom stores the free text. It is kept while other presets are
// selected. Any string is accepted, including the empty one.
func (a *Axis) SetCustom(text string) {
	a.custom = text
}

// Choice returns the current selection
func (a *Axis) Choice() Choice {
	return a.choice
}

// Resolve returns the literal separator to insert.
func (a *Axis) Resolve() string {
	if a.choice.custom {
		return a.custom
	}
	return a.choice.preset.Value
}

// Config holds the separator choices of one export dialog. A new Config
// starts from the first preset of each axis.
type Config struct {
	Field  Axis
	Record Axis
}

// NewConfig creates a configuration with default separators
func NewConfig() *Config {
	return &Config{
		Field:  newAxis(FieldPresets),
		Record: newAxis(RecordPresets),
	}
}

// ResolveFieldSeparator returns the literal field separator
func (c *Config) ResolveFieldSeparator() string {
	return c.Field.Resolve()
}

// ResolveRecordSeparator returns the literal record separator
func (c *Config) ResolveRecordSeparator() string {
	return c.Record.Resolve()
}
