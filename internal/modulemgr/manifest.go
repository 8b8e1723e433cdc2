package modulemgr

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/move-anything/hostrt/internal/pluginabi"
)

// Category is one of the fixed module sub-directories scanned under the
// modules root (spec.md §4.9).
type Category string

const (
	CategorySoundGenerators Category = "sound_generators"
	CategoryAudioFX         Category = "audio_fx"
	CategoryMIDIFX          Category = "midi_fx"
	CategoryUtilities       Category = "utilities"
	CategoryOther           Category = "other"
)

// Categories lists every fixed sub-directory the scanner walks, in scan
// order.
var Categories = []Category{
	CategorySoundGenerators,
	CategoryAudioFX,
	CategoryMIDIFX,
	CategoryUtilities,
	CategoryOther,
}

// ManifestFileName is the descriptor file name within a module directory
// (spec.md §6 "module manifest"), parsed with yaml.v3 per SPEC_FULL.md's
// domain-stack wiring of gopkg.in/yaml.v3.
const ManifestFileName = "module.yaml"

// manifestDoc is the on-disk shape of module.yaml.
type manifestDoc struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	Version    string `yaml:"version"`
	Category   string `yaml:"category"`
	UIScript   string `yaml:"ui_script"`
	DSPPath    string `yaml:"dsp_path"`
	APIVersion int    `yaml:"api_version"`
	Defaults   string `yaml:"defaults"`

	Capabilities struct {
		AudioOut         bool `yaml:"audio_out"`
		AudioIn          bool `yaml:"audio_in"`
		MIDIIn           bool `yaml:"midi_in"`
		MIDIOut          bool `yaml:"midi_out"`
		Aftertouch       bool `yaml:"aftertouch"`
		ClaimsMasterKnob bool `yaml:"claims_master_knob"`
		RawMIDI          bool `yaml:"raw_midi"`
		RawUI            bool `yaml:"raw_ui"`
	} `yaml:"capabilities"`
}

// Info is the parsed, in-memory module descriptor (spec.md §4.9
// module_info_t).
type Info struct {
	ID         string
	Name       string
	Version    string
	Category   Category
	ModuleDir  string
	UIScript   string
	DSPPath    string
	APIVersion int
	Defaults   string

	Capabilities pluginabi.Capabilities
}

// parseManifest loads and validates module.yaml at dir/module.yaml. A
// missing or malformed manifest is a ManifestParse error (spec.md §7):
// the caller skips the module and continues scanning.
func parseManifest(dir string, category Category) (Info, error) {
	path := dir + string(os.PathSeparator) + ManifestFileName
	raw, err := os.ReadFile(path)
	if err != nil {
		return Info{}, err
	}
	var doc manifestDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Info{}, err
	}
	if doc.ID == "" {
		return Info{}, errManifestMissingID
	}

	info := Info{
		ID:         doc.ID,
		Name:       doc.Name,
		Version:    doc.Version,
		Category:   category,
		ModuleDir:  dir,
		UIScript:   doc.UIScript,
		DSPPath:    doc.DSPPath,
		APIVersion: doc.APIVersion,
		Defaults:   doc.Defaults,
		Capabilities: pluginabi.Capabilities{
			AudioOut:         doc.Capabilities.AudioOut,
			AudioIn:          doc.Capabilities.AudioIn,
			MIDIIn:           doc.Capabilities.MIDIIn,
			MIDIOut:          doc.Capabilities.MIDIOut,
			Aftertouch:       doc.Capabilities.Aftertouch,
			ClaimsMasterKnob: doc.Capabilities.ClaimsMasterKnob,
			RawMIDI:          doc.Capabilities.RawMIDI,
			RawUI:            doc.Capabilities.RawUI,
		},
	}
	return info, nil
}

type manifestError string

func (e manifestError) Error() string { return string(e) }

const errManifestMissingID = manifestError("module.yaml missing required id field")
