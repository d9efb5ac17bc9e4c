package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/bft-labs/icmprog/internal/domain"
)

// Operator-facing load failure messages.
const (
	MsgOpen             = "Failed to open the configuration file."
	MsgFormat           = "The configuration file was not a valid document."
	MsgMissingKey       = "The configuration file is missing a required key."
	MsgMissingParameter = "One or more of the models is missing a required parameter."
	MsgRange            = "One or more of the parameters is outside the supported range."
	MsgProbeType        = "One or more of the models has an unknown probe type."
	MsgDuplicate        = "The configuration file lists a model more than once."
)

// LoadError rejects a whole catalog file. Message is shown to the operator;
// Err carries the underlying cause.
type LoadError struct {
	Path    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("catalog %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("catalog %s: %s: %v", e.Path, e.Message, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// document mirrors the catalog file. Pointers distinguish absent keys from
// zero values.
type document struct {
	OutputDirectory *string  `json:"OutputDirectory" yaml:"OutputDirectory" toml:"OutputDirectory"`
	CheckBarcode    *bool    `json:"CheckBarcode" yaml:"CheckBarcode" toml:"CheckBarcode"`
	Models          *[]model `json:"Models" yaml:"Models" toml:"Models"`
}

type model struct {
	Model                *string `json:"Model" yaml:"Model" toml:"Model"`
	ProbeType            *string `json:"ProbeType" yaml:"ProbeType" toml:"ProbeType"`
	SetPoint             *int    `json:"SetPoint" yaml:"SetPoint" toml:"SetPoint"`
	HardStart            *int    `json:"HardStart" yaml:"HardStart" toml:"HardStart"`
	MinimumOutputVoltage *int    `json:"MinimumOutputVoltage" yaml:"MinimumOutputVoltage" toml:"MinimumOutputVoltage"`
}

// Load reads a catalog file. The decoder is chosen by extension: .json,
// .yaml/.yml or .toml. Any invalid entry rejects the whole file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: MsgOpen, Err: err}
	}
	return Parse(path, data)
}

// Parse decodes catalog content; path selects the format and labels errors.
func Parse(path string, data []byte) (*Catalog, error) {
	var doc document
	if err := decode(path, data, &doc); err != nil {
		return nil, &LoadError{Path: path, Message: MsgFormat, Err: err}
	}

	if doc.OutputDirectory == nil || doc.Models == nil {
		return nil, &LoadError{Path: path, Message: MsgMissingKey}
	}

	profiles := make([]domain.Profile, 0, len(*doc.Models))
	for i, m := range *doc.Models {
		p, msg, err := m.profile()
		if msg != "" {
			return nil, &LoadError{Path: path, Message: msg, Err: fmt.Errorf("model %d: %w", i, err)}
		}
		profiles = append(profiles, p)
	}

	check := false
	if doc.CheckBarcode != nil {
		check = *doc.CheckBarcode
	}

	c, err := New(*doc.OutputDirectory, check, profiles)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return nil, &LoadError{Path: path, Message: MsgRange, Err: err}
		}
		return nil, &LoadError{Path: path, Message: MsgDuplicate, Err: err}
	}
	c.Path = path
	return c, nil
}

func (m model) profile() (domain.Profile, string, error) {
	if m.Model == nil || m.ProbeType == nil || m.SetPoint == nil || m.HardStart == nil || m.MinimumOutputVoltage == nil {
		return domain.Profile{}, MsgMissingParameter, errors.New("missing parameter")
	}
	probe, err := domain.ParseProbeKind(*m.ProbeType)
	if err != nil {
		return domain.Profile{}, MsgProbeType, err
	}
	return domain.Profile{
		Model:         strings.TrimSpace(*m.Model),
		Probe:         probe,
		SetPoint:      *m.SetPoint,
		HardStart:     *m.HardStart,
		MinimumOutput: *m.MinimumOutputVoltage,
	}, "", nil
}

func decode(path string, data []byte, doc *document) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		return dec.Decode(doc)
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, doc)
	case ".toml":
		return toml.Unmarshal(data, doc)
	default:
		return fmt.Errorf("unsupported catalog extension %q", filepath.Ext(path))
	}
}
