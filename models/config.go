package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Authentication configures access to a secured Volcano server
type Authentication struct {
	Required         bool   `json:"required" yaml:"required"`
	PublicPrediction bool   `json:"publicPrediction,omitempty" yaml:"publicPrediction,omitempty"`
	URL              string `json:"url,omitempty" yaml:"url,omitempty"`
	ClientID         string `json:"clientId,omitempty" yaml:"clientId,omitempty"`
	ClientSecret     string `json:"clientSecret,omitempty" yaml:"clientSecret,omitempty"`
	Username         string `json:"username,omitempty" yaml:"username,omitempty"`
	Password         string `json:"password,omitempty" yaml:"password,omitempty"`
}

// MapData declares a server-side map dataset used by propagation models
type MapData struct {
	UUID     string   `json:"uuid,omitempty" yaml:"uuid,omitempty"`
	Name     string   `json:"name" yaml:"name"`
	EPSGSrid int      `json:"epsgSrid" yaml:"epsgSrid"`
	Layers   []string `json:"layers" yaml:"layers"`
}

// Antenna declares an antenna pattern file to upload
type Antenna struct {
	UUID        string `json:"uuid,omitempty" yaml:"uuid,omitempty"`
	Name        string `json:"name" yaml:"name"`
	AntennaFile string `json:"antennaFile" yaml:"antennaFile"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// GobBeam references one antenna used as a beam of a gob
type GobBeam struct {
	Name string `json:"name" yaml:"name"`
	UUID string `json:"uuid,omitempty" yaml:"uuid,omitempty"`
}

// Gob declares a group-of-beams antenna for 5G computations
type Gob struct {
	UUID  string    `json:"uuid,omitempty" yaml:"uuid,omitempty"`
	Name  string    `json:"name" yaml:"name"`
	Beams []GobBeam `json:"beams" yaml:"beams"`
}

// Session groups the resources of one calculation run
type Session struct {
	UUID        string `json:"uuid,omitempty" yaml:"uuid,omitempty"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// PropagationModel declares a propagation model, either as a typed
// definition or as a vxf file upload. Model-specific tuning fields are
// kept in Tuning and inlined at the top level on the wire.
type PropagationModel struct {
	UUID        string
	Name        string
	MapDataName string
	MapDataUUID string
	SessionUUID string
	VxfFilePath string
	Type        string
	Tuning      map[string]any
}

// MarshalJSON inlines the tuning fields next to the declared ones
func (m *PropagationModel) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Tuning)+7)
	for k, v := range m.Tuning {
		out[k] = v
	}
	out["name"] = m.Name
	set := func(key, value string) {
		if value != "" {
			out[key] = value
		}
	}
	set("uuid", m.UUID)
	set("mapdataName", m.MapDataName)
	set("mapdataUuid", m.MapDataUUID)
	set("sessionUuid", m.SessionUUID)
	set("vxfFilePath", m.VxfFilePath)
	set("type", m.Type)
	return json.Marshal(out)
}

// UnmarshalJSON splits the declared fields from the tuning fields
func (m *PropagationModel) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	take := func(key string, dst *string) error {
		v, ok := raw[key]
		if !ok {
			return nil
		}
		delete(raw, key)
		if err := json.Unmarshal(v, dst); err != nil {
			return fmt.Errorf("model field %s: %w", key, err)
		}
		return nil
	}

	for key, dst := range map[string]*string{
		"uuid":        &m.UUID,
		"name":        &m.Name,
		"mapdataName": &m.MapDataName,
		"mapdataUuid": &m.MapDataUUID,
		"sessionUuid": &m.SessionUUID,
		"vxfFilePath": &m.VxfFilePath,
		"type":        &m.Type,
	} {
		if err := take(key, dst); err != nil {
			return err
		}
	}

	if len(raw) > 0 {
		m.Tuning = make(map[string]any, len(raw))
		for k, v := range raw {
			var val any
			if err := json.Unmarshal(v, &val); err != nil {
				return fmt.Errorf("model field %s: %w", k, err)
			}
			m.Tuning[k] = val
		}
	}
	return nil
}

// PredictionSettings configures the propagation predictions of a run
type PredictionSettings struct {
	NetworkFile              string    `json:"networkFile" yaml:"networkFile"`
	ReceptionHeights         []float64 `json:"receptionHeights" yaml:"receptionHeights"`
	PredictionResultType     []string  `json:"predictionResultType" yaml:"predictionResultType"`
	ReceptionHeightReference string    `json:"receptionHeightReference,omitempty" yaml:"receptionHeightReference,omitempty"`
	Type                     string    `json:"type,omitempty" yaml:"type,omitempty"`
	Isotropic                *bool     `json:"isotropic,omitempty" yaml:"isotropic,omitempty"`
	Force                    *bool     `json:"force,omitempty" yaml:"force,omitempty"`
	Priority                 *int      `json:"priority,omitempty" yaml:"priority,omitempty"`
	ShiftGridCenter          bool      `json:"shiftGridCenter,omitempty" yaml:"shiftGridCenter,omitempty"`
	DeleteScenariiDir        bool      `json:"deleteScenariiDir,omitempty" yaml:"deleteScenariiDir,omitempty"`
}

// NetworkSettings configures the post-processing computation applied on
// top of the propagation results
type NetworkSettings struct {
	ComputationType       string         `json:"computationType" yaml:"computationType"`
	Resolution            float64        `json:"resolution" yaml:"resolution"`
	ComputationResultType []string       `json:"computationResultType" yaml:"computationResultType"`
	DynamicParameters     map[string]any `json:"dynamicParameters,omitempty" yaml:"dynamicParameters,omitempty"`
	RepeaterSeparated     *bool          `json:"repeaterSeparated,omitempty" yaml:"repeaterSeparated,omitempty"`
	ComputationZone       map[string]any `json:"computationZone,omitempty" yaml:"computationZone,omitempty"`
}

// InputConfig is the root input configuration of one simulation run
type InputConfig struct {
	ServerURL          string              `json:"serverUrl" yaml:"serverUrl"`
	Authentication     *Authentication     `json:"authentication,omitempty" yaml:"authentication,omitempty"`
	MapData            []*MapData          `json:"mapdata,omitempty" yaml:"mapdata,omitempty"`
	Antennas           []*Antenna          `json:"antennas,omitempty" yaml:"antennas,omitempty"`
	Gobs               []*Gob              `json:"gob,omitempty" yaml:"gob,omitempty"`
	Session            *Session            `json:"session" yaml:"session"`
	Models             []*PropagationModel `json:"models" yaml:"models"`
	PredictionSettings *PredictionSettings `json:"predictionSettings" yaml:"predictionSettings"`
	Network            *NetworkSettings    `json:"network,omitempty" yaml:"network,omitempty"`
	OutputPath         string              `json:"outputPath" yaml:"outputPath"`
}

// Computation types with dedicated SINR handling
const (
	Computation4G = "4G"
	Computation5G = "5G"
)

// Prediction types
const (
	PredictionArea  = "AREA"
	PredictionPoint = "POINT"
)

// ComputationType returns the post-processing computation type, empty
// when no network section is configured
func (c *InputConfig) ComputationType() string {
	if c.Network == nil {
		return ""
	}
	return c.Network.ComputationType
}

// PredictionType returns the prediction type, AREA by default
func (c *InputConfig) PredictionType() string {
	if c.PredictionSettings == nil || c.PredictionSettings.Type == "" {
		return PredictionArea
	}
	return c.PredictionSettings.Type
}

// FilterShape returns the computation zone shapefile archive path,
// empty when none is configured
func (c *InputConfig) FilterShape() string {
	if c.Network == nil || c.Network.ComputationZone == nil {
		return ""
	}
	shape, _ := c.Network.ComputationZone["filterShape"].(string)
	return shape
}

// AuthRequired reports whether the server requires authentication
func (c *InputConfig) AuthRequired() bool {
	return c.Authentication != nil && c.Authentication.Required
}

// LoadInputConfig reads, schema-validates and parses an input
// configuration file. YAML files are accepted next to JSON.
func LoadInputConfig(path string) (*InputConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input configuration: %w", err)
	}

	jsonData := data
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
		jsonData, err = yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := ValidateInputSchema(jsonData); err != nil {
		return nil, err
	}

	var cfg InputConfig
	if err := json.Unmarshal(jsonData, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}
