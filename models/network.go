package models

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Network file column names. Transmitter coordinates come either as a
// projected easting/northing pair or as a geographic
// longitude/latitude pair, never both.
const (
	FieldTransmitterID        = "transmitter id"
	FieldTransmitterName      = "transmitter name"
	FieldTransmitterEasting   = "transmitter easting"
	FieldTransmitterNorthing  = "transmitter northing"
	FieldTransmitterLongitude = "transmitter longitude"
	FieldTransmitterLatitude  = "transmitter latitude"
	FieldTransmitterHeight    = "transmitter height"
	FieldPropagationModel     = "propagation model"
	FieldFrequency            = "frequency"

	FieldAzimuth                      = "azimuth"
	FieldDowntilt                     = "downtilt"
	FieldAdditionalElectricalDowntilt = "additional electrical downtilt"
	FieldAntenna                      = "antenna"
	FieldEmittingPower                = "emitting power"
	FieldComments                     = "comments"
	FieldTerrainAltitude              = "terrain altitude"
	FieldCalculationRadius            = "calculation radius"
	FieldCalculationResolution        = "calculation resolution"

	FieldEPREOffsetSSVsRS               = "epre offset ss vs rs"
	FieldEPREOffsetPBCHVsRS             = "epre offset pbch vs rs"
	FieldEPREOffsetPDCCHVsRS            = "epre offset pdcch vs rs"
	FieldEPREOffsetPDSCHVsRS            = "epre offset pdsch vs rs"
	FieldNbAntennaPorts                 = "number antenna ports"
	FieldMultiAntennaInterferenceFactor = "multi antenna interference factor"
	FieldDonorLoss                      = "donor loss"
	FieldTechno                         = "techno"
	FieldTrafficLoad                    = "trafficload"
	FieldAntennaCSI                     = "antenna CSI"
	FieldAntennaSSB                     = "antenna SSB"

	FieldReceiverName      = "receiver name"
	FieldReceiverEasting   = "receiver easting"
	FieldReceiverNorthing  = "receiver northing"
	FieldReceiverLongitude = "receiver longitude"
	FieldReceiverLatitude  = "receiver latitude"
	FieldReceiverHeight    = "receiver height"
	FieldReceiverAzimuth   = "receiver azimuth"
	FieldReceiverDowntilt  = "receiver downtilt"
	FieldReceiverAntenna   = "receiver antenna"
)

var mandatoryNetworkFields = []string{
	FieldTransmitterID,
	FieldTransmitterName,
	FieldTransmitterHeight,
	FieldPropagationModel,
	FieldFrequency,
}

var knownNetworkFields = map[string]bool{
	FieldTransmitterID:                  true,
	FieldTransmitterName:                true,
	FieldTransmitterEasting:             true,
	FieldTransmitterNorthing:            true,
	FieldTransmitterLongitude:           true,
	FieldTransmitterLatitude:            true,
	FieldTransmitterHeight:              true,
	FieldPropagationModel:               true,
	FieldFrequency:                      true,
	FieldAzimuth:                        true,
	FieldDowntilt:                       true,
	FieldAdditionalElectricalDowntilt:   true,
	FieldAntenna:                        true,
	FieldEmittingPower:                  true,
	FieldComments:                       true,
	FieldTerrainAltitude:                true,
	FieldCalculationRadius:              true,
	FieldCalculationResolution:          true,
	FieldEPREOffsetSSVsRS:               true,
	FieldEPREOffsetPBCHVsRS:             true,
	FieldEPREOffsetPDCCHVsRS:            true,
	FieldEPREOffsetPDSCHVsRS:            true,
	FieldNbAntennaPorts:                 true,
	FieldMultiAntennaInterferenceFactor: true,
	FieldDonorLoss:                      true,
	FieldTechno:                         true,
	FieldTrafficLoad:                    true,
	FieldAntennaCSI:                     true,
	FieldAntennaSSB:                     true,
	FieldReceiverName:                   true,
	FieldReceiverEasting:                true,
	FieldReceiverNorthing:               true,
	FieldReceiverLongitude:              true,
	FieldReceiverLatitude:               true,
	FieldReceiverHeight:                 true,
	FieldReceiverAzimuth:                true,
	FieldReceiverDowntilt:               true,
	FieldReceiverAntenna:                true,
}

// Transmitter is one parsed row of the network file. Optional numeric
// columns are pointers, nil when the cell is absent or empty. Columns
// forwarded verbatim to the server stay strings, empty when absent.
type Transmitter struct {
	// Row is the 1-based data row, used in error reports
	Row int

	ID        string
	Name      string
	X         float64
	Y         float64
	Height    float64
	Model     string
	Frequency float64

	Azimuth                      float64
	Downtilt                     float64
	AdditionalElectricalDowntilt *float64
	Antenna                      string
	Power                        float64
	Comments                     string
	TerrainAltitude              *float64
	Radius                       *float64
	Resolution                   *float64

	EPREOffsetSSVsRS               string
	EPREOffsetPBCHVsRS             string
	EPREOffsetPDCCHVsRS            string
	EPREOffsetPDSCHVsRS            string
	NbAntennaPorts                 string
	MultiAntennaInterferenceFactor string
	DonorLoss                      string
	Techno                         string
	TrafficLoad                    string
	AntennaCSI                     string
	AntennaSSB                     string

	ReceiverName     string
	ReceiverX        *float64
	ReceiverY        *float64
	ReceiverHeight   *float64
	ReceiverAzimuth  float64
	ReceiverDowntilt float64
	ReceiverAntenna  string
}

// EPREOffsets returns the four 4G EPRE offset cells in a fixed order
func (t *Transmitter) EPREOffsets() []string {
	return []string{
		t.EPREOffsetSSVsRS,
		t.EPREOffsetPBCHVsRS,
		t.EPREOffsetPDCCHVsRS,
		t.EPREOffsetPDSCHVsRS,
	}
}

// IsRepeater reports whether the row describes a repeater instead of a
// donor base station
func (t *Transmitter) IsRepeater() bool {
	return t.DonorLoss != ""
}

// NetworkList is the parsed network file
type NetworkList struct {
	// LongLat reports geographic transmitter coordinates
	// (longitude/latitude) instead of projected easting/northing
	LongLat bool
	// ReceiverLongLat reports geographic receiver coordinates
	ReceiverLongLat bool
	Transmitters    []*Transmitter
}

// LoadNetworkList reads and validates a semicolon-delimited network
// file
func LoadNetworkList(path string) (*NetworkList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open network file: %w", err)
	}
	defer f.Close()
	return ParseNetworkList(f)
}

// ParseNetworkList validates the header row and parses every data row
func ParseNetworkList(r io.Reader) (*NetworkList, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read network file header: %w", err)
	}

	cols := make(map[string]int, len(header))
	var unknown []string
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			continue
		}
		if !knownNetworkFields[name] {
			unknown = append(unknown, name)
			continue
		}
		cols[name] = i
	}
	if len(unknown) > 0 {
		return nil, &ValidationError{
			Field:   "network file",
			Message: fmt.Sprintf("unknown field(s) %s in header", strings.Join(unknown, ", ")),
		}
	}

	var missing []string
	for _, m := range mandatoryNetworkFields {
		if _, ok := cols[m]; !ok {
			missing = append(missing, m)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{
			Field:   "network file",
			Message: fmt.Sprintf("missing mandatory field(s) %s in header", strings.Join(missing, ", ")),
		}
	}

	has := func(field string) bool {
		_, ok := cols[field]
		return ok
	}
	eastNorth := has(FieldTransmitterEasting) && has(FieldTransmitterNorthing)
	longLat := has(FieldTransmitterLongitude) && has(FieldTransmitterLatitude)
	switch {
	case eastNorth && longLat:
		return nil, &ValidationError{
			Field:   "network file",
			Message: "transmitter coordinates must be either easting/northing or longitude/latitude, not both",
		}
	case !eastNorth && !longLat:
		return nil, &ValidationError{
			Field:   "network file",
			Message: "missing transmitter coordinates, expected easting/northing or longitude/latitude",
		}
	}

	list := &NetworkList{
		LongLat:         longLat,
		ReceiverLongLat: has(FieldReceiverLongitude) && has(FieldReceiverLatitude),
	}

	for row := 1; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d of network file: %w", row, err)
		}
		tx, err := parseTransmitter(record, cols, list, row)
		if err != nil {
			return nil, err
		}
		list.Transmitters = append(list.Transmitters, tx)
	}
	if len(list.Transmitters) == 0 {
		return nil, &ValidationError{Field: "network file", Message: "no transmitter rows"}
	}
	return list, nil
}

func parseTransmitter(record []string, cols map[string]int, list *NetworkList, row int) (*Transmitter, error) {
	cell := func(field string) string {
		i, ok := cols[field]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	rowErr := func(field, problem string) error {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("%s in line %d of network file", problem, row),
		}
	}

	float := func(field string, dst *float64) error {
		v, err := strconv.ParseFloat(cell(field), 64)
		if err != nil {
			return rowErr(field, fmt.Sprintf("invalid value %q", cell(field)))
		}
		*dst = v
		return nil
	}
	floatDefault := func(field string, dst *float64, def float64) error {
		if cell(field) == "" {
			*dst = def
			return nil
		}
		return float(field, dst)
	}
	floatPtr := func(field string, dst **float64) error {
		if cell(field) == "" {
			*dst = nil
			return nil
		}
		var v float64
		if err := float(field, &v); err != nil {
			return err
		}
		*dst = &v
		return nil
	}

	xField, yField := FieldTransmitterEasting, FieldTransmitterNorthing
	if list.LongLat {
		xField, yField = FieldTransmitterLongitude, FieldTransmitterLatitude
	}
	rxField, ryField := FieldReceiverEasting, FieldReceiverNorthing
	if list.ReceiverLongLat {
		rxField, ryField = FieldReceiverLongitude, FieldReceiverLatitude
	}

	for _, field := range append(append([]string{}, mandatoryNetworkFields...), xField, yField) {
		if cell(field) == "" {
			return nil, rowErr(field, "mandatory field is empty")
		}
	}

	tx := &Transmitter{
		Row:      row,
		ID:       cell(FieldTransmitterID),
		Name:     cell(FieldTransmitterName),
		Model:    cell(FieldPropagationModel),
		Antenna:  cell(FieldAntenna),
		Comments: cell(FieldComments),

		EPREOffsetSSVsRS:               cell(FieldEPREOffsetSSVsRS),
		EPREOffsetPBCHVsRS:             cell(FieldEPREOffsetPBCHVsRS),
		EPREOffsetPDCCHVsRS:            cell(FieldEPREOffsetPDCCHVsRS),
		EPREOffsetPDSCHVsRS:            cell(FieldEPREOffsetPDSCHVsRS),
		NbAntennaPorts:                 cell(FieldNbAntennaPorts),
		MultiAntennaInterferenceFactor: cell(FieldMultiAntennaInterferenceFactor),
		DonorLoss:                      cell(FieldDonorLoss),
		Techno:                         cell(FieldTechno),
		TrafficLoad:                    cell(FieldTrafficLoad),
		AntennaCSI:                     cell(FieldAntennaCSI),
		AntennaSSB:                     cell(FieldAntennaSSB),

		ReceiverName:    cell(FieldReceiverName),
		ReceiverAntenna: cell(FieldReceiverAntenna),
	}

	steps := []func() error{
		func() error { return float(xField, &tx.X) },
		func() error { return float(yField, &tx.Y) },
		func() error { return float(FieldTransmitterHeight, &tx.Height) },
		func() error { return float(FieldFrequency, &tx.Frequency) },
		func() error { return floatDefault(FieldAzimuth, &tx.Azimuth, 0) },
		func() error { return floatDefault(FieldDowntilt, &tx.Downtilt, 0) },
		func() error {
			// declared column counts even with an empty cell, the
			// electrical downtilt then defaults to 0
			if _, ok := cols[FieldAdditionalElectricalDowntilt]; !ok {
				return nil
			}
			v := 0.0
			if cell(FieldAdditionalElectricalDowntilt) != "" {
				if err := float(FieldAdditionalElectricalDowntilt, &v); err != nil {
					return err
				}
			}
			tx.AdditionalElectricalDowntilt = &v
			return nil
		},
		func() error { return floatDefault(FieldEmittingPower, &tx.Power, 0) },
		func() error { return floatPtr(FieldTerrainAltitude, &tx.TerrainAltitude) },
		func() error { return floatPtr(FieldCalculationRadius, &tx.Radius) },
		func() error { return floatPtr(FieldCalculationResolution, &tx.Resolution) },
		func() error { return floatPtr(rxField, &tx.ReceiverX) },
		func() error { return floatPtr(ryField, &tx.ReceiverY) },
		func() error { return floatPtr(FieldReceiverHeight, &tx.ReceiverHeight) },
		func() error { return floatDefault(FieldReceiverAzimuth, &tx.ReceiverAzimuth, 0) },
		func() error { return floatDefault(FieldReceiverDowntilt, &tx.ReceiverDowntilt, 0) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return tx, nil
}
