package models

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// earthRadiusKM is the earth radius used to convert calculation radii
// from meters to degrees on geographic grids
const earthRadiusKM = 6378.137

// ResourceIndex maps the resource names referenced by the network file
// to the uuids they were created under on the server
type ResourceIndex struct {
	SessionUUID string
	Antennas    map[string]string
	Models      map[string]string
}

func (r *ResourceIndex) antennaUUID(name string, row int) (string, error) {
	id, ok := r.Antennas[name]
	if !ok {
		return "", &ValidationError{
			Field:   "antenna",
			Message: fmt.Sprintf("antenna %q referenced in line %d of network file is not declared in the input configuration", name, row),
		}
	}
	return id, nil
}

func (r *ResourceIndex) modelUUID(name string, row int) (string, error) {
	id, ok := r.Models[name]
	if !ok {
		return "", &ValidationError{
			Field:   "propagation model",
			Message: fmt.Sprintf("propagation model %q referenced in line %d of network file is not declared in the input configuration", name, row),
		}
	}
	return id, nil
}

// BuildOutput is a fully assembled simulation submission
type BuildOutput struct {
	Request *SimulationRequest
	// ShapefilePath is the computation zone archive to attach, empty
	// when none is configured
	ShapefilePath string
	// Warnings lists non-fatal findings made while assembling
	Warnings []string
}

// ValidateReferences checks every resource name the network file
// refers to against the declared input configuration. It runs before
// any server call so that a broken reference never leaves resources
// half created.
func ValidateReferences(cfg *InputConfig, list *NetworkList) error {
	antennas := make(map[string]bool, len(cfg.Antennas)+len(cfg.Gobs))
	for _, a := range cfg.Antennas {
		antennas[a.Name] = true
	}
	if cfg.ComputationType() == Computation5G {
		for _, g := range cfg.Gobs {
			antennas[g.Name] = true
		}
	}
	models := make(map[string]bool, len(cfg.Models))
	for _, m := range cfg.Models {
		models[m.Name] = true
	}

	check := func(field, name string, known map[string]bool, row int) error {
		if name == "" || known[name] {
			return nil
		}
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("%s %q referenced in line %d of network file is not declared in the input configuration", field, name, row),
		}
	}

	fiveG := cfg.ComputationType() == Computation5G
	for _, tx := range list.Transmitters {
		if err := check(FieldPropagationModel, tx.Model, models, tx.Row); err != nil {
			return err
		}
		refs := []struct{ name, value string }{
			{FieldAntenna, tx.Antenna},
			{FieldReceiverAntenna, tx.ReceiverAntenna},
		}
		if fiveG {
			refs = append(refs,
				struct{ name, value string }{FieldAntennaSSB, tx.AntennaSSB},
				struct{ name, value string }{FieldAntennaCSI, tx.AntennaCSI})
		}
		for _, ref := range refs {
			if err := check(ref.name, ref.value, antennas, tx.Row); err != nil {
				return err
			}
		}
	}
	return nil
}

// BuildSimulationRequest assembles the simulation payload from the
// input configuration, the parsed network file and the server-side
// resource uuids. Every cross reference is resolved and every grid is
// computed here, so a request that builds is a request that can be
// submitted.
func BuildSimulationRequest(cfg *InputConfig, list *NetworkList, resources *ResourceIndex) (*BuildOutput, error) {
	if cfg.PredictionType() == PredictionPoint {
		return nil, &ValidationError{
			Field:   "predictionSettings.type",
			Message: "cannot create POINT simulations",
		}
	}
	zmeaning, err := receptionZMeaning(cfg.PredictionSettings)
	if err != nil {
		return nil, err
	}

	var scenarios []*PropagationScenario
	for _, tx := range list.Transmitters {
		bs, err := buildBaseStation(tx, cfg.ComputationType(), resources, list.LongLat)
		if err != nil {
			return nil, err
		}
		ue, err := buildUserEquipment(tx, cfg, resources, list, zmeaning)
		if err != nil {
			return nil, err
		}
		modelUUID, err := resources.modelUUID(tx.Model, tx.Row)
		if err != nil {
			return nil, err
		}

		merged := false
		for _, sc := range scenarios {
			if !sameBaseStation(sc.BaseStation, bs) {
				continue
			}
			if ue.Type != PredictionPoint {
				return nil, &ValidationError{
					Field: "network file",
					Message: fmt.Sprintf("base station %s in line %d duplicates an earlier row, cannot create point to multi points simulations",
						bs.Name, tx.Row),
				}
			}
			sc.UserEquipments = append(sc.UserEquipments, ue)
			merged = true
			break
		}
		if merged {
			continue
		}
		scenarios = append(scenarios, &PropagationScenario{
			BaseStation:          bs,
			UserEquipments:       []*UserEquipment{ue},
			PropagationModelUUID: modelUUID,
		})
	}

	settings := cfg.PredictionSettings
	req := &SimulationRequest{
		UUID:                   uuid.NewString(),
		Name:                   cfg.Session.Name + "_postprocessing",
		CalculationSessionUUID: resources.SessionUUID,
		PropagationRequest: &PropagationRequest{
			PropagationScenarios: scenarios,
			ResultTypes:          settings.PredictionResultType,
			Heights:              settings.ReceptionHeights,
			ZMeaning:             zmeaning,
			Isotropic:            settings.Isotropic,
			Force:                settings.Force,
			Priority:             settings.Priority,
		},
	}

	out := &BuildOutput{Request: req}
	if cfg.Network != nil {
		req.PostprocessingRequest = buildPostProcessing(cfg.Network)
		if shape := cfg.FilterShape(); shape != "" {
			if err := ValidateShapefileArchive(shape); err != nil {
				return nil, err
			}
			out.ShapefilePath = shape
		}
	}
	for _, tx := range list.Transmitters {
		if tx.ReceiverName != "" {
			out.Warnings = append(out.Warnings, "receiver columns in the network file are ignored for AREA predictions")
			break
		}
	}
	return out, nil
}

func buildPostProcessing(network *NetworkSettings) *PostProcessingRequest {
	post := &PostProcessingRequest{
		Resolution:        network.Resolution,
		ComputationType:   network.ComputationType,
		ResultTypes:       network.ComputationResultType,
		DynamicParameters: network.DynamicParameters,
		RepeaterSeparated: network.RepeaterSeparated,
	}
	// the shapefile path travels as a multipart file, not inside the
	// computation zone
	if len(network.ComputationZone) > 0 {
		zone := make(map[string]any, len(network.ComputationZone))
		for k, v := range network.ComputationZone {
			if k != "filterShape" {
				zone[k] = v
			}
		}
		post.ComputationZone = zone
	}
	return post
}

func buildBaseStation(tx *Transmitter, computationType string, resources *ResourceIndex, longLat bool) (*BaseStation, error) {
	bs := &BaseStation{
		Name:                         tx.Name,
		NetworkID:                    tx.ID,
		Description:                  tx.Comments,
		SessionUUID:                  resources.SessionUUID,
		X:                            tx.X,
		Y:                            tx.Y,
		Z:                            tx.Height,
		ZMeaning:                     ZMeaningGround,
		Azimuth:                      tx.Azimuth,
		Downtilt:                     tx.Downtilt,
		AdditionalElectricalDowntilt: tx.AdditionalElectricalDowntilt,
		CarrierFrequency:             tx.Frequency,
		TransmitPower:                tx.Power,
		DonorLoss:                    tx.DonorLoss,
	}
	if longLat {
		code := EPSGLongLat
		bs.EPSGCode = &code
	}
	if tx.TerrainAltitude != nil {
		bs.ZMeaning = ZMeaningAltitude
		bs.Z = tx.Height + *tx.TerrainAltitude
	}
	if tx.Antenna != "" {
		id, err := resources.antennaUUID(tx.Antenna, tx.Row)
		if err != nil {
			return nil, err
		}
		bs.AntennaUUID = id
	}

	if computationType != Computation4G && computationType != Computation5G {
		return bs, nil
	}

	if tx.Techno == "" {
		return nil, &ValidationError{
			Field:   FieldTechno,
			Message: fmt.Sprintf("techno is required for %s computations in line %d of network file", computationType, tx.Row),
		}
	}
	bs.Techno = tx.Techno
	bs.TrafficLoad = tx.TrafficLoad
	if bs.TrafficLoad == "" {
		bs.TrafficLoad = "0"
	}

	if computationType == Computation5G {
		if tx.AntennaSSB == "" || tx.AntennaCSI == "" {
			return nil, &ValidationError{
				Field:   FieldAntennaSSB,
				Message: fmt.Sprintf("antenna SSB and antenna CSI are required for 5G computations in line %d of network file", tx.Row),
			}
		}
		ssb, err := resources.antennaUUID(tx.AntennaSSB, tx.Row)
		if err != nil {
			return nil, err
		}
		csi, err := resources.antennaUUID(tx.AntennaCSI, tx.Row)
		if err != nil {
			return nil, err
		}
		bs.AntennaSSBUUID = ssb
		bs.AntennaCSIUUID = csi
	}

	if computationType == Computation4G {
		sinrFields := append(tx.EPREOffsets(), tx.NbAntennaPorts)
		filled := 0
		for _, v := range sinrFields {
			if v != "" {
				filled++
			}
		}
		switch filled {
		case 0:
		case len(sinrFields):
			bs.EPREOffsetSSVsRS = tx.EPREOffsetSSVsRS
			bs.EPREOffsetPBCHVsRS = tx.EPREOffsetPBCHVsRS
			bs.EPREOffsetPDCCHVsRS = tx.EPREOffsetPDCCHVsRS
			bs.EPREOffsetPDSCHVsRS = tx.EPREOffsetPDSCHVsRS
			bs.NbAntennaPorts = tx.NbAntennaPorts
			bs.MultiAntennaInterferenceFactor = tx.MultiAntennaInterferenceFactor
		default:
			return nil, &ValidationError{
				Field:   FieldEPREOffsetSSVsRS,
				Message: fmt.Sprintf("all or none of the EPRE offset and antenna port fields must be set in line %d of network file", tx.Row),
			}
		}
	}

	if bs.Techno == Computation5G && tx.IsRepeater() {
		return nil, &ValidationError{
			Field:   FieldDonorLoss,
			Message: fmt.Sprintf("repeaters are not available for 5G computations in line %d of network file", tx.Row),
		}
	}
	return bs, nil
}

func buildUserEquipment(tx *Transmitter, cfg *InputConfig, resources *ResourceIndex, list *NetworkList, zmeaning string) (*UserEquipment, error) {
	ue := &UserEquipment{
		SessionUUID: resources.SessionUUID,
		Description: tx.Comments,
		ZMeaning:    zmeaning,
	}

	if cfg.PredictionType() == PredictionPoint {
		return buildPointUserEquipment(tx, resources, list, ue)
	}

	ue.Type = PredictionArea
	if tx.Resolution == nil || tx.Radius == nil {
		return nil, &ValidationError{
			Field:   FieldCalculationResolution,
			Message: fmt.Sprintf("calculation resolution and calculation radius are required for AREA user equipments in line %d of network file", tx.Row),
		}
	}
	ue.Name = tx.Name
	ue.Heights = cfg.PredictionSettings.ReceptionHeights

	x, y := tx.X, tx.Y
	resolution := *tx.Resolution
	if cfg.PredictionSettings.ShiftGridCenter {
		x = SnapToGrid(x, resolution)
		y = SnapToGrid(y, resolution)
	}
	ue.Coordinates = areaCoordinates(x, y, *tx.Radius, resolution, list.LongLat)
	return ue, nil
}

func buildPointUserEquipment(tx *Transmitter, resources *ResourceIndex, list *NetworkList, ue *UserEquipment) (*UserEquipment, error) {
	ue.Type = PredictionPoint
	if tx.ReceiverName == "" || tx.ReceiverHeight == nil || tx.ReceiverX == nil || tx.ReceiverY == nil {
		return nil, &ValidationError{
			Field:   FieldReceiverName,
			Message: fmt.Sprintf("receiver name, height and coordinates are required for POINT user equipments in line %d of network file", tx.Row),
		}
	}
	ue.Name = tx.ReceiverName
	ue.Heights = []float64{*tx.ReceiverHeight}
	ue.Coordinates = &Coordinates{X: tx.ReceiverX, Y: tx.ReceiverY}
	// the point keeps the transmitter coordinate system
	if list.LongLat {
		code := EPSGLongLat
		ue.Coordinates.EPSGCode = &code
	}
	if tx.ReceiverAntenna != "" {
		id, err := resources.antennaUUID(tx.ReceiverAntenna, tx.Row)
		if err != nil {
			return nil, err
		}
		ue.Antenna = tx.ReceiverAntenna
		ue.AntennaUUID = id
		azimuth, downtilt := tx.ReceiverAzimuth, tx.ReceiverDowntilt
		ue.Azimuth = &azimuth
		ue.Downtilt = &downtilt
	}
	return ue, nil
}

// receptionZMeaning maps the reception height reference to the wire
// zmeaning, ZMEANING_GROUND by default
func receptionZMeaning(settings *PredictionSettings) (string, error) {
	if settings == nil {
		return ZMeaningGround, nil
	}
	switch settings.ReceptionHeightReference {
	case "", "GROUND":
		return ZMeaningGround, nil
	case "CLUTTER":
		return ZMeaningClutter, nil
	case "ALTITUDE":
		return ZMeaningAltitude, nil
	default:
		return "", &ValidationError{
			Field:   "receptionHeightReference",
			Message: fmt.Sprintf("unknown value %q, must be GROUND, CLUTTER or ALTITUDE", settings.ReceptionHeightReference),
		}
	}
}

// SnapToGrid aligns a coordinate on the closest grid node of the given
// resolution
func SnapToGrid(c, resolution float64) float64 {
	return resolution * math.Floor((c+resolution/2)/resolution)
}

// areaCoordinates computes the bounding box of one AREA user equipment
// around the transmitter. Geographic radii are converted from meters to
// degrees, with the longitude span widened by the latitude of the
// matching edge.
func areaCoordinates(x, y, radius, resolution float64, longLat bool) *Coordinates {
	coords := &Coordinates{Resolution: &resolution}
	if !longLat {
		xmin, xmax := x-radius, x+radius
		ymin, ymax := y-radius, y+radius
		coords.XMin, coords.XMax = &xmin, &xmax
		coords.YMin, coords.YMax = &ymin, &ymax
		return coords
	}

	// one meter in degrees of latitude
	m := (1 / ((2 * math.Pi / 360) * earthRadiusKM)) / 1000
	ymin := y - radius*m
	ymax := y + radius*m
	xmin := x - (radius*m)/math.Cos(ymin*(math.Pi/180))
	xmax := x + (radius*m)/math.Cos(ymax*(math.Pi/180))
	code := EPSGLongLat
	coords.XMin, coords.XMax = &xmin, &xmax
	coords.YMin, coords.YMax = &ymin, &ymax
	coords.EPSGCode = &code
	return coords
}

// sameBaseStation reports whether two rows describe the same physical
// transmitter configuration
func sameBaseStation(a, b *BaseStation) bool {
	return a.NetworkID == b.NetworkID &&
		a.Name == b.Name &&
		a.X == b.X &&
		a.Y == b.Y &&
		a.Z == b.Z &&
		a.Azimuth == b.Azimuth &&
		a.Downtilt == b.Downtilt &&
		a.CarrierFrequency == b.CarrierFrequency &&
		a.TransmitPower == b.TransmitPower
}
