package models

// Height reference of z values on the wire
const (
	ZMeaningGround   = "ZMEANING_GROUND"
	ZMeaningClutter  = "ZMEANING_CLUTTER"
	ZMeaningAltitude = "ZMEANING_ALTITUDE"
)

// Simulation states reported by the Volcano API
const (
	StateWaiting       = "WAITING"
	StateDone          = "DONE"
	StateDoneWithError = "DONE_WITH_ERROR"
	StateError         = "ERROR"
	StateCanceled      = "CANCELED"
)

// EPSG code of geographic longitude/latitude coordinates
const EPSGLongLat = 4326

// BaseStation is the transmitter side of a propagation scenario
type BaseStation struct {
	UUID        string  `json:"uuid,omitempty"`
	Name        string  `json:"name"`
	NetworkID   string  `json:"networkId"`
	Description string  `json:"description"`
	SessionUUID string  `json:"sessionUuid"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Z           float64 `json:"z"`
	// EPSGCode is nil for projected coordinates so that the dataset
	// projection of the map data applies
	EPSGCode                     *int     `json:"epsgCode"`
	ZMeaning                     string   `json:"zmeaning"`
	Azimuth                      float64  `json:"azimuth"`
	Downtilt                     float64  `json:"downtilt"`
	AdditionalElectricalDowntilt *float64 `json:"additionalElectricalDowntilt,omitempty"`
	CarrierFrequency             float64  `json:"carrierFrequency"`
	TransmitPower                float64  `json:"transmitPower"`
	AntennaUUID                  string   `json:"antennaUuid,omitempty"`

	Techno      string `json:"techno,omitempty"`
	TrafficLoad string `json:"trafficload,omitempty"`

	EPREOffsetSSVsRS    string `json:"epreOffsetSSVSRS,omitempty"`
	EPREOffsetPBCHVsRS  string `json:"epreOffsetPBCHVSRS,omitempty"`
	EPREOffsetPDCCHVsRS string `json:"epreOffsetPDCCHVSRS,omitempty"`
	EPREOffsetPDSCHVsRS string `json:"epreOffsetPDSCHVSRS,omitempty"`
	NbAntennaPorts      string `json:"nbAntennaPorts,omitempty"`

	MultiAntennaInterferenceFactor string `json:"multiAntennaInterferenceFactor,omitempty"`

	AntennaSSBUUID string `json:"antennaSsbUuid,omitempty"`
	AntennaCSIUUID string `json:"antennaCsiUuid,omitempty"`

	DonorLoss                  string `json:"donorLoss,omitempty"`
	RepeatBaseStationNetworkID string `json:"repeatBaseStationNetworkId,omitempty"`
}

// Coordinates carries either a point position or an area grid
type Coordinates struct {
	X          *float64 `json:"x,omitempty"`
	Y          *float64 `json:"y,omitempty"`
	XMin       *float64 `json:"xmin,omitempty"`
	XMax       *float64 `json:"xmax,omitempty"`
	YMin       *float64 `json:"ymin,omitempty"`
	YMax       *float64 `json:"ymax,omitempty"`
	Resolution *float64 `json:"resolution,omitempty"`
	EPSGCode   *int     `json:"epsgCode,omitempty"`
}

// UserEquipment is the receiver side of a propagation scenario
type UserEquipment struct {
	UUID        string       `json:"uuid,omitempty"`
	Name        string       `json:"name"`
	Type        string       `json:"type"`
	SessionUUID string       `json:"sessionUuid"`
	Description string       `json:"description"`
	ZMeaning    string       `json:"zmeaning"`
	Heights     []float64    `json:"heights"`
	Coordinates *Coordinates `json:"coordinates"`
	Antenna     string       `json:"antenna,omitempty"`
	AntennaUUID string       `json:"antennaUuid,omitempty"`
	Azimuth     *float64     `json:"azimuth,omitempty"`
	Downtilt    *float64     `json:"downtilt,omitempty"`
}

// PropagationScenario pairs one base station with its user equipments
type PropagationScenario struct {
	BaseStation          *BaseStation     `json:"baseStation"`
	UserEquipments       []*UserEquipment `json:"userEquipments"`
	PropagationModelUUID string           `json:"propagationModelUuid"`
}

// PropagationRequest describes the propagation runs of a simulation
type PropagationRequest struct {
	PropagationScenarios []*PropagationScenario `json:"propagationScenarios"`
	ResultTypes          []string               `json:"resultTypes"`
	Heights              []float64              `json:"heights"`
	ZMeaning             string                 `json:"zmeaning"`
	Isotropic            *bool                  `json:"isotropic,omitempty"`
	Force                *bool                  `json:"force,omitempty"`
	Priority             *int                   `json:"priority,omitempty"`
}

// PostProcessingRequest describes the network computation applied on
// top of the propagation results
type PostProcessingRequest struct {
	Resolution        float64        `json:"resolution"`
	ComputationType   string         `json:"computationType"`
	ResultTypes       []string       `json:"resultTypes"`
	DynamicParameters map[string]any `json:"dynamicParameters,omitempty"`
	RepeaterSeparated *bool          `json:"repeaterSeparated,omitempty"`
	ComputationZone   map[string]any `json:"computationZone,omitempty"`
}

// SimulationRequest is the payload submitted to the simulations
// endpoint
type SimulationRequest struct {
	UUID                   string                 `json:"uuid"`
	Name                   string                 `json:"name"`
	CalculationSessionUUID string                 `json:"calculationSessionUuid"`
	PropagationRequest     *PropagationRequest    `json:"propagationRequest,omitempty"`
	PostprocessingRequest  *PostProcessingRequest `json:"postprocessingRequest,omitempty"`
}

// SimulationStatus is one poll of a simulation or prediction group
type SimulationStatus struct {
	State         string   `json:"state"`
	Progress      float64  `json:"progress"`
	Error         string   `json:"error,omitempty"`
	ErrorMessages []string `json:"errorMessages,omitempty"`
}

// SimulationStep is one computation step of a submitted simulation
type SimulationStep struct {
	UUID                string `json:"uuid"`
	Name                string `json:"name"`
	PredictionGroupUUID string `json:"predictionGroupUuid"`
}

// SimulationInfo describes a submitted simulation
type SimulationInfo struct {
	UUID  string            `json:"uuid"`
	Name  string            `json:"name"`
	Steps []*SimulationStep `json:"steps"`
}

// PredictionGroupUUID returns the prediction group of the first step
// that carries one
func (s *SimulationInfo) PredictionGroupUUID() (string, bool) {
	for _, step := range s.Steps {
		if step.PredictionGroupUUID != "" {
			return step.PredictionGroupUUID, true
		}
	}
	return "", false
}

// PredictionState is the status block of one prediction
type PredictionState struct {
	State string `json:"state"`
	Error string `json:"error,omitempty"`
}

// Prediction is one propagation prediction of a prediction group
type Prediction struct {
	UUID   string           `json:"uuid"`
	Name   string           `json:"name"`
	Status *PredictionState `json:"status,omitempty"`
}
