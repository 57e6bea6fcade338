package models

// Artifact is one downloadable result raster
type Artifact struct {
	UUID     string `json:"uuid"`
	FileName string `json:"fileName"`
	// Path is the local file the artifact was written to, set after
	// download
	Path string `json:"-"`
}
