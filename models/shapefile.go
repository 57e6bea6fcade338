package models

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var shapefileMandatoryExt = []string{".shp", ".shx", ".dbf"}

var shapefileOptionalExt = []string{
	".prj", ".sbn", ".sbx", ".fbn", ".fbx", ".ain", ".aih", ".ixs",
	".mxs", ".atx", ".cpg", ".qix", ".qmd",
}

const shapefileXMLSuffix = ".shp.xml"

// ValidateShapefileArchive checks a computation zone archive before it
// is attached to a simulation. The archive must be a zip holding one
// shapefile named after the archive: .shp, .shx and .dbf members are
// mandatory, the usual sidecar files are accepted, anything else is
// rejected.
func ValidateShapefileArchive(zipPath string) error {
	if _, err := os.Stat(zipPath); err != nil {
		return &ValidationError{
			Field:   "filterShape",
			Message: fmt.Sprintf("shapefile archive %s does not exist", zipPath),
		}
	}
	if !strings.HasSuffix(zipPath, ".zip") {
		return &ValidationError{
			Field:   "filterShape",
			Message: fmt.Sprintf("shapefile archive %s is not a .zip file", zipPath),
		}
	}

	stem := strings.TrimSuffix(filepath.Base(zipPath), ".zip")

	archive, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("failed to open shapefile archive %s: %w", zipPath, err)
	}
	defer archive.Close()

	found := make(map[string]bool, len(shapefileMandatoryExt))
	var strangers []string
	for _, member := range archive.File {
		name := member.Name
		if strings.HasSuffix(name, "/") {
			continue
		}
		ext := extOf(name, stem)
		switch {
		case ext != "" && slices.Contains(shapefileMandatoryExt, ext):
			found[ext] = true
		case ext != "" && slices.Contains(shapefileOptionalExt, ext):
		case strings.HasSuffix(name, shapefileXMLSuffix) &&
			strings.TrimSuffix(name, shapefileXMLSuffix) == stem:
		default:
			strangers = append(strangers, name)
		}
	}

	for _, ext := range shapefileMandatoryExt {
		if !found[ext] {
			return &ValidationError{
				Field: "filterShape",
				Message: fmt.Sprintf("shapefile archive %s must contain %s files named %s",
					zipPath, strings.Join(shapefileMandatoryExt, ", "), stem),
			}
		}
	}
	if len(strangers) > 0 {
		return &ValidationError{
			Field: "filterShape",
			Message: fmt.Sprintf("shapefile archive %s must not contain %s",
				zipPath, strings.Join(strangers, ", ")),
		}
	}
	return nil
}

// extOf returns the extension of an archive member when its base name
// matches the archive stem, empty otherwise
func extOf(name, stem string) string {
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	if strings.TrimSuffix(base, ext) != stem {
		return ""
	}
	return ext
}
