package domain

import (
	"path/filepath"
	"strings"
)

// ArtifactKind classifies an uploaded drawing by its file extension.
type ArtifactKind string

const (
	ArtifactCAD     ArtifactKind = "cad_drawing"
	ArtifactImage   ArtifactKind = "image_plan"
	ArtifactUnknown ArtifactKind = "unknown"
)

// Envelope holds exterior surface areas in m².
type Envelope struct {
	WallArea   float64 `json:"wall_area"`
	WindowArea float64 `json:"window_area"`
	RoofArea   float64 `json:"roof_area"`
}

// GeometryEstimate is a coarse building description. FloorArea is always > 0.
type GeometryEstimate struct {
	Type              ArtifactKind `json:"type"`
	Floors            int          `json:"floors"`
	FloorArea         float64      `json:"floor_area"`  // m²
	Height            float64      `json:"height"`      // m
	Orientation       float64      `json:"orientation"` // degrees from north
	WindowToWallRatio float64      `json:"window_to_wall_ratio"`
	Envelope          Envelope     `json:"building_envelope"`
}

// geometryProfiles is a fixed lookup table. No file content is parsed: the
// estimate depends only on the artifact's extension.
var geometryProfiles = map[ArtifactKind]GeometryEstimate{
	ArtifactCAD: {
		Type: ArtifactCAD, Floors: 2, FloorArea: 500, Height: 6, WindowToWallRatio: 0.3,
		Envelope: Envelope{WallArea: 800, WindowArea: 120, RoofArea: 250},
	},
	ArtifactImage: {
		Type: ArtifactImage, Floors: 1, FloorArea: 300, Height: 4, WindowToWallRatio: 0.25,
		Envelope: Envelope{WallArea: 400, WindowArea: 60, RoofArea: 150},
	},
	ArtifactUnknown: {
		Type: ArtifactUnknown, Floors: 1, FloorArea: 100, Height: 3, WindowToWallRatio: 0.2,
		Envelope: Envelope{WallArea: 200, WindowArea: 30, RoofArea: 100},
	},
}

// ClassifyArtifact maps a file extension ("dxf", ".DXF") to its kind.
func ClassifyArtifact(ext string) ArtifactKind {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	switch ext {
	case "dwg", "dxf":
		return ArtifactCAD
	case "pdf", "jpg", "png":
		return ArtifactImage
	default:
		return ArtifactUnknown
	}
}

// ArtifactKindFromFileName classifies a file by the extension of its name.
func ArtifactKindFromFileName(name string) ArtifactKind {
	return ClassifyArtifact(filepath.Ext(name))
}

// EstimateGeometry returns the lookup-table envelope for an artifact kind.
// This is a stand-in for real CAD or plan extraction.
func EstimateGeometry(kind ArtifactKind) GeometryEstimate {
	if g, ok := geometryProfiles[kind]; ok {
		return g
	}
	return geometryProfiles[ArtifactUnknown]
}
