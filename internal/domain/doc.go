// Package domain models building climate exposure and indicative performance.
//
// # Pipeline
//
// A simulation runs four pure stages after one outbound weather read:
//
//	observation ─► BuildClimateProfile ─┐
//	artifact name ─► EstimateGeometry ──┴─► Simulate ─► SimulationResult
//
// Recommend is separate and synchronous: it takes the climate zone, the
// building, and the latest completed simulation (if any).
//
// # Climate zones
//
// Zones come only from absolute latitude. Band edges belong to the colder band:
//
//	|lat| < 23.5  Tropical     CDD 2000  HDD  100
//	|lat| < 35    Subtropical  CDD 1500  HDD  500
//	|lat| < 50    Temperate    CDD 1000  HDD 2000
//	otherwise     Cold         CDD  500  HDD 4000
//
// Degree days are fixed per zone, not integrated over temperature history.
//
// # Geometry
//
// No drawing is parsed. The estimate is a lookup keyed by file extension:
// dwg/dxf map to a two-floor 500 m² profile, pdf/jpg/png to a one-floor 300 m²
// profile, and anything else to a 100 m² fallback.
//
// # Simulation lifecycle
//
//	pending ─► running ─► completed
//	                  └─► failed
//
// A completed simulation always has a results reference; a failed one always
// has a failure reason. Terminal states are final.
//
// # Accuracy
//
// All formulas are deterministic and intentionally coarse. They are
// reproducible, not engineering-grade: there is no hourly simulation and no
// real envelope modelling.
package domain
