package fhirmodel

// FHIRVersion represents a FHIR specification version.
type FHIRVersion string

// Supported FHIR versions.
const (
	// R4 is FHIR Release 4 (4.0.1)
	R4 FHIRVersion = "R4"
	// R4B is FHIR Release 4B (4.3.0)
	R4B FHIRVersion = "R4B"
	// R5 is FHIR Release 5 (5.0.0)
	R5 FHIRVersion = "R5"
)

// String returns the version string.
func (v FHIRVersion) String() string {
	return string(v)
}

// IsValid returns true if this is a known FHIR version.
func (v FHIRVersion) IsValid() bool {
	_, ok := releases[v]
	return ok
}

// Release returns the full release number (e.g. "4.0.1"), or "" if unknown.
func (v FHIRVersion) Release() string {
	return releases[v]
}

// ParseRelease maps a StructureDefinition fhirVersion value ("4.0.1") to its
// FHIRVersion. The second result is false for unknown releases.
func ParseRelease(release string) (FHIRVersion, bool) {
	for v, r := range releases {
		if r == release {
			return v, true
		}
	}
	return "", false
}

var releases = map[FHIRVersion]string{
	R4:  "4.0.1",
	R4B: "4.3.0",
	R5:  "5.0.0",
}

// ModelVersion is the FHIR version the declared core shapes follow.
const ModelVersion = R4
