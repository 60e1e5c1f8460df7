package archive

import "strings"

// Property names used by the geometry and transform schemas.
const (
	PropXform             = ".xform"
	PropVisible           = "visible"
	PropPositions         = "P"
	PropFaceIndices       = ".faceIndices"
	PropFaceCounts        = ".faceCounts"
	PropNormals           = "N"
	PropVelocities        = "v"
	PropUV                = "uv"
	PropRestPositions     = "Pref"
	PropRestNormals       = "Nref"
	PropCreaseIndices     = ".creaseIndices"
	PropCreaseLengths     = ".creaseLengths"
	PropCreaseSharpnesses = ".creaseSharpnesses"
)

// Name prefixes for families of properties.
const (
	// UVSetPrefix names additional uv sets: "uv:<set>".
	UVSetPrefix = "uv:"
	// FaceSetPrefix names face-set membership lists: "faceset:<set>".
	FaceSetPrefix = "faceset:"
	// UserPrefix marks user attributes carried through joins.
	UserPrefix = "user_"

	indicesSuffix = ".indices"
)

// IndicesName returns the name of the index property paired with an
// indexed property.
func IndicesName(name string) string {
	return name + indicesSuffix
}

// IsIndicesName reports whether name is an index property.
func IsIndicesName(name string) bool {
	return strings.HasSuffix(name, indicesSuffix)
}
