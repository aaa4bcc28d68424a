package core

// Edge identifies one side of a patch in face-local UV space.
// Top is v=1, Right is u=1, Bottom is v=0, Left is u=0. Top and Bottom
// edges are parameterized by u, Left and Right by v.
type Edge uint8

const (
	EdgeTop Edge = iota
	EdgeRight
	EdgeBottom
	EdgeLeft
	EdgeCount = 4
)

func (e Edge) String() string {
	switch e {
	case EdgeTop:
		return "top"
	case EdgeRight:
		return "right"
	case EdgeBottom:
		return "bottom"
	case EdgeLeft:
		return "left"
	}
	return "?"
}

// Opposite returns the edge on the far side of the same face.
func (e Edge) Opposite() Edge {
	switch e {
	case EdgeTop:
		return EdgeBottom
	case EdgeBottom:
		return EdgeTop
	case EdgeLeft:
		return EdgeRight
	default:
		return EdgeLeft
	}
}

// FaceLink describes what lies across one edge of a cube face: the
// neighbouring face, which of its edges is shared, and whether the two
// edge parameterizations run in opposite directions.
type FaceLink struct {
	Face     Face
	Edge     Edge
	Reversed bool
}

// faceAdjacency is derived from the face orientation table: each shared
// cube edge is matched between the two faces that contain it, and the
// Reversed flag records whether their edge coordinates disagree in
// direction. The table is involutive (following a link and then its
// reverse returns to the start) which the tests verify geometrically.
var faceAdjacency = [FaceCount][EdgeCount]FaceLink{
	FacePosX: {
		EdgeTop:    {FacePosZ, EdgeRight, false},
		EdgeRight:  {FacePosY, EdgeRight, false},
		EdgeBottom: {FaceNegZ, EdgeRight, false},
		EdgeLeft:   {FaceNegY, EdgeRight, true},
	},
	FaceNegX: {
		EdgeTop:    {FacePosZ, EdgeLeft, true},
		EdgeRight:  {FaceNegY, EdgeLeft, true},
		EdgeBottom: {FaceNegZ, EdgeLeft, true},
		EdgeLeft:   {FacePosY, EdgeLeft, false},
	},
	FacePosY: {
		EdgeTop:    {FacePosZ, EdgeTop, false},
		EdgeRight:  {FacePosX, EdgeRight, false},
		EdgeBottom: {FaceNegZ, EdgeTop, false},
		EdgeLeft:   {FaceNegX, EdgeLeft, false},
	},
	FaceNegY: {
		EdgeTop:    {FaceNegZ, EdgeBottom, false},
		EdgeRight:  {FacePosX, EdgeLeft, true},
		EdgeBottom: {FacePosZ, EdgeBottom, false},
		EdgeLeft:   {FaceNegX, EdgeRight, true},
	},
	FacePosZ: {
		EdgeTop:    {FacePosY, EdgeTop, false},
		EdgeRight:  {FacePosX, EdgeTop, false},
		EdgeBottom: {FaceNegY, EdgeBottom, false},
		EdgeLeft:   {FaceNegX, EdgeTop, true},
	},
	FaceNegZ: {
		EdgeTop:    {FacePosY, EdgeBottom, false},
		EdgeRight:  {FacePosX, EdgeBottom, false},
		EdgeBottom: {FaceNegY, EdgeTop, false},
		EdgeLeft:   {FaceNegX, EdgeBottom, true},
	},
}

// FaceNeighbor returns what lies across the given edge of a cube face.
func FaceNeighbor(face Face, edge Edge) FaceLink {
	return faceAdjacency[face][edge]
}

// edgeChildren lists, for each edge, the two child quadrants touching it,
// ordered by increasing edge coordinate.
var edgeChildren = [EdgeCount][2]int{
	EdgeTop:    {ChildTL, ChildTR},
	EdgeRight:  {ChildBR, ChildTR},
	EdgeBottom: {ChildBL, ChildBR},
	EdgeLeft:   {ChildBL, ChildTL},
}

// innerNeighbor maps (edge, child) to the sibling across that edge within
// the same parent, or -1 when the edge lies on the parent's boundary.
var innerNeighbor = [EdgeCount][4]int{
	EdgeTop:    {ChildBL: ChildTL, ChildBR: ChildTR, ChildTR: -1, ChildTL: -1},
	EdgeRight:  {ChildBL: ChildBR, ChildTL: ChildTR, ChildBR: -1, ChildTR: -1},
	EdgeBottom: {ChildTL: ChildBL, ChildTR: ChildBR, ChildBL: -1, ChildBR: -1},
	EdgeLeft:   {ChildBR: ChildBL, ChildTR: ChildTL, ChildBL: -1, ChildTL: -1},
}

// edgeSlot returns the position (0 or 1) of a child along an edge it
// touches, ordered by the edge coordinate, or -1 if it does not touch.
func edgeSlot(edge Edge, child int) int {
	if edgeChildren[edge][0] == child {
		return 0
	}
	if edgeChildren[edge][1] == child {
		return 1
	}
	return -1
}
