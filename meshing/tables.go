package meshing

// Transvoxel regular cell tables. Corner numbering: 0=(0,0,0), 1=(1,0,0),
// 2=(1,0,1), 3=(0,0,1) around the bottom ring, 4..7 the same ring at y=1.
// A corner's case bit is set when its density is negative (solid).

// regularCellClass maps the 256 corner-sign cases to their equivalence
// class. Classes 0 marks the trivial all-air/all-solid cases; the class
// value buckets cells by triangulation complexity.
var regularCellClass = [256]uint8{
	0x00, 0x01, 0x01, 0x03, 0x01, 0x03, 0x02, 0x04, 0x01, 0x02, 0x03, 0x04, 0x03, 0x04, 0x04, 0x03,
	0x01, 0x03, 0x02, 0x04, 0x02, 0x04, 0x06, 0x0C, 0x02, 0x05, 0x05, 0x0B, 0x05, 0x0A, 0x07, 0x04,
	0x01, 0x02, 0x03, 0x04, 0x02, 0x05, 0x05, 0x0A, 0x03, 0x04, 0x04, 0x03, 0x05, 0x07, 0x07, 0x04,
	0x03, 0x04, 0x05, 0x03, 0x05, 0x07, 0x07, 0x04, 0x04, 0x03, 0x0A, 0x04, 0x0B, 0x04, 0x08, 0x03,
	0x01, 0x02, 0x02, 0x05, 0x03, 0x04, 0x05, 0x07, 0x02, 0x06, 0x05, 0x07, 0x04, 0x0C, 0x0A, 0x04,
	0x02, 0x05, 0x06, 0x07, 0x05, 0x0A, 0x07, 0x04, 0x06, 0x08, 0x0E, 0x04, 0x07, 0x04, 0x09, 0x03,
	0x03, 0x04, 0x04, 0x03, 0x05, 0x0A, 0x0B, 0x04, 0x04, 0x0C, 0x03, 0x04, 0x07, 0x04, 0x04, 0x03,
	0x04, 0x03, 0x07, 0x04, 0x0B, 0x04, 0x08, 0x03, 0x0C, 0x04, 0x04, 0x03, 0x08, 0x03, 0x02, 0x01,
	0x01, 0x03, 0x02, 0x04, 0x02, 0x04, 0x06, 0x0C, 0x03, 0x05, 0x04, 0x03, 0x04, 0x03, 0x0C, 0x04,
	0x02, 0x04, 0x06, 0x0C, 0x06, 0x0C, 0x08, 0x04, 0x05, 0x07, 0x0A, 0x04, 0x0A, 0x04, 0x04, 0x03,
	0x02, 0x06, 0x05, 0x07, 0x06, 0x08, 0x0A, 0x04, 0x04, 0x0C, 0x03, 0x04, 0x0A, 0x04, 0x04, 0x03,
	0x05, 0x0A, 0x07, 0x04, 0x07, 0x04, 0x04, 0x03, 0x03, 0x04, 0x04, 0x03, 0x04, 0x03, 0x02, 0x01,
	0x03, 0x05, 0x05, 0x0B, 0x04, 0x03, 0x0A, 0x04, 0x05, 0x07, 0x0B, 0x04, 0x03, 0x04, 0x04, 0x03,
	0x05, 0x0B, 0x07, 0x04, 0x0A, 0x04, 0x04, 0x03, 0x07, 0x08, 0x04, 0x03, 0x04, 0x03, 0x02, 0x01,
	0x04, 0x0A, 0x07, 0x04, 0x03, 0x04, 0x04, 0x03, 0x0C, 0x04, 0x04, 0x03, 0x04, 0x03, 0x02, 0x01,
	0x03, 0x04, 0x04, 0x03, 0x04, 0x03, 0x02, 0x01, 0x04, 0x03, 0x02, 0x01, 0x02, 0x01, 0x01, 0x00,
}

// regularCellData holds the canonical triangulations for the sixteen
// cases whose solid corners all lie on the bottom ring (case index < 16).
// Entries are edge indices, 0xFF-terminated; triangles are wound so their
// normals point out of the solid.
var regularCellData = [16][12]uint8{
	{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
	{0x00, 0x08, 0x03, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
	{0x00, 0x01, 0x09, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
	{0x01, 0x08, 0x03, 0x09, 0x08, 0x01, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
	{0x01, 0x02, 0x0A, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
	{0x00, 0x08, 0x03, 0x01, 0x02, 0x0A, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
	{0x09, 0x02, 0x0A, 0x00, 0x02, 0x09, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
	{0x02, 0x08, 0x03, 0x02, 0x0A, 0x08, 0x0A, 0x09, 0x08, 0xFF, 0xFF, 0xFF},
	{0x03, 0x0B, 0x02, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
	{0x00, 0x0B, 0x02, 0x08, 0x0B, 0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
	{0x01, 0x09, 0x00, 0x02, 0x03, 0x0B, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
	{0x01, 0x0B, 0x02, 0x01, 0x09, 0x0B, 0x09, 0x08, 0x0B, 0xFF, 0xFF, 0xFF},
	{0x03, 0x0A, 0x01, 0x03, 0x0B, 0x0A, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
	{0x00, 0x0A, 0x01, 0x00, 0x08, 0x0A, 0x08, 0x0B, 0x0A, 0xFF, 0xFF, 0xFF},
	{0x03, 0x09, 0x00, 0x03, 0x0B, 0x09, 0x0B, 0x0A, 0x09, 0xFF, 0xFF, 0xFF},
	{0x09, 0x08, 0x0B, 0x0B, 0x08, 0x0A, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
}

// cellEdges lists the corner pair of each of the twelve cell edges:
// bottom ring, top ring, then the four verticals.
var cellEdges = [12][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 0},
	{4, 5}, {5, 6}, {6, 7}, {7, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// cornerOffset gives each corner's (x, y, z) offset within the cell.
var cornerOffset = [8][3]int{
	{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1},
	{0, 1, 0}, {1, 1, 0}, {1, 1, 1}, {0, 1, 1},
}

// cellFaces lists the corner cycle and the matching edge cycle of each
// cube face (edge i of the cycle joins corner i to corner i+1). Used to
// pair edge crossings into surface polygons.
var cellFaces = [6]struct {
	corners [4]int
	edges   [4]int
}{
	{[4]int{0, 1, 2, 3}, [4]int{0, 1, 2, 3}},    // y=0
	{[4]int{4, 7, 6, 5}, [4]int{7, 6, 5, 4}},    // y=1
	{[4]int{0, 3, 7, 4}, [4]int{3, 11, 7, 8}},   // x=0
	{[4]int{1, 5, 6, 2}, [4]int{9, 5, 10, 1}},   // x=1
	{[4]int{0, 4, 5, 1}, [4]int{8, 4, 9, 0}},    // z=0
	{[4]int{3, 2, 6, 7}, [4]int{2, 10, 6, 11}},  // z=1
}
