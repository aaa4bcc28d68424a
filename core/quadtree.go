package core

// The quadtree stores nodes in one arena per cube face. Children always
// live on their parent's face, so parent/child references are plain int32
// slots into the face arena and only neighbor lookups ever cross faces.
// This keeps the structure cycle-free and lets frame updates edit the six
// face arenas in parallel: an editor goroutine for face F touches only
// arena F, and anything that would have to read or grow another face's
// arena is handed back to the caller for a serial fixup pass.

const nilSlot = int32(-1)

// NodeID addresses a node: its cube face and arena slot.
type NodeID struct {
	Face Face
	Slot int32
}

// NilNode is the zero-value invalid node address.
var NilNode = NodeID{Face: 0xFF, Slot: nilSlot}

// Valid reports whether the id addresses a node.
func (id NodeID) Valid() bool { return id.Slot >= 0 && id.Face < FaceCount }

// Node is one quadtree cell. Exported fields are written by the LOD pass
// and read by the meshing stages; the tree topology fields are managed by
// Quadtree methods only.
type Node struct {
	Patch Patch

	parent    int32
	children  [4]int32
	quadrant  int8
	allocated bool

	// Seq distinguishes reincarnations of a recycled arena slot; it is
	// the stable identity used by mesh caches.
	Seq uint64

	Error       float64
	Morph       float64
	MorphTarget float64
	Visible     bool

	// NeighborLevels holds, per edge, the level of the finest adjacent
	// leaf as of the last LOD pass. Filled for visible leaves.
	NeighborLevels [4]int
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return n.children[0] == nilSlot }

// ID of the slot a node's child occupies.
func (n *Node) child(i int) int32 { return n.children[i] }

type faceArena struct {
	nodes []Node
	free  []int32
}

func (a *faceArena) alloc() int32 {
	if n := len(a.free); n > 0 {
		s := a.free[n-1]
		a.free = a.free[:n-1]
		return s
	}
	a.nodes = append(a.nodes, Node{})
	return int32(len(a.nodes) - 1)
}

func (a *faceArena) release(s int32) {
	a.nodes[s] = Node{allocated: false, Seq: a.nodes[s].Seq}
	a.free = append(a.free, s)
}

// Quadtree is the six-rooted spherical quadtree.
type Quadtree struct {
	faces   [FaceCount]faceArena
	roots   [FaceCount]int32
	nextSeq uint64

	// MinLevel is the floor below which merges never go; the original
	// renderer keeps 24 base patches (level 1) at all times.
	MinLevel int
	MaxLevel int
}

// NewQuadtree builds the six root patches and subdivides every face down
// to minLevel.
func NewQuadtree(minLevel, maxLevel int) *Quadtree {
	t := &Quadtree{MinLevel: minLevel, MaxLevel: maxLevel, nextSeq: 1}
	roots := RootPatches()
	for f := 0; f < FaceCount; f++ {
		s := t.faces[f].alloc()
		n := &t.faces[f].nodes[s]
		*n = Node{
			Patch:    roots[f],
			parent:   nilSlot,
			children: [4]int32{nilSlot, nilSlot, nilSlot, nilSlot},
			quadrant: -1,
			Seq:      t.seq(),
		}
		n.allocated = true
		t.roots[f] = s
	}
	for level := 0; level < minLevel; level++ {
		for f := 0; f < FaceCount; f++ {
			t.walkFace(Face(f), func(id NodeID) {
				n := t.Node(id)
				if n.IsLeaf() && n.Patch.Level == level {
					t.Subdivide(id) //nolint:errcheck // roots are never degenerate
				}
			})
		}
	}
	return t
}

func (t *Quadtree) seq() uint64 {
	s := t.nextSeq
	t.nextSeq++
	return s
}

// Node returns the node at id. The pointer stays valid until the next
// structural edit of the same face.
func (t *Quadtree) Node(id NodeID) *Node {
	return &t.faces[id.Face].nodes[id.Slot]
}

// Root returns the id of a face's root node.
func (t *Quadtree) Root(f Face) NodeID {
	return NodeID{Face: f, Slot: t.roots[f]}
}

// Len returns the number of live nodes.
func (t *Quadtree) Len() int {
	total := 0
	for f := range t.faces {
		total += len(t.faces[f].nodes) - len(t.faces[f].free)
	}
	return total
}

// Alive reports whether the id addresses a currently allocated node.
// Deferred tree edits use it to skip actions whose target was released
// by an earlier edit in the same frame.
func (t *Quadtree) Alive(id NodeID) bool {
	return id.Valid() && int(id.Slot) < len(t.faces[id.Face].nodes) &&
		t.faces[id.Face].nodes[id.Slot].allocated
}

// Parent returns the parent id, or NilNode for roots.
func (t *Quadtree) Parent(id NodeID) NodeID {
	p := t.Node(id).parent
	if p == nilSlot {
		return NilNode
	}
	return NodeID{Face: id.Face, Slot: p}
}

// Child returns the id of the i-th child (ChildBL..ChildTL).
func (t *Quadtree) Child(id NodeID, i int) NodeID {
	c := t.Node(id).children[i]
	if c == nilSlot {
		return NilNode
	}
	return NodeID{Face: id.Face, Slot: c}
}

// LeafAt descends to the leaf whose UV rectangle contains (u, v) on the
// given face. Points on a shared child boundary resolve to the higher
// quadrant.
func (t *Quadtree) LeafAt(face Face, u, v float64) NodeID {
	id := t.Root(face)
	for {
		n := t.Node(id)
		if n.IsLeaf() {
			return id
		}
		mu := (n.Patch.U0 + n.Patch.U1) * 0.5
		mv := (n.Patch.V0 + n.Patch.V1) * 0.5
		q := ChildBL
		switch {
		case u >= mu && v >= mv:
			q = ChildTR
		case u >= mu:
			q = ChildBR
		case v >= mv:
			q = ChildTL
		}
		id = t.Child(id, q)
	}
}

// Subdivide splits a leaf into four children. The children are validated
// before any of them is attached: a degenerate child aborts the whole
// subdivision and leaves the tree unchanged.
func (t *Quadtree) Subdivide(id NodeID) error {
	n := t.Node(id)
	if !n.IsLeaf() {
		return nil
	}
	quads := n.Patch.Subdivide()
	for i := range quads {
		if err := quads[i].Validate(); err != nil {
			return err
		}
	}
	a := &t.faces[id.Face]
	for i := range quads {
		s := a.alloc()
		// alloc may grow the slice; re-resolve the parent pointer.
		n = t.Node(id)
		c := &a.nodes[s]
		*c = Node{
			Patch:    quads[i],
			parent:   id.Slot,
			children: [4]int32{nilSlot, nilSlot, nilSlot, nilSlot},
			quadrant: int8(i),
			Seq:      t.seq(),
			Morph:    1, // new leaves start fully morphed toward the parent shape
			// Inherit the parent's visibility and error so the frame that
			// created the children can mesh and draw them without waiting
			// for the next LOD pass.
			Visible: n.Visible,
			Error:   n.Error,
		}
		c.allocated = true
		n.children[i] = s
	}
	return nil
}

// Merge removes the entire subtree below a node, making it a leaf.
func (t *Quadtree) Merge(id NodeID) {
	n := t.Node(id)
	for i := 0; i < 4; i++ {
		c := n.children[i]
		if c == nilSlot {
			continue
		}
		t.Merge(NodeID{Face: id.Face, Slot: c})
		t.faces[id.Face].release(c)
		n = t.Node(id)
		n.children[i] = nilSlot
	}
}

// FindNeighbor locates the node adjacent to id across the given edge, at
// the same level when the neighbor subtree is deep enough, otherwise the
// deepest coarser ancestor. It also returns which of the neighbor's edges
// is shared and whether the two edge parameterizations run in opposite
// directions.
func (t *Quadtree) FindNeighbor(id NodeID, e Edge) (NodeID, Edge, bool) {
	n := t.Node(id)
	if n.parent == nilSlot {
		link := faceAdjacency[id.Face][e]
		return t.Root(link.Face), link.Edge, link.Reversed
	}
	if s := innerNeighbor[e][n.quadrant]; s >= 0 {
		return NodeID{Face: id.Face, Slot: t.faces[id.Face].nodes[n.parent].children[s]}, e.Opposite(), false
	}
	pm, pe, flip := t.FindNeighbor(NodeID{Face: id.Face, Slot: n.parent}, e)
	p := t.Node(pm)
	if p.IsLeaf() {
		return pm, pe, flip
	}
	slot := edgeSlot(e, int(n.quadrant))
	if flip {
		slot = 1 - slot
	}
	return NodeID{Face: pm.Face, Slot: p.children[edgeChildren[pe][slot]]}, pe, flip
}

// neighborLeafLevel returns the level of the finest leaf adjacent to id
// across edge e. Under 2:1 balance this is at most id's level plus one.
func (t *Quadtree) neighborLeafLevel(id NodeID, e Edge) int {
	m, _, _ := t.FindNeighbor(id, e)
	n := t.Node(m)
	if n.IsLeaf() {
		return n.Patch.Level
	}
	return n.Patch.Level + 1
}

// UpdateNeighborLevels refreshes the per-edge adjacent leaf levels of a
// leaf node, used by the mesh generator for T-junction stitching.
func (t *Quadtree) UpdateNeighborLevels(id NodeID) {
	n := t.Node(id)
	for e := Edge(0); e < EdgeCount; e++ {
		n.NeighborLevels[e] = t.neighborLeafLevel(id, e)
	}
}

// SubdivideBalanced subdivides a leaf, first force-subdividing any
// adjacent coarser leaves (cascading outward, across faces if needed) so
// the 2:1 level balance holds afterwards. Returns the number of forced
// subdivisions.
func (t *Quadtree) SubdivideBalanced(id NodeID) (int, error) {
	forced := 0
	level := t.Node(id).Patch.Level
	for e := Edge(0); e < EdgeCount; e++ {
		for {
			m, _, _ := t.FindNeighbor(id, e)
			if t.Node(m).Patch.Level >= level || !t.Node(m).IsLeaf() {
				break
			}
			f, err := t.SubdivideBalanced(m)
			forced += f + 1
			if err != nil {
				return forced, err
			}
		}
	}
	return forced, t.Subdivide(id)
}

// SubdivideLocal is the face-parallel variant of SubdivideBalanced: the
// cascade stays within id's face, and every edge whose balancing would
// require reading or editing another face is reported in deferred for the
// caller's serial fixup pass.
func (t *Quadtree) SubdivideLocal(id NodeID, deferred *[]NodeID) (int, error) {
	forced := 0
	level := t.Node(id).Patch.Level
	crossFace := false
	for e := Edge(0); e < EdgeCount; e++ {
		if t.edgeCrossesFace(id, e) {
			crossFace = true
			continue
		}
		for {
			m, _, _ := t.FindNeighbor(id, e)
			if t.Node(m).Patch.Level >= level || !t.Node(m).IsLeaf() {
				break
			}
			f, err := t.SubdivideLocal(m, deferred)
			forced += f + 1
			if err != nil {
				return forced, err
			}
		}
	}
	if crossFace {
		*deferred = append(*deferred, id)
	}
	return forced, t.Subdivide(id)
}

// EnsureBalanced force-subdivides coarser leaves adjacent to id on any
// face. Serial-only: it may edit arenas of several faces.
func (t *Quadtree) EnsureBalanced(id NodeID) (int, error) {
	n := t.Node(id)
	if !n.allocated {
		return 0, nil
	}
	forced := 0
	level := n.Patch.Level
	for e := Edge(0); e < EdgeCount; e++ {
		for {
			m, _, _ := t.FindNeighbor(id, e)
			if t.Node(m).Patch.Level >= level || !t.Node(m).IsLeaf() {
				break
			}
			f, err := t.SubdivideBalanced(m)
			forced += f + 1
			if err != nil {
				return forced, err
			}
		}
	}
	return forced, nil
}

// edgeCrossesFace reports whether the given edge of a node lies on its
// cube face's boundary.
func (t *Quadtree) edgeCrossesFace(id NodeID, e Edge) bool {
	p := &t.Node(id).Patch
	switch e {
	case EdgeTop:
		return p.V1 >= 1
	case EdgeRight:
		return p.U1 >= 1
	case EdgeBottom:
		return p.V0 <= 0
	default:
		return p.U0 <= 0
	}
}

// TouchesFaceBoundary reports whether any edge of the node lies on the
// face boundary. Boundary nodes are edited serially.
func (t *Quadtree) TouchesFaceBoundary(id NodeID) bool {
	p := &t.Node(id).Patch
	return p.U0 <= 0 || p.V0 <= 0 || p.U1 >= 1 || p.V1 >= 1
}

// CanMerge reports whether collapsing the node's children would keep the
// tree balanced: all four children are leaves and no adjacent subtree is
// two levels deeper. localOnly restricts the check to this face; when a
// cross-face lookup would be needed the check fails with needsCross set.
func (t *Quadtree) CanMerge(id NodeID, localOnly bool) (ok, needsCross bool) {
	n := t.Node(id)
	if n.IsLeaf() || n.Patch.Level < t.MinLevel {
		return false, false
	}
	for i := 0; i < 4; i++ {
		c := t.Child(id, i)
		if !t.Node(c).IsLeaf() {
			return false, false
		}
	}
	// After the merge the node is a leaf at its own level; any neighbor
	// leaf deeper than level+1 would violate balance.
	for e := Edge(0); e < EdgeCount; e++ {
		if localOnly && t.edgeCrossesFace(id, e) {
			return false, true
		}
		m, me, _ := t.FindNeighbor(id, e)
		mn := t.Node(m)
		if mn.IsLeaf() {
			continue
		}
		for _, ci := range edgeChildren[me] {
			c := mn.children[ci]
			if c != nilSlot && !t.faces[m.Face].nodes[c].IsLeaf() {
				return false, false
			}
		}
	}
	return true, false
}

// Leaves visits every leaf in deterministic order: faces in index order,
// children in BL, BR, TR, TL order.
func (t *Quadtree) Leaves(visit func(NodeID)) {
	for f := 0; f < FaceCount; f++ {
		t.walkFace(Face(f), func(id NodeID) {
			if t.Node(id).IsLeaf() {
				visit(id)
			}
		})
	}
}

// Walk visits every node depth-first in deterministic order.
func (t *Quadtree) Walk(visit func(NodeID)) {
	for f := 0; f < FaceCount; f++ {
		t.walkFace(Face(f), visit)
	}
}

func (t *Quadtree) walkFace(f Face, visit func(NodeID)) {
	var rec func(id NodeID)
	rec = func(id NodeID) {
		visit(id)
		n := t.Node(id)
		if n.IsLeaf() {
			return
		}
		children := n.children
		for i := 0; i < 4; i++ {
			rec(NodeID{Face: f, Slot: children[i]})
		}
	}
	rec(t.Root(f))
}

// CheckBalance verifies the 2:1 invariant over the whole tree, returning
// the first violation found.
func (t *Quadtree) CheckBalance() error {
	var firstErr error
	t.Leaves(func(id NodeID) {
		if firstErr != nil {
			return
		}
		n := t.Node(id)
		for e := Edge(0); e < EdgeCount; e++ {
			m, me, _ := t.FindNeighbor(id, e)
			mn := t.Node(m)
			if mn.IsLeaf() {
				continue
			}
			for _, ci := range edgeChildren[me] {
				c := mn.children[ci]
				if c != nilSlot && !t.faces[m.Face].nodes[c].IsLeaf() {
					firstErr = &LevelBalanceError{
						Face:          id.Face,
						Level:         n.Patch.Level,
						NeighborFace:  m.Face,
						NeighborLevel: mn.Patch.Level + 2,
						Edge:          e,
					}
					return
				}
			}
		}
	})
	return firstErr
}
