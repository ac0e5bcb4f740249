package spatial

import (
	"math"
	"sort"
	"sync"

	"github.com/aukilabs/zonecull/geometry"
	"github.com/aukilabs/zonecull/models"
	"github.com/go-gl/mathgl/mgl32"
)

// Regular Grid
//
// An uniformly sub-divided grid implementing the Container interface.
// The particularities are:
//   - the grid has a resolution that defines how large a cell is. For example,
//     a resolution of 1 makes each cell hold a 1x1 meter subdivision of the
//     world, while a resolution of 100 makes each cell hold 100x100 meters.
//   - cells subdivide the horizontal (xz) plane only. Objects are stored in
//     every cell their world box covers, whatever their height.
//   - the grid grows to fit the objects inserted into it.
//   - objects with global bounds are kept aside and returned by every query.
type Grid struct {
	mutex       sync.RWMutex
	Resolution  float32
	ObjectCount uint32
	Min         mgl32.Vec3
	Max         mgl32.Vec3
	Cells       [][][]*models.SceneObject

	global     []*models.SceneObject
	placements map[*models.SceneObject]geometry.Box
}

func NewGrid(numCols uint, numRows uint, resolution float32) *Grid {
	if numCols == 0 {
		numCols = 1
	}
	if numRows == 0 {
		numRows = 1
	}
	if resolution <= 0 {
		resolution = 1
	}

	g := &Grid{
		Resolution: resolution,
		Min:        mgl32.Vec3{0, 0, 0},
		Max:        mgl32.Vec3{float32(numCols) * resolution, 0, float32(numRows) * resolution},
		Cells:      make([][][]*models.SceneObject, numRows),
		placements: make(map[*models.SceneObject]geometry.Box),
	}

	for i := range g.Cells {
		g.Cells[i] = make([][]*models.SceneObject, numCols)
	}
	return g
}

func (g *Grid) Insert(o *models.SceneObject) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.insert(o)
}

func (g *Grid) insert(o *models.SceneObject) {
	if _, ok := g.placements[o]; ok {
		return
	}

	b := o.WorldBox()
	g.placements[o] = b
	g.ObjectCount++

	if o.HasGlobalBounds() {
		g.global = append(g.global, o)
		return
	}

	// fit the min & max:
	g.ExpandToFitPoint(b.Min)
	g.ExpandToFitPoint(b.Max)

	minX, minZ := g.cellCoords(b.Min)
	maxX, maxZ := g.cellCoords(b.Max)
	for z := minZ; z <= maxZ; z++ {
		for x := minX; x <= maxX; x++ {
			g.Cells[z][x] = append(g.Cells[z][x], o)
		}
	}
}

// Remove removes the object from the grid. It returns false when the object
// was not inserted.
func (g *Grid) Remove(o *models.SceneObject) bool {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	return g.remove(o)
}

func (g *Grid) remove(o *models.SceneObject) bool {
	b, ok := g.placements[o]
	if !ok {
		return false
	}

	delete(g.placements, o)
	g.ObjectCount--

	if o.HasGlobalBounds() {
		g.global = removeObject(g.global, o)
		return true
	}

	minX, minZ := g.cellCoords(b.Min)
	maxX, maxZ := g.cellCoords(b.Max)
	for z := minZ; z <= maxZ; z++ {
		for x := minX; x <= maxX; x++ {
			g.Cells[z][x] = removeObject(g.Cells[z][x], o)
		}
	}
	return true
}

// Update moves the object to the cells covered by its current world box.
func (g *Grid) Update(o *models.SceneObject) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if b, ok := g.placements[o]; ok && b == o.WorldBox() {
		return
	}

	g.remove(o)
	g.insert(o)
}

func (g *Grid) FindObjectList(b geometry.Box, mask models.TypeMask) []*models.SceneObject {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	seen := make(map[*models.SceneObject]struct{})
	var objects []*models.SceneObject

	add := func(o *models.SceneObject) {
		if _, ok := seen[o]; ok || !o.TypeMask.Matches(mask) {
			return
		}
		seen[o] = struct{}{}
		objects = append(objects, o)
	}

	for _, o := range g.global {
		add(o)
	}

	if b.IsValid() {
		// clamp input to grid size:
		minX, minZ := g.cellCoords(b.Min)
		maxX, maxZ := g.cellCoords(b.Max)

		for z := minZ; z <= maxZ; z++ {
			for x := minX; x <= maxX; x++ {
				for _, o := range g.Cells[z][x] {
					if o.WorldBox().Overlaps(b) {
						add(o)
					}
				}
			}
		}
	}

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].ID < objects[j].ID
	})
	return objects
}

// FindObjects calls fn outside of the grid lock, so fn may modify the grid.
func (g *Grid) FindObjects(b geometry.Box, mask models.TypeMask, fn func(*models.SceneObject)) {
	for _, o := range g.FindObjectList(b, mask) {
		fn(o)
	}
}

// CastRay walks the cells crossed by the ray in the xz plane, from the
// closest to the farthest, and returns the first object hit.
func (g *Grid) CastRay(r geometry.Ray, mask models.TypeMask) (*models.SceneObject, float32) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	dir := r.To.Sub(r.From)

	// clip the ray to the grid:
	bounds := geometry.NewBox(
		mgl32.Vec3{g.Min[0], -geometry.WorldExtent, g.Min[2]},
		mgl32.Vec3{g.Max[0], geometry.WorldExtent, g.Max[2]},
	)
	hit, tEnter := geometry.IntersectBox(r, bounds)
	if !hit {
		return nil, -1
	}

	entry := r.From.Add(dir.Mul(tEnter))
	x, z := g.cellCoords(entry)

	stepX, tMaxX, tDeltaX := g.traversalAxis(r.From[0], dir[0], g.Min[0], x)
	stepZ, tMaxZ, tDeltaZ := g.traversalAxis(r.From[2], dir[2], g.Min[2], z)

	var best *models.SceneObject
	bestT := float32(math.Inf(1))

	for {
		for _, o := range g.Cells[z][x] {
			if !o.TypeMask.Matches(mask) {
				continue
			}
			if hit, t := geometry.IntersectBox(r, o.WorldBox()); hit && t < bestT {
				best, bestT = o, t
			}
		}

		cellExit := min(tMaxX, tMaxZ)
		if best != nil && bestT <= cellExit {
			break
		}
		if cellExit > 1 {
			break
		}

		// pick next cell:
		if tMaxX < tMaxZ {
			x += stepX
			tMaxX += tDeltaX
		} else {
			z += stepZ
			tMaxZ += tDeltaZ
		}

		if x < 0 || z < 0 || z >= len(g.Cells) || x >= len(g.Cells[z]) {
			break
		}
	}

	if best == nil {
		return nil, -1
	}
	return best, bestT
}

// traversalAxis returns the step direction, the ray parameter at which the
// next cell boundary is crossed, and the parameter delta between two
// boundaries, for one axis.
func (g *Grid) traversalAxis(from, dir, gridMin float32, cell int) (int, float32, float32) {
	inf := float32(math.Inf(1))
	if dir == 0 {
		return 0, inf, inf
	}

	delta := g.Resolution / float32(math.Abs(float64(dir)))
	if dir > 0 {
		boundary := gridMin + float32(cell+1)*g.Resolution
		return 1, (boundary - from) / dir, delta
	}

	boundary := gridMin + float32(cell)*g.Resolution
	return -1, (boundary - from) / dir, delta
}

func (g *Grid) GetDebugInfo() DebugInfo {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	result := DebugInfo{
		Resolution:  g.Resolution,
		RowCount:    uint32(len(g.Cells)),
		ColCount:    uint32(len(g.Cells[0])),
		ObjectCount: g.ObjectCount,
		GlobalCount: uint32(len(g.global)),
		MinPoint:    g.Min,
		MaxPoint:    g.Max,
	}

	result.Occupancy = make([]uint32, result.RowCount*result.ColCount)
	for z := uint32(0); z < result.RowCount; z++ {
		for x := uint32(0); x < result.ColCount; x++ {
			result.Occupancy[z*result.ColCount+x] = uint32(len(g.Cells[z][x]))
		}
	}
	return result
}

// ExpandToFitPoint grows the grid so that p falls in a cell.
//
// NOTE: cell limits are in the range [min..max[, meaning that for a
// resolution of 1, the point at x = 1 is in cell 1.
func (g *Grid) ExpandToFitPoint(p mgl32.Vec3) {
	if p[0] >= g.Min[0] && p[2] >= g.Min[2] && p[0] < g.Max[0] && p[2] < g.Max[2] {
		return
	}

	// Add columns:
	switch {
	case p[0] < g.Min[0]:
		n := g.cellsToAdd(g.Min[0] - p[0])
		for i := range g.Cells {
			g.Cells[i] = append(make([][]*models.SceneObject, n), g.Cells[i]...)
		}
		g.Min[0] -= float32(n) * g.Resolution

	case p[0] >= g.Max[0]:
		n := int(math.Floor(float64((p[0]-g.Max[0])/g.Resolution))) + 1
		for i := range g.Cells {
			g.Cells[i] = append(g.Cells[i], make([][]*models.SceneObject, n)...)
		}
		g.Max[0] += float32(n) * g.Resolution
	}

	cols := len(g.Cells[0])

	// Add rows:
	switch {
	case p[2] < g.Min[2]:
		n := g.cellsToAdd(g.Min[2] - p[2])
		rows := make([][][]*models.SceneObject, n)
		for i := range rows {
			rows[i] = make([][]*models.SceneObject, cols)
		}
		g.Cells = append(rows, g.Cells...)
		g.Min[2] -= float32(n) * g.Resolution

	case p[2] >= g.Max[2]:
		n := int(math.Floor(float64((p[2]-g.Max[2])/g.Resolution))) + 1
		for i := 0; i < n; i++ {
			g.Cells = append(g.Cells, make([][]*models.SceneObject, cols))
		}
		g.Max[2] += float32(n) * g.Resolution
	}
}

func (g *Grid) cellsToAdd(distance float32) int {
	return int(math.Ceil(float64(distance / g.Resolution)))
}

// cellCoords returns the cell containing p, clamped to the grid.
func (g *Grid) cellCoords(p mgl32.Vec3) (int, int) {
	x := math.Floor(float64((p[0] - g.Min[0]) / g.Resolution))
	z := math.Floor(float64((p[2] - g.Min[2]) / g.Resolution))

	x = math.Max(0, math.Min(x, float64(len(g.Cells[0])-1)))
	z = math.Max(0, math.Min(z, float64(len(g.Cells)-1)))
	return int(x), int(z)
}

func removeObject(objects []*models.SceneObject, o *models.SceneObject) []*models.SceneObject {
	for i, obj := range objects {
		if obj == o {
			objects[i] = objects[len(objects)-1]
			objects[len(objects)-1] = nil
			return objects[:len(objects)-1]
		}
	}
	return objects
}
