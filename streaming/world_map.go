package streaming

import (
	"context"
	"fmt"
	"sort"

	"github.com/gekko3d/voxstream/logging"
	"github.com/gekko3d/voxstream/render"
	"github.com/gekko3d/voxstream/voxel"
)

type SlotState int

const (
	Absent SlotState = iota
	Pending
	Ready
)

func (s SlotState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	default:
		return "absent"
	}
}

type slot struct {
	state SlotState
	epoch uint64
	chunk *voxel.Chunk
}

type Options struct {
	Radius         int32
	GenerationRate float64
	Workers        int
	Generator      voxel.Generator
	Logger         logging.Logger
}

// Stats is a point-in-time summary of the map.
type Stats struct {
	Resident  int
	Pending   int
	Ready     int
	Removed   int
	InFlight  int
	Attached  uint64
	Discarded uint64
	Failed    uint64
}

// Map tracks which chunks exist around the observers. Generation runs on a
// Pool; everything else runs on the caller's goroutine.
type Map struct {
	radius   int32
	genLimit int
	logger   logging.Logger
	pool     *Pool

	slots   map[voxel.ChunkCoord]*slot
	removed []voxel.ChunkCoord
	epoch   uint64

	attached  uint64
	discarded uint64
	failed    uint64
}

func NewMap(opts Options) *Map {
	if opts.Radius < 1 {
		opts.Radius = 1
	}
	if opts.Generator == nil {
		opts.Generator = voxel.HeightGenerator{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	return &Map{
		radius:   opts.Radius,
		genLimit: GenerationLimit(opts.Radius, opts.GenerationRate),
		logger:   opts.Logger,
		pool:     NewPool(opts.Generator, opts.Workers, opts.Logger),
		slots:    make(map[voxel.ChunkCoord]*slot),
	}
}

// Begin starts background generation.
func (m *Map) Begin(ctx context.Context) {
	m.pool.Start(ctx)
}

// End forgets every slot and stops background generation. Resident
// coordinates go to the removal list so the next Extract empties the renderer.
func (m *Map) End() {
	m.Clear()
	m.pool.Stop()
}

func (m *Map) Radius() int32 {
	return m.radius
}

func (m *Map) GenerationLimit() int {
	return m.genLimit
}

// Update recomputes the expected set as the union of the spheres around all
// observers, evicts slots outside it and requests generation for missing
// coordinates. Calling it again with the same observers changes nothing.
func (m *Map) Update(observers ...voxel.ChunkCoord) {
	expected := UnionExpectedSet(observers, m.radius)

	evicted := 0
	for _, coord := range sortedCoords(m.slots) {
		if _, ok := expected[coord]; ok {
			continue
		}
		delete(m.slots, coord)
		m.removed = append(m.removed, coord)
		evicted++
	}

	var missing []voxel.ChunkCoord
	for coord := range expected {
		if _, ok := m.slots[coord]; !ok {
			missing = append(missing, coord)
		}
	}
	sortByDistance(missing, observers)

	for _, coord := range missing {
		m.epoch++
		m.slots[coord] = &slot{state: Pending, epoch: m.epoch}
		m.pool.Submit(Job{Coord: coord, Epoch: m.epoch})
	}

	if evicted > 0 || len(missing) > 0 {
		m.logger.Debugf("observers %v: %d requested, %d evicted, %d resident", observers, len(missing), evicted, len(m.slots))
	}
}

// Poll attaches finished generations, at most GenerationLimit per call.
// Results for slots that were evicted or re-requested since dispatch are
// dropped. A failed generation frees its slot so the next Update that still
// expects the coordinate requests it again. Returns the number attached.
func (m *Map) Poll() int {
	n := 0
	for n < m.genLimit {
		res, ok := m.pool.TryReceive()
		if !ok {
			break
		}
		m.pool.received()

		s, ok := m.slots[res.Coord]
		if !ok || s.state != Pending || s.epoch != res.Epoch {
			m.discarded++
			m.logger.Debugf("discarding stale chunk %v (epoch %d)", res.Coord, res.Epoch)
			continue
		}
		if res.Err != nil {
			delete(m.slots, res.Coord)
			m.failed++
			m.logger.Warnf("chunk %v failed: %v", res.Coord, res.Err)
			continue
		}
		s.chunk = res.Chunk
		s.state = Ready
		m.attached++
		n++
	}
	return n
}

// Extract snapshots every dirty ready chunk and drains the removal list.
func (m *Map) Extract() render.Extraction {
	var ex render.Extraction
	for _, coord := range sortedCoords(m.slots) {
		s := m.slots[coord]
		if s.state != Ready {
			continue
		}
		if s.chunk == nil {
			panic(fmt.Sprintf("chunk slot %v is ready but holds no chunk", coord))
		}
		if instances, ok := s.chunk.Extract(coord); ok {
			ex.Chunks = append(ex.Chunks, render.ChunkInstances{Coord: coord, Instances: instances})
		}
	}
	if len(m.removed) > 0 {
		ex.Removed = m.removed
		m.removed = nil
	}
	return ex
}

// Clear evicts every slot.
func (m *Map) Clear() {
	for _, coord := range sortedCoords(m.slots) {
		m.removed = append(m.removed, coord)
	}
	m.slots = make(map[voxel.ChunkCoord]*slot)
}

// State returns the lifecycle state of coord.
func (m *Map) State(coord voxel.ChunkCoord) SlotState {
	if s, ok := m.slots[coord]; ok {
		return s.state
	}
	return Absent
}

// Chunk returns the attached chunk for coord, nil unless ready.
func (m *Map) Chunk(coord voxel.ChunkCoord) *voxel.Chunk {
	if s, ok := m.slots[coord]; ok {
		return s.chunk
	}
	return nil
}

// Resident returns every coordinate with a slot, sorted.
func (m *Map) Resident() []voxel.ChunkCoord {
	return sortedCoords(m.slots)
}

func (m *Map) Stats() Stats {
	st := Stats{
		Resident:  len(m.slots),
		Removed:   len(m.removed),
		InFlight:  m.pool.InFlight(),
		Attached:  m.attached,
		Discarded: m.discarded,
		Failed:    m.failed,
	}
	for _, s := range m.slots {
		switch s.state {
		case Pending:
			st.Pending++
		case Ready:
			st.Ready++
		}
	}
	return st
}

func lessCoord(a, b voxel.ChunkCoord) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.Z < b.Z
}

func sortedCoords(slots map[voxel.ChunkCoord]*slot) []voxel.ChunkCoord {
	out := make([]voxel.ChunkCoord, 0, len(slots))
	for c := range slots {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return lessCoord(out[i], out[j]) })
	return out
}

// sortByDistance orders coords nearest-observer first so close chunks are
// generated before distant ones.
func sortByDistance(coords []voxel.ChunkCoord, observers []voxel.ChunkCoord) {
	dist := func(c voxel.ChunkCoord) int64 {
		best := int64(-1)
		for _, o := range observers {
			d := c.Sub(o).LengthSq()
			if best < 0 || d < best {
				best = d
			}
		}
		return best
	}
	sort.Slice(coords, func(i, j int) bool {
		di, dj := dist(coords[i]), dist(coords[j])
		if di != dj {
			return di < dj
		}
		return lessCoord(coords[i], coords[j])
	})
}
