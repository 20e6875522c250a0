// Package light recomputes sky light incrementally after block changes.
//
// Updates are positions whose sky light may be stale. Propagate pops them
// newest first, recomputes each from its six neighbours and queues the
// neighbours whose value is now more than one step away. The same position
// may sit in the queue several times; recomputing it is idempotent.
//
// An opaque neighbour contributes 0 whatever sky light is stored for it,
// so light never leaks through a solid block. Neighbours in unloaded chunks
// and above the world contribute full light, those below it contribute 0.
package light

// MaxLight is full sunlight.
const MaxLight = 15

// DefaultBudget is how many updates Propagate processes per call.
const DefaultBudget = 4096

const (
	minY = 0
	maxY = 255
)

// Pos is a block position in world coordinates.
type Pos struct {
	X, Y, Z int
}

// Access is the view of the world the propagator works on.
type Access interface {
	// Contains reports whether the chunk holding (x, y, z) is resident.
	// y is always within the world height when it is called.
	Contains(x, y, z int) bool
	BlockID(x, y, z int) uint16
	SkyLight(x, y, z int) uint8
	SetSkyLight(x, y, z int, v uint8)
}

// Opacity decides whether sky light passes through a block id.
type Opacity interface {
	IsOpaque(id uint16) bool
}

// Queue is a LIFO of pending updates. The zero value is empty.
type Queue struct {
	items []Pos
}

func (q *Queue) Push(p Pos) {
	q.items = append(q.items, p)
}

func (q *Queue) Pop() (Pos, bool) {
	n := len(q.items)
	if n == 0 {
		return Pos{}, false
	}
	p := q.items[n-1]
	q.items = q.items[:n-1]
	return p, true
}

func (q *Queue) Len() int { return len(q.items) }

var neighbours = [6]Pos{
	{0, 1, 0},  // up
	{0, -1, 0}, // down
	{1, 0, 0},
	{-1, 0, 0},
	{0, 0, 1},
	{0, 0, -1},
}

const (
	up   = 0
	down = 1
)

// Propagate processes at most max queued updates and returns how many it
// handled. Whatever is left stays in q for the next call.
func Propagate(a Access, op Opacity, q *Queue, max int) int {
	n := 0
	for ; n < max; n++ {
		p, ok := q.Pop()
		if !ok {
			break
		}
		update(a, op, q, p)
	}
	return n
}

// read returns the sky light a neighbour contributes.
func read(a Access, op Opacity, x, y, z int) uint8 {
	switch {
	case y > maxY:
		return MaxLight
	case y < minY:
		return 0
	case !a.Contains(x, y, z):
		return MaxLight
	case op.IsOpaque(a.BlockID(x, y, z)):
		return 0
	}
	return a.SkyLight(x, y, z)
}

func update(a Access, op Opacity, q *Queue, p Pos) {
	if p.Y < minY || p.Y > maxY || !a.Contains(p.X, p.Y, p.Z) {
		return
	}
	// block light through opaque blocks is not modelled
	if op.IsOpaque(a.BlockID(p.X, p.Y, p.Z)) {
		return
	}

	var vals [6]int
	best := 0
	for i, d := range neighbours {
		v := int(read(a, op, p.X+d.X, p.Y+d.Y, p.Z+d.Z))
		vals[i] = v
		if v > best {
			best = v
		}
	}

	// open sky passes straight down undiminished
	val := best - 1
	if vals[up] == MaxLight {
		val = MaxLight
	}
	if val < 0 {
		val = 0
	}
	a.SetSkyLight(p.X, p.Y, p.Z, uint8(val))

	for i, d := range neighbours {
		np := Pos{p.X + d.X, p.Y + d.Y, p.Z + d.Z}
		if np.Y < minY || np.Y > maxY || !a.Contains(np.X, np.Y, np.Z) {
			continue
		}
		if op.IsOpaque(a.BlockID(np.X, np.Y, np.Z)) {
			continue
		}
		diff := val - vals[i]
		if diff > 1 || diff < -1 || (i == down && val == MaxLight && vals[i] != MaxLight) {
			q.Push(np)
		}
	}
}
