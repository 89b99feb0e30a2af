package tui

// SurfaceKind distinguishes the visual role of a surface. Purely
// informational for layout today; anchor/width defaults may later vary
// per kind.
type SurfaceKind int

const (
	SurfaceModal SurfaceKind = iota
	SurfaceDrawer
	SurfaceCorner
	SurfaceToast
)

// SurfaceInputPolicy controls whether a surface intercepts input before it
// reaches lower layers.
type SurfaceInputPolicy int

const (
	// Capture means this surface receives input exclusively while it is the
	// most recently activated Capture surface, even if Passthrough surfaces
	// were shown after it; nothing else sees the event.
	Capture SurfaceInputPolicy = iota
	// Passthrough means input always continues past this surface to
	// whatever is beneath it (or the root).
	Passthrough
)

// SizeUnit distinguishes an absolute cell count from a percentage of the
// available budget.
type SizeUnit int

const (
	UnitAbsolute SizeUnit = iota
	UnitPercent
)

// SurfaceSize is one dimension's requested size.
type SurfaceSize struct {
	Unit  SizeUnit
	Value float64
}

// Absolute returns a fixed cell-count size.
func Absolute(cells int) SurfaceSize { return SurfaceSize{Unit: UnitAbsolute, Value: float64(cells)} }

// Percent returns a size expressed as a percentage (0-100) of the total
// budget.
func Percent(pct float64) SurfaceSize { return SurfaceSize{Unit: UnitPercent, Value: pct} }

func (s SurfaceSize) resolve(total int) int {
	switch s.Unit {
	case UnitPercent:
		return int(s.Value / 100.0 * float64(total))
	default:
		return int(s.Value)
	}
}

// SurfaceLayout describes a surface's requested width and height budget.
type SurfaceLayout struct {
	Width     *SurfaceSize
	MaxHeight *SurfaceSize
	Anchor    string
}

// SurfaceOptions configures a surface at show time.
type SurfaceOptions struct {
	Kind        SurfaceKind
	InputPolicy SurfaceInputPolicy
	Layout      SurfaceLayout
}

type surfaceID int

type surfaceState struct {
	id          surfaceID
	component   ComponentID
	options     SurfaceOptions
	hidden      bool
	orderSeq    int
	lastCols    int
	lastRows    int
	hasViewport bool
}

// SurfaceHandle lets a caller toggle a surface's visibility after showing
// it, without holding a reference to the Runtime's internals.
type SurfaceHandle struct {
	runtime *Runtime
	id      surfaceID
}

// SetHidden toggles visibility. Showing a previously hidden surface moves
// it to the back of the active ordering, as if it had just been shown for
// the first time.
func (h SurfaceHandle) SetHidden(hidden bool) {
	h.runtime.setSurfaceHidden(h.id, hidden)
}

// Show is shorthand for SetHidden(false).
func (h SurfaceHandle) Show() {
	h.SetHidden(false)
}

// Hide is shorthand for SetHidden(true).
func (h SurfaceHandle) Hide() {
	h.SetHidden(true)
}
