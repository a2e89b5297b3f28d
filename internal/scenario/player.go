package scenario

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/magnetar/internal/input"
	"github.com/talgya/magnetar/internal/scene"
)

// MaxDistance drops inputs farther than this from the shelf surface.
const MaxDistance = 0.1

// Tremor noise shape.
const (
	tremorOctaves     = 3
	tremorFrequency   = 1.5
	tremorPersistence = 0.5
)

// Surface measures signed distance to the shelf, negative inside.
type Surface interface {
	Distance(world mgl32.Vec3) float32
}

// Player replays a scenario. It implements session.Source.
type Player struct {
	sc      *Scenario
	scene   *scene.Scene
	surface Surface
	noise   opensimplex.Noise

	spawned  []bool
	removed  []bool
	finished bool
}

// NewPlayer replays sc into s, measuring input distance against surface.
func NewPlayer(sc *Scenario, s *scene.Scene, surface Surface) *Player {
	return &Player{
		sc:      sc,
		scene:   s,
		surface: surface,
		noise:   opensimplex.New(sc.Seed),
		spawned: make([]bool, len(sc.Objects)),
		removed: make([]bool, len(sc.Objects)),
	}
}

// Poll moves scripted objects and returns the inputs live at elapsed that
// are close enough to the shelf.
func (p *Player) Poll(elapsed, dt float64) input.Frame {
	p.moveObjects(elapsed)

	var frame input.Frame
	for i, tr := range p.sc.Inputs {
		first, last := tr.Keys[0].T, tr.Keys[len(tr.Keys)-1].T
		if elapsed < first || elapsed > last {
			continue
		}
		key, pos, origin := sample(tr.Keys, elapsed)
		if tr.Tremor != 0 {
			pos = pos.Add(p.tremor(i, elapsed).Mul(tr.Tremor))
		}

		d := p.data(tr, key, pos, origin)
		if d.Distance > MaxDistance {
			continue
		}
		frame = append(frame, d)
	}

	if !p.finished && elapsed >= p.sc.Duration() {
		p.finished = true
		slog.Info("scenario finished", "name", p.sc.Name, "elapsed", elapsed)
	}
	return frame
}

func (p *Player) moveObjects(elapsed float64) {
	for i, o := range p.sc.Objects {
		if p.removed[i] || elapsed < o.Path[0].T {
			continue
		}
		_, pos, _ := sample(o.Path, elapsed)

		if !p.spawned[i] {
			p.spawned[i] = true
			p.scene.AddObject(o.ID, pos)
			slog.Debug("scenario object spawned", "id", o.ID, "pos", pos)
			continue
		}
		if o.RemoveAt > 0 && elapsed >= o.RemoveAt {
			p.removed[i] = true
			if err := p.scene.RemoveObject(o.ID); err != nil {
				slog.Debug("scenario object already gone", "id", o.ID, "error", err)
			}
			continue
		}
		if err := p.scene.MoveObject(o.ID, pos); err != nil {
			slog.Debug("scenario object not moved", "id", o.ID, "error", err)
		}
	}
}

func (p *Player) data(tr Track, key Keyframe, pos, origin mgl32.Vec3) input.Data {
	dm := input.Datamap{
		input.FieldGrab:         key.Grab,
		input.FieldGrabStrength: key.GrabStrength,
		input.FieldScroll:       key.scroll,
	}
	dist := p.surface.Distance(pos)

	switch tr.kind {
	case input.KindPointer:
		dir := pos.Sub(origin)
		if dir.Len() > 0 {
			dir = dir.Normalize()
		}
		return input.NewPointer(tr.ID, input.Pointer{Origin: origin, Direction: dir, DeepestPoint: pos}, dist, dm)
	case input.KindHand:
		return input.NewHand(tr.ID, input.Hand{Right: tr.Right, Palm: input.Joint{Position: pos, Rotation: mgl32.QuatIdent()}}, dist, dm)
	default:
		return input.NewTip(tr.ID, input.Tip{Origin: pos, Orientation: mgl32.QuatIdent()}, dist, dm)
	}
}

// tremor is a smooth per-track offset in [-1, 1] on each axis.
func (p *Player) tremor(track int, t float64) mgl32.Vec3 {
	row := float64(track) * 17
	return mgl32.Vec3{
		float32(octaveNoise(p.noise, t, row, tremorOctaves, tremorFrequency, tremorPersistence)),
		float32(octaveNoise(p.noise, t, row+5, tremorOctaves, tremorFrequency, tremorPersistence)),
		float32(octaveNoise(p.noise, t, row+11, tremorOctaves, tremorFrequency, tremorPersistence)),
	}
}

// octaveNoise sums octaves of 2D noise, normalized to the first octave's range.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
