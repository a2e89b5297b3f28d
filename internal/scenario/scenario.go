// Package scenario replays scripted objects and inputs against the shelf.
// A scenario is a YAML file of keyframed object paths and input tracks.
package scenario

import (
	"fmt"
	"os"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/talgya/magnetar/internal/input"
)

// Scenario is a parsed scenario file.
type Scenario struct {
	Name    string   `yaml:"name"`
	Seed    int64    `yaml:"seed"`
	Cells   int      `yaml:"cells"` // Initial stack size, 0 = use config
	Objects []Object `yaml:"objects"`
	Inputs  []Track  `yaml:"inputs"`
}

// Object is a free object with a keyframed path.
type Object struct {
	ID       string     `yaml:"id"`
	RemoveAt float64    `yaml:"remove_at"` // 0 = never
	Path     []Keyframe `yaml:"path"`
}

// Track is one input's keyframes. The input exists from the first
// keyframe's time to the last one's.
type Track struct {
	ID     string     `yaml:"id"`
	Kind   string     `yaml:"kind"`
	Right  bool       `yaml:"right"`
	Tremor float32    `yaml:"tremor"` // Noise amplitude added to the position
	Keys   []Keyframe `yaml:"keys"`

	kind input.Kind
}

// Keyframe is a point in time on a path or track. Positions interpolate
// linearly; datamap fields hold until the next keyframe.
type Keyframe struct {
	T            float64   `yaml:"t"`
	Pos          []float32 `yaml:"pos"`
	Origin       []float32 `yaml:"origin"` // Pointer ray origin
	Grab         float32   `yaml:"grab"`
	GrabStrength float32   `yaml:"grab_strength"`
	Scroll       []float32 `yaml:"scroll"`

	pos    mgl32.Vec3
	origin mgl32.Vec3
	scroll mgl32.Vec2
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes and validates a scenario. Objects and inputs without an
// id get a random one.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if sc.Cells < 0 {
		return nil, fmt.Errorf("cells must not be negative, got %d", sc.Cells)
	}

	seen := make(map[string]bool)
	claim := func(id *string, what string) error {
		if *id == "" {
			*id = uuid.NewString()
		}
		if seen[*id] {
			return fmt.Errorf("duplicate %s id %q", what, *id)
		}
		seen[*id] = true
		return nil
	}

	for i := range sc.Objects {
		o := &sc.Objects[i]
		if err := claim(&o.ID, "object"); err != nil {
			return nil, err
		}
		if err := prepareKeys(o.Path); err != nil {
			return nil, fmt.Errorf("object %s: %w", o.ID, err)
		}
	}
	for i := range sc.Inputs {
		tr := &sc.Inputs[i]
		if err := claim(&tr.ID, "input"); err != nil {
			return nil, err
		}
		kind, err := input.ParseKind(tr.Kind)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", tr.ID, err)
		}
		tr.kind = kind
		if err := prepareKeys(tr.Keys); err != nil {
			return nil, fmt.Errorf("input %s: %w", tr.ID, err)
		}
	}
	return &sc, nil
}

func prepareKeys(keys []Keyframe) error {
	if len(keys) == 0 {
		return fmt.Errorf("no keyframes")
	}
	if !sort.SliceIsSorted(keys, func(i, j int) bool { return keys[i].T < keys[j].T }) {
		return fmt.Errorf("keyframes out of order")
	}
	for i := range keys {
		k := &keys[i]
		var err error
		if k.pos, err = vec3(k.Pos); err != nil {
			return fmt.Errorf("keyframe %d pos: %w", i, err)
		}
		if k.Origin != nil {
			if k.origin, err = vec3(k.Origin); err != nil {
				return fmt.Errorf("keyframe %d origin: %w", i, err)
			}
		} else {
			k.origin = k.pos.Add(mgl32.Vec3{0, 0, 1})
		}
		switch len(k.Scroll) {
		case 0:
		case 2:
			k.scroll = mgl32.Vec2{k.Scroll[0], k.Scroll[1]}
		default:
			return fmt.Errorf("keyframe %d scroll: want 2 components, got %d", i, len(k.Scroll))
		}
	}
	return nil
}

func vec3(v []float32) (mgl32.Vec3, error) {
	if len(v) != 3 {
		return mgl32.Vec3{}, fmt.Errorf("want 3 components, got %d", len(v))
	}
	return mgl32.Vec3{v[0], v[1], v[2]}, nil
}

// Duration is the time of the last keyframe or removal in the scenario.
func (sc *Scenario) Duration() float64 {
	var d float64
	for _, o := range sc.Objects {
		d = max(d, o.Path[len(o.Path)-1].T, o.RemoveAt)
	}
	for _, tr := range sc.Inputs {
		d = max(d, tr.Keys[len(tr.Keys)-1].T)
	}
	return d
}

// sample returns the keyframe segment around t: the previous keyframe, the
// interpolated position and origin.
func sample(keys []Keyframe, t float64) (prev Keyframe, pos, origin mgl32.Vec3) {
	if t <= keys[0].T {
		return keys[0], keys[0].pos, keys[0].origin
	}
	last := keys[len(keys)-1]
	if t >= last.T {
		return last, last.pos, last.origin
	}
	i := sort.Search(len(keys), func(i int) bool { return keys[i].T > t }) - 1
	a, b := keys[i], keys[i+1]
	f := float32((t - a.T) / (b.T - a.T))
	return a, lerpVec(a.pos, b.pos, f), lerpVec(a.origin, b.origin, f)
}

func lerpVec(a, b mgl32.Vec3, f float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(f))
}
