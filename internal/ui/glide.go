package ui

import (
	"math"

	"github.com/charmbracelet/harmonica"

	"github.com/olivier-w/osciline/internal/params"
)

// settleEps is the distance under which an eased value snaps to its target.
const settleEps = 1e-4

// glide eases the live parameters toward the values the user dialled in so
// keyboard adjustments sweep smoothly instead of jumping.
type glide struct {
	spring harmonica.Spring
	pos    map[params.Field]float64
	vel    map[params.Field]float64
}

func newGlide(fps int, frequency, damping float64) glide {
	return glide{
		spring: harmonica.NewSpring(harmonica.FPS(fps), frequency, damping),
		pos:    map[params.Field]float64{},
		vel:    map[params.Field]float64{},
	}
}

// reset jumps straight to p.
func (g *glide) reset(p params.Params) {
	for _, s := range params.Sliders {
		g.pos[s.Field] = p.Get(s.Field)
		g.vel[s.Field] = 0
	}
}

// step advances every continuous field one frame toward target. Integer
// fields and colours take the target directly.
func (g *glide) step(target params.Params) params.Params {
	out := target
	for _, s := range params.Sliders {
		if s.Field == params.FieldComplexity {
			continue
		}
		want := target.Get(s.Field)
		p, v := g.spring.Update(g.pos[s.Field], g.vel[s.Field], want)
		if math.Abs(p-want) < settleEps && math.Abs(v) < settleEps {
			p, v = want, 0
		}
		g.pos[s.Field] = p
		g.vel[s.Field] = v
		out = out.Set(s.Field, p)
	}
	return out
}

// settled reports whether every field has reached target.
func (g *glide) settled(target params.Params) bool {
	for _, s := range params.Sliders {
		if s.Field == params.FieldComplexity {
			continue
		}
		if g.pos[s.Field] != target.Get(s.Field) {
			return false
		}
	}
	return true
}
