package particlefilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParticleDiagnosticStrings(t *testing.T) {
	p := Particle{
		Associations: []int{3, 14, 15},
		SenseX:       []float64{1.5, -2, 123.4567891},
		SenseY:       []float64{0.1, 1e-7},
	}

	assert.Equal(t, "3 14 15", p.AssociationsString())
	assert.Equal(t, "1.5 -2 123.457", p.SenseXString())
	assert.Equal(t, "0.1 1e-07", p.SenseYString())

	assert.Equal(t, "", Particle{}.AssociationsString())
	assert.Equal(t, "", Particle{}.SenseXString())
}

func TestParticleCloneIsDeep(t *testing.T) {
	p := Particle{ID: 1, Associations: []int{1}, SenseX: []float64{2}, SenseY: []float64{3}}
	c := p.clone()

	c.Associations[0] = 9
	c.SenseX[0] = 9
	c.SenseY[0] = 9

	assert.Equal(t, []int{1}, p.Associations)
	assert.Equal(t, []float64{2}, p.SenseX)
	assert.Equal(t, []float64{3}, p.SenseY)
}
