package ids

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestInitialState(t *testing.T) {
	a := New()

	assert.Equal(t, 0, a.Var())
	assert.Equal(t, 0, a.Func())
	assert.Equal(t, 1, a.Global())
	assert.Equal(t, 0, a.Label())

	assert.Equal(t, 1, a.Var())
	assert.Equal(t, 2, a.Global())
}

func TestCountersIndependent(t *testing.T) {
	a := New()

	for i := 0; i < 5; i++ {
		a.Label()
	}

	assert.Equal(t, 0, a.Var())
	assert.Equal(t, 0, a.Func())
	assert.Equal(t, 1, a.Global())
	assert.Equal(t, 5, a.Label())
}

func TestFreshAllocatorIsolated(t *testing.T) {
	a := New()
	a.Var()
	a.Label()

	b := New()
	assert.Equal(t, 0, b.Var())
	assert.Equal(t, 0, b.Label())
}

func TestNeverReused(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("interleaved minting never repeats a value per counter", prop.ForAll(
		func(seq []int) bool {
			a := New()
			seen := [4]map[int]bool{{}, {}, {}, {}}

			for _, k := range seq {
				var id int

				switch k {
				case 0:
					id = a.Var()
				case 1:
					id = a.Func()
				case 2:
					id = a.Global()
				default:
					id = a.Label()
				}

				if seen[k][id] {
					return false
				}

				seen[k][id] = true
			}

			return true
		},
		gen.SliceOf(gen.IntRange(0, 3)),
	))

	properties.TestingRun(t)
}
