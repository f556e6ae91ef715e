package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/veloxdb/value"
)

func TestDecimalFromStringAndString(t *testing.T) {
	d, err := value.DecimalFromString("-12.3400")
	require.NoError(t, err)
	assert.Equal(t, "-12.3400", d.String())
}

func TestDecimalCmpAcrossScales(t *testing.T) {
	a, _ := value.DecimalFromString("1.50")
	b, _ := value.DecimalFromString("1.5")
	assert.Equal(t, 0, a.Cmp(b))

	c, _ := value.DecimalFromString("1.49")
	assert.True(t, c.Cmp(a) < 0)
}

func TestNumberEqualAcrossRepresentations(t *testing.T) {
	i := value.Int64Number(2)
	f := value.Float64Number(2.0)
	assert.True(t, i.Equal(f))
}

func TestNumberCompareNaNSortsGreatest(t *testing.T) {
	nan := value.Float64Number(nanFloat())
	one := value.Int64Number(1)
	assert.True(t, nan.Compare(one) > 0)
	assert.True(t, one.Compare(nan) < 0)
}

func nanFloat() float64 {
	var zero float64
	return zero / zero
}
