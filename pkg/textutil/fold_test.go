package textutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/billy-api/pkg/textutil"
)

func TestFold_QuitaTildesYMayusculas(t *testing.T) {
	assert.Equal(t, "mouse inalambrico", textutil.Fold("Mouse Inalámbrico"))
	assert.Equal(t, "maria gonzalez", textutil.Fold("MARÍA GONZÁLEZ"))
	assert.Equal(t, "nino", textutil.Fold("Niño"))
}

func TestContains(t *testing.T) {
	assert.True(t, textutil.Contains("inalam", "Laptop", "Mouse Inalámbrico"))
	assert.True(t, textutil.Contains("", "x"))
	assert.True(t, textutil.Contains("  ", "x"))
	assert.False(t, textutil.Contains("monitor", "Laptop", "Mouse"))
}
