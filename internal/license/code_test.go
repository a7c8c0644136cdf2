package license

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateCodeDeterministic(t *testing.T) {
	a := GenerateCode("QTX-0001", "dev-1")
	b := GenerateCode("QTX-0001", "dev-1")
	assert.Equal(t, a, b)
	assert.Len(t, a, 8)
}

func TestGenerateCodeCanonicalizesKey(t *testing.T) {
	assert.Equal(t,
		GenerateCode("QTX-0001", "dev-1"),
		GenerateCode("  qtx-0001  ", "dev-1"),
	)
}

func TestGenerateCodeVariesByInput(t *testing.T) {
	base := GenerateCode("QTX-0001", "dev-1")
	assert.NotEqual(t, base, GenerateCode("QTX-0002", "dev-1"))
	assert.NotEqual(t, base, GenerateCode("QTX-0001", "dev-2"))
	assert.NotEqual(t, base, GenerateCode("QTX-0001", AdminPrincipal))
}

func TestCodeMatchesIsCaseInsensitive(t *testing.T) {
	code := GenerateCode("QTX-0001", "dev-1")
	assert.True(t, codeMatches("  "+code+"  ", code))
	assert.False(t, codeMatches("XXXXXXXX", code))
	assert.False(t, codeMatches("", code))
}
