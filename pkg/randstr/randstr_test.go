package randstr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateRandomString(t *testing.T) {
	letters := "0123456789abcdefghijklmnopqrstuvwxyz"
	g := New([]byte(letters))

	for range 100 {
		s := g.GenerateRandomString(7)
		assert.Len(t, s, 7)
		for _, r := range s {
			assert.True(t, strings.ContainsRune(letters, r), "unexpected rune %q", r)
		}
	}
}
