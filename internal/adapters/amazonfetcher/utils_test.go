package amazonfetcher

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateDoesNotSplitRunes(t *testing.T) {
	cases := []struct {
		s     string
		limit int
		want  string
	}{
		{"pagina", 10, "pagina"},
		{"errore", 6, "errore"},
		// à и € занимают несколько байт; разрез внутри символа недопустим
		{"cittàe", 5, "citt..."},
		{"12€34", 3, "12..."},
		{"12€34", 4, "12..."},
		{"12€34", 5, "12€..."},
	}

	for _, tc := range cases {
		got := truncate(tc.s, tc.limit)
		assert.Equal(t, tc.want, got, "s: %q limit: %d", tc.s, tc.limit)
		assert.True(t, utf8.ValidString(got), "s: %q limit: %d", tc.s, tc.limit)
	}
}
