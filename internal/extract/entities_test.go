package extract

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntitiesCategories(t *testing.T) {
	text := "Please reach out to John Smith from Acme Corporation at john@example.com " +
		"or call 555-123-4567. Details at https://example.com/brief and due 12/25/2024."

	got := Entities(text)

	assert.Equal(t, []string{"john@example.com"}, got["emails"])
	assert.Equal(t, []string{"555-123-4567"}, got["phones"])
	assert.Equal(t, []string{"https://example.com/brief"}, got["urls"])
	assert.Equal(t, []string{"12/25/2024"}, got["dates"])
	assert.Equal(t, []string{"Acme Corporation"}, got["organizations"])
	assert.Equal(t, []string{"John Smith"}, got["people"])
}

func TestEntitiesEmptyInput(t *testing.T) {
	got := Entities("")

	require.Len(t, got, 6)
	for _, category := range []string{"emails", "phones", "urls", "dates", "organizations", "people"} {
		require.Contains(t, got, category)
		assert.NotNil(t, got[category])
		assert.Empty(t, got[category])
	}
}

func TestEntitiesDeduplicatesAndCaps(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 3; i++ {
		b.WriteString("contact dup@example.com ")
	}
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&b, "also user%d@example.com ", i)
	}

	got := Entities(b.String())

	assert.Len(t, got["emails"], maxEntitiesPerCategory)
	assert.Equal(t, "dup@example.com", got["emails"][0])
}
