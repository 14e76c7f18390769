package translations

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBundle(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestEffectiveLocalePrefersMemberOverUserOverGuild(t *testing.T) {
	assert.Equal(t, "fr-FR", EffectiveLocale("fr-FR", "de-DE", "en-US"))
	assert.Equal(t, "de-DE", EffectiveLocale("", "de-DE", "en-US"))
	assert.Equal(t, "en-US", EffectiveLocale("", "", "en-US"))
	assert.Equal(t, DefaultLocale, EffectiveLocale("", "", ""))
}

func TestLookupFindsExactLocale(t *testing.T) {
	path := writeBundle(t, `{"fr-FR": {"greeting": "Bonjour"}, "en-US": {"greeting": "Hello"}}`)
	b, err := Load(path, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, "Bonjour", b.Lookup("fr-FR", "greeting"))
}

func TestLookupFallsBackToDefaultLocale(t *testing.T) {
	path := writeBundle(t, `{"en-US": {"greeting": "Hello"}}`)
	b, err := Load(path, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, "Hello", b.Lookup("fr-FR", "greeting"))
}

func TestLookupMissingKeyReturnsEmpty(t *testing.T) {
	path := writeBundle(t, `{"en-US": {}}`)
	b, err := Load(path, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, "", b.Lookup("en-US", "nonexistent"))
}
