// Package translations loads the JSON translation bundle and resolves the
// effective locale for a message lookup (spec §4.I).
package translations

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
)

var bundleJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// MaxBundleSize bounds the translation file read to guard against a
// misconfigured path pointing at something enormous (spec §4.I "bounded in
// size").
const MaxBundleSize = 8 * 1024 * 1024

// DefaultLocale is the fallback when no preference resolves to a locale
// present in the bundle (spec §4.I "guild language > en-US").
const DefaultLocale = "en-US"

// Bundle is a locale -> message key -> string table, loaded once at start.
type Bundle struct {
	messages map[string]map[string]string
	log      zerolog.Logger
}

// Load reads and parses the translation file at path.
func Load(path string, log zerolog.Logger) (*Bundle, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("translations: stat %s: %w", path, err)
	}
	if info.Size() > MaxBundleSize {
		return nil, fmt.Errorf("translations: %s exceeds max bundle size (%d bytes)", path, MaxBundleSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("translations: read %s: %w", path, err)
	}

	var messages map[string]map[string]string
	if err := bundleJSON.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("translations: parse %s: %w", path, err)
	}

	return &Bundle{messages: messages, log: log.With().Str("component", "translations").Logger()}, nil
}

// EffectiveLocale resolves the first non-empty preference in priority
// order (member > user > guild), falling back to DefaultLocale (spec §4.I
// "Resolution order").
func EffectiveLocale(memberLocale, userLocale, guildLocale string) string {
	for _, candidate := range []string{memberLocale, userLocale, guildLocale} {
		if candidate != "" {
			return candidate
		}
	}
	return DefaultLocale
}

// Lookup returns the message for key in locale, falling back to
// DefaultLocale, then logging and returning "" if still missing (spec
// §4.I "Missing keys log and return \"\"").
func (b *Bundle) Lookup(locale, key string) string {
	if msgs, ok := b.messages[locale]; ok {
		if msg, ok := msgs[key]; ok {
			return msg
		}
	}
	if locale != DefaultLocale {
		if msgs, ok := b.messages[DefaultLocale]; ok {
			if msg, ok := msgs[key]; ok {
				return msg
			}
		}
	}
	b.log.Warn().Str("locale", locale).Str("key", key).Msg("missing translation key")
	return ""
}
