package roster

import (
	"sort"
	"strings"
)

// WeaponCombination is one valid weapon pair for a role in a given game,
// mirroring cacheloader.WeaponCombination without importing that package
// (roster only needs the role/weapon1/weapon2 projection).
type WeaponCombination struct {
	Role    string
	Weapon1 string
	Weapon2 string
}

// normalizedNull is emitted whenever weapons or class cannot be determined
// (spec §4.E step 5/6 "If invalid or wrong cardinality, emit NULL").
const normalizedNull = "NULL"

// NormalizeWeapons uppercases, splits on "/" or ",", validates both tokens
// against validWeapons, sorts the pair alphabetically and rejoins with "/".
// Returns ("NULL", false) whenever the raw string does not yield exactly
// two valid weapon codes.
func NormalizeWeapons(raw string, validWeapons map[string]bool) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return normalizedNull, false
	}

	sep := "/"
	if !strings.Contains(raw, "/") {
		if strings.Contains(raw, ",") {
			sep = ","
		} else {
			return normalizedNull, false
		}
	}

	var tokens []string
	for _, tok := range strings.Split(raw, sep) {
		tok = strings.ToUpper(strings.TrimSpace(tok))
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	if len(tokens) != 2 {
		return normalizedNull, false
	}
	if validWeapons != nil && (!validWeapons[tokens[0]] || !validWeapons[tokens[1]]) {
		return normalizedNull, false
	}

	sort.Strings(tokens)
	return strings.Join(tokens, "/"), true
}

// DeriveClass looks up the sorted weapon pair in combos, returning the
// matching role or "NULL" (spec §4.E step 6).
func DeriveClass(sortedPair string, combos []WeaponCombination) string {
	parts := strings.Split(sortedPair, "/")
	if len(parts) != 2 {
		return normalizedNull
	}
	want := [2]string{parts[0], parts[1]}
	sort.Strings(want[:])

	for _, c := range combos {
		pair := [2]string{strings.ToUpper(c.Weapon1), strings.ToUpper(c.Weapon2)}
		sort.Strings(pair[:])
		if pair == want {
			return c.Role
		}
	}
	return normalizedNull
}

// ValidWeaponSet flattens combos into the set of every weapon code that
// appears in at least one valid combination for the guild's game.
func ValidWeaponSet(combos []WeaponCombination) map[string]bool {
	set := make(map[string]bool, len(combos)*2)
	for _, c := range combos {
		set[strings.ToUpper(c.Weapon1)] = true
		set[strings.ToUpper(c.Weapon2)] = true
	}
	return set
}

// BaseLanguage strips a locale like "en-US" down to "en" (spec §4.E step 3
// "language code stripped to base").
func BaseLanguage(locale string) string {
	if i := strings.Index(locale, "-"); i >= 0 {
		return locale[:i]
	}
	return locale
}
