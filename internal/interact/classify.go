package interact

import "strings"

// elementKind selects the interaction strategy for a resolved element.
type elementKind int

const (
	kindGeneric elementKind = iota
	kindOption
)

func (k elementKind) String() string {
	if k == kindOption {
		return "option"
	}
	return "generic"
}

// classifyTag maps a tag name to an interaction kind. Resolved once per
// call; page structure may change between calls, so kinds are never cached.
func classifyTag(tag string) elementKind {
	if strings.ToLower(strings.TrimSpace(tag)) == "option" {
		return kindOption
	}
	return kindGeneric
}
