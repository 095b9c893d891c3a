package model

// Role identifies one artifact inside a level capture. Each desync report
// bundle carries three artifacts per side, compared role by role.
type Role int

const (
	// RoleHeuristic is the tagged-text heuristic log
	// (level-heuristic-<n> inside the level zip).
	RoleHeuristic Role = iota

	// RoleScript is the binary script state dump (script.dat),
	// decoded through the schema table before diffing.
	RoleScript

	// RoleLevelTags is the tagged level dump
	// (level_with_tags_tick_<n>.dat).
	RoleLevelTags
)

// Roles lists all artifact roles in analysis order.
func Roles() []Role {
	return []Role{RoleHeuristic, RoleScript, RoleLevelTags}
}

// String returns the artifact name used in report section headers.
func (r Role) String() string {
	switch r {
	case RoleHeuristic:
		return "level-heuristic"
	case RoleScript:
		return "script.dat"
	case RoleLevelTags:
		return "level_with_tags.dat"
	default:
		return "unknown"
	}
}
