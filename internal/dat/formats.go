package dat

import (
	"fmt"

	"github.com/nao1215/desyncdiff/internal/model"
)

// formats is the format-name → schema registry, resolved once at
// startup. Unknown field names carry an unknownN placeholder; their
// width and position are fixed by the format even though their meaning
// is not established.
var formats = buildFormats()

func buildFormats() map[string]Schema {
	version := StructOf(
		F("major", U16),
		F("minor", U16),
		F("patch", U16),
		F("unknown1", U16),
		F("unknown2", U8),
	)

	// Generic serialized value used by mod-settings: a type byte
	// followed by a type-specific payload.
	settingsCases := map[string]Schema{}
	settingsValue := StructOf(
		F("type", U8),
		F("data", SwitchOn("type", settingsCases)),
	)
	settingsCases["1"] = StructOf( // boolean
		F("unknown1", U8),
		F("value", U8),
	)
	settingsCases["2"] = StructOf( // double
		F("unknown1", U8),
		F("value", F64),
	)
	settingsCases["3"] = StructOf( // string
		F("unknown1", U8),
		F("unknown2", U8),
		F("value", PascalString(U8)),
	)
	settingsCases["5"] = StructOf( // mapping
		F("unknown1", U8),
		F("items", PrefixedArray(U32, StructOf(
			F("unknown1", U8),
			F("key", PascalString(U8)),
			F("value", settingsValue),
		))),
	)

	// Serialized script value: the compact variant used inside script
	// dumps. Mappings nest arbitrarily, so the cases table refers back
	// to the value schema it belongs to.
	scriptCases := map[string]Schema{}
	scriptValue := StructOf(
		F("type", U8),
		F("data", SwitchOn("type", scriptCases)),
	)
	scriptCases["2"] = Computed(func(*Scope) (*model.Value, error) { // boolean
		return model.Bool(true), nil
	})
	scriptCases["3"] = F64                    // double
	scriptCases["4"] = PascalString(VarInt32) // string
	scriptCases["5"] = PrefixedArray(VarInt32, StructOf( // mapping
		F("key", scriptValue),
		F("value", scriptValue),
	))
	scriptCases["6"] = U16 // reference of some kind

	scriptDat := StructOf(
		F("_type", constString("script")),
		F("version", version),
		F("data", PrefixedArray(U32, StructOf(
			F("name", PascalString(U8)),
			F("dump", Prefixed(VarInt32, StructOf(
				F("version", version),
				F("data", scriptValue),
			))),
			F("unknown1", U8),
		))),
	)

	modSettingsDat := StructOf(
		F("_type", constString("mod-settings")),
		F("version", version),
		F("settings", settingsValue),
	)

	idEntry := StructOf(
		F("type", PascalString(U8)),
		F("names", PrefixedArray(U16, StructOf(
			F("name", PascalString(U8)),
			F("id", U16),
		))),
	)
	tileIDEntry := StructOf(
		F("type", PascalString(U8)),
		F("names", PrefixedArray(U8, StructOf(
			F("name", PascalString(U8)),
			F("id", U8),
		))),
	)

	achievementCases := map[string]Schema{
		"achievement":                         constString("no-data"),
		"build-entity-achievement":            U32,
		"combat-robot-count":                  U32,
		"construct-with-robots-achievement":   Sequence(U32, U32),
		"deconstruct-with-robots-achievement": U32,
		"deliver-by-robots-achievement":       F64,
		"dont-build-entity-achievement":       U32,
		"dont-use-entity-in-energy-production-achievement": F64,
		"finish-the-game-achievement":                      U32,
		"group-attack-achievement":                         U32,
		"kill-achievement":                                 F64,
		"player-damaged-achievement":                       Sequence(F32, U8),
		"produce-achievement":                              F64,
		"produce-per-hour-achievement":                     F64,
		"research-achievement":                             constString("no-data"),
		"train-path-achievement":                           F64,
	}

	achievementEntry := StructOf(
		F("id", U16),
		F("_name", Computed(func(s *Scope) (*model.Value, error) {
			name, _, err := resolveAchievement(s)
			if err != nil {
				return nil, err
			}
			return model.String(name), nil
		})),
		F("_type", Computed(func(s *Scope) (*model.Value, error) {
			_, typ, err := resolveAchievement(s)
			if err != nil {
				return nil, err
			}
			return model.String(typ), nil
		})),
		F("data", SwitchOn("_type", achievementCases)),
	)

	achievementsDat := StructOf(
		F("_type", constString("achievements")),
		F("version", version),
		F("id_table", PrefixedArray(U16, idEntry)),
		F("achievements", PrefixedArray(U32, achievementEntry)),
	)

	achievementsModdedDat := StructOf(
		F("_type", constString("achievements-modded")),
		F("version", version),
		F("id_table", PrefixedArray(U16, idEntry)),
		F("achievements", PrefixedArray(U32, StructOf(
			F("type", PascalString(U8)),
			F("name", PascalString(U8)),
			F("data", SwitchOn("type", achievementCases)),
		))),
		F("unknown1", U32),
		F("unknown2", U16),
	)

	migrationEntry := StructOf(
		F("mod", PascalString(U8)),
		F("migration", PascalString(U8)),
	)

	blueprintCases := map[string]Schema{}
	blueprint := StructOf(
		F("bp_type", U16),
		F("bp_name", PascalString(U8)),
		F("content", SwitchOn("bp_type", blueprintCases)),
	)
	blueprintData := StructOf(
		F("version", version),
		F("applied_migrations", PrefixedArray(U8, migrationEntry)),
		F("entities", PrefixedArray(U32, StructOf(
			F("id", U16),
		))),
	)
	blueprintCases["68"] = StructOf( // single blueprint (0x44)
		F("unknown1", U16),
		F("data", Prefixed(VarInt32, blueprintData)),
	)
	blueprintCases["72"] = StructOf( // blueprint book (0x48)
		F("pages", PrefixedArray(U32, StructOf(
			F("pos", U32),
			F("content", blueprint),
		))),
	)

	idTable := StructOf(
		F("version", version),
		F("item_table", PrefixedArray(U16, idEntry)),
		F("tile_table", PrefixedArray(U8, tileIDEntry)),
		F("entity_table", PrefixedArray(U16, idEntry)),
		F("recipe_table", PrefixedArray(U16, idEntry)),
		F("fluid_table", PrefixedArray(U16, idEntry)),
		F("signal_table", PrefixedArray(U16, idEntry)),
	)

	blueprintStorageDat := StructOf(
		F("_type", constString("blueprint-storage")),
		F("version", version),
		F("applied_migrations", PrefixedArray(U8, migrationEntry)),
		F("id_table", Prefixed(VarInt32, idTable)),
		F("unknown1", U16),
		F("unknown2", U32),
		F("unknown3", U32),
		F("blueprints", GreedyRange(StructOf(
			F("unknown1", PrefixedArray(U8, U8)),
			F("unknown2", U8),
			F("unknown3", U16),
			F("unknown4", PrefixedArray(U8, U16)),
			F("unknown5", U16),
			F("blueprint", blueprint),
		))),
	)

	return map[string]Schema{
		"script":              scriptDat,
		"mod-settings":        modSettingsDat,
		"achievements":        achievementsDat,
		"achievements-modded": achievementsModdedDat,
		"blueprint-storage":   blueprintStorageDat,
	}
}

// resolveAchievement maps the id of the entry currently being decoded to
// its (name, kind) pair through the id_table decoded earlier in an
// ancestor record.
func resolveAchievement(s *Scope) (name, typ string, err error) {
	idVal, ok := s.Get("id")
	if !ok {
		return "", "", fmt.Errorf("achievement entry has no id field")
	}
	table, ok := s.Lookup("id_table")
	if !ok {
		return "", "", fmt.Errorf("no id_table in scope")
	}

	id := idVal.AsNumber()
	for i := 0; i < table.Len(); i++ {
		entry := table.Index(i)
		typVal, _ := entry.Get("type")
		names, ok := entry.Get("names")
		if !ok {
			continue
		}
		for j := 0; j < names.Len(); j++ {
			nameEntry := names.Index(j)
			entryID, _ := nameEntry.Get("id")
			if entryID != nil && entryID.AsNumber() == id {
				nameVal, _ := nameEntry.Get("name")
				return nameVal.AsString(), typVal.AsString(), nil
			}
		}
	}
	return "", "", fmt.Errorf("no entry in id table for id %d", int64(id))
}
