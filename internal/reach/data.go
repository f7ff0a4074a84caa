package reach

import (
	"github.com/bamsammich/rpgpack/internal/rpgmaker"
)

// dataParser extracts references from one parsed data file.
type dataParser func(set *Set, doc value, gen rpgmaker.Generation) error

// dataParsers is keyed by file name inside the data folder. Map files and
// Animations.json are dispatched separately.
var dataParsers = map[string]dataParser{
	"Actors.json":       parseActors,
	"CommonEvents.json": parseCommonEvents,
	"Enemies.json":      parseEnemies,
	"Items.json":        parseAnimationIDs,
	"Skills.json":       parseAnimationIDs,
	"System.json":       parseSystem,
	"Tilesets.json":     parseTilesets,
	"Troops.json":       parseTroops,
	"Weapons.json":      parseAnimationIDs,
}

func parseActors(set *Set, doc value, _ rpgmaker.Generation) error {
	return doc.each(func(actor value) error {
		if err := actor.field("battlerName").name(set, ActorBattlers); err != nil {
			return err
		}
		if err := actor.field("characterName").name(set, Characters); err != nil {
			return err
		}
		return actor.field("faceName").name(set, Faces)
	})
}

func parseEnemies(set *Set, doc value, _ rpgmaker.Generation) error {
	return doc.each(func(enemy value) error {
		return enemy.field("battlerName").name(set, EnemyBattlers)
	})
}

func parseTilesets(set *Set, doc value, _ rpgmaker.Generation) error {
	return doc.each(func(tileset value) error {
		return tileset.field("tilesetNames").each(func(n value) error {
			return n.name(set, Tilesets)
		})
	})
}

// parseAnimationIDs handles the item, skill and weapon rosters, which only
// contribute animation ids. Ids of -1 (normal attack) and 0 (none) are not
// references.
func parseAnimationIDs(set *Set, doc value, _ rpgmaker.Generation) error {
	return doc.each(func(entry value) error {
		id, err := entry.field("animationId").int()
		if err != nil {
			return err
		}
		if id > 0 {
			set.AddAnimationID(uint64(id))
		}
		return nil
	})
}

func parseCommonEvents(set *Set, doc value, _ rpgmaker.Generation) error {
	return doc.each(func(ev value) error {
		return interpret(set, ev.field("list"))
	})
}

func parseTroops(set *Set, doc value, _ rpgmaker.Generation) error {
	return doc.each(func(troop value) error {
		return troop.field("pages").each(func(page value) error {
			return interpret(set, page.field("list"))
		})
	})
}

func parseSystem(set *Set, doc value, _ rpgmaker.Generation) error {
	if err := doc.object(); err != nil {
		return err
	}

	for _, vehicle := range []string{"airship", "boat", "ship"} {
		v := doc.field(vehicle)
		if err := v.field("bgm").field("name").name(set, BGM); err != nil {
			return err
		}
		if err := v.field("characterName").name(set, Characters); err != nil {
			return err
		}
	}

	names := []struct {
		path []string
		kind Kind
	}{
		{[]string{"battleback1Name"}, Battlebacks1},
		{[]string{"battleback2Name"}, Battlebacks2},
		{[]string{"battlerName"}, EnemyBattlers},
		{[]string{"title1Name"}, Titles1},
		{[]string{"title2Name"}, Titles2},
		{[]string{"battleBgm", "name"}, BGM},
		{[]string{"titleBgm", "name"}, BGM},
		{[]string{"defeatMe", "name"}, ME},
		{[]string{"gameoverMe", "name"}, ME},
		{[]string{"victoryMe", "name"}, ME},
	}
	for _, n := range names {
		v := doc
		for _, p := range n.path {
			v = v.field(p)
		}
		if err := v.name(set, n.kind); err != nil {
			return err
		}
	}

	return doc.field("sounds").each(func(sound value) error {
		return sound.field("name").name(set, SE)
	})
}

func parseMap(set *Set, doc value, _ rpgmaker.Generation) error {
	if err := doc.object(); err != nil {
		return err
	}

	for _, f := range []struct {
		v    value
		kind Kind
	}{
		{doc.field("battleback1Name"), Battlebacks1},
		{doc.field("battleback2Name"), Battlebacks2},
		{doc.field("bgm").field("name"), BGM},
		{doc.field("bgs").field("name"), BGS},
		{doc.field("parallaxName"), Parallaxes},
	} {
		if err := f.v.name(set, f.kind); err != nil {
			return err
		}
	}

	return doc.field("events").each(func(ev value) error {
		return ev.field("pages").each(func(page value) error {
			if err := page.field("image").field("characterName").name(set, Characters); err != nil {
				return err
			}
			return interpret(set, page.field("list"))
		})
	})
}

// parseAnimations expands only the animations whose ids were referenced by
// the files parsed before it.
func parseAnimations(set *Set, doc value, gen rpgmaker.Generation) error {
	timings := "timings"
	if gen == rpgmaker.MZ {
		timings = "soundTimings"
	}

	return doc.each(func(anim value) error {
		id, err := anim.field("id").int()
		if err != nil {
			return err
		}
		if id <= 0 || !set.HasAnimationID(uint64(id)) {
			return nil
		}

		if gen == rpgmaker.MZ {
			if err := anim.field("effectName").name(set, EffectNames); err != nil {
				return err
			}
		} else {
			if err := anim.field("animation1Name").name(set, AnimationNames); err != nil {
				return err
			}
			if err := anim.field("animation2Name").name(set, AnimationNames); err != nil {
				return err
			}
		}

		return anim.field(timings).each(func(timing value) error {
			se := timing.field("se")
			if se.null() {
				return nil
			}
			return se.field("name").name(set, SE)
		})
	})
}
