// Package constituency derives synthetic grouping identifiers for
// (administrative area, constituency code) pairs from the set of candidates
// contracted to run there, and builds the per-party candidate-name table.
package constituency

import (
	"fmt"
	"sort"
	"strings"

	"ogyscraper/internal/election"
	"ogyscraper/internal/names"
	"ogyscraper/internal/table"
)

// Key identifies a constituency within an administrative area.
type Key struct {
	Maz int
	Evk string
}

// GroupIDs assigns a ConstituencyId to every (maz, evk) key present in the
// candidate roster. Two keys with an identical candidate-id set share an id.
// Ids are assigned in sorted key order the first time a candidate-set
// signature is seen, so the mapping depends only on the roster's content,
// never on its row order.
func GroupIDs(candidates []election.Candidate) map[Key]int {
	sets := make(map[Key]map[int]struct{})

	for _, c := range candidates {
		k := Key{Maz: int(c.Maz), Evk: string(c.Evk)}
		if sets[k] == nil {
			sets[k] = make(map[int]struct{})
		}

		sets[k][int(c.EjID)] = struct{}{}
	}

	keys := make([]Key, 0, len(sets))
	for k := range sets {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Maz != keys[j].Maz {
			return keys[i].Maz < keys[j].Maz
		}

		return keys[i].Evk < keys[j].Evk
	})

	idBySignature := make(map[string]int)
	ids := make(map[Key]int, len(keys))
	nextID := 1

	for _, k := range keys {
		sig := signature(sets[k])
		if _, seen := idBySignature[sig]; !seen {
			idBySignature[sig] = nextID
			nextID++
		}

		ids[k] = idBySignature[sig]
	}

	return ids
}

// signature computes the sorted, deduplicated candidate-id tuple of one key.
func signature(set map[int]struct{}) string {
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}

	sort.Ints(ids)

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}

	return strings.Join(parts, ",")
}

// BuildTable produces one row per (maz, evk) key carrying its constituency_id
// and a candidate-name column per party. Column names are
// candidate_{slug}_name where the slug derives from the canonicalized party
// label. When several candidates of one key map to the same column, the first
// encountered wins.
func BuildTable(candidates []election.Candidate) *table.Table {
	ids := GroupIDs(candidates)

	nameCells := make(map[Key]map[string]string)

	for _, c := range candidates {
		k := Key{Maz: int(c.Maz), Evk: string(c.Evk)}

		slug := names.Slugify(names.CanonicalPartyName(c.Party))
		col := "candidate_" + slug + "_name"

		if nameCells[k] == nil {
			nameCells[k] = make(map[string]string)
		}

		if _, seen := nameCells[k][col]; !seen {
			nameCells[k][col] = c.Name
		}
	}

	keys := make([]Key, 0, len(ids))
	for k := range ids {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Maz != keys[j].Maz {
			return keys[i].Maz < keys[j].Maz
		}

		return keys[i].Evk < keys[j].Evk
	})

	out := table.New("maz", "evk")

	for _, k := range keys {
		row := table.Row{
			"maz":             k.Maz,
			"evk":             k.Evk,
			"constituency_id": ids[k],
		}

		for col, name := range nameCells[k] {
			row[col] = name
		}

		out.Append(row)
	}

	return out
}
