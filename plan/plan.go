package plan

import (
	"path"
	"sort"
	"strings"
)

// topLevel is the pseudo-directory for paths with no directory component.
const topLevel = "."

// Aggregate groups additions by immediate containing directory and emits
// ordered DirectoryUnits, deepest directory first. A directory whose
// unconsumed members total at most collapseMB becomes one collapsed unit;
// larger directories skip collapsing and re-emit their members as
// individual file-level units packed one by one. Deletions group purely
// by directory, carry no size weight, and ride with their directory's
// first unit; a deletion-only directory yields a zero-size unit.
// Top-level files are always emitted as individual units.
func Aggregate(adds []File, deletes []string, collapseMB float64) []DirectoryUnit {
	addsByDir := make(map[string][]File)
	for _, f := range adds {
		addsByDir[dirOf(f.Path)] = append(addsByDir[dirOf(f.Path)], f)
	}
	delsByDir := make(map[string][]string)
	for _, p := range deletes {
		delsByDir[dirOf(p)] = append(delsByDir[dirOf(p)], p)
	}

	dirs := make([]string, 0, len(addsByDir)+len(delsByDir))
	seen := make(map[string]bool)
	for dir := range addsByDir {
		dirs = append(dirs, dir)
		seen[dir] = true
	}
	for dir := range delsByDir {
		if !seen[dir] {
			dirs = append(dirs, dir)
		}
	}
	// Deepest first so nested directories are evaluated before their
	// parents; name order breaks ties for determinism.
	sort.Slice(dirs, func(i, j int) bool {
		di, dj := depth(dirs[i]), depth(dirs[j])
		if di != dj {
			return di > dj
		}
		return dirs[i] < dirs[j]
	})

	consumed := make(map[string]bool)
	var units []DirectoryUnit

	for _, dir := range dirs {
		var files []File
		total := 0.0
		for _, f := range addsByDir[dir] {
			if consumed[f.Path] {
				continue
			}
			files = append(files, f)
			total += f.SizeMB
		}
		dels := delsByDir[dir]
		if len(files) == 0 && len(dels) == 0 {
			continue
		}
		for _, f := range files {
			consumed[f.Path] = true
		}

		if dir != topLevel && len(files) > 0 && total <= collapseMB {
			units = append(units, DirectoryUnit{
				Dir:       dir,
				Members:   files,
				Deletes:   dels,
				SizeMB:    total,
				Collapsed: true,
			})
			continue
		}

		units = append(units, fileUnits(dir, files, dels)...)
	}
	return units
}

// fileUnits emits one unit per file; deletions attach to the first unit,
// or to a zero-size unit when there are no additions.
func fileUnits(dir string, files []File, dels []string) []DirectoryUnit {
	if len(files) == 0 {
		return []DirectoryUnit{{Dir: dir, Deletes: dels}}
	}
	units := make([]DirectoryUnit, 0, len(files))
	for i, f := range files {
		u := DirectoryUnit{
			Dir:     dir,
			Members: []File{f},
			SizeMB:  f.SizeMB,
		}
		if i == 0 {
			u.Deletes = dels
		}
		units = append(units, u)
	}
	return units
}

// Pack fills batches greedily in unit order under the soft ceiling: a unit
// joins the current batch if the running total stays within ceilingMB,
// otherwise the batch closes and a new one starts. A unit that alone
// exceeds the ceiling gets dedicated batches built by iterating its
// members in order; only a single member larger than the ceiling can push
// a batch past it. An empty unit list yields zero batches.
func Pack(units []DirectoryUnit, ceilingMB float64) []Batch {
	var batches []Batch
	var cur Batch

	flush := func() {
		if !cur.Empty() {
			batches = append(batches, cur)
		}
		cur = Batch{}
	}

	for _, u := range units {
		if u.SizeMB > ceilingMB {
			flush()
			packOversized(u, ceilingMB, &batches)
			continue
		}
		if !cur.Empty() && cur.TotalSizeMB+u.SizeMB > ceilingMB {
			flush()
		}
		appendUnit(&cur, u)
	}
	flush()

	for i := range batches {
		batches[i].Seq = i + 1
	}
	return batches
}

// packOversized splits a unit larger than the ceiling into successive
// dedicated batches. The unit's deletions land in its first batch.
func packOversized(u DirectoryUnit, ceilingMB float64, batches *[]Batch) {
	cur := Batch{DeletePaths: append([]string(nil), u.Deletes...)}
	for _, m := range u.Members {
		if len(cur.AddPaths) > 0 && cur.TotalSizeMB+m.SizeMB > ceilingMB {
			*batches = append(*batches, cur)
			cur = Batch{}
		}
		cur.AddPaths = append(cur.AddPaths, m.Path)
		cur.TotalSizeMB += m.SizeMB
	}
	if !cur.Empty() {
		*batches = append(*batches, cur)
	}
}

func appendUnit(b *Batch, u DirectoryUnit) {
	for _, m := range u.Members {
		b.AddPaths = append(b.AddPaths, m.Path)
	}
	b.DeletePaths = append(b.DeletePaths, u.Deletes...)
	b.TotalSizeMB += u.SizeMB
}

// dirOf returns the immediate containing directory in slash form, or "."
// for top-level paths.
func dirOf(p string) string {
	return path.Dir(strings.ReplaceAll(p, "\\", "/"))
}

// depth counts path segments; the top level is depth zero.
func depth(dir string) int {
	if dir == topLevel {
		return 0
	}
	return strings.Count(dir, "/") + 1
}
