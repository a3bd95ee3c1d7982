// Package plan turns a flat change inventory into an ordered sequence of
// size-bounded, directory-coherent commit batches. Aggregation groups
// additions by containing directory deepest-first, collapsing small
// directories into single units; packing fills batches greedily under a
// soft size ceiling.
package plan

// File is one addition with its measured size.
type File struct {
	Path   string
	SizeMB float64
}

// DirectoryUnit is one planning unit: a collapsed directory's full member
// set, or a single file from a directory too large to collapse. Deletions
// ride with the first unit of their directory. A unit whose size alone
// exceeds the batch ceiling is split across dedicated batches at packing
// time.
type DirectoryUnit struct {
	Dir       string
	Members   []File
	Deletes   []string
	SizeMB    float64
	Collapsed bool
}

// Batch is one unit of commit work: the additions and deletions staged,
// committed, and pushed together.
type Batch struct {
	AddPaths    []string
	DeletePaths []string
	TotalSizeMB float64
	Seq         int
}

// Empty reports whether the batch carries no work.
func (b *Batch) Empty() bool {
	return len(b.AddPaths) == 0 && len(b.DeletePaths) == 0
}
