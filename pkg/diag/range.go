package diag

// Ranger wraps the Range method.
type Ranger interface {
	// Range returns the range associated with the value.
	Range() Ranging
}

// Ranging represents a range [From, To) of byte offsets within a source. Structs
// can embed Ranging to satisfy the [Ranger] interface.
type Ranging struct {
	From int
	To   int
}

// Range returns the Ranging itself.
func (r Ranging) Range() Ranging { return r }

// Contains reports whether the byte offset i falls within the range.
func (r Ranging) Contains(i int) bool { return r.From <= i && i < r.To }

// PointRanging returns a Ranging covering the single byte at p.
func PointRanging(p int) Ranging {
	return Ranging{p, p + 1}
}

// MixedRanging returns a Ranging from the start position of a to the end
// position of b.
func MixedRanging(a, b Ranger) Ranging {
	return Ranging{a.Range().From, b.Range().To}
}
