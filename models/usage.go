package models

// UsageMap records, for each jar that references classes elsewhere, the jars
// it references. Keys keep their insertion order.
type UsageMap struct {
	keys []Dep
	refs map[Key][]Dep
}

func NewUsageMap() *UsageMap {
	return &UsageMap{refs: map[Key][]Dep{}}
}

func (u *UsageMap) Add(from, to Dep) {
	if _, ok := u.refs[from.Key()]; !ok {
		u.keys = append(u.keys, from)
	}
	u.refs[from.Key()] = append(u.refs[from.Key()], to)
}

func (u *UsageMap) Contains(d Dep) bool {
	_, ok := u.refs[d.Key()]
	return ok
}

func (u *UsageMap) Keys() []Dep {
	return append([]Dep(nil), u.keys...)
}

func (u *UsageMap) Refs(d Dep) []Dep {
	return append([]Dep(nil), u.refs[d.Key()]...)
}

func (u *UsageMap) Len() int {
	return len(u.keys)
}

// Referenced returns every Dep referenced by some key, without duplicates,
// in the order first referenced.
func (u *UsageMap) Referenced() []Dep {
	var out []Dep
	seen := map[Key]bool{}
	for _, k := range u.keys {
		for _, d := range u.refs[k.Key()] {
			if !seen[d.Key()] {
				seen[d.Key()] = true
				out = append(out, d)
			}
		}
	}
	return out
}

// Minus returns the deps of all that are not keys of used, keeping the order
// of all.
func Minus(all []Dep, used *UsageMap) []Dep {
	return MinusDeps(all, used.Keys())
}

// MinusDeps returns the deps of all whose coordinates are not in exclude.
func MinusDeps(all []Dep, exclude []Dep) []Dep {
	excluded := map[Key]bool{}
	for _, d := range exclude {
		excluded[d.Key()] = true
	}

	var out []Dep
	for _, d := range all {
		if !excluded[d.Key()] {
			out = append(out, d)
		}
	}
	return out
}

// ContainsDep reports whether deps holds a Dep with the coordinates of d.
func ContainsDep(deps []Dep, d Dep) bool {
	for _, e := range deps {
		if e.Equal(d) {
			return true
		}
	}
	return false
}

// ExclusionMap maps a top-level dependency to the unused deps that should be
// excluded from it. Roots and their targets keep insertion order and targets
// are de-duplicated.
type ExclusionMap struct {
	roots   []Dep
	targets map[Key][]Dep
}

func NewExclusionMap() *ExclusionMap {
	return &ExclusionMap{targets: map[Key][]Dep{}}
}

// Put records root -> excluded and reports whether the pair was new.
func (e *ExclusionMap) Put(root, excluded Dep) bool {
	targets, ok := e.targets[root.Key()]
	if !ok {
		e.roots = append(e.roots, root)
	}
	if ContainsDep(targets, excluded) {
		return false
	}
	e.targets[root.Key()] = append(targets, excluded)
	return true
}

func (e *ExclusionMap) Roots() []Dep {
	return append([]Dep(nil), e.roots...)
}

func (e *ExclusionMap) Get(root Dep) []Dep {
	return append([]Dep(nil), e.targets[root.Key()]...)
}

func (e *ExclusionMap) Len() int {
	return len(e.roots)
}
