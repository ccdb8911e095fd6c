package dedup

import (
	"slices"
	"sort"
	"sync"

	"github.com/lehigh-university-libraries/bibmatch/internal/matchkey"
	"github.com/lehigh-university-libraries/bibmatch/internal/stdnum"
)

// Group is a set of records sharing a match key.
type Group struct {
	Key     matchkey.Key `yaml:"key" json:"key"`
	Records []string     `yaml:"records" json:"records"`
}

// IdentifierGroup is a set of records sharing a standard number.
type IdentifierGroup struct {
	Identifier stdnum.Identifier `yaml:"identifier" json:"identifier"`
	Records    []string          `yaml:"records" json:"records"`
}

// Index accumulates record refs (see Ref) by match key and by standard
// number. It is safe for concurrent use.
type Index struct {
	byKey        map[matchkey.Key][]string
	byIdentifier map[stdnum.Identifier][]string
	keys         map[string]matchkey.Key
	unidentified map[string]bool
	mu           sync.RWMutex
}

func NewIndex() *Index {
	return &Index{
		byKey:        make(map[matchkey.Key][]string),
		byIdentifier: make(map[stdnum.Identifier][]string),
		keys:         make(map[string]matchkey.Key),
		unidentified: make(map[string]bool),
	}
}

// Add records r under its key and each of its identifiers. Records with no
// standard number can only ever group by key and are counted separately.
func (x *Index) Add(r Result) {
	x.mu.Lock()
	defer x.mu.Unlock()

	ref := r.Ref()
	x.byKey[r.Key] = appendID(x.byKey[r.Key], ref)
	if r.Identifiers.Empty() {
		x.unidentified[ref] = true
	} else {
		delete(x.unidentified, ref)
		for _, id := range r.Identifiers.Identifiers() {
			x.byIdentifier[id] = appendID(x.byIdentifier[id], ref)
		}
	}
	x.keys[ref] = r.Key
}

// Len returns the number of distinct records indexed.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.keys)
}

// Unidentified returns the number of records indexed without any standard
// number.
func (x *Index) Unidentified() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.unidentified)
}

// KeyOf returns the match key recorded for a record ref.
func (x *Index) KeyOf(ref string) (matchkey.Key, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	k, ok := x.keys[ref]
	return k, ok
}

// RecordsForKey returns the sorted record refs sharing key.
func (x *Index) RecordsForKey(key matchkey.Key) []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return sortedCopy(x.byKey[key])
}

// RecordsForIdentifier returns the sorted record refs carrying id.
func (x *Index) RecordsForIdentifier(id stdnum.Identifier) []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return sortedCopy(x.byIdentifier[id])
}

// Groups returns every match key shared by at least minSize records, largest
// groups first and ties broken by key.
func (x *Index) Groups(minSize int) []Group {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var groups []Group
	for key, ids := range x.byKey {
		if len(ids) >= minSize {
			groups = append(groups, Group{Key: key, Records: sortedCopy(ids)})
		}
	}
	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i].Records) != len(groups[j].Records) {
			return len(groups[i].Records) > len(groups[j].Records)
		}
		return groups[i].Key < groups[j].Key
	})
	return groups
}

// IdentifierGroups returns every standard number shared by at least minSize
// records, ordered like Groups.
func (x *Index) IdentifierGroups(minSize int) []IdentifierGroup {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var groups []IdentifierGroup
	for id, ids := range x.byIdentifier {
		if len(ids) >= minSize {
			groups = append(groups, IdentifierGroup{Identifier: id, Records: sortedCopy(ids)})
		}
	}
	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i].Records) != len(groups[j].Records) {
			return len(groups[i].Records) > len(groups[j].Records)
		}
		return groups[i].Identifier.String() < groups[j].Identifier.String()
	})
	return groups
}

func appendID(ids []string, id string) []string {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}

func sortedCopy(ids []string) []string {
	out := slices.Clone(ids)
	slices.Sort(out)
	return out
}
