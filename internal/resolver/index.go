package resolver

import (
	"github.com/tercih-asistani/app/models"
	"github.com/tercih-asistani/internal/normalizer"
)

// Entry is one indexed catalog entity with its normalized search terms
// (canonical name first, aliases after).
type Entry struct {
	ID     string
	Name   string
	InstID string // owning institution, programs only
	Terms  []string
}

// Index is an immutable snapshot of the catalog built for fuzzy lookup.
// A rebuild produces a fresh Index and the resolver swaps it atomically, so
// in-flight resolutions always read a consistent snapshot; nothing here is
// mutated after construction.
type Index struct {
	version        string
	institutions   []Entry
	programs       []Entry
	programsByInst map[string][]int
}

// BuildIndex normalizes every canonical name and alias into a new snapshot.
func BuildIndex(version string, insts []models.Institution, progs []models.Program, tn *normalizer.TextNormalizer) *Index {
	idx := &Index{
		version:        version,
		institutions:   make([]Entry, 0, len(insts)),
		programs:       make([]Entry, 0, len(progs)),
		programsByInst: make(map[string][]int, len(insts)),
	}

	for _, inst := range insts {
		idx.institutions = append(idx.institutions, buildEntry(inst.InstID, inst.Name, "", inst.Aliases, tn))
	}
	for _, p := range progs {
		idx.programs = append(idx.programs, buildEntry(p.ProgramID, p.Name, p.InstID, p.Aliases, tn))
		idx.programsByInst[p.InstID] = append(idx.programsByInst[p.InstID], len(idx.programs)-1)
	}
	return idx
}

func buildEntry(id, name, instID string, aliases []string, tn *normalizer.TextNormalizer) Entry {
	terms := make([]string, 0, len(aliases)+1)
	if t := tn.NormalizeTerm(name); t != "" {
		terms = append(terms, t)
	}
	for _, a := range aliases {
		if t := tn.NormalizeTerm(a); t != "" {
			terms = append(terms, t)
		}
	}
	return Entry{ID: id, Name: name, InstID: instID, Terms: terms}
}

// Version identifies the catalog snapshot the index was built from.
func (idx *Index) Version() string { return idx.version }

// InstitutionCount and ProgramCount feed the admin stats endpoint.
func (idx *Index) InstitutionCount() int { return len(idx.institutions) }
func (idx *Index) ProgramCount() int     { return len(idx.programs) }

// ownerOf returns the owning institution of a program in this snapshot.
func (idx *Index) ownerOf(programID string) string {
	for _, e := range idx.programs {
		if e.ID == programID {
			return e.InstID
		}
	}
	return ""
}

// programEntries returns the program entries, constrained to one institution
// when instID is non-empty.
func (idx *Index) programEntries(instID string) []Entry {
	if instID == "" {
		return idx.programs
	}
	positions := idx.programsByInst[instID]
	scoped := make([]Entry, 0, len(positions))
	for _, pos := range positions {
		scoped = append(scoped, idx.programs[pos])
	}
	return scoped
}
