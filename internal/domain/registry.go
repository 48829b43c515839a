// Package domain registers every list page the console knows about.
package domain

import (
	"fmt"
	"sort"

	"github.com/ehr/praxis/internal/domain/absence"
	"github.com/ehr/praxis/internal/domain/booking"
	"github.com/ehr/praxis/internal/domain/catalog"
	"github.com/ehr/praxis/internal/domain/clinichours"
	"github.com/ehr/praxis/internal/domain/dicom"
	"github.com/ehr/praxis/internal/domain/document"
	"github.com/ehr/praxis/internal/domain/ecard"
	"github.com/ehr/praxis/internal/domain/workshift"
	"github.com/ehr/praxis/internal/listedit"
)

// Entry pairs a resource with its development seed data.
type Entry struct {
	Resource *listedit.Resource
	Seed     func() []listedit.Record
}

func entries() []Entry {
	return []Entry{
		{absence.Resource(), absence.Seed},
		{clinichours.Resource(), clinichours.Seed},
		{workshift.Resource(), workshift.Seed},
		{catalog.ServiceCategories(), catalog.SeedServiceCategories},
		{catalog.MedicalSpecialties(), catalog.SeedMedicalSpecialties},
		{catalog.Tariffs(), catalog.SeedTariffs},
		{catalog.ICD10Codes(), catalog.SeedICD10Codes},
		{dicom.Resource(), dicom.Seed},
		{ecard.Resource(), ecard.Seed},
		{document.Resource(), document.Seed},
		{booking.Resource(), booking.Seed},
	}
}

// Registry looks resources up by path.
type Registry struct {
	byPath map[string]Entry
	order  []string
}

// NewRegistry builds the registry and checks every descriptor.
func NewRegistry() (*Registry, error) {
	r := &Registry{byPath: map[string]Entry{}}
	for _, e := range entries() {
		if err := e.Resource.Check(); err != nil {
			return nil, err
		}
		if _, dup := r.byPath[e.Resource.Path]; dup {
			return nil, fmt.Errorf("resource %q registered twice", e.Resource.Path)
		}
		r.byPath[e.Resource.Path] = e
		r.order = append(r.order, e.Resource.Path)
	}
	sort.Strings(r.order)
	return r, nil
}

// MustRegistry is NewRegistry for package-level wiring.
func MustRegistry() *Registry {
	r, err := NewRegistry()
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the descriptor for path.
func (r *Registry) Lookup(path string) (*listedit.Resource, bool) {
	e, ok := r.byPath[path]
	if !ok {
		return nil, false
	}
	return e.Resource, true
}

// Entry returns the registry entry for path.
func (r *Registry) Entry(path string) (Entry, bool) {
	e, ok := r.byPath[path]
	return e, ok
}

// Paths returns every resource path, sorted.
func (r *Registry) Paths() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Resources returns every descriptor in path order.
func (r *Registry) Resources() []*listedit.Resource {
	out := make([]*listedit.Resource, 0, len(r.order))
	for _, p := range r.order {
		out = append(out, r.byPath[p].Resource)
	}
	return out
}
