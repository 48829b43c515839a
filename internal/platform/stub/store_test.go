package stub

import (
	"errors"
	"sync"
	"testing"

	"github.com/ehr/praxis/internal/listedit"
)

func TestStore_SeedAssignsIDs(t *testing.T) {
	s := NewStore()
	s.Seed("tariffs", "_id", []listedit.Record{{"code": "T1"}, {"_id": "fixed", "code": "T2"}})

	all := s.List("tariffs", nil)
	if len(all) != 2 {
		t.Fatalf("expected 2 records, got %d", len(all))
	}
	if all[0]["_id"] != "fixed" {
		t.Errorf("expected newest first with kept id, got %v", all[0])
	}
	if id, _ := all[1]["_id"].(string); id == "" {
		t.Error("expected generated id")
	}
}

func TestStore_ReturnsCopies(t *testing.T) {
	s := NewStore()
	created := s.Create("absences", "_id", listedit.Record{"staffName": "A", "dates": []any{"2026-01-01"}})
	created["staffName"] = "changed"
	created["dates"].([]any)[0] = "changed"

	got, err := s.Get("absences", "_id", created["_id"].(string))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got["staffName"] != "A" || got["dates"].([]any)[0] != "2026-01-01" {
		t.Errorf("stored record was aliased: %v", got)
	}
}

func TestStore_UpdateKeepsID(t *testing.T) {
	s := NewStore()
	s.Seed("ecard-validations", "id", []listedit.Record{{"id": float64(7), "svNumber": "1237010180"}})

	rec, err := s.Update("ecard-validations", "id", "7", listedit.Record{"id": "99", "status": "valid"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if rec["id"] != "7" || rec["status"] != "valid" {
		t.Errorf("unexpected record %v", rec)
	}
}

func TestStore_NotFound(t *testing.T) {
	s := NewStore()
	if _, err := s.Get("absences", "_id", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.Delete("absences", "_id", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_FilterIsCaseInsensitive(t *testing.T) {
	s := NewStore()
	s.Seed("work-shifts", "_id", []listedit.Record{{"role": "nurse"}, {"role": "doctor"}})

	if got := s.List("work-shifts", map[string]string{"role": "NURSE"}); len(got) != 1 {
		t.Errorf("expected 1 match, got %d", len(got))
	}
}

func TestStore_ConcurrentCreates(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Create("documents", "_id", listedit.Record{"title": "x"})
		}()
	}
	wg.Wait()
	if n := s.Count()["documents"]; n != 50 {
		t.Errorf("expected 50 records, got %d", n)
	}
}
