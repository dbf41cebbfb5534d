package store

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sitewatch/fieldops/internal/model"
)

// MemoryStore is an in-memory Store for tests and embedded use. All reads
// and writes copy records, so callers never share memory with the store.
type MemoryStore struct {
	mu          sync.RWMutex
	photos      map[string]model.PhotoEvidence
	spaces      map[string][]model.BuildingSpace // by building
	spaceStats  map[string][]model.SpaceStats    // by building
	inspections map[string]model.InspectionChecklist
	byPeriod    map[string]string // buildingID|period -> inspection id
	issues      map[string]model.Issue
}

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		photos:      make(map[string]model.PhotoEvidence),
		spaces:      make(map[string][]model.BuildingSpace),
		spaceStats:  make(map[string][]model.SpaceStats),
		inspections: make(map[string]model.InspectionChecklist),
		byPeriod:    make(map[string]string),
		issues:      make(map[string]model.Issue),
	}
}

func periodKey(buildingID string, p model.Period) string {
	return buildingID + "|" + p.String()
}

func (s *MemoryStore) CreatePhoto(_ context.Context, photo *model.PhotoEvidence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.photos[photo.ID]; ok {
		return eris.Wrapf(ErrAlreadyExists, "memory: photo %s", photo.ID)
	}
	photo.Version = 1
	s.photos[photo.ID] = copyPhoto(*photo)
	return nil
}

func (s *MemoryStore) GetPhoto(_ context.Context, id string) (*model.PhotoEvidence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.photos[id]
	if !ok {
		return nil, eris.Wrapf(ErrNotFound, "memory: photo %s", id)
	}
	cp := copyPhoto(p)
	return &cp, nil
}

func (s *MemoryStore) UpdatePhoto(_ context.Context, photo *model.PhotoEvidence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.photos[photo.ID]
	if !ok {
		return eris.Wrapf(ErrNotFound, "memory: photo %s", photo.ID)
	}
	if cur.Version != photo.Version {
		return eris.Wrapf(ErrConflict, "memory: photo %s at version %d, got %d",
			photo.ID, cur.Version, photo.Version)
	}
	photo.Version++
	s.photos[photo.ID] = copyPhoto(*photo)
	return nil
}

func (s *MemoryStore) ListPhotosByBuilding(_ context.Context, buildingID string) ([]model.PhotoEvidence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.PhotoEvidence
	for _, p := range s.photos {
		if p.BuildingID == buildingID {
			out = append(out, copyPhoto(p))
		}
	}
	return out, nil
}

func (s *MemoryStore) ListSpaces(_ context.Context, buildingID string) ([]model.BuildingSpace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.BuildingSpace(nil), s.spaces[buildingID]...), nil
}

func (s *MemoryStore) SeedSpaces(_ context.Context, spaces []model.BuildingSpace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sp := range spaces {
		s.spaces[sp.BuildingID] = append(s.spaces[sp.BuildingID], sp)
	}
	return nil
}

func (s *MemoryStore) GetSpaceStats(_ context.Context, buildingID string) ([]model.SpaceStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.SpaceStats(nil), s.spaceStats[buildingID]...), nil
}

func (s *MemoryStore) PutSpaceStats(_ context.Context, buildingID string, stats []model.SpaceStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spaceStats[buildingID] = append([]model.SpaceStats(nil), stats...)
	return nil
}

func (s *MemoryStore) CreateInspection(_ context.Context, checklist *model.InspectionChecklist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := periodKey(checklist.BuildingID, checklist.Period)
	if _, ok := s.byPeriod[key]; ok {
		return eris.Wrapf(ErrAlreadyExists, "memory: inspection %s", key)
	}
	checklist.Version = 1
	s.inspections[checklist.ID] = copyChecklist(*checklist)
	s.byPeriod[key] = checklist.ID
	return nil
}

func (s *MemoryStore) GetInspection(_ context.Context, buildingID string, period model.Period) (*model.InspectionChecklist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byPeriod[periodKey(buildingID, period)]
	if !ok {
		return nil, eris.Wrapf(ErrNotFound, "memory: inspection %s %s", buildingID, period)
	}
	c := copyChecklist(s.inspections[id])
	return &c, nil
}

func (s *MemoryStore) GetInspectionByID(_ context.Context, id string) (*model.InspectionChecklist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.inspections[id]
	if !ok {
		return nil, eris.Wrapf(ErrNotFound, "memory: inspection %s", id)
	}
	cp := copyChecklist(c)
	return &cp, nil
}

func (s *MemoryStore) UpdateInspection(_ context.Context, checklist *model.InspectionChecklist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.inspections[checklist.ID]
	if !ok {
		return eris.Wrapf(ErrNotFound, "memory: inspection %s", checklist.ID)
	}
	if cur.Version != checklist.Version {
		return eris.Wrapf(ErrConflict, "memory: inspection %s at version %d, got %d",
			checklist.ID, cur.Version, checklist.Version)
	}
	checklist.Version++
	s.inspections[checklist.ID] = copyChecklist(*checklist)
	return nil
}

func (s *MemoryStore) CreateIssue(_ context.Context, issue *model.Issue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.issues[issue.ID]; ok {
		return eris.Wrapf(ErrAlreadyExists, "memory: issue %s", issue.ID)
	}
	issue.Version = 1
	s.issues[issue.ID] = *issue
	return nil
}

func (s *MemoryStore) GetIssue(_ context.Context, id string) (*model.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	is, ok := s.issues[id]
	if !ok {
		return nil, eris.Wrapf(ErrNotFound, "memory: issue %s", id)
	}
	return &is, nil
}

func (s *MemoryStore) UpdateIssue(_ context.Context, issue *model.Issue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.issues[issue.ID]
	if !ok {
		return eris.Wrapf(ErrNotFound, "memory: issue %s", issue.ID)
	}
	if cur.Version != issue.Version {
		return eris.Wrapf(ErrConflict, "memory: issue %s at version %d, got %d",
			issue.ID, cur.Version, issue.Version)
	}
	issue.Version++
	s.issues[issue.ID] = *issue
	return nil
}

func (s *MemoryStore) ListIssuesByItem(_ context.Context, checklistItemID string) ([]model.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Issue
	for _, is := range s.issues {
		if is.ChecklistItemID == checklistItemID {
			out = append(out, is)
		}
	}
	return out, nil
}

func (s *MemoryStore) Migrate(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

func copyPhoto(p model.PhotoEvidence) model.PhotoEvidence {
	cp := p
	cp.Tags = append([]string(nil), p.Tags...)
	if p.SmartLocation != nil {
		sl := *p.SmartLocation
		cp.SmartLocation = &sl
	}
	if p.WorkerOverride != nil {
		wo := *p.WorkerOverride
		cp.WorkerOverride = &wo
	}
	return cp
}

func copyChecklist(c model.InspectionChecklist) model.InspectionChecklist {
	cp := c
	cp.Items = append([]model.ChecklistItem(nil), c.Items...)
	if c.InspectionDate != nil {
		d := *c.InspectionDate
		cp.InspectionDate = &d
	}
	return cp
}
