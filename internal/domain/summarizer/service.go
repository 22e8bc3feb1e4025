package summarizer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/shilpijc/EHR-pipeline-sub000/internal/domain/resource"
	"github.com/shilpijc/EHR-pipeline-sub000/internal/platform/clock"
)

var ErrInvalid = errors.New("invalid summarizer")

// Resources is the resource catalog used to validate selections.
type Resources interface {
	HasEHR(ehr string) bool
	Lookup(ehr, id string) (resource.Definition, bool)
}

// Service is the summarizer catalog of one doctor. Deletion is not exposed
// here; it goes through the matrix cascade, which calls Remove.
type Service struct {
	doctorID  string
	repo      Repository
	resources Resources
	clock     clock.Clock
}

func NewService(doctorID string, repo Repository, resources Resources, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.New()
	}
	return &Service{doctorID: doctorID, repo: repo, resources: resources, clock: clk}
}

func (s *Service) Create(sm *Summarizer) error {
	if sm.DoctorID != "" && sm.DoctorID != s.doctorID {
		return fmt.Errorf("%w: doctor_id %q does not match %q", ErrInvalid, sm.DoctorID, s.doctorID)
	}
	sm.DoctorID = s.doctorID
	if err := s.validate(sm); err != nil {
		return err
	}
	sm.ID = uuid.NewString()
	now := s.clock.Now()
	sm.CreatedAt = now
	sm.UpdatedAt = now
	return s.repo.Create(sm)
}

func (s *Service) Get(id string) (*Summarizer, error) {
	return s.repo.Get(id)
}

// Update replaces the editable fields of an existing summarizer. Owner and
// creation time are preserved.
func (s *Service) Update(sm *Summarizer) error {
	existing, err := s.repo.Get(sm.ID)
	if err != nil {
		return err
	}
	sm.DoctorID = existing.DoctorID
	sm.CreatedAt = existing.CreatedAt
	if err := s.validate(sm); err != nil {
		return err
	}
	sm.UpdatedAt = s.clock.Now()
	return s.repo.Update(sm)
}

func (s *Service) List(limit, offset int) ([]*Summarizer, int, error) {
	return s.repo.List(limit, offset)
}

// Exists reports whether id is in the catalog.
func (s *Service) Exists(id string) bool {
	_, err := s.repo.Get(id)
	return err == nil
}

// Remove deletes id from the catalog, reporting whether it was present.
func (s *Service) Remove(id string) bool {
	return s.repo.Delete(id) == nil
}

func (s *Service) validate(sm *Summarizer) error {
	sm.Name = strings.TrimSpace(sm.Name)
	if sm.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if sm.EHR == "" {
		return fmt.Errorf("%w: ehr is required", ErrInvalid)
	}
	if s.resources != nil && !s.resources.HasEHR(sm.EHR) {
		return fmt.Errorf("%w: unknown ehr %q", ErrInvalid, sm.EHR)
	}
	if !sm.PullFromEHR && !sm.AllowUpload && !sm.AllowText {
		return fmt.Errorf("%w: at least one input type must be enabled", ErrInvalid)
	}
	if sm.SelectedResource != "" && s.resources != nil {
		if _, ok := s.resources.Lookup(sm.EHR, sm.SelectedResource); !ok {
			return fmt.Errorf("%w: resource %q is not available for %s", ErrInvalid, sm.SelectedResource, sm.EHR)
		}
	}
	return nil
}
