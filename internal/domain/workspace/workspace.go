// Package workspace groups the per-doctor state: the section hierarchy with
// its ghost sections, the summarizer catalog and the assignment matrix.
// Matrices of different doctors are independent; the exclusivity rule never
// crosses workspaces.
package workspace

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/shilpijc/EHR-pipeline-sub000/internal/domain/hierarchy"
	"github.com/shilpijc/EHR-pipeline-sub000/internal/domain/matrix"
	"github.com/shilpijc/EHR-pipeline-sub000/internal/domain/summarizer"
	"github.com/shilpijc/EHR-pipeline-sub000/internal/platform/clock"
)

var ErrInvalidDoctor = errors.New("doctor id is required")

type Workspace struct {
	DoctorID    string
	Sections    *hierarchy.Hierarchy
	Summarizers *summarizer.Service
	Matrix      *matrix.Engine
}

// Registry hands out one Workspace per doctor, created on first use from the
// base hierarchy.
type Registry struct {
	mu         sync.Mutex
	base       *hierarchy.Hierarchy
	resources  summarizer.Resources
	clock      clock.Clock
	logger     zerolog.Logger
	workspaces map[string]*Workspace
}

func NewRegistry(base *hierarchy.Hierarchy, resources summarizer.Resources, clk clock.Clock, logger zerolog.Logger) *Registry {
	return &Registry{
		base:       base,
		resources:  resources,
		clock:      clk,
		logger:     logger,
		workspaces: make(map[string]*Workspace),
	}
}

// Get returns the workspace of doctorID, creating it if needed.
func (r *Registry) Get(doctorID string) (*Workspace, error) {
	doctorID = strings.TrimSpace(doctorID)
	if doctorID == "" {
		return nil, ErrInvalidDoctor
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if ws, ok := r.workspaces[doctorID]; ok {
		return ws, nil
	}

	sections := r.base.Clone()
	summarizers := summarizer.NewService(doctorID, summarizer.NewMemoryRepository(), r.resources, r.clock)
	logger := r.logger.With().Str("doctor_id", doctorID).Logger()
	ws := &Workspace{
		DoctorID:    doctorID,
		Sections:    sections,
		Summarizers: summarizers,
		Matrix:      matrix.NewEngine(sections, summarizers, matrix.WithLogger(logger)),
	}
	r.workspaces[doctorID] = ws
	logger.Info().Msg("workspace created")
	return ws, nil
}

// Doctors returns the ids of every workspace created so far, sorted.
func (r *Registry) Doctors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.workspaces))
	for id := range r.workspaces {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
