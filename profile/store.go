package profile

import (
	"context"
	"sync/atomic"

	apperrors "github.com/skillsenselab/voiceid/errors"
	"github.com/skillsenselab/voiceid/feature"
	"github.com/skillsenselab/voiceid/logger"
)

// VoiceProfile is one enrolled employee voice.
type VoiceProfile struct {
	EmployeeID   string         `json:"employee_id"`
	EmployeeName string         `json:"employee_name"`
	Feature      feature.Vector `json:"feature"`

	// Confidence is the enrollment-time quality score, if recorded.
	Confidence float64 `json:"confidence,omitempty"`
}

// Source supplies the full profile set on demand.
type Source interface {
	Fetch(ctx context.Context) ([]VoiceProfile, error)
}

// Store is the in-memory profile set. Reads take a single atomic load;
// Reload replaces the whole set at once.
type Store struct {
	source Source
	log    *logger.Logger
	active atomic.Pointer[map[string]VoiceProfile]
}

// NewStore creates an empty store backed by the given source.
func NewStore(source Source, log *logger.Logger) *Store {
	s := &Store{
		source: source,
		log:    log.WithComponent("profile-store"),
	}
	empty := make(map[string]VoiceProfile)
	s.active.Store(&empty)
	return s
}

// Get returns the profile for an employee ID.
func (s *Store) Get(employeeID string) (VoiceProfile, bool) {
	p, ok := (*s.active.Load())[employeeID]
	return p, ok
}

// All returns a snapshot slice of every active profile.
func (s *Store) All() []VoiceProfile {
	active := *s.active.Load()
	out := make([]VoiceProfile, 0, len(active))
	for _, p := range active {
		out = append(out, p)
	}
	return out
}

// Len returns the number of active profiles.
func (s *Store) Len() int {
	return len(*s.active.Load())
}

// Reload fetches the profile set from the source and atomically swaps
// it in, returning the new active count. On fetch failure the previous
// set stays active. Rows without an employee ID or feature vector are
// skipped, not fatal.
func (s *Store) Reload(ctx context.Context) (int, error) {
	rows, err := s.source.Fetch(ctx)
	if err != nil {
		s.log.WithError(err).Error("profile reload failed, keeping previous set", map[string]interface{}{
			"active_profiles": s.Len(),
		})
		return s.Len(), apperrors.ProfileReloadFailed(err)
	}

	next := make(map[string]VoiceProfile, len(rows))
	skipped := 0
	for _, row := range rows {
		if row.EmployeeID == "" || row.Feature.Dim() == 0 {
			skipped++
			continue
		}
		next[row.EmployeeID] = row
	}
	s.active.Store(&next)

	fields := map[string]interface{}{"profiles": len(next)}
	if skipped > 0 {
		fields["skipped"] = skipped
	}
	s.log.Info("profiles reloaded", fields)
	return len(next), nil
}
