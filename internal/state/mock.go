package state

import "fmt"

// MemStore is an in-memory Store for tests and for deterministic evaluation
// without filesystem state.
type MemStore struct {
	owners map[string]string

	// ReadErr and WriteErr, when set, are returned by the corresponding
	// operation. Used to exercise the fault-swallowing contract.
	ReadErr  error
	WriteErr error
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{owners: make(map[string]string)}
}

func memKey(host, group string) string {
	return fmt.Sprintf("%s|%s", SafeKey(host), SafeKey(group))
}

// Read returns the stored owner, if any.
func (s *MemStore) Read(host, group string) (string, bool, error) {
	if s.ReadErr != nil {
		return "", false, s.ReadErr
	}
	owner, ok := s.owners[memKey(host, group)]
	return owner, ok, nil
}

// Write records the owner.
func (s *MemStore) Write(host, group, owner string) error {
	if s.WriteErr != nil {
		return s.WriteErr
	}
	s.owners[memKey(host, group)] = owner
	return nil
}
