// Package file provides file-based persistence for workflow rules, executions
// and the CRM records written by automation.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/chantierpro/automation/pkg/persistence"
)

const (
	rulesDir         = "rules"
	executionsDir    = "executions"
	tasksDir         = "tasks"
	remindersDir     = "reminders"
	opportunitiesDir = "opportunities"
	clientsDir       = "clients"
)

// Persistence implements the persistence.Persistence interface using the file system.
// Every record is one JSON document under root/<kind>/<id>.json.
type Persistence struct {
	store *store

	rules         *RuleRepository
	executions    *ExecutionRepository
	tasks         *TaskRepository
	reminders     *ReminderRepository
	opportunities *OpportunityRepository
	clients       *ClientRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) *Persistence {
	s := &store{root: strings.Replace(root, "file://", "", 1)}

	return &Persistence{
		store:         s,
		rules:         &RuleRepository{store: s},
		executions:    &ExecutionRepository{store: s},
		tasks:         &TaskRepository{store: s},
		reminders:     &ReminderRepository{store: s},
		opportunities: &OpportunityRepository{store: s},
		clients:       &ClientRepository{store: s},
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.store.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) RuleRepository() persistence.RuleRepository { return fp.rules }

func (fp *Persistence) ExecutionRepository() persistence.ExecutionRepository { return fp.executions }

func (fp *Persistence) TaskRepository() persistence.TaskRepository { return fp.tasks }

func (fp *Persistence) ReminderRepository() persistence.ReminderRepository { return fp.reminders }

func (fp *Persistence) OpportunityRepository() persistence.OpportunityRepository {
	return fp.opportunities
}

func (fp *Persistence) ClientRepository() persistence.ClientRepository { return fp.clients }

// Opportunities exposes the concrete repository so CRM records can be seeded.
func (fp *Persistence) Opportunities() *OpportunityRepository { return fp.opportunities }

// Clients exposes the concrete repository so CRM records can be seeded.
func (fp *Persistence) Clients() *ClientRepository { return fp.clients }

// store serializes access to the directory tree. Reads share the lock,
// read-modify-write sequences hold it exclusively.
type store struct {
	mu   sync.RWMutex
	root string
}

// validateID validates that the ID is safe for file operations.
func validateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: ID cannot be empty", persistence.ErrInvalidID)
	}

	// Check for path traversal attempts
	if strings.Contains(id, "..") || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: ID contains invalid characters", persistence.ErrInvalidID)
	}

	return nil
}

func (s *store) path(kind, id string) string {
	return filepath.Join(s.root, kind, id+".json")
}

// read loads one document. Callers must hold s.mu. found is false when the file is missing.
func read[T any](s *store, kind, id string) (*T, bool, error) {
	if err := validateID(id); err != nil {
		return nil, false, err
	}

	body, err := os.ReadFile(s.path(kind, id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("failed to read %s %s: %w", kind, id, err)
	}

	var record T

	err = json.Unmarshal(body, &record)
	if err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal %s %s: %w", kind, id, err)
	}

	return &record, true, nil
}

// write stores one document. Callers must hold s.mu exclusively.
func write(s *store, kind, id string, record any) error {
	if err := validateID(id); err != nil {
		return err
	}

	err := os.MkdirAll(filepath.Join(s.root, kind), 0750)
	if err != nil {
		return fmt.Errorf("failed to create %s directory: %w", kind, err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s %s: %w", kind, id, err)
	}

	tmp := s.path(kind, id) + ".tmp"

	err = os.WriteFile(tmp, data, 0600)
	if err != nil {
		return fmt.Errorf("failed to write %s %s: %w", kind, id, err)
	}

	return os.Rename(tmp, s.path(kind, id))
}

// list loads every document of a kind. Callers must hold s.mu.
func list[T any](s *store, kind string) ([]*T, error) {
	jsonFiles, err := fs.Glob(os.DirFS(filepath.Join(s.root, kind)), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s files: %w", kind, err)
	}

	records := make([]*T, 0, len(jsonFiles))

	for _, name := range jsonFiles {
		record, found, err := read[T](s, kind, strings.TrimSuffix(name, ".json"))
		if err != nil {
			return nil, err
		}

		if found {
			records = append(records, record)
		}
	}

	return records, nil
}
