// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

func Load(path string) (*TaskRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg TaskRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

// LoadOrNew returns an empty registry when path does not exist yet.
func LoadOrNew(path string) (*TaskRegistry, error) {
	reg, err := Load(path)
	if os.IsNotExist(err) {
		return &TaskRegistry{Version: "1.0.0", Tasks: []Task{}}, nil
	}
	return reg, err
}

func (r *TaskRegistry) Save(path string) error {
	r.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

// Find returns the task registered for taskType.
func (r *TaskRegistry) Find(taskType string) (Task, bool) {
	for _, t := range r.Tasks {
		if t.TaskType == taskType {
			return t, true
		}
	}
	return Task{}, false
}

func (r *TaskRegistry) Add(t Task) error {
	for _, existing := range r.Tasks {
		if existing.ID == t.ID {
			return fmt.Errorf("task with ID %s already exists", t.ID)
		}
		if existing.TaskType == t.TaskType {
			return fmt.Errorf("task type %s is already registered as %s", t.TaskType, existing.ID)
		}
	}
	r.Tasks = append(r.Tasks, t)
	return nil
}

// Update sets one field of the task with the given id.
func (r *TaskRegistry) Update(id, field, value string) error {
	for i := range r.Tasks {
		if r.Tasks[i].ID != id {
			continue
		}
		t := &r.Tasks[i]
		switch field {
		case "status":
			switch value {
			case StatusPlanned, StatusInProgress, StatusCompleted, StatusVerified:
			default:
				return fmt.Errorf("unknown status: %s", value)
			}
			t.ImplementationStatus = value
		case "version":
			t.Version = value
		case "displayName":
			t.DisplayName = value
		case "description":
			t.Description = value
		case "category":
			t.Category = value
		case "timeout":
			if _, err := time.ParseDuration(value); err != nil {
				return fmt.Errorf("invalid timeout value: %w", err)
			}
			t.Timeout = value
		case "retries":
			retries, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("invalid retries value: %w", err)
			}
			t.Retries = retries
		default:
			return fmt.Errorf("unknown field: %s", field)
		}
		return nil
	}
	return fmt.Errorf("task with ID %s not found", id)
}

// Validate checks required fields and uniqueness of ids and task types.
func (r *TaskRegistry) Validate() error {
	if len(r.Tasks) == 0 {
		return fmt.Errorf("registry contains no tasks")
	}
	ids := make(map[string]bool)
	types := make(map[string]bool)
	for _, t := range r.Tasks {
		if t.ID == "" {
			return fmt.Errorf("task missing required field: ID")
		}
		if ids[t.ID] {
			return fmt.Errorf("duplicate task ID: %s", t.ID)
		}
		ids[t.ID] = true

		if t.DisplayName == "" {
			return fmt.Errorf("task %s missing required field: DisplayName", t.ID)
		}
		if t.Category == "" {
			return fmt.Errorf("task %s missing required field: Category", t.ID)
		}
		if t.TaskType == "" {
			return fmt.Errorf("task %s missing required field: TaskType", t.ID)
		}
		if types[t.TaskType] {
			return fmt.Errorf("duplicate task type: %s", t.TaskType)
		}
		types[t.TaskType] = true

		if t.Timeout != "" {
			if _, err := time.ParseDuration(t.Timeout); err != nil {
				return fmt.Errorf("task %s has invalid timeout %q", t.ID, t.Timeout)
			}
		}
	}
	return nil
}
