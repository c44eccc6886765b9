// cmd/tools/worker-generator/main.go
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"quote-workflow/pkg/registry"
)

// WorkerData feeds the scaffold templates.
type WorkerData struct {
	Name        string
	PackageName string
	Dir         string
	TaskType    string
	Description string
	Inputs      []Field
	Outputs     []Field
	ErrorCodes  []string
	Timeout     time.Duration
}

// Field is one JSON variable of a job.
type Field struct {
	GoName  string
	JSONTag string
}

func newWorkerData(task registry.Task) (WorkerData, error) {
	timeout := 30 * time.Second
	if task.Timeout != "" {
		d, err := time.ParseDuration(task.Timeout)
		if err != nil {
			return WorkerData{}, fmt.Errorf("task %s: invalid timeout %q", task.ID, task.Timeout)
		}
		timeout = d
	}
	return WorkerData{
		Name:        task.DisplayName,
		PackageName: strings.ReplaceAll(task.ID, "-", ""),
		Dir:         filepath.Join(strings.ToLower(task.Category), task.ID),
		TaskType:    task.TaskType,
		Description: task.Description,
		Inputs:      fields(task.Inputs),
		Outputs:     fields(task.Outputs),
		ErrorCodes:  task.ErrorCodes,
		Timeout:     timeout,
	}, nil
}

func fields(names []string) []Field {
	out := make([]Field, 0, len(names))
	for _, n := range names {
		out = append(out, Field{GoName: goName(n), JSONTag: n})
	}
	return out
}

// goName turns snake_case and camelCase variable names into exported Go
// identifiers: policy_num -> PolicyNum, quoteId -> QuoteID.
func goName(s string) string {
	var b strings.Builder
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' }) {
		if strings.EqualFold(part, "id") {
			b.WriteString("ID")
			continue
		}
		if strings.HasSuffix(part, "Id") {
			part = strings.TrimSuffix(part, "Id") + "ID"
		}
		b.WriteString(strings.ToUpper(part[:1]) + part[1:])
	}
	return b.String()
}

const configTemplate = `// internal/workers/{{ .Dir }}/config.go
package {{ .PackageName }}

import (
	"time"

	"quote-workflow/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig(appCfg *config.Config) *Config {
	cfg := &Config{Timeout: {{ printf "%d" .Timeout.Milliseconds }} * time.Millisecond}
	if appCfg == nil {
		return cfg
	}
	if wc := config.GetWorkerConfig(appCfg, TaskType); wc.Timeout > 0 {
		cfg.Timeout = config.GetDuration(wc.Timeout)
	}
	return cfg
}
`

const modelsTemplate = `// internal/workers/{{ .Dir }}/models.go
package {{ .PackageName }}

type Input struct {
	SessionID string ` + "`json:\"sessionId\"`" + `
{{- range .Inputs }}
	{{ .GoName }} interface{} ` + "`json:\"{{ .JSONTag }}\"`" + `
{{- end }}
}

type Output struct {
	SessionID string ` + "`json:\"sessionId\"`" + `
{{- range .Outputs }}
	{{ .GoName }} interface{} ` + "`json:\"{{ .JSONTag }}\"`" + `
{{- end }}
}
`

const serviceTemplate = `// internal/workers/{{ .Dir }}/service.go
package {{ .PackageName }}

import (
	"context"

	"quote-workflow/internal/common/logger"
	"quote-workflow/internal/common/session"
)

// Service implements {{ .Name }}.{{ if .Description }} {{ .Description }}{{ end }}
type Service struct {
	config *Config
	logger logger.Logger
}

func NewService(cfg *Config, log logger.Logger) *Service {
	return &Service{config: cfg, logger: log}
}

func (s *Service) Execute(ctx context.Context, st *session.State, input *Input) (*Output, error) {
	return &Output{SessionID: st.ID()}, nil
}
`

const handlerTemplate = `// internal/workers/{{ .Dir }}/handler.go
package {{ .PackageName }}

import (
	"context"
	"errors"
	"fmt"

	"quote-workflow/internal/common/camunda"
	"quote-workflow/internal/common/config"
	apperrors "quote-workflow/internal/common/errors"
	"quote-workflow/internal/common/logger"
	"quote-workflow/internal/common/session"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "{{ .TaskType }}"

var ErrInvalidInput = errors.New("INPUT_PARSING_FAILED")
{{ if .ErrorCodes }}
// Business errors: {{ join .ErrorCodes ", " }}.
{{ end }}
type Handler struct {
	config   *Config
	service  *Service
	sessions *session.Registry
	errors   *apperrors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(appCfg *config.Config, sessions *session.Registry, log logger.Logger) *Handler {
	cfg := LoadConfig(appCfg)
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:   cfg,
		service:  NewService(cfg, log),
		sessions: sessions,
		errors:   apperrors.NewErrorHandler(log),
		logger:   log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := camunda.DecodeVariables(job, &input); err != nil {
		h.errors.HandleJobError(ctx, client, job, fmt.Errorf("%w: %v", ErrInvalidInput, err))
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	if err := camunda.CompleteJob(ctx, client, job, output); err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	st, err := h.sessions.GetOrCreate(input.SessionID)
	if err != nil {
		return nil, err
	}
	return h.service.Execute(ctx, st, input)
}
`

const testTemplate = `package {{ .PackageName }}

import (
	"context"
	"testing"

	"quote-workflow/internal/common/cache"
	"quote-workflow/internal/common/logger"
	"quote-workflow/internal/common/session"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute(t *testing.T) {
	h := NewHandler(nil, session.NewRegistry(cache.NewMemoryStore()), logger.NewTestLogger(t))

	id := uuid.NewString()
	out, err := h.Execute(context.Background(), &Input{SessionID: id})
	require.NoError(t, err)
	assert.Equal(t, id, out.SessionID)
}
`

var templates = []struct {
	file string
	body string
}{
	{"config.go", configTemplate},
	{"models.go", modelsTemplate},
	{"service.go", serviceTemplate},
	{"handler.go", handlerTemplate},
	{"handler_test.go", testTemplate},
}

// generate writes the scaffold into root/<category>/<id>. Existing files are
// never overwritten.
func generate(root string, data WorkerData, out io.Writer) error {
	dir := filepath.Join(root, data.Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	funcs := template.FuncMap{"join": strings.Join}
	for _, t := range templates {
		tmpl, err := template.New(t.file).Funcs(funcs).Parse(t.body)
		if err != nil {
			return fmt.Errorf("parse template %s: %w", t.file, err)
		}

		path := filepath.Join(dir, t.file)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			fmt.Fprintf(out, "- skipped %s (exists)\n", path)
			continue
		}
		if err != nil {
			return err
		}
		err = tmpl.Execute(f, data)
		f.Close()
		if err != nil {
			return fmt.Errorf("render %s: %w", t.file, err)
		}
		fmt.Fprintf(out, "+ generated %s\n", path)
	}
	return nil
}

func main() {
	id := flag.String("task", "", "Task ID from registry (e.g., calculate-premium)")
	outputDir := flag.String("output", "./internal/workers/", "Root directory for generated workers")
	registryPath := flag.String("registry", "configs/task-registry.json", "Path to the task registry JSON file")
	flag.Parse()

	if *id == "" {
		fmt.Println("Usage: worker-generator --task <id> [--output <dir>] [--registry <path>]")
		os.Exit(1)
	}

	reg, err := registry.Load(*registryPath)
	if err != nil {
		fmt.Printf("Error loading registry from %s: %v\n", *registryPath, err)
		os.Exit(1)
	}

	var task *registry.Task
	for i := range reg.Tasks {
		if reg.Tasks[i].ID == *id {
			task = &reg.Tasks[i]
			break
		}
	}
	if task == nil {
		fmt.Printf("Task '%s' not found in registry %s\n", *id, *registryPath)
		os.Exit(1)
	}

	data, err := newWorkerData(*task)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := generate(*outputDir, data, os.Stdout); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nNext steps:\n")
	fmt.Printf("  1. Implement the step in service.go\n")
	fmt.Printf("  2. Add the handler to workflow.Steps and JobHandlers\n")
	fmt.Printf("  3. Add a workers.%s entry to configs/config.yaml\n", data.TaskType)
}
