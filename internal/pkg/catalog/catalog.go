package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"

	"notification-hub/internal/domain"
)

//go:embed default.yaml
var defaultCatalog []byte

// Kind names accepted by Render.
const (
	KindCameraTurnedOn         = "camera_turned_on"
	KindCameraTurnedOff        = "camera_turned_off"
	KindCameraStartedRecording = "camera_started_recording"
	KindCameraStoppedRecording = "camera_stopped_recording"
	KindCameraCreated          = "camera_created"
	KindCameraMoved            = "camera_moved"
	KindCustomerCreated        = "customer_created_by_employee"
)

type entry struct {
	Type        string `yaml:"type"`
	Priority    string `yaml:"priority"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

type compiled struct {
	typ         domain.TypeNotification
	priority    domain.Priority
	title       *template.Template
	description *template.Template
}

// Rendered is a catalog entry with its templates applied.
type Rendered struct {
	Type        domain.TypeNotification
	Priority    domain.Priority
	Title       string
	Description string
}

type Catalog struct {
	mu      sync.RWMutex
	entries map[string]compiled
}

// Load reads the catalog at path, or the embedded default when path is empty.
func Load(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		data = raw
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var doc struct {
		Kinds map[string]entry `yaml:"kinds"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c := &Catalog{entries: make(map[string]compiled, len(doc.Kinds))}
	for kind, e := range doc.Kinds {
		typ, err := domain.ParseTypeNotification(e.Type)
		if err != nil {
			return nil, fmt.Errorf("catalog kind %s: %w", kind, err)
		}
		priority, err := domain.ParsePriority(e.Priority)
		if err != nil {
			return nil, fmt.Errorf("catalog kind %s: %w", kind, err)
		}
		title, err := template.New(kind + ".title").Option("missingkey=zero").Parse(e.Title)
		if err != nil {
			return nil, fmt.Errorf("catalog kind %s title: %w", kind, err)
		}
		description, err := template.New(kind + ".description").Option("missingkey=zero").Parse(e.Description)
		if err != nil {
			return nil, fmt.Errorf("catalog kind %s description: %w", kind, err)
		}
		c.entries[kind] = compiled{typ: typ, priority: priority, title: title, description: description}
	}

	return c, nil
}

func (c *Catalog) Has(kind string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[kind]
	return ok
}

func (c *Catalog) Render(kind string, fields map[string]any) (Rendered, error) {
	c.mu.RLock()
	e, ok := c.entries[kind]
	c.mu.RUnlock()
	if !ok {
		return Rendered{}, fmt.Errorf("unknown notification kind %q", kind)
	}

	var title, description bytes.Buffer
	if err := e.title.Execute(&title, fields); err != nil {
		return Rendered{}, fmt.Errorf("failed to render %s title: %w", kind, err)
	}
	if err := e.description.Execute(&description, fields); err != nil {
		return Rendered{}, fmt.Errorf("failed to render %s description: %w", kind, err)
	}

	return Rendered{
		Type:        e.typ,
		Priority:    e.priority,
		Title:       title.String(),
		Description: description.String(),
	}, nil
}
