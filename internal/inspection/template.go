// Package inspection manages monthly inspection checklists: the singleton
// per-building-per-month lifecycle, item pass/fail updates, and the issues
// spawned from failed items.
package inspection

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sitewatch/fieldops/internal/model"
)

// TemplateItem is one entry of a checklist template. Templates carry no
// status; items are instantiated as pending when a checklist is created.
type TemplateItem struct {
	Category string `yaml:"category"`
	Title    string `yaml:"title"`
	SpaceID  string `yaml:"space_id,omitempty"`
}

// TemplateProvider supplies the checklist items a new monthly inspection
// starts from.
type TemplateProvider interface {
	Template(buildingID string) ([]TemplateItem, error)
}

// defaultTemplate covers the routine monthly walk-through. Buildings with
// bespoke checklists load a YAML template instead.
var defaultTemplate = []TemplateItem{
	{Category: "safety", Title: "Fire extinguishers charged and accessible"},
	{Category: "safety", Title: "Emergency exits clear and lit"},
	{Category: "mechanical", Title: "Boiler room free of leaks and corrosion"},
	{Category: "mechanical", Title: "HVAC filters inspected"},
	{Category: "electrical", Title: "Panel rooms locked, no scorching or odor"},
	{Category: "plumbing", Title: "No standing water in basement or utility areas"},
	{Category: "exterior", Title: "Roof drains and gutters clear"},
	{Category: "cleaning", Title: "Common areas cleaned per schedule"},
}

// StaticTemplate serves the same item list for every building.
type StaticTemplate struct {
	items []TemplateItem
}

// DefaultTemplate returns the compiled-in monthly walk-through template.
func DefaultTemplate() *StaticTemplate {
	return &StaticTemplate{items: defaultTemplate}
}

// NewStaticTemplate wraps a fixed item list as a provider.
func NewStaticTemplate(items []TemplateItem) *StaticTemplate {
	return &StaticTemplate{items: items}
}

func (s *StaticTemplate) Template(string) ([]TemplateItem, error) {
	out := make([]TemplateItem, len(s.items))
	copy(out, s.items)
	return out, nil
}

// templateFile is the on-disk YAML shape.
type templateFile struct {
	Items []TemplateItem `yaml:"items"`
}

// LoadTemplateFile reads a checklist template from a YAML file.
func LoadTemplateFile(path string) (*StaticTemplate, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "inspection: read template %s", path)
	}
	var tf templateFile
	if err := yaml.Unmarshal(raw, &tf); err != nil {
		return nil, eris.Wrapf(err, "inspection: parse template %s", path)
	}
	if len(tf.Items) == 0 {
		return nil, eris.Errorf("inspection: template %s has no items", path)
	}
	for i, it := range tf.Items {
		if it.Title == "" {
			return nil, eris.Errorf("inspection: template %s item %d missing title", path, i)
		}
		if it.Category == "" {
			return nil, eris.Errorf("inspection: template %s item %d missing category", path, i)
		}
	}
	return &StaticTemplate{items: tf.Items}, nil
}

func instantiate(items []TemplateItem) []model.ChecklistItem {
	out := make([]model.ChecklistItem, len(items))
	for i, it := range items {
		out[i] = model.ChecklistItem{
			ID:       newID(),
			Category: it.Category,
			Title:    it.Title,
			SpaceID:  it.SpaceID,
			Status:   model.ItemPending,
		}
	}
	return out
}
