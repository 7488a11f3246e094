package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Item is the canonical representation of one inspectable checkpoint.
// Source templates are inconsistent about the identifier key (sl_no,
// slNo, item_id) and about nesting items under subsections; both are
// normalized once at ingestion so consumers never branch on shape.
type Item struct {
	SlNo        string `json:"slNo"`
	Description string `json:"description"`
}

// Section is a flat group of items. Subsection titles from the source
// template are folded into the section title.
type Section struct {
	Title string `json:"title"`
	Items []Item `json:"items"`
}

// Checklist is the normalized checklist structure of an audit.
type Checklist struct {
	Sections []Section `json:"sections"`
}

// Items returns every item of every section in template order.
func (c Checklist) Items() []Item {
	var all []Item
	for _, s := range c.Sections {
		all = append(all, s.Items...)
	}
	return all
}

// rawItem tolerates the identifier and description key variants found in
// checklist templates.
type rawItem struct {
	SlNo        string `json:"slNo"`
	SlNoAlt     string `json:"sl_no"`
	ItemID      string `json:"item_id"`
	Description string `json:"description"`
	Desc        string `json:"desc"`
}

func (r rawItem) canonical() (Item, error) {
	id := r.SlNo
	if id == "" {
		id = r.SlNoAlt
	}
	if id == "" {
		id = r.ItemID
	}
	if id == "" {
		return Item{}, fmt.Errorf("checklist item has no identifier")
	}
	desc := r.Description
	if desc == "" {
		desc = r.Desc
	}
	return Item{SlNo: id, Description: desc}, nil
}

type rawSubsection struct {
	Title string    `json:"title"`
	Items []rawItem `json:"items"`
}

type rawSection struct {
	Title       string          `json:"title"`
	Items       []rawItem       `json:"items"`
	Subsections []rawSubsection `json:"subsections"`
}

type rawChecklist struct {
	Sections []rawSection `json:"sections"`
}

// ParseChecklist decodes a checklist template and normalizes it: item
// identifier variants are unified and subsections are flattened into
// their parent section.
func ParseChecklist(data []byte) (Checklist, error) {
	var raw rawChecklist
	if err := json.Unmarshal(data, &raw); err != nil {
		return Checklist{}, fmt.Errorf("failed to decode checklist: %w", err)
	}

	cl := Checklist{Sections: make([]Section, 0, len(raw.Sections))}
	for _, rs := range raw.Sections {
		items := make([]Item, 0, len(rs.Items))
		for _, ri := range rs.Items {
			item, err := ri.canonical()
			if err != nil {
				return Checklist{}, fmt.Errorf("section %q: %w", rs.Title, err)
			}
			items = append(items, item)
		}
		for _, sub := range rs.Subsections {
			for _, ri := range sub.Items {
				item, err := ri.canonical()
				if err != nil {
					return Checklist{}, fmt.Errorf("section %q: %w", rs.Title, err)
				}
				if sub.Title != "" {
					item.Description = strings.TrimSpace(sub.Title + ": " + item.Description)
				}
				items = append(items, item)
			}
		}
		cl.Sections = append(cl.Sections, Section{Title: rs.Title, Items: items})
	}
	return cl, nil
}
