package rules

import "strconv"

// Tag value kinds.
const (
	TagValuesNumber  = "number"
	TagValuesEnum    = "enum"
	TagValuesSection = "section"
)

// TagValues describes the admissible items of a tag.
type TagValues struct {
	Type   string   `json:"type"`
	Start  int      `json:"start"`
	End    int      `json:"end"`
	Values []string `json:"values"`
}

// TagDefinition names a tag and its admissible items.
type TagDefinition struct {
	Name   string    `json:"name"`
	Values TagValues `json:"values"`
}

// Items lists the admissible values: Start..End-1 for numbers, the listed
// values for enums, nothing for section tags.
func (d TagDefinition) Items() []string {
	switch d.Values.Type {
	case TagValuesNumber:
		if d.Values.End <= d.Values.Start {
			return []string{}
		}
		items := make([]string, 0, d.Values.End-d.Values.Start)
		for i := d.Values.Start; i < d.Values.End; i++ {
			items = append(items, strconv.Itoa(i))
		}
		return items
	case TagValuesEnum:
		return append([]string{}, d.Values.Values...)
	default:
		// TODO: derive section tag items from the module's section titles.
		return []string{}
	}
}
