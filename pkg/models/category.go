package models

// Category groups items and lists the item types allowed inside it.
type Category struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	ItemTypes   []string `json:"itemTypes"`
}

func (c Category) HasItemType(t string) bool {
	for _, it := range c.ItemTypes {
		if it == t {
			return true
		}
	}
	return false
}

// Fields renders the category without its id, the shape stored in a document.
func (c Category) Fields() map[string]any {
	types := c.ItemTypes
	if types == nil {
		types = []string{}
	}
	return map[string]any{
		"name":        c.Name,
		"description": c.Description,
		"itemTypes":   append([]string(nil), types...),
	}
}
