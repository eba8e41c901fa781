package models

// Item is a single clothing product in the catalog.
// Category holds the owning Category.ID and ItemType must be one of
// that category's ItemTypes.
type Item struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	ItemType    string   `json:"itemType"`
	Description string   `json:"description"`
	Sizes       []string `json:"sizes"`
	Colors      []string `json:"colors"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	Tags        []string `json:"tags"`
}

// ItemPatch is the partial field set of a merge write. A nil field was not
// supplied and stays untouched.
type ItemPatch struct {
	Name        *string   `json:"name,omitempty"`
	Category    *string   `json:"category,omitempty"`
	ItemType    *string   `json:"itemType,omitempty"`
	Description *string   `json:"description,omitempty"`
	Sizes       *[]string `json:"sizes,omitempty"`
	Colors      *[]string `json:"colors,omitempty"`
	ImageURL    *string   `json:"imageUrl,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

func (p ItemPatch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// Fields renders the supplied fields keyed by their JSON names.
func (p ItemPatch) Fields() map[string]any {
	out := make(map[string]any)
	if p.Name != nil {
		out["name"] = *p.Name
	}
	if p.Category != nil {
		out["category"] = *p.Category
	}
	if p.ItemType != nil {
		out["itemType"] = *p.ItemType
	}
	if p.Description != nil {
		out["description"] = *p.Description
	}
	if p.Sizes != nil {
		out["sizes"] = cloneStrings(*p.Sizes)
	}
	if p.Colors != nil {
		out["colors"] = cloneStrings(*p.Colors)
	}
	if p.ImageURL != nil {
		out["imageUrl"] = *p.ImageURL
	}
	if p.Tags != nil {
		out["tags"] = cloneStrings(*p.Tags)
	}
	return out
}

// Clone returns a patch that shares no pointers with p.
func (p ItemPatch) Clone() ItemPatch {
	return ItemPatch{
		Name:        cloneString(p.Name),
		Category:    cloneString(p.Category),
		ItemType:    cloneString(p.ItemType),
		Description: cloneString(p.Description),
		Sizes:       cloneStringsPtr(p.Sizes),
		Colors:      cloneStringsPtr(p.Colors),
		ImageURL:    cloneString(p.ImageURL),
		Tags:        cloneStringsPtr(p.Tags),
	}
}

// Apply merges the supplied fields into a copy of it.
func (p ItemPatch) Apply(it Item) Item {
	it = it.Clone()
	if p.Name != nil {
		it.Name = *p.Name
	}
	if p.Category != nil {
		it.Category = *p.Category
	}
	if p.ItemType != nil {
		it.ItemType = *p.ItemType
	}
	if p.Description != nil {
		it.Description = *p.Description
	}
	if p.Sizes != nil {
		it.Sizes = cloneStrings(*p.Sizes)
	}
	if p.Colors != nil {
		it.Colors = cloneStrings(*p.Colors)
	}
	if p.ImageURL != nil {
		it.ImageURL = *p.ImageURL
	}
	if p.Tags != nil {
		it.Tags = cloneStrings(*p.Tags)
	}
	return it
}

// Fields renders the item without its id, the shape stored in a document.
func (it Item) Fields() map[string]any {
	out := map[string]any{
		"name":        it.Name,
		"category":    it.Category,
		"itemType":    it.ItemType,
		"description": it.Description,
		"sizes":       nonNil(it.Sizes),
		"colors":      nonNil(it.Colors),
		"tags":        nonNil(it.Tags),
	}
	if it.ImageURL != "" {
		out["imageUrl"] = it.ImageURL
	}
	return out
}

func (it Item) Clone() Item {
	it.Sizes = cloneStrings(it.Sizes)
	it.Colors = cloneStrings(it.Colors)
	it.Tags = cloneStrings(it.Tags)
	return it
}

// StringPtr and StringsPtr help build patches inline.
func StringPtr(s string) *string { return &s }

func StringsPtr(s ...string) *[]string {
	if s == nil {
		s = []string{}
	}
	return &s
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneStringsPtr(p *[]string) *[]string {
	if p == nil {
		return nil
	}
	v := cloneStrings(*p)
	return &v
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return cloneStrings(in)
}
