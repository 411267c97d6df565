package changelog

// ItemType is the category assigned to a changelog item.
type ItemType string

const (
	TypeFeature  ItemType = "feature"
	TypeFix      ItemType = "fix"
	TypeRemoval  ItemType = "removal"
	TypeBreaking ItemType = "breaking"
	TypeOther    ItemType = "other"
)

// ItemTypes returns every item type in display order.
func ItemTypes() []ItemType {
	return []ItemType{TypeBreaking, TypeRemoval, TypeFeature, TypeFix, TypeOther}
}

// Item is one bullet under a version.
type Item struct {
	Type    ItemType `json:"type"`
	Content string   `json:"content"`
}

// Version is one release section. Items keep the order of the bullets in the
// source document. SourceID and SourceName are empty for the default changelog
// unless the caller supplies them.
type Version struct {
	Version    string `json:"version"`
	Date       string `json:"date"`
	Items      []Item `json:"items"`
	SourceID   string `json:"sourceId,omitempty"`
	SourceName string `json:"sourceName,omitempty"`
}

// Counts tallies items per type.
type Counts map[ItemType]int

// Total returns the number of items across all types.
func (c Counts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// Counts returns the number of items of each type in v.
func (v Version) Counts() Counts {
	c := make(Counts, len(ItemTypes()))
	for _, item := range v.Items {
		c[item.Type]++
	}
	return c
}
