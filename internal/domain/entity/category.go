package entity

// Category is an internal article classification. Categories are managed
// elsewhere; the pipeline only reads them.
type Category struct {
	ID     int64
	Name   string
	Slug   string
	Active bool
}
