// Package editorx defines the boundary to the rich-text editing widget the
// inline editing controller drives. The controller only ever loads HTML into
// an editor and reads edited HTML back, so the surface is deliberately small.
package editorx

// Editor is a single editable surface for one content field.
type Editor interface {
	// SetData loads HTML into the editor, replacing its current content.
	SetData(html string)

	// GetData returns the editor's current content as HTML.
	GetData() string

	// Focus moves input focus to the editor. Implementations without a
	// focus concept treat this as a no-op.
	Focus()
}

// Factory creates an editor surface for the named content field.
type Factory func(field string) Editor
