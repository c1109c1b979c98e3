package editorx

// Buffer is an in-memory Editor. It backs scripted edits in the CLI and
// stands in for the real widget in tests.
type Buffer struct {
	data    string
	focused bool

	// Transform, when set, is applied to the loaded content the first time
	// GetData is called after SetData. It models a user editing the loaded
	// document.
	Transform func(html string) string

	dirty bool
}

func NewBuffer() *Buffer { return &Buffer{} }

func (b *Buffer) SetData(html string) {
	b.data = html
	b.dirty = true
}

func (b *Buffer) GetData() string {
	if b.dirty && b.Transform != nil {
		b.data = b.Transform(b.data)
		b.dirty = false
	}
	return b.data
}

func (b *Buffer) Focus() { b.focused = true }

// Focused reports whether Focus has been called since creation.
func (b *Buffer) Focused() bool { return b.focused }
