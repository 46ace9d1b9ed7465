// Package renderer provides the display layer for tintview.
//
// The renderer is responsible for:
//   - Filling the screen with the base style
//   - Drawing a titled, bordered block inset by a margin
//   - Laying out styled lines with tab expansion and Unicode widths
//   - Alignment, optional wrapping and scroll offset
//
// Architecture:
//
//	┌─────────────────────────────────────────┐
//	│           Renderer (Facade)             │
//	├─────────────────────────────────────────┤
//	│  Layout (tabs, wrap)  │  Highlight      │
//	├─────────────────────────────────────────┤
//	│   Backend Abstraction (BufferedBackend) │
//	├─────────────────────────────────────────┤
//	│  Terminal (tcell) │ NullBackend (tests) │
//	└─────────────────────────────────────────┘
//
// Usage:
//
//	term, err := backend.NewTerminal()
//	...
//	r := renderer.New(backend.NewBufferedBackend(term), renderer.DefaultOptions())
//	err = r.Render(renderer.Frame{Lines: doc.Convert()})
package renderer
