package cli

import (
	"fmt"
	"io"
)

type Formatter struct {
	w io.Writer
}

func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w}
}

func (f *Formatter) Transcribing(n int) {
	fmt.Fprintf(f.w, "📝 Transcribing %d recording(s)...\n", n)
}

func (f *Formatter) NoteCreated(path string) {
	fmt.Fprintf(f.w, "✅ Created daily note: %s\n", path)
}

func (f *Formatter) Error(msg string) {
	fmt.Fprintf(f.w, "❌ %s\n", msg)
}

func (f *Formatter) Info(msg string) {
	fmt.Fprintf(f.w, "ℹ️  %s\n", msg)
}

func (f *Formatter) Success(msg string) {
	fmt.Fprintf(f.w, "✅ %s\n", msg)
}

func (f *Formatter) Warning(msg string) {
	fmt.Fprintf(f.w, "⚠️  %s\n", msg)
}

func (f *Formatter) NoteListHeader(folder string) {
	fmt.Fprintf(f.w, "📁 %s:\n\n", folder)
}

func (f *Formatter) NoteListItem(name string) {
	fmt.Fprintf(f.w, "  %s\n", name)
}

func (f *Formatter) SetupCheck(name string, ok bool, detail string) {
	if ok {
		fmt.Fprintf(f.w, "  ✅ %s: %s\n", name, detail)
	} else {
		fmt.Fprintf(f.w, "  ❌ %s: %s\n", name, detail)
	}
}
