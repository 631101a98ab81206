package libdiff

import (
	"io"

	"github.com/fatih/color"
)

// Render writes r as a unified listing: "+ " for added lines, "- " for
// removed ones and two spaces for unchanged ones.
func Render(w io.Writer, r *Report, colored bool) error {
	add := color.New(color.FgGreen)
	del := color.New(color.FgRed)
	if colored {
		add.EnableColor()
		del.EnableColor()
	} else {
		add.DisableColor()
		del.DisableColor()
	}
	for _, l := range r.Lines {
		var err error
		switch l.Kind {
		case Added:
			_, err = add.Fprintf(w, "+ %s\n", l.Content)
		case Removed:
			_, err = del.Fprintf(w, "- %s\n", l.Content)
		default:
			_, err = io.WriteString(w, "  "+l.Content+"\n")
		}
		if err != nil {
			return err
		}
	}
	return nil
}
