package atlas

import (
	"fmt"
	"io"
)

// WriteJSON emits the descriptor object for this atlas page: the page
// name plus one record per entry in pack order. The emitter is
// hand-rolled to keep field order and layout stable for consumers that
// diff descriptor files between builds.
func (p *Packer) WriteJSON(w io.Writer, name string, opts DescriptorOptions) error {
	if _, err := fmt.Fprintf(w, "\t\t\t\"name\":\"%s\",\n\t\t\t\"images\":[\n", name); err != nil {
		return err
	}
	for i, entry := range p.entries {
		bmp := entry.Bitmap
		if _, err := fmt.Fprintf(w, "\t\t\t\t{ \"n\":\"%s\", \"x\":%d, \"y\":%d, \"w\":%d, \"h\":%d",
			bmp.Name, entry.Placement.X, entry.Placement.Y, bmp.Width, bmp.Height); err != nil {
			return err
		}
		if opts.Trim {
			if _, err := fmt.Fprintf(w, ", \"fx\":%d, \"fy\":%d, \"fw\":%d, \"fh\":%d",
				bmp.FrameX, bmp.FrameY, bmp.FrameW, bmp.FrameH); err != nil {
				return err
			}
		}
		if opts.Rotate {
			if _, err := fmt.Fprintf(w, ", \"r\":%t", entry.Placement.Rotated); err != nil {
				return err
			}
		}
		suffix := " },\n"
		if i == len(p.entries)-1 {
			suffix = " }\n"
		}
		if _, err := io.WriteString(w, suffix); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\t\t\t]\n")
	return err
}
