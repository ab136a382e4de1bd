package atlas

import (
	"fmt"
	"io"
)

// DescriptorOptions controls which optional fields the XML and JSON
// encoders emit per entry.
type DescriptorOptions struct {
	// Trim emits the frame fields describing each bitmap's position
	// within its original untrimmed image.
	Trim bool

	// Rotate emits the rotation flag.
	Rotate bool
}

// WriteXML emits one <tex> element for this atlas page, with one <img>
// child per entry in pack order.
func (p *Packer) WriteXML(w io.Writer, name string, opts DescriptorOptions) error {
	if _, err := fmt.Fprintf(w, "\t<tex n=\"%s\">\n", name); err != nil {
		return err
	}
	for _, entry := range p.entries {
		bmp := entry.Bitmap
		if _, err := fmt.Fprintf(w, "\t\t<img n=\"%s\" x=\"%d\" y=\"%d\" w=\"%d\" h=\"%d\" ",
			bmp.Name, entry.Placement.X, entry.Placement.Y, bmp.Width, bmp.Height); err != nil {
			return err
		}
		if opts.Trim {
			if _, err := fmt.Fprintf(w, "fx=\"%d\" fy=\"%d\" fw=\"%d\" fh=\"%d\" ",
				bmp.FrameX, bmp.FrameY, bmp.FrameW, bmp.FrameH); err != nil {
				return err
			}
		}
		if opts.Rotate {
			if _, err := fmt.Fprintf(w, "r=\"%d\" ", boolByte(entry.Placement.Rotated)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "/>\n"); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\t</tex>\n")
	return err
}

func boolByte(v bool) int {
	if v {
		return 1
	}
	return 0
}
