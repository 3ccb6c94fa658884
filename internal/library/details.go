package library

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Faultbox/glbviewer/internal/glb"
	"github.com/Faultbox/glbviewer/internal/store"
)

// Details describes a model for an info dialog. Missing or unreadable files
// are reported in the text rather than as an error.
func Details(m store.Model) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", m.Name)
	fmt.Fprintf(&b, "ID: %s\n", m.ID)
	fmt.Fprintf(&b, "File: %s\n", m.Path)
	fmt.Fprintf(&b, "Added: %s\n", m.CreatedAt.Local().Format(time.DateTime))
	if !m.UpdatedAt.Equal(m.CreatedAt) {
		fmt.Fprintf(&b, "Updated: %s\n", m.UpdatedAt.Local().Format(time.DateTime))
	}

	data, err := os.ReadFile(m.Path)
	if err != nil {
		fmt.Fprintf(&b, "Status: file unavailable (%v)\n", err)
		return b.String()
	}
	fmt.Fprintf(&b, "Size: %s\n", humanBytes(int64(len(data))))

	model, err := glb.Decode(data)
	if err != nil {
		fmt.Fprintf(&b, "Status: unreadable (%v)\n", err)
		return b.String()
	}
	s := model.Stats()
	fmt.Fprintf(&b, "Meshes: %d (%d primitives)\n", s.Meshes, s.Primitives)
	fmt.Fprintf(&b, "Vertices: %d\n", s.Vertices)
	fmt.Fprintf(&b, "Triangles: %d\n", s.Triangles)
	fmt.Fprintf(&b, "Materials: %d\n", s.Materials)
	if s.Skins > 0 {
		fmt.Fprintf(&b, "Skins: %d\n", s.Skins)
	}
	if s.Animations > 0 {
		fmt.Fprintf(&b, "Animations: %d\n", s.Animations)
	}
	return b.String()
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGT"[exp])
}
