package persist

import (
	"bufio"
	"fmt"
	"io"

	"github.com/cuemby/tinymux/pkg/types"
)

// ObjectSource is the subset of pkg/mdb.Table a checkpoint reads from.
type ObjectSource interface {
	DbTop() types.Dbref
	Get(d types.Dbref) (types.Object, bool)
}

// AttrSource is the subset of pkg/attr.Store a checkpoint reads from.
// Flush is called first so every dirty cache entry lands in the dump
// (spec.md §4.8's al_store step).
type AttrSource interface {
	Flush() error
	Iterate(o types.Dbref) []int
	Get(o types.Dbref, a int) types.AttrValue
}

// CatalogSource is the subset of pkg/attr.Catalog a checkpoint reads
// from: only the user-defined diff from the built-ins needs dumping.
type CatalogSource interface {
	UserDefined() []types.AttrDef
}

// Checkpoint writes a full dump of objs/attrs/cat to w (spec.md §4.8).
func Checkpoint(w io.Writer, objs ObjectSource, attrs AttrSource, cat CatalogSource) error {
	if err := attrs.Flush(); err != nil {
		return fmt.Errorf("persist: flush attribute store: %w", err)
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(headerLine); err != nil {
		return fmt.Errorf("persist: write header: %w", err)
	}

	defs := cat.UserDefined()
	if _, err := fmt.Fprintf(bw, "%s %d\n", attrsMarker, len(defs)); err != nil {
		return err
	}
	for _, d := range defs {
		if _, err := fmt.Fprintf(bw, "@ %d %s %d %d\n", d.Num, d.Name, d.Flags, d.DefaultOwner); err != nil {
			return err
		}
	}

	top := objs.DbTop()
	if _, err := fmt.Fprintf(bw, "+DBTOP %d\n", int(top)); err != nil {
		return err
	}

	for d := types.Dbref(1); d < top; d++ {
		obj, ok := objs.Get(d)
		if !ok {
			continue // GARBAGE slot: Restore repads these from +DBTOP alone
		}
		if err := writeObject(bw, obj); err != nil {
			return err
		}
		for _, a := range attrs.Iterate(d) {
			v := attrs.Get(d, a)
			if err := writeAttr(bw, a, v); err != nil {
				return err
			}
		}
		if err := bw.WriteByte(endObject); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}

	if _, err := bw.WriteString(endOfDump); err != nil {
		return err
	}
	return bw.Flush()
}

func writeObject(bw *bufio.Writer, obj types.Object) error {
	if err := bw.WriteByte(objectMarker); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(bw, "%d\n", int(obj.Dbref)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(bw, "%d %d %d %d %d %d %d %d %d\n%s\n",
		int(obj.Type), int(obj.Owner), int(obj.Zone), int(obj.Parent), int(obj.Location),
		uint32(obj.Flags), uint32(obj.Powers),
		obj.Created.Unix(), obj.Modified.Unix(),
		obj.Name,
	)
	return err
}

func writeAttr(bw *bufio.Writer, num int, v types.AttrValue) error {
	if _, err := fmt.Fprintf(bw, "%c %d %d %d %d\n", attrLine, num, int(v.Owner), uint32(v.Flags), len(v.Text)); err != nil {
		return err
	}
	if _, err := bw.WriteString(v.Text); err != nil {
		return err
	}
	return bw.WriteByte('\n')
}
