package persist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cuemby/tinymux/pkg/types"
)

// ErrBadFormat reports a dump whose header or structure this reader
// does not recognize.
var ErrBadFormat = errors.New("persist: not a recognized dump")

// Loader is the subset of pkg/mdb.Table a restore writes into.
type Loader interface {
	Restore(obj types.Object)
}

// AttrLoader is the subset of pkg/attr.Store a restore writes into.
type AttrLoader interface {
	Set(o types.Dbref, a int, value string, owner types.Dbref, flags types.AttrFlag)
}

// CatalogLoader is the subset of pkg/attr.Catalog a restore writes
// into.
type CatalogLoader interface {
	Restore(d types.AttrDef)
}

type attrRecord struct {
	num   int
	value types.AttrValue
}

type parsedDump struct {
	attrDefs []types.AttrDef
	dbTop    types.Dbref
	objects  map[types.Dbref]types.Object
	attrs    map[types.Dbref][]attrRecord
}

// Restore replays a dump written by Checkpoint into objs/attrs/cat, in
// ascending dbref order as pkg/mdb.Table.Restore requires. Every slot
// up to the dump's recorded db_top is restored, whether or not it had
// an object record — untouched slots become GARBAGE. The dump carries
// no sibling-list links (Contents/Exits/Next are not serialized); the
// caller must rebuild containment afterward by calling Move(d,
// Location) for every restored non-GARBAGE object in dbref order.
func Restore(r io.Reader, objs Loader, attrs AttrLoader, cat CatalogLoader) error {
	p, err := parseDump(bufio.NewReader(r))
	if err != nil {
		return err
	}

	for _, d := range p.attrDefs {
		cat.Restore(d)
	}

	for d := types.Dbref(1); d < p.dbTop; d++ {
		obj, ok := p.objects[d]
		if !ok {
			obj = types.Object{
				Dbref: d, Type: types.TypeGarbage,
				Location: types.NOTHING, Parent: types.NOTHING, Zone: types.NOTHING,
				Contents: types.NOTHING, Exits: types.NOTHING, Next: types.NOTHING,
			}
		}
		objs.Restore(obj)
		for _, rec := range p.attrs[d] {
			attrs.Set(d, rec.num, rec.value.Text, rec.value.Owner, rec.value.Flags)
		}
	}
	return nil
}

func parseDump(br *bufio.Reader) (*parsedDump, error) {
	header, err := br.ReadString('\n')
	if err != nil || header != headerLine {
		return nil, ErrBadFormat
	}

	p := &parsedDump{objects: make(map[types.Dbref]types.Object), attrs: make(map[types.Dbref][]attrRecord)}

	line, err := br.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("persist: read attrs header: %w", err)
	}
	var nAttrs int
	if _, err := fmt.Sscanf(line, attrsMarker+" %d\n", &nAttrs); err != nil {
		return nil, fmt.Errorf("persist: parse attrs header %q: %w", line, err)
	}
	for i := 0; i < nAttrs; i++ {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("persist: read attr def: %w", err)
		}
		fields := strings.Fields(line)
		if len(fields) != 5 || fields[0] != "@" {
			return nil, fmt.Errorf("persist: malformed attr def %q", line)
		}
		num, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, err
		}
		flags, err := strconv.ParseUint(fields[3], 10, 32)
		if err != nil {
			return nil, err
		}
		owner, err := strconv.Atoi(fields[4])
		if err != nil {
			return nil, err
		}
		p.attrDefs = append(p.attrDefs, types.AttrDef{Num: num, Name: fields[2], Flags: types.AttrFlag(flags), DefaultOwner: types.Dbref(owner)})
	}

	line, err = br.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("persist: read db_top: %w", err)
	}
	var top int
	if _, err := fmt.Sscanf(line, "+DBTOP %d\n", &top); err != nil {
		return nil, fmt.Errorf("persist: parse db_top %q: %w", line, err)
	}
	p.dbTop = types.Dbref(top)

	var current types.Dbref
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("persist: read dump body: %w", err)
		}
		switch {
		case line == endOfDump:
			return p, nil
		case len(line) > 0 && line[0] == objectMarker:
			d, obj, err := parseObject(br, line)
			if err != nil {
				return nil, err
			}
			p.objects[d] = obj
			current = d
		case len(line) > 0 && line[0] == attrLine:
			rec, err := parseAttrLine(br, line)
			if err != nil {
				return nil, err
			}
			p.attrs[current] = append(p.attrs[current], rec)
		case len(line) > 0 && line[0] == endObject:
			// no-op: marks the end of the current object's attr lines
		default:
			return nil, fmt.Errorf("persist: unexpected dump line %q", line)
		}
	}
}

// parseObject reads one object record: the "!<dbref>\n" marker line
// (already read into markerLine), the numeric-fields line, and the
// name line.
func parseObject(br *bufio.Reader, markerLine string) (types.Dbref, types.Object, error) {
	dbrefStr := strings.TrimSuffix(markerLine[1:], "\n")
	d, err := strconv.Atoi(dbrefStr)
	if err != nil {
		return 0, types.Object{}, fmt.Errorf("persist: bad object marker %q: %w", markerLine, err)
	}

	fieldsLine, err := br.ReadString('\n')
	if err != nil {
		return 0, types.Object{}, fmt.Errorf("persist: read object fields: %w", err)
	}
	var typ, owner, zone, parent, location int
	var flags, powers uint32
	var created, modified int64
	n, err := fmt.Sscanf(fieldsLine, "%d %d %d %d %d %d %d %d %d",
		&typ, &owner, &zone, &parent, &location, &flags, &powers, &created, &modified)
	if err != nil || n != 9 {
		return 0, types.Object{}, fmt.Errorf("persist: malformed object fields %q: %w", fieldsLine, err)
	}

	nameLine, err := br.ReadString('\n')
	if err != nil {
		return 0, types.Object{}, fmt.Errorf("persist: read object name: %w", err)
	}
	name := strings.TrimSuffix(nameLine, "\n")

	obj := types.Object{
		Dbref: types.Dbref(d), Type: types.ObjectType(typ), Name: name,
		Owner: types.Dbref(owner), Zone: types.Dbref(zone), Parent: types.Dbref(parent),
		Location: types.Dbref(location), Contents: types.NOTHING, Exits: types.NOTHING, Next: types.NOTHING,
		Flags: types.ObjectFlag(flags), Powers: types.Power(powers),
		Created: time.Unix(created, 0).UTC(), Modified: time.Unix(modified, 0).UTC(),
	}
	return obj.Dbref, obj, nil
}

// parseAttrLine reads one "> num owner flags len\n" line (already in
// markerLine) plus its len-byte payload and trailing newline. The
// record belongs to whichever object marker parseDump most recently
// saw; attribute lines carry no dbref of their own in the dump.
func parseAttrLine(br *bufio.Reader, markerLine string) (attrRecord, error) {
	fields := strings.Fields(markerLine)
	if len(fields) != 5 {
		return attrRecord{}, fmt.Errorf("persist: malformed attr line %q", markerLine)
	}
	num, err := strconv.Atoi(fields[1])
	if err != nil {
		return attrRecord{}, err
	}
	owner, err := strconv.Atoi(fields[2])
	if err != nil {
		return attrRecord{}, err
	}
	flags, err := strconv.ParseUint(fields[3], 10, 32)
	if err != nil {
		return attrRecord{}, err
	}
	length, err := strconv.Atoi(fields[4])
	if err != nil {
		return attrRecord{}, err
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(br, buf); err != nil {
		return attrRecord{}, fmt.Errorf("persist: read attr payload: %w", err)
	}
	if _, err := br.ReadByte(); err != nil { // trailing '\n'
		return attrRecord{}, err
	}

	return attrRecord{num: num, value: types.AttrValue{Text: string(buf), Owner: types.Dbref(owner), Flags: types.AttrFlag(flags)}}, nil
}
