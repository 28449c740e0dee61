package persist

// Dump format (spec.md §4.8): a versioned text header, an attribute-
// catalog diff section, one record per object, and a trailing marker.
// Attribute values are length-prefixed rather than newline-terminated
// so multi-line descriptions round-trip exactly.
const (
	headerLine   = "+TMXDUMP V1\n"
	attrsMarker  = "+ATTRS"
	objectMarker = '!'
	attrLine     = '>'
	endObject    = '<'
	endOfDump    = "***END OF DUMP***\n"
)
