package types

// LineSeparator joins the lines of a multi-line entry. It is the Unicode
// LINE SEPARATOR, which the collector splits back into lines.
const LineSeparator = "\u2028"

// HeartbeatToken is sent when the transport queue stays empty for a whole
// heartbeat interval.
const HeartbeatToken = "###LE-IAA###"

// Filter inspects a line before it is formatted. Returning false drops it.
type Filter func(line string) (string, bool)

// Formatter turns a filtered line into the wire representation. Returning
// false drops it.
type Formatter func(line string) (string, bool)

// PassFilter keeps every line unchanged.
func PassFilter(line string) (string, bool) {
	return line, true
}

// PassFormatter sends every line unchanged.
func PassFormatter(line string) (string, bool) {
	return line, true
}

// Sender is the part of a transport that producers see.
type Sender interface {
	Send(entry string)
}

// StateProvider is implemented by everything whose read position is persisted.
type StateProvider interface {
	GetName() string
	GetState() FileState
}
