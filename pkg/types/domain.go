package types

// ValueKind discriminates the union carried by Value.
type ValueKind string

const (
	KindText   ValueKind = "text"
	KindNumber ValueKind = "number"
	KindFlag   ValueKind = "flag"
	KindList   ValueKind = "list"
)

// Value is a single setting value: exactly one of the payload fields is
// meaningful, selected by Kind.
type Value struct {
	// Discriminator: text, number, flag or list.
	// example: text
	Kind ValueKind `json:"kind" example:"text"`
	// Payload when Kind is text.
	// example: dark
	Text string `json:"text,omitempty" example:"dark"`
	// Payload when Kind is number.
	// example: 42
	Number float64 `json:"number,omitempty" example:"42"`
	// Payload when Kind is flag.
	// example: true
	Flag bool `json:"flag,omitempty" example:"true"`
	// Payload when Kind is list.
	List []string `json:"list,omitempty"`
}

func TextValue(s string) Value     { return Value{Kind: KindText, Text: s} }
func NumberValue(n float64) Value  { return Value{Kind: KindNumber, Number: n} }
func FlagValue(b bool) Value       { return Value{Kind: KindFlag, Flag: b} }
func ListValue(xs ...string) Value { return Value{Kind: KindList, List: xs} }

// Valid reports whether the kind discriminator is one of the known kinds.
func (v Value) Valid() bool {
	switch v.Kind {
	case KindText, KindNumber, KindFlag, KindList:
		return true
	}
	return false
}

// Equal compares two values structurally.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindText:
		return v.Text == o.Text
	case KindNumber:
		return v.Number == o.Number
	case KindFlag:
		return v.Flag == o.Flag
	case KindList:
		if len(v.List) != len(o.List) {
			return false
		}
		for i := range v.List {
			if v.List[i] != o.List[i] {
				return false
			}
		}
		return true
	}
	return false
}

// Bucket is a named group of settings entries.
type Bucket map[string]Value

// Event names emitted by the store, one per mutating operation.
const (
	EventPutEntry  = "put-entry"
	EventDelEntry  = "del-entry"
	EventPutBucket = "put-bucket"
	EventDelBucket = "del-bucket"
	EventDelDesk   = "del-desk"
)

// Event describes a single settings mutation. Path is the subscription
// path the mutation is published under: /<desk>/<bucket>, or /<desk> for
// desk-level events.
type Event struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Desk   string `json:"desk"`
	Bucket string `json:"bucket,omitempty"`
	Key    string `json:"key,omitempty"`
	Value  *Value `json:"value,omitempty"`
}
