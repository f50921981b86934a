package nolang

// TypeTag identifies the runtime shape of a value. There are 13 closed
// tags; 0x0D through 0xFF are reserved.
type TypeTag byte

const (
	None     TypeTag = 0x00
	I64      TypeTag = 0x01
	U64      TypeTag = 0x02
	F64      TypeTag = 0x03
	Bool     TypeTag = 0x04
	Char     TypeTag = 0x05
	Variant  TypeTag = 0x06
	Tuple    TypeTag = 0x07
	FuncType TypeTag = 0x08
	Array    TypeTag = 0x09
	Maybe    TypeTag = 0x0A
	Result   TypeTag = 0x0B
	Unit     TypeTag = 0x0C
)

// AllTypeTags lists every valid type tag, in declaration order.
var AllTypeTags = []TypeTag{
	None, I64, U64, F64, Bool, Char, Variant, Tuple, FuncType, Array, Maybe, Result, Unit,
}

var typeTagNames = map[TypeTag]string{
	None:     "NONE",
	I64:      "I64",
	U64:      "U64",
	F64:      "F64",
	Bool:     "BOOL",
	Char:     "CHAR",
	Variant:  "VARIANT",
	Tuple:    "TUPLE",
	FuncType: "FUNC_TYPE",
	Array:    "ARRAY",
	Maybe:    "MAYBE",
	Result:   "RESULT",
	Unit:     "UNIT",
}

var nameToTypeTag map[string]TypeTag

func init() {
	nameToTypeTag = make(map[string]TypeTag, len(typeTagNames))
	for tt, name := range typeTagNames {
		nameToTypeTag[name] = tt
	}
}

// Name returns the uppercase assembly name for a type tag, or "?unknown?"
// if the byte is not one of the 13 closed tags.
func (t TypeTag) Name() string {
	n, ok := typeTagNames[t]
	if !ok {
		return "?unknown?"
	}
	return n
}

func (t TypeTag) String() string {
	return t.Name()
}

// TypeTagByName looks up a type tag by its uppercase assembly name.
func TypeTagByName(name string) (TypeTag, bool) {
	tt, ok := nameToTypeTag[name]
	return tt, ok
}

// IsValidTypeTag reports whether b is one of the 13 closed type tags.
func IsValidTypeTag(b byte) bool {
	_, ok := typeTagNames[TypeTag(b)]
	return ok
}

// IsNumeric reports whether the tag is one of the three numeric kinds
// (I64, U64, F64). Used by the verifier's arithmetic-opcode type rules.
func (t TypeTag) IsNumeric() bool {
	return t == I64 || t == U64 || t == F64
}
