// Package tp holds the script value types.
package tp

type (
	Type int
)

const (
	Invalid Type = iota
	Void
	Float
	Bool
	FFC
	Item
	ItemClass
	Link
	Screen

	numTypes
)

var names = [numTypes]string{
	Invalid:   "<invalid>",
	Void:      "void",
	Float:     "float",
	Bool:      "bool",
	FFC:       "ffc",
	Item:      "item",
	ItemClass: "itemdata",
	Link:      "link",
	Screen:    "screen",
}

// Lookup resolves a type name as written in source.
// int is an alias of float.
func Lookup(name string) (Type, bool) {
	if name == "int" {
		return Float, true
	}

	for t := Void; t < numTypes; t++ {
		if names[t] == name {
			return t, true
		}
	}

	return Invalid, false
}

// IsPointer reports whether values of t refer to engine objects.
func (t Type) IsPointer() bool {
	switch t {
	case FFC, Item, ItemClass, Link, Screen:
		return true
	}

	return false
}

func (t Type) String() string {
	if t >= 0 && t < numTypes {
		return names[t]
	}

	return names[Invalid]
}
