package mono

import (
	"strings"

	"github.com/cinder-lang/cinder/internal/types"
)

// Mangle derives the specialization symbol for a generic function applied
// to an ordered list of concrete type arguments. The encoding is a
// faithful grammar over the type structure, so it is deterministic and
// two distinct argument lists can never collide.
func Mangle(name string, args []types.Type) string {
	var sb strings.Builder
	sb.WriteString(name)
	for _, a := range args {
		sb.WriteByte('$')
		mangleType(&sb, a)
	}
	return sb.String()
}

func mangleType(sb *strings.Builder, t types.Type) {
	switch t := t.(type) {
	case types.Primitive:
		sb.WriteString(string(t))
	case types.Unknown:
		sb.WriteString("dyn")
	case types.Param:
		// A rigid parameter surviving to mangling means the caller never
		// substituted it; the engine rejects that before getting here.
		sb.WriteString("P_")
		sb.WriteString(t.Name)
	case types.Array:
		sb.WriteString("arr<")
		mangleType(sb, t.Elem)
		sb.WriteString(">")
	case types.Tuple:
		sb.WriteString("tup<")
		for i, e := range t.Elems {
			if i > 0 {
				sb.WriteString(",")
			}
			mangleType(sb, e)
		}
		sb.WriteString(">")
	case types.Named:
		sb.WriteString(t.Name)
		if len(t.Args) > 0 {
			sb.WriteString("<")
			for i, a := range t.Args {
				if i > 0 {
					sb.WriteString(",")
				}
				mangleType(sb, a)
			}
			sb.WriteString(">")
		}
	case types.Function:
		sb.WriteString("fn<")
		for i, p := range t.Params {
			if i > 0 {
				sb.WriteString(",")
			}
			mangleType(sb, p)
		}
		sb.WriteString(">")
		if t.Return != nil {
			sb.WriteString("->")
			mangleType(sb, t.Return)
		}
	case types.Range:
		sb.WriteString("range<")
		mangleType(sb, t.Elem)
		sb.WriteString(">")
	default:
		sb.WriteString("dyn")
	}
}
