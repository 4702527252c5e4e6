package attrschema

// Official attribute names.
const (
	Available     = "available"
	Doc           = "doc"
	Discoverable  = "discoverable"
	Transport     = "transport"
	Selector      = "selector"
	NoDoc         = "no_doc"
	GeneratedName = "generated_name"
	Serializable  = "serializable"
	Deprecated    = "deprecated"
)

// Transports lists the accepted @transport values.
var Transports = []string{"Banjo", "Channel", "Driver", "Syscall"}

func officialSchemas() []Schema {
	return []Schema{
		{
			Name:      Available,
			Placement: PlaceAnywhere,
			Args: []Arg{
				{Name: "platform", Type: ArgString, Optional: true},
				{Name: "added", Type: ArgVersion, Optional: true},
				{Name: "deprecated", Type: ArgVersion, Optional: true},
				{Name: "removed", Type: ArgVersion, Optional: true},
				{Name: "replaced", Type: ArgVersion, Optional: true},
				{Name: "legacy", Type: ArgBool, Optional: true},
				{Name: "note", Type: ArgString, Optional: true},
			},
		},
		{
			Name:      Doc,
			Placement: PlaceAnywhere,
			Args:      []Arg{{Name: "value", Type: ArgString}},
		},
		{
			Name:      Discoverable,
			Placement: PlaceProtocol,
			Args:      []Arg{{Name: "name", Type: ArgString, Optional: true}},
		},
		{
			Name:      Transport,
			Placement: PlaceProtocol,
			Args:      []Arg{{Name: "value", Type: ArgString}},
		},
		{
			Name:      Selector,
			Placement: PlaceMethod,
			Args:      []Arg{{Name: "value", Type: ArgString}},
		},
		{
			Name:      NoDoc,
			Placement: PlaceAnywhere,
		},
		{
			Name:      GeneratedName,
			Placement: PlaceLayouts,
			Args:      []Arg{{Name: "value", Type: ArgString}},
		},
		{
			Name:      Serializable,
			Placement: PlaceStruct | PlaceTable | PlaceUnion,
			Args: []Arg{
				{Name: "read", Type: ArgString, Optional: true},
				{Name: "write", Type: ArgString, Optional: true},
			},
		},
		{
			Name:      Deprecated,
			Placement: PlaceAnywhere,
			Args:      []Arg{{Name: "value", Type: ArgString, Optional: true}},
		},
	}
}
