package docgen

// Extensibility hook names. Broadcast hooks receive mutable arguments;
// first-result hooks stop at the first handler returning non-nil.
const (
	// EventBeforeProcessSignature fires before a callable is introspected.
	// Broadcast. Args: (*object.Object, bool boundMethod).
	EventBeforeProcessSignature = "before-process-signature"

	// EventProcessSignature may replace the formatted signature.
	// First-result. Args: (kind string, fullname string, *object.Object,
	// *Options, args string, retann string). A SignatureOverride result
	// replaces both parts.
	EventProcessSignature = "process-signature"

	// EventProcessBases may mutate the base-class list shown for a class.
	// Broadcast. Args: (fullname string, *object.Object, *Options,
	// *[]*object.Object).
	EventProcessBases = "process-bases"

	// EventProcessDocstring may mutate docstring lines in place.
	// Broadcast. Args: (kind string, fullname string, *object.Object,
	// *Options, *[]string).
	EventProcessDocstring = "process-docstring"

	// EventSkipMember may override a member keep/drop decision.
	// First-result. Args: (kind string, name string, *object.Object,
	// skip bool, *Options). A bool result is the final skip decision.
	EventSkipMember = "skip-member"
)

// SignatureOverride is returned by an EventProcessSignature handler to
// replace the formatted argument list and return annotation.
type SignatureOverride struct {
	Args   string
	Return string
}
