package errors

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrorCode identifies one distinguishable compiler condition.
type ErrorCode string

// Severity classifies a diagnostic.
type Severity uint8

const (
	// SeverityError fails the step that reports it.
	SeverityError Severity = iota
	// SeverityWarning is informational unless warnings are treated as errors.
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Def pairs a code with its severity and message format.
type Def struct {
	Code     ErrorCode
	Severity Severity
	Format   string
}

func errorDef(code ErrorCode, format string) Def {
	return Def{Code: code, Severity: SeverityError, Format: format}
}

func warningDef(code ErrorCode, format string) Def {
	return Def{Code: code, Severity: SeverityWarning, Format: format}
}

// Consume-time errors.
var (
	// ErrFilesDisagreeOnLibraryName indicates files of one library declare different names.
	ErrFilesDisagreeOnLibraryName = errorDef("files-disagree-on-library-name", "the library name %s does not match the previously declared %s")
	// ErrInvalidLibraryName indicates a malformed library name.
	ErrInvalidLibraryName = errorDef("invalid-library-name", "invalid library name %q")
	// ErrUnexpectedDeclKind indicates a declaration of unknown kind.
	ErrUnexpectedDeclKind = errorDef("unexpected-decl-kind", "unexpected declaration kind %q")
	// ErrInvalidName indicates a missing or malformed identifier.
	ErrInvalidName = errorDef("invalid-name", "invalid identifier %q")
	// ErrDuplicateAttribute indicates an attribute given twice on one element.
	ErrDuplicateAttribute = errorDef("duplicate-attribute", "duplicate attribute @%s")
	// ErrDuplicateAttributeArg indicates an attribute argument given twice.
	ErrDuplicateAttributeArg = errorDef("duplicate-attribute-arg", "attribute @%s has duplicate argument %q")
	// ErrUnknownLibrary indicates a using declaration naming an unknown library.
	ErrUnknownLibrary = errorDef("unknown-library", "unknown library %s")
	// ErrDuplicateLibraryImport indicates a library imported twice.
	ErrDuplicateLibraryImport = errorDef("duplicate-library-import", "library %s imported more than once")
	// ErrConflictingLibraryImportAlias indicates two imports sharing an alias.
	ErrConflictingLibraryImportAlias = errorDef("conflicting-library-import-alias", "import alias %s conflicts with another import")
	// ErrAvailableMissingArguments indicates @available without arguments.
	ErrAvailableMissingArguments = errorDef("available-missing-arguments", "@available requires at least one argument")
	// ErrLibraryAvailabilityMissingAdded indicates a library @available without added.
	ErrLibraryAvailabilityMissingAdded = errorDef("library-availability-missing-added", "@available on a library must specify added")
	// ErrMissingLibraryAvailability indicates @available on a decl of an unversioned library.
	ErrMissingLibraryAvailability = errorDef("missing-library-availability", "@available on %s requires @available on library %s")
	// ErrPlatformNotOnLibrary indicates platform= outside library @available.
	ErrPlatformNotOnLibrary = errorDef("platform-not-on-library", "the argument 'platform' is only allowed on the library's @available")
	// ErrInvalidPlatform indicates a malformed platform name.
	ErrInvalidPlatform = errorDef("invalid-platform", "invalid platform %q")
	// ErrInvalidAvailabilityVersion indicates an unparsable or reserved version argument.
	ErrInvalidAvailabilityVersion = errorDef("invalid-availability-version", "invalid %s version %q")
	// ErrInvalidAvailabilityOrder indicates arguments violating added <= deprecated < removed.
	ErrInvalidAvailabilityOrder = errorDef("invalid-availability-order", "invalid @available ordering: %s")
	// ErrRemovedAndReplaced indicates both removed and replaced given.
	ErrRemovedAndReplaced = errorDef("removed-and-replaced", "@available cannot specify both removed and replaced")
	// ErrLegacyWithoutRemoval indicates legacy given for an element never removed.
	ErrLegacyWithoutRemoval = errorDef("legacy-without-removal", "@available legacy requires removed or replaced")
	// ErrInvalidModifier indicates an unknown or misplaced declaration modifier.
	ErrInvalidModifier = errorDef("invalid-modifier", "invalid modifier %q on %s")
	// ErrMissingPayload indicates a member or declaration missing a required type or value.
	ErrMissingPayload = errorDef("missing-payload", "%s requires a %s")
	// ErrInvalidBinaryOperator indicates a constant operator other than '|'.
	ErrInvalidBinaryOperator = errorDef("invalid-binary-operator", "unsupported constant operator %q")
	// ErrUnknownAvailableArgument indicates an unrecognized @available argument.
	ErrUnknownAvailableArgument = errorDef("unknown-available-argument", "@available has no argument %q")
	// ErrInvalidAvailableArgumentType indicates an @available argument of the wrong type.
	ErrInvalidAvailableArgumentType = errorDef("invalid-available-argument-type", "@available argument %q must be a %s")
)

// Availability inheritance errors.
var (
	// ErrAvailabilityConflictsWithParent indicates a child outside its parent's window.
	ErrAvailabilityConflictsWithParent = errorDef("availability-conflicts-with-parent", "%s=%s is %s (%s)")
	// ErrLegacyConflictsWithParent indicates legacy=true under a parent removed at the same version without legacy.
	ErrLegacyConflictsWithParent = errorDef("legacy-conflicts-with-parent", "legacy=true on %s conflicts with its parent removed at %s without legacy")
	// ErrNameOverlap indicates two same-named elements present at a common version.
	ErrNameOverlap = errorDef("name-overlap", "%s %s overlaps with another declaration of the same name at %s")
)

// Resolution errors.
var (
	// ErrNameNotFound indicates a reference to an unknown name.
	ErrNameNotFound = errorDef("name-not-found", "cannot find %s")
	// ErrNameNotFoundInVersionRange indicates a reference missing at some versions.
	ErrNameNotFoundInVersionRange = errorDef("name-not-found-in-version-range", "%s is not available at version %s of %s")
	// ErrIncludeCycle indicates declarations that contain each other.
	ErrIncludeCycle = errorDef("include-cycle", "there is an includes-cycle in declarations: %s")
	// ErrUnknownMember indicates a member reference to a missing bits or enum member.
	ErrUnknownMember = errorDef("unknown-member", "%s has no member %s")
)

// Typecheck errors.
var (
	// ErrExpectedType indicates a non-type used where a type is required.
	ErrExpectedType = errorDef("expected-type", "%s is not a type")
	// ErrExpectedValue indicates a non-constant used where a value is required.
	ErrExpectedValue = errorDef("expected-value", "%s is not a value")
	// ErrCannotBeOptional indicates an optional type that cannot be optional.
	ErrCannotBeOptional = errorDef("cannot-be-optional", "%s cannot be optional")
	// ErrMissingElementType indicates vector, array or box without an element type.
	ErrMissingElementType = errorDef("missing-element-type", "%s requires an element type")
	// ErrUnexpectedElementType indicates a layout given an element type it does not take.
	ErrUnexpectedElementType = errorDef("unexpected-element-type", "%s does not take an element type")
	// ErrArrayMissingSize indicates an array without a size.
	ErrArrayMissingSize = errorDef("array-missing-size", "array requires a size")
	// ErrMustBeAProtocol indicates client_end or server_end of a non-protocol.
	ErrMustBeAProtocol = errorDef("must-be-a-protocol", "%s must be a protocol")
	// ErrBoxedTypeMustBeStruct indicates box of a non-struct.
	ErrBoxedTypeMustBeStruct = errorDef("boxed-type-must-be-struct", "box requires a struct, got %s")
	// ErrTypeCannotBeConverted indicates a constant that does not fit its type.
	ErrTypeCannotBeConverted = errorDef("type-cannot-be-converted", "%s cannot be converted to type %s")
	// ErrConstantOverflowsType indicates a numeric constant out of range.
	ErrConstantOverflowsType = errorDef("constant-overflows-type", "%s overflows type %s")
	// ErrInvalidConstantType indicates a const declared with an unsupported type.
	ErrInvalidConstantType = errorDef("invalid-constant-type", "invalid constant type %s")
	// ErrOrOperatorOnNonBits indicates '|' applied outside bits constants.
	ErrOrOperatorOnNonBits = errorDef("or-operator-on-non-bits", "the | operator can only be used with bits, got %s")
	// ErrEnumTypeMustBeIntegral indicates an enum with a non-integral subtype.
	ErrEnumTypeMustBeIntegral = errorDef("enum-type-must-be-integral", "enums may only be of integral primitive type, got %s")
	// ErrBitsTypeMustBeUnsigned indicates bits with a non-unsigned subtype.
	ErrBitsTypeMustBeUnsigned = errorDef("bits-type-must-be-unsigned", "bits may only be of unsigned integral primitive type, got %s")
	// ErrBitsMemberMustBePowerOfTwo indicates a bits member that is not a single bit.
	ErrBitsMemberMustBePowerOfTwo = errorDef("bits-member-must-be-power-of-two", "bits members must be powers of two, %s is %s")
	// ErrMustHaveOneMember indicates an empty bits or enum.
	ErrMustHaveOneMember = errorDef("must-have-one-member", "%s must have at least one member")
	// ErrDuplicateMemberValue indicates two present members with the same value.
	ErrDuplicateMemberValue = errorDef("duplicate-member-value", "value of %s conflicts with %s")
	// ErrDuplicateOrdinal indicates two present members with the same ordinal.
	ErrDuplicateOrdinal = errorDef("duplicate-ordinal", "ordinal %d of %s is used by %s")
	// ErrInvalidOrdinal indicates an ordinal out of bounds.
	ErrInvalidOrdinal = errorDef("invalid-ordinal", "ordinal %d of %s is out of bounds")
	// ErrDuplicateMethodOrdinal indicates two methods hashing to the same ordinal.
	ErrDuplicateMethodOrdinal = errorDef("duplicate-method-ordinal", "method %s has the same ordinal as %s (0x%016x)")
	// ErrComposingNonProtocol indicates compose of a non-protocol.
	ErrComposingNonProtocol = errorDef("composing-non-protocol", "%s is not a protocol")
	// ErrOnlyClientEndsInServices indicates a service member that is not a client_end.
	ErrOnlyClientEndsInServices = errorDef("only-client-ends-in-services", "service member %s must be a client_end")
	// ErrResourceMustBeUint32Derived indicates a resource with a subtype other than uint32.
	ErrResourceMustBeUint32Derived = errorDef("resource-must-be-uint32-derived", "resource %s must derive from uint32")
	// ErrInvalidMethodPayload indicates a method payload that is not a struct, table or union.
	ErrInvalidMethodPayload = errorDef("invalid-method-payload", "method payload %s must be a struct, table or union")
	// ErrInvalidErrorType indicates a method error type other than int32, uint32 or an enum of them.
	ErrInvalidErrorType = errorDef("invalid-error-type", "error type %s must be int32, uint32 or an enum of one of those")
	// ErrInvalidSelector indicates a malformed @selector.
	ErrInvalidSelector = errorDef("invalid-selector", "invalid selector %q")
)

// Later verification errors.
var (
	// ErrTypeShapeOverflow indicates a type whose inline size does not fit 32 bits.
	ErrTypeShapeOverflow = errorDef("type-shape-overflow", "inline size of %s overflows")
	// ErrReplacedWithoutReplacement indicates replaced=N without a successor added at N.
	ErrReplacedWithoutReplacement = errorDef("replaced-without-replacement", "%s is marked replaced=%s but no replacement is added at %s")
	// ErrRemovedWithReplacement indicates removed=N while a successor is added at N.
	ErrRemovedWithReplacement = errorDef("removed-with-replacement", "%s is marked removed=%s but is replaced at %s; use replaced instead")
	// ErrTypeMustBeResource indicates a value type containing a resource.
	ErrTypeMustBeResource = errorDef("type-must-be-resource", "%s may contain handles (via %s) and must be marked resource")
	// ErrHandleUsedInIncompatibleTransport indicates a handle not allowed by the protocol transport.
	ErrHandleUsedInIncompatibleTransport = errorDef("handle-used-in-incompatible-transport", "handle %s cannot be used in protocol %s with transport %s")
	// ErrInvalidTransportType indicates an unknown @transport value.
	ErrInvalidTransportType = errorDef("invalid-transport-type", "invalid transport %q, expected one of %s")
	// ErrInvalidAttributePlacement indicates an official attribute used on the wrong element.
	ErrInvalidAttributePlacement = errorDef("invalid-attribute-placement", "attribute @%s cannot be placed on %s")
	// ErrUnknownAttributeArg indicates an argument the schema does not declare.
	ErrUnknownAttributeArg = errorDef("unknown-attribute-arg", "attribute @%s has no argument %q")
	// ErrMissingRequiredAttributeArg indicates a required schema argument was omitted.
	ErrMissingRequiredAttributeArg = errorDef("missing-required-attribute-arg", "attribute @%s is missing required argument %q")
	// ErrInvalidAttributeArgType indicates an argument of the wrong type.
	ErrInvalidAttributeArgType = errorDef("invalid-attribute-arg-type", "argument %q of @%s must be a %s")
	// ErrUnusedImport indicates a using declaration never referenced.
	ErrUnusedImport = errorDef("unused-import", "library %s imports %s but does not use it")
	// ErrMultipleLibrariesWithSameName indicates two libraries inserted with one name.
	ErrMultipleLibrariesWithSameName = errorDef("multiple-libraries-with-same-name", "there are multiple libraries named %s")
	// ErrUnusedLibraries indicates libraries given to the build but never reached.
	ErrUnusedLibraries = errorDef("unused-libraries", "unused libraries provided: %s")
)

// Warnings.
var (
	// WarnAttributeTypo indicates a user-defined attribute one edit away from an official one.
	WarnAttributeTypo = warningDef("attribute-typo", "suspect attribute with name @%s; did you mean @%s?")
	// WarnDeprecatedReference indicates a reference to an element deprecated where the referrer is not.
	WarnDeprecatedReference = warningDef("deprecated-reference", "%s references deprecated %s")
)

// Diagnostic is one reported condition with its source position.
//
//nolint:errname // public API name uses compiler domain term.
type Diagnostic struct {
	Code     string
	Severity Severity
	Message  string
	File     string
	Line     int
	Column   int
}

// New builds a diagnostic from a definition and message arguments.
func New(def Def, file string, line, column int, args ...any) Diagnostic {
	return Diagnostic{
		Code:     string(def.Code),
		Severity: def.Severity,
		Message:  fmt.Sprintf(def.Format, args...),
		File:     file,
		Line:     line,
		Column:   column,
	}
}

// Error formats the diagnostic as file:line:column: severity [code] message.
func (d *Diagnostic) Error() string {
	if d == nil {
		return "diagnostic <nil>"
	}
	var b strings.Builder
	if d.File != "" {
		b.WriteString(d.File)
		if d.Line > 0 {
			fmt.Fprintf(&b, ":%d", d.Line)
			if d.Column > 0 {
				fmt.Fprintf(&b, ":%d", d.Column)
			}
		}
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "%s [%s] %s", d.Severity, d.Code, d.Message)
	return b.String()
}

// DiagnosticList is an error wrapping one or more diagnostics.
type DiagnosticList []Diagnostic //nolint:errname // public API name.

// Error returns a compact summary of the diagnostics.
func (l DiagnosticList) Error() string {
	switch len(l) {
	case 0:
		return "no diagnostics"
	case 1:
		return l[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more)", l[0].Error(), len(l)-1)
	}
}

// Sorted returns a copy ordered by file, line, column and code.
func (l DiagnosticList) Sorted() DiagnosticList {
	out := slices.Clone(l)
	slices.SortStableFunc(out, func(a, b Diagnostic) int {
		if c := strings.Compare(a.File, b.File); c != 0 {
			return c
		}
		if a.Line != b.Line {
			return a.Line - b.Line
		}
		if a.Column != b.Column {
			return a.Column - b.Column
		}
		return strings.Compare(a.Code, b.Code)
	})
	return out
}

// Errors returns only error-severity diagnostics.
func (l DiagnosticList) Errors() DiagnosticList {
	var out DiagnosticList
	for _, d := range l {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}

// AsDiagnostics extracts diagnostics from an error returned by the compiler.
func AsDiagnostics(err error) ([]Diagnostic, bool) {
	if err == nil {
		return nil, false
	}
	var list DiagnosticList
	if errors.As(err, &list) {
		return []Diagnostic(list), true
	}
	var one *Diagnostic
	if errors.As(err, &one) && one != nil {
		return []Diagnostic{*one}, true
	}
	return nil, false
}

// HasCode reports whether err carries a diagnostic with code.
func HasCode(err error, def Def) bool {
	diags, ok := AsDiagnostics(err)
	if !ok {
		return false
	}
	for _, d := range diags {
		if d.Code == string(def.Code) {
			return true
		}
	}
	return false
}
