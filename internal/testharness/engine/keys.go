package engine

// Output keys shared by action handlers and checkers.
const (
	// KeyValue holds the step's primary value: a number, a string, or an
	// enum rendered by name.
	KeyValue = "value"

	// KeyFields holds record and dict members as map[string]any.
	KeyFields = "fields"

	// KeyType holds the reply's type tag.
	KeyType = "type"

	// KeyEnvelope is true when the reply could not be materialized.
	KeyEnvelope = "envelope"

	// KeyRaw holds the materialized Go value.
	KeyRaw = "raw"

	// InternalStepOutput holds a copy of the last step's outputs.
	InternalStepOutput = "__step_output"
)

// Checker names as they appear under "expect" in scenario files.
const (
	CheckerNameDefault          = "default"
	CheckerNameValueGT          = "value_gt"
	CheckerNameValueLT          = "value_lt"
	CheckerNameValueInRange     = "value_in_range"
	CheckerNameValueEquals      = "value_equals"
	CheckerNameValueNot         = "value_not"
	CheckerNameValueIsEnvelope  = "value_is_envelope"
	CheckerNameFieldEquals      = "field_equals"
	CheckerNameFieldGT          = "field_gt"
	CheckerNameFieldLT          = "field_lt"
	CheckerNameFieldDelta       = "field_delta"
	CheckerNameFieldIncreasedBy = "field_increased_by"
	CheckerNameSaveAs           = "save_as"
)
