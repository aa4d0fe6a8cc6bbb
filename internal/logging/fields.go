package logging

// Field name constants for structured logging.
const (
	FieldError   = "error"
	FieldPath    = "path"
	FieldRunID   = "run_id"
	FieldSeed    = "seed"
	FieldStep    = "step"
	FieldSteps   = "steps"
	FieldOp      = "op"
	FieldOffset  = "offset"
	FieldLength  = "length"
	FieldName    = "name"
	FieldSession = "session"

	// Statistics fields.
	FieldPositions = "positions"
	FieldMayDiffer = "may_differ"
	FieldFailures  = "failures"

	// Version fields.
	FieldVersion = "version"
	FieldCommit  = "commit"
	FieldBuilt   = "built"
)
