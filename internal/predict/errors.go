package predict

import "errors"

// Error kinds surfaced verbatim on the wire.
const (
	KindValidation     = "ValidationError"
	KindUnavailable    = "ModelUnavailable"
	KindTimeout        = "PredictionTimeout"
	KindClassification = "ClassificationError"
	KindAnalysis       = "AnalysisError"
)

type Error struct {
	Kind   string
	Detail string
}

func (e *Error) Error() string {
	return e.Kind + ": " + e.Detail
}

// KindOf extracts the stable kind string, defaulting to ClassificationError
// for anything that escaped the service boundary untyped.
func KindOf(err error) string {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return KindClassification
}
