package audit

import (
	"fmt"

	"github.com/gyeh/billaudit/internal/model"
)

var (
	// Acts that cannot exist apart from the principal procedure.
	accessoryActTerms = []string{
		"preparation", "monitoring", "equipment use", "use of equipment", "right",
		"recovery room", "recovery suite",
		"preparacion", "monitoreo", "monitorizacion", "uso de equipo", "uso equipo",
		"derecho", "sala de recuperacion", "recuperacion",
	}
	// Commodity supplies a bundled package price already covers.
	disposableSupplyTerms = []string{
		"syringe", "hypodermic needle", "needle", "gauze", "swab", "glove", "electrode",
		"iv line", "iv set", "infusion set", "iv catheter", "venous catheter",
		"jeringa", "aguja", "gasa", "torula", "guante", "electrodo",
		"bajada de suero", "equipo de fleboclisis", "branula", "cateter venoso",
	}
)

// motor is one fragmentation detector. detect returns a rationale when the
// line matches its pattern.
type motor struct {
	id     model.Motor
	detect func(lc *lineContext) (rationale string, ok bool)
}

// fragmentationMotors are evaluated in order; the first to fire wins.
var fragmentationMotors = []motor{
	{id: model.MotorM1, detect: detectActSplitting},
	{id: model.MotorM2, detect: detectPackageUnbundling},
	{id: model.MotorM3, detect: detectGenericDumping},
}

// Classify runs the fragmentation cascade for one line.
func Classify(lc *lineContext) model.Classification {
	return classifyWith(lc, fragmentationMotors)
}

func classifyWith(lc *lineContext, motors []motor) model.Classification {
	for _, m := range motors {
		if rationale, ok := m.detect(lc); ok {
			return model.Classification{
				Level:          model.LevelStructuralFragmentation,
				Motor:          m.id,
				Rationale:      rationale,
				EconomicImpact: lc.line.PatientCopay,
			}
		}
	}
	return model.Classification{
		Level:          model.LevelCorrect,
		Motor:          model.MotorNone,
		EconomicImpact: 0,
	}
}

func detectActSplitting(lc *lineContext) (string, bool) {
	if !lc.zeroCoverageWithCopay() || lc.generic {
		return "", false
	}
	term, ok := lc.hasTerm(accessoryActTerms)
	if !ok {
		return "", false
	}
	return fmt.Sprintf(
		"%q is an accessory act (%q) that cannot exist apart from the principal procedure; "+
			"it was split out with zero coverage and %s charged to the patient",
		lc.line.Description, term, lc.line.PatientCopay), true
}

func detectPackageUnbundling(lc *lineContext) (string, bool) {
	if len(lc.event.DetectedPackages) == 0 || lc.line.PatientCopay <= 0 {
		return "", false
	}
	term, ok := lc.hasTerm(disposableSupplyTerms)
	if !ok {
		return "", false
	}
	return fmt.Sprintf(
		"%q is a standard disposable (%q) expected inside the bundled package %s; "+
			"billing it separately charged %s to the patient",
		lc.line.Description, term, lc.event.DetectedPackages[0], lc.line.PatientCopay), true
}

func detectGenericDumping(lc *lineContext) (string, bool) {
	if !lc.generic || !lc.zeroCoverageWithCopay() || lc.trace.Status != model.MatchFail {
		return "", false
	}
	return fmt.Sprintf(
		"code %s is a generic bucket with zero coverage and no invoice item matching its "+
			"description or amount; %s was charged to the patient with no traceable basis",
		lc.line.Code, lc.line.PatientCopay), true
}
