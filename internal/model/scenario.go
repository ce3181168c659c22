package model

// ScenarioKind selects the template and context-injection rule
type ScenarioKind string

const (
	ScenarioGroupFacilitation ScenarioKind = "group_facilitation"
	ScenarioIndividualSupport ScenarioKind = "individual_support"
	ScenarioActivityGuidance  ScenarioKind = "activity_guidance"
	ScenarioConflictMediation ScenarioKind = "conflict_mediation"
	ScenarioProfessionalAlert ScenarioKind = "professional_alert"
)

// Scenarios lists every kind in template-file order
var Scenarios = []ScenarioKind{
	ScenarioGroupFacilitation,
	ScenarioIndividualSupport,
	ScenarioActivityGuidance,
	ScenarioConflictMediation,
	ScenarioProfessionalAlert,
}
