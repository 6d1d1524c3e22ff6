package metric

import "github.com/google/uuid"

// Keys of the core metrics.
const (
	Lines                          = "lines"
	Ncloc                          = "ncloc"
	Complexity                     = "complexity"
	CognitiveComplexity            = "cognitive_complexity"
	FileComplexityDistribution     = "file_complexity_distribution"
	FunctionComplexityDistribution = "function_complexity_distribution"
	Coverage                       = "coverage"
	LineCoverage                   = "line_coverage"
	LinesToCover                   = "lines_to_cover"
	UncoveredLines                 = "uncovered_lines"
	DuplicatedLines                = "duplicated_lines"
	DuplicatedLinesDensity         = "duplicated_lines_density"
	Violations                     = "violations"
	Bugs                           = "bugs"
	CodeSmells                     = "code_smells"
	Vulnerabilities                = "vulnerabilities"
	TechnicalDebt                  = "sqale_index"
	ReliabilityRating              = "reliability_rating"
	SecurityRating                 = "security_rating"
	MaintainabilityRating          = "sqale_rating"
	AlertStatus                    = "alert_status"
	QualityGateDetails             = "quality_gate_details"
	NclocLanguageDistribution      = "ncloc_language_distribution"
	LastCommitDate                 = "last_commit_date"
	ExecutableLinesData            = "executable_lines_data"
)

// namespace seeds the name-based UUIDs of core metrics so they are stable
// across runs and databases.
var namespace = uuid.MustParse("6f1c2a5e-3b1d-4c8e-9a57-0d9e8b7c4f21")

// UUIDForKey returns the stable UUID assigned to a metric key.
func UUIDForKey(key string) string {
	return uuid.NewSHA1(namespace, []byte(key)).String()
}

func best(v float64) *float64 { return &v }

func core(key string, typ Type, bestValue *float64, optimized bool) Metric {
	return Metric{
		UUID:               UUIDForKey(key),
		Key:                key,
		Type:               typ,
		BestValue:          bestValue,
		BestValueOptimized: optimized,
	}
}

// Core returns the built-in metric catalog.
func Core() []Metric {
	return []Metric{
		core(Lines, TypeInt, nil, false),
		core(Ncloc, TypeInt, nil, false),
		core(Complexity, TypeInt, nil, false),
		core(CognitiveComplexity, TypeInt, nil, false),
		core(FileComplexityDistribution, TypeDistrib, nil, false),
		core(FunctionComplexityDistribution, TypeDistrib, nil, false),
		core(Coverage, TypePercent, best(100), true),
		core(LineCoverage, TypePercent, best(100), true),
		core(LinesToCover, TypeInt, nil, false),
		core(UncoveredLines, TypeInt, best(0), true),
		core(DuplicatedLines, TypeInt, best(0), true),
		core(DuplicatedLinesDensity, TypePercent, best(0), true),
		core(Violations, TypeInt, best(0), true),
		core(Bugs, TypeInt, best(0), true),
		core(CodeSmells, TypeInt, best(0), true),
		core(Vulnerabilities, TypeInt, best(0), true),
		core(TechnicalDebt, TypeWorkDur, best(0), true),
		core(ReliabilityRating, TypeRating, best(1), true),
		core(SecurityRating, TypeRating, best(1), true),
		core(MaintainabilityRating, TypeRating, best(1), true),
		core(AlertStatus, TypeLevel, nil, false),
		core(QualityGateDetails, TypeData, nil, false),
		core(NclocLanguageDistribution, TypeData, nil, false),
		core(LastCommitDate, TypeMillisec, nil, false),
		core(ExecutableLinesData, TypeData, nil, false),
	}
}

// NewCoreRepository returns a repository preloaded with Core().
func NewCoreRepository() *MapRepository {
	return NewMapRepository(Core()...)
}
