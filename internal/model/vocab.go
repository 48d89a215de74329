package model

// Relation types
var (
	ExactMatch      = MustParseCURIE("skos:exactMatch")
	BroadMatch      = MustParseCURIE("skos:broadMatch")
	NarrowMatch     = MustParseCURIE("skos:narrowMatch")
	CloseMatch      = MustParseCURIE("skos:closeMatch")
	RelatedMatch    = MustParseCURIE("skos:relatedMatch")
	EquivalentClass = MustParseCURIE("owl:equivalentClass")
	HasDbXref       = MustParseCURIE("oboinowl:hasDbXref")
)

// Mapping justifications from the SEMAPV vocabulary
var (
	ManualMappingCuration            = MustParseCURIE("semapv:ManualMappingCuration")
	LexicalMatching                  = MustParseCURIE("semapv:LexicalMatching")
	LexicalSimilarityThreshold       = MustParseCURIE("semapv:LexicalSimilarityThresholdMatching")
	SemanticSimilarityThreshold      = MustParseCURIE("semapv:SemanticSimilarityThresholdMatching")
	StructuralMatching               = MustParseCURIE("semapv:StructuralMatching")
	LogicalReasoning                 = MustParseCURIE("semapv:LogicalReasoning")
	MappingChaining                  = MustParseCURIE("semapv:MappingChaining")
	MappingReview                    = MustParseCURIE("semapv:MappingReview")
	UnspecifiedMatching              = MustParseCURIE("semapv:UnspecifiedMatching")
	BackgroundKnowledgeBasedMatching = MustParseCURIE("semapv:BackgroundKnowledgeBasedMatching")
	CompositeMatching                = MustParseCURIE("semapv:CompositeMatching")
	InstanceBasedMatching            = MustParseCURIE("semapv:InstanceBasedMatching")
)

// JustificationPrefix is the namespace every mapping justification must come from
const JustificationPrefix = "semapv"

// AuthorPrefix is the trusted authority namespace for curators
const AuthorPrefix = "orcid"

var matchingProcesses = map[RefKey]bool{
	ManualMappingCuration.Key():            true,
	LexicalMatching.Key():                  true,
	LexicalSimilarityThreshold.Key():       true,
	SemanticSimilarityThreshold.Key():      true,
	StructuralMatching.Key():               true,
	LogicalReasoning.Key():                 true,
	MappingChaining.Key():                  true,
	MappingReview.Key():                    true,
	UnspecifiedMatching.Key():              true,
	BackgroundKnowledgeBasedMatching.Key(): true,
	CompositeMatching.Key():                true,
	InstanceBasedMatching.Key():            true,
}

// IsMatchingProcess reports whether ref is a known SEMAPV matching process
func IsMatchingProcess(ref Reference) bool {
	return matchingProcesses[ref.Key()]
}

// PredicateModifier negates a predicate when set to ModifierNot
type PredicateModifier string

const (
	ModifierNone PredicateModifier = ""
	ModifierNot  PredicateModifier = "Not"
)
