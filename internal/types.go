package internal

// Stage identifies one pipeline stage.
type Stage string

const (
	StageExtract   Stage = "extract"
	StageTranslate Stage = "translate"
	StageKeywords  Stage = "keywords"
	StageRender    Stage = "render"
)

// Stages lists the pipeline stages in execution order.
var Stages = []Stage{StageExtract, StageTranslate, StageKeywords, StageRender}

// Unit statuses as recorded in the units table. A unit advances through
// them in order; FailedStatus is absorbing for the remainder of a run.
const (
	StatusPending    = "pending"
	StatusExtracted  = "extracted"
	StatusTranslated = "translated"
	StatusAnnotated  = "annotated"
	StatusRendered   = "rendered"
)

// FailedStatus returns the terminal status recorded when a unit fails a stage.
func FailedStatus(s Stage) string {
	return "failed@" + string(s)
}

// KeywordPair couples a ranked source-language phrase with its translation.
// Within a unit the list is sorted by Score descending, ties broken by
// ascending Offset (first occurrence in the cleaned text).
type KeywordPair struct {
	SourcePhrase string  `json:"source_phrase"`
	TargetPhrase string  `json:"target_phrase"`
	Score        float64 `json:"score"`
	Offset       int     `json:"offset"`
}

// ChapterUnit is one heading-delimited segment of the source document.
// It is created during segmentation and mutated in place as each stage
// populates its field: CleanedText, then TranslatedText, then Keywords.
type ChapterUnit struct {
	Number         int
	Title          string
	Slug           string
	Status         string
	RawText        string
	CleanedText    string
	TranslatedText string
	Keywords       []KeywordPair
}
