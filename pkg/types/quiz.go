package types

// QuestionRecord is one element of a quiz as produced by the generation step.
// Fields are read loosely: any of them may be absent, null or of an
// unexpected type, and the element itself need not be an object.
type QuestionRecord struct {
	Value JSONValue
}

// NewQuestionRecord builds a well-formed record. Options keep the given order.
func NewQuestionRecord(question string, options []JSONMember, correctAnswer string) QuestionRecord {
	return QuestionRecord{Value: NewObject(
		Member("question", NewString(question)),
		Member("options", NewObject(options...)),
		Member("correct_answer", NewString(correctAnswer)),
	)}
}

// Question returns the `question` field.
func (q QuestionRecord) Question() JSONValue { return q.Value.Get("question") }

// Options returns the `options` field, a mapping of option key to text.
func (q QuestionRecord) Options() JSONValue { return q.Value.Get("options") }

// CorrectAnswer returns the `correct_answer` field.
func (q QuestionRecord) CorrectAnswer() JSONValue { return q.Value.Get("correct_answer") }

// Quiz is an ordered sequence of question records. Order defines numbering.
type Quiz []QuestionRecord

// QuizFrom returns the records of v, or false when v is not an array.
func QuizFrom(v JSONValue) (Quiz, bool) {
	if v.Kind != JSONArray {
		return nil, false
	}
	quiz := make(Quiz, len(v.Array))
	for i, item := range v.Array {
		quiz[i] = QuestionRecord{Value: item}
	}
	return quiz, true
}

// Value returns the quiz as a JSON array.
func (q Quiz) Value() JSONValue {
	items := make([]JSONValue, len(q))
	for i, r := range q {
		items[i] = r.Value
	}
	return NewArray(items...)
}

// DisplayItem is a question reshaped for presentation. Absent fields are
// omitted from JSON output; null fields are kept.
type DisplayItem struct {
	ID            int       `json:"id"`
	Question      JSONValue `json:"question,omitzero"`
	Options       JSONValue `json:"options,omitzero"`
	CorrectAnswer JSONValue `json:"correctAnswer,omitzero"`
}

// ExportFormat selects the serialization used by an export.
type ExportFormat string

const (
	ExportJSON ExportFormat = "json"
	ExportCSV  ExportFormat = "csv"
	ExportTXT  ExportFormat = "txt"
)

// ExportFormats lists the accepted format tags in the order they are reported.
var ExportFormats = []ExportFormat{ExportJSON, ExportCSV, ExportTXT}

// ContentType returns the MIME type of a payload in this format.
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportCSV:
		return "text/csv; charset=utf-8"
	case ExportTXT:
		return "text/plain; charset=utf-8"
	default:
		return "application/json; charset=utf-8"
	}
}
