// Package examtopics parses exam discussion pages into structured records.
package examtopics

// Choice is one answer option attached to a question.
type Choice struct {
	Letter  string `json:"letter"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Record is the structured form of one extracted question page.
type Record struct {
	Ordinal        int      `json:"question_number"`
	Question       string   `json:"question_text"`
	Choices        []Choice `json:"choices"`
	QuestionImages []string `json:"question_image_src"`
	AnswerText     string   `json:"answer_image_text"`
	AnswerImages   []string `json:"answer_image_src"`
}
