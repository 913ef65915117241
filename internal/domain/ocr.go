package domain

import "encoding/json"

// OcrEngine identifies an OCR engine implementation.
type OcrEngine string

const (
	OcrEngineTextract OcrEngine = "textract"
	OcrEngineAzure    OcrEngine = "azure"
)

// BlockType classifies a recognized OCR block.
type BlockType string

const (
	BlockTypeLine      BlockType = "LINE"
	BlockTypeWord      BlockType = "WORD"
	BlockTypeParagraph BlockType = "PARAGRAPH"
	BlockTypeTable     BlockType = "TABLE"
	BlockTypeFormField BlockType = "FORM_FIELD"
)

// BoundingBox is a normalized (0-1) rectangle on a page.
type BoundingBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// OcrBlock is a single recognized unit of text with its position.
type OcrBlock struct {
	Type        BlockType   `json:"type"`
	Text        string      `json:"text"`
	Confidence  float64     `json:"confidence"`
	BoundingBox BoundingBox `json:"bounding_box"`
}

// OcrTableCell is one cell of a detected table. Row and column indexes
// are 1-based; a missing index pair means the engine reported no cell there.
type OcrTableCell struct {
	RowIndex    int     `json:"row_index"`
	ColumnIndex int     `json:"column_index"`
	RowSpan     int     `json:"row_span"`
	ColumnSpan  int     `json:"column_span"`
	Text        string  `json:"text"`
	IsHeader    bool    `json:"is_header"`
	Confidence  float64 `json:"confidence"`
}

// OcrTable is a detected table with its sparse cell list.
type OcrTable struct {
	PageNumber  int            `json:"page_number"`
	RowCount    int            `json:"row_count"`
	ColumnCount int            `json:"column_count"`
	Cells       []OcrTableCell `json:"cells"`
}

// KeyValuePair is a detected form field (key and its value).
type KeyValuePair struct {
	Key        string  `json:"key"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// OcrPage holds the recognized content of a single page.
type OcrPage struct {
	PageNumber int        `json:"page_number"`
	Width      float64    `json:"width"`
	Height     float64    `json:"height"`
	Text       string     `json:"text"`
	Blocks     []OcrBlock `json:"blocks"`
	Tables     []OcrTable `json:"tables"`
}

// OcrResult is the immutable output of one OCR stage run.
type OcrResult struct {
	Engine            OcrEngine       `json:"engine"`
	EngineVersion     string          `json:"engine_version"`
	RawText           string          `json:"raw_text"`
	Pages             []OcrPage       `json:"pages"`
	Tables            []OcrTable      `json:"tables"`
	KeyValuePairs     []KeyValuePair  `json:"key_value_pairs"`
	OverallConfidence float64         `json:"overall_confidence"`
	WordCount         int             `json:"word_count"`
	ProcessingTimeMs  int64           `json:"processing_time_ms"`
	RawResponse       json.RawMessage `json:"raw_response,omitempty"`
}
