package ocr

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/caredocs/docintel/internal/config"
	"github.com/caredocs/docintel/internal/domain"
	"github.com/caredocs/docintel/internal/logger"
)

const (
	azureEngineVersion  = "prebuilt-layout-2024-11-30"
	azureAPIVersion     = "2024-11-30"
	azureAnalyzePathFmt = "/documentintelligence/documentModels/prebuilt-layout:analyze?api-version=%s"
)

// AzureEngine runs OCR through Azure Document Intelligence prebuilt-layout.
// Analysis is always asynchronous: submit returns an Operation-Location URL
// that is polled until the operation settles.
type AzureEngine struct {
	client       *resty.Client
	endpoint     string
	pollInterval time.Duration
	maxPolls     int
	configured   bool
	log          *logger.Logger
}

// NewAzureEngine creates the Azure Document Intelligence adapter.
func NewAzureEngine(cfg config.AzureOCRConfig, log *logger.Logger) *AzureEngine {
	client := resty.New()
	client.SetHeader("Ocp-Apim-Subscription-Key", cfg.APIKey)
	client.SetTimeout(30 * time.Second)

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	maxPolls := cfg.MaxPolls
	if maxPolls <= 0 {
		maxPolls = 60
	}

	return &AzureEngine{
		client:       client,
		endpoint:     strings.TrimRight(cfg.Endpoint, "/"),
		pollInterval: pollInterval,
		maxPolls:     maxPolls,
		configured:   cfg.Endpoint != "" && cfg.APIKey != "",
		log:          log.WithField(logger.FieldEngine, string(domain.OcrEngineAzure)),
	}
}

func (e *AzureEngine) Name() domain.OcrEngine { return domain.OcrEngineAzure }

func (e *AzureEngine) IsAvailable() bool { return e.configured }

// Process submits the document and polls the analysis operation to completion.
func (e *AzureEngine) Process(ctx context.Context, content []byte, mimeType string, _ Options) (*domain.OcrResult, error) {
	if !e.configured {
		return nil, ErrEngineUnavailable
	}

	start := time.Now()

	url := e.endpoint + fmt.Sprintf(azureAnalyzePathFmt, azureAPIVersion)
	resp, err := e.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", mimeType).
		SetBody(content).
		Post(url)
	if err != nil {
		return nil, fmt.Errorf("azure analyze submit failed: %w", err)
	}
	if resp.StatusCode() != 202 {
		return nil, fmt.Errorf("azure analyze submit returned HTTP %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	opLocation := resp.Header().Get("Operation-Location")
	if opLocation == "" {
		return nil, fmt.Errorf("azure analyze submit missing Operation-Location header")
	}

	analyzeResult, raw, err := e.pollOperation(ctx, opLocation)
	if err != nil {
		return nil, err
	}

	result := mapAzureResult(analyzeResult)
	result.RawResponse = raw
	result.ProcessingTimeMs = time.Since(start).Milliseconds()

	e.log.WithFields(logger.Fields{
		logger.FieldDurationMs: result.ProcessingTimeMs,
		logger.FieldConfidence: result.OverallConfidence,
		"pages":                len(result.Pages),
		"tables":               len(result.Tables),
		"words":                result.WordCount,
	}).Info("azure layout analysis complete")

	return result, nil
}

// azureOperation is the poll response envelope.
type azureOperation struct {
	Status        string             `json:"status"`
	Error         *azureError        `json:"error,omitempty"`
	AnalyzeResult *azureAnalyzeState `json:"analyzeResult,omitempty"`
}

type azureError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type azureAnalyzeState struct {
	Content       string           `json:"content"`
	Pages         []azurePage      `json:"pages"`
	Tables        []azureTable     `json:"tables"`
	KeyValuePairs []azureKVPair    `json:"keyValuePairs"`
}

type azurePage struct {
	PageNumber int         `json:"pageNumber"`
	Width      float64     `json:"width"`
	Height     float64     `json:"height"`
	Words      []azureWord `json:"words"`
	Lines      []azureLine `json:"lines"`
}

type azureWord struct {
	Content    string  `json:"content"`
	Confidence float64 `json:"confidence"`
}

type azureLine struct {
	Content string    `json:"content"`
	Polygon []float64 `json:"polygon"`
}

type azureTable struct {
	RowCount        int              `json:"rowCount"`
	ColumnCount     int              `json:"columnCount"`
	Cells           []azureTableCell `json:"cells"`
	BoundingRegions []azureRegion    `json:"boundingRegions"`
}

type azureTableCell struct {
	Kind        string `json:"kind"`
	RowIndex    int    `json:"rowIndex"`
	ColumnIndex int    `json:"columnIndex"`
	RowSpan     int    `json:"rowSpan"`
	ColumnSpan  int    `json:"columnSpan"`
	Content     string `json:"content"`
}

type azureRegion struct {
	PageNumber int `json:"pageNumber"`
}

type azureKVPair struct {
	Key        *azureKVContent `json:"key"`
	Value      *azureKVContent `json:"value"`
	Confidence float64         `json:"confidence"`
}

type azureKVContent struct {
	Content string `json:"content"`
}

func (e *AzureEngine) pollOperation(ctx context.Context, opLocation string) (*azureAnalyzeState, json.RawMessage, error) {
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for poll := 0; poll < e.maxPolls; poll++ {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-ticker.C:
		}

		resp, err := e.client.R().SetContext(ctx).Get(opLocation)
		if err != nil {
			return nil, nil, fmt.Errorf("azure operation poll failed: %w", err)
		}
		if resp.StatusCode() != 200 {
			return nil, nil, fmt.Errorf("azure operation poll returned HTTP %d: %s", resp.StatusCode(), string(resp.Body()))
		}

		var op azureOperation
		if err := json.Unmarshal(resp.Body(), &op); err != nil {
			return nil, nil, fmt.Errorf("failed to parse azure operation response: %w", err)
		}

		switch op.Status {
		case "succeeded":
			if op.AnalyzeResult == nil {
				return nil, nil, fmt.Errorf("azure operation succeeded without analyzeResult")
			}
			return op.AnalyzeResult, resp.Body(), nil
		case "failed":
			if op.Error != nil {
				return nil, nil, fmt.Errorf("azure analysis failed: %s: %s", op.Error.Code, op.Error.Message)
			}
			return nil, nil, fmt.Errorf("azure analysis failed without error detail")
		}
		// notStarted / running: keep polling
	}

	return nil, nil, fmt.Errorf("azure operation did not finish within %d polls", e.maxPolls)
}

// mapAzureResult converts the prebuilt-layout response into the normalized
// OcrResult shape. Azure cell indexes are 0-based and are shifted to 1-based.
func mapAzureResult(ar *azureAnalyzeState) *domain.OcrResult {
	result := &domain.OcrResult{
		Engine:        domain.OcrEngineAzure,
		EngineVersion: azureEngineVersion,
		RawText:       ar.Content,
	}

	var confidenceSum float64
	for _, p := range ar.Pages {
		page := domain.OcrPage{
			PageNumber: p.PageNumber,
			Width:      p.Width,
			Height:     p.Height,
		}

		var lines []string
		for _, line := range p.Lines {
			lines = append(lines, line.Content)
			page.Blocks = append(page.Blocks, domain.OcrBlock{
				Type:        domain.BlockTypeLine,
				Text:        line.Content,
				BoundingBox: polygonToBoundingBox(line.Polygon, p.Width, p.Height),
			})
		}
		page.Text = strings.Join(lines, "\n")

		for _, w := range p.Words {
			result.WordCount++
			confidenceSum += w.Confidence
		}

		result.Pages = append(result.Pages, page)
	}

	for _, t := range ar.Tables {
		pageNum := 1
		if len(t.BoundingRegions) > 0 {
			pageNum = t.BoundingRegions[0].PageNumber
		}
		table := domain.OcrTable{
			PageNumber:  pageNum,
			RowCount:    t.RowCount,
			ColumnCount: t.ColumnCount,
		}
		for _, c := range t.Cells {
			rowSpan := c.RowSpan
			if rowSpan == 0 {
				rowSpan = 1
			}
			colSpan := c.ColumnSpan
			if colSpan == 0 {
				colSpan = 1
			}
			table.Cells = append(table.Cells, domain.OcrTableCell{
				RowIndex:    c.RowIndex + 1,
				ColumnIndex: c.ColumnIndex + 1,
				RowSpan:     rowSpan,
				ColumnSpan:  colSpan,
				Text:        c.Content,
				IsHeader:    c.Kind == "columnHeader",
			})
		}
		result.Tables = append(result.Tables, table)
		for i := range result.Pages {
			if result.Pages[i].PageNumber == pageNum {
				result.Pages[i].Tables = append(result.Pages[i].Tables, table)
			}
		}
	}

	for _, kv := range ar.KeyValuePairs {
		if kv.Key == nil || kv.Key.Content == "" {
			continue
		}
		pair := domain.KeyValuePair{
			Key:        kv.Key.Content,
			Confidence: kv.Confidence,
		}
		if kv.Value != nil {
			pair.Value = kv.Value.Content
		}
		result.KeyValuePairs = append(result.KeyValuePairs, pair)
	}

	if result.WordCount > 0 {
		result.OverallConfidence = confidenceSum / float64(result.WordCount)
	}

	return result
}

// polygonToBoundingBox reduces a polygon to its axis-aligned bounding box,
// normalized to the page dimensions.
func polygonToBoundingBox(polygon []float64, pageWidth, pageHeight float64) domain.BoundingBox {
	if len(polygon) < 4 || pageWidth <= 0 || pageHeight <= 0 {
		return domain.BoundingBox{}
	}

	minX, minY := polygon[0], polygon[1]
	maxX, maxY := minX, minY
	for i := 2; i+1 < len(polygon); i += 2 {
		x, y := polygon[i], polygon[i+1]
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}
	}

	return domain.BoundingBox{
		Left:   minX / pageWidth,
		Top:    minY / pageHeight,
		Width:  (maxX - minX) / pageWidth,
		Height: (maxY - minY) / pageHeight,
	}
}
