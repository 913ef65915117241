package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/google/uuid"

	"github.com/caredocs/docintel/internal/config"
	"github.com/caredocs/docintel/internal/domain"
	"github.com/caredocs/docintel/internal/logger"
)

const textractEngineVersion = "analyze-document-v1"

// TextractEngine runs OCR through AWS Textract. Images go through the
// synchronous AnalyzeDocument call; PDFs go through the asynchronous
// StartDocumentAnalysis flow, which requires a staging S3 bucket.
type TextractEngine struct {
	client        *textract.Client
	s3Client      *s3.Client
	stagingBucket string
	pollInterval  time.Duration
	maxPolls      int
	configured    bool
	log           *logger.Logger
}

// NewTextractEngine creates the Textract adapter.
func NewTextractEngine(cfg config.TextractConfig, log *logger.Logger) (*TextractEngine, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	maxPolls := cfg.MaxPolls
	if maxPolls <= 0 {
		maxPolls = 60
	}

	return &TextractEngine{
		client:        textract.NewFromConfig(awsCfg),
		s3Client:      s3.NewFromConfig(awsCfg),
		stagingBucket: cfg.StagingBucket,
		pollInterval:  pollInterval,
		maxPolls:      maxPolls,
		configured:    cfg.Region != "" && cfg.AccessKey != "" && cfg.SecretKey != "",
		log:           log.WithField(logger.FieldEngine, string(domain.OcrEngineTextract)),
	}, nil
}

func (e *TextractEngine) Name() domain.OcrEngine { return domain.OcrEngineTextract }

func (e *TextractEngine) IsAvailable() bool { return e.configured }

// Process dispatches to the sync or async Textract flow based on mime type.
func (e *TextractEngine) Process(ctx context.Context, content []byte, mimeType string, opts Options) (*domain.OcrResult, error) {
	if !e.configured {
		return nil, ErrEngineUnavailable
	}

	start := time.Now()

	var blocks []types.Block
	var err error
	if isPDF(mimeType) {
		blocks, err = e.analyzeAsync(ctx, content, opts)
	} else {
		blocks, err = e.analyzeSync(ctx, content, opts)
	}
	if err != nil {
		return nil, err
	}

	result := mapTextractBlocks(blocks)
	result.ProcessingTimeMs = time.Since(start).Milliseconds()

	e.log.WithFields(logger.Fields{
		logger.FieldDurationMs: result.ProcessingTimeMs,
		logger.FieldConfidence: result.OverallConfidence,
		"pages":                len(result.Pages),
		"tables":               len(result.Tables),
		"words":                result.WordCount,
	}).Info("textract analysis complete")

	return result, nil
}

func (e *TextractEngine) analyzeSync(ctx context.Context, content []byte, opts Options) ([]types.Block, error) {
	out, err := e.client.AnalyzeDocument(ctx, &textract.AnalyzeDocumentInput{
		Document:     &types.Document{Bytes: content},
		FeatureTypes: featureTypes(opts),
	})
	if err != nil {
		return nil, fmt.Errorf("textract AnalyzeDocument failed: %w", err)
	}
	return out.Blocks, nil
}

// analyzeAsync stages the PDF in S3, starts an async analysis job, polls for
// completion, and always removes the staged object afterwards.
func (e *TextractEngine) analyzeAsync(ctx context.Context, content []byte, opts Options) ([]types.Block, error) {
	if e.stagingBucket == "" {
		e.log.Warn("pdf input but no staging bucket configured")
		return nil, ErrEngineUnavailable
	}

	key := "staging/" + uuid.New().String() + ".pdf"
	_, err := e.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.stagingBucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to stage document for textract: %w", err)
	}
	defer func() {
		// Best-effort cleanup, detached from the request context so a
		// cancelled job does not leak the staged object.
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, derr := e.s3Client.DeleteObject(cleanupCtx, &s3.DeleteObjectInput{
			Bucket: aws.String(e.stagingBucket),
			Key:    aws.String(key),
		}); derr != nil {
			e.log.WithError(derr).WithField("key", key).Warn("failed to delete staged object")
		}
	}()

	startOut, err := e.client.StartDocumentAnalysis(ctx, &textract.StartDocumentAnalysisInput{
		DocumentLocation: &types.DocumentLocation{
			S3Object: &types.S3Object{
				Bucket: aws.String(e.stagingBucket),
				Name:   aws.String(key),
			},
		},
		FeatureTypes: featureTypes(opts),
	})
	if err != nil {
		return nil, fmt.Errorf("textract StartDocumentAnalysis failed: %w", err)
	}

	return e.pollAnalysis(ctx, aws.ToString(startOut.JobId))
}

func (e *TextractEngine) pollAnalysis(ctx context.Context, jobID string) ([]types.Block, error) {
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for poll := 0; poll < e.maxPolls; poll++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		out, err := e.client.GetDocumentAnalysis(ctx, &textract.GetDocumentAnalysisInput{
			JobId:      aws.String(jobID),
			MaxResults: aws.Int32(1000),
		})
		if err != nil {
			return nil, fmt.Errorf("textract GetDocumentAnalysis failed: %w", err)
		}

		switch out.JobStatus {
		case types.JobStatusInProgress:
			continue
		case types.JobStatusFailed:
			return nil, fmt.Errorf("textract job %s failed: %s", jobID, aws.ToString(out.StatusMessage))
		}

		// SUCCEEDED or PARTIAL_SUCCESS: page through remaining blocks.
		blocks := out.Blocks
		nextToken := out.NextToken
		for nextToken != nil {
			page, err := e.client.GetDocumentAnalysis(ctx, &textract.GetDocumentAnalysisInput{
				JobId:      aws.String(jobID),
				MaxResults: aws.Int32(1000),
				NextToken:  nextToken,
			})
			if err != nil {
				return nil, fmt.Errorf("textract result pagination failed: %w", err)
			}
			blocks = append(blocks, page.Blocks...)
			nextToken = page.NextToken
		}
		return blocks, nil
	}

	return nil, fmt.Errorf("textract job %s did not finish within %d polls", jobID, e.maxPolls)
}

func featureTypes(opts Options) []types.FeatureType {
	features := []types.FeatureType{}
	if opts.ExpectTables {
		features = append(features, types.FeatureTypeTables)
	}
	if opts.ExpectForms {
		features = append(features, types.FeatureTypeForms)
	}
	if len(features) == 0 {
		features = append(features, types.FeatureTypeTables, types.FeatureTypeForms)
	}
	return features
}

func isPDF(mimeType string) bool {
	return strings.EqualFold(mimeType, "application/pdf")
}

// mapTextractBlocks converts Textract's flat block graph into the normalized
// OcrResult shape. Confidences come back as 0-100 and are rescaled to 0-1.
func mapTextractBlocks(blocks []types.Block) *domain.OcrResult {
	byID := make(map[string]types.Block, len(blocks))
	for _, b := range blocks {
		byID[aws.ToString(b.Id)] = b
	}

	result := &domain.OcrResult{
		Engine:        domain.OcrEngineTextract,
		EngineVersion: textractEngineVersion,
	}

	pages := map[int]*domain.OcrPage{}
	var confidenceSum float64

	for _, b := range blocks {
		pageNum := int(aws.ToInt32(b.Page))
		if pageNum == 0 {
			pageNum = 1
		}
		page, ok := pages[pageNum]
		if !ok {
			page = &domain.OcrPage{PageNumber: pageNum}
			pages[pageNum] = page
		}

		switch b.BlockType {
		case types.BlockTypeLine:
			page.Blocks = append(page.Blocks, domain.OcrBlock{
				Type:        domain.BlockTypeLine,
				Text:        aws.ToString(b.Text),
				Confidence:  float64(aws.ToFloat32(b.Confidence)) / 100,
				BoundingBox: mapBoundingBox(b.Geometry),
			})
		case types.BlockTypeWord:
			result.WordCount++
			confidenceSum += float64(aws.ToFloat32(b.Confidence)) / 100
		case types.BlockTypeTable:
			table := mapTextractTable(b, byID, pageNum)
			page.Tables = append(page.Tables, table)
			result.Tables = append(result.Tables, table)
		case types.BlockTypeKeyValueSet:
			if kv, ok := mapTextractKeyValue(b, byID); ok {
				result.KeyValuePairs = append(result.KeyValuePairs, kv)
			}
		}
	}

	pageNums := make([]int, 0, len(pages))
	for n := range pages {
		pageNums = append(pageNums, n)
	}
	sort.Ints(pageNums)

	var textParts []string
	for _, n := range pageNums {
		page := pages[n]
		lines := make([]string, 0, len(page.Blocks))
		for _, blk := range page.Blocks {
			lines = append(lines, blk.Text)
		}
		page.Text = strings.Join(lines, "\n")
		textParts = append(textParts, page.Text)
		result.Pages = append(result.Pages, *page)
	}
	result.RawText = strings.Join(textParts, "\n\n")

	if result.WordCount > 0 {
		result.OverallConfidence = confidenceSum / float64(result.WordCount)
	}

	if raw, err := json.Marshal(blocks); err == nil {
		result.RawResponse = raw
	}

	return result
}

func mapTextractTable(table types.Block, byID map[string]types.Block, pageNum int) domain.OcrTable {
	out := domain.OcrTable{PageNumber: pageNum}

	for _, rel := range table.Relationships {
		if rel.Type != types.RelationshipTypeChild {
			continue
		}
		for _, id := range rel.Ids {
			cell, ok := byID[id]
			if !ok || cell.BlockType != types.BlockTypeCell {
				continue
			}

			mapped := domain.OcrTableCell{
				RowIndex:    int(aws.ToInt32(cell.RowIndex)),
				ColumnIndex: int(aws.ToInt32(cell.ColumnIndex)),
				RowSpan:     int(aws.ToInt32(cell.RowSpan)),
				ColumnSpan:  int(aws.ToInt32(cell.ColumnSpan)),
				Text:        collectChildText(cell, byID),
				Confidence:  float64(aws.ToFloat32(cell.Confidence)) / 100,
			}
			if mapped.RowSpan == 0 {
				mapped.RowSpan = 1
			}
			if mapped.ColumnSpan == 0 {
				mapped.ColumnSpan = 1
			}
			for _, et := range cell.EntityTypes {
				if et == types.EntityTypeColumnHeader {
					mapped.IsHeader = true
				}
			}

			out.Cells = append(out.Cells, mapped)
			if end := mapped.RowIndex + mapped.RowSpan - 1; end > out.RowCount {
				out.RowCount = end
			}
			if end := mapped.ColumnIndex + mapped.ColumnSpan - 1; end > out.ColumnCount {
				out.ColumnCount = end
			}
		}
	}

	return out
}

func mapTextractKeyValue(block types.Block, byID map[string]types.Block) (domain.KeyValuePair, bool) {
	isKey := false
	for _, et := range block.EntityTypes {
		if et == types.EntityTypeKey {
			isKey = true
		}
	}
	if !isKey {
		return domain.KeyValuePair{}, false
	}

	kv := domain.KeyValuePair{
		Key:        collectChildText(block, byID),
		Confidence: float64(aws.ToFloat32(block.Confidence)) / 100,
	}

	for _, rel := range block.Relationships {
		if rel.Type != types.RelationshipTypeValue {
			continue
		}
		for _, id := range rel.Ids {
			if valueBlock, ok := byID[id]; ok {
				kv.Value = collectChildText(valueBlock, byID)
			}
		}
	}

	return kv, kv.Key != ""
}

func collectChildText(block types.Block, byID map[string]types.Block) string {
	var words []string
	for _, rel := range block.Relationships {
		if rel.Type != types.RelationshipTypeChild {
			continue
		}
		for _, id := range rel.Ids {
			child, ok := byID[id]
			if !ok {
				continue
			}
			switch child.BlockType {
			case types.BlockTypeWord:
				words = append(words, aws.ToString(child.Text))
			case types.BlockTypeSelectionElement:
				if child.SelectionStatus == types.SelectionStatusSelected {
					words = append(words, "[X]")
				}
			}
		}
	}
	return strings.Join(words, " ")
}

func mapBoundingBox(geom *types.Geometry) domain.BoundingBox {
	if geom == nil || geom.BoundingBox == nil {
		return domain.BoundingBox{}
	}
	return domain.BoundingBox{
		Left:   float64(geom.BoundingBox.Left),
		Top:    float64(geom.BoundingBox.Top),
		Width:  float64(geom.BoundingBox.Width),
		Height: float64(geom.BoundingBox.Height),
	}
}
