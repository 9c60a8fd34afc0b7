package services

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"season-engine/internal/models"
	"season-engine/internal/repository"
	"season-engine/pkg/logging"
	"season-engine/pkg/metrics"
)

// IngestionService handles bulk loading of historical temperature
// sample files into the sample store.
type IngestionService struct {
	repo    repository.SeasonRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// IngestionResult contains ingestion statistics
type IngestionResult struct {
	TotalFiles        int
	TotalRecords      int
	SuccessfulRecords int
	MissingRecords    int
	FailedRecords     int
	Duration          time.Duration
	Errors            []string
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(repo repository.SeasonRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *IngestionService {
	return &IngestionService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// IngestDirectory ingests all sample files from a directory for one sensor
func (s *IngestionService) IngestDirectory(ctx context.Context, dataDir, sensorID string, batchSize int) (*IngestionResult, error) {
	startTime := time.Now()

	s.logger.Info(ctx, "[INGEST_START] Starting sample ingestion", logging.Fields{
		"data_dir":   dataDir,
		"sensor_id":  sensorID,
		"batch_size": batchSize,
	})

	result := &IngestionResult{
		Errors: make([]string, 0),
	}

	files, err := filepath.Glob(filepath.Join(dataDir, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no sample files found in %s", dataDir)
	}

	result.TotalFiles = len(files)

	for _, filePath := range files {
		fileResult, err := s.ingestFile(ctx, filePath, sensorID, batchSize)
		if err != nil {
			errMsg := fmt.Sprintf("failed to ingest %s: %v", filePath, err)
			result.Errors = append(result.Errors, errMsg)
			s.logger.Error(ctx, "[INGEST_FILE_ERROR] File ingestion failed", logging.Fields{
				"file_path": filePath,
			}, err)
			s.metrics.RecordIngestionError("file_error")
			continue
		}

		result.TotalRecords += fileResult.TotalRecords
		result.SuccessfulRecords += fileResult.SuccessfulRecords
		result.MissingRecords += fileResult.MissingRecords
		result.FailedRecords += fileResult.FailedRecords

		s.logger.Info(ctx, "[INGEST_FILE_SUCCESS] File ingested", logging.Fields{
			"file_path":          filePath,
			"total_records":      fileResult.TotalRecords,
			"successful_records": fileResult.SuccessfulRecords,
			"missing_records":    fileResult.MissingRecords,
			"failed_records":     fileResult.FailedRecords,
		})
	}

	result.Duration = time.Since(startTime)

	s.logger.Info(ctx, "[INGEST_COMPLETE] Sample ingestion completed", logging.Fields{
		"total_files":        result.TotalFiles,
		"total_records":      result.TotalRecords,
		"successful_records": result.SuccessfulRecords,
		"missing_records":    result.MissingRecords,
		"failed_records":     result.FailedRecords,
		"duration_seconds":   result.Duration.Seconds(),
		"error_count":        len(result.Errors),
	})

	return result, nil
}

// FileIngestionResult contains per-file ingestion statistics
type FileIngestionResult struct {
	TotalRecords      int
	SuccessfulRecords int
	MissingRecords    int
	FailedRecords     int
}

// ingestFile ingests a single sample file
func (s *IngestionService) ingestFile(ctx context.Context, filePath, sensorID string, batchSize int) (*FileIngestionResult, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	result := &FileIngestionResult{}
	batch := make([]*models.TemperatureSample, 0, batchSize)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		result.TotalRecords++

		record, err := s.parseLine(scanner.Text())
		if err != nil {
			result.FailedRecords++
			s.metrics.RecordIngestionError("parse_error")
			continue
		}

		sample, err := record.ToSample(sensorID)
		if err != nil {
			result.FailedRecords++
			s.metrics.RecordIngestionError("conversion_error")
			continue
		}
		if sample == nil {
			// Sentinel value: the reading is missing, not malformed.
			result.MissingRecords++
			continue
		}

		batch = append(batch, sample)

		if len(batch) >= batchSize {
			if err := s.repo.CreateSamplesBatch(ctx, batch); err != nil {
				return nil, fmt.Errorf("failed to insert batch: %w", err)
			}
			result.SuccessfulRecords += len(batch)
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := s.repo.CreateSamplesBatch(ctx, batch); err != nil {
			return nil, fmt.Errorf("failed to insert final batch: %w", err)
		}
		result.SuccessfulRecords += len(batch)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	return result, nil
}

// parseLine parses a single line from a sample file
// Format: RFC3339_TIMESTAMP\tTEMP_TENTHS
func (s *IngestionService) parseLine(line string) (*models.RawSampleRecord, error) {
	parts := strings.Split(line, "\t")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid line format: expected 2 fields, got %d", len(parts))
	}

	tenths, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, fmt.Errorf("invalid temperature: %w", err)
	}

	return &models.RawSampleRecord{
		Timestamp:         strings.TrimSpace(parts[0]),
		TemperatureTenths: tenths,
	}, nil
}
