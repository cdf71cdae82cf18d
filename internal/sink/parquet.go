package sink

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

// recordSchema is the self-describing output schema: integer index plus the
// serialized audio and token payloads.
var recordSchema = []string{
	"name=index, type=INT64, repetitiontype=REQUIRED",
	"name=audio, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=REQUIRED",
	"name=tokens, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=REQUIRED",
}

type parquetSink struct {
	path string
	fw   source.ParquetFile
	pw   *writer.CSVWriter
}

func newParquetSink(dir string, workerID int) (*parquetSink, error) {
	path := filepath.Join(dir, fmt.Sprintf("audio_tokens_%d.parquet", workerID))
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return nil, fmt.Errorf("create parquet file %s: %w", path, err)
	}
	pw, err := writer.NewCSVWriter(recordSchema, fw, 4)
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("create parquet writer %s: %w", path, err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	return &parquetSink{path: path, fw: fw, pw: pw}, nil
}

func (s *parquetSink) AppendBatch(records []Record) error {
	for _, rec := range records {
		idx := strconv.FormatInt(rec.Index, 10)
		audio := rec.Audio
		tokens := rec.Tokens
		row := []*string{&idx, &audio, &tokens}
		if err := s.pw.WriteString(row); err != nil {
			return fmt.Errorf("write record %d to %s: %w", rec.Index, s.path, err)
		}
	}
	// Row groups are only durable once written through; push the batch out
	// so a later crash cannot take flushed records with it.
	if err := s.pw.Flush(true); err != nil {
		return fmt.Errorf("flush parquet %s: %w", s.path, err)
	}
	return nil
}

func (s *parquetSink) Close() error {
	var errs []error
	if err := s.pw.WriteStop(); err != nil {
		errs = append(errs, fmt.Errorf("stop parquet writer %s: %w", s.path, err))
	}
	if err := s.fw.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close parquet file %s: %w", s.path, err))
	}
	return errors.Join(errs...)
}
