// Copyright (c) 2026, Google LLC All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/go-tpm-fuzz/outcome"
)

var csvHeader = []string{"Iteration", "Timestamp", "Result", "Error"}

// CSVWriter logs one row per record.
type CSVWriter struct {
	w      *csv.Writer
	closer io.Closer
}

// NewCSVWriter writes the header row to w and returns a writer for records.
// If w is an io.Closer, Close closes it.
func NewCSVWriter(w io.Writer) (*CSVWriter, error) {
	cw := &CSVWriter{w: csv.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		cw.closer = c
	}
	if err := cw.w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("writing CSV header: %w", err)
	}
	return cw, nil
}

// Emit implements Sink.
func (c *CSVWriter) Emit(r outcome.Record) error {
	return c.w.Write([]string{
		strconv.Itoa(r.Iteration),
		r.TimestampString(),
		r.Class.String(),
		r.Detail,
	})
}

// Close flushes buffered rows and closes the underlying writer.
func (c *CSVWriter) Close() error {
	c.w.Flush()
	err := c.w.Error()
	if c.closer != nil {
		if cerr := c.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// ReadCSV reads back a log written by CSVWriter.
func ReadCSV(r io.Reader) ([]outcome.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty record log")
	}
	if err != nil {
		return nil, err
	}
	for i, name := range csvHeader {
		if header[i] != name {
			return nil, fmt.Errorf("unexpected column %q, want %q", header[i], name)
		}
	}

	var records []outcome.Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		iter, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: iteration: %w", len(records)+1, err)
		}
		ts, err := time.Parse(time.RFC3339Nano, row[1])
		if err != nil {
			return nil, fmt.Errorf("row %d: timestamp: %w", len(records)+1, err)
		}
		class, err := outcome.ParseClass(row[2])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", len(records)+1, err)
		}
		records = append(records, outcome.Record{Iteration: iter, Timestamp: ts, Class: class, Detail: row[3]})
	}
}
