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
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/go-tpm-fuzz/outcome"
	"github.com/segmentio/kafka-go"
)

// DefaultKafkaBatch is how many records KafkaSink buffers per write.
const DefaultKafkaBatch = 100

// kafkaCloseTimeout bounds the final flush in Close.
const kafkaCloseTimeout = 10 * time.Second

// messageWriter is the part of *kafka.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink streams records to a topic as JSON, keyed by iteration index.
type KafkaSink struct {
	ctx   context.Context
	w     messageWriter
	batch []kafka.Message
	size  int
}

// NewKafkaSink returns a sink publishing to topic on brokers.
func NewKafkaSink(ctx context.Context, brokers []string, topic string) *KafkaSink {
	return newKafkaSink(ctx, &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},
	}, DefaultKafkaBatch)
}

func newKafkaSink(ctx context.Context, w messageWriter, size int) *KafkaSink {
	return &KafkaSink{ctx: ctx, w: w, size: size}
}

// Emit implements Sink.
func (k *KafkaSink) Emit(r outcome.Record) error {
	b, err := sonic.ConfigStd.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding record %d: %w", r.Iteration, err)
	}
	k.batch = append(k.batch, kafka.Message{
		Key:   []byte(strconv.Itoa(r.Iteration)),
		Value: b,
	})
	if len(k.batch) >= k.size {
		return k.Flush()
	}
	return nil
}

// Flush publishes buffered records.
func (k *KafkaSink) Flush() error {
	return k.flush(k.ctx)
}

func (k *KafkaSink) flush(ctx context.Context) error {
	if len(k.batch) == 0 {
		return nil
	}
	if err := k.w.WriteMessages(ctx, k.batch...); err != nil {
		return fmt.Errorf("publishing %d records: %w", len(k.batch), err)
	}
	k.batch = k.batch[:0]
	return nil
}

// Close flushes and closes the writer. The final flush runs even when the
// sink's context is already cancelled, as after an interrupted run.
func (k *KafkaSink) Close() error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(k.ctx), kafkaCloseTimeout)
	defer cancel()
	ferr := k.flush(ctx)
	if err := k.w.Close(); ferr == nil {
		ferr = err
	}
	return ferr
}
