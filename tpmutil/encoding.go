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

// Package tpmutil provides the big-endian wire helpers and raw device access
// shared by the command codec and the TPM transports.
package tpmutil

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"reflect"
)

var (
	selfMarshalerType = reflect.TypeOf((*SelfMarshaler)(nil)).Elem()
	rawBytesType      = reflect.TypeOf(RawBytes(nil))
)

// Pack encodes a set of elements into a single byte array, using
// encoding/binary under binary.BigEndian. Types implementing SelfMarshaler
// encode themselves; RawBytes are copied through unchanged.
func Pack(elts ...interface{}) ([]byte, error) {
	buf := new(bytes.Buffer)
	for _, e := range elts {
		if err := packValue(buf, reflect.ValueOf(e)); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// tryMarshal attempts to use a TPMMarshal() method defined on the type to
// pack v into buf. True is returned if the method exists and the marshal was
// attempted.
func tryMarshal(buf io.Writer, v reflect.Value) (bool, error) {
	t := v.Type()
	if t.Implements(selfMarshalerType) {
		return true, v.Interface().(SelfMarshaler).TPMMarshal(buf)
	}

	// A non-pointer value whose pointer type implements the interface, as
	// with U8Bytes passed by value.
	if reflect.PtrTo(t).Implements(selfMarshalerType) {
		tmp := reflect.New(t)
		tmp.Elem().Set(v)
		return true, tmp.Interface().(SelfMarshaler).TPMMarshal(buf)
	}

	return false, nil
}

func packValue(buf io.Writer, v reflect.Value) error {
	if !v.IsValid() {
		return errors.New("cannot pack nil interface")
	}
	if canMarshal, err := tryMarshal(buf, v); canMarshal {
		return err
	}

	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			return fmt.Errorf("cannot pack nil %s", v.Type().String())
		}
		return packValue(buf, v.Elem())
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if err := packValue(buf, v.Field(i)); err != nil {
				return err
			}
		}
		return nil
	}
	if v.Type() == rawBytesType {
		_, err := buf.Write(v.Bytes())
		return err
	}
	return binary.Write(buf, binary.BigEndian, v.Interface())
}

// tryUnmarshal attempts to use TPMUnmarshal() to perform the unpack, if the
// given value implements SelfMarshaler.
func tryUnmarshal(buf io.Reader, v reflect.Value) (bool, error) {
	t := v.Type()
	if t.Implements(selfMarshalerType) {
		return true, v.Interface().(SelfMarshaler).TPMUnmarshal(buf)
	}

	if v.CanSet() && reflect.PtrTo(t).Implements(selfMarshalerType) {
		tmp := reflect.New(t)
		if err := tmp.Interface().(SelfMarshaler).TPMUnmarshal(buf); err != nil {
			return true, err
		}
		v.Set(tmp.Elem())
		return true, nil
	}

	return false, nil
}

// Unpack is a convenience wrapper around UnpackBuf. Unpack returns the number
// of bytes read from b to fill elts and error, if any.
func Unpack(b []byte, elts ...interface{}) (int, error) {
	buf := bytes.NewBuffer(b)
	err := UnpackBuf(buf, elts...)
	read := len(b) - buf.Len()
	return read, err
}

func unpackValue(buf io.Reader, v reflect.Value) error {
	if didUnmarshal, err := tryUnmarshal(buf, v); didUnmarshal {
		return err
	}

	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			return fmt.Errorf("cannot unpack into nil %s", v.Type().String())
		}
		return unpackValue(buf, v.Elem())
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if err := unpackValue(buf, v.Field(i)); err != nil {
				return err
			}
		}
		return nil
	}

	// binary.Read can only set pointer values, so we need to take the address.
	if !v.CanAddr() {
		return fmt.Errorf("cannot unpack unaddressable leaf type %q", v.Type().String())
	}
	return binary.Read(buf, binary.BigEndian, v.Addr().Interface())
}

// UnpackBuf recursively unpacks types from a reader just as encoding/binary
// does under binary.BigEndian. It assumes that incoming values are pointers
// to values so that, e.g., U8Bytes can be resized as needed.
func UnpackBuf(buf io.Reader, elts ...interface{}) error {
	for _, e := range elts {
		v := reflect.ValueOf(e)
		if !v.IsValid() || v.Kind() != reflect.Ptr {
			return fmt.Errorf("non-pointer value %v passed to UnpackBuf", e)
		}
		if v.IsNil() {
			return errors.New("nil pointer passed to UnpackBuf")
		}

		if err := unpackValue(buf, v); err != nil {
			return err
		}
	}
	return nil
}
