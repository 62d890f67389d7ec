package godb

//This file defines methods for working with tuples, including defining
// the types DBType, FieldType, TupleDesc, DBValue, and Tuple

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// DBType is the type of a tuple field, in GoDB, e.g., IntType or StringType
type DBType int

const (
	IntType     DBType = iota
	StringType  DBType = iota
	UnknownType DBType = iota //used internally, during parsing, because sometimes the type is unknown
)

func (t DBType) String() string {
	switch t {
	case IntType:
		return "int"
	case StringType:
		return "string"
	}
	return "unknown"
}

// FieldType is the type of a field in a tuple, e.g., its name, table, and [godb.DBType].
// TableQualifier may or may not be an emtpy string, depending on whether the table
// was specified in the query
type FieldType struct {
	Fname          string
	TableQualifier string
	Ftype          DBType
}

// TupleDesc is "type" of the tuple, e.g., the field names and types
type TupleDesc struct {
	Fields []FieldType
}

// fieldSizeBytes returns the fixed on-disk width of a single field of type
// t: 4 bytes for an integer, or 4 (length prefix) + StringLength for a
// string.
func fieldSizeBytes(t DBType) int {
	if t == StringType {
		return 4 + StringLength
	}
	return 4
}

// bytesPerTuple returns the fixed on-disk size of a tuple with this
// TupleDesc: the sum of its fields' sizes.
func (td *TupleDesc) bytesPerTuple() int {
	size := 0
	for _, f := range td.Fields {
		size += fieldSizeBytes(f.Ftype)
	}
	return size
}

// Given a FieldType f and a TupleDesc desc, find the best
// matching field in desc for f.  A match is defined as
// having the same Ftype and the same name, preferring a match
// with the same TableQualifier if f has a TableQualifier
// We have provided this implementation because it's details are
// idiosyncratic to the behavior of the parser, which we are not
// asking you to write
func findFieldInTd(field FieldType, desc *TupleDesc) (int, error) {
	best := -1
	for i, f := range desc.Fields {
		if f.Fname == field.Fname && (f.Ftype == field.Ftype || field.Ftype == UnknownType) {
			if field.TableQualifier == "" && best != -1 {
				return 0, GoDBError{AmbiguousNameError, fmt.Sprintf("select name %s is ambiguous", f.Fname)}
			}
			if f.TableQualifier == field.TableQualifier || best == -1 {
				best = i
			}
		}
	}
	if best != -1 {
		return best, nil
	}
	return -1, GoDBError{IncompatibleTypesError, fmt.Sprintf("field %s.%s not found", field.TableQualifier, field.Fname)}

}

// Make a copy of a tuple desc.  Note that in go, assignment of a slice to
// another slice object does not make a copy of the contents of the slice.
// Look at the built-in function "copy".
func (td *TupleDesc) copy() *TupleDesc {
	tuple_copy := make([]FieldType, len(td.Fields))
	copy(tuple_copy, td.Fields)
	copy := &TupleDesc{Fields: tuple_copy}
	return copy
}

// Assign the TableQualifier of every field in the TupleDesc to be the
// supplied alias. SeqScan uses this to tag its output schema with the
// scan's table alias.
func (td *TupleDesc) setTableAlias(alias string) {
	fields := make([]FieldType, len(td.Fields))
	copy(fields, td.Fields)
	for i := range fields {
		fields[i].TableQualifier = alias
	}
	td.Fields = fields
}

// Merge two TupleDescs together.  The resulting TupleDesc
// should consist of the fields of desc2
// appended onto the fields of desc.
func (desc *TupleDesc) merge(desc2 *TupleDesc) *TupleDesc {
	return &TupleDesc{Fields: append(desc.Fields, desc2.Fields...)}
}

// ================== Tuple Methods ======================

// Interface for tuple field values
type DBValue interface {
	EvalPred(v DBValue, op BoolOp) bool
}

// Integer field value
type IntField struct {
	Value int64
}

// String field value
type StringField struct {
	Value string
}

// Tuple represents the contents of a tuple read from a database
// It includes the tuple descriptor, and the value of the fields
type Tuple struct {
	Desc   TupleDesc
	Fields []DBValue
	Rid    *RecordID // set once the tuple is placed on a page; nil otherwise
}

// Serialize the contents of the tuple into a byte array. All tuples of a
// given TupleDesc are fixed size, so this simply writes the fields in
// sequential order into the supplied buffer.
//
// Per the on-disk format (see heap_page.go), integers are 4-byte big-endian
// values and strings are a 4-byte big-endian length prefix followed by
// StringLength zero-padded bytes, for a fixed field width of 4+StringLength.
// Values out of int32 range are rejected rather than silently truncated.
//
// Returns an error if an integer field is out of int32 range or a field has
// an unsupported type.

func writeStringField(b *bytes.Buffer, strField StringField) error {
	raw := []byte(strField.Value)
	if len(raw) > StringLength {
		raw = raw[:StringLength]
	}
	if err := binary.Write(b, binary.BigEndian, int32(len(raw))); err != nil {
		return err
	}
	padded := make([]byte, StringLength)
	copy(padded, raw)
	return binary.Write(b, binary.BigEndian, padded)
}

func writeIntField(b *bytes.Buffer, intField IntField) error {
	if intField.Value > math.MaxInt32 || intField.Value < math.MinInt32 {
		return GoDBError{TypeMismatchError, fmt.Sprintf("value %d out of range for 32-bit integer field", intField.Value)}
	}
	return binary.Write(b, binary.BigEndian, int32(intField.Value))
}

func (t *Tuple) writeTo(b *bytes.Buffer) error {
	for _, field := range t.Fields {
		switch v := field.(type) {
		case StringField:
			if err := writeStringField(b, v); err != nil {
				return err
			}
		case IntField:
			if err := writeIntField(b, v); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported field type: %T", field)
		}
	}
	return nil
}

// Read the contents of a tuple with the specified [TupleDesc] from the
// specified buffer, returning a Tuple. Inverse of writeStringField /
// writeIntField; see those for the wire format.
//
// May return an error if the buffer has insufficient data to deserialize
// the tuple.
func readStringField(b *bytes.Buffer) (StringField, error) {
	var length int32
	if err := binary.Read(b, binary.BigEndian, &length); err != nil {
		return StringField{}, err
	}
	raw := make([]byte, StringLength)
	if err := binary.Read(b, binary.BigEndian, raw); err != nil {
		return StringField{}, err
	}
	if length < 0 || int(length) > StringLength {
		return StringField{}, GoDBError{MalformedDataError, fmt.Sprintf("invalid string length prefix %d", length)}
	}
	return StringField{Value: strings.TrimRight(string(raw[:length]), "\x00")}, nil
}

func readIntField(b *bytes.Buffer) (IntField, error) {
	var v int32
	if err := binary.Read(b, binary.BigEndian, &v); err != nil {
		return IntField{}, err
	}
	return IntField{Value: int64(v)}, nil
}

func readTupleFrom(b *bytes.Buffer, desc *TupleDesc) (*Tuple, error) {
	tuple := &Tuple{Desc: *desc}

	for _, fieldDesc := range desc.Fields {
		switch fieldDesc.Ftype {
		case 1:
			strField, err := readStringField(b)
			if err != nil {
				return nil, err
			}
			tuple.Fields = append(tuple.Fields, strField)
		default:
			intField, err := readIntField(b)
			if err != nil {
				return nil, err
			}
			tuple.Fields = append(tuple.Fields, intField)
		}
	}
	return tuple, nil
}

// Merge two tuples together, producing a new tuple with the fields of t2
// appended to t1. The new tuple should have a correct TupleDesc that is created
// by merging the descriptions of the two input tuples.
func joinTuples(t1 *Tuple, t2 *Tuple) *Tuple {
	if t1 == nil {
		return t2
	}
	if t2 == nil {
		return t1
	}
	mergedTupleDesc := TupleDesc{
		Fields: append(t1.Desc.Fields, t2.Desc.Fields...),
	}
	return &Tuple{
		Desc:   mergedTupleDesc,
		Fields: append(t1.Fields, t2.Fields...),
	}
}

