package marc

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

const (
	recordTerminator   = 0x1d
	fieldTerminator    = 0x1e
	subfieldDelimiter  = 0x1f
	leaderLength       = 24
	directoryEntrySize = 12
)

// Reader iterates over binary (ISO 2709) MARC records.
type Reader struct {
	scanner *bufio.Scanner
	current *Record
	count   int
	err     error
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	// a MARC record is at most 99999 bytes
	scanner.Buffer(make([]byte, 0, 64*1024), 100000)
	scanner.Split(splitRecords)
	return &Reader{scanner: scanner}
}

// Next advances to the next record. It returns false at end of input or on
// the first error, which is then available from Err.
func (r *Reader) Next() bool {
	if r.err != nil {
		return false
	}
	for r.scanner.Scan() {
		data := bytes.TrimLeft(r.scanner.Bytes(), "\r\n")
		if len(data) == 0 {
			continue
		}
		r.count++
		rec, err := decodeRecord(data)
		if err != nil {
			r.err = fmt.Errorf("record %d: %w", r.count, err)
			return false
		}
		r.current = rec
		return true
	}
	r.err = r.scanner.Err()
	return false
}

// Record returns the record read by the last call to Next.
func (r *Reader) Record() *Record {
	return r.current
}

// Err returns the first error encountered.
func (r *Reader) Err() error {
	return r.err
}

// ReadAll decodes every record from r.
func ReadAll(r io.Reader) ([]*Record, error) {
	reader := NewReader(r)
	var records []*Record
	for reader.Next() {
		records = append(records, reader.Record())
	}
	return records, reader.Err()
}

func splitRecords(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, recordTerminator); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func decodeRecord(data []byte) (*Record, error) {
	if len(data) < leaderLength {
		return nil, errors.New("record shorter than leader")
	}
	rec := NewRecord(string(data[:leaderLength]))

	base, err := strconv.Atoi(string(data[12:17]))
	if err != nil || base <= leaderLength || base > len(data) {
		return nil, fmt.Errorf("invalid base address of data %q", data[12:17])
	}
	directory := data[leaderLength : base-1]
	body := data[base:]

	for len(directory) >= directoryEntrySize {
		tag := string(directory[:3])
		length, err := strconv.Atoi(string(directory[3:7]))
		if err != nil {
			return nil, fmt.Errorf("invalid length for field %s", tag)
		}
		start, err := strconv.Atoi(string(directory[7:12]))
		if err != nil {
			return nil, fmt.Errorf("invalid start position for field %s", tag)
		}
		if start < 0 || length < 1 || start+length > len(body) {
			return nil, fmt.Errorf("field %s runs past end of record", tag)
		}
		// length includes the field terminator
		raw := body[start : start+length-1]
		directory = directory[directoryEntrySize:]

		if IsControlTag(tag) {
			rec.AddControlField(tag, string(raw))
			continue
		}
		rec.AddField(decodeDataField(tag, raw))
	}

	return rec, nil
}

func decodeDataField(tag string, raw []byte) Field {
	indicators := "  "
	if len(raw) >= 2 {
		indicators = string(raw[:2])
		raw = raw[2:]
	}
	field := NewField(tag, indicators)
	for _, chunk := range bytes.Split(raw, []byte{subfieldDelimiter}) {
		if len(chunk) == 0 {
			continue
		}
		field.Subfields = append(field.Subfields, Subfield{
			Code:  string(chunk[:1]),
			Value: string(chunk[1:]),
		})
	}
	return field
}

// Encode serializes rec to ISO 2709. The leader's length and base address
// positions are recomputed.
func Encode(rec *Record) []byte {
	var directory, body bytes.Buffer

	appendEntry := func(tag string, data []byte) {
		fmt.Fprintf(&directory, "%s%04d%05d", tag, len(data)+1, body.Len())
		body.Write(data)
		body.WriteByte(fieldTerminator)
	}

	for _, cf := range rec.controls {
		appendEntry(cf.tag, []byte(cf.value))
	}
	for _, f := range rec.fields {
		var data bytes.Buffer
		data.WriteString((f.Indicator1 + " ")[:1])
		data.WriteString((f.Indicator2 + " ")[:1])
		for _, sf := range f.Subfields {
			data.WriteByte(subfieldDelimiter)
			data.WriteString(sf.Code)
			data.WriteString(sf.Value)
		}
		appendEntry(f.Tag, data.Bytes())
	}
	directory.WriteByte(fieldTerminator)

	leader := []byte(rec.leader)
	if len(leader) < leaderLength {
		leader = append(leader, bytes.Repeat([]byte(" "), leaderLength-len(leader))...)
	}
	leader = leader[:leaderLength]
	base := leaderLength + directory.Len()
	total := base + body.Len() + 1
	copy(leader[0:5], fmt.Sprintf("%05d", total))
	copy(leader[12:17], fmt.Sprintf("%05d", base))

	var out bytes.Buffer
	out.Write(leader)
	out.Write(directory.Bytes())
	out.Write(body.Bytes())
	out.WriteByte(recordTerminator)
	return out.Bytes()
}
