// Package output implements the five object-file formats of §6: flat
// binary, DragonDOS, CoCo segmented binary, Motorola S-record, and Intel
// HEX, each bit-exact against the reference implementation.
//
// Grounded on original_source/src/output.c.
package output

import (
	"bytes"
	"fmt"

	"six09asm/section"
)

// Format names one of the five output encodings.
type Format int

const (
	Binary Format = iota
	DragonDOS
	CoCo
	SRecord
	IntelHex
)

// ExecAddr is an optional execution address; Set is false when the CLI
// did not supply one.
type ExecAddr struct {
	Value int64
	Set   bool
}

// Write renders spans (already produced by section.Map.CoalesceAll, with
// the pad flag each format requires) in the given format.
func Write(format Format, spans []*section.Span, exec ExecAddr) ([]byte, error) {
	switch format {
	case Binary:
		return writeBinary(spans, exec)
	case DragonDOS:
		return writeDragonDOS(spans, exec)
	case CoCo:
		return writeCoCo(spans, exec)
	case SRecord:
		return writeSRecord(spans, exec)
	case IntelHex:
		return writeIntelHex(spans, exec)
	}
	return nil, fmt.Errorf("unknown output format %d", format)
}

// RequiresPadding reports whether a format needs section.Map.CoalesceAll
// called with pad=true (binary/DragonDOS expect one contiguous image)
// versus pad=false (CoCo/S-record/Intel HEX emit one record per span and
// tolerate gaps).
func RequiresPadding(format Format) bool {
	return format == Binary || format == DragonDOS
}

func writeBinary(spans []*section.Span, exec ExecAddr) ([]byte, error) {
	if exec.Set {
		return nil, fmt.Errorf("binary output does not support an execution address")
	}
	if len(spans) == 0 {
		return nil, nil
	}
	if len(spans) != 1 {
		return nil, fmt.Errorf("internal: binary output expects exactly one coalesced span, got %d", len(spans))
	}
	return append([]byte(nil), spans[0].Data...), nil
}

func be16(v int64) (hi, lo byte) { return byte(v >> 8), byte(v) }

func writeDragonDOS(spans []*section.Span, exec ExecAddr) ([]byte, error) {
	if len(spans) == 0 {
		return nil, fmt.Errorf("no data to output")
	}
	if len(spans) != 1 {
		return nil, fmt.Errorf("internal: dragondos output expects exactly one coalesced span, got %d", len(spans))
	}
	sp := spans[0]
	put := sp.Put
	size := int64(len(sp.Data))
	execAddr := put
	if exec.Set {
		execAddr = exec.Value
	}
	var buf bytes.Buffer
	buf.WriteByte(0x55)
	buf.WriteByte(0x02)
	ph, pl := be16(put)
	buf.WriteByte(ph)
	buf.WriteByte(pl)
	sh, sl := be16(size)
	buf.WriteByte(sh)
	buf.WriteByte(sl)
	eh, el := be16(execAddr)
	buf.WriteByte(eh)
	buf.WriteByte(el)
	buf.WriteByte(0xAA)
	buf.Write(sp.Data)
	return buf.Bytes(), nil
}

func writeCoCo(spans []*section.Span, exec ExecAddr) ([]byte, error) {
	var buf bytes.Buffer
	for _, sp := range spans {
		buf.WriteByte(0x00)
		sh, sl := be16(int64(len(sp.Data)))
		buf.WriteByte(sh)
		buf.WriteByte(sl)
		ph, pl := be16(sp.Put)
		buf.WriteByte(ph)
		buf.WriteByte(pl)
		buf.Write(sp.Data)
	}
	if exec.Set {
		buf.WriteByte(0xFF)
		buf.WriteByte(0x00)
		buf.WriteByte(0x00)
		eh, el := be16(exec.Value)
		buf.WriteByte(eh)
		buf.WriteByte(el)
	}
	return buf.Bytes(), nil
}
