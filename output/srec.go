package output

import (
	"fmt"
	"strings"

	"six09asm/section"
)

func srecChecksum(bytes_ ...byte) byte {
	var sum byte
	for _, b := range bytes_ {
		sum += b
	}
	return ^sum
}

func srecLine(kind byte, fields ...byte) string {
	count := byte(len(fields) + 1) // +1 for the checksum byte itself
	all := append([]byte{count}, fields...)
	cksum := srecChecksum(all...)
	var sb strings.Builder
	fmt.Fprintf(&sb, "S%c%02X", kind, count)
	for _, f := range all[1:] {
		fmt.Fprintf(&sb, "%02X", f)
	}
	fmt.Fprintf(&sb, "%02X\n", cksum)
	return sb.String()
}

// writeSRecord emits one S1 record per span (16-bit address, up to 32
// data bytes per record) followed by an S9 termination record carrying
// the execution address (defaulting to 0 when none was given).
func writeSRecord(spans []*section.Span, exec ExecAddr) ([]byte, error) {
	var sb strings.Builder
	const maxPerRecord = 32
	for _, sp := range spans {
		addr := sp.Put
		data := sp.Data
		for len(data) > 0 {
			n := len(data)
			if n > maxPerRecord {
				n = maxPerRecord
			}
			chunk := data[:n]
			fields := make([]byte, 0, 2+n)
			fields = append(fields, byte(addr>>8), byte(addr))
			fields = append(fields, chunk...)
			sb.WriteString(srecLine('1', fields...))
			addr += int64(n)
			data = data[n:]
		}
	}
	execAddr := int64(0)
	if exec.Set {
		execAddr = exec.Value
	}
	sb.WriteString(srecLine('9', byte(execAddr>>8), byte(execAddr)))
	return []byte(sb.String()), nil
}
