package state

import (
	"bytes"
	"encoding/binary"

	"github.com/btcsuite/btcd/wire"
)

func seqBytes(seq uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, seq)
	return buf
}

func seqFromBytes(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

// encodeBlockHeader writes header's 80-byte wire encoding into buf.
func encodeBlockHeader(buf *[80]byte, header wire.BlockHeader) error {
	var out bytes.Buffer
	if err := header.Serialize(&out); err != nil {
		return err
	}
	copy(buf[:], out.Bytes())
	return nil
}

func decodeBlockHeader(b []byte) (*wire.BlockHeader, error) {
	var hdr wire.BlockHeader
	if err := hdr.Deserialize(bytes.NewReader(b)); err != nil {
		return nil, err
	}
	return &hdr, nil
}
