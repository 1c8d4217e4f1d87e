package misc

import (
	"github.com/klauspost/compress/zstd"
	"sync"
)

var zstdEncPool = sync.Pool{
	New: func() any {
		enc, _ := zstd.NewWriter(nil)
		return enc
	},
}

var zstdDecPool = sync.Pool{
	New: func() any {
		dec, _ := zstd.NewReader(nil)
		return dec
	},
}

func Compress(data []byte) ([]byte, error) {
	enc, ok := zstdEncPool.Get().(*zstd.Encoder)
	if !ok || enc == nil {
		var err error
		if enc, err = zstd.NewWriter(nil); err != nil {
			return nil, err
		}
	}
	defer zstdEncPool.Put(enc)

	return enc.EncodeAll(data, make([]byte, 0, len(data)/4)), nil
}

func Decompress(data []byte) ([]byte, error) {
	dec, ok := zstdDecPool.Get().(*zstd.Decoder)
	if !ok || dec == nil {
		var err error
		if dec, err = zstd.NewReader(nil); err != nil {
			return nil, err
		}
	}
	defer zstdDecPool.Put(dec)

	return dec.DecodeAll(data, nil)
}
