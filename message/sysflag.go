package message

import "github.com/fujin-io/rocketmq-go/compress"

// Sys flag bits.
const (
	CompressedFlag          int32 = 0x1
	MultiTagsFlag           int32 = 0x1 << 1
	TransactionNotType      int32 = 0
	TransactionPreparedType int32 = 0x1 << 2
	TransactionCommitType   int32 = 0x2 << 2
	TransactionRollbackType int32 = 0x3 << 2
	BornHostV6Flag          int32 = 0x1 << 4
	StoreHostV6Flag         int32 = 0x1 << 5
	NeedUnwrapFlag          int32 = 0x1 << 6
	InnerBatchFlag          int32 = 0x1 << 7

	compressionTypeMask  int32 = 0x7 << 8
	compressionTypeShift       = 8
)

func IsCompressed(sysFlag int32) bool {
	return sysFlag&CompressedFlag == CompressedFlag
}

// CompressionType reads the algorithm id from the sys flag. Zero predates the
// compression bits and means zlib.
func CompressionType(sysFlag int32) compress.Type {
	v := (sysFlag & compressionTypeMask) >> compressionTypeShift
	if v == 0 {
		return compress.ZLIB
	}
	return compress.Type(v)
}

// WithCompression sets the compressed bit and the algorithm id.
func WithCompression(sysFlag int32, t compress.Type) int32 {
	sysFlag &^= compressionTypeMask
	return sysFlag | CompressedFlag | (int32(t)<<compressionTypeShift)&compressionTypeMask
}

func TransactionValue(sysFlag int32) int32 {
	return sysFlag & TransactionRollbackType
}
