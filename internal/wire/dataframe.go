package wire

import (
	"encoding/binary"
)

// DataFrame is one FEC shard travelling over the wire after the handshake
// completes. RunNo/RunIdx identify its position within a FEC batch;
// HighRecvFrameNo/TotalRecvFrames are piggy-backed loss-estimation
// counters from the sender's own receive side.
type DataFrame struct {
	FrameNo         uint64
	RunNo           uint64
	RunIdx          uint8
	DataShards      uint8
	ParityShards    uint8
	HighRecvFrameNo uint64
	TotalRecvFrames uint64
	Body            []byte
}

// dataFrameHeaderSize is the size in bytes of every fixed-width field
// preceding Body.
const dataFrameHeaderSize = 8 + 8 + 1 + 1 + 1 + 8 + 8

// EncodeDataFrame serializes a DataFrame to its wire form.
func EncodeDataFrame(df DataFrame) []byte {
	buf := make([]byte, dataFrameHeaderSize+len(df.Body))
	binary.BigEndian.PutUint64(buf[0:8], df.FrameNo)
	binary.BigEndian.PutUint64(buf[8:16], df.RunNo)
	buf[16] = df.RunIdx
	buf[17] = df.DataShards
	buf[18] = df.ParityShards
	binary.BigEndian.PutUint64(buf[19:27], df.HighRecvFrameNo)
	binary.BigEndian.PutUint64(buf[27:35], df.TotalRecvFrames)
	copy(buf[dataFrameHeaderSize:], df.Body)
	return buf
}

// DecodeDataFrame parses a DataFrame from its wire form. The returned
// Body aliases data; callers that retain the frame past the lifetime of
// the input buffer should copy it.
func DecodeDataFrame(data []byte) (DataFrame, error) {
	if len(data) < dataFrameHeaderSize {
		return DataFrame{}, ErrTruncated
	}
	var df DataFrame
	df.FrameNo = binary.BigEndian.Uint64(data[0:8])
	df.RunNo = binary.BigEndian.Uint64(data[8:16])
	df.RunIdx = data[16]
	df.DataShards = data[17]
	df.ParityShards = data[18]
	df.HighRecvFrameNo = binary.BigEndian.Uint64(data[19:27])
	df.TotalRecvFrames = binary.BigEndian.Uint64(data[27:35])
	df.Body = data[dataFrameHeaderSize:]
	return df, nil
}
