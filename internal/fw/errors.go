package fw

import "errors"

var (
	// ErrMalformedMessage 表示报文头或 ICN 消息体无法解析，报文被丢弃且状态不变。
	ErrMalformedMessage = errors.New("malformed message")
	// ErrUnresolvedFace 表示隧道报文没有对应的本地流绑定。
	ErrUnresolvedFace = errors.New("unresolved face")
	// ErrUnsolicitedData 表示到达的 Data 没有任何待决请求。
	ErrUnsolicitedData = errors.New("unsolicited data")
	// ErrUnknownDestination 表示目标 Face 无法映射到任何隧道端点。
	ErrUnknownDestination = errors.New("unknown destination")
)
