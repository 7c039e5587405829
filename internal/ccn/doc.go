// Package ccn 定义内容名称（Name）以及 Interest/Data 两类消息的编解码。
// 消息体使用 msgpack 编码，外层 IPv4/UDP 头由 wire 包负责，本包只关心名称与负载。
package ccn
