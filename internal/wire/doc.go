// Package wire 负责报文头的解析与构造：内层 IPv4/UDP（承载 ccn 消息体）
// 以及回传链路上的 GTPv1-U 隧道封装。转发引擎只通过 HeaderTemplate
// 读写地址与端口，不直接接触字节布局。
package wire
