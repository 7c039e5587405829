package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net/netip"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"

	"github.com/icn-epc/icn-epc/internal/face"
)

const (
	defaultTTL    = 64
	ipv4HeaderLen = 20
	udpHeaderLen  = 8
	maxIPv4Length = 65535

	// MaxBody 是单个 IPv4/UDP 报文能承载的最大消息体长度。
	MaxBody = maxIPv4Length - ipv4HeaderLen - udpHeaderLen
)

var (
	// ErrTruncated 表示报文长度不足以容纳声明的头部。
	ErrTruncated = errors.New("packet truncated")
	// ErrNotUDP 表示内层 IPv4 报文承载的不是 UDP。
	ErrNotUDP = errors.New("packet is not ipv4/udp")
	// ErrOversized 表示序列化结果会超过 IPv4 总长度上限。
	ErrOversized = errors.New("packet exceeds ipv4 length limit")
)

// HeaderTemplate 记录一次成功投递时的传输头字段，可针对新的请求方重新套用。
type HeaderTemplate struct {
	Src     netip.Addr
	Dst     netip.Addr
	SrcPort uint16
	DstPort uint16
	TTL     uint8
	TOS     uint8
}

// Retemplate 以 Face 的地址/端口作为新的目的地，其余字段保持不变。
func (h HeaderTemplate) Retemplate(f face.Face) HeaderTemplate {
	h.Dst = f.Addr
	h.DstPort = f.Port
	return h
}

// ReturnFace 根据请求报文的源地址/端口得到回程 Face。
func (h HeaderTemplate) ReturnFace(flow face.FlowID, dir face.Direction) face.Face {
	return face.Face{Flow: flow, Addr: h.Src, Port: h.SrcPort, Direction: dir}
}

// Packet 是解析后的内层报文：IPv4/UDP 头模板 + ccn 消息体。
type Packet struct {
	Header HeaderTemplate
	Body   []byte
}

// Parse 解码 IPv4/UDP 报文，不解析消息体。
func Parse(raw []byte) (Packet, error) {
	var ip layers.IPv4
	if err := ip.DecodeFromBytes(raw, gopacket.NilDecodeFeedback); err != nil {
		return Packet{}, fmt.Errorf("decode ipv4: %w", err)
	}
	if ip.Protocol != layers.IPProtocolUDP {
		return Packet{}, fmt.Errorf("%w: protocol %s", ErrNotUDP, ip.Protocol)
	}
	udp, err := decodeUDP(ip.Payload)
	if err != nil {
		return Packet{}, err
	}
	src, _ := netip.AddrFromSlice(ip.SrcIP)
	dst, _ := netip.AddrFromSlice(ip.DstIP)
	return Packet{
		Header: HeaderTemplate{
			Src:     src.Unmap(),
			Dst:     dst.Unmap(),
			SrcPort: uint16(udp.SrcPort),
			DstPort: uint16(udp.DstPort),
			TTL:     ip.TTL,
			TOS:     ip.TOS,
		},
		Body: udp.Payload,
	}, nil
}

// Build 按模板序列化 IPv4/UDP 报文并计算长度与校验和。
func Build(h HeaderTemplate, body []byte) ([]byte, error) {
	if len(body) > MaxBody {
		return nil, fmt.Errorf("%w: udp body %d bytes, max %d", ErrOversized, len(body), MaxBody)
	}
	ip, udp, err := headerLayers(h)
	if err != nil {
		return nil, err
	}
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, ip, udp, gopacket.Payload(body)); err != nil {
		return nil, fmt.Errorf("serialize packet: %w", err)
	}
	return buf.Bytes(), nil
}

func headerLayers(h HeaderTemplate) (*layers.IPv4, *layers.UDP, error) {
	if !h.Src.Is4() || !h.Dst.Is4() {
		return nil, nil, fmt.Errorf("ipv4 addresses required: src=%s dst=%s", h.Src, h.Dst)
	}
	ttl := h.TTL
	if ttl == 0 {
		ttl = defaultTTL
	}
	ip := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      ttl,
		TOS:      h.TOS,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    h.Src.AsSlice(),
		DstIP:    h.Dst.AsSlice(),
	}
	udp := &layers.UDP{
		SrcPort: layers.UDPPort(h.SrcPort),
		DstPort: layers.UDPPort(h.DstPort),
	}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		return nil, nil, err
	}
	return ip, udp, nil
}

func decodeUDP(data []byte) (*layers.UDP, error) {
	if len(data) < udpHeaderLen {
		return nil, fmt.Errorf("%w: udp header needs %d bytes, have %d", ErrTruncated, udpHeaderLen, len(data))
	}
	if declared := int(binary.BigEndian.Uint16(data[4:6])); declared > len(data) || (declared != 0 && declared < udpHeaderLen) {
		return nil, fmt.Errorf("%w: udp length %d, have %d", ErrTruncated, declared, len(data))
	}
	udp := &layers.UDP{}
	if err := udp.DecodeFromBytes(data, gopacket.NilDecodeFeedback); err != nil {
		return nil, fmt.Errorf("decode udp: %w", err)
	}
	return udp, nil
}
