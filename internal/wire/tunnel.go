package wire

import (
	"errors"
	"fmt"
	"net/netip"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"

	"github.com/icn-epc/icn-epc/internal/face"
)

// GTPUPort 是 3GPP 规定的 GTP-U 端口。
const GTPUPort uint16 = 2152

// gtpMessageTypeGPDU 表示携带用户面报文的 G-PDU。
const gtpMessageTypeGPDU uint8 = 0xff

const gtpuHeaderLen = 8

// TunnelOverhead 是 GTP-U 封装追加的外层 IPv4/UDP/GTP-U 头长度。
const TunnelOverhead = ipv4HeaderLen + udpHeaderLen + gtpuHeaderLen

// MaxTunneledBody 是内层报文仍能完整封装进隧道时的最大消息体长度。
const MaxTunneledBody = MaxBody - TunnelOverhead

// ErrNotGPDU 表示隧道报文不是用户面 G-PDU（例如控制消息）。
var ErrNotGPDU = errors.New("gtp-u message is not a g-pdu")

// TunnelFrame 是解封装后的隧道报文。
type TunnelFrame struct {
	// Source 是外层源地址 + TEID，用于反查本地流。
	Source face.TunnelEndpoint
	Dst    netip.Addr
	Inner  []byte
}

// Encapsulate 以 local 为外层源地址，把内层报文封装进发往 ep 的 GTP-U 隧道。
func Encapsulate(local netip.Addr, ep face.TunnelEndpoint, port uint16, inner []byte) ([]byte, error) {
	if TunnelOverhead+len(inner) > maxIPv4Length {
		return nil, fmt.Errorf("%w: inner packet %d bytes, max %d", ErrOversized, len(inner), maxIPv4Length-TunnelOverhead)
	}
	if port == 0 {
		port = GTPUPort
	}
	ip, udp, err := headerLayers(HeaderTemplate{
		Src:     local,
		Dst:     ep.Peer,
		SrcPort: port,
		DstPort: port,
	})
	if err != nil {
		return nil, err
	}
	gtp := &layers.GTPv1U{
		Version:       1,
		ProtocolType:  1,
		MessageType:   gtpMessageTypeGPDU,
		MessageLength: uint16(len(inner)),
		TEID:          ep.TEID,
	}
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, ip, udp, gtp, gopacket.Payload(inner)); err != nil {
		return nil, fmt.Errorf("serialize gtp-u: %w", err)
	}
	return buf.Bytes(), nil
}

// Decapsulate 剥离外层 IPv4/UDP/GTP-U 头。
func Decapsulate(raw []byte) (TunnelFrame, error) {
	outer, err := Parse(raw)
	if err != nil {
		return TunnelFrame{}, fmt.Errorf("outer header: %w", err)
	}
	var gtp layers.GTPv1U
	if err := gtp.DecodeFromBytes(outer.Body, gopacket.NilDecodeFeedback); err != nil {
		return TunnelFrame{}, fmt.Errorf("decode gtp-u: %w", err)
	}
	frame := TunnelFrame{
		Source: face.TunnelEndpoint{Peer: outer.Header.Src, TEID: gtp.TEID},
		Dst:    outer.Header.Dst,
		Inner:  gtp.Payload,
	}
	if gtp.MessageType != gtpMessageTypeGPDU {
		return frame, fmt.Errorf("%w: type 0x%02x", ErrNotGPDU, gtp.MessageType)
	}
	return frame, nil
}
