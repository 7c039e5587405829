package ccn

import (
	"errors"
	"fmt"

	"github.com/ugorji/go/codec"
)

// 消息类型沿用 NDN TLV 中 Interest/Data 的类型号。
const (
	TypeInterest uint8 = 0x05
	TypeData     uint8 = 0x06
)

// ErrMalformed 表示消息体无法解码出合法的名称或类型。
var ErrMalformed = errors.New("malformed ccn message")

// Interest 请求指定名称的内容，Seq 为消费者侧的发送序号。
type Interest struct {
	Name Name
	Seq  uint64
}

// Data 携带某个名称对应的内容负载。
type Data struct {
	Name    Name
	Payload []byte
}

type envelope struct {
	Type    uint8    `codec:"t"`
	Name    []string `codec:"n"`
	Seq     uint64   `codec:"s,omitempty"`
	Payload []byte   `codec:"p,omitempty"`
}

var msgpackHandle = func() *codec.MsgpackHandle {
	h := new(codec.MsgpackHandle)
	h.WriteExt = true
	return h
}()

// EncodeInterest 序列化 Interest。
func EncodeInterest(i Interest) ([]byte, error) {
	if i.Name.IsZero() {
		return nil, ErrEmptyName
	}
	return encode(envelope{Type: TypeInterest, Name: i.Name.components, Seq: i.Seq})
}

// EncodeData 序列化 Data。
func EncodeData(d Data) ([]byte, error) {
	if d.Name.IsZero() {
		return nil, ErrEmptyName
	}
	return encode(envelope{Type: TypeData, Name: d.Name.components, Payload: d.Payload})
}

// DecodeInterest 解码 Interest，类型不符或名称为空都视为 ErrMalformed。
func DecodeInterest(b []byte) (Interest, error) {
	env, err := decode(b)
	if err != nil {
		return Interest{}, err
	}
	if env.Type != TypeInterest {
		return Interest{}, fmt.Errorf("%w: type 0x%02x is not an interest", ErrMalformed, env.Type)
	}
	return Interest{Name: NewName(env.Name...), Seq: env.Seq}, nil
}

// DecodeData 解码 Data。
func DecodeData(b []byte) (Data, error) {
	env, err := decode(b)
	if err != nil {
		return Data{}, err
	}
	if env.Type != TypeData {
		return Data{}, fmt.Errorf("%w: type 0x%02x is not data", ErrMalformed, env.Type)
	}
	return Data{Name: NewName(env.Name...), Payload: env.Payload}, nil
}

func encode(env envelope) ([]byte, error) {
	var out []byte
	if err := codec.NewEncoderBytes(&out, msgpackHandle).Encode(env); err != nil {
		return nil, fmt.Errorf("encode ccn message: %w", err)
	}
	return out, nil
}

func decode(b []byte) (envelope, error) {
	if len(b) == 0 {
		return envelope{}, fmt.Errorf("%w: empty body", ErrMalformed)
	}
	var env envelope
	if err := codec.NewDecoderBytes(b, msgpackHandle).Decode(&env); err != nil {
		return envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(env.Name) == 0 {
		return envelope{}, fmt.Errorf("%w: %v", ErrMalformed, ErrEmptyName)
	}
	return env, nil
}
