package ccn

import (
	"bytes"
	"errors"
	"testing"
)

func TestInterestEncoding(t *testing.T) {
	raw, err := EncodeInterest(Interest{Name: MustParseName("/video/3"), Seq: 3})
	if err != nil {
		t.Fatalf("编码失败: %v", err)
	}
	got, err := DecodeInterest(raw)
	if err != nil {
		t.Fatalf("解码失败: %v", err)
	}
	if got.Name.Key() != "/video/3" || got.Seq != 3 {
		t.Fatalf("Interest 不符: %s seq=%d", got.Name, got.Seq)
	}
}

func TestDataEncodingKeepsPayload(t *testing.T) {
	payload := bytes.Repeat([]byte{0xab}, 1316)
	raw, err := EncodeData(Data{Name: MustParseName("/video/3"), Payload: payload})
	if err != nil {
		t.Fatalf("编码失败: %v", err)
	}
	got, err := DecodeData(raw)
	if err != nil {
		t.Fatalf("解码失败: %v", err)
	}
	if !bytes.Equal(got.Payload, payload) {
		t.Fatalf("负载不符，长度 %d", len(got.Payload))
	}
}

func TestDecodeRejectsWrongType(t *testing.T) {
	raw, err := EncodeData(Data{Name: MustParseName("/video/3"), Payload: []byte("x")})
	if err != nil {
		t.Fatalf("编码失败: %v", err)
	}
	if _, err := DecodeInterest(raw); !errors.Is(err, ErrMalformed) {
		t.Fatalf("Data 当作 Interest 解码应返回 ErrMalformed，得到 %v", err)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, raw := range [][]byte{nil, []byte("background traffic"), {0xc1}} {
		if _, err := DecodeInterest(raw); !errors.Is(err, ErrMalformed) {
			t.Fatalf("%q 应返回 ErrMalformed，得到 %v", raw, err)
		}
	}
}

func TestEncodeRejectsEmptyName(t *testing.T) {
	if _, err := EncodeInterest(Interest{}); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("空名称应返回 ErrEmptyName，得到 %v", err)
	}
}
