package repo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/icn-epc/icn-epc/internal/ccn"
)

// ErrStoreUnavailable 表示 Provider 未注入仓库实例。
var ErrStoreUnavailable = errors.New("repo store unavailable")

// Provider 为内容源提供按名称取内容的能力：仓库命中直接读取，否则生成定长内容并落盘。
type Provider struct {
	store  Store
	origin string
	size   int
}

// NewProvider 构造 Provider，size 是新生成内容的字节数。
func NewProvider(store Store, origin string, size int) (*Provider, error) {
	if store == nil {
		return nil, ErrStoreUnavailable
	}
	if size <= 0 {
		return nil, fmt.Errorf("payload size must be positive, got %d", size)
	}
	return &Provider{store: store, origin: origin, size: size}, nil
}

// Content 返回名称对应的内容。
func (p *Provider) Content(ctx context.Context, name ccn.Name) ([]byte, error) {
	locator := Locator{Origin: p.origin, Name: name}

	result, err := p.store.Get(ctx, locator)
	switch {
	case err == nil:
		defer result.Reader.Close()
		return io.ReadAll(result.Reader)
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	payload := Synthesize(name, p.size)
	if _, err := p.store.Put(ctx, locator, bytes.NewReader(payload), PutOptions{}); err != nil {
		return nil, fmt.Errorf("persist %s: %w", name, err)
	}
	return payload, nil
}

// Synthesize 以名称的规范键循环填充出 size 字节的确定性内容。
func Synthesize(name ccn.Name, size int) []byte {
	seed := []byte(name.Key())
	payload := make([]byte, size)
	for i := range payload {
		payload[i] = seed[i%len(seed)]
	}
	return payload
}
