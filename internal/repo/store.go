package repo

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/icn-epc/icn-epc/internal/ccn"
)

// Store 负责管理内容仓库的读写。
type Store interface {
	// Get 返回一个可流式读取的内容条目。若不存在则返回 ErrNotFound。
	Get(ctx context.Context, locator Locator) (*ReadResult, error)

	// Put 写入内容并产出新的 Entry 描述，写入失败时清理临时文件。
	Put(ctx context.Context, locator Locator, body io.Reader, opts PutOptions) (*Entry, error)

	// Remove 删除内容文件，不存在时不报错。
	Remove(ctx context.Context, locator Locator) error
}

// PutOptions 控制写入过程中的可选属性。
type PutOptions struct {
	ModTime time.Time
}

// Locator 唯一定位一个内容条目（内容源 + 内容名称）。
type Locator struct {
	Origin string
	Name   ccn.Name
}

// Entry 描述一个已落盘的内容条目。
type Entry struct {
	Locator   Locator   `json:"-"`
	FilePath  string    `json:"file_path"`
	SizeBytes int64     `json:"size_bytes"`
	ModTime   time.Time `json:"mod_time"`
}

// ReadResult 组合 Entry 与正文 Reader。
type ReadResult struct {
	Entry  Entry
	Reader io.ReadSeekCloser
}

// ErrNotFound 表示内容不存在。
var ErrNotFound = errors.New("repo entry not found")
