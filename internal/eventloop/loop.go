// Package eventloop 提供单线程 run-to-completion 的事件循环。
//
// 一个进程内所有节点共用一个 Loop：报文到达、发送投递、会话绑定与状态查询都以事件形式
// 串行执行，因此节点状态无需加锁。
package eventloop

import (
	"context"
	"fmt"
	"sync"

	"github.com/ef-ds/deque"
	"github.com/sirupsen/logrus"
)

// Event 是在循环内执行的一个处理单元。
type Event func()

// LengthObserver 在队列长度变化时被调用，必须是非阻塞的。
type LengthObserver func(int)

// Option 定制 Loop。
type Option func(*Loop)

// WithLengthObserver 设置队列长度观察者。
func WithLengthObserver(observer LengthObserver) Option {
	return func(l *Loop) {
		if observer != nil {
			l.observer = observer
		}
	}
}

// Loop 是无界 FIFO 事件队列。
type Loop struct {
	mu       sync.Mutex
	queue    deque.Deque
	wake     chan struct{}
	logger   *logrus.Logger
	observer LengthObserver
}

// New 创建事件循环，logger 用于记录事件 panic。
func New(logger *logrus.Logger, opts ...Option) *Loop {
	l := &Loop{
		wake:     make(chan struct{}, 1),
		logger:   logger,
		observer: func(int) {},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Post 把事件追加到队尾，可在任意 goroutine 或事件内部调用。
func (l *Loop) Post(ev Event) {
	if ev == nil {
		return
	}
	l.mu.Lock()
	l.queue.PushBack(ev)
	length := l.queue.Len()
	l.mu.Unlock()

	l.observer(length)
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Len 返回排队中的事件数。
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.queue.Len()
}

func (l *Loop) pop() (Event, bool) {
	l.mu.Lock()
	v, ok := l.queue.PopFront()
	length := l.queue.Len()
	l.mu.Unlock()
	if !ok {
		return nil, false
	}
	l.observer(length)
	return v.(Event), true
}

// Drain 在当前 goroutine 中执行事件直到队列为空（包括执行期间新投递的事件），
// 返回执行的事件数。不能与 Run 并发使用。
func (l *Loop) Drain() int {
	n := 0
	for {
		ev, ok := l.pop()
		if !ok {
			return n
		}
		l.dispatch(ev)
		n++
	}
}

// Run 持续执行事件直到 ctx 结束。
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.Drain()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Call 把 fn 投递到循环中并等待其执行完毕，供 HTTP 等循环外调用方读写节点状态。
// ctx 结束时 Call 立即返回 ctx.Err()，但 fn 已在队列中，之后仍会执行。
// 不能在事件内部调用，否则会自我阻塞。
func (l *Loop) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) dispatch(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			if l.logger == nil {
				return
			}
			l.logger.WithFields(logrus.Fields{
				"action": "event_panic",
			}).Error(fmt.Sprintf("panic: %v", r))
		}
	}()
	ev()
}
