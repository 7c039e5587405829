package eventloop

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestDrainRunsInFIFOOrder(t *testing.T) {
	loop := New(nil)
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		loop.Post(func() { order = append(order, i) })
	}
	loop.Post(func() {
		loop.Post(func() { order = append(order, 99) })
	})

	if n := loop.Drain(); n != 5 {
		t.Fatalf("应执行 5 个事件，得到 %d", n)
	}
	want := []int{0, 1, 2, 99}
	if len(order) != len(want) {
		t.Fatalf("执行顺序错误: %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("执行顺序错误: %v", order)
		}
	}
	if loop.Len() != 0 {
		t.Fatalf("Drain 后队列应为空")
	}
}

func TestPanicDoesNotStopLoop(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logrus.New()
	logger.SetOutput(buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	loop := New(logger)
	ran := false
	loop.Post(func() { panic("boom") })
	loop.Post(func() { ran = true })
	loop.Drain()

	if !ran {
		t.Fatalf("panic 之后的事件仍应执行")
	}
	if !strings.Contains(buf.String(), `"action":"event_panic"`) {
		t.Fatalf("应记录 event_panic 日志: %s", buf.String())
	}
}

func TestRunAndCall(t *testing.T) {
	loop := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	counter := 0
	for i := 0; i < 10; i++ {
		loop.Post(func() { counter++ })
	}
	var got int
	callCtx, callCancel := context.WithTimeout(context.Background(), time.Second)
	defer callCancel()
	if err := loop.Call(callCtx, func() { got = counter }); err != nil {
		t.Fatalf("Call 返回错误: %v", err)
	}
	if got != 10 {
		t.Fatalf("Call 应在先前事件之后执行，得到 %d", got)
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("Run 应返回 context.Canceled，得到 %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Run 未在取消后退出")
	}
}

func TestCallHonoursContext(t *testing.T) {
	loop := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := loop.Call(ctx, func() {}); err == nil {
		t.Fatalf("循环未运行且 ctx 已取消时 Call 应返回错误")
	}
}

func TestLengthObserver(t *testing.T) {
	var mu sync.Mutex
	var lengths []int
	loop := New(nil, WithLengthObserver(func(n int) {
		mu.Lock()
		lengths = append(lengths, n)
		mu.Unlock()
	}))
	loop.Post(func() {})
	loop.Post(func() {})
	loop.Drain()

	want := []int{1, 2, 1, 0}
	if len(lengths) != len(want) {
		t.Fatalf("长度观察序列错误: %v", lengths)
	}
	for i := range want {
		if lengths[i] != want[i] {
			t.Fatalf("长度观察序列错误: %v", lengths)
		}
	}
}
