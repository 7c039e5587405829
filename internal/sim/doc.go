// Package sim 是进程内的投递基底与拓扑装配：无线承载、回传网络、出口、内容源与请求负载。
//
// 所有投递都以事件形式进入共享的 eventloop.Loop，因此发送方永远不会在调用栈内
// 直接进入接收方的处理逻辑。
package sim
