// Package fw 实现命名内容转发引擎：一个引擎实例同时读写本节点的 CS、PIT 与绑定表，
// 对每个 Interest 决定命中缓存、合并到已有请求或向上游转发，并把到达的 Data
// 按请求到达顺序逐个扇出给所有等待方。
//
// 引擎本身不做任何并发控制，调用方必须保证同一节点的事件串行执行（见 eventloop）。
// 不同角色（edge/anchor）只在注入的两个方向 Transport 上有区别。
package fw
