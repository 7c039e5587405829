// Package role 汇总节点角色（edge/anchor）的静态元数据，并提供统一的注册入口。
//
// 两种角色共用同一个转发引擎，区别只在于哪个方向是“本地”、哪个方向是“上游”，
// 以及隧道端点如何解析。角色在 init() 中注册，配置校验与节点构建都通过 Resolve 查询。
package role
