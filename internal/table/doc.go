// Package table 实现节点独占的三张表：内容仓库（CS）、待定兴趣表（PIT）
// 以及隧道绑定表。三者都不加锁，由节点所在的事件循环保证同一时刻只有一个处理函数访问。
package table
