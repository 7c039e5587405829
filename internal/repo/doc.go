// Package repo 是内容源背后的磁盘内容仓库，布局为 RepoPath/<origin>/<name 各分量>.body。
// 写入采用临时文件 + rename，读取返回可流式读取的正文与文件信息。
// Provider 在仓库未命中时按固定长度生成内容并落盘，供出口侧的内容源应答 Interest。
package repo
