package logging

import (
	"github.com/sirupsen/logrus"

	"github.com/icn-epc/icn-epc/internal/face"
)

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// NodeFields 提供节点名称、角色与实例 ID，所有转发日志都以此为前缀。
func NodeFields(node, role, instance string) logrus.Fields {
	return logrus.Fields{
		"node":     node,
		"role":     role,
		"instance": instance,
	}
}

// PacketFields 记录内容名称与 Face 信息，供转发决策日志复用。
func PacketFields(name string, f face.Face) logrus.Fields {
	return logrus.Fields{
		"name":      name,
		"flow":      f.Flow.String(),
		"face_addr": f.Addr.String(),
		"face_port": f.Port,
		"direction": f.Direction.String(),
	}
}
