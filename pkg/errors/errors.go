package errors

import "errors"

// ErrStatusConflict 状态条件更新冲突：记录状态已被其他写入者抢先变更
// （例如顾问审批与调度器升级同时命中同一条申请，后到者不生效）
var ErrStatusConflict = errors.New("申请状态已被其他操作变更，请刷新后重试")
