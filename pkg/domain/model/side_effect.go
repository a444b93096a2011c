package model

// SideEffectStatus 描述提交之后的副作用处理状态。
type SideEffectStatus string

const (
	SideEffectQueued    SideEffectStatus = "queued"    // 已进入后台队列
	SideEffectSucceeded SideEffectStatus = "succeeded" // 同步执行成功
	SideEffectFailed    SideEffectStatus = "failed"    // 执行失败，已记录日志
	SideEffectDropped   SideEffectStatus = "dropped"   // 队列已满，被丢弃
	SideEffectSkipped   SideEffectStatus = "skipped"   // 无需执行
)

// SideEffectOutcome 记录单个副作用的结果，永远不影响核心操作是否成功。
type SideEffectOutcome struct {
	Name   string           `json:"name"`
	Status SideEffectStatus `json:"status"`
	Detail string           `json:"detail,omitempty"`
}

// IdentityAction 是对外部身份服务账号的操作
type IdentityAction string

const (
	IdentityDisable IdentityAction = "disable"
	IdentityEnable  IdentityAction = "enable"
)

// IDRemap 记录恢复过程中 旧ID -> 新ID 的对应关系。
type IDRemap struct {
	m map[uint]uint
}

func NewIDRemap() *IDRemap {
	return &IDRemap{m: make(map[uint]uint)}
}

func (r *IDRemap) Set(oldID, newID uint) {
	r.m[oldID] = newID
}

func (r *IDRemap) Lookup(oldID uint) (uint, bool) {
	id, ok := r.m[oldID]
	return id, ok
}

func (r *IDRemap) Contains(oldID uint) bool {
	_, ok := r.m[oldID]
	return ok
}

func (r *IDRemap) Len() int {
	return len(r.m)
}
