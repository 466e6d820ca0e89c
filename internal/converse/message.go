// Package converse implements the chat input controller: it mediates one
// user turn from raw input to rendered conversation state, against an
// injected rendering surface and an injected chat endpoint.
package converse

import (
	"strconv"
	"time"
)

// Role categorises a rendered message.
type Role string

const (
	RoleUser     Role = "user"
	RoleAnswerer Role = "answerer"
	RoleChecker  Role = "checker"
	RoleSystem   Role = "system"
)

// Label returns the display name used by the surfaces.
func (r Role) Label() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAnswerer:
		return "问题回答者"
	case RoleChecker:
		return "检查者"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// FailureText is the fixed message appended for every failed submission.
const FailureText = "系统故障: 无法连接到核心引擎。请稍后再试。"

// MarkerText is the status line shown next to the working indicator.
const MarkerText = "正在处理..."

// Message is one rendered chat bubble. It is never mutated after creation.
// Seq numbers the messages of one controller in creation order, from 1.
type Message struct {
	Role    Role
	Content string
	Seq     uint64
	At      time.Time
}

// Marker is the placeholder shown while a response is awaited.
type Marker struct {
	ID string
}

// NewMarker derives a marker ID from its creation time.
func NewMarker(at time.Time) Marker {
	return Marker{ID: "loading-" + strconv.FormatInt(at.UnixMilli(), 10)}
}
