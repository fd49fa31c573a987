package hunt

import "fmt"

// TaskRule fixes the point value and player-facing message for a task kind.
type TaskRule struct {
	Points   int
	Template string
}

// Message renders the success message with the rule's point value.
func (r TaskRule) Message() string {
	return fmt.Sprintf(r.Template, r.Points)
}

// taskRules is the canonical rule table. Point values are fixed for the
// campaign; changing them mid-run would break the balance/log consistency
// property for historical awards.
var taskRules = map[TaskKind]TaskRule{
	TaskLandmarkUnlock: {Points: 10, Template: "✅ 通關成功！\n💎 +%d 鑽石"},
	TaskDiamondChest:   {Points: 20, Template: "💎 寶箱開啟成功！\n💎 +%d 鑽石"},
	TaskDailyCheckIn:   {Points: 5, Template: "📅 簽到成功！\n💎 +%d 鑽石"},
}

// RuleFor returns the rule table entry for a task kind.
func RuleFor(task TaskKind) (TaskRule, bool) {
	rule, ok := taskRules[task]
	return rule, ok
}

// Player-facing messages, kept verbatim from the campaign copy. The HTTP
// layer reuses these when mapping the matching sentinel errors.
const (
	MsgWrongPassphrase = "❌ 密語錯誤，請再試一次"
	MsgNoPassphrase    = "⚠️ 此地標尚未設置密語"
	MsgLocked          = "此地標尚未解鎖"
	MsgAlreadyDone     = "✅ 通關成功！"
	MsgAlreadyChecked  = "今日已簽到"
)
