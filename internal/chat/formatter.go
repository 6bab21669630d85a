// Package chat holds the text-facing collaborators of the booking core: command
// recognition and reply formatting.
package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/capitalize-ai/equipment-booking/internal/model"
)

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// Formatter renders replies in Japanese.
type Formatter struct {
	clock Clock
	loc   *time.Location
}

// NewFormatter creates a formatter. Times are shown in loc without conversion
// of the wall-clock values the parser produced.
func NewFormatter(clock Clock, loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.Local
	}
	return &Formatter{clock: clock, loc: loc}
}

// Format returns the reply text for r. It never returns an empty string.
func (f *Formatter) Format(r *model.Reply) string {
	switch r.Kind {
	case model.ReplyPromptEquipment:
		return fmt.Sprintf("予約を開始します。\n\n機器番号を入力してください（1-%d）:", r.EquipmentCount)

	case model.ReplyEquipmentOutOfRange:
		return fmt.Sprintf("機器番号は1-%dの数字で入力してください。", r.EquipmentCount)

	case model.ReplyPromptStart:
		return "開始日時を入力してください。\n例: " + f.example(14)

	case model.ReplyInvalidDateTime:
		return "日時の形式が正しくありません。\n例: " + f.example(14)

	case model.ReplyStartInPast:
		return "過去の日時は指定できません。"

	case model.ReplyPromptEnd:
		return "終了予定日時を入力してください。\n例: " + f.example(16)

	case model.ReplyEndNotAfterStart:
		return "終了日時は開始日時より後に設定してください。"

	case model.ReplyReserved:
		res := r.Reservation
		return fmt.Sprintf("✅ 予約完了\n\n予約番号: %d\n機器: %d号機\n開始: %s\n終了: %s",
			res.ID, res.EquipmentID, f.dateTime(res.Start), f.dateTime(res.End))

	case model.ReplyConflict:
		return "❌ 予約失敗\n\nその時間帯は既に予約されています。\n\n" + f.schedule(r.EquipmentID, r.Reservations)

	case model.ReplyCancelPrompt:
		if len(r.Reservations) == 0 {
			return "キャンセルする予約番号を入力してください:\n\nあなたの予約はありません。"
		}
		return "キャンセルする予約番号を入力してください:\n\n" + f.entries(r.Reservations)

	case model.ReplyCancelled:
		return fmt.Sprintf("✅ キャンセル完了\n\n予約番号: %d\n機器: %d号機", r.Reservation.ID, r.Reservation.EquipmentID)

	case model.ReplyCancelNotFound:
		return "指定された予約が見つかりません。"

	case model.ReplyActiveList:
		if r.Stored == 0 {
			return "現在予約はありません。"
		}
		if len(r.Reservations) == 0 {
			return "現在有効な予約はありません。"
		}
		return "📋 予約一覧\n\n" + f.entries(r.Reservations)

	default:
		return f.help(r.EquipmentCount)
	}
}

func (f *Formatter) help(equipmentCount int) string {
	return fmt.Sprintf(`📱 予約システム ヘルプ

【コマンド一覧】
・予約 → 新規予約
・予約確認 → 全予約表示
・キャンセル → 予約取消
・ヘルプ → このメッセージ

【使い方】
1. "予約"と送信
2. 機器番号(1-%d)を入力
3. 開始日時を入力
4. 終了日時を入力

【日時入力例】
2024/12/25 14:00
2024-12-25 14:00
12/25 14:00`, equipmentCount)
}

func (f *Formatter) schedule(equipmentID int, rs []model.Reservation) string {
	if len(rs) == 0 {
		return fmt.Sprintf("機器%d号機は現在空いています。", equipmentID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "機器%d号機の予約状況:\n\n", equipmentID)
	for _, r := range rs {
		b.WriteString(f.span(r))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (f *Formatter) entries(rs []model.Reservation) string {
	var b strings.Builder
	for _, r := range rs {
		fmt.Fprintf(&b, "[%d] 機器%d号機\n%s\n\n", r.ID, r.EquipmentID, f.span(r))
	}
	return strings.TrimRight(b.String(), "\n")
}

// span prints "M/D HH:MM - HH:MM", repeating the date when the end falls on
// another day.
func (f *Formatter) span(r model.Reservation) string {
	start, end := r.Start.In(f.loc), r.End.In(f.loc)
	if start.Year() == end.Year() && start.YearDay() == end.YearDay() {
		return f.dateTime(start) + " - " + end.Format("15:04")
	}
	return f.dateTime(start) + " - " + f.dateTime(end)
}

func (f *Formatter) dateTime(t time.Time) string {
	return t.In(f.loc).Format("1/2 15:04")
}

// example is tomorrow at the given hour, in the full input format.
func (f *Formatter) example(hour int) string {
	d := f.clock.Now().In(f.loc).AddDate(0, 0, 1)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, f.loc).Format("2006/01/02 15:04")
}
