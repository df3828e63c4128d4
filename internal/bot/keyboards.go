package bot

import (
	"strconv"

	"trenbot/internal/planner"
	kit "trenbot/internal/transport"
	"trenbot/pkg/tgui"
)

// Callback data areas/actions. Tokens ride in the payload part of
// "area:action:payload".
const (
	areaMenu     = "menu"
	areaAdd      = "add"
	areaInterval = "int"
	areaWorkout  = "wk"

	actionAdd      = "add"
	actionList     = "list"
	actionProfile  = "profile"
	actionInterval = "interval"
	actionDay      = "day"
	actionTime     = "time"
	actionSet      = "set"
	actionDelete   = "del"
)

var intervalChoices = []int{1, 3, 6}

func mainMenu() *tgui.Inline {
	return tgui.NewInline().
		Row(tgui.Btn("➕ Add workout", tgui.Data(areaMenu, actionAdd, ""))).
		Row(tgui.Btn("📅 My workouts", tgui.Data(areaMenu, actionList, ""))).
		Row(tgui.Btn("👤 Profile", tgui.Data(areaMenu, actionProfile, ""))).
		Row(tgui.Btn("⏱ Reminder interval", tgui.Data(areaMenu, actionInterval, "")))
}

func dayChoices() []kit.Choice {
	out := make([]kit.Choice, 0, 7)
	for _, d := range planner.Weekdays() {
		out = append(out, kit.Choice{
			Label: d.Label(),
			Token: tgui.Data(areaAdd, actionDay, d.Token()),
		})
	}
	return out
}

func timeChoices() []kit.Choice {
	out := make([]kit.Choice, 0, planner.PickerLastHour-planner.PickerFirstHour+1)
	for h := planner.PickerFirstHour; h <= planner.PickerLastHour; h++ {
		out = append(out, kit.Choice{
			Label: planner.FormatHour(h),
			Token: tgui.Data(areaAdd, actionTime, strconv.Itoa(h)),
		})
	}
	return out
}

func intervalChoiceSet() []kit.Choice {
	out := make([]kit.Choice, 0, len(intervalChoices))
	for _, h := range intervalChoices {
		out = append(out, kit.Choice{
			Label: strconv.Itoa(h) + "h",
			Token: tgui.Data(areaInterval, actionSet, strconv.Itoa(h)),
		})
	}
	return out
}

func deleteButton(workoutID int64) *tgui.Inline {
	return tgui.NewInline().
		Row(tgui.Btn("🗑 Delete", tgui.Data(areaWorkout, actionDelete, strconv.FormatInt(workoutID, 10))))
}

func validInterval(h int) bool {
	for _, v := range intervalChoices {
		if v == h {
			return true
		}
	}
	return false
}
